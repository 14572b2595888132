package domain

import (
	"errors"
	"regexp"
	"time"
)

var (
	ErrInvalidIdentifier = errors.New("invalid business identifier")
	ErrNotFound          = errors.New("not found")
)

var identifierPattern = regexp.MustCompile(`^[A-Z]{1,3}[0-9]{7}$|^NR [0-9]{7}$`)

// LegalType is the entity type a filing declares, e.g. "BEN" for a benefit
// company or "CP" for a cooperative.
type LegalType string

const (
	LegalTypeBenefitCompany LegalType = "BEN"
	LegalTypeBCCompany      LegalType = "BC"
	LegalTypeBCULCCompany   LegalType = "ULC"
	LegalTypeBCCCC          LegalType = "CC"
	LegalTypeCooperative    LegalType = "CP"
)

// DomesticRegion and DomesticCountry are the fixed jurisdiction codes that
// office addresses of in-province entity types must carry.
const (
	DomesticRegion  = "BC"
	DomesticCountry = "CA"
)

// DomesticLegalTypes are the entity types whose office addresses must sit in
// the domestic jurisdiction.
var DomesticLegalTypes = map[LegalType]bool{
	LegalTypeBenefitCompany: true,
	LegalTypeBCCompany:      true,
	LegalTypeBCULCCompany:   true,
	LegalTypeBCCCC:          true,
}

// LegalTypeInfo carries the display strings for a legal type, used by the
// notification templates.
type LegalTypeInfo struct {
	Description         string
	NumberedDescription string
}

var LegalTypes = map[LegalType]LegalTypeInfo{
	LegalTypeBenefitCompany: {Description: "Benefit Company", NumberedDescription: "Numbered Benefit Company"},
	LegalTypeBCCompany:      {Description: "Limited Company", NumberedDescription: "Numbered Limited Company"},
	LegalTypeBCULCCompany:   {Description: "Unlimited Liability Company", NumberedDescription: "Numbered Unlimited Liability Company"},
	LegalTypeBCCCC:          {Description: "Community Contribution Company", NumberedDescription: "Numbered Community Contribution Company"},
	LegalTypeCooperative:    {Description: "Cooperative Association", NumberedDescription: "Numbered Cooperative Association"},
}

type Business struct {
	ID           int64
	Identifier   string
	LegalName    string
	LegalType    LegalType
	Email        string
	FoundingDate time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (b Business) Validate() error {
	return ValidateIdentifier(b.Identifier)
}

func ValidateIdentifier(identifier string) error {
	if identifier == "" || !identifierPattern.MatchString(identifier) {
		return ErrInvalidIdentifier
	}
	return nil
}
