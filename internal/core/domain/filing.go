package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Filing statuses follow the registry lifecycle: a submitted filing is
// PENDING until payment, PAID until the back office processes it, then
// COMPLETED.
const (
	FilingStatusDraft     = "DRAFT"
	FilingStatusPending   = "PENDING"
	FilingStatusPaid      = "PAID"
	FilingStatusCompleted = "COMPLETED"
)

const (
	FilingTypeIncorporationApplication = "incorporationApplication"
	FilingTypeCorrection               = "correction"
	FilingTypeAnnualReport             = "annualReport"
	FilingTypeChangeOfAddress          = "changeOfAddress"
	FilingTypeChangeOfDirectors        = "changeOfDirectors"
	FilingTypeAlteration               = "alteration"
)

var ErrInvalidStatusTransition = errors.New("invalid filing status transition")

// Filing is the stored form of a submitted filing. Data holds the raw filing
// document; type, status and effective date are denormalized for queries.
type Filing struct {
	ID                 int64
	BusinessIdentifier string
	Type               string
	Status             string
	Data               json.RawMessage
	EffectiveDate      *time.Time
	PaymentDate        *time.Time
	CompletionDate     *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (f Filing) Validate() error {
	if err := ValidateIdentifier(f.BusinessIdentifier); err != nil {
		return err
	}
	if f.Type == "" {
		return errors.New("filing type is required")
	}
	if !json.Valid(f.Data) {
		return errors.New("filing data must be valid json")
	}
	return nil
}

// CanTransition reports whether a filing may move from its current status to
// next. Only the forward payment/completion path is allowed.
func (f Filing) CanTransition(next string) bool {
	switch f.Status {
	case FilingStatusDraft:
		return next == FilingStatusPending
	case FilingStatusPending:
		return next == FilingStatusPaid
	case FilingStatusPaid:
		return next == FilingStatusCompleted
	default:
		return false
	}
}

// FilingEnvelope is the parsed document tree of one filing, immutable during
// validation. The JSON shape mirrors the registry filing schema.
type FilingEnvelope struct {
	Filing FilingBody `json:"filing"`
}

type FilingBody struct {
	Header                   Header                    `json:"header"`
	Business                 *BusinessSnapshot         `json:"business,omitempty"`
	IncorporationApplication *IncorporationApplication `json:"incorporationApplication,omitempty"`
}

type Header struct {
	Name          string  `json:"name"`
	Date          string  `json:"date"`
	CertifiedBy   string  `json:"certifiedBy"`
	Email         string  `json:"email"`
	FilingID      int64   `json:"filingId,omitempty"`
	EffectiveDate *string `json:"effectiveDate,omitempty"`
}

type BusinessSnapshot struct {
	Identifier string    `json:"identifier"`
	LegalName  string    `json:"legalName,omitempty"`
	LegalType  LegalType `json:"legalType,omitempty"`
}

type IncorporationApplication struct {
	NameRequest            NameRequestInfo         `json:"nameRequest"`
	Offices                Offices                 `json:"offices"`
	ContactPoint           ContactPoint            `json:"contactPoint"`
	Parties                []Party                 `json:"parties"`
	ShareStructure         *ShareStructure         `json:"shareStructure,omitempty"`
	Cooperative            *Cooperative            `json:"cooperative,omitempty"`
	CourtOrder             *CourtOrder             `json:"courtOrder,omitempty"`
	IncorporationAgreement *IncorporationAgreement `json:"incorporationAgreement,omitempty"`
}

type NameRequestInfo struct {
	NRNumber  string    `json:"nrNumber,omitempty"`
	LegalName string    `json:"legalName,omitempty"`
	LegalType LegalType `json:"legalType"`
}

type Offices struct {
	RegisteredOffice *Office `json:"registeredOffice,omitempty"`
	RecordsOffice    *Office `json:"recordsOffice,omitempty"`
}

type Office struct {
	DeliveryAddress *Address `json:"deliveryAddress,omitempty"`
	MailingAddress  *Address `json:"mailingAddress,omitempty"`
}

// Address fields are pointers: the validator distinguishes a missing field
// from an empty one.
type Address struct {
	StreetAddress           *string `json:"streetAddress"`
	StreetAddressAdditional *string `json:"streetAddressAdditional,omitempty"`
	AddressCity             *string `json:"addressCity"`
	AddressRegion           *string `json:"addressRegion"`
	AddressCountry          *string `json:"addressCountry"`
	PostalCode              *string `json:"postalCode"`
}

type ContactPoint struct {
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type Party struct {
	Officer         Officer  `json:"officer"`
	Roles           []Role   `json:"roles"`
	MailingAddress  *Address `json:"mailingAddress,omitempty"`
	DeliveryAddress *Address `json:"deliveryAddress,omitempty"`
}

type Officer struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	Email      string `json:"email,omitempty"`
}

type Role struct {
	RoleType        string `json:"roleType"`
	AppointmentDate string `json:"appointmentDate,omitempty"`
}

const (
	RoleCompletingParty = "Completing Party"
	RoleDirector        = "Director"
	RoleIncorporator    = "Incorporator"
)

// HasRole reports whether the party holds the given role label.
func (p Party) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r.RoleType == role {
			return true
		}
	}
	return false
}

// RoleNames returns the party's role labels in declared order.
func (p Party) RoleNames() []string {
	names := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		names = append(names, r.RoleType)
	}
	return names
}

type ShareStructure struct {
	ShareClasses []ShareClass `json:"shareClasses"`
}

type ShareClass struct {
	Name                    string        `json:"name"`
	Priority                int           `json:"priority,omitempty"`
	HasMaximumShares        bool          `json:"hasMaximumShares"`
	MaxNumberOfShares       *int64        `json:"maxNumberOfShares"`
	HasParValue             bool          `json:"hasParValue"`
	ParValue                *float64      `json:"parValue"`
	Currency                *string       `json:"currency"`
	HasRightsOrRestrictions bool          `json:"hasRightsOrRestrictions,omitempty"`
	Series                  []ShareSeries `json:"series,omitempty"`
}

type ShareSeries struct {
	Name              string `json:"name"`
	Priority          int    `json:"priority,omitempty"`
	HasMaximumShares  bool   `json:"hasMaximumShares"`
	MaxNumberOfShares *int64 `json:"maxNumberOfShares"`
}

type Cooperative struct {
	CooperativeAssociationType string `json:"cooperativeAssociationType,omitempty"`
	RulesFileKey               string `json:"rulesFileKey"`
	RulesFileName              string `json:"rulesFileName"`
	MemorandumFileKey          string `json:"memorandumFileKey"`
	MemorandumFileName         string `json:"memorandumFileName"`
}

type CourtOrder struct {
	FileNumber    string `json:"fileNumber,omitempty"`
	OrderDate     string `json:"orderDate,omitempty"`
	EffectOfOrder string `json:"effectOfOrder,omitempty"`
}

type IncorporationAgreement struct {
	AgreementType string `json:"agreementType"`
}

// ParseFilingEnvelope decodes a raw filing document.
func ParseFilingEnvelope(data json.RawMessage) (*FilingEnvelope, error) {
	var env FilingEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
