package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openregistry/filings-api/internal/core/domain"
	"github.com/openregistry/filings-api/internal/core/ports"
)

const (
	maxOfficerNameLength = 20

	minEffectiveDateLead   = 2 * time.Minute
	maxEffectiveDateWindow = 10 * 24 * time.Hour
)

const incorporationApplicationPath = "/filing/incorporationApplication"

// FilingValidator applies the incorporation-application business rules. It is
// stateless between calls; the name-request and document-storage collaborators
// are the only outbound dependencies.
type FilingValidator struct {
	nameRequests ports.NameRequestLookup
	storage      ports.DocumentStorage
}

func NewFilingValidator(nameRequests ports.NameRequestLookup, storage ports.DocumentStorage) *FilingValidator {
	return &FilingValidator{nameRequests: nameRequests, storage: storage}
}

// ValidateIncorporationApplication runs every rule checker in a fixed
// sequence, collecting all violations before returning. It never stops at the
// first failure. A nil result means the filing passed. The business context
// may be nil for a not-yet-created entity; now is the reference instant for
// the effective-date window.
func (v *FilingValidator) ValidateIncorporationApplication(ctx context.Context, business *domain.Business, env *domain.FilingEnvelope, now time.Time) *domain.FilingValidationError {
	app := env.Filing.IncorporationApplication
	if app == nil {
		return domain.NewFilingValidationError([]domain.ValidationError{
			{Message: "incorporationApplication is required", Path: incorporationApplicationPath},
		})
	}

	legalType := app.NameRequest.LegalType

	var errs []domain.ValidationError
	errs = append(errs, validateOffices(app, legalType)...)
	errs = append(errs, v.validateNameRequest(ctx, business, app)...)
	errs = append(errs, validateRoles(app, legalType)...)
	errs = append(errs, validatePartiesMailingAddress(app, legalType)...)
	errs = append(errs, validatePartiesNames(app)...)
	errs = append(errs, validateShareStructure(app)...)
	errs = append(errs, validateEffectiveDate(env.Filing.Header, now)...)
	if legalType == domain.LegalTypeCooperative {
		errs = append(errs, v.validateCooperativeDocuments(ctx, app)...)
	}
	errs = append(errs, validateCourtOrder(app, legalType)...)
	errs = append(errs, validateIncorporationAgreement(app, legalType)...)

	return domain.NewFilingValidationError(errs)
}

// validateOffices checks that both fixed offices sit in the domestic
// jurisdiction for in-province legal types. Each of the four address fields
// fails independently, so a filing can carry up to eight office errors.
func validateOffices(app *domain.IncorporationApplication, legalType domain.LegalType) []domain.ValidationError {
	if !domain.DomesticLegalTypes[legalType] {
		return nil
	}

	offices := []struct {
		name   string
		office *domain.Office
	}{
		{"registeredOffice", app.Offices.RegisteredOffice},
		{"recordsOffice", app.Offices.RecordsOffice},
	}

	var errs []domain.ValidationError
	for _, o := range offices {
		if o.office == nil {
			continue
		}
		addresses := []struct {
			kind    string
			address *domain.Address
		}{
			{"deliveryAddress", o.office.DeliveryAddress},
			{"mailingAddress", o.office.MailingAddress},
		}
		for _, a := range addresses {
			if a.address == nil {
				continue
			}
			base := fmt.Sprintf("%s/offices/%s/%s", incorporationApplicationPath, o.name, a.kind)
			if deref(a.address.AddressRegion) != domain.DomesticRegion {
				errs = append(errs, domain.ValidationError{
					Message: fmt.Sprintf("Address Region must be '%s'.", domain.DomesticRegion),
					Path:    base + "/addressRegion",
				})
			}
			if deref(a.address.AddressCountry) != domain.DomesticCountry {
				errs = append(errs, domain.ValidationError{
					Message: fmt.Sprintf("Address Country must be '%s'.", domain.DomesticCountry),
					Path:    base + "/addressCountry",
				})
			}
		}
	}
	return errs
}

// validateNameRequest resolves the declared NR number and compares the
// reserved name and legal type against the filing. A lookup failure maps to a
// single catch-all error instead of aborting the whole validation.
func (v *FilingValidator) validateNameRequest(ctx context.Context, business *domain.Business, app *domain.IncorporationApplication) []domain.ValidationError {
	nrNumber := app.NameRequest.NRNumber
	if nrNumber == "" || v.nameRequests == nil {
		return nil
	}

	nr, err := v.nameRequests.Query(ctx, nrNumber)
	if err != nil {
		return []domain.ValidationError{{
			Message: "Unable to retrieve Name Request.",
			Path:    incorporationApplicationPath + "/nameRequest/nrNumber",
		}}
	}

	intendedName := app.NameRequest.LegalName
	if intendedName == "" && business != nil {
		intendedName = business.LegalName
	}

	var errs []domain.ValidationError
	if intendedName != "" && nr.LegalName != intendedName {
		errs = append(errs, domain.ValidationError{
			Message: "Name Request legal name is not same as the business legal name.",
			Path:    incorporationApplicationPath + "/nameRequest/legalName",
		})
	}
	if nr.LegalType != "" && nr.LegalType != app.NameRequest.LegalType {
		errs = append(errs, domain.ValidationError{
			Message: "Name Request legal type is not same as the business legal type.",
			Path:    incorporationApplicationPath + "/nameRequest/legalType",
		})
	}
	return errs
}

// allowedRoles returns the role labels a party may hold for the legal type.
func allowedRoles(legalType domain.LegalType) map[string]bool {
	if legalType == domain.LegalTypeCooperative {
		return map[string]bool{
			domain.RoleCompletingParty: true,
			domain.RoleDirector:        true,
		}
	}
	return map[string]bool{
		domain.RoleCompletingParty: true,
		domain.RoleDirector:        true,
		domain.RoleIncorporator:    true,
	}
}

// validateRoles enforces the party-role cardinality rules. All cardinality
// errors share the fixed parties/roles path and never duplicate.
func validateRoles(app *domain.IncorporationApplication, legalType domain.LegalType) []domain.ValidationError {
	rolesPath := incorporationApplicationPath + "/parties/roles"

	completingParties := 0
	directors := 0
	for _, party := range app.Parties {
		if party.HasRole(domain.RoleCompletingParty) {
			completingParties++
		}
		if party.HasRole(domain.RoleDirector) {
			directors++
		}
	}

	var errs []domain.ValidationError
	if completingParties > 1 {
		errs = append(errs, domain.ValidationError{
			Message: "Must have a maximum of one completing party",
			Path:    rolesPath,
		})
	}
	if completingParties == 0 {
		errs = append(errs, domain.ValidationError{
			Message: "Must have a minimum of one completing party",
			Path:    rolesPath,
		})
	}

	minDirectors := 1
	directorMessage := "Must have a minimum of 1 Director"
	switch legalType {
	case domain.LegalTypeBCCCC:
		minDirectors = 3
		directorMessage = "Must have a minimum of 3 Director"
	case domain.LegalTypeCooperative:
		minDirectors = 3
		directorMessage = "Must have a minimum of three Directors"
	}
	if directors < minDirectors {
		errs = append(errs, domain.ValidationError{Message: directorMessage, Path: rolesPath})
	}

	allowed := allowedRoles(legalType)
	for _, party := range app.Parties {
		for _, role := range party.Roles {
			if !allowed[role.RoleType] {
				errs = append(errs, domain.ValidationError{
					Message: fmt.Sprintf("%s is an invalid party role", role.RoleType),
					Path:    rolesPath,
				})
			}
		}
	}
	return errs
}

var mailingAddressFields = []struct {
	label string
	get   func(domain.Address) *string
}{
	{"streetAddress", func(a domain.Address) *string { return a.StreetAddress }},
	{"addressCity", func(a domain.Address) *string { return a.AddressCity }},
	{"addressCountry", func(a domain.Address) *string { return a.AddressCountry }},
	{"postalCode", func(a domain.Address) *string { return a.PostalCode }},
	{"addressRegion", func(a domain.Address) *string { return a.AddressRegion }},
}

// validatePartiesMailingAddress applies the cooperative distribution rules
// over the set of party mailing addresses, then checks each address for
// missing fields. The majority rule is strict: an exact 50% split fails.
func validatePartiesMailingAddress(app *domain.IncorporationApplication, legalType domain.LegalType) []domain.ValidationError {
	var errs []domain.ValidationError

	if legalType == domain.LegalTypeCooperative {
		regionCount := 0
		countryCount := 0
		total := 0
		for _, party := range app.Parties {
			if party.MailingAddress == nil {
				continue
			}
			total++
			if deref(party.MailingAddress.AddressRegion) == domain.DomesticRegion {
				regionCount++
			}
			if deref(party.MailingAddress.AddressCountry) == domain.DomesticCountry {
				countryCount++
			}
		}
		mailingPath := incorporationApplicationPath + "/parties/mailingAddress"
		if regionCount < 1 {
			errs = append(errs, domain.ValidationError{
				Message: "Must have minimum of one BC mailing address",
				Path:    mailingPath,
			})
		}
		if total > 0 && countryCount*2 <= total {
			errs = append(errs, domain.ValidationError{
				Message: "Must have majority of mailing addresses in Canada",
				Path:    mailingPath,
			})
		}
	}

	for i, party := range app.Parties {
		var addr domain.Address
		if party.MailingAddress != nil {
			addr = *party.MailingAddress
		}
		for _, field := range mailingAddressFields {
			if field.get(addr) != nil {
				continue
			}
			errs = append(errs, domain.ValidationError{
				Message: fmt.Sprintf("Person %d: Mailing address %s None is invalid", i+1, field.label),
				Path: fmt.Sprintf("%s/parties/%d/mailingAddress/%s/None/",
					incorporationApplicationPath, i+1, field.label),
			})
		}
	}
	return errs
}

// validatePartiesNames limits officer first and middle names to 20
// characters. Two passes over the parties: first names, then middle names,
// so all first-name errors precede all middle-name errors.
func validatePartiesNames(app *domain.IncorporationApplication) []domain.ValidationError {
	partiesPath := incorporationApplicationPath + "/parties"

	var errs []domain.ValidationError
	for _, party := range app.Parties {
		if utf8.RuneCountInString(party.Officer.FirstName) > maxOfficerNameLength {
			errs = append(errs, domain.ValidationError{
				Message: fmt.Sprintf("%s first name cannot be longer than 20 characters",
					strings.Join(party.RoleNames(), ", ")),
				Path: partiesPath,
			})
		}
	}
	for _, party := range app.Parties {
		if utf8.RuneCountInString(party.Officer.MiddleName) > maxOfficerNameLength {
			errs = append(errs, domain.ValidationError{
				Message: fmt.Sprintf("%s middle name cannot be longer than 20 characters",
					strings.Join(party.RoleNames(), ", ")),
				Path: partiesPath,
			})
		}
	}
	return errs
}

// validateShareStructure walks share classes, then each class's series, in
// document order. Class and series names share one global uniqueness space;
// the later occurrence of a duplicate is the one reported.
func validateShareStructure(app *domain.IncorporationApplication) []domain.ValidationError {
	if app.ShareStructure == nil {
		return nil
	}

	seen := make(map[string]bool)
	var errs []domain.ValidationError

	for i, class := range app.ShareStructure.ShareClasses {
		classPath := fmt.Sprintf("%s/shareClasses/%d", incorporationApplicationPath, i)

		if seen[class.Name] {
			errs = append(errs, domain.ValidationError{
				Message: fmt.Sprintf("Share class %s name already used in a share class or series.", class.Name),
				Path:    classPath + "/name/",
			})
		}
		seen[class.Name] = true

		if class.HasMaximumShares && class.MaxNumberOfShares == nil {
			errs = append(errs, domain.ValidationError{
				Message: fmt.Sprintf("Share class %s must provide value for maximum number of shares", class.Name),
				Path:    classPath + "/maxNumberOfShares/",
			})
		}
		if class.HasParValue {
			if class.Currency == nil {
				errs = append(errs, domain.ValidationError{
					Message: fmt.Sprintf("Share class %s must specify currency", class.Name),
					Path:    classPath + "/currency/",
				})
			}
			if class.ParValue == nil {
				errs = append(errs, domain.ValidationError{
					Message: fmt.Sprintf("Share class %s must specify par value", class.Name),
					Path:    classPath + "/parValue/",
				})
			}
		}

		for j, series := range class.Series {
			seriesPath := fmt.Sprintf("%s/series/%d", classPath, j)

			if seen[series.Name] {
				errs = append(errs, domain.ValidationError{
					Message: fmt.Sprintf("Share series %s name already used in a share class or series.", series.Name),
					Path:    seriesPath,
				})
			}
			seen[series.Name] = true

			if series.HasMaximumShares {
				if series.MaxNumberOfShares == nil {
					errs = append(errs, domain.ValidationError{
						Message: fmt.Sprintf("Share series %s must provide value for maximum number of shares", series.Name),
						Path:    seriesPath + "/maxNumberOfShares",
					})
				} else if class.HasMaximumShares && class.MaxNumberOfShares != nil &&
					*series.MaxNumberOfShares > *class.MaxNumberOfShares {
					errs = append(errs, domain.ValidationError{
						Message: fmt.Sprintf(
							"Series %s share quantity must be less than or equal to that of its class %s",
							series.Name, class.Name),
						Path: seriesPath + "/maxNumberOfShares",
					})
				}
			}
		}
	}
	return errs
}

// validateEffectiveDate checks the optional header effective date. The value
// must carry an explicit numeric UTC offset; the "Z" designator is rejected
// as an invalid format. The window errors carry no path, matching the wire
// contract of the original checks.
func validateEffectiveDate(header domain.Header, now time.Time) []domain.ValidationError {
	if header.EffectiveDate == nil {
		return nil
	}
	raw := *header.EffectiveDate

	effective, err := time.Parse(time.RFC3339, raw)
	if err != nil || strings.HasSuffix(raw, "Z") {
		return []domain.ValidationError{{
			Message: fmt.Sprintf("%s is an invalid ISO format for effective_date.", raw),
		}}
	}

	var errs []domain.ValidationError
	if effective.Before(now.Add(minEffectiveDateLead)) {
		errs = append(errs, domain.ValidationError{
			Message: "Invalid Datetime, effective date must be a minimum of 2 minutes ahead.",
		})
	}
	if effective.After(now.Add(maxEffectiveDateWindow)) {
		errs = append(errs, domain.ValidationError{
			Message: "Invalid Datetime, effective date must be a maximum of 10 days ahead.",
		})
	}
	return errs
}

// validateCooperativeDocuments requires the rules and memorandum uploads for
// a cooperative and verifies each referenced PDF is readable and letter-sized.
func (v *FilingValidator) validateCooperativeDocuments(ctx context.Context, app *domain.IncorporationApplication) []domain.ValidationError {
	var coop domain.Cooperative
	if app.Cooperative != nil {
		coop = *app.Cooperative
	}

	var errs []domain.ValidationError
	if coop.RulesFileKey == "" {
		errs = append(errs, domain.ValidationError{Message: "A valid rules key is required."})
	}
	if coop.RulesFileName == "" {
		errs = append(errs, domain.ValidationError{Message: "A valid rules file name is required."})
	}
	if coop.MemorandumFileKey == "" {
		errs = append(errs, domain.ValidationError{Message: "A valid memorandum key is required."})
	}
	if coop.MemorandumFileName == "" {
		errs = append(errs, domain.ValidationError{Message: "A valid memorandum file name is required."})
	}

	if coop.RulesFileKey != "" {
		errs = append(errs, v.validateStoredDocument(ctx, coop.RulesFileKey)...)
	}
	if coop.MemorandumFileKey != "" {
		errs = append(errs, v.validateStoredDocument(ctx, coop.MemorandumFileKey)...)
	}
	return errs
}

func (v *FilingValidator) validateStoredDocument(ctx context.Context, key string) []domain.ValidationError {
	if v.storage == nil {
		return nil
	}

	data, err := v.storage.FetchByKey(ctx, key)
	if err != nil {
		return []domain.ValidationError{{Message: "Invalid file."}}
	}

	ok, err := pagesAreLetterSized(data)
	if err != nil {
		return []domain.ValidationError{{Message: "Invalid file."}}
	}
	if !ok {
		return []domain.ValidationError{{
			Message: "Document must be set to fit onto 8.5” x 11” letter-size paper.",
		}}
	}
	return nil
}

// validateCourtOrder rejects a court-order sub-document on every domestic
// legal type except the unlimited-liability company.
func validateCourtOrder(app *domain.IncorporationApplication, legalType domain.LegalType) []domain.ValidationError {
	if app.CourtOrder == nil {
		return nil
	}
	if !domain.DomesticLegalTypes[legalType] || legalType == domain.LegalTypeBCULCCompany {
		return nil
	}
	return []domain.ValidationError{{
		Message: fmt.Sprintf("(%s) incorporationApplication does not support court order.", legalType),
		Path:    incorporationApplicationPath + "/courtOrder",
	}}
}

// validateIncorporationAgreement requires the "custom" agreement type for
// unlimited-liability and community-contribution companies.
func validateIncorporationAgreement(app *domain.IncorporationApplication, legalType domain.LegalType) []domain.ValidationError {
	if legalType != domain.LegalTypeBCULCCompany && legalType != domain.LegalTypeBCCCC {
		return nil
	}
	if app.IncorporationAgreement == nil {
		return nil
	}
	if app.IncorporationAgreement.AgreementType == "custom" {
		return nil
	}
	return []domain.ValidationError{{
		Message: fmt.Sprintf("Agreement type for %s must be custom.", legalType),
	}}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
