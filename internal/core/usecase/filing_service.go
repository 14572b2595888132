package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openregistry/filings-api/internal/core/domain"
	"github.com/openregistry/filings-api/internal/core/ports"
)

// FilingService owns the filing lifecycle: submission, payment, completion.
// Every state change writes an outbox event in the same transaction as the
// filing row.
type FilingService struct {
	businesses ports.BusinessRepository
	filings    ports.FilingRepository
	validator  *FilingValidator
	schemas    *SchemaService
	documents  *CoopDocumentService
	now        func() time.Time
}

func NewFilingService(
	businesses ports.BusinessRepository,
	filings ports.FilingRepository,
	validator *FilingValidator,
	schemas *SchemaService,
	documents *CoopDocumentService,
) *FilingService {
	return &FilingService{
		businesses: businesses,
		filings:    filings,
		validator:  validator,
		schemas:    schemas,
		documents:  documents,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates and stores a new filing in PENDING status. Structural
// schema violations and business-rule violations both surface as a
// *domain.FilingValidationError carrying every collected problem.
func (s *FilingService) Submit(ctx context.Context, identifier string, data json.RawMessage) (domain.Filing, error) {
	if err := domain.ValidateIdentifier(identifier); err != nil {
		return domain.Filing{}, err
	}
	if err := s.schemas.Validate(data); err != nil {
		return domain.Filing{}, err
	}

	env, err := domain.ParseFilingEnvelope(data)
	if err != nil {
		return domain.Filing{}, fmt.Errorf("parse filing: %w", err)
	}
	filingType := env.Filing.Header.Name

	if filingType == domain.FilingTypeIncorporationApplication {
		business, err := s.lookupBusiness(ctx, identifier)
		if err != nil {
			return domain.Filing{}, err
		}
		if verr := s.validator.ValidateIncorporationApplication(ctx, business, env, s.now()); verr != nil {
			return domain.Filing{}, verr
		}
	}

	filing := domain.Filing{
		BusinessIdentifier: identifier,
		Type:               filingType,
		Status:             domain.FilingStatusPending,
		Data:               data,
		EffectiveDate:      parseEffectiveDate(env.Filing.Header),
	}
	if err := filing.Validate(); err != nil {
		return domain.Filing{}, err
	}

	return s.filings.CreateWithEvent(ctx, filing, s.buildEvent(domain.EventTypeFilingSubmitted, filing, 0))
}

// MarkPaid moves a PENDING filing to PAID and records the payment event.
func (s *FilingService) MarkPaid(ctx context.Context, id int64) (domain.Filing, error) {
	return s.transition(ctx, id, domain.FilingStatusPaid, domain.EventTypeFilingPaid)
}

// MarkCompleted moves a PAID filing to COMPLETED. For a cooperative
// incorporation this also registers the rules and memorandum documents.
func (s *FilingService) MarkCompleted(ctx context.Context, id int64) (domain.Filing, error) {
	filing, err := s.transition(ctx, id, domain.FilingStatusCompleted, domain.EventTypeFilingCompleted)
	if err != nil {
		return domain.Filing{}, err
	}

	if s.documents != nil && filing.Type == domain.FilingTypeIncorporationApplication {
		if env, perr := domain.ParseFilingEnvelope(filing.Data); perr == nil {
			app := env.Filing.IncorporationApplication
			if app != nil && app.NameRequest.LegalType == domain.LegalTypeCooperative && app.Cooperative != nil {
				if derr := s.documents.RegisterIncorporationDocuments(ctx, filing, *app.Cooperative); derr != nil {
					return domain.Filing{}, fmt.Errorf("register cooperative documents: %w", derr)
				}
			}
		}
	}
	return filing, nil
}

func (s *FilingService) transition(ctx context.Context, id int64, status, eventType string) (domain.Filing, error) {
	filing, err := s.filings.Get(ctx, id)
	if err != nil {
		return domain.Filing{}, err
	}
	if !filing.CanTransition(status) {
		return domain.Filing{}, fmt.Errorf("%w: %s to %s", domain.ErrInvalidStatusTransition, filing.Status, status)
	}
	filing.Status = status
	return s.filings.UpdateStatusWithEvent(ctx, id, status, s.buildEvent(eventType, filing, id))
}

func (s *FilingService) Get(ctx context.Context, id int64) (domain.Filing, error) {
	return s.filings.Get(ctx, id)
}

func (s *FilingService) List(ctx context.Context, identifier string, limit int) ([]domain.Filing, error) {
	if err := domain.ValidateIdentifier(identifier); err != nil {
		return nil, err
	}
	return s.filings.ListByBusiness(ctx, identifier, limit)
}

// UpsertBusiness creates or refreshes the business record behind an
// identifier.
func (s *FilingService) UpsertBusiness(ctx context.Context, business domain.Business) (domain.Business, error) {
	if err := business.Validate(); err != nil {
		return domain.Business{}, err
	}
	return s.businesses.Upsert(ctx, business)
}

func (s *FilingService) GetBusiness(ctx context.Context, identifier string) (domain.Business, error) {
	if err := domain.ValidateIdentifier(identifier); err != nil {
		return domain.Business{}, err
	}
	return s.businesses.FindByIdentifier(ctx, identifier)
}

// lookupBusiness loads the business behind the identifier; a temporary
// identifier with no record yet resolves to nil.
func (s *FilingService) lookupBusiness(ctx context.Context, identifier string) (*domain.Business, error) {
	business, err := s.businesses.FindByIdentifier(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup business: %w", err)
	}
	return &business, nil
}

func (s *FilingService) buildEvent(eventType string, filing domain.Filing, filingID int64) domain.EventEnvelope {
	if filingID == 0 {
		filingID = filing.ID
	}
	payload, _ := json.Marshal(domain.FilingMessage{
		FilingID: filingID,
		Type:     filing.Type,
		Option:   strings.ToLower(filing.Status),
	})
	return domain.EventEnvelope{
		EventID:            uuid.NewString(),
		EventType:          eventType,
		SchemaVersion:      domain.CurrentEventSchemaVersion,
		BusinessIdentifier: filing.BusinessIdentifier,
		FilingID:           filingID,
		FilingType:         filing.Type,
		OccurredAt:         s.now(),
		Payload:            payload,
	}
}

// parseEffectiveDate denormalizes a valid header effective date for queries.
// Invalid values are left to the rule validator to report.
func parseEffectiveDate(header domain.Header) *time.Time {
	if header.EffectiveDate == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *header.EffectiveDate)
	if err != nil {
		return nil
	}
	return &t
}
