package ports

import (
	"context"

	"github.com/openregistry/filings-api/internal/core/domain"
)

type BusinessRepository interface {
	Upsert(ctx context.Context, business domain.Business) (domain.Business, error)
	FindByIdentifier(ctx context.Context, identifier string) (domain.Business, error)
}

// FilingRepository persists filings. The WithEvent variants append the
// matching outbox event in the same transaction so state change and event
// never diverge.
type FilingRepository interface {
	CreateWithEvent(ctx context.Context, filing domain.Filing, envelope domain.EventEnvelope) (domain.Filing, error)
	UpdateStatusWithEvent(ctx context.Context, id int64, status string, envelope domain.EventEnvelope) (domain.Filing, error)
	Get(ctx context.Context, id int64) (domain.Filing, error)
	ListByBusiness(ctx context.Context, identifier string, limit int) ([]domain.Filing, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, doc domain.Document) (domain.Document, error)
	ListByFiling(ctx context.Context, filingID int64) ([]domain.Document, error)
}

type APIKeyRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (domain.APIKey, error)
	Upsert(ctx context.Context, key domain.APIKey) error
}

type OutboxRepository interface {
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt string, lastError string) error
	MarkDead(ctx context.Context, id int64, attempts int, lastError string) error
}
