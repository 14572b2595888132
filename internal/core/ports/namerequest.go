package ports

import (
	"context"

	"github.com/openregistry/filings-api/internal/core/domain"
)

// NameRequestLookup resolves a reserved name by its NR number.
type NameRequestLookup interface {
	Query(ctx context.Context, nrNumber string) (domain.NameRequest, error)
}
