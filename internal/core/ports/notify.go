package ports

import (
	"context"

	"github.com/openregistry/filings-api/internal/core/domain"
)

// EmailSender delivers a rendered filing-status email.
type EmailSender interface {
	Send(ctx context.Context, email domain.Email) error
}
