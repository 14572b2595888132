package notify

import (
	"context"
	"log"
	"strings"

	"github.com/openregistry/filings-api/internal/core/domain"
)

// LogSender writes emails to the process log instead of delivering them.
// Used when no notify endpoint is configured.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(_ context.Context, email domain.Email) error {
	log.Printf("email send to=%s subject=%q attachments=%d", strings.Join(email.Recipients, ","), email.Content.Subject, len(email.Content.Attachments))
	return nil
}
