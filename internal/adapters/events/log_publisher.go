package events

import (
	"context"
	"log"

	"github.com/openregistry/filings-api/internal/core/domain"
)

type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(_ context.Context, topic string, event domain.EventEnvelope) error {
	log.Printf("outbox publish topic=%s event_id=%s event_type=%s business=%s filing=%d type=%s", topic, event.EventID, event.EventType, event.BusinessIdentifier, event.FilingID, event.FilingType)
	return nil
}
