package domain

import (
	"encoding/json"
	"time"
)

const CurrentEventSchemaVersion = 1

// EventEnvelope is the payload written to the outbox when a filing changes
// state. Consumers (webhook receivers, the notification pipeline) key off
// EventType.
type EventEnvelope struct {
	EventID            string          `json:"event_id"`
	EventType          string          `json:"event_type"`
	SchemaVersion      int             `json:"schema_version"`
	BusinessIdentifier string          `json:"business_identifier"`
	FilingID           int64           `json:"filing_id"`
	FilingType         string          `json:"filing_type"`
	OccurredAt         time.Time       `json:"occurred_at"`
	Payload            json.RawMessage `json:"payload"`
}

const (
	EventTypeFilingSubmitted = "filing.submitted"
	EventTypeFilingPaid      = "filing.paid"
	EventTypeFilingCompleted = "filing.completed"
)

type OutboxEvent struct {
	ID                 int64
	EventID            string
	BusinessIdentifier string
	Topic              string
	PayloadJSON        json.RawMessage
	Status             string
	Attempts           int
	NextAttemptAt      time.Time
	LastError          string
	CreatedAt          time.Time
	DispatchedAt       *time.Time
}
