package domain

import "time"

// DocumentType classifies uploaded filing documents.
const (
	DocumentTypeCoopRules      = "COOP_RULES"
	DocumentTypeCoopMemorandum = "COOP_MEMORANDUM"
)

// Document records an uploaded file attached to a business through a filing.
// The bytes live in object storage under FileKey; only metadata is stored.
type Document struct {
	ID                 int64
	BusinessIdentifier string
	FilingID           int64
	Type               string
	FileKey            string
	FileName           string
	ContentType        string
	CreatedAt          time.Time
}
