package sqlite

import "time"

type businessModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Identifier   string    `gorm:"column:identifier;not null;uniqueIndex"`
	LegalName    string    `gorm:"column:legal_name;not null"`
	LegalType    string    `gorm:"column:legal_type;not null"`
	Email        string    `gorm:"column:email;not null"`
	FoundingDate time.Time `gorm:"column:founding_date"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (businessModel) TableName() string {
	return "businesses"
}

type filingModel struct {
	ID                 int64      `gorm:"column:id;primaryKey;autoIncrement"`
	BusinessIdentifier string     `gorm:"column:business_identifier;not null;index"`
	Type               string     `gorm:"column:filing_type;not null"`
	Status             string     `gorm:"column:status;not null"`
	DataJSON           string     `gorm:"column:data_json;not null"`
	EffectiveDate      *time.Time `gorm:"column:effective_date"`
	PaymentDate        *time.Time `gorm:"column:payment_date"`
	CompletionDate     *time.Time `gorm:"column:completion_date"`
	CreatedAt          time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;not null"`
}

func (filingModel) TableName() string {
	return "filings"
}

type documentModel struct {
	ID                 int64     `gorm:"column:id;primaryKey;autoIncrement"`
	BusinessIdentifier string    `gorm:"column:business_identifier;not null;index"`
	FilingID           int64     `gorm:"column:filing_id;not null;index"`
	Type               string    `gorm:"column:document_type;not null"`
	FileKey            string    `gorm:"column:file_key;not null"`
	FileName           string    `gorm:"column:file_name;not null"`
	ContentType        string    `gorm:"column:content_type;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;not null"`
}

func (documentModel) TableName() string {
	return "documents"
}

type apiKeyModel struct {
	TokenHash string    `gorm:"column:token_hash;primaryKey"`
	Client    string    `gorm:"column:client;not null"`
	Name      string    `gorm:"column:name;not null"`
	Active    bool      `gorm:"column:active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (apiKeyModel) TableName() string {
	return "api_keys"
}

type outboxEventModel struct {
	ID                 int64      `gorm:"column:id;primaryKey;autoIncrement"`
	EventID            string     `gorm:"column:event_id;not null"`
	BusinessIdentifier string     `gorm:"column:business_identifier;not null"`
	Topic              string     `gorm:"column:topic;not null"`
	PayloadJSON        string     `gorm:"column:payload_json;not null"`
	Status             string     `gorm:"column:status;not null"`
	Attempts           int        `gorm:"column:attempts;not null"`
	NextAttemptAt      time.Time  `gorm:"column:next_attempt_at;not null"`
	LastError          string     `gorm:"column:last_error;not null"`
	CreatedAt          time.Time  `gorm:"column:created_at;not null"`
	DispatchedAt       *time.Time `gorm:"column:dispatched_at"`
}

func (outboxEventModel) TableName() string {
	return "outbox_events"
}
