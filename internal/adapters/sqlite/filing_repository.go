package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openregistry/filings-api/internal/adapters/sqlite/gormsqlite"
	"github.com/openregistry/filings-api/internal/core/domain"
)

const outboxStatusPending = "pending"

type FilingRepository struct {
	db *gormsqlite.DB
}

func NewFilingRepository(db *gormsqlite.DB) *FilingRepository {
	return &FilingRepository{db: db}
}

// CreateWithEvent inserts the filing and its outbox event in one write
// transaction. The generated filing id is stamped into the envelope and its
// payload before the outbox row is written.
func (r *FilingRepository) CreateWithEvent(ctx context.Context, filing domain.Filing, envelope domain.EventEnvelope) (domain.Filing, error) {
	now := time.Now().UTC()
	model := filingModel{
		BusinessIdentifier: filing.BusinessIdentifier,
		Type:               filing.Type,
		Status:             filing.Status,
		DataJSON:           string(filing.Data),
		EffectiveDate:      filing.EffectiveDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("insert filing: %w", err)
		}
		stampFilingID(&envelope, model.ID)
		return appendOutbox(tx, envelope, now)
	})
	if err != nil {
		return domain.Filing{}, err
	}
	return filingToDomain(model), nil
}

// UpdateStatusWithEvent moves the filing to status, stamps the matching
// lifecycle date, and appends the outbox event, all in one transaction.
func (r *FilingRepository) UpdateStatusWithEvent(ctx context.Context, id int64, status string, envelope domain.EventEnvelope) (domain.Filing, error) {
	now := time.Now().UTC()
	var model filingModel

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("load filing: %w", err)
		}

		updates := map[string]any{"status": status, "updated_at": now}
		switch status {
		case domain.FilingStatusPaid:
			updates["payment_date"] = &now
		case domain.FilingStatusCompleted:
			updates["completion_date"] = &now
		}
		if err := tx.Model(&filingModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update filing status: %w", err)
		}

		model.Status = status
		model.UpdatedAt = now
		switch status {
		case domain.FilingStatusPaid:
			model.PaymentDate = &now
		case domain.FilingStatusCompleted:
			model.CompletionDate = &now
		}

		stampFilingID(&envelope, id)
		return appendOutbox(tx, envelope, now)
	})
	if err != nil {
		return domain.Filing{}, err
	}
	return filingToDomain(model), nil
}

func (r *FilingRepository) Get(ctx context.Context, id int64) (domain.Filing, error) {
	var model filingModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Filing{}, domain.ErrNotFound
		}
		return domain.Filing{}, fmt.Errorf("get filing: %w", err)
	}
	return filingToDomain(model), nil
}

func (r *FilingRepository) ListByBusiness(ctx context.Context, identifier string, limit int) ([]domain.Filing, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []filingModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("business_identifier = ?", identifier).
			Order("id DESC").
			Limit(limit).
			Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list filings: %w", err)
	}

	filings := make([]domain.Filing, 0, len(models))
	for _, model := range models {
		filings = append(filings, filingToDomain(model))
	}
	return filings, nil
}

// stampFilingID fills the filing id into an envelope built before the row
// existed. The payload carries the id too, so it is rewritten alongside.
func stampFilingID(envelope *domain.EventEnvelope, id int64) {
	if envelope.FilingID == id {
		return
	}
	envelope.FilingID = id
	var msg domain.FilingMessage
	if err := json.Unmarshal(envelope.Payload, &msg); err == nil {
		msg.FilingID = id
		if payload, merr := json.Marshal(msg); merr == nil {
			envelope.Payload = payload
		}
	}
}

func appendOutbox(tx *gormsqlite.Tx, envelope domain.EventEnvelope, now time.Time) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode event envelope: %w", err)
	}
	row := outboxEventModel{
		EventID:            envelope.EventID,
		BusinessIdentifier: envelope.BusinessIdentifier,
		Topic:              envelope.EventType,
		PayloadJSON:        string(payload),
		Status:             outboxStatusPending,
		NextAttemptAt:      now,
		CreatedAt:          now,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func filingToDomain(model filingModel) domain.Filing {
	return domain.Filing{
		ID:                 model.ID,
		BusinessIdentifier: model.BusinessIdentifier,
		Type:               model.Type,
		Status:             model.Status,
		Data:               json.RawMessage(model.DataJSON),
		EffectiveDate:      model.EffectiveDate,
		PaymentDate:        model.PaymentDate,
		CompletionDate:     model.CompletionDate,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}
