package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/openregistry/filings-api/internal/adapters/sqlite/gormsqlite"
	"github.com/openregistry/filings-api/internal/core/domain"
)

type DocumentRepository struct {
	db *gormsqlite.DB
}

func NewDocumentRepository(db *gormsqlite.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc domain.Document) (domain.Document, error) {
	model := documentModel{
		BusinessIdentifier: doc.BusinessIdentifier,
		FilingID:           doc.FilingID,
		Type:               doc.Type,
		FileKey:            doc.FileKey,
		FileName:           doc.FileName,
		ContentType:        doc.ContentType,
		CreatedAt:          time.Now().UTC(),
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return documentToDomain(model), nil
}

func (r *DocumentRepository) ListByFiling(ctx context.Context, filingID int64) ([]domain.Document, error) {
	var models []documentModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("filing_id = ?", filingID).Order("id ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(models))
	for _, model := range models {
		docs = append(docs, documentToDomain(model))
	}
	return docs, nil
}

func documentToDomain(model documentModel) domain.Document {
	return domain.Document{
		ID:                 model.ID,
		BusinessIdentifier: model.BusinessIdentifier,
		FilingID:           model.FilingID,
		Type:               model.Type,
		FileKey:            model.FileKey,
		FileName:           model.FileName,
		ContentType:        model.ContentType,
		CreatedAt:          model.CreatedAt,
	}
}
