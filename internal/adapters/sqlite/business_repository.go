package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openregistry/filings-api/internal/adapters/sqlite/gormsqlite"
	"github.com/openregistry/filings-api/internal/core/domain"
)

type BusinessRepository struct {
	db *gormsqlite.DB
}

func NewBusinessRepository(db *gormsqlite.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

func (r *BusinessRepository) Upsert(ctx context.Context, business domain.Business) (domain.Business, error) {
	now := time.Now().UTC()
	model := businessModel{
		Identifier:   business.Identifier,
		LegalName:    business.LegalName,
		LegalType:    string(business.LegalType),
		Email:        business.Email,
		FoundingDate: business.FoundingDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identifier"}},
			DoUpdates: clause.AssignmentColumns([]string{"legal_name", "legal_type", "email", "founding_date", "updated_at"}),
		}).Create(&model).Error
	})
	if err != nil {
		return domain.Business{}, fmt.Errorf("upsert business: %w", err)
	}

	return r.FindByIdentifier(ctx, business.Identifier)
}

func (r *BusinessRepository) FindByIdentifier(ctx context.Context, identifier string) (domain.Business, error) {
	var model businessModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("identifier = ?", identifier).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Business{}, domain.ErrNotFound
		}
		return domain.Business{}, fmt.Errorf("find business: %w", err)
	}
	return businessToDomain(model), nil
}

func businessToDomain(model businessModel) domain.Business {
	return domain.Business{
		ID:           model.ID,
		Identifier:   model.Identifier,
		LegalName:    model.LegalName,
		LegalType:    domain.LegalType(model.LegalType),
		Email:        model.Email,
		FoundingDate: model.FoundingDate,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
