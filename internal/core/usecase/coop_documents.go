package usecase

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/openregistry/filings-api/internal/core/domain"
	"github.com/openregistry/filings-api/internal/core/ports"
)

// CoopDocumentService registers the rules and memorandum documents a
// cooperative incorporation carries. Registration records metadata only;
// the bytes stay in object storage under their upload keys.
type CoopDocumentService struct {
	documents ports.DocumentRepository
	storage   ports.DocumentStorage
}

func NewCoopDocumentService(documents ports.DocumentRepository, storage ports.DocumentStorage) *CoopDocumentService {
	return &CoopDocumentService{documents: documents, storage: storage}
}

// RegisterIncorporationDocuments attaches the cooperative's rules and
// memorandum to the completed filing. Each upload key is probed in storage
// before the metadata row is written.
func (s *CoopDocumentService) RegisterIncorporationDocuments(ctx context.Context, filing domain.Filing, coop domain.Cooperative) error {
	docs := []domain.Document{
		{
			BusinessIdentifier: filing.BusinessIdentifier,
			FilingID:           filing.ID,
			Type:               domain.DocumentTypeCoopRules,
			FileKey:            coop.RulesFileKey,
			FileName:           coop.RulesFileName,
			ContentType:        documentContentType(coop.RulesFileName),
		},
		{
			BusinessIdentifier: filing.BusinessIdentifier,
			FilingID:           filing.ID,
			Type:               domain.DocumentTypeCoopMemorandum,
			FileKey:            coop.MemorandumFileKey,
			FileName:           coop.MemorandumFileName,
			ContentType:        documentContentType(coop.MemorandumFileName),
		},
	}

	for _, doc := range docs {
		if doc.FileKey == "" {
			continue
		}
		if s.storage != nil {
			if _, err := s.storage.FetchByKey(ctx, doc.FileKey); err != nil {
				return fmt.Errorf("fetch %s document %s: %w", doc.Type, doc.FileKey, err)
			}
		}
		if _, err := s.documents.Create(ctx, doc); err != nil {
			return fmt.Errorf("store %s document: %w", doc.Type, err)
		}
	}
	return nil
}

// documentContentType derives the stored content type from the uploaded
// file's name. Uploads are PDFs in practice, so an unknown or missing
// extension falls back to application/pdf.
func documentContentType(fileName string) string {
	if ct := mime.TypeByExtension(filepath.Ext(fileName)); ct != "" {
		return ct
	}
	return "application/pdf"
}

// ListByFiling returns the documents registered for a filing.
func (s *CoopDocumentService) ListByFiling(ctx context.Context, filingID int64) ([]domain.Document, error) {
	return s.documents.ListByFiling(ctx, filingID)
}
