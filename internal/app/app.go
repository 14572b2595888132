package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openregistry/filings-api/internal/adapters/events"
	"github.com/openregistry/filings-api/internal/adapters/httpapi"
	"github.com/openregistry/filings-api/internal/adapters/namex"
	"github.com/openregistry/filings-api/internal/adapters/notify"
	"github.com/openregistry/filings-api/internal/adapters/objectstore"
	sqliteadapter "github.com/openregistry/filings-api/internal/adapters/sqlite"
	"github.com/openregistry/filings-api/internal/adapters/sqlite/gormsqlite"
	"github.com/openregistry/filings-api/internal/core/domain"
	"github.com/openregistry/filings-api/internal/core/ports"
	"github.com/openregistry/filings-api/internal/core/usecase"
	"github.com/openregistry/filings-api/migrations"
)

type Config struct {
	Addr             string
	DBPath           string
	BootstrapAPIKey  string
	BootstrapClient  string
	BootstrapKeyName string
	NamexURL         string
	ObjectStoreURL   string
	NotifyURL        string
	NotifySecret     string
	WebhookURL       string
	WebhookSecret    string
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func NewServer(ctx context.Context, cfg Config) (*http.Server, io.Closer, error) {
	db, err := gormsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	businessRepo := sqliteadapter.NewBusinessRepository(db)
	filingRepo := sqliteadapter.NewFilingRepository(db)
	documentRepo := sqliteadapter.NewDocumentRepository(db)
	apiKeyRepo := sqliteadapter.NewAPIKeyRepository(db)
	outboxRepo := sqliteadapter.NewOutboxRepository(db)

	var nameRequests ports.NameRequestLookup
	if cfg.NamexURL != "" {
		nameRequests = namex.NewClient(cfg.NamexURL, 0)
	}
	var storage ports.DocumentStorage
	if cfg.ObjectStoreURL != "" {
		storage = objectstore.NewClient(cfg.ObjectStoreURL, 0)
	}

	var sender ports.EmailSender = notify.NewLogSender()
	if cfg.NotifyURL != "" {
		sender = notify.NewHTTPSender(cfg.NotifyURL, cfg.NotifySecret, 0)
	}
	var publisher ports.EventPublisher = events.NewLogPublisher()
	if cfg.WebhookURL != "" {
		publisher = events.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookSecret, 0)
	}

	validator := usecase.NewFilingValidator(nameRequests, storage)
	schemas := usecase.NewSchemaService()
	documents := usecase.NewCoopDocumentService(documentRepo, storage)
	filingService := usecase.NewFilingService(businessRepo, filingRepo, validator, schemas, documents)
	authService := usecase.NewAuthService(apiKeyRepo)

	notifications, err := usecase.NewNotificationService(filingRepo, businessRepo, documentRepo, storage, sender)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	dispatcher := usecase.NewOutboxDispatcher(outboxRepo, publisher, notifications, 2*time.Second, 100)
	dispatcher.Start(context.Background())

	if cfg.BootstrapAPIKey != "" {
		client := cfg.BootstrapClient
		if client == "" {
			client = "default"
		}
		name := cfg.BootstrapKeyName
		if name == "" {
			name = "bootstrap"
		}

		bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := apiKeyRepo.Upsert(bootstrapCtx, domain.APIKey{
			TokenHash: usecase.HashToken(cfg.BootstrapAPIKey),
			Client:    client,
			Name:      name,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		})
		bootstrapCancel()
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap api key: %w", err)
		}
	}

	handler := httpapi.NewHandler(filingService, documents, authService)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: []io.Closer{dispatcher, db}}, nil
}
