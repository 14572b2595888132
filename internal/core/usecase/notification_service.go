package usecase

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/Masterminds/sprig/v3"

	"github.com/openregistry/filings-api/internal/core/domain"
	"github.com/openregistry/filings-api/internal/core/ports"
)

//go:embed templates/*.html
var emailTemplateFS embed.FS

// NotificationService turns filing-status messages into rendered emails.
// Message handling is idempotent from the caller's perspective: a failed
// send returns an error so the caller can retry the message.
type NotificationService struct {
	filings    ports.FilingRepository
	businesses ports.BusinessRepository
	documents  ports.DocumentRepository
	storage    ports.DocumentStorage
	sender     ports.EmailSender
	templates  *template.Template
}

func NewNotificationService(
	filings ports.FilingRepository,
	businesses ports.BusinessRepository,
	documents ports.DocumentRepository,
	storage ports.DocumentStorage,
	sender ports.EmailSender,
) (*NotificationService, error) {
	tmpl, err := template.New("email").Funcs(sprig.HtmlFuncMap()).ParseFS(emailTemplateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &NotificationService{
		filings:    filings,
		businesses: businesses,
		documents:  documents,
		storage:    storage,
		sender:     sender,
		templates:  tmpl,
	}, nil
}

// emailData is the render context shared by all filing email templates.
type emailData struct {
	DisplayName   string
	Identifier    string
	FilingType    string
	FilingDate    string
	EffectiveDate string
	NameChanged   bool
}

// Process renders and sends the email for one filing-status change. An
// unknown filing type or option is dropped without error so a poisoned
// message cannot wedge the pipeline.
func (s *NotificationService) Process(ctx context.Context, msg domain.FilingMessage) error {
	filing, err := s.filings.Get(ctx, msg.FilingID)
	if err != nil {
		return fmt.Errorf("load filing %d: %w", msg.FilingID, err)
	}
	env, err := domain.ParseFilingEnvelope(filing.Data)
	if err != nil {
		return fmt.Errorf("parse filing %d: %w", msg.FilingID, err)
	}

	option := strings.ToUpper(msg.Option)
	subject, templateName := classify(msg.Type, option)
	if subject == "" {
		return nil
	}

	data := s.buildEmailData(ctx, filing, env)
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	email := domain.Email{
		Recipients: recipients(env),
		RequestBy:  "filings-api",
		Content: domain.EmailContent{
			Subject:     subject,
			Body:        body.String(),
			Attachments: s.fetchAttachments(ctx, filing.ID, option),
		},
	}
	if len(email.Recipients) == 0 {
		return nil
	}
	return s.sender.Send(ctx, email)
}

// classify maps a filing type and status option to the email subject and
// template. Unknown combinations return an empty subject.
func classify(filingType, option string) (subject, templateName string) {
	switch filingType {
	case domain.FilingTypeIncorporationApplication:
		switch option {
		case domain.FilingStatusPaid:
			return "Confirmation of Filing from the Business Registry", "incorporation-paid.html"
		case domain.FilingStatusCompleted:
			return "Incorporation Documents from the Business Registry", "incorporation-completed.html"
		}
	case domain.FilingTypeCorrection:
		switch option {
		case domain.FilingStatusPaid:
			return "Confirmation of Correction of Incorporation Application", "correction-paid.html"
		case domain.FilingStatusCompleted:
			return "Incorporation Application Correction Documents from the Business Registry", "correction-completed.html"
		}
	case domain.FilingTypeAnnualReport:
		if maintenanceOption(option) {
			return "Annual Report Documents from the Business Registry", "maintenance.html"
		}
	case domain.FilingTypeChangeOfAddress:
		if maintenanceOption(option) {
			return "Change of Address Documents from the Business Registry", "maintenance.html"
		}
	case domain.FilingTypeChangeOfDirectors:
		if maintenanceOption(option) {
			return "Change of Directors Documents from the Business Registry", "maintenance.html"
		}
	case domain.FilingTypeAlteration:
		if maintenanceOption(option) {
			return "Alteration Documents from the Business Registry", "maintenance.html"
		}
	}
	return "", ""
}

// Maintenance filings notify on both payment and completion, with the same
// subject; only the completed email carries the filing documents.
func maintenanceOption(option string) bool {
	return option == domain.FilingStatusPaid || option == domain.FilingStatusCompleted
}

func (s *NotificationService) buildEmailData(ctx context.Context, filing domain.Filing, env *domain.FilingEnvelope) emailData {
	data := emailData{
		Identifier: filing.BusinessIdentifier,
		FilingType: env.Filing.Header.Name,
		FilingDate: env.Filing.Header.Date,
	}
	if env.Filing.Header.EffectiveDate != nil {
		data.EffectiveDate = *env.Filing.Header.EffectiveDate
	}
	data.DisplayName = s.displayName(ctx, filing, env)
	if app := env.Filing.IncorporationApplication; app != nil {
		data.NameChanged = app.NameRequest.LegalName != ""
	}
	return data
}

// displayName resolves the name the email greets the business by. A numbered
// company (no reserved legal name anywhere) falls back to the legal type's
// numbered description.
func (s *NotificationService) displayName(ctx context.Context, filing domain.Filing, env *domain.FilingEnvelope) string {
	legalType := domain.LegalType("")
	if app := env.Filing.IncorporationApplication; app != nil {
		if app.NameRequest.LegalName != "" {
			return app.NameRequest.LegalName
		}
		legalType = app.NameRequest.LegalType
	}

	business, err := s.businesses.FindByIdentifier(ctx, filing.BusinessIdentifier)
	if err == nil && business.LegalName != "" {
		return business.LegalName
	}
	if err == nil && legalType == "" {
		legalType = business.LegalType
	}

	if info, ok := domain.LegalTypes[legalType]; ok {
		return info.NumberedDescription
	}
	return filing.BusinessIdentifier
}

// recipients collects the submitter contact, the application contact point
// and the completing party's officer email, deduplicated in that order.
func recipients(env *domain.FilingEnvelope) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(addr string) {
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		out = append(out, addr)
	}

	add(env.Filing.Header.Email)
	if app := env.Filing.IncorporationApplication; app != nil {
		add(app.ContactPoint.Email)
		for _, party := range app.Parties {
			if party.HasRole(domain.RoleCompletingParty) {
				add(party.Officer.Email)
			}
		}
	}
	return out
}

// fetchAttachments loads the registered filing documents from object storage.
// Attachments are best effort: a missing object skips the attachment rather
// than failing the email.
func (s *NotificationService) fetchAttachments(ctx context.Context, filingID int64, option string) []domain.EmailAttachment {
	if option != domain.FilingStatusCompleted || s.documents == nil || s.storage == nil {
		return nil
	}
	docs, err := s.documents.ListByFiling(ctx, filingID)
	if err != nil {
		return nil
	}

	var attachments []domain.EmailAttachment
	for _, doc := range docs {
		data, err := s.storage.FetchByKey(ctx, doc.FileKey)
		if err != nil {
			continue
		}
		attachments = append(attachments, domain.EmailAttachment{
			FileName:  doc.FileName,
			FileBytes: data,
		})
	}
	return attachments
}
