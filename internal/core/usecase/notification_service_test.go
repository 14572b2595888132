package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/openregistry/filings-api/internal/core/domain"
)

type senderStub struct {
	sent []domain.Email
	err  error
}

func (s *senderStub) Send(_ context.Context, email domain.Email) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, email)
	return nil
}

func newNotificationService(t *testing.T, filings *filingRepoStub, businesses *businessRepoStub, documents *documentRepoStub, storage *storageStub, sender *senderStub) *NotificationService {
	t.Helper()
	svc, err := NewNotificationService(filings, businesses, documents, storage, sender)
	if err != nil {
		t.Fatalf("new notification service: %v", err)
	}
	return svc
}

func storedFiling(t *testing.T, id int64, app *domain.IncorporationApplication) domain.Filing {
	t.Helper()
	env := testEnvelope(app)
	env.Filing.IncorporationApplication.Parties[0].Officer.Email = "completing@example.com"
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal filing: %v", err)
	}
	return domain.Filing{
		ID:                 id,
		BusinessIdentifier: "T1234567",
		Type:               domain.FilingTypeIncorporationApplication,
		Status:             domain.FilingStatusPaid,
		Data:               data,
	}
}

func TestNotificationServiceIncorporationPaid(t *testing.T) {
	app := benApplication()
	app.NameRequest.LegalName = "Acme Widgets Inc."
	filings := &filingRepoStub{filings: map[int64]domain.Filing{1: storedFiling(t, 1, app)}}
	sender := &senderStub{}
	svc := newNotificationService(t, filings, &businessRepoStub{}, &documentRepoStub{}, &storageStub{}, sender)

	err := svc.Process(context.Background(), domain.FilingMessage{
		FilingID: 1,
		Type:     domain.FilingTypeIncorporationApplication,
		Option:   "paid",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("got %d emails, want 1", len(sender.sent))
	}
	email := sender.sent[0]
	if email.Content.Subject != "Confirmation of Filing from the Business Registry" {
		t.Fatalf("subject = %q", email.Content.Subject)
	}
	wantRecipients := []string{"jane@example.com", "contact@example.com", "completing@example.com"}
	if len(email.Recipients) != len(wantRecipients) {
		t.Fatalf("recipients = %v, want %v", email.Recipients, wantRecipients)
	}
	for i, r := range wantRecipients {
		if email.Recipients[i] != r {
			t.Fatalf("recipient %d = %q, want %q", i, email.Recipients[i], r)
		}
	}
	if !strings.Contains(email.Content.Body, "Acme Widgets Inc.") {
		t.Fatalf("body does not name the business: %s", email.Content.Body)
	}
	if len(email.Content.Attachments) != 0 {
		t.Fatal("paid email should carry no attachments")
	}
}

func TestNotificationServiceIncorporationCompletedAttachments(t *testing.T) {
	filings := &filingRepoStub{filings: map[int64]domain.Filing{1: storedFiling(t, 1, benApplication())}}
	documents := &documentRepoStub{docs: []domain.Document{
		{ID: 1, FilingID: 1, Type: domain.DocumentTypeCoopRules, FileKey: "rules-key", FileName: "rules.pdf"},
		{ID: 2, FilingID: 1, Type: domain.DocumentTypeCoopMemorandum, FileKey: "missing-key", FileName: "memorandum.pdf"},
	}}
	storage := &storageStub{objects: map[string][]byte{"rules-key": []byte("%PDF-")}}
	sender := &senderStub{}
	svc := newNotificationService(t, filings, &businessRepoStub{}, documents, storage, sender)

	err := svc.Process(context.Background(), domain.FilingMessage{
		FilingID: 1,
		Type:     domain.FilingTypeIncorporationApplication,
		Option:   "completed",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	email := sender.sent[0]
	if email.Content.Subject != "Incorporation Documents from the Business Registry" {
		t.Fatalf("subject = %q", email.Content.Subject)
	}
	// The missing object is skipped, not fatal.
	if len(email.Content.Attachments) != 1 || email.Content.Attachments[0].FileName != "rules.pdf" {
		t.Fatalf("attachments = %+v", email.Content.Attachments)
	}
}

func TestNotificationServiceNumberedCompanyDisplayName(t *testing.T) {
	filings := &filingRepoStub{filings: map[int64]domain.Filing{1: storedFiling(t, 1, benApplication())}}
	sender := &senderStub{}
	svc := newNotificationService(t, filings, &businessRepoStub{}, &documentRepoStub{}, &storageStub{}, sender)

	err := svc.Process(context.Background(), domain.FilingMessage{
		FilingID: 1,
		Type:     domain.FilingTypeIncorporationApplication,
		Option:   "paid",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(sender.sent[0].Content.Body, "Numbered Benefit Company") {
		t.Fatalf("numbered company body = %s", sender.sent[0].Content.Body)
	}
}

func TestNotificationServiceUnknownOptionDropped(t *testing.T) {
	filings := &filingRepoStub{filings: map[int64]domain.Filing{1: storedFiling(t, 1, benApplication())}}
	sender := &senderStub{}
	svc := newNotificationService(t, filings, &businessRepoStub{}, &documentRepoStub{}, &storageStub{}, sender)

	err := svc.Process(context.Background(), domain.FilingMessage{
		FilingID: 1,
		Type:     domain.FilingTypeIncorporationApplication,
		Option:   "draft",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("unknown option must not send")
	}
}

func TestNotificationServiceCorrectionPaidNamesCorrectedDocuments(t *testing.T) {
	app := benApplication()
	app.NameRequest.LegalName = "Acme Widgets Inc."
	filing := storedFiling(t, 1, app)
	filing.Type = domain.FilingTypeCorrection

	filings := &filingRepoStub{filings: map[int64]domain.Filing{1: filing}}
	sender := &senderStub{}
	svc := newNotificationService(t, filings, &businessRepoStub{}, &documentRepoStub{}, &storageStub{}, sender)

	err := svc.Process(context.Background(), domain.FilingMessage{
		FilingID: 1,
		Type:     domain.FilingTypeCorrection,
		Option:   "paid",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	email := sender.sent[0]
	if email.Content.Subject != "Confirmation of Correction of Incorporation Application" {
		t.Fatalf("subject = %q", email.Content.Subject)
	}
	if !strings.Contains(email.Content.Body, "Incorporation Application (Corrected)") {
		t.Fatalf("body missing corrected application: %s", email.Content.Body)
	}
	if !strings.Contains(email.Content.Body, "Incorporation Certificate (Corrected)") {
		t.Fatalf("body missing corrected certificate for name change: %s", email.Content.Body)
	}
}

func TestNotificationServiceMaintenanceSubject(t *testing.T) {
	filing := storedFiling(t, 1, benApplication())
	filing.Type = domain.FilingTypeAnnualReport

	filings := &filingRepoStub{filings: map[int64]domain.Filing{1: filing}}
	sender := &senderStub{}
	svc := newNotificationService(t, filings, &businessRepoStub{}, &documentRepoStub{}, &storageStub{}, sender)

	err := svc.Process(context.Background(), domain.FilingMessage{
		FilingID: 1,
		Type:     domain.FilingTypeAnnualReport,
		Option:   "completed",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if sender.sent[0].Content.Subject != "Annual Report Documents from the Business Registry" {
		t.Fatalf("subject = %q", sender.sent[0].Content.Subject)
	}
}

func TestNotificationServiceMaintenancePaid(t *testing.T) {
	for _, filingType := range []string{
		domain.FilingTypeAnnualReport,
		domain.FilingTypeChangeOfAddress,
		domain.FilingTypeChangeOfDirectors,
		domain.FilingTypeAlteration,
	} {
		filing := storedFiling(t, 1, benApplication())
		filing.Type = filingType

		filings := &filingRepoStub{filings: map[int64]domain.Filing{1: filing}}
		sender := &senderStub{}
		svc := newNotificationService(t, filings, &businessRepoStub{}, &documentRepoStub{}, &storageStub{}, sender)

		err := svc.Process(context.Background(), domain.FilingMessage{
			FilingID: 1,
			Type:     filingType,
			Option:   "paid",
		})
		if err != nil {
			t.Fatalf("%s: process: %v", filingType, err)
		}
		if len(sender.sent) != 1 {
			t.Fatalf("%s: got %d emails, want 1", filingType, len(sender.sent))
		}
		email := sender.sent[0]
		if !strings.HasSuffix(email.Content.Subject, "Documents from the Business Registry") {
			t.Fatalf("%s: subject = %q", filingType, email.Content.Subject)
		}
		if len(email.Content.Attachments) != 0 {
			t.Fatalf("%s: paid email should carry no attachments", filingType)
		}
	}
}
