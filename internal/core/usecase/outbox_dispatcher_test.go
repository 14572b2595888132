package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/openregistry/filings-api/internal/core/domain"
)

type outboxRepoStub struct {
	events []domain.OutboxEvent

	dispatched []int64
	failed     []failedMark
	dead       []deadMark
}

type failedMark struct {
	id           int64
	attempts     int
	nextAttempt  string
	errorMessage string
}

type deadMark struct {
	id           int64
	attempts     int
	errorMessage string
}

func (r *outboxRepoStub) FetchPending(_ context.Context, limit int) ([]domain.OutboxEvent, error) {
	out := make([]domain.OutboxEvent, 0, limit)
	now := time.Now().UTC()
	for _, e := range r.events {
		if e.Status != "pending" || e.NextAttemptAt.After(now) {
			continue
		}
		out = append(out, e)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *outboxRepoStub) MarkDispatched(_ context.Context, id int64) error {
	r.dispatched = append(r.dispatched, id)
	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].Status = "dispatched"
			return nil
		}
	}
	return errors.New("unknown outbox id")
}

func (r *outboxRepoStub) MarkFailed(_ context.Context, id int64, attempts int, nextAttemptAt string, errMsg string) error {
	r.failed = append(r.failed, failedMark{id: id, attempts: attempts, nextAttempt: nextAttemptAt, errorMessage: errMsg})
	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].Attempts = attempts
			r.events[i].LastError = errMsg
			return nil
		}
	}
	return errors.New("unknown outbox id")
}

func (r *outboxRepoStub) MarkDead(_ context.Context, id int64, attempts int, errMsg string) error {
	r.dead = append(r.dead, deadMark{id: id, attempts: attempts, errorMessage: errMsg})
	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].Status = "dead"
			return nil
		}
	}
	return errors.New("unknown outbox id")
}

type publisherStub struct {
	err       error
	published []domain.EventEnvelope
}

func (p *publisherStub) Publish(_ context.Context, _ string, event domain.EventEnvelope) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

type notifierStub struct {
	processed []domain.FilingMessage
	err       error
}

func (n *notifierStub) Process(_ context.Context, msg domain.FilingMessage) error {
	if n.err != nil {
		return n.err
	}
	n.processed = append(n.processed, msg)
	return nil
}

func outboxEvent(id int64, eventType string) domain.OutboxEvent {
	msg, _ := json.Marshal(domain.FilingMessage{FilingID: id, Type: domain.FilingTypeIncorporationApplication, Option: "paid"})
	env := domain.EventEnvelope{
		EventID:       "evt",
		EventType:     eventType,
		SchemaVersion: domain.CurrentEventSchemaVersion,
		FilingID:      id,
		Payload:       msg,
	}
	payload, _ := json.Marshal(env)
	return domain.OutboxEvent{
		ID:            id,
		EventID:       "evt",
		Topic:         eventType,
		Status:        "pending",
		NextAttemptAt: time.Now().UTC().Add(-time.Second),
		PayloadJSON:   payload,
	}
}

func TestOutboxDispatcherDispatchesAndNotifies(t *testing.T) {
	repo := &outboxRepoStub{events: []domain.OutboxEvent{outboxEvent(1, domain.EventTypeFilingPaid)}}
	pub := &publisherStub{}
	notifier := &notifierStub{}
	d := NewOutboxDispatcher(repo, pub, notifier, time.Second, 10)

	if err := d.DispatchBatch(context.Background()); err != nil {
		t.Fatalf("dispatch batch: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	if len(notifier.processed) != 1 || notifier.processed[0].FilingID != 1 {
		t.Fatalf("notifier processed = %+v", notifier.processed)
	}
	if len(repo.dispatched) != 1 || repo.dispatched[0] != 1 {
		t.Fatalf("dispatched = %v", repo.dispatched)
	}
	if got := d.Metrics().DispatchSuccessTotal; got != 1 {
		t.Fatalf("success total = %d", got)
	}
}

func TestOutboxDispatcherSkipsNotifierForSubmitted(t *testing.T) {
	repo := &outboxRepoStub{events: []domain.OutboxEvent{outboxEvent(1, domain.EventTypeFilingSubmitted)}}
	notifier := &notifierStub{}
	d := NewOutboxDispatcher(repo, &publisherStub{}, notifier, time.Second, 10)

	if err := d.DispatchBatch(context.Background()); err != nil {
		t.Fatalf("dispatch batch: %v", err)
	}
	if len(notifier.processed) != 0 {
		t.Fatalf("submitted events must not notify, got %+v", notifier.processed)
	}
	if len(repo.dispatched) != 1 {
		t.Fatalf("dispatched = %v", repo.dispatched)
	}
}

func TestOutboxDispatcherRetriesOnPublishFailure(t *testing.T) {
	repo := &outboxRepoStub{events: []domain.OutboxEvent{outboxEvent(1, domain.EventTypeFilingPaid)}}
	pub := &publisherStub{err: errors.New("receiver down")}
	d := NewOutboxDispatcher(repo, pub, nil, time.Second, 10)

	if err := d.DispatchBatch(context.Background()); err != nil {
		t.Fatalf("dispatch batch: %v", err)
	}

	if len(repo.failed) != 1 {
		t.Fatalf("failed marks = %+v, want 1", repo.failed)
	}
	if repo.failed[0].attempts != 1 {
		t.Fatalf("attempts = %d, want 1", repo.failed[0].attempts)
	}
	if _, err := time.Parse(time.RFC3339Nano, repo.failed[0].nextAttempt); err != nil {
		t.Fatalf("next attempt not RFC3339Nano: %v", err)
	}
	if got := d.Metrics().DispatchFailureTotal; got != 1 {
		t.Fatalf("failure total = %d", got)
	}
}

func TestOutboxDispatcherNotifierFailureKeepsEventPending(t *testing.T) {
	repo := &outboxRepoStub{events: []domain.OutboxEvent{outboxEvent(1, domain.EventTypeFilingPaid)}}
	pub := &publisherStub{}
	notifier := &notifierStub{err: errors.New("template broken")}
	d := NewOutboxDispatcher(repo, pub, notifier, time.Second, 10)

	if err := d.DispatchBatch(context.Background()); err != nil {
		t.Fatalf("dispatch batch: %v", err)
	}
	if len(repo.dispatched) != 0 {
		t.Fatal("event must stay pending when notification fails")
	}
	if len(repo.failed) != 1 {
		t.Fatalf("failed marks = %+v", repo.failed)
	}
}

func TestOutboxDispatcherDeadLettersAfterMaxRetry(t *testing.T) {
	event := outboxEvent(1, domain.EventTypeFilingPaid)
	event.Attempts = 4
	repo := &outboxRepoStub{events: []domain.OutboxEvent{event}}
	pub := &publisherStub{err: errors.New("receiver down")}
	d := NewOutboxDispatcher(repo, pub, nil, time.Second, 10)

	if err := d.DispatchBatch(context.Background()); err != nil {
		t.Fatalf("dispatch batch: %v", err)
	}
	if len(repo.dead) != 1 || repo.dead[0].attempts != 5 {
		t.Fatalf("dead marks = %+v, want one with 5 attempts", repo.dead)
	}
	if got := d.Metrics().DispatchDeadTotal; got != 1 {
		t.Fatalf("dead total = %d", got)
	}
}

func TestOutboxDispatcherMalformedPayloadFails(t *testing.T) {
	event := outboxEvent(1, domain.EventTypeFilingPaid)
	event.PayloadJSON = json.RawMessage(`{`)
	repo := &outboxRepoStub{events: []domain.OutboxEvent{event}}
	d := NewOutboxDispatcher(repo, &publisherStub{}, nil, time.Second, 10)

	if err := d.DispatchBatch(context.Background()); err != nil {
		t.Fatalf("dispatch batch: %v", err)
	}
	if len(repo.failed) != 1 {
		t.Fatalf("failed marks = %+v", repo.failed)
	}
}

func TestBackoffDuration(t *testing.T) {
	if got := backoffDuration(1); got != time.Second {
		t.Fatalf("attempt 1 = %v", got)
	}
	if got := backoffDuration(3); got != 9*time.Second {
		t.Fatalf("attempt 3 = %v", got)
	}
	if got := backoffDuration(100); got != 5*time.Minute {
		t.Fatalf("attempt 100 = %v, want cap", got)
	}
}
