package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openregistry/filings-api/internal/core/domain"
)

func TestHTTPSenderSignsAndPosts(t *testing.T) {
	var gotBody []byte
	var gotHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	secret := "notify-secret"
	sender := NewHTTPSender(srv.URL, secret, 5*time.Second)

	email := domain.Email{
		Recipients: []string{"jane@example.com"},
		RequestBy:  "filings-api",
		Content: domain.EmailContent{
			Subject: "Confirmation of Filing from the Business Registry",
			Body:    "<html></html>",
		},
	}
	if err := sender.Send(context.Background(), email); err != nil {
		t.Fatalf("send: %v", err)
	}

	sigHeader := gotHeaders.Get("X-Hub-Signature-256")
	if !strings.HasPrefix(sigHeader, "sha256=") {
		t.Fatalf("X-Hub-Signature-256 header missing or malformed: %q", sigHeader)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	if want := hex.EncodeToString(mac.Sum(nil)); strings.TrimPrefix(sigHeader, "sha256=") != want {
		t.Errorf("signature mismatch")
	}

	var decoded domain.Email
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(decoded.Recipients) != 1 || decoded.Recipients[0] != "jane@example.com" {
		t.Errorf("recipients = %v", decoded.Recipients)
	}
	if decoded.Content.Subject != email.Content.Subject {
		t.Errorf("subject = %q", decoded.Content.Subject)
	}
}

func TestHTTPSenderNon2xxReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := NewHTTPSender(srv.URL, "secret", 5*time.Second)
	if err := sender.Send(context.Background(), domain.Email{}); err == nil {
		t.Fatal("expected error for 400 response, got nil")
	}
}

func TestHTTPSenderZeroTimeoutUsesDefault(t *testing.T) {
	sender := NewHTTPSender("http://localhost:9", "s", 0)
	if sender.client.Timeout != defaultSendTimeout {
		t.Errorf("timeout = %v, want %v", sender.client.Timeout, defaultSendTimeout)
	}
}
