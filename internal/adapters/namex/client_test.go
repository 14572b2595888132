package namex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openregistry/filings-api/internal/core/domain"
)

func TestClientQueryPicksApprovedName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"state": "APPROVED",
			"legalType": "BEN",
			"names": [
				{"name": "Rejected Name Ltd.", "state": "REJECTED"},
				{"name": "Acme Widgets Inc.", "state": "APPROVED"},
				{"name": "Other Name Inc.", "state": "APPROVED"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	nr, err := c.Query(context.Background(), "NR 1234567")
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if gotPath != "/requests/NR%201234567" {
		t.Errorf("path = %q", gotPath)
	}
	if nr.LegalName != "Acme Widgets Inc." {
		t.Errorf("legal name = %q, want first approved name", nr.LegalName)
	}
	if nr.LegalType != domain.LegalTypeBenefitCompany {
		t.Errorf("legal type = %q", nr.LegalType)
	}
	if nr.State != "APPROVED" {
		t.Errorf("state = %q", nr.State)
	}
}

func TestClientQueryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.Query(context.Background(), "NR 0000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestClientQueryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.Query(context.Background(), "NR 1234567"); err == nil {
		t.Fatal("expected error for 502 response, got nil")
	}
}

func TestClientQueryMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"state":`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.Query(context.Background(), "NR 1234567"); err == nil {
		t.Fatal("expected decode error, got nil")
	}
}
