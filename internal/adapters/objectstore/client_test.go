package objectstore

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openregistry/filings-api/internal/core/domain"
)

func TestClientFetchByKey(t *testing.T) {
	want := []byte("%PDF-1.4 test bytes")
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write(want)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	data, err := c.FetchByKey(context.Background(), "rules key.pdf")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("data = %q, want %q", data, want)
	}
	if gotPath != "/rules%20key.pdf" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestClientFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.FetchByKey(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestClientFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.FetchByKey(context.Background(), "rules-key"); err == nil {
		t.Fatal("expected error for 503 response, got nil")
	}
}
