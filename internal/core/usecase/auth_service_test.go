package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/openregistry/filings-api/internal/core/domain"
)

type apiKeyRepoStub struct {
	keys map[string]domain.APIKey
	err  error
}

func (r *apiKeyRepoStub) FindByTokenHash(_ context.Context, tokenHash string) (domain.APIKey, error) {
	if r.err != nil {
		return domain.APIKey{}, r.err
	}
	key, ok := r.keys[tokenHash]
	if !ok {
		return domain.APIKey{}, domain.ErrNotFound
	}
	return key, nil
}

func (r *apiKeyRepoStub) Upsert(_ context.Context, key domain.APIKey) error {
	if r.keys == nil {
		r.keys = map[string]domain.APIKey{}
	}
	r.keys[key.TokenHash] = key
	return nil
}

func TestAuthServiceAuthenticate(t *testing.T) {
	repo := &apiKeyRepoStub{keys: map[string]domain.APIKey{
		HashToken("secret-token"): {TokenHash: HashToken("secret-token"), Client: "registrar", Name: "ops", Active: true},
	}}
	svc := NewAuthService(repo)

	key, err := svc.Authenticate(context.Background(), "secret-token")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if key.Client != "registrar" {
		t.Fatalf("client = %q", key.Client)
	}
}

func TestAuthServiceRejectsUnknownToken(t *testing.T) {
	svc := NewAuthService(&apiKeyRepoStub{})
	if _, err := svc.Authenticate(context.Background(), "nope"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestAuthServiceRejectsEmptyToken(t *testing.T) {
	svc := NewAuthService(&apiKeyRepoStub{})
	if _, err := svc.Authenticate(context.Background(), "   "); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestAuthServiceRejectsInactiveKey(t *testing.T) {
	repo := &apiKeyRepoStub{keys: map[string]domain.APIKey{
		HashToken("revoked"): {TokenHash: HashToken("revoked"), Client: "registrar", Active: false},
	}}
	svc := NewAuthService(repo)
	if _, err := svc.Authenticate(context.Background(), "revoked"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestAuthServicePropagatesRepositoryError(t *testing.T) {
	repoErr := errors.New("db locked")
	svc := NewAuthService(&apiKeyRepoStub{err: repoErr})
	if _, err := svc.Authenticate(context.Background(), "token"); !errors.Is(err, repoErr) {
		t.Fatalf("err = %v, want repo error", err)
	}
}
