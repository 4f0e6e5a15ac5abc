package apikeys

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	byKey      map[string]*APIKey
	byUsername map[string]*APIKey
	touchErr   error
	touched    []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byKey:      make(map[string]*APIKey),
		byUsername: make(map[string]*APIKey),
	}
}

func (r *fakeRepo) Create(ctx context.Context, key *APIKey) error {
	if _, exists := r.byUsername[key.Username]; exists {
		return fmt.Errorf("%w: %s", ErrUsernameExists, key.Username)
	}
	cp := *key
	r.byKey[key.Key] = &cp
	r.byUsername[key.Username] = &cp
	return nil
}

func (r *fakeRepo) GetByKey(ctx context.Context, key string) (*APIKey, error) {
	record, ok := r.byKey[key]
	if !ok {
		return nil, ErrUnauthorized
	}
	cp := *record
	return &cp, nil
}

func (r *fakeRepo) List(ctx context.Context) ([]APIKey, error) {
	out := make([]APIKey, 0, len(r.byKey))
	for _, k := range r.byKey {
		out = append(out, *k)
	}
	return out, nil
}

func (r *fakeRepo) DeleteByUsername(ctx context.Context, username string) error {
	record, ok := r.byUsername[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, username)
	}
	delete(r.byUsername, username)
	delete(r.byKey, record.Key)
	return nil
}

func (r *fakeRepo) SetActive(ctx context.Context, username string, active bool) error {
	record, ok := r.byUsername[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, username)
	}
	record.IsActive = active
	return nil
}

func (r *fakeRepo) SetRateLimit(ctx context.Context, username string, requestsPerSecond *int) error {
	record, ok := r.byUsername[username]
	if !ok || !record.IsActive {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, username)
	}
	record.RequestsPerSecond = requestsPerSecond
	return nil
}

func (r *fakeRepo) TouchLastUsed(ctx context.Context, key string) error {
	if r.touchErr != nil {
		return r.touchErr
	}
	r.touched = append(r.touched, key)
	return nil
}

func TestKeyService_GenerateAndValidate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	token, err := svc.Generate(ctx, "  alice  ", nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	record, err := svc.Validate(ctx, token)
	if err != nil {
		t.Fatalf("expected valid key, got: %v", err)
	}
	if record.Username != "alice" {
		t.Errorf("expected trimmed username alice, got %q", record.Username)
	}
	if !record.IsActive {
		t.Error("new keys must start active")
	}
}

func TestKeyService_Generate_EmptyUsername(t *testing.T) {
	svc := NewService(newFakeRepo())
	if _, err := svc.Generate(context.Background(), "   ", nil, nil); err == nil {
		t.Error("expected error for blank username")
	}
}

func TestKeyService_Generate_DuplicateUsername(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	if _, err := svc.Generate(ctx, "alice", nil, nil); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Generate(ctx, "alice", nil, nil)
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists, got: %v", err)
	}
}

func TestKeyService_Validate_UnknownKey(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.Validate(context.Background(), "no-such-key")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got: %v", err)
	}
}

func TestKeyService_Validate_InactiveKey(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	token, err := svc.Generate(ctx, "alice", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.SetActive(ctx, "alice", false); err != nil {
		t.Fatal(err)
	}

	// Deactivated keys are rejected distinctly from unknown ones.
	_, err = svc.Validate(ctx, token)
	if !errors.Is(err, ErrInactiveKey) {
		t.Errorf("expected ErrInactiveKey, got: %v", err)
	}
}

func TestKeyService_RateLimitFor(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	limit := 7
	token, err := svc.Generate(ctx, "alice", &limit, nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.RateLimitFor(ctx, token)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got == nil || *got != 7 {
		t.Errorf("expected ceiling 7, got %v", got)
	}

	if err := svc.SetRateLimit(ctx, "alice", nil); err != nil {
		t.Fatal(err)
	}
	got, err = svc.RateLimitFor(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected unlimited after clearing, got %v", *got)
	}
}

func TestKeyService_TouchLastUsed_SwallowsErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.touchErr = errors.New("write failed")
	svc := NewService(repo)

	// Must not panic or propagate.
	svc.TouchLastUsed(context.Background(), "some-key")
}

func TestKeyService_Remove(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	token, err := svc.Generate(ctx, "alice", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(ctx, "alice"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if _, err := svc.Validate(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized after removal, got: %v", err)
	}
	if err := svc.Remove(ctx, "alice"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound for second removal, got: %v", err)
	}
}

func TestAPIKey_BatchCeiling(t *testing.T) {
	k := &APIKey{}
	if k.BatchCeiling() != 1 {
		t.Errorf("expected ceiling 1 when batching is off, got %d", k.BatchCeiling())
	}
	size := 25
	k.MaxBatchSize = &size
	if k.BatchCeiling() != 25 {
		t.Errorf("expected ceiling 25, got %d", k.BatchCeiling())
	}
}
