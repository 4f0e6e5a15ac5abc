package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Pixelbox/internal/core/apikeys"
	"Pixelbox/internal/core/ratelimit"
)

// fakeKeyService implements apikeys.Service with a fixed key table.
type fakeKeyService struct {
	keys    map[string]*apikeys.APIKey
	touched []string
}

func (f *fakeKeyService) Generate(ctx context.Context, username string, rps, batch *int) (string, error) {
	return "", nil
}
func (f *fakeKeyService) Remove(ctx context.Context, username string) error { return nil }
func (f *fakeKeyService) List(ctx context.Context) ([]apikeys.APIKey, error) {
	return nil, nil
}
func (f *fakeKeyService) SetActive(ctx context.Context, username string, active bool) error {
	return nil
}
func (f *fakeKeyService) SetRateLimit(ctx context.Context, username string, rps *int) error {
	return nil
}

func (f *fakeKeyService) Validate(ctx context.Context, key string) (*apikeys.APIKey, error) {
	record, ok := f.keys[key]
	if !ok {
		return nil, apikeys.ErrUnauthorized
	}
	if !record.IsActive {
		return nil, apikeys.ErrInactiveKey
	}
	return record, nil
}

func (f *fakeKeyService) TouchLastUsed(ctx context.Context, key string) {
	f.touched = append(f.touched, key)
}

func (f *fakeKeyService) RateLimitFor(ctx context.Context, key string) (*int, error) {
	record, ok := f.keys[key]
	if !ok {
		return nil, apikeys.ErrUnauthorized
	}
	return record.RequestsPerSecond, nil
}

func newTestAuth(keys *fakeKeyService) *KeyAuth {
	limiter := ratelimit.NewKeyLimiter(keys, 100, time.Second)
	return NewKeyAuth("admin-secret", keys, limiter)
}

func doAuthed(t *testing.T, auth *KeyAuth, token string) (*httptest.ResponseRecorder, *AuthInfo) {
	t.Helper()
	var captured *AuthInfo
	handler := auth.RequireKey(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = AuthInfoFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/images/random", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func TestRequireKey_MissingHeader(t *testing.T) {
	rec, _ := doAuthed(t, newTestAuth(&fakeKeyService{}), "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireKey_UnknownKey(t *testing.T) {
	keys := &fakeKeyService{keys: map[string]*apikeys.APIKey{}}
	rec, _ := doAuthed(t, newTestAuth(keys), "nope")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireKey_InactiveKey(t *testing.T) {
	keys := &fakeKeyService{keys: map[string]*apikeys.APIKey{
		"dead": {Key: "dead", Username: "alice", IsActive: false},
	}}
	rec, _ := doAuthed(t, newTestAuth(keys), "dead")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for deactivated key, got %d", rec.Code)
	}
}

func TestRequireKey_ValidKey(t *testing.T) {
	batch := 10
	keys := &fakeKeyService{keys: map[string]*apikeys.APIKey{
		"good": {Key: "good", Username: "alice", IsActive: true, MaxBatchSize: &batch},
	}}
	rec, info := doAuthed(t, newTestAuth(keys), "good")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if info == nil || info.Admin || info.Username != "alice" || info.BatchMax != 10 {
		t.Errorf("unexpected auth info: %+v", info)
	}
	if len(keys.touched) != 1 || keys.touched[0] != "good" {
		t.Errorf("expected last-used touch for the key, got %v", keys.touched)
	}
}

func TestRequireKey_AdminBypass(t *testing.T) {
	// The admin key is not in the catalog and skips validation entirely.
	keys := &fakeKeyService{keys: map[string]*apikeys.APIKey{}}
	rec, info := doAuthed(t, newTestAuth(keys), "admin-secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if info == nil || !info.Admin {
		t.Errorf("expected admin auth info, got %+v", info)
	}
	if len(keys.touched) != 0 {
		t.Error("the admin key must not be touched in the catalog")
	}
}

func TestRequireKey_RateLimited(t *testing.T) {
	one := 1
	keys := &fakeKeyService{keys: map[string]*apikeys.APIKey{
		"slow": {Key: "slow", Username: "bob", IsActive: true, RequestsPerSecond: &one},
	}}
	auth := newTestAuth(keys)

	rec, _ := doAuthed(t, auth, "slow")
	if rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}
	rec, _ = doAuthed(t, auth, "slow")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 on the second instant request, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	auth := newTestAuth(&fakeKeyService{keys: map[string]*apikeys.APIKey{
		"good": {Key: "good", Username: "alice", IsActive: true},
	}})
	handler := auth.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := map[string]int{
		"admin-secret": http.StatusOK,
		"good":         http.StatusUnauthorized,
		"":             http.StatusUnauthorized,
	}
	for token, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/keys", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("token %q: expected %d, got %d", token, want, rec.Code)
		}
	}
}
