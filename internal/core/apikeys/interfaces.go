package apikeys

import "context"

// Repository defines API-key persistence.
type Repository interface {
	// Create inserts a new key record. Returns ErrUsernameExists if the
	// username already owns a key.
	Create(ctx context.Context, key *APIKey) error

	// GetByKey returns the record for a key token, or ErrUnauthorized if
	// unknown.
	GetByKey(ctx context.Context, key string) (*APIKey, error)

	// List returns every key record, newest first.
	List(ctx context.Context) ([]APIKey, error)

	// DeleteByUsername hard-deletes a username's key. Returns
	// ErrKeyNotFound if there is none.
	DeleteByUsername(ctx context.Context, username string) error

	// SetActive soft-(de)activates a username's key.
	SetActive(ctx context.Context, username string, active bool) error

	// SetRateLimit updates the per-key requests-per-second override of an
	// active key. nil clears the override (unlimited).
	SetRateLimit(ctx context.Context, username string, requestsPerSecond *int) error

	// TouchLastUsed records a successful authenticated use.
	TouchLastUsed(ctx context.Context, key string) error
}

// Service is the API-key management and validation logic consumed by the
// HTTP layer and the key rate limiter.
type Service interface {
	// Generate creates a key for username and returns the opaque token.
	Generate(ctx context.Context, username string, requestsPerSecond, maxBatchSize *int) (string, error)

	// Remove hard-deletes a username's key.
	Remove(ctx context.Context, username string) error

	// List returns all key records.
	List(ctx context.Context) ([]APIKey, error)

	// SetActive soft-deactivates or reactivates a username's key.
	SetActive(ctx context.Context, username string, active bool) error

	// SetRateLimit updates a username's requests-per-second override.
	SetRateLimit(ctx context.Context, username string, requestsPerSecond *int) error

	// Validate authenticates a key token. Returns the record when active,
	// ErrInactiveKey when known but deactivated, ErrUnauthorized when
	// unknown.
	Validate(ctx context.Context, key string) (*APIKey, error)

	// TouchLastUsed updates the key's last-used timestamp, best-effort: a
	// failure is logged and swallowed, never failing the request.
	TouchLastUsed(ctx context.Context, key string)

	// RateLimitFor resolves the effective requests-per-second ceiling for a
	// key at check time (no caching). nil means unlimited.
	RateLimitFor(ctx context.Context, key string) (*int, error)
}
