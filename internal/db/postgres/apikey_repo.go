package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"Pixelbox/internal/core/apikeys"
)

type postgresAPIKeyRepo struct {
	db *sql.DB
}

// NewAPIKeyRepository creates a PostgreSQL API-key repository.
func NewAPIKeyRepository(db *sql.DB) apikeys.Repository {
	return &postgresAPIKeyRepo{db: db}
}

func (r *postgresAPIKeyRepo) Create(ctx context.Context, key *apikeys.APIKey) error {
	query := `
		INSERT INTO api_keys (key, username, created_at, is_active, requests_per_second, max_batch_size)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		key.Key, key.Username, key.CreatedAt, key.IsActive,
		nullableInt(key.RequestsPerSecond), nullableInt(key.MaxBatchSize))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", apikeys.ErrUsernameExists, key.Username)
		}
		return fmt.Errorf("failed to create API key: %w", err)
	}
	return nil
}

func (r *postgresAPIKeyRepo) GetByKey(ctx context.Context, key string) (*apikeys.APIKey, error) {
	record := &apikeys.APIKey{}
	var lastUsed sql.NullTime
	var rps, batch sql.NullInt64

	query := `
		SELECT key, username, created_at, last_used_at, is_active, requests_per_second, max_batch_size
		FROM api_keys WHERE key = $1`

	err := r.db.QueryRowContext(ctx, query, key).
		Scan(&record.Key, &record.Username, &record.CreatedAt, &lastUsed,
			&record.IsActive, &rps, &batch)
	if err == sql.ErrNoRows {
		return nil, apikeys.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}

	record.LastUsedAt = nullTimePtr(lastUsed)
	record.RequestsPerSecond = nullIntPtr(rps)
	record.MaxBatchSize = nullIntPtr(batch)
	return record, nil
}

func (r *postgresAPIKeyRepo) List(ctx context.Context) ([]apikeys.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, username, created_at, last_used_at, is_active, requests_per_second, max_batch_size
		FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	defer rows.Close()

	keys := []apikeys.APIKey{}
	for rows.Next() {
		var record apikeys.APIKey
		var lastUsed sql.NullTime
		var rps, batch sql.NullInt64

		if err := rows.Scan(&record.Key, &record.Username, &record.CreatedAt, &lastUsed,
			&record.IsActive, &rps, &batch); err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		record.LastUsedAt = nullTimePtr(lastUsed)
		record.RequestsPerSecond = nullIntPtr(rps)
		record.MaxBatchSize = nullIntPtr(batch)
		keys = append(keys, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	return keys, nil
}

func (r *postgresAPIKeyRepo) DeleteByUsername(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}
	return requireRow(res, username)
}

func (r *postgresAPIKeyRepo) SetActive(ctx context.Context, username string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET is_active = $1 WHERE username = $2`, active, username)
	if err != nil {
		return fmt.Errorf("failed to update API key status: %w", err)
	}
	return requireRow(res, username)
}

func (r *postgresAPIKeyRepo) SetRateLimit(ctx context.Context, username string, requestsPerSecond *int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET requests_per_second = $1 WHERE username = $2 AND is_active = TRUE`,
		nullableInt(requestsPerSecond), username)
	if err != nil {
		return fmt.Errorf("failed to update API key rate limit: %w", err)
	}
	return requireRow(res, username)
}

func (r *postgresAPIKeyRepo) TouchLastUsed(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = $1 WHERE key = $2`, time.Now().UTC(), key)
	if err != nil {
		return fmt.Errorf("failed to touch last_used_at: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, username string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apikeys.ErrKeyNotFound, username)
	}
	return nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
