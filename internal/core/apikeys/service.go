package apikeys

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type keyService struct {
	repo Repository
}

// NewService creates the API-key service.
func NewService(repo Repository) Service {
	return &keyService{repo: repo}
}

func (s *keyService) Generate(ctx context.Context, username string, requestsPerSecond, maxBatchSize *int) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("username is required")
	}

	key := &APIKey{
		Key:               uuid.New().String(),
		Username:          username,
		CreatedAt:         time.Now().UTC(),
		IsActive:          true,
		RequestsPerSecond: requestsPerSecond,
		MaxBatchSize:      maxBatchSize,
	}

	if err := s.repo.Create(ctx, key); err != nil {
		return "", err
	}

	slog.Info("API key generated", "username", username)
	return key.Key, nil
}

func (s *keyService) Remove(ctx context.Context, username string) error {
	return s.repo.DeleteByUsername(ctx, strings.TrimSpace(username))
}

func (s *keyService) List(ctx context.Context) ([]APIKey, error) {
	return s.repo.List(ctx)
}

func (s *keyService) SetActive(ctx context.Context, username string, active bool) error {
	return s.repo.SetActive(ctx, strings.TrimSpace(username), active)
}

func (s *keyService) SetRateLimit(ctx context.Context, username string, requestsPerSecond *int) error {
	return s.repo.SetRateLimit(ctx, strings.TrimSpace(username), requestsPerSecond)
}

func (s *keyService) Validate(ctx context.Context, key string) (*APIKey, error) {
	record, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !record.IsActive {
		return nil, ErrInactiveKey
	}
	return record, nil
}

func (s *keyService) TouchLastUsed(ctx context.Context, key string) {
	if err := s.repo.TouchLastUsed(ctx, key); err != nil {
		slog.Warn("failed to update last_used_at", "api_key", truncateKey(key), "error", err)
	}
}

func (s *keyService) RateLimitFor(ctx context.Context, key string) (*int, error) {
	record, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return record.RequestsPerSecond, nil
}

// truncateKey shortens a key token for log output.
func truncateKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "..."
}
