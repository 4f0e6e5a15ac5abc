package apikeys

import "time"

// APIKey is one catalog-managed credential. A nil RequestsPerSecond means
// the key is not rate limited; a nil MaxBatchSize means batching is
// disabled for the key (effective ceiling of 1).
type APIKey struct {
	Key               string     `json:"key"`
	Username          string     `json:"username"`
	CreatedAt         time.Time  `json:"created_at"`
	LastUsedAt        *time.Time `json:"last_used_at"`
	IsActive          bool       `json:"is_active"`
	RequestsPerSecond *int       `json:"requests_per_second"`
	MaxBatchSize      *int       `json:"max_batch_size"`
}

// BatchCeiling returns the largest batch this key may request.
func (k *APIKey) BatchCeiling() int {
	if k.MaxBatchSize == nil {
		return 1
	}
	return *k.MaxBatchSize
}
