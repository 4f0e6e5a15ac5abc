package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, parsed from environment variables.
// Defaults match the reference deployment: 10 MiB upload ceiling, 30s fetch
// timeout, 5 redirects.
type Config struct {
	Host        string `env:"HOST" envDefault:"127.0.0.1"`
	Port        string `env:"PORT" envDefault:"8000"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// ImagesDir is the directory holding image backing files.
	ImagesDir string `env:"IMAGES_DIR" envDefault:"images"`

	// AdminKey authenticates administrative endpoints. It is distinct from
	// catalog-managed API keys and is never rate limited.
	AdminKey string `env:"ADMIN_KEY,required"`

	MaxFileBytes int64         `env:"MAX_FILE_BYTES" envDefault:"10485760"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`

	// IP rate limiting for public read paths (token bucket per IP).
	IPRatePerSecond float64 `env:"IP_RATE_PER_SECOND" envDefault:"5"`
	IPBurst         int     `env:"IP_BURST" envDefault:"10"`

	// API-key rate limiting (sliding window per key). KeyRateDefault is the
	// conservative fallback used when the catalog lookup fails.
	KeyRateDefault int           `env:"KEY_RATE_DEFAULT" envDefault:"10"`
	KeyRateWindow  time.Duration `env:"KEY_RATE_WINDOW" envDefault:"1s"`

	CacheSize int           `env:"CACHE_SIZE" envDefault:"1024"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	IngestConcurrency int           `env:"INGEST_CONCURRENCY" envDefault:"4"`

	// BaseURL overrides the externally visible URL prefix for image links.
	// When empty it is derived from Host and Port.
	BaseURL string `env:"BASE_URL"`
}

// Load parses configuration from the environment. A .env file in the working
// directory is loaded first if present (development convenience).
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return cfg, nil
}

// PublicBaseURL returns the URL prefix under which stored images are served.
func (c *Config) PublicBaseURL() string {
	base := c.BaseURL
	if base == "" {
		base = fmt.Sprintf("http://%s:%s", c.Host, c.Port)
	}
	return base + "/files"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}
