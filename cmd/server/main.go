package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	apikeyhandlers "Pixelbox/internal/api/handlers/apikey"
	imagehandlers "Pixelbox/internal/api/handlers/image"
	"Pixelbox/internal/api/middleware"
	"Pixelbox/internal/api/routes"
	"Pixelbox/internal/config"
	"Pixelbox/internal/core/apikeys"
	"Pixelbox/internal/core/images"
	"Pixelbox/internal/core/ratelimit"
	postgresRepo "Pixelbox/internal/db/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Connected to catalog database")

	// Run migrations
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("Failed to set goose dialect:", err)
	}

	if err := goose.Up(db, "internal/db/migrations"); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	log.Println("Migrations completed successfully")

	// Repositories and services
	imageRepo := postgresRepo.NewImageRepository(db)
	keyRepo := postgresRepo.NewAPIKeyRepository(db)

	keyService := apikeys.NewService(keyRepo)

	fetcher := images.NewRemoteFetcher(cfg.FetchTimeout, cfg.MaxFileBytes)
	cache := images.NewResponseCache(cfg.CacheSize, cfg.CacheTTL)
	imageService, err := images.NewService(imageRepo, fetcher, cache,
		cfg.ImagesDir, cfg.PublicBaseURL(), cfg.MaxFileBytes, cfg.IngestConcurrency)
	if err != nil {
		log.Fatal("Failed to initialize image service:", err)
	}

	// Middleware
	ipLimiter := ratelimit.NewIPLimiter(cfg.IPRatePerSecond, cfg.IPBurst)
	keyLimiter := ratelimit.NewKeyLimiter(keyService, cfg.KeyRateDefault, cfg.KeyRateWindow)
	auth := middleware.NewKeyAuth(cfg.AdminKey, keyService, keyLimiter)

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
	r.Use(chiMiddleware.SetHeader("Access-Control-Allow-Origin", "*"))
	r.Use(middleware.NewIPRateLimit(ipLimiter).Middleware)

	routes.RegisterImageRoutes(r, imagehandlers.NewHandler(imageService), auth)
	routes.RegisterAPIKeyRoutes(r, apikeyhandlers.NewHandler(keyService), auth)

	// Raw image files live under a separate prefix so the metadata routes
	// keep /images to themselves.
	fileServer := http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.ImagesDir)))
	r.Get("/files/*", fileServer.ServeHTTP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","time":%q}`, time.Now().UTC().Format(time.RFC3339))
	})

	fmt.Printf("Pixelbox starting on %s\n", cfg.Addr())
	log.Fatal(http.ListenAndServe(cfg.Addr(), r))
}
