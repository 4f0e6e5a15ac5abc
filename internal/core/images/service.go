// Package images implements the ingestion, deduplication and filtered
// retrieval engine: safe fetching of images from untrusted sources, format
// validation, content-addressed storage, and randomized filtered selection.
//
// Within one ingest the stages run strictly in order: byte-size check, then
// format validation, then hashing, then the uniqueness-checked insert. Later
// stages are more expensive and only run on already-bounded, already-typed
// input.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type imageService struct {
	repo      Repository
	fetcher   *RemoteFetcher
	cache     *ResponseCache
	imagesDir string
	baseURL   string
	maxBytes  int64
	sem       chan struct{}
}

// NewService creates the image service. concurrency bounds how many batch
// ingest pipelines run at once.
func NewService(repo Repository, fetcher *RemoteFetcher, cache *ResponseCache, imagesDir, baseURL string, maxBytes int64, concurrency int) (Service, error) {
	if repo == nil || fetcher == nil || cache == nil {
		return nil, errors.New("images: repository, fetcher and cache are required")
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &imageService{
		repo:      repo,
		fetcher:   fetcher,
		cache:     cache,
		imagesDir: imagesDir,
		baseURL:   strings.TrimRight(baseURL, "/"),
		maxBytes:  maxBytes,
		sem:       make(chan struct{}, concurrency),
	}, nil
}

func (s *imageService) IngestLocal(ctx context.Context, path string, tags []string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: local file %q", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat local file: %w", err)
	}
	if info.Size() > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, info.Size(), s.maxBytes)
	}

	format, width, height, err := ValidateFile(path)
	if err != nil {
		return "", err
	}

	filename := uuid.New().String() + "." + format.Ext()
	dest := filepath.Join(s.imagesDir, filename)
	if err := copyFile(path, dest); err != nil {
		return "", fmt.Errorf("failed to copy image into store: %w", err)
	}

	return s.finishIngest(ctx, dest, filename, width, height, info.Size(), tags)
}

func (s *imageService) IngestRemote(ctx context.Context, rawURL string, tags []string) (string, error) {
	tmp, err := s.fetcher.Fetch(ctx, rawURL, s.imagesDir)
	if err != nil {
		return "", err
	}
	// No-op once the rename below succeeds.
	defer os.Remove(tmp)

	format, width, height, err := ValidateFile(tmp)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to stat downloaded file: %w", err)
	}

	filename := uuid.New().String() + "." + format.Ext()
	dest := filepath.Join(s.imagesDir, filename)
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("failed to move downloaded file: %w", err)
	}

	return s.finishIngest(ctx, dest, filename, width, height, info.Size(), tags)
}

func (s *imageService) IngestBytes(ctx context.Context, data []byte, declaredType string, tags []string) (string, error) {
	if !AllowedContentType(declaredType) {
		return "", fmt.Errorf("%w: declared content type %q not allowed", ErrUnsupportedFormat, declaredType)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(data), s.maxBytes)
	}

	format, width, height, err := ValidateBytes(data)
	if err != nil {
		return "", err
	}
	hash := HashBytes(data)

	filename := uuid.New().String() + "." + format.Ext()
	dest := filepath.Join(s.imagesDir, filename)
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return s.insertIngest(ctx, dest, filename, hash, width, height, int64(len(data)), tags)
}

// finishIngest hashes the persisted file and attempts the uniqueness-checked
// insert. Insert-then-detect keeps concurrent identical uploads race-free;
// the just-written file is deleted on a duplicate so no orphaned bytes
// remain on any failure path.
func (s *imageService) finishIngest(ctx context.Context, dest, filename string, width, height int, size int64, tags []string) (string, error) {
	hash, err := HashFile(dest)
	if err != nil {
		s.removeFile(dest)
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return s.insertIngest(ctx, dest, filename, hash, width, height, size, tags)
}

func (s *imageService) insertIngest(ctx context.Context, dest, filename, hash string, width, height int, size int64, tags []string) (string, error) {
	now := time.Now().UTC()
	img := &Image{
		Hash:       hash,
		Filename:   filename,
		CreatedAt:  now,
		ModifiedAt: now,
		Width:      width,
		Height:     height,
		SizeBytes:  size,
	}

	if err := s.repo.Insert(ctx, img); err != nil {
		s.removeFile(dest)
		return "", err
	}

	if len(tags) > 0 {
		if err := s.repo.AddTags(ctx, hash, tags); err != nil {
			// The image itself is stored and valid; tag application is
			// retryable through the tag endpoints.
			slog.Warn("failed to apply tags at ingest", "hash", hash, "error", err)
		}
	}

	slog.Info("image ingested", "filename", filename, "hash", hash,
		"width", width, "height", height, "size_bytes", size)
	return hash, nil
}

func (s *imageService) IngestBatch(ctx context.Context, reqs []IngestRequest) []IngestOutcome {
	outcomes := make([]IngestOutcome, len(reqs))
	var wg sync.WaitGroup

	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req IngestRequest) {
			defer wg.Done()
			s.sem <- struct{}{}
			defer func() { <-s.sem }()

			outcome := IngestOutcome{Path: req.Path}
			switch req.Source {
			case SourceURL:
				outcome.Hash, outcome.Err = s.IngestRemote(ctx, req.Path, req.Tags)
			case SourceLocal:
				outcome.Hash, outcome.Err = s.IngestLocal(ctx, req.Path, req.Tags)
			default:
				outcome.Err = fmt.Errorf("unknown ingest source %q", req.Source)
			}
			outcomes[i] = outcome
		}(i, req)
	}

	wg.Wait()
	return outcomes
}

func (s *imageService) GetByFilename(ctx context.Context, filename string) (*ImageResponse, error) {
	if resp, ok := s.cache.Get(filename); ok {
		return resp, nil
	}

	img, err := s.repo.GetByFilename(ctx, filename)
	if err != nil {
		return nil, err
	}

	resp := s.buildResponse(ctx, img)
	s.cache.Put(filename, resp)
	return resp, nil
}

func (s *imageService) GetRandom(ctx context.Context, spec FilterSpec) (*ImageResponse, error) {
	img, err := s.repo.SelectRandom(ctx, spec)
	if err != nil {
		return nil, err
	}

	resp := s.buildResponse(ctx, img)
	s.cache.Put(img.Filename, resp)
	return resp, nil
}

func (s *imageService) GetRandomBatch(ctx context.Context, count int, spec FilterSpec) []RandomOutcome {
	outcomes := make([]RandomOutcome, count)
	for i := range outcomes {
		outcomes[i].Image, outcomes[i].Err = s.GetRandom(ctx, spec)
	}
	return outcomes
}

func (s *imageService) Delete(ctx context.Context, filename string) error {
	img, err := s.repo.Delete(ctx, filename)
	if err != nil {
		return err
	}

	// The catalog transaction has committed; a failed file removal is
	// tolerated and logged, not rolled back.
	path := filepath.Join(s.imagesDir, img.Filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Error("failed to remove backing file after delete", "path", path, "error", err)
	}

	s.cache.Invalidate(filename)
	slog.Info("image deleted", "filename", filename, "hash", img.Hash)
	return nil
}

func (s *imageService) AddTags(ctx context.Context, filename string, tags []string) error {
	img, err := s.repo.GetByFilename(ctx, filename)
	if err != nil {
		return err
	}
	if err := s.repo.AddTags(ctx, img.Hash, tags); err != nil {
		return err
	}
	s.cache.Invalidate(filename)
	return nil
}

func (s *imageService) RemoveTags(ctx context.Context, filename string, tags []string) error {
	img, err := s.repo.GetByFilename(ctx, filename)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveTags(ctx, img.Hash, tags); err != nil {
		return err
	}
	s.cache.Invalidate(filename)
	return nil
}

func (s *imageService) ListTags(ctx context.Context) ([]TagCount, error) {
	return s.repo.ListTags(ctx)
}

// buildResponse materializes the read-path response: catalog row plus tags.
// Width, height and size come from the catalog; they are computed once at
// ingest and immutable afterwards.
func (s *imageService) buildResponse(ctx context.Context, img *Image) *ImageResponse {
	tags, err := s.repo.GetTags(ctx, img.Hash)
	if err != nil {
		slog.Warn("failed to load tags for response", "hash", img.Hash, "error", err)
		tags = []string{}
	}

	format := strings.ToUpper(strings.TrimPrefix(filepath.Ext(img.Filename), "."))
	if format == "" {
		format = "UNKNOWN"
	}

	return &ImageResponse{
		URL:        s.baseURL + "/" + img.Filename,
		Filename:   img.Filename,
		Format:     format,
		Width:      img.Width,
		Height:     img.Height,
		SizeBytes:  img.SizeBytes,
		Hash:       img.Hash,
		Tags:       tags,
		CreatedAt:  img.CreatedAt.UTC().Format(time.RFC3339),
		ModifiedAt: img.ModifiedAt.UTC().Format(time.RFC3339),
	}
}

func (s *imageService) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to clean up image file", "path", path, "error", err)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}
