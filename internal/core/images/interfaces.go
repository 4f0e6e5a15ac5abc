package images

import "context"

// Repository defines the catalog's image persistence operations. Each write
// is one database transaction; the storage engine provides the only
// cross-request ordering guarantee the service relies on.
type Repository interface {
	// Insert adds a new image row. Returns ErrDuplicate if the content hash
	// is already present.
	Insert(ctx context.Context, img *Image) error

	// GetByFilename returns the image row for filename, or ErrNotFound.
	GetByFilename(ctx context.Context, filename string) (*Image, error)

	// SelectRandom picks one image uniformly at random among all rows
	// matching the filter, or ErrNotFound if none match.
	SelectRandom(ctx context.Context, spec FilterSpec) (*Image, error)

	// Delete removes the image row, its tag associations and any tags left
	// orphaned, all in one transaction, and returns the deleted row so the
	// caller can remove the backing file.
	Delete(ctx context.Context, filename string) (*Image, error)

	// AddTags associates normalized tag names with an image. The whole list
	// is applied as a single transaction; re-adding an existing tag is a
	// no-op.
	AddTags(ctx context.Context, hash string, tags []string) error

	// RemoveTags removes tag associations in a single transaction.
	RemoveTags(ctx context.Context, hash string, tags []string) error

	// GetTags returns the normalized tag names for one image, sorted.
	GetTags(ctx context.Context, hash string) ([]string, error)

	// ListTags returns every tag with the number of images carrying it.
	ListTags(ctx context.Context) ([]TagCount, error)
}

// Service is the ingestion and retrieval engine consumed by the HTTP layer.
type Service interface {
	// IngestLocal validates and stores an image read from a local path.
	// Returns the content hash.
	IngestLocal(ctx context.Context, path string, tags []string) (string, error)

	// IngestRemote fetches an image from a guarded URL, validates and stores
	// it. Returns the content hash.
	IngestRemote(ctx context.Context, rawURL string, tags []string) (string, error)

	// IngestBytes validates and stores in-memory image data (e.g. a
	// multipart upload). The declared content type is a precheck only; final
	// acceptance requires a successful format sniff.
	IngestBytes(ctx context.Context, data []byte, declaredType string, tags []string) (string, error)

	// IngestBatch runs all requests concurrently and independently. Results
	// are positional; a failed item never cancels or corrupts its siblings.
	IngestBatch(ctx context.Context, reqs []IngestRequest) []IngestOutcome

	// GetByFilename returns the materialized response for one image,
	// serving from the response cache when possible.
	GetByFilename(ctx context.Context, filename string) (*ImageResponse, error)

	// GetRandom picks one random image matching the filter.
	GetRandom(ctx context.Context, spec FilterSpec) (*ImageResponse, error)

	// GetRandomBatch picks count random images matching the filter. The
	// result always holds exactly count outcomes, one per requested slot.
	GetRandomBatch(ctx context.Context, count int, spec FilterSpec) []RandomOutcome

	// Delete removes an image row, its backing file, and prunes orphaned
	// tags. A file-removal failure after the transaction commits is logged,
	// not rolled back.
	Delete(ctx context.Context, filename string) error

	// AddTags and RemoveTags mutate an image's tag set by filename.
	AddTags(ctx context.Context, filename string, tags []string) error
	RemoveTags(ctx context.Context, filename string, tags []string) error

	// ListTags returns the tag vocabulary with usage counts.
	ListTags(ctx context.Context) ([]TagCount, error)
}
