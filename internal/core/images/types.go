package images

import (
	"strings"
	"time"
)

// Image is the catalog record for one stored image. The content hash is its
// identity; width, height and size are computed once at ingest time and
// treated as immutable.
type Image struct {
	Hash       string
	Filename   string
	CreatedAt  time.Time
	ModifiedAt time.Time
	Width      int
	Height     int
	SizeBytes  int64
}

// ImageResponse is the fully materialized read-path response for one image,
// including its tags. This is what the response cache stores.
type ImageResponse struct {
	URL        string   `json:"url"`
	Filename   string   `json:"filename"`
	Format     string   `json:"format"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	SizeBytes  int64    `json:"size_bytes"`
	Hash       string   `json:"hash"`
	Tags       []string `json:"tags"`
	CreatedAt  string   `json:"created_at"`
	ModifiedAt string   `json:"modified_at"`
}

// NumberFilter constrains one numeric attribute either to an exact value or
// to an inclusive range. When Exact is set it wins over any Min/Max also
// present.
type NumberFilter struct {
	Exact *int64
	Min   *int64
	Max   *int64
}

// IsZero reports whether the filter places no constraint.
func (f NumberFilter) IsZero() bool {
	return f.Exact == nil && (f.Min == nil || f.Max == nil)
}

// FilterSpec is a request-scoped filter for random selection. A non-empty
// tag set uses AND semantics: a matching image must carry every tag.
type FilterSpec struct {
	Tags   []string
	Width  NumberFilter
	Height NumberFilter
	Size   NumberFilter
}

// NormalizedTags returns the filter's tags after normalization, dropping
// empties.
func (s FilterSpec) NormalizedTags() []string {
	tags := make([]string, 0, len(s.Tags))
	for _, t := range s.Tags {
		if n := NormalizeTag(t); n != "" {
			tags = append(tags, n)
		}
	}
	return tags
}

// NormalizeTag lower-cases a tag name and replaces spaces with underscores.
// Normalization is idempotent.
func NormalizeTag(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// TagCount is one tag name with the number of images carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// IngestSource selects where an ingest request reads its bytes from.
type IngestSource string

const (
	SourceURL   IngestSource = "url"
	SourceLocal IngestSource = "local"
)

// IngestRequest is one item of a batch ingest.
type IngestRequest struct {
	Path   string       `json:"path"`
	Source IngestSource `json:"type"`
	Tags   []string     `json:"tags"`
}

// IngestOutcome is the per-item result of a batch ingest. Failures are
// isolated: one item's error never affects its siblings.
type IngestOutcome struct {
	Path string
	Hash string
	Err  error
}

// RandomOutcome is the per-item result of a batch random selection, one
// outcome per requested slot.
type RandomOutcome struct {
	Image *ImageResponse
	Err   error
}
