package images

import "errors"

var (
	// ErrInvalidURL is returned when an ingest URL is malformed or rejected
	// by the SSRF guard.
	ErrInvalidURL = errors.New("invalid or disallowed URL")

	// ErrUnsupportedFormat is returned when image bytes fail the format
	// sniff, fail to decode, or carry a disallowed content type.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrFileTooLarge is returned when a file exceeds the size ceiling,
	// either at the probe stage or mid-stream.
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// ErrDuplicate is returned when byte-identical content is already in the
	// catalog (same content hash).
	ErrDuplicate = errors.New("duplicate image")

	// ErrNotFound is returned when no image or local path matches.
	ErrNotFound = errors.New("image not found")

	// ErrFetchFailed is returned when a remote fetch fails for any reason
	// other than the size ceiling or the URL guard.
	ErrFetchFailed = errors.New("failed to fetch remote image")

	// ErrStorage wraps underlying persistence failures.
	ErrStorage = errors.New("storage failure")
)
