package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultMaxRedirects bounds how many redirects a remote fetch follows.
const DefaultMaxRedirects = 5

// allowedContentTypes is the declared-type allow-list checked at the HEAD
// probe. binary/octet-stream is tolerated here because some servers never
// set a proper type; final acceptance always requires a successful format
// sniff regardless of what the server declared.
var allowedContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/x-ms-bmp",
	"binary/octet-stream",
}

// RemoteFetcher performs bounded, streamed downloads of candidate images.
// Every URL passes the SSRF guard before any request is made.
type RemoteFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewRemoteFetcher creates a fetcher with a hard wall-clock timeout and a
// byte ceiling. maxBytes <= 0 falls back to 10 MiB.
func NewRemoteFetcher(timeout time.Duration, maxBytes int64) *RemoteFetcher {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &RemoteFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= DefaultMaxRedirects {
					return fmt.Errorf("stopped after %d redirects", DefaultMaxRedirects)
				}
				return nil
			},
		},
		maxBytes: maxBytes,
	}
}

// Fetch validates rawURL, probes it with a HEAD request, then streams the
// body into a temporary file under destDir. The running byte count is
// checked per chunk so a missing or lying Content-Length cannot blow the
// ceiling. On success the temporary file path is returned; the caller owns
// deleting it on any later failure.
func (f *RemoteFetcher) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return "", err
	}
	return f.download(ctx, u.String(), destDir)
}

// download runs the HEAD probe and the streamed GET for an already guarded
// URL.
func (f *RemoteFetcher) download(ctx context.Context, url, destDir string) (string, error) {
	if err := f.probe(ctx, url); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", "Pixelbox/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(destDir, "fetch-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > f.maxBytes {
				tmp.Close()
				os.Remove(tmp.Name())
				return "", fmt.Errorf("%w: download exceeded %d bytes", ErrFileTooLarge, f.maxBytes)
			}
			if _, err := tmp.Write(buf[:n]); err != nil {
				tmp.Close()
				os.Remove(tmp.Name())
				return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return "", fmt.Errorf("%w: %v", ErrFetchFailed, readErr)
		}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	slog.Debug("remote fetch completed", "url", url, "bytes", written)
	return tmp.Name(), nil
}

// probe issues the HEAD request: status must be successful, a declared
// Content-Length must fit the ceiling, and a declared content type must be
// on the allow-list. A missing content type is tolerated.
func (f *RemoteFetcher) probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", "Pixelbox/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HEAD returned status %d", ErrFetchFailed, resp.StatusCode)
	}

	if resp.ContentLength > 0 && resp.ContentLength > f.maxBytes {
		return fmt.Errorf("%w: declared length %d exceeds %d bytes", ErrFileTooLarge, resp.ContentLength, f.maxBytes)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType == "" {
		slog.Warn("no content type header on HEAD probe", "url", url)
		return nil
	}
	for _, allowed := range allowedContentTypes {
		if strings.Contains(contentType, allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: content type %q not allowed", ErrUnsupportedFormat, contentType)
}

// AllowedContentType reports whether a declared content type is on the
// ingest allow-list. Empty declared types are tolerated.
func AllowedContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	contentType = strings.ToLower(contentType)
	for _, allowed := range allowedContentTypes {
		if strings.Contains(contentType, allowed) {
			return true
		}
	}
	return false
}
