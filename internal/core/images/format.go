package images

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	// Register the decoders for the allowed codec set. Full decoding doubles
	// as the integrity check: truncated payloads pass the magic-byte sniff
	// but fail here.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Format is a supported image container format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
	FormatBMP  Format = "bmp"
)

// Ext returns the file extension used for stored filenames.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// sniffFormat identifies the container format from magic bytes. The file
// extension and any declared content type are never consulted.
func sniffFormat(header []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(header, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG, true
	case bytes.HasPrefix(header, []byte("\xff\xd8\xff")):
		return FormatJPEG, true
	case bytes.HasPrefix(header, []byte("GIF87a")) || bytes.HasPrefix(header, []byte("GIF89a")):
		return FormatGIF, true
	case len(header) >= 12 && bytes.HasPrefix(header, []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WEBP")):
		return FormatWebP, true
	case bytes.HasPrefix(header, []byte("BM")):
		return FormatBMP, true
	}
	return "", false
}

// decodeReader sniffs the format from the stream head, then fully decodes to
// confirm integrity and extract pixel dimensions.
func decodeReader(r io.Reader) (Format, int, int, error) {
	br := bufio.NewReader(r)

	header, err := br.Peek(16)
	if err != nil && len(header) == 0 {
		return "", 0, 0, fmt.Errorf("%w: could not read image header", ErrUnsupportedFormat)
	}

	format, ok := sniffFormat(header)
	if !ok {
		return "", 0, 0, fmt.Errorf("%w: could not determine image format", ErrUnsupportedFormat)
	}

	img, _, err := image.Decode(br)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: decode failed: %v", ErrUnsupportedFormat, err)
	}

	bounds := img.Bounds()
	return format, bounds.Dx(), bounds.Dy(), nil
}

// ValidateFile validates the image at path and returns its format and pixel
// dimensions.
func ValidateFile(path string) (Format, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, 0, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()
	return decodeReader(f)
}

// ValidateBytes validates in-memory image data and returns its format and
// pixel dimensions.
func ValidateBytes(data []byte) (Format, int, int, error) {
	return decodeReader(bytes.NewReader(data))
}
