package viewer

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// ImageFormat selects the preview encoding
type ImageFormat int

const (
	FormatWebP ImageFormat = iota
	FormatPNG
)

func (f ImageFormat) String() string {
	if f == FormatPNG {
		return "png"
	}
	return "webp"
}

// ParseImageFormat parses "webp" or "png"; empty means webp
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "webp":
		return FormatWebP, nil
	case "png":
		return FormatPNG, nil
	default:
		return FormatWebP, fmt.Errorf("unknown image format %q (expected webp or png)", s)
	}
}

// FormatFromPath picks the format from a file extension, falling back to
// the given default for unknown extensions.
func FormatFromPath(path string, fallback ImageFormat) ImageFormat {
	if f, err := ParseImageFormat(filepath.Ext(path)); err == nil && filepath.Ext(path) != "" {
		return f
	}
	return fallback
}

// Encode writes the image in the given format
func Encode(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("png encode: %w", err)
		}
	default:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("webp encode: %w", err)
		}
	}
	return nil
}

// Save writes the image to a file
func Save(path string, img image.Image, format ImageFormat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
