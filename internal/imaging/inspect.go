// Package imaging detects image formats and produces derived images.
package imaging

import (
	"errors"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"
	"sync/atomic"

	"github.com/dukerupert/afisha"
	_ "golang.org/x/image/bmp"  // Decodable but not storable
	_ "golang.org/x/image/webp" // Decodable but not storable
)

// DefaultMaxPixels is the largest width*height decoded unless changed with
// SetMaxPixels.
const DefaultMaxPixels = 50_000_000

var errTooManyPixels = errors.New("image exceeds pixel limit")

var maxPixels atomic.Int64

func init() {
	maxPixels.Store(DefaultMaxPixels)
}

// SetMaxPixels sets the largest width*height Inspect and the transforms
// will decode. A non-positive n restores DefaultMaxPixels.
func SetMaxPixels(n int64) {
	if n <= 0 {
		n = DefaultMaxPixels
	}
	maxPixels.Store(n)
}

// MaxPixels returns the current pixel limit.
func MaxPixels() int64 {
	return maxPixels.Load()
}

// decodeBounded reads only the header first so oversized images are
// rejected before their pixel buffer is allocated.
func decodeBounded(r io.ReadSeeker) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, "", err
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels() {
		return nil, "", errTooManyPixels
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, "", err
	}
	return image.Decode(r)
}

// decoderFormats maps image.Decode format names to storable formats.
// Registered decoders missing from this map produce FormatUnknown.
var decoderFormats = map[string]afisha.ImageFormat{
	"jpeg": afisha.FormatJPEG,
	"gif":  afisha.FormatGIF,
	"png":  afisha.FormatPNG,
}

var formatExtensions = map[afisha.ImageFormat]string{
	afisha.FormatJPEG: ".jpg",
	afisha.FormatGIF:  ".gif",
	afisha.FormatPNG:  ".png",
}

// Inspect reports whether path is a storable image and its dimensions.
//
// The file is fully decoded so truncated or corrupt data is detected.
// Images larger than MaxPixels are not decoded. Any failure yields
// IsImage=false; Inspect never returns an error.
func Inspect(path string) afisha.ImageMetadata {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return afisha.ImageMetadata{}
	}

	f, err := os.Open(path)
	if err != nil {
		return afisha.ImageMetadata{}
	}
	defer f.Close()

	img, name, err := decodeBounded(f)
	if err != nil {
		return afisha.ImageMetadata{}
	}

	format, ok := decoderFormats[name]
	if !ok {
		return afisha.ImageMetadata{}
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return afisha.ImageMetadata{}
	}

	return afisha.ImageMetadata{
		IsImage: true,
		Format:  format,
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
	}
}

// FormatExtension returns the file extension (with leading dot) for a
// storable format. Callers are expected to check IsImage first; an unmapped
// format is a configuration error.
func FormatExtension(format afisha.ImageFormat) (string, error) {
	ext, ok := formatExtensions[format]
	if !ok {
		return "", afisha.Configuration("no file extension for image format %q", format)
	}
	return ext, nil
}
