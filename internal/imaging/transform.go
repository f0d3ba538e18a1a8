package imaging

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"sync"

	"github.com/dukerupert/afisha"
	"golang.org/x/image/draw"
)

// JPEGQuality is the encoder quality used for resized JPEG output.
const JPEGQuality = 85

// Transform writes a derived image for source into target.
type Transform interface {
	// Apply returns false when the source cannot be decoded or the result
	// cannot be encoded and written. It returns true only after target
	// has been fully written.
	Apply(source, target string) bool
}

// Constructor builds a Transform for a target box.
type Constructor func(width, height int) Transform

var (
	registry = map[afisha.TransformKind]Constructor{
		afisha.TransformFitWithinBox: func(width, height int) Transform {
			return FitWithinBox{Width: width, Height: height}
		},
	}
	registryMu sync.RWMutex
)

// Register adds or replaces the constructor for kind.
// This function is goroutine-safe.
func Register(kind afisha.TransformKind, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = ctor
}

// New resolves kind in the registry and builds a transform for the
// width x height box.
func New(kind afisha.TransformKind, width, height int) (Transform, error) {
	registryMu.RLock()
	ctor, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, afisha.Configuration("unsupported transform kind: %d", kind)
	}
	if width <= 0 || height <= 0 {
		return nil, afisha.Configuration("transform box must be positive, got %dx%d", width, height)
	}
	return ctor(width, height), nil
}

// FromSpec is New for a TransformSpec value.
func FromSpec(spec afisha.TransformSpec) (Transform, error) {
	return New(spec.Kind, spec.Width, spec.Height)
}

// FitWithinBox scales an image, preserving aspect ratio, so that it fits
// inside Width x Height and touches exactly one bounding edge.
type FitWithinBox struct {
	Width  int
	Height int
}

// Apply implements Transform.
func (t FitWithinBox) Apply(source, target string) bool {
	src, format, err := decodeFile(source)
	if err != nil {
		return false
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return false
	}

	w, h := FitDimensions(bounds.Dx(), bounds.Dy(), t.Width, t.Height)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	return writeFile(target, dst, format) == nil
}

// FitDimensions computes the output size for a sourceW x sourceH image
// fitted into a boxW x boxH box. If the source is relatively taller than
// the box the height is fixed, otherwise the width is. Both results are at
// least 1.
func FitDimensions(sourceW, sourceH, boxW, boxH int) (int, int) {
	sourceRatio := float64(sourceW) / float64(sourceH)
	boxRatio := float64(boxW) / float64(boxH)

	var w, h int
	if sourceRatio < boxRatio {
		h = boxH
		w = int(float64(boxH) * sourceRatio)
	} else {
		w = boxW
		h = int(float64(boxW) / sourceRatio)
	}
	return max(w, 1), max(h, 1)
}

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return decodeBounded(f)
}

func writeFile(path string, img image.Image, format string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case "png":
		return png.Encode(w, img)
	case "gif":
		return gif.Encode(w, img, nil)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
