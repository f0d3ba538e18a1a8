package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

var (
	frameBorder = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	frameFill   = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
)

// WriteFrame encodes a width x height PNG placeholder with a one pixel
// border. It is used as the default thumbnail of an image kind.
func WriteFrame(w io.Writer, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("frame size must be positive, got %dx%d", width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(frameBorder), image.Point{}, draw.Src)
	if width > 2 && height > 2 {
		inner := image.Rect(1, 1, width-1, height-1)
		draw.Draw(img, inner, image.NewUniform(frameFill), image.Point{}, draw.Src)
	}

	return png.Encode(w, img)
}
