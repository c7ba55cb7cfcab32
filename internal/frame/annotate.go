package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Overlay colors and geometry used on streamed frames.
var (
	OutlineColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	LabelColor   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

const (
	outlineThickness = 2
	labelX           = 10
	labelY           = 30
)

// Annotate renders the frame with the ROI outlined and label drawn in the
// top-left corner. The frame itself is not modified.
func Annotate(f *Frame, roi image.Rectangle, label string) *image.RGBA {
	img := f.ToRGBA()
	DrawOutline(img, roi, OutlineColor, outlineThickness)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(LabelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(labelX, labelY),
	}
	d.DrawString(label)
	return img
}

// DrawOutline strokes rect with a line of the given thickness centered on
// the rectangle edge.
func DrawOutline(img draw.Image, rect image.Rectangle, c color.Color, thickness int) {
	if thickness <= 0 {
		return
	}
	outer := rect.Inset(-thickness / 2)
	inner := outer.Inset(thickness)
	src := image.NewUniform(c)
	for _, band := range []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y),
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y),
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y),
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y),
	} {
		draw.Draw(img, band.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
	}
}

// EncodeJPEG serialises img as a baseline JPEG.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
