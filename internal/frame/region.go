package frame

import (
	"fmt"
	"image"

	"github.com/banshee-data/cubeface/internal/colorclass"
)

// Region is a read-only rectangular view into packed BGR pixels.
type Region struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// NewRegion wraps a packed BGR buffer. It panics when the buffer cannot hold
// width x height pixels at the given stride, since that is a caller bug.
func NewRegion(width, height, stride int, pix []byte) Region {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("frame: negative region size %dx%d", width, height))
	}
	if width > 0 && height > 0 {
		if stride < width*BytesPerPixel {
			panic(fmt.Sprintf("frame: stride %d too small for %d BGR pixels", stride, width))
		}
		if need := (height-1)*stride + width*BytesPerPixel; len(pix) < need {
			panic(fmt.Sprintf("frame: buffer holds %d bytes, region needs %d", len(pix), need))
		}
	}
	return Region{Width: width, Height: height, Stride: stride, Pix: pix}
}

// At returns the pixel at (x, y) relative to the region origin.
func (r Region) At(x, y int) colorclass.Color {
	i := y*r.Stride + x*BytesPerPixel
	return colorclass.NewBGR(r.Pix[i], r.Pix[i+1], r.Pix[i+2])
}

// Sub returns the view of rect (in region coordinates) clipped to the region.
func (r Region) Sub(rect image.Rectangle) Region {
	rect = rect.Intersect(image.Rect(0, 0, r.Width, r.Height))
	if rect.Empty() {
		return Region{Stride: r.Stride}
	}
	off := rect.Min.Y*r.Stride + rect.Min.X*BytesPerPixel
	return Region{
		Width:  rect.Dx(),
		Height: rect.Dy(),
		Stride: r.Stride,
		Pix:    r.Pix[off:],
	}
}

// Region returns the view of rect clipped to the frame bounds. The view
// shares pixel memory with the frame.
func (f *Frame) Region(rect image.Rectangle) Region {
	return NewRegion(f.Width, f.Height, f.Stride(), f.Data).Sub(rect)
}

// CenteredROI returns the size x size square centered in a width x height
// frame. The result may extend past the frame when size exceeds it.
func CenteredROI(width, height, size int) image.Rectangle {
	cx, cy := width/2, height/2
	half := size / 2
	return image.Rect(cx-half, cy-half, cx+half, cy+half)
}
