// Package frame holds captured video frames as packed BGR buffers and the
// region, conversion and annotation helpers the capture pipeline needs.
package frame

import (
	"fmt"
	"image"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/banshee-data/cubeface/internal/colorclass"
)

// BytesPerPixel is fixed: three 8-bit channels in B, G, R order.
const BytesPerPixel = 3

// Frame is a single captured video frame.
type Frame struct {
	// Seq is the monotonic sequence number assigned by the source.
	Seq uint64
	// Timestamp is when the frame was captured or decoded.
	Timestamp time.Time
	Width     int
	Height    int
	// Data holds Width*Height packed BGR pixels, row-major.
	Data []byte
}

// New allocates a black frame of the given size.
func New(width, height int) *Frame {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("frame: invalid size %dx%d", width, height))
	}
	return &Frame{
		Width:  width,
		Height: height,
		Data:   make([]byte, width*height*BytesPerPixel),
	}
}

// Bounds returns the frame rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Stride is the number of bytes per row.
func (f *Frame) Stride() int {
	return f.Width * BytesPerPixel
}

// At returns the pixel at (x, y).
func (f *Frame) At(x, y int) colorclass.Color {
	i := y*f.Stride() + x*BytesPerPixel
	return colorclass.NewBGR(f.Data[i], f.Data[i+1], f.Data[i+2])
}

// Set writes the pixel at (x, y).
func (f *Frame) Set(x, y int, c colorclass.Color) {
	i := y*f.Stride() + x*BytesPerPixel
	f.Data[i], f.Data[i+1], f.Data[i+2] = c.B, c.G, c.R
}

// Fill paints every pixel inside r (clipped to the frame) with c.
func (f *Frame) Fill(r image.Rectangle, c colorclass.Color) {
	r = r.Intersect(f.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.Set(x, y, c)
		}
	}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := *f
	out.Data = make([]byte, len(f.Data))
	copy(out.Data, f.Data)
	return &out
}

// FromImage converts any decoded image into a BGR frame.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds().Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	}
	return fromRGBA(rgba)
}

func fromRGBA(img *image.RGBA) *Frame {
	f := New(img.Rect.Dx(), img.Rect.Dy())
	for y := 0; y < f.Height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+f.Width*4]
		dst := f.Data[y*f.Stride() : (y+1)*f.Stride()]
		for x := 0; x < f.Width; x++ {
			dst[x*3] = src[x*4+2]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4]
		}
	}
	return f
}

// ToRGBA converts the frame into an opaque RGBA image.
func (f *Frame) ToRGBA() *image.RGBA {
	img := image.NewRGBA(f.Bounds())
	for y := 0; y < f.Height; y++ {
		src := f.Data[y*f.Stride() : (y+1)*f.Stride()]
		dst := img.Pix[y*img.Stride : y*img.Stride+f.Width*4]
		for x := 0; x < f.Width; x++ {
			dst[x*4] = src[x*3+2]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3]
			dst[x*4+3] = 0xff
		}
	}
	return img
}

// Resize scales the frame to width x height with bilinear filtering. The
// original frame is returned unchanged when it already has that size.
func (f *Frame) Resize(width, height int) *Frame {
	if f.Width == width && f.Height == height {
		return f
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), f.ToRGBA(), f.Bounds(), xdraw.Src, nil)
	out := fromRGBA(dst)
	out.Seq = f.Seq
	out.Timestamp = f.Timestamp
	return out
}
