package frame

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/banshee-data/cubeface/internal/colorclass"
)

func TestAnnotate(t *testing.T) {
	f := New(200, 120)
	f.Fill(f.Bounds(), colorclass.NewRGB(0, 0, 0))
	// the label ends above the ROI so its interior stays untouched
	roi := image.Rect(120, 40, 180, 100)

	img := Annotate(f, roi, "Center Color: Red")

	if got := img.RGBAAt(roi.Min.X, roi.Min.Y+5); got != OutlineColor {
		t.Errorf("outline pixel = %v, want %v", got, OutlineColor)
	}
	if got := img.RGBAAt(150, 70); got != (color.RGBA{A: 255}) {
		t.Errorf("interior pixel = %v, want black", got)
	}
	if f.At(roi.Min.X, roi.Min.Y+5) != colorclass.NewRGB(0, 0, 0) {
		t.Error("Annotate modified the source frame")
	}

	lit := 0
	for y := 18; y < 32; y++ {
		for x := 10; x < 18; x++ {
			if img.RGBAAt(x, y) == LabelColor {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("no label pixels drawn near the text origin")
	}
}

func TestEncodeJPEG(t *testing.T) {
	f := New(16, 16)
	f.Fill(f.Bounds(), colorclass.NewRGB(255, 0, 0))

	data, err := EncodeJPEG(f.ToRGBA(), 80)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xff, 0xd8}) {
		t.Errorf("missing JPEG SOI marker")
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 16 {
		t.Errorf("decoded width = %d", img.Bounds().Dx())
	}
}
