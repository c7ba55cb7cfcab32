package facegrid

import (
	"image"

	"github.com/banshee-data/cubeface/internal/colorclass"
	"github.com/banshee-data/cubeface/internal/frame"
)

// CellBounds returns the rectangle of cell (row, col) inside a region of the
// given size. Bands are floor(width/3) wide and floor(height/3) tall; the
// remainder along the right and bottom edges belongs to no cell.
func CellBounds(width, height, row, col int) image.Rectangle {
	cw, ch := width/Size, height/Size
	return image.Rect(col*cw, row*ch, (col+1)*cw, (row+1)*ch)
}

// Sample computes the per-channel mean color of each grid cell.
func Sample(region frame.Region) (Grid, error) {
	var g Grid
	if region.Width < Size || region.Height < Size {
		return g, ErrRegionTooSmall
	}

	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			cell := region.Sub(CellBounds(region.Width, region.Height, row, col))
			g[row][col] = meanColor(cell)
		}
	}
	return g, nil
}

func meanColor(r frame.Region) (c colorclass.Color) {
	var sb, sg, sr int
	for y := 0; y < r.Height; y++ {
		row := r.Pix[y*r.Stride : y*r.Stride+r.Width*frame.BytesPerPixel]
		for x := 0; x < len(row); x += frame.BytesPerPixel {
			sb += int(row[x])
			sg += int(row[x+1])
			sr += int(row[x+2])
		}
	}
	n := r.Width * r.Height
	c.B = uint8(sb / n)
	c.G = uint8(sg / n)
	c.R = uint8(sr / n)
	return c
}
