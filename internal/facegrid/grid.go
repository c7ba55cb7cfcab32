package facegrid

import (
	"errors"

	"github.com/banshee-data/cubeface/internal/colorclass"
)

// Size is the number of rows and columns in a face grid.
const Size = 3

// ErrRegionTooSmall is returned when a region cannot supply at least one
// pixel to every cell.
var ErrRegionTooSmall = errors.New("region too small for a 3x3 grid")

// Grid is a 3x3 array of colors, row-major, [0][0] top-left.
type Grid [Size][Size]colorclass.Color

// Center returns the middle cell.
func (g Grid) Center() colorclass.Color {
	return g[1][1]
}

// CSS renders every cell in "rgb(R,G,B)" notation, rows then columns.
func (g Grid) CSS() [][]string {
	out := make([][]string, Size)
	for i := range g {
		out[i] = make([]string, Size)
		for j, c := range g[i] {
			out[i][j] = c.CSS()
		}
	}
	return out
}

// Uniform returns a grid with every cell set to c.
func Uniform(c colorclass.Color) Grid {
	var g Grid
	for i := range g {
		for j := range g[i] {
			g[i][j] = c
		}
	}
	return g
}
