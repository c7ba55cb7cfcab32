package facegrid

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/cubeface/internal/colorclass"
)

// DefaultWindow is the number of recent frames averaged per cell.
const DefaultWindow = 5

// Smoother averages each cell over the most recent Window frames.
type Smoother struct {
	window  int
	buffers [Size][Size][]colorclass.Color
}

// NewSmoother returns a Smoother with the given window. A window below one
// is a configuration bug and panics.
func NewSmoother(window int) *Smoother {
	if window < 1 {
		panic(fmt.Sprintf("facegrid: smoothing window must be >= 1, got %d", window))
	}
	s := &Smoother{window: window}
	for i := range s.buffers {
		for j := range s.buffers[i] {
			s.buffers[i][j] = make([]colorclass.Color, 0, window)
		}
	}
	return s
}

// Window returns the configured window size.
func (s *Smoother) Window() int {
	return s.window
}

// Len reports how many samples each cell currently holds.
func (s *Smoother) Len() int {
	return len(s.buffers[0][0])
}

// Add pushes a raw grid and returns the smoothed grid. Once a buffer is full
// the oldest sample is evicted first.
func (s *Smoother) Add(raw Grid) Grid {
	var out Grid
	for i := range s.buffers {
		for j := range s.buffers[i] {
			buf := s.buffers[i][j]
			if len(buf) == s.window {
				copy(buf, buf[1:])
				buf[len(buf)-1] = raw[i][j]
			} else {
				buf = append(buf, raw[i][j])
			}
			s.buffers[i][j] = buf
			out[i][j] = average(buf)
		}
	}
	return out
}

// Samples returns a copy of cell (row, col)'s buffer, oldest first.
func (s *Smoother) Samples(row, col int) []colorclass.Color {
	buf := s.buffers[row][col]
	out := make([]colorclass.Color, len(buf))
	copy(out, buf)
	return out
}

// Spread returns the population standard deviation of each channel (B, G,
// R) over cell (row, col)'s buffer. An empty buffer has zero spread.
func (s *Smoother) Spread(row, col int) [3]float64 {
	var spread [3]float64
	buf := s.buffers[row][col]
	if len(buf) == 0 {
		return spread
	}
	ch := make([][]float64, 3)
	for k := range ch {
		ch[k] = make([]float64, len(buf))
	}
	for n, c := range buf {
		ch[0][n] = float64(c.B)
		ch[1][n] = float64(c.G)
		ch[2][n] = float64(c.R)
	}
	for k := range ch {
		spread[k] = stat.PopStdDev(ch[k], nil)
	}
	return spread
}

// Reset drops every buffered sample.
func (s *Smoother) Reset() {
	for i := range s.buffers {
		for j := range s.buffers[i] {
			s.buffers[i][j] = s.buffers[i][j][:0]
		}
	}
}

func average(buf []colorclass.Color) colorclass.Color {
	var sb, sg, sr int
	for _, c := range buf {
		sb += int(c.B)
		sg += int(c.G)
		sr += int(c.R)
	}
	n := len(buf)
	return colorclass.NewBGR(uint8(sb/n), uint8(sg/n), uint8(sr/n))
}
