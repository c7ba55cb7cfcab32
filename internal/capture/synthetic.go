package capture

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/banshee-data/cubeface/internal/colorclass"
	"github.com/banshee-data/cubeface/internal/facegrid"
	"github.com/banshee-data/cubeface/internal/frame"
	"github.com/banshee-data/cubeface/internal/timeutil"
)

// Sticker colors for the synthetic cube face, keyed by config letter.
var stickerColors = map[byte]colorclass.Color{
	'W': colorclass.NewRGB(245, 245, 245),
	'R': colorclass.NewRGB(200, 20, 20),
	'O': colorclass.NewRGB(255, 120, 0),
	'Y': colorclass.NewRGB(240, 220, 20),
	'G': colorclass.NewRGB(20, 180, 40),
	'B': colorclass.NewRGB(20, 40, 200),
	'K': colorclass.NewRGB(0, 0, 0),
}

// backgroundColor fills the frame outside the face.
var backgroundColor = colorclass.NewRGB(60, 60, 60)

// Face is a sticker layout, row-major.
type Face = facegrid.Grid

// ParseFace converts nine sticker letters (WROYGBK) into a Face.
func ParseFace(s string) (Face, error) {
	var f Face
	if len(s) != 9 {
		return f, fmt.Errorf("capture: face needs 9 stickers, got %d", len(s))
	}
	for i := 0; i < 9; i++ {
		c, ok := stickerColors[s[i]]
		if !ok {
			return f, fmt.Errorf("capture: unknown sticker %q at %d", s[i], i)
		}
		f[i/3][i%3] = c
	}
	return f, nil
}

// SyntheticConfig configures a Synthetic source.
type SyntheticConfig struct {
	Width, Height int
	// ROISize is the side of the painted face, centered in the frame.
	ROISize   int
	Face      Face
	TargetFPS float64 // 0 disables pacing
	Clock     timeutil.Clock
}

// Synthetic renders a static cube face on a grey background. It never ends
// on its own; frames are paced to TargetFPS.
type Synthetic struct {
	base    *frame.Frame
	limiter *rate.Limiter
	clock   timeutil.Clock
	seq     atomic.Uint64
	closed  atomic.Bool
}

// NewSynthetic pre-renders the face once; Next hands out copies.
func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	base := frame.New(cfg.Width, cfg.Height)
	base.Fill(base.Bounds(), backgroundColor)
	roi := frame.CenteredROI(cfg.Width, cfg.Height, cfg.ROISize)
	for row := 0; row < facegrid.Size; row++ {
		for col := 0; col < facegrid.Size; col++ {
			cell := facegrid.CellBounds(roi.Dx(), roi.Dy(), row, col).Add(roi.Min)
			base.Fill(cell, cfg.Face[row][col])
		}
	}

	s := &Synthetic{base: base, clock: cfg.Clock}
	if s.clock == nil {
		s.clock = timeutil.RealClock{}
	}
	if cfg.TargetFPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.TargetFPS), 1)
	}
	return s
}

// Next waits for the pacing limiter and returns a fresh copy of the face.
func (s *Synthetic) Next(ctx context.Context) (*frame.Frame, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := s.base.Clone()
	f.Seq = s.seq.Add(1)
	f.Timestamp = s.clock.Now()
	return f, nil
}

// Close stops the source.
func (s *Synthetic) Close() error {
	s.closed.Store(true)
	return nil
}
