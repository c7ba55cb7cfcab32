package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/cubeface/internal/config"
	"github.com/banshee-data/cubeface/internal/frame"
)

// Session owns one open Source from Open until Close. The capture loop
// reads through it; HTTP handlers read its Stats.
type Session struct {
	ID       string
	Source   string
	OpenedAt time.Time

	src       Source
	frames    atomic.Uint64
	lastFrame atomic.Int64 // unix nanos
	closeOnce sync.Once
	closeErr  error
}

// SessionStats summarises a session for the debug pages.
type SessionStats struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	OpenedAt  time.Time `json:"opened_at"`
	Frames    uint64    `json:"frames"`
	LastFrame time.Time `json:"last_frame,omitempty"`
}

// Open builds the configured source and wraps it in a session.
func Open(ctx context.Context, cfg *config.CaptureConfig, opts Options) (*Session, error) {
	src, err := NewSource(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	s := NewSession(cfg.GetSource(), src)
	s.OpenedAt = opts.clock().Now()
	logf("session %s opened on %s", s.ID, s.Source)
	return s, nil
}

// NewSession wraps an already constructed source.
func NewSession(name string, src Source) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Source:   name,
		OpenedAt: time.Now(),
		src:      src,
	}
}

// Next reads one frame from the underlying source.
func (s *Session) Next(ctx context.Context) (*frame.Frame, error) {
	f, err := s.src.Next(ctx)
	if err != nil {
		return nil, err
	}
	s.frames.Add(1)
	s.lastFrame.Store(f.Timestamp.UnixNano())
	return f, nil
}

// Close releases the source exactly once and returns its error.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.src.Close()
		logf("session %s closed after %d frames", s.ID, s.frames.Load())
	})
	return s.closeErr
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() SessionStats {
	st := SessionStats{
		ID:       s.ID,
		Source:   s.Source,
		OpenedAt: s.OpenedAt,
		Frames:   s.frames.Load(),
	}
	if ns := s.lastFrame.Load(); ns != 0 {
		st.LastFrame = time.Unix(0, ns)
	}
	return st
}
