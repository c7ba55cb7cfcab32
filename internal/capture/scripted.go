package capture

import (
	"context"
	"io"
	"sync"

	"github.com/banshee-data/cubeface/internal/frame"
)

// Step is one scripted result of ScriptedSource.Next: a frame or an error.
type Step struct {
	Frame *frame.Frame
	Err   error
}

// ScriptedSource implements Source for testing. It replays its steps in
// order and then reports io.EOF.
type ScriptedSource struct {
	mu     sync.Mutex
	steps  []Step
	calls  int
	closed bool
}

// NewScriptedSource creates a source that returns the given steps.
func NewScriptedSource(steps ...Step) *ScriptedSource {
	return &ScriptedSource{steps: steps}
}

// Frames is shorthand for a script of frames only.
func Frames(frames ...*frame.Frame) *ScriptedSource {
	steps := make([]Step, len(frames))
	for i, f := range frames {
		steps[i] = Step{Frame: f}
	}
	return NewScriptedSource(steps...)
}

// Next returns the next step.
func (s *ScriptedSource) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.calls++
	if len(s.steps) == 0 {
		return nil, io.EOF
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	if st.Err != nil {
		return nil, st.Err
	}
	return st.Frame, nil
}

// Calls reports how many times Next was invoked on an open source.
func (s *ScriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Closed reports whether Close was called.
func (s *ScriptedSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close marks the source closed.
func (s *ScriptedSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
