// Package capture provides the video sources the capture loop reads from
// and the session that owns an open source for the lifetime of the process.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/banshee-data/cubeface/internal/config"
	"github.com/banshee-data/cubeface/internal/frame"
	"github.com/banshee-data/cubeface/internal/monitoring"
	"github.com/banshee-data/cubeface/internal/timeutil"
)

// Source yields frames one at a time. Next blocks until a frame is
// available, returns io.EOF at the end of a finite stream and any other
// error when acquisition fails. Close releases the underlying device or
// connection and is safe to call more than once.
type Source interface {
	Next(ctx context.Context) (*frame.Frame, error)
	Close() error
}

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("capture: source closed")

// Options carries collaborators that tests replace.
type Options struct {
	Clock      timeutil.Clock
	HTTPClient *http.Client
}

func (o Options) clock() timeutil.Clock {
	if o.Clock == nil {
		return timeutil.RealClock{}
	}
	return o.Clock
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient == nil {
		return http.DefaultClient
	}
	return o.HTTPClient
}

// NewSource builds the source named by cfg.Source.
func NewSource(ctx context.Context, cfg *config.CaptureConfig, opts Options) (Source, error) {
	spec := cfg.GetSource()
	switch {
	case spec == config.SourceSynthetic:
		face, err := ParseFace(cfg.GetSyntheticFace())
		if err != nil {
			return nil, err
		}
		return NewSynthetic(SyntheticConfig{
			Width:     cfg.GetFrameWidth(),
			Height:    cfg.GetFrameHeight(),
			ROISize:   cfg.GetROISize(),
			Face:      face,
			TargetFPS: cfg.GetTargetFPS(),
			Clock:     opts.clock(),
		}), nil
	case strings.HasPrefix(spec, config.SourceDirPrefix):
		return OpenDir(strings.TrimPrefix(spec, config.SourceDirPrefix), DirConfig{
			Loop:      cfg.GetLoopReplay(),
			TargetFPS: cfg.GetTargetFPS(),
			Clock:     opts.clock(),
		})
	case strings.HasPrefix(spec, config.SourceMJPEGPrefix):
		return DialMJPEG(ctx, strings.TrimPrefix(spec, config.SourceMJPEGPrefix), opts.httpClient(), opts.clock())
	default:
		return nil, fmt.Errorf("capture: unsupported source %q", spec)
	}
}

var logf = monitoring.Prefixed("capture: ")
