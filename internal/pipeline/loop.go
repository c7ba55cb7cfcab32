// Package pipeline runs the capture loop: acquire a frame, sample the
// centered 3x3 grid, smooth it, classify the center, publish the snapshot
// and stream the annotated frame.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/banshee-data/cubeface/internal/capture"
	"github.com/banshee-data/cubeface/internal/colorclass"
	"github.com/banshee-data/cubeface/internal/config"
	"github.com/banshee-data/cubeface/internal/facegrid"
	"github.com/banshee-data/cubeface/internal/frame"
	"github.com/banshee-data/cubeface/internal/metrics"
	"github.com/banshee-data/cubeface/internal/monitoring"
	"github.com/banshee-data/cubeface/internal/snapshot"
)

var (
	// ErrAcquisition wraps a source failure. It ends the loop.
	ErrAcquisition = errors.New("frame acquisition failed")
	// ErrEncoding wraps a JPEG encoder failure. The frame is not streamed
	// but its snapshot is still published.
	ErrEncoding = errors.New("frame encoding failed")
)

// FrameSink receives each encoded, annotated frame.
type FrameSink interface {
	Broadcast(jpeg []byte)
}

// EncodeFunc turns an annotated image into JPEG bytes.
type EncodeFunc func(img image.Image, quality int) ([]byte, error)

// Options configures a Loop.
type Options struct {
	Width, Height   int
	ROISize         int
	SmoothingWindow int
	JPEGQuality     int
	// Encode defaults to frame.EncodeJPEG.
	Encode EncodeFunc
}

// OptionsFromConfig maps a capture config onto loop options.
func OptionsFromConfig(cfg *config.CaptureConfig) Options {
	return Options{
		Width:           cfg.GetFrameWidth(),
		Height:          cfg.GetFrameHeight(),
		ROISize:         cfg.GetROISize(),
		SmoothingWindow: cfg.GetSmoothingWindow(),
		JPEGQuality:     cfg.GetJPEGQuality(),
	}
}

// Stats counts what the loop has done so far.
type Stats struct {
	Frames         uint64    `json:"frames"`
	Published      uint64    `json:"published"`
	Skipped        uint64    `json:"skipped"`
	EncodeFailures uint64    `json:"encode_failures"`
	LastFrame      time.Time `json:"last_frame,omitempty"`
	Running        bool      `json:"running"`
	Err            string    `json:"error,omitempty"`
}

// Window is a copy of the smoothing buffers taken after the latest frame.
type Window struct {
	Size    int                      `json:"size"`
	Samples [3][3][]colorclass.Color `json:"samples"`
	Spread  [3][3][3]float64         `json:"spread"`
}

// Loop is the single producer of snapshots and stream frames.
type Loop struct {
	src  capture.Source
	pub  *snapshot.Publisher
	sink FrameSink
	opts Options

	smoother *facegrid.Smoother
	roi      image.Rectangle

	mu     sync.Mutex
	stats  Stats
	window Window
}

// New builds a loop. sink may be nil when no stream is served.
func New(src capture.Source, pub *snapshot.Publisher, sink FrameSink, opts Options) *Loop {
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = config.DefaultFrameWidth, config.DefaultFrameHeight
	}
	if opts.ROISize == 0 {
		opts.ROISize = config.DefaultROISize
	}
	if opts.SmoothingWindow == 0 {
		opts.SmoothingWindow = facegrid.DefaultWindow
	}
	if opts.Encode == nil {
		opts.Encode = frame.EncodeJPEG
	}
	if opts.JPEGQuality == 0 {
		opts.JPEGQuality = config.DefaultJPEGQuality
	}
	return &Loop{
		src:      src,
		pub:      pub,
		sink:     sink,
		opts:     opts,
		smoother: facegrid.NewSmoother(opts.SmoothingWindow),
		roi:      frame.CenteredROI(opts.Width, opts.Height, opts.ROISize),
		window:   Window{Size: opts.SmoothingWindow},
	}
}

// ROI returns the region sampled in each frame.
func (l *Loop) ROI() image.Rectangle { return l.roi }

// Run processes frames until the source ends (nil), the source fails
// (ErrAcquisition) or ctx is cancelled (ctx.Err()). The last published
// snapshot is left in place in every case.
func (l *Loop) Run(ctx context.Context) (err error) {
	l.mu.Lock()
	l.stats.Running = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.stats.Running = false
		if err != nil {
			l.stats.Err = err.Error()
		}
		l.mu.Unlock()
	}()

	logf("sampling %v of %dx%d frames, window %d",
		l.roi, l.opts.Width, l.opts.Height, l.opts.SmoothingWindow)

	for {
		f, err := l.src.Next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				logf("end of stream")
				return nil
			}
			return fmt.Errorf("%w: %w", ErrAcquisition, err)
		}

		if err := l.Process(f); err != nil {
			switch {
			case errors.Is(err, facegrid.ErrRegionTooSmall):
				logf("skipping frame %d: %v", f.Seq, err)
			case errors.Is(err, ErrEncoding):
				logf("frame %d not streamed: %v", f.Seq, err)
			default:
				return err
			}
		}
	}
}

// Process runs one frame through the pipeline. It returns an error
// wrapping facegrid.ErrRegionTooSmall when the frame was skipped, or
// ErrEncoding when the snapshot was published but the frame could not be
// streamed. Process must only be called from the producer goroutine.
func (l *Loop) Process(f *frame.Frame) error {
	start := time.Now()
	defer func() { metrics.ProcessDuration.Observe(time.Since(start).Seconds()) }()

	l.mu.Lock()
	l.stats.Frames++
	l.stats.LastFrame = f.Timestamp
	l.mu.Unlock()

	f = f.Resize(l.opts.Width, l.opts.Height)

	raw, err := facegrid.Sample(f.Region(l.roi))
	if err != nil {
		l.mu.Lock()
		l.stats.Skipped++
		l.mu.Unlock()
		metrics.FramesSkipped.WithLabelValues(metrics.SkipRegionTooSmall).Inc()
		return fmt.Errorf("sample %v: %w", l.roi, err)
	}

	smoothed := l.smoother.Add(raw)
	cat := colorclass.Classify(smoothed.Center())
	l.pub.Publish(smoothed, cat, f.Timestamp)
	l.recordWindow()
	metrics.FramesProcessed.Inc()
	metrics.SetCenterCategory(cat.String(), categoryNames)

	if l.sink == nil {
		return nil
	}
	img := frame.Annotate(f, l.roi, "Center Color: "+cat.String())
	jpeg, err := l.opts.Encode(img, l.opts.JPEGQuality)
	if err != nil {
		l.mu.Lock()
		l.stats.EncodeFailures++
		l.mu.Unlock()
		metrics.EncodeFailures.Inc()
		return fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	l.sink.Broadcast(jpeg)
	return nil
}

var categoryNames = func() []string {
	var names []string
	for _, c := range colorclass.Categories() {
		names = append(names, c.String())
	}
	return names
}()

func (l *Loop) recordWindow() {
	w := Window{Size: l.smoother.Window()}
	for row := 0; row < facegrid.Size; row++ {
		for col := 0; col < facegrid.Size; col++ {
			w.Samples[row][col] = l.smoother.Samples(row, col)
			w.Spread[row][col] = l.smoother.Spread(row, col)
		}
	}
	l.mu.Lock()
	l.stats.Published++
	l.window = w
	l.mu.Unlock()
}

// Stats returns the loop counters. Safe to call from any goroutine.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Window returns the smoothing buffers as of the latest published frame.
// Safe to call from any goroutine.
func (l *Loop) Window() Window {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.window
}

var logf = monitoring.Prefixed("pipeline: ")
