package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"

	"github.com/banshee-data/cubeface/internal/frame"
	"github.com/banshee-data/cubeface/internal/timeutil"
)

// imageExts lists the file extensions the directory source decodes.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

// DirConfig configures a Dir source.
type DirConfig struct {
	// Loop restarts from the first file instead of returning io.EOF.
	Loop      bool
	TargetFPS float64 // 0 disables pacing
	Clock     timeutil.Clock
}

// Dir replays still images from a directory in file name order.
type Dir struct {
	path    string
	files   []string
	loop    bool
	limiter *rate.Limiter
	clock   timeutil.Clock

	mu     sync.Mutex
	next   int
	seq    uint64
	closed bool
}

// OpenDir lists the decodable images in path. It fails when the directory
// cannot be read or holds no images.
func OpenDir(path string, cfg DirConfig) (*Dir, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("capture: read frame directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("capture: no images in %s", path)
	}
	sort.Strings(files)

	d := &Dir{path: path, files: files, loop: cfg.Loop, clock: cfg.Clock}
	if d.clock == nil {
		d.clock = timeutil.RealClock{}
	}
	if cfg.TargetFPS > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.TargetFPS), 1)
	}
	logf("replaying %d images from %s (loop=%v)", len(files), path, cfg.Loop)
	return d, nil
}

// Len returns the number of images found.
func (d *Dir) Len() int { return len(d.files) }

// Next decodes the next image. A file that fails to decode is an
// acquisition error.
func (d *Dir) Next(ctx context.Context) (*frame.Frame, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	if d.next >= len(d.files) {
		if !d.loop {
			d.mu.Unlock()
			return nil, io.EOF
		}
		d.next = 0
	}
	path := d.files[d.next]
	d.next++
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	f, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	f.Seq = seq
	f.Timestamp = d.clock.Now()
	return f, nil
}

// Close stops the replay.
func (d *Dir) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func decodeFile(path string) (*frame.Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", filepath.Base(path), err)
	}
	defer fh.Close()

	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("capture: decode %s: %w", filepath.Base(path), err)
	}
	return frame.FromImage(img), nil
}
