package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/banshee-data/cubeface/internal/frame"
	"github.com/banshee-data/cubeface/internal/timeutil"
)

// maxPartSize bounds a single upstream JPEG part.
const maxPartSize = 8 << 20

// MJPEG reads frames from an upstream multipart/x-mixed-replace stream,
// such as another cubeface instance's /video_feed.
type MJPEG struct {
	url   string
	body  io.ReadCloser
	mr    *multipart.Reader
	clock timeutil.Clock

	mu     sync.Mutex
	seq    uint64
	closed bool
}

// DialMJPEG issues the GET request and validates the response headers.
func DialMJPEG(ctx context.Context, url string, client *http.Client, clock timeutil.Clock) (*MJPEG, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("capture: build mjpeg request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("capture: connect to %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("capture: %s returned status %d", url, resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("capture: parse content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		return nil, fmt.Errorf("capture: %s is not a multipart stream (%s)", url, mediaType)
	}

	if clock == nil {
		clock = timeutil.RealClock{}
	}
	logf("reading mjpeg stream %s (boundary=%s)", url, params["boundary"])
	return &MJPEG{
		url:   url,
		body:  resp.Body,
		mr:    multipart.NewReader(resp.Body, params["boundary"]),
		clock: clock,
	}, nil
}

// Next reads and decodes the next part. The upstream closing the stream
// cleanly is reported as io.EOF.
func (m *MJPEG) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.isClosed() {
		return nil, ErrClosed
	}

	part, err := m.mr.NextPart()
	if err != nil {
		if m.isClosed() {
			return nil, ErrClosed
		}
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("capture: read mjpeg part: %w", err)
	}
	defer part.Close()

	img, _, err := image.Decode(io.LimitReader(part, maxPartSize))
	if err != nil {
		return nil, fmt.Errorf("capture: decode mjpeg part: %w", err)
	}
	f := frame.FromImage(img)

	m.mu.Lock()
	m.seq++
	f.Seq = m.seq
	m.mu.Unlock()
	f.Timestamp = m.clock.Now()
	return f, nil
}

func (m *MJPEG) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close drops the upstream connection, unblocking a pending Next.
func (m *MJPEG) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()
	return m.body.Close()
}
