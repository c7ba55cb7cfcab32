package monitor

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cubeface/internal/capture"
	"github.com/banshee-data/cubeface/internal/colorclass"
	"github.com/banshee-data/cubeface/internal/frame"
	"github.com/banshee-data/cubeface/internal/monitoring"
	"github.com/banshee-data/cubeface/internal/pipeline"
	"github.com/banshee-data/cubeface/internal/snapshot"
	"github.com/banshee-data/cubeface/internal/stream"
)

func newTestMonitor(t *testing.T, frames int) (*Monitor, *pipeline.Loop) {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	pub := snapshot.NewPublisher()
	loop := pipeline.New(capture.Frames(), pub, nil, pipeline.Options{
		Width: 640, Height: 480, ROISize: 200, SmoothingWindow: 5,
	})
	for i := 0; i < frames; i++ {
		f := frame.New(640, 480)
		f.Fill(f.Bounds(), colorclass.NewRGB(200, 20, uint8(20+i)))
		f.Seq = uint64(i + 1)
		f.Timestamp = time.Now()
		require.NoError(t, loop.Process(f))
	}
	hub := stream.NewHub()
	t.Cleanup(hub.Close)
	return New(Options{Publisher: pub, Loop: loop, Hub: hub}), loop
}

func get(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestGridChart(t *testing.T) {
	m, _ := newTestMonitor(t, 3)

	w := get(m.handleGridChart, "/debug/grid-chart")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, "Smoothed sticker grid")
	assert.Contains(t, body, "center=Red")
	assert.Contains(t, body, "1,1 Red")
}

func TestWindowPlot(t *testing.T) {
	m, loop := newTestMonitor(t, 3)
	require.Len(t, loop.Window().Samples[1][1], 3)

	w := get(m.handleWindowPlot, "/debug/window.png")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 100)

	w = get(m.handleWindowPlot, "/debug/window.png?cell=8")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWindowPlotErrors(t *testing.T) {
	empty, _ := newTestMonitor(t, 0)
	w := get(empty.handleWindowPlot, "/debug/window.png")
	assert.Equal(t, http.StatusNotFound, w.Code)

	m, _ := newTestMonitor(t, 1)
	for _, q := range []string{"9", "-1", "centre"} {
		w := get(m.handleWindowPlot, "/debug/window.png?cell="+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, "cell=%s", q)
	}

	none := New(Options{})
	assert.Equal(t, http.StatusServiceUnavailable, get(none.handleWindowPlot, "/debug/window.png").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(none.handleGridChart, "/debug/grid-chart").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(none.handlePipeline, "/debug/pipeline").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(none.handleStream, "/debug/stream").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(none.handleSession, "/debug/session").Code)
}

func TestCounterPages(t *testing.T) {
	m, _ := newTestMonitor(t, 2)

	w := get(m.handlePipeline, "/debug/pipeline")
	require.Equal(t, http.StatusOK, w.Code)
	var stats pipeline.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, uint64(2), stats.Frames)
	assert.Equal(t, uint64(2), stats.Published)

	w = get(m.handleStream, "/debug/stream")
	require.Equal(t, http.StatusOK, w.Code)
	var ss stream.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ss))
	assert.Equal(t, 0, ss.Clients)

	sess := capture.NewSession("scripted", capture.Frames())
	m.opts.Session = sess
	w = get(m.handleSession, "/debug/session")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), sess.ID)
}

func TestAttachDebugRoutes(t *testing.T) {
	m, _ := newTestMonitor(t, 1)
	mux := http.NewServeMux()
	m.AttachDebugRoutes(mux)

	for _, path := range []string{"/debug/grid-chart", "/debug/window.png", "/debug/pipeline", "/debug/stream", "/debug/session"} {
		t.Run(strings.TrimPrefix(path, "/debug/"), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.RemoteAddr = "127.0.0.1:40000"
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			// 403 when debug access is denied, otherwise the handler's own status
			assert.NotEqual(t, http.StatusNotFound, w.Code)
		})
	}
}
