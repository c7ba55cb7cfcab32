// Package api serves the viewer page, the MJPEG feed and the JSON query
// endpoints for the latest face snapshot.
package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/cubeface/internal/capture"
	"github.com/banshee-data/cubeface/internal/config"
	"github.com/banshee-data/cubeface/internal/db"
	"github.com/banshee-data/cubeface/internal/metrics"
	"github.com/banshee-data/cubeface/internal/pipeline"
	"github.com/banshee-data/cubeface/internal/snapshot"
	"github.com/banshee-data/cubeface/internal/stream"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Options wires the server to the running capture components. Only
// Publisher is required; the other fields switch on their endpoints.
type Options struct {
	Publisher *snapshot.Publisher
	Hub       *stream.Hub
	DB        *db.DB
	Config    *config.CaptureConfig
	Loop      *pipeline.Loop
	Session   *capture.Session
}

type Server struct {
	pub     *snapshot.Publisher
	hub     *stream.Hub
	db      *db.DB
	cfg     *config.CaptureConfig
	loop    *pipeline.Loop
	session *capture.Session
	started time.Time
}

func NewServer(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultCaptureConfig()
	}
	return &Server{
		pub:     opts.Publisher,
		hub:     opts.Hub,
		db:      opts.DB,
		cfg:     cfg,
		loop:    opts.Loop,
		session: opts.Session,
		started: time.Now(),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// Flush keeps /video_feed streaming through the middleware.
func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration.
// Polling endpoints are hit several times a second by the viewer page, so
// successful responses from them are not logged.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		if quietPaths[r.URL.Path] && lrw.statusCode < 400 {
			return
		}
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

var quietPaths = map[string]bool{
	"/current_colors": true,
	"/api/snapshot":   true,
	"/metrics":        true,
}

// ServeMux registers every public route.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/current_colors", s.currentColors)
	mux.HandleFunc("/api/snapshot", s.showSnapshot)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.HandleFunc("/api/presets/", s.handlePreset)
	mux.Handle("/metrics", metrics.Handler())
	if s.hub != nil {
		mux.Handle("/video_feed", s.hub)
	}
	return mux
}
