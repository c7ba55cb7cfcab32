package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/cubeface/internal/api"
	"github.com/banshee-data/cubeface/internal/capture"
	"github.com/banshee-data/cubeface/internal/config"
	"github.com/banshee-data/cubeface/internal/db"
	"github.com/banshee-data/cubeface/internal/monitor"
	"github.com/banshee-data/cubeface/internal/pipeline"
	"github.com/banshee-data/cubeface/internal/snapshot"
	"github.com/banshee-data/cubeface/internal/stream"
)

const shutdownTimeout = 2 * time.Second

// Session end reasons stored in the capture session log.
const (
	endOfStream        = "end_of_stream"
	endShutdown        = "shutdown"
	endAcquisitionFail = "acquisition_failure"
)

// loadBaseConfig reads the -config file when given. Otherwise it reads the
// canonical defaults file if one is present next to the binary's working
// directory, and falls back to the compiled-in defaults.
func loadBaseConfig(path, defaultsPath string) (*config.CaptureConfig, error) {
	if path != "" {
		return config.LoadCaptureConfig(path)
	}
	if _, err := os.Stat(defaultsPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config.DefaultCaptureConfig(), nil
		}
		return nil, err
	}
	cfg, err := config.LoadCaptureConfig(defaultsPath)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded capture defaults from %s", defaultsPath)
	return config.DefaultCaptureConfig().Merge(cfg), nil
}

// resolveConfig layers a stored preset, then the -source and -dev flags,
// over base and validates the result.
func resolveConfig(base *config.CaptureConfig, database *db.DB, presetName, source string, dev bool) (*config.CaptureConfig, error) {
	cfg := base
	if presetName != "" {
		if database == nil {
			return nil, fmt.Errorf("preset %q requested without a database", presetName)
		}
		p, err := database.GetPreset(presetName)
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(p.Config)
	}
	if source != "" {
		cfg = cfg.Merge(&config.CaptureConfig{Source: &source})
	}
	if dev {
		synthetic := config.SourceSynthetic
		cfg = cfg.Merge(&config.CaptureConfig{Source: &synthetic})
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run serves HTTP on ln and runs the capture loop until ctx is cancelled or
// the server fails. The loop ending on its own does not stop the server:
// the last snapshot stays readable and the video feed is closed.
func run(ctx context.Context, ln net.Listener, cfg *config.CaptureConfig, database *db.DB, presetName string) error {
	sess, err := capture.Open(ctx, cfg, capture.Options{})
	if err != nil {
		return fmt.Errorf("failed to open capture source: %w", err)
	}
	defer sess.Close()

	if database != nil {
		if err := database.RecordSessionStart(sess.ID, sess.Source, presetName, sess.OpenedAt); err != nil {
			log.Printf("failed to log capture session: %v", err)
		}
	}

	pub := snapshot.NewPublisher()
	hub := stream.NewHub()
	loop := pipeline.New(sess, pub, hub, pipeline.OptionsFromConfig(cfg))

	mux := api.NewServer(api.Options{
		Publisher: pub,
		Hub:       hub,
		DB:        database,
		Config:    cfg,
		Loop:      loop,
		Session:   sess,
	}).ServeMux()
	monitor.New(monitor.Options{
		Publisher: pub,
		Loop:      loop,
		Hub:       hub,
		Session:   sess,
	}).AttachDebugRoutes(mux)
	if database != nil {
		database.AttachAdminRoutes(mux)
	}

	server := &http.Server{
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := loop.Run(gctx)
		reason := endOfStream
		switch {
		case errors.Is(err, pipeline.ErrAcquisition):
			reason = endAcquisitionFail
			log.Printf("capture loop stopped: %v", err)
		case err != nil:
			reason = endShutdown
		default:
			log.Printf("capture source ended")
		}
		hub.Close()

		if database != nil {
			st := loop.Stats()
			if err := database.RecordSessionEnd(sess.ID, time.Now(), st.Frames, st.Published, reason); err != nil {
				log.Printf("failed to log capture session end: %v", err)
			}
		}
		return nil
	})

	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down HTTP server...")
		// open /video_feed responses only end once the hub is closed
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
		return nil
	})

	return g.Wait()
}
