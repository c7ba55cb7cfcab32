package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cubeface/internal/api"
	"github.com/banshee-data/cubeface/internal/config"
	"github.com/banshee-data/cubeface/internal/db"
	"github.com/banshee-data/cubeface/internal/monitoring"
)

func TestFlagDefaults(t *testing.T) {
	if *listen != ":8000" {
		t.Errorf("listen default = %q, want :8000", *listen)
	}
	if *dbPath != "cubeface.db" {
		t.Errorf("db default = %q, want cubeface.db", *dbPath)
	}
	if *devMode || *showVersion {
		t.Error("dev and version flags should default to false")
	}
	if *configPath != "" || *source != "" || *preset != "" {
		t.Error("config, source and preset should default to empty")
	}
}

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "cubeface.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestResolveConfig(t *testing.T) {
	database := openTestDB(t)
	roi := 120
	face := "RRRRWRRRR"
	require.NoError(t, database.SavePreset(&db.Preset{
		Name:   "bench",
		Config: &config.CaptureConfig{ROISize: &roi, SyntheticFace: &face},
	}))

	base := config.DefaultCaptureConfig()

	cfg, err := resolveConfig(base, nil, "", "", false)
	require.NoError(t, err)
	assert.Equal(t, config.SourceSynthetic, cfg.GetSource())

	cfg, err = resolveConfig(base, nil, "", "dir:/srv/frames", false)
	require.NoError(t, err)
	assert.Equal(t, "dir:/srv/frames", cfg.GetSource())
	assert.Equal(t, config.SourceSynthetic, base.GetSource(), "base config must not be modified")

	cfg, err = resolveConfig(base, nil, "", "dir:/srv/frames", true)
	require.NoError(t, err)
	assert.Equal(t, config.SourceSynthetic, cfg.GetSource(), "-dev wins over -source")

	cfg, err = resolveConfig(base, database, "bench", "", false)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.GetROISize())
	assert.Equal(t, face, cfg.GetSyntheticFace())
	assert.Equal(t, config.DefaultSmoothingWindow, cfg.GetSmoothingWindow())

	_, err = resolveConfig(base, database, "missing", "", false)
	assert.True(t, errors.Is(err, db.ErrPresetNotFound))

	_, err = resolveConfig(base, nil, "bench", "", false)
	assert.Error(t, err)

	_, err = resolveConfig(base, nil, "", "camera:0", false)
	assert.Error(t, err)
}

func TestLoadBaseConfig(t *testing.T) {
	defaults := filepath.Join("..", "..", config.DefaultConfigPath)

	cfg, err := loadBaseConfig("", defaults)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultCaptureConfig(), cfg, "shipped defaults file must match the compiled-in defaults")

	cfg, err = loadBaseConfig("", filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultCaptureConfig(), cfg)

	partial := filepath.Join(t.TempDir(), "capture.json")
	require.NoError(t, os.WriteFile(partial, []byte(`{"roi_size": 90}`), 0644))
	cfg, err = loadBaseConfig("", partial)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.GetROISize())
	require.NotNil(t, cfg.Source, "defaults file is layered over the compiled-in defaults")

	cfg, err = loadBaseConfig(partial, defaults)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.GetROISize(), "-config wins over the defaults file")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"frame_width": 100}`), 0644))
	_, err = loadBaseConfig("", bad)
	assert.Error(t, err)
}

type runHarness struct {
	base   string
	cancel context.CancelFunc
	done   chan error
}

func startRun(t *testing.T, cfg *config.CaptureConfig, database *db.DB) *runHarness {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h := &runHarness{
		base:   "http://" + ln.Addr().String(),
		cancel: cancel,
		done:   make(chan error, 1),
	}
	go func() { h.done <- run(ctx, ln, cfg, database, "") }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(5 * time.Second):
			t.Error("run did not return after cancel")
		}
	})
	return h
}

func (h *runHarness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(t, err)
		h.done <- nil
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRunSyntheticEndToEnd(t *testing.T) {
	database := openTestDB(t)
	fps := 100.0
	face := "RRRRRRRRR"
	cfg := config.DefaultCaptureConfig().Merge(&config.CaptureConfig{TargetFPS: &fps, SyntheticFace: &face})

	h := startRun(t, cfg, database)

	var colors api.ColorsResponse
	require.Eventually(t, func() bool {
		resp, err := http.Get(h.base + "/current_colors")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if json.NewDecoder(resp.Body).Decode(&colors) != nil {
			return false
		}
		return colors.CenterColorName == "Red"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "rgb(200,20,20)", colors.Stickers[0][0])

	resp, err := http.Get(h.base + "/video_feed")
	require.NoError(t, err)
	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))
	r := bufio.NewReader(resp.Body)
	header := make([]byte, len("--frame\r\nContent-Type: image/jpeg\r\n\r\n"))
	_, err = io.ReadFull(r, header)
	require.NoError(t, err)
	assert.Equal(t, "--frame\r\nContent-Type: image/jpeg\r\n\r\n", string(header))
	resp.Body.Close()

	h.stop(t)

	sessions, err := database.RecentSessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, config.SourceSynthetic, sessions[0].Source)
	assert.Equal(t, endShutdown, sessions[0].EndReason)
	assert.NotNil(t, sessions[0].ClosedAt)
	assert.Greater(t, sessions[0].Frames, uint64(0))
}

func TestRunDirectoryEndOfStream(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	for _, name := range []string{"a.png", "b.png"} {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}

	database := openTestDB(t)
	src := config.SourceDirPrefix + dir
	fps := 100.0
	cfg := config.DefaultCaptureConfig().Merge(&config.CaptureConfig{Source: &src, TargetFPS: &fps})

	h := startRun(t, cfg, database)

	var status api.StatusResponse
	require.Eventually(t, func() bool {
		resp, err := http.Get(h.base + "/api/status")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		status = api.StatusResponse{}
		if json.NewDecoder(resp.Body).Decode(&status) != nil || status.Pipeline == nil {
			return false
		}
		return status.Pipeline.Frames == 2 && !status.Pipeline.Running
	}, 5*time.Second, 20*time.Millisecond)
	assert.Empty(t, status.Pipeline.Err)

	// the server outlives the source and keeps the last snapshot
	var colors api.ColorsResponse
	getJSON(t, h.base+"/current_colors", &colors)
	assert.Equal(t, "Blue", colors.CenterColorName)
	assert.Equal(t, "rgb(0,0,255)", colors.Stickers[1][1])

	require.Eventually(t, func() bool {
		sessions, err := database.RecentSessions(1)
		return err == nil && len(sessions) == 1 && sessions[0].EndReason == endOfStream
	}, 5*time.Second, 20*time.Millisecond)

	h.stop(t)
}
