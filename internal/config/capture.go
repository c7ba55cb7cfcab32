package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is the path to the canonical capture defaults file.
const DefaultConfigPath = "config/capture.defaults.json"

// Default values used when a field is absent from the loaded JSON.
const (
	DefaultSource          = SourceSynthetic
	DefaultFrameWidth      = 640
	DefaultFrameHeight     = 480
	DefaultROISize         = 200
	DefaultSmoothingWindow = 5
	DefaultJPEGQuality     = 95
	DefaultTargetFPS       = 30.0
	DefaultSyntheticFace   = "WWWWWWWWW"
)

// CaptureConfig configures frame acquisition, the sampled region and the
// stream encoder. The same JSON shape is served by /api/config and stored
// in capture presets.
type CaptureConfig struct {
	// Source selects the frame source: "synthetic", "dir:<path>" or
	// "mjpeg:<url>".
	Source *string `json:"source,omitempty"`

	// Frame geometry
	FrameWidth  *int `json:"frame_width,omitempty"`
	FrameHeight *int `json:"frame_height,omitempty"`
	ROISize     *int `json:"roi_size,omitempty"`

	// Pipeline params
	SmoothingWindow *int `json:"smoothing_window,omitempty"`
	JPEGQuality     *int `json:"jpeg_quality,omitempty"`

	// Source params
	TargetFPS     *float64 `json:"target_fps,omitempty"`
	LoopReplay    *bool    `json:"loop_replay,omitempty"`
	SyntheticFace *string  `json:"synthetic_face,omitempty"` // 9 sticker letters, row-major
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyCaptureConfig returns a CaptureConfig with all fields set to nil.
func EmptyCaptureConfig() *CaptureConfig {
	return &CaptureConfig{}
}

// DefaultCaptureConfig returns a config with every field populated with its
// default value.
func DefaultCaptureConfig() *CaptureConfig {
	return &CaptureConfig{
		Source:          ptrString(DefaultSource),
		FrameWidth:      ptrInt(DefaultFrameWidth),
		FrameHeight:     ptrInt(DefaultFrameHeight),
		ROISize:         ptrInt(DefaultROISize),
		SmoothingWindow: ptrInt(DefaultSmoothingWindow),
		JPEGQuality:     ptrInt(DefaultJPEGQuality),
		TargetFPS:       ptrFloat64(DefaultTargetFPS),
		LoopReplay:      ptrBool(false),
		SyntheticFace:   ptrString(DefaultSyntheticFace),
	}
}

// LoadCaptureConfig loads a CaptureConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file fall back to their defaults through the Get* accessors.
func LoadCaptureConfig(path string) (*CaptureConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseCaptureConfig(data)
}

// MustLoadDefaultConfig loads config/capture.defaults.json, searching upward
// from the working directory so tests in nested packages can find it.
// Panics if the file cannot be located or parsed.
func MustLoadDefaultConfig() *CaptureConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from cmd/cubeface/ and deeper
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadCaptureConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// ParseCaptureConfig decodes and validates a JSON document.
func ParseCaptureConfig(data []byte) (*CaptureConfig, error) {
	cfg := EmptyCaptureConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *CaptureConfig) Validate() error {
	if c.Source != nil {
		if err := validateSource(*c.Source); err != nil {
			return err
		}
	}

	if c.FrameWidth != nil && *c.FrameWidth <= 0 {
		return fmt.Errorf("frame_width must be positive, got %d", *c.FrameWidth)
	}
	if c.FrameHeight != nil && *c.FrameHeight <= 0 {
		return fmt.Errorf("frame_height must be positive, got %d", *c.FrameHeight)
	}

	if c.ROISize != nil && *c.ROISize < 3 {
		return fmt.Errorf("roi_size must be at least 3, got %d", *c.ROISize)
	}
	if c.ROISize != nil || c.FrameWidth != nil || c.FrameHeight != nil {
		roi, w, h := c.GetROISize(), c.GetFrameWidth(), c.GetFrameHeight()
		if roi > w || roi > h {
			return fmt.Errorf("roi_size %d does not fit a %dx%d frame", roi, w, h)
		}
	}

	if c.SmoothingWindow != nil && *c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing_window must be at least 1, got %d", *c.SmoothingWindow)
	}

	if c.JPEGQuality != nil && (*c.JPEGQuality < 1 || *c.JPEGQuality > 100) {
		return fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", *c.JPEGQuality)
	}

	if c.TargetFPS != nil && (*c.TargetFPS <= 0 || *c.TargetFPS > 120) {
		return fmt.Errorf("target_fps must be in (0, 120], got %f", *c.TargetFPS)
	}

	if c.SyntheticFace != nil {
		face := *c.SyntheticFace
		if len(face) != 9 {
			return fmt.Errorf("synthetic_face must have 9 stickers, got %d", len(face))
		}
		if i := strings.IndexFunc(face, func(r rune) bool { return !strings.ContainsRune(StickerLetters, r) }); i >= 0 {
			return fmt.Errorf("synthetic_face has unknown sticker %q at %d (want one of %s)", face[i], i, StickerLetters)
		}
	}

	return nil
}

// Source kinds. Directory and MJPEG sources carry their target after the
// prefix.
const (
	SourceSynthetic   = "synthetic"
	SourceDirPrefix   = "dir:"
	SourceMJPEGPrefix = "mjpeg:"
)

// StickerLetters are the sticker codes accepted in synthetic_face.
const StickerLetters = "WROYGBK"

func validateSource(src string) error {
	switch {
	case src == SourceSynthetic:
		return nil
	case strings.HasPrefix(src, SourceDirPrefix):
		if strings.TrimPrefix(src, SourceDirPrefix) == "" {
			return fmt.Errorf("source %q is missing a directory", src)
		}
		return nil
	case strings.HasPrefix(src, SourceMJPEGPrefix):
		u := strings.TrimPrefix(src, SourceMJPEGPrefix)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("source %q must carry an http(s) URL", src)
		}
		return nil
	default:
		return fmt.Errorf("unsupported source %q: expected synthetic, dir:<path> or mjpeg:<url>", src)
	}
}

// Merge returns a copy of c with every non-nil field of override applied.
func (c *CaptureConfig) Merge(override *CaptureConfig) *CaptureConfig {
	out := *c
	if override == nil {
		return &out
	}
	if override.Source != nil {
		out.Source = override.Source
	}
	if override.FrameWidth != nil {
		out.FrameWidth = override.FrameWidth
	}
	if override.FrameHeight != nil {
		out.FrameHeight = override.FrameHeight
	}
	if override.ROISize != nil {
		out.ROISize = override.ROISize
	}
	if override.SmoothingWindow != nil {
		out.SmoothingWindow = override.SmoothingWindow
	}
	if override.JPEGQuality != nil {
		out.JPEGQuality = override.JPEGQuality
	}
	if override.TargetFPS != nil {
		out.TargetFPS = override.TargetFPS
	}
	if override.LoopReplay != nil {
		out.LoopReplay = override.LoopReplay
	}
	if override.SyntheticFace != nil {
		out.SyntheticFace = override.SyntheticFace
	}
	return &out
}

// Resolved returns a copy with every field populated, defaults filling gaps.
func (c *CaptureConfig) Resolved() *CaptureConfig {
	return DefaultCaptureConfig().Merge(c)
}

// GetSource returns the source value or the default.
func (c *CaptureConfig) GetSource() string {
	if c.Source == nil || *c.Source == "" {
		return DefaultSource
	}
	return *c.Source
}

// GetFrameWidth returns the frame_width value or the default.
func (c *CaptureConfig) GetFrameWidth() int {
	if c.FrameWidth == nil {
		return DefaultFrameWidth
	}
	return *c.FrameWidth
}

// GetFrameHeight returns the frame_height value or the default.
func (c *CaptureConfig) GetFrameHeight() int {
	if c.FrameHeight == nil {
		return DefaultFrameHeight
	}
	return *c.FrameHeight
}

// GetROISize returns the roi_size value or the default.
func (c *CaptureConfig) GetROISize() int {
	if c.ROISize == nil {
		return DefaultROISize
	}
	return *c.ROISize
}

// GetSmoothingWindow returns the smoothing_window value or the default.
func (c *CaptureConfig) GetSmoothingWindow() int {
	if c.SmoothingWindow == nil {
		return DefaultSmoothingWindow
	}
	return *c.SmoothingWindow
}

// GetJPEGQuality returns the jpeg_quality value or the default.
func (c *CaptureConfig) GetJPEGQuality() int {
	if c.JPEGQuality == nil {
		return DefaultJPEGQuality
	}
	return *c.JPEGQuality
}

// GetTargetFPS returns the target_fps value or the default.
func (c *CaptureConfig) GetTargetFPS() float64 {
	if c.TargetFPS == nil {
		return DefaultTargetFPS
	}
	return *c.TargetFPS
}

// GetLoopReplay returns the loop_replay value or the default.
func (c *CaptureConfig) GetLoopReplay() bool {
	if c.LoopReplay == nil {
		return false
	}
	return *c.LoopReplay
}

// GetSyntheticFace returns the synthetic_face value or the default.
func (c *CaptureConfig) GetSyntheticFace() string {
	if c.SyntheticFace == nil {
		return DefaultSyntheticFace
	}
	return *c.SyntheticFace
}
