package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/banshee-data/cubeface/internal/capture"
	"github.com/banshee-data/cubeface/internal/colorclass"
	"github.com/banshee-data/cubeface/internal/config"
	"github.com/banshee-data/cubeface/internal/db"
	"github.com/banshee-data/cubeface/internal/facegrid"
	"github.com/banshee-data/cubeface/internal/httputil"
	"github.com/banshee-data/cubeface/internal/pipeline"
	"github.com/banshee-data/cubeface/internal/stream"
	"github.com/banshee-data/cubeface/internal/version"
)

// ColorsResponse is the /current_colors payload polled by the viewer page.
type ColorsResponse struct {
	CenterColorName string     `json:"center_color_name"`
	Stickers        [][]string `json:"stickers"`
}

func (s *Server) currentColors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	snap := s.pub.Read()
	httputil.WriteJSONOK(w, ColorsResponse{
		CenterColorName: snap.Category.String(),
		Stickers:        snap.Grid.CSS(),
	})
}

// SnapshotResponse is the detailed view of the latest snapshot.
type SnapshotResponse struct {
	Seq        uint64              `json:"seq"`
	CapturedAt *time.Time          `json:"captured_at,omitempty"`
	Category   colorclass.Category `json:"category"`
	Center     colorclass.Color    `json:"center"`
	CenterHSV  colorclass.HSV      `json:"center_hsv"`
	Grid       facegrid.Grid       `json:"grid"`
	Stickers   [][]string          `json:"stickers"`
}

func (s *Server) showSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	snap := s.pub.Read()
	resp := SnapshotResponse{
		Seq:       snap.Seq,
		Category:  snap.Category,
		Center:    snap.Grid.Center(),
		CenterHSV: colorclass.ToHSV(snap.Grid.Center()),
		Grid:      snap.Grid,
		Stickers:  snap.Grid.CSS(),
	}
	if !snap.CapturedAt.IsZero() {
		at := snap.CapturedAt.UTC()
		resp.CapturedAt = &at
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, s.cfg.Resolved())
}

// StatusResponse summarises the running service.
type StatusResponse struct {
	Version   string                `json:"version"`
	GitSHA    string                `json:"git_sha"`
	UptimeSec float64               `json:"uptime_sec"`
	Session   *capture.SessionStats `json:"session,omitempty"`
	Pipeline  *pipeline.Stats       `json:"pipeline,omitempty"`
	Stream    *stream.Stats         `json:"stream,omitempty"`
	Database  string                `json:"database,omitempty"`
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	resp := StatusResponse{
		Version:   version.Version,
		GitSHA:    version.GitSHA,
		UptimeSec: time.Since(s.started).Seconds(),
	}
	if s.session != nil {
		st := s.session.Stats()
		resp.Session = &st
	}
	if s.loop != nil {
		st := s.loop.Stats()
		resp.Pipeline = &st
	}
	if s.hub != nil {
		st := s.hub.Stats()
		resp.Stream = &st
	}
	if s.db != nil {
		resp.Database = s.db.Path()
	}
	httputil.WriteJSONOK(w, resp)
}

// presetRequest is the body accepted by POST /api/presets.
type presetRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Config      *config.CaptureConfig `json:"config"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		httputil.ServiceUnavailable(w, "preset storage is not configured")
		return
	}
	switch r.Method {
	case http.MethodGet:
		presets, err := s.db.ListPresets()
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, presets)
	case http.MethodPost:
		var req presetRequest
		if err := httputil.DecodeJSON(w, r, &req); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		p := &db.Preset{Name: req.Name, Description: req.Description, Config: req.Config}
		if err := s.db.SavePreset(p); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, p)
	default:
		httputil.MethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		httputil.ServiceUnavailable(w, "preset storage is not configured")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/presets/")
	if name == "" || strings.Contains(name, "/") {
		httputil.NotFound(w, "preset not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.db.GetPreset(name)
		if errors.Is(err, db.ErrPresetNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, p)
	case http.MethodDelete:
		err := s.db.DeletePreset(name)
		if errors.Is(err, db.ErrPresetNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}
