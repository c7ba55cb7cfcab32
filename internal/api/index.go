package api

import (
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/banshee-data/cubeface/internal/version"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// refreshInterval is how often the viewer page polls /current_colors.
const refreshInterval = 500

type indexData struct {
	Title       string
	FrameWidth  int
	FrameHeight int
	RefreshMs   int
	Version     string
	Cells       []int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := indexData{
		Title:       "Cube Face Reader",
		FrameWidth:  s.cfg.GetFrameWidth(),
		FrameHeight: s.cfg.GetFrameHeight(),
		RefreshMs:   refreshInterval,
		Version:     version.Version,
		Cells:       []int{0, 1, 2, 3, 4, 5, 6, 7, 8},
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Printf("failed to render index: %v", err)
	}
}
