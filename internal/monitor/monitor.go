// Package monitor serves the /debug/ pages for a running capture: charts of
// the smoothed grid and the smoothing window plus raw counters.
package monitor

import (
	"bytes"
	"fmt"
	"image/color"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"tailscale.com/tsweb"

	"github.com/banshee-data/cubeface/internal/capture"
	"github.com/banshee-data/cubeface/internal/colorclass"
	"github.com/banshee-data/cubeface/internal/httputil"
	"github.com/banshee-data/cubeface/internal/pipeline"
	"github.com/banshee-data/cubeface/internal/snapshot"
	"github.com/banshee-data/cubeface/internal/stream"
)

// Options lists the components the debug pages read from. Nil fields turn
// the matching page into a 503.
type Options struct {
	Publisher *snapshot.Publisher
	Loop      *pipeline.Loop
	Hub       *stream.Hub
	Session   *capture.Session
}

type Monitor struct {
	opts Options
}

func New(opts Options) *Monitor {
	return &Monitor{opts: opts}
}

// AttachDebugRoutes registers the monitor pages on the tsweb debug index.
func (m *Monitor) AttachDebugRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.HandleFunc("grid-chart", "Smoothed sticker grid (chart)", m.handleGridChart)
	debug.HandleFunc("window.png", "Smoothing window of one cell (PNG, ?cell=0-8)", m.handleWindowPlot)
	debug.HandleFunc("pipeline", "Pipeline counters (JSON)", m.handlePipeline)
	debug.HandleFunc("stream", "MJPEG subscribers (JSON)", m.handleStream)
	debug.HandleFunc("session", "Capture session (JSON)", m.handleSession)
}

var channelColors = []struct {
	name string
	css  string
	rgba color.RGBA
	get  func(colorclass.Color) uint8
}{
	{"R", "#d62728", color.RGBA{R: 214, G: 39, B: 40, A: 255}, func(c colorclass.Color) uint8 { return c.R }},
	{"G", "#2ca02c", color.RGBA{R: 44, G: 160, B: 44, A: 255}, func(c colorclass.Color) uint8 { return c.G }},
	{"B", "#1f77b4", color.RGBA{R: 31, G: 119, B: 180, A: 255}, func(c colorclass.Color) uint8 { return c.B }},
}

// handleGridChart renders the published grid as grouped bars, one group per
// cell and one bar per channel. Each cell label carries its category.
func (m *Monitor) handleGridChart(w http.ResponseWriter, r *http.Request) {
	if m.opts.Publisher == nil {
		httputil.ServiceUnavailable(w, "no publisher")
		return
	}
	snap := m.opts.Publisher.Read()

	labels := make([]string, 0, 9)
	series := make([][]opts.BarData, len(channelColors))
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			c := snap.Grid[row][col]
			labels = append(labels, fmt.Sprintf("%d,%d %s", row, col, colorclass.Classify(c)))
			for i, ch := range channelColors {
				series[i] = append(series[i], opts.BarData{
					Value: int(ch.get(c)),
					ItemStyle: &opts.ItemStyle{
						Color: ch.css,
					},
				})
			}
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sticker grid", Theme: "dark", Width: "1000px", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Smoothed sticker grid",
			Subtitle: fmt.Sprintf("seq=%d center=%s", snap.Seq, snap.Category),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 255, Name: "level"}),
	)
	bar.SetXAxis(labels)
	for i, ch := range channelColors {
		bar.AddSeries(ch.name, series[i])
	}

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleWindowPlot draws the buffered raw samples of one cell, oldest first.
func (m *Monitor) handleWindowPlot(w http.ResponseWriter, r *http.Request) {
	if m.opts.Loop == nil {
		httputil.ServiceUnavailable(w, "no pipeline")
		return
	}
	cell := 4
	if v := r.URL.Query().Get("cell"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 8 {
			httputil.BadRequest(w, "cell must be 0-8")
			return
		}
		cell = n
	}
	row, col := cell/3, cell%3

	win := m.opts.Loop.Window()
	samples := win.Samples[row][col]
	if len(samples) == 0 {
		httputil.NotFound(w, "no samples buffered yet")
		return
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Cell %d,%d window (%d of %d)", row, col, len(samples), win.Size)
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = "Level"
	p.Y.Min = 0
	p.Y.Max = 255

	for i, ch := range channelColors {
		pts := make(plotter.XYs, len(samples))
		for j, s := range samples {
			pts[j] = plotter.XY{X: float64(j), Y: float64(ch.get(s))}
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		line.Color = ch.rgba
		line.Width = vg.Points(1.5)
		points.GlyphStyle.Color = ch.rgba
		p.Add(line, points)
		p.Legend.Add(fmt.Sprintf("%s (sd %.1f)", ch.name, win.Spread[row][col][2-i]), line)
	}
	p.Legend.Top = true
	p.Legend.Left = false

	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (m *Monitor) handlePipeline(w http.ResponseWriter, r *http.Request) {
	if m.opts.Loop == nil {
		httputil.ServiceUnavailable(w, "no pipeline")
		return
	}
	httputil.WriteJSONOK(w, m.opts.Loop.Stats())
}

func (m *Monitor) handleStream(w http.ResponseWriter, r *http.Request) {
	if m.opts.Hub == nil {
		httputil.ServiceUnavailable(w, "no stream hub")
		return
	}
	httputil.WriteJSONOK(w, m.opts.Hub.Stats())
}

func (m *Monitor) handleSession(w http.ResponseWriter, r *http.Request) {
	if m.opts.Session == nil {
		httputil.ServiceUnavailable(w, "no capture session")
		return
	}
	httputil.WriteJSONOK(w, m.opts.Session.Stats())
}
