package plot

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cognicore/termdoc/pkg/termdoc/lsa"
)

// Options controls the rendered chart.
type Options struct {
	Title    string
	Subtitle string
	MaxWords int  // plot only the first MaxWords words; 0 plots all
	Labels   bool // annotate each point with its word or document name
	Width    string
	Height   string
}

// DefaultOptions returns the options used by the command line.
func DefaultOptions() Options {
	return Options{
		Title:  "Term-document SVD",
		Labels: true,
		Width:  "1200px",
		Height: "900px",
	}
}

const precision = 4

func round(v float64) float64 {
	ratio := math.Pow(10, precision)
	return math.Round(v*ratio) / ratio
}

// NewScatter builds the chart: one series for words, one for documents.
func NewScatter(p *lsa.Projection, o Options) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: o.Title,
			Width:     o.Width,
			Height:    o.Height,
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: o.Subtitle}),
		charts.WithXAxisOpts(opts.XAxis{Name: "σ1", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "σ2", Type: "value"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Formatter: "{b}"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
	)

	words := p.Words
	if o.MaxWords > 0 && o.MaxWords < len(words) {
		words = words[:o.MaxWords]
	}

	label := opts.Label{Show: o.Labels, Position: "right", Formatter: "{b}"}
	sc.AddSeries("words", points(words), charts.WithLabelOpts(label))
	sc.AddSeries("documents", points(p.Docs), charts.WithLabelOpts(label))
	return sc
}

func points(pp []lsa.Point) []opts.ScatterData {
	data := make([]opts.ScatterData, 0, len(pp))
	for _, pt := range pp {
		data = append(data, opts.ScatterData{
			Name:  pt.Label,
			Value: []float64{round(pt.X()), round(pt.Y())},
		})
	}
	return data
}

// Scatter renders the projection as a standalone chart page.
func Scatter(w io.Writer, p *lsa.Projection, o Options) error {
	return NewScatter(p, o).Render(w)
}

// WriteFile renders the chart to path, creating parent directories.
func WriteFile(path string, p *lsa.Projection, o Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Scatter(f, p, o); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
