package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"camsize/session"
)

var (
	calculatedColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	realColor       = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// Metric selects which size the comparison plot shows.
type Metric int

const (
	Width Metric = iota
	Height
	Area
)

func (m Metric) String() string {
	switch m {
	case Width:
		return "width"
	case Height:
		return "height"
	case Area:
		return "area"
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

func metricValues(e session.Evaluation, m Metric) (calculated, measured float64) {
	switch m {
	case Height:
		return e.Report.CalculatedHeight, e.Report.RealHeight
	case Area:
		return e.Report.CalculatedArea, e.Report.RealArea
	default:
		return e.Report.CalculatedWidth, e.Report.RealWidth
	}
}

// Comparison builds a grouped bar chart of calculated vs. real values of
// one metric, one group per evaluated image.
func Comparison(res *session.Results, m Metric) (*plot.Plot, error) {
	if len(res.Evaluations) == 0 {
		return nil, fmt.Errorf("no evaluations to plot")
	}

	calculated := make(plotter.Values, len(res.Evaluations))
	measured := make(plotter.Values, len(res.Evaluations))
	names := make([]string, len(res.Evaluations))
	for i, e := range res.Evaluations {
		calculated[i], measured[i] = metricValues(e, m)
		names[i] = e.Name
	}

	unit := res.Unit
	if m == Area {
		unit += "²"
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Calculated vs real %s", m)
	p.Y.Label.Text = fmt.Sprintf("%s (%s)", m, unit)

	barWidth := vg.Points(20)

	calcBars, err := plotter.NewBarChart(calculated, barWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to create calculated bars: %w", err)
	}
	calcBars.Color = calculatedColor
	calcBars.LineStyle.Width = vg.Length(0)
	calcBars.Offset = -barWidth / 2

	realBars, err := plotter.NewBarChart(measured, barWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to create real bars: %w", err)
	}
	realBars.Color = realColor
	realBars.LineStyle.Width = vg.Length(0)
	realBars.Offset = barWidth / 2

	p.Add(calcBars, realBars)
	p.Legend.Add("calculated", calcBars)
	p.Legend.Add("real", realBars)
	p.Legend.Top = true
	p.NominalX(names...)

	return p, nil
}

// SaveComparison writes one PNG per metric into outputDir and returns the paths.
func SaveComparison(res *session.Results, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	var paths []string
	for _, m := range []Metric{Width, Height, Area} {
		p, err := Comparison(res, m)
		if err != nil {
			return nil, err
		}
		file := filepath.Join(outputDir, fmt.Sprintf("comparison_%s.png", m))
		if err := p.Save(8*vg.Inch, 5*vg.Inch, file); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", file, err)
		}
		paths = append(paths, file)
	}
	return paths, nil
}
