package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/geomorfo/morfometria/internal/morpho"
)

// SaveProfilePNG writes a static longitudinal-profile figure: elevation and
// filtered SL-K against cumulative 3D distance, SL-K on its own scale is not
// attempted, the figure is a field-notebook companion to the HTML charts.
func SaveProfilePNG(path string, results []morpho.GradientResult) error {
	p := plot.New()
	p.Title.Text = "Perfil longitudinal"
	p.X.Label.Text = "Distancia 3D acumulada (m)"
	p.Y.Label.Text = "Elevacion (m)"

	pts := make(plotter.XYs, len(results))
	for i, r := range results {
		pts[i].X = r.CumulativeDistance3D
		pts[i].Y = r.Point.Z
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("report: building profile line: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("elevacion", line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("report: saving %s: %w", path, err)
	}
	return nil
}

// SaveSLKPNG writes a static figure of the filtered SL-K series along the
// profile.
func SaveSLKPNG(path string, results []morpho.GradientResult) error {
	p := plot.New()
	p.Title.Text = "Indice de gradiente SL-K"
	p.X.Label.Text = "Distancia 3D acumulada (m)"
	p.Y.Label.Text = "SL-K"

	pts := make(plotter.XYs, len(results))
	for i, r := range results {
		pts[i].X = r.CumulativeDistance3D
		pts[i].Y = r.SLKFiltered
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("report: building SL-K line: %w", err)
	}
	line.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("report: saving %s: %w", path, err)
	}
	return nil
}

// SaveClassHistogramPNG writes a static bar chart of the elongation class
// distribution.
func SaveClassHistogramPNG(path string, stats morpho.ElongationStats) error {
	p := plot.New()
	p.Title.Text = "Distribucion de clases de elongacion"
	p.Y.Label.Text = "Cuencas"

	values := make(plotter.Values, len(stats.Histogram))
	labels := make([]string, len(stats.Histogram))
	for i, b := range stats.Histogram {
		values[i] = float64(b.Count)
		labels[i] = b.Class.String()
	}

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return fmt.Errorf("report: building histogram: %w", err)
	}
	bars.Color = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = 0.6
	p.X.Tick.Label.XAlign = -0.9

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("report: saving %s: %w", path, err)
	}
	return nil
}
