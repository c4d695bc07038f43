// Package report renders the analysis outputs a field geomorphologist reads:
// an HTML report directory with interactive charts, static PNG figures, and
// plain-text console summaries.
package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/geomorfo/morfometria/internal/morpho"
)

// Quality thresholds over the valid-point percentage of a gradient run.
const (
	qualityExcellent = 90.0
	qualityGood      = 75.0
)

// GradientReport bundles everything the gradient HTML report shows.
type GradientReport struct {
	Title   string
	Stats   morpho.GradientStats
	Results []morpho.GradientResult
	Diags   morpho.Diagnostics
}

// ElongationReport bundles everything the elongation HTML report shows.
type ElongationReport struct {
	Title   string
	Stats   morpho.ElongationStats
	Results []morpho.ElongationResult
	Diags   morpho.Diagnostics
}

// WriteGradientReport writes dir/index.html plus dir/charts/*.html. The index
// embeds the charts through iframes so each chart stays a self-contained
// go-echarts page.
func WriteGradientReport(dir string, rep GradientReport) error {
	chartsDir := filepath.Join(dir, "charts")
	if err := os.MkdirAll(chartsDir, 0o755); err != nil {
		return fmt.Errorf("report: creating %s: %w", chartsDir, err)
	}

	if err := renderChart(filepath.Join(chartsDir, "perfil.html"), profileChart(rep.Results)); err != nil {
		return err
	}
	if err := renderChart(filepath.Join(chartsDir, "slk.html"), slkChart(rep.Results)); err != nil {
		return err
	}

	data := gradientPage{
		Title:          pageTitle(rep.Title, "Analisis de gradiente SL-K (Hack, 1973)"),
		Stats:          rep.Stats,
		Quality:        qualityLabel(rep.Stats.ValidPercent),
		QualityClass:   qualityClass(rep.Stats.ValidPercent),
		Interpretation: interpretGradient(rep.Stats),
		Warnings:       warningMessages(rep.Diags),
	}
	return renderTemplate(filepath.Join(dir, "index.html"), gradientIndexTmpl, data)
}

// WriteElongationReport writes dir/index.html plus dir/charts/*.html.
func WriteElongationReport(dir string, rep ElongationReport) error {
	chartsDir := filepath.Join(dir, "charts")
	if err := os.MkdirAll(chartsDir, 0o755); err != nil {
		return fmt.Errorf("report: creating %s: %w", chartsDir, err)
	}

	if err := renderChart(filepath.Join(chartsDir, "clases.html"), classHistogramChart(rep.Stats)); err != nil {
		return err
	}
	if err := renderChart(filepath.Join(chartsDir, "dispersion.html"), elongationScatterChart(rep.Results)); err != nil {
		return err
	}

	data := elongationPage{
		Title:          pageTitle(rep.Title, "Analisis de elongacion (Schumm, 1956)"),
		Stats:          rep.Stats,
		Predominant:    rep.Stats.Predominant.String(),
		Interpretation: interpretElongation(rep.Stats),
		Warnings:       warningMessages(rep.Diags),
	}
	return renderTemplate(filepath.Join(dir, "index.html"), elongationIndexTmpl, data)
}

// chartRenderer is satisfied by every go-echarts chart type.
type chartRenderer interface {
	Render(w io.Writer) error
}

func renderChart(path string, c chartRenderer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()
	if err := c.Render(f); err != nil {
		return fmt.Errorf("report: rendering %s: %w", path, err)
	}
	return nil
}

// profileChart plots elevation against cumulative 3D distance.
func profileChart(results []morpho.GradientResult) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Perfil longitudinal", Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Perfil longitudinal", Subtitle: "elevacion vs distancia 3D acumulada"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distancia (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Elevacion (m)"}),
	)

	x := make([]string, len(results))
	z := make([]opts.LineData, len(results))
	for i, r := range results {
		x[i] = fmt.Sprintf("%.0f", r.CumulativeDistance3D)
		z[i] = opts.LineData{Value: r.Point.Z}
	}
	line.SetXAxis(x).AddSeries("Elevacion", z)
	return line
}

// slkChart plots the filtered and normalized SL-K series along the profile.
func slkChart(results []morpho.GradientResult) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Indice SL-K", Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Indice de gradiente SL-K", Subtitle: "valores filtrados y normalizados"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distancia (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "SL-K"}),
	)

	x := make([]string, len(results))
	slk := make([]opts.LineData, len(results))
	norm := make([]opts.LineData, len(results))
	for i, r := range results {
		x[i] = fmt.Sprintf("%.0f", r.CumulativeDistance3D)
		slk[i] = opts.LineData{Value: r.SLKFiltered}
		norm[i] = opts.LineData{Value: r.SLKNormalized}
	}
	line.SetXAxis(x).
		AddSeries("SL-K filtrado", slk).
		AddSeries("SL-K normalizado", norm)
	return line
}

// classHistogramChart plots the per-class basin counts.
func classHistogramChart(stats morpho.ElongationStats) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Clases de elongacion", Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Distribucion de clases de elongacion"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	labels := make([]string, len(stats.Histogram))
	counts := make([]opts.BarData, len(stats.Histogram))
	for i, b := range stats.Histogram {
		labels[i] = b.Class.String()
		counts[i] = opts.BarData{Value: b.Count}
	}
	bar.SetXAxis(labels).AddSeries("Cuencas", counts)
	return bar
}

// elongationScatterChart plots Re against basin area.
func elongationScatterChart(results []morpho.ElongationResult) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Re vs area", Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Relacion de elongacion vs area de cuenca"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Area", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Re"}),
	)

	data := make([]opts.ScatterData, len(results))
	for i, r := range results {
		data[i] = opts.ScatterData{Value: []interface{}{r.Area, r.ElongationRatio}}
	}
	scatter.AddSeries("cuencas", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

// qualityLabel grades a run by its valid-point percentage.
func qualityLabel(validPercent float64) string {
	switch {
	case validPercent >= qualityExcellent:
		return "EXCELENTE"
	case validPercent >= qualityGood:
		return "BUENA"
	default:
		return "REVISAR"
	}
}

func qualityClass(validPercent float64) string {
	switch {
	case validPercent >= qualityExcellent:
		return "excelente"
	case validPercent >= qualityGood:
		return "buena"
	default:
		return "revisar"
	}
}

// interpretGradient produces the narrative paragraphs of the gradient report.
func interpretGradient(g morpho.GradientStats) []string {
	var out []string
	switch {
	case g.MeanSlopePct < 2:
		out = append(out, fmt.Sprintf("Pendiente promedio de %.1f%%: perfil de baja energia, tipico de tramos maduros o de llanura.", g.MeanSlopePct))
	case g.MeanSlopePct < 8:
		out = append(out, fmt.Sprintf("Pendiente promedio de %.1f%%: regimen de energia moderada con capacidad de transporte intermitente.", g.MeanSlopePct))
	default:
		out = append(out, fmt.Sprintf("Pendiente promedio de %.1f%%: regimen de alta energia, perfil juvenil con incision activa.", g.MeanSlopePct))
	}
	if g.CoefVariation < 0.5 {
		out = append(out, "La variabilidad del indice SL-K es baja: el perfil es relativamente uniforme, sin rupturas de pendiente marcadas.")
	} else {
		out = append(out, "La variabilidad del indice SL-K es alta: existen rupturas de pendiente que pueden senalar controles litologicos o tectonicos (knickpoints).")
	}
	return out
}

// interpretElongation produces the narrative paragraphs of the elongation
// report.
func interpretElongation(s morpho.ElongationStats) []string {
	var out []string
	out = append(out, fmt.Sprintf("Clase predominante: %s (Re mediana %.3f sobre %d cuencas).",
		s.Predominant.String(), s.Ratio.Median, s.Count))
	if s.Ratio.Median < 0.45 {
		out = append(out, "Las cuencas tienden a formas elongadas, asociadas a control estructural y respuestas hidrologicas atenuadas.")
	} else if s.Ratio.Median <= 0.80 {
		out = append(out, "Las cuencas presentan formas intermedias, sin un control estructural dominante.")
	} else {
		out = append(out, "Las cuencas tienden a formas ensanchadas o circulares, con respuestas hidrologicas rapidas ante eventos de precipitacion.")
	}
	return out
}

func warningMessages(diags morpho.Diagnostics) []string {
	var msgs []string
	for _, d := range diags {
		if d.Severity >= morpho.SeverityWarning {
			msgs = append(msgs, d.Message)
		}
	}
	return msgs
}

func pageTitle(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}

func renderTemplate(path string, tmpl *template.Template, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()
	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("report: rendering %s: %w", path, err)
	}
	return nil
}

type gradientPage struct {
	Title          string
	Stats          morpho.GradientStats
	Quality        string
	QualityClass   string
	Interpretation []string
	Warnings       []string
}

type elongationPage struct {
	Title          string
	Stats          morpho.ElongationStats
	Predominant    string
	Interpretation []string
	Warnings       []string
}

const pageCSS = `
  body { font-family: -apple-system, sans-serif; margin: 2em; background: #fafafa; color: #222; }
  h1 { font-size: 1.4em; }
  .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(220px, 1fr)); gap: 12px; margin: 1em 0; }
  .stat { background: #fff; border: 1px solid #ddd; border-radius: 6px; padding: 10px 14px; }
  .stat .k { font-size: 0.8em; color: #666; }
  .stat .v { font-size: 1.2em; font-weight: 600; }
  .badge { display: inline-block; padding: 4px 12px; border-radius: 4px; color: #fff; font-weight: 600; }
  .badge.excelente { background: #2e7d32; }
  .badge.buena { background: #f9a825; }
  .badge.revisar { background: #c62828; }
  iframe { border: 1px solid #ddd; border-radius: 6px; width: 100%; height: 460px; background: #fff; }
  ul.warnings li { color: #b23; }
`

var gradientIndexTmpl = template.Must(template.New("gradient").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>` + pageCSS + `</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Calidad del analisis: <span class="badge {{.QualityClass}}">{{.Quality}}</span>
 ({{printf "%.1f" .Stats.ValidPercent}}% de puntos validos)</p>

<div class="grid">
  <div class="stat"><div class="k">Puntos analizados</div><div class="v">{{.Stats.NPoints}}</div></div>
  <div class="stat"><div class="k">Distancia total 3D (m)</div><div class="v">{{printf "%.1f" .Stats.TotalDistance3D}}</div></div>
  <div class="stat"><div class="k">Desnivel total (m)</div><div class="v">{{printf "%.1f" .Stats.ReliefTotal}}</div></div>
  <div class="stat"><div class="k">Pendiente promedio (%)</div><div class="v">{{printf "%.2f" .Stats.MeanSlopePct}}</div></div>
  <div class="stat"><div class="k">SL-K mediana</div><div class="v">{{printf "%.3f" .Stats.SLK.Median}}</div></div>
  <div class="stat"><div class="k">SL-K media</div><div class="v">{{printf "%.3f" .Stats.SLK.Mean}}</div></div>
  <div class="stat"><div class="k">Coef. de variacion</div><div class="v">{{printf "%.3f" .Stats.CoefVariation}}</div></div>
  <div class="stat"><div class="k">Puntos problematicos</div><div class="v">{{.Stats.InvalidCount}}</div></div>
</div>

<h2>Interpretacion</h2>
{{range .Interpretation}}<p>{{.}}</p>
{{end}}

<h2>Graficos</h2>
<iframe src="charts/perfil.html"></iframe>
<iframe src="charts/slk.html"></iframe>

{{if .Warnings}}
<h2>Advertencias</h2>
<ul class="warnings">
{{range .Warnings}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
<p><small>Metodologia: Hack (1973), indice de gradiente SL-K.</small></p>
</body>
</html>
`))

var elongationIndexTmpl = template.Must(template.New("elongation").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>` + pageCSS + `</style>
</head>
<body>
<h1>{{.Title}}</h1>

<div class="grid">
  <div class="stat"><div class="k">Cuencas analizadas</div><div class="v">{{.Stats.Count}}</div></div>
  <div class="stat"><div class="k">Clase predominante</div><div class="v">{{.Predominant}}</div></div>
  <div class="stat"><div class="k">Re mediana</div><div class="v">{{printf "%.3f" .Stats.Ratio.Median}}</div></div>
  <div class="stat"><div class="k">Re media</div><div class="v">{{printf "%.3f" .Stats.Ratio.Mean}}</div></div>
  <div class="stat"><div class="k">Re min / max</div><div class="v">{{printf "%.3f / %.3f" .Stats.Ratio.Min .Stats.Ratio.Max}}</div></div>
  <div class="stat"><div class="k">Area total</div><div class="v">{{printf "%.1f" .Stats.TotalArea}}</div></div>
</div>

<h2>Interpretacion</h2>
{{range .Interpretation}}<p>{{.}}</p>
{{end}}

<h2>Graficos</h2>
<iframe src="charts/clases.html"></iframe>
<iframe src="charts/dispersion.html"></iframe>

{{if .Warnings}}
<h2>Advertencias</h2>
<ul class="warnings">
{{range .Warnings}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
<p><small>Metodologia: Schumm (1956), relacion de elongacion.</small></p>
</body>
</html>
`))
