package report

import (
	"fmt"
	"strings"

	"github.com/geomorfo/morfometria/internal/morpho"
)

const bannerWidth = 52

// FormatGradientSummary renders the console summary of a gradient run.
func FormatGradientSummary(stats morpho.GradientStats) string {
	var b strings.Builder
	banner(&b, "ANALISIS DE GRADIENTE SL-K (HACK, 1973)")
	row(&b, "Puntos analizados", "%d", stats.NPoints)
	row(&b, "Segmentos", "%d", stats.NSegments)
	row(&b, "Distancia total 3D", "%.2f m", stats.TotalDistance3D)
	row(&b, "Desnivel total", "%.2f m", stats.ReliefTotal)
	row(&b, "Pendiente promedio", "%.2f %%", stats.MeanSlopePct)
	row(&b, "SL-K mediana", "%.4f", stats.SLK.Median)
	row(&b, "SL-K media", "%.4f", stats.SLK.Mean)
	row(&b, "SL-K desv. estandar", "%.4f", stats.SLK.Std)
	row(&b, "Coef. de variacion", "%.4f", stats.CoefVariation)
	row(&b, "Puntos validos", "%d (%.1f%%)", stats.ValidCount, stats.ValidPercent)
	row(&b, "Puntos problematicos", "%d", stats.InvalidCount)
	row(&b, "Calidad", "%s", qualityLabel(stats.ValidPercent))
	b.WriteString(strings.Repeat("=", bannerWidth) + "\n")
	return b.String()
}

// FormatElongationSummary renders the console summary of an elongation run.
func FormatElongationSummary(stats morpho.ElongationStats) string {
	var b strings.Builder
	banner(&b, "ANALISIS DE ELONGACION (SCHUMM, 1956)")
	row(&b, "Cuencas analizadas", "%d", stats.Count)
	row(&b, "Clase predominante", "%s", stats.Predominant.String())
	row(&b, "Re mediana", "%.4f", stats.Ratio.Median)
	row(&b, "Re media", "%.4f", stats.Ratio.Mean)
	row(&b, "Re minimo", "%.4f", stats.Ratio.Min)
	row(&b, "Re maximo", "%.4f", stats.Ratio.Max)
	row(&b, "Area total", "%.2f", stats.TotalArea)
	row(&b, "Distancia max-min media", "%.2f", stats.Distance.Mean)
	for _, bucket := range stats.Histogram {
		if bucket.Count == 0 {
			continue
		}
		row(&b, "  "+bucket.Class.String(), "%d (%.1f%%)", bucket.Count, bucket.Percent)
	}
	b.WriteString(strings.Repeat("=", bannerWidth) + "\n")
	return b.String()
}

func banner(b *strings.Builder, title string) {
	b.WriteString(strings.Repeat("=", bannerWidth) + "\n")
	pad := (bannerWidth - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad) + title + "\n")
	b.WriteString(strings.Repeat("=", bannerWidth) + "\n")
}

func row(b *strings.Builder, label, format string, args ...interface{}) {
	fmt.Fprintf(b, "%-26s %s\n", label+":", fmt.Sprintf(format, args...))
}
