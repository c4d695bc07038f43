package morpho

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SummaryStats are descriptive statistics over one value set. A Count of 0
// is the "no data" sentinel; aggregation never fails.
type SummaryStats struct {
	Count  int
	Mean   float64
	Median float64
	Std    float64 // population standard deviation
	Min    float64
	Max    float64
	Q1     float64
	Q3     float64
	IQR    float64
}

// Summarize computes SummaryStats over the finite values of vs.
func Summarize(vs []float64) SummaryStats {
	finiteVals := make([]float64, 0, len(vs))
	for _, v := range vs {
		if finite(v) {
			finiteVals = append(finiteVals, v)
		}
	}
	if len(finiteVals) == 0 {
		return SummaryStats{}
	}
	sort.Float64s(finiteVals)
	q1 := percentileLinear(finiteVals, 25)
	q3 := percentileLinear(finiteVals, 75)
	return SummaryStats{
		Count:  len(finiteVals),
		Mean:   stat.Mean(finiteVals, nil),
		Median: percentileLinear(finiteVals, 50),
		Std:    stat.PopStdDev(finiteVals, nil),
		Min:    finiteVals[0],
		Max:    finiteVals[len(finiteVals)-1],
		Q1:     q1,
		Q3:     q3,
		IQR:    q3 - q1,
	}
}

// percentileLinear returns the p-th percentile (0..100) of a sorted slice
// using the linearly interpolated rank convention (position = p/100 × (n-1))
// the reference methodology relies on for its quartile fences and medians.
func percentileLinear(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	h := p / 100 * float64(n-1)
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// ClassBucket is one classification histogram entry. Percent is not rounded;
// rounding is a presentation concern.
type ClassBucket struct {
	Class   ElongationClass
	Count   int
	Percent float64
}

// ElongationStats aggregates an elongation result set for reports.
type ElongationStats struct {
	Count         int
	Ratio         SummaryStats
	Area          SummaryStats
	Distance      SummaryStats
	TotalArea     float64
	TotalDistance float64
	Histogram     []ClassBucket
	Predominant   ElongationClass
}

// AggregateElongation computes descriptive statistics and the classification
// histogram over a result set. Empty input returns the zero sentinel.
func AggregateElongation(results []ElongationResult) ElongationStats {
	if len(results) == 0 {
		return ElongationStats{}
	}

	ratios := make([]float64, 0, len(results))
	areas := make([]float64, 0, len(results))
	dists := make([]float64, 0, len(results))
	counts := make(map[ElongationClass]int)
	for _, r := range results {
		ratios = append(ratios, r.ElongationRatio)
		areas = append(areas, r.Area)
		dists = append(dists, r.Distance3D)
		counts[r.Class]++
	}

	s := ElongationStats{
		Count:    len(results),
		Ratio:    Summarize(ratios),
		Area:     Summarize(areas),
		Distance: Summarize(dists),
	}
	for _, a := range areas {
		s.TotalArea += a
	}
	for _, d := range dists {
		s.TotalDistance += d
	}

	total := float64(len(results))
	for _, c := range AllElongationClasses() {
		n := counts[c]
		s.Histogram = append(s.Histogram, ClassBucket{Class: c, Count: n, Percent: float64(n) / total * 100})
	}

	// Predominant class is the histogram arg-max; ties resolve to the most
	// elongated class so the outcome never depends on map iteration order.
	best := s.Histogram[0]
	for _, b := range s.Histogram[1:] {
		if b.Count > best.Count {
			best = b
		}
	}
	s.Predominant = best.Class
	return s
}

// FlatMap flattens the elongation statistics into renderer-friendly keys.
func (s ElongationStats) FlatMap() map[string]interface{} {
	return map[string]interface{}{
		"n_cuencas":          s.Count,
		"elon_media":         s.Ratio.Mean,
		"elon_mediana":       s.Ratio.Median,
		"elon_std":           s.Ratio.Std,
		"elon_min":           s.Ratio.Min,
		"elon_max":           s.Ratio.Max,
		"area_total":         s.TotalArea,
		"area_max":           s.Area.Max,
		"area_media":         s.Area.Mean,
		"dist_total":         s.TotalDistance,
		"dist_max":           s.Distance.Max,
		"dist_media":         s.Distance.Mean,
		"clase_predominante": s.Predominant.String(),
		"metodologia":        "Schumm (1956)",
	}
}

// GradientStats aggregates a gradient result set for reports.
type GradientStats struct {
	NPoints         int
	NSegments       int
	TotalDistance3D float64
	ElevationMax    float64
	ElevationMin    float64
	ReliefTotal     float64
	SLK             SummaryStats
	CoefVariation   float64
	ValidCount      int
	InvalidCount    int
	ValidPercent    float64
	MeanSlopePct    float64
}

// AggregateGradient computes the profile-level statistics of a gradient
// result set. Statistics of SL-K cover only the valid nonzero filtered
// values. Empty input returns the zero sentinel.
func AggregateGradient(results []GradientResult) GradientStats {
	if len(results) == 0 {
		return GradientStats{}
	}

	g := GradientStats{
		NPoints:      len(results),
		NSegments:    len(results) - 1,
		ElevationMax: math.Inf(-1),
		ElevationMin: math.Inf(1),
	}

	var slks []float64
	for _, r := range results {
		if r.Point.Z > g.ElevationMax {
			g.ElevationMax = r.Point.Z
		}
		if r.Point.Z < g.ElevationMin {
			g.ElevationMin = r.Point.Z
		}
		if r.CumulativeDistance3D > g.TotalDistance3D {
			g.TotalDistance3D = r.CumulativeDistance3D
		}
		if isValidGradient(r.SLKFiltered) {
			slks = append(slks, r.SLKFiltered)
		}
	}

	g.SLK = Summarize(slks)
	g.ValidCount = len(slks)
	g.InvalidCount = g.NPoints - g.ValidCount
	g.ValidPercent = float64(g.ValidCount) / float64(g.NPoints) * 100
	if g.SLK.Mean != 0 {
		g.CoefVariation = g.SLK.Std / g.SLK.Mean
	}
	g.ReliefTotal = g.ElevationMax - g.ElevationMin
	if g.TotalDistance3D > 0 {
		g.MeanSlopePct = g.ReliefTotal / g.TotalDistance3D * 100
	}
	return g
}

// FlatMap flattens the gradient statistics into renderer-friendly keys.
func (g GradientStats) FlatMap() map[string]interface{} {
	return map[string]interface{}{
		"n_puntos":               g.NPoints,
		"n_segmentos":            g.NSegments,
		"distancia_total_3d":     g.TotalDistance3D,
		"elevacion_max":          g.ElevationMax,
		"elevacion_min":          g.ElevationMin,
		"desnivel_total":         g.ReliefTotal,
		"slk_media":              g.SLK.Mean,
		"slk_mediana":            g.SLK.Median,
		"slk_q25":                g.SLK.Q1,
		"slk_q75":                g.SLK.Q3,
		"slk_iqr":                g.SLK.IQR,
		"slk_minimo":             g.SLK.Min,
		"slk_maximo":             g.SLK.Max,
		"slk_desviacion_std":     g.SLK.Std,
		"slk_coef_variacion":     g.CoefVariation,
		"puntos_validos":         g.ValidCount,
		"puntos_problematicos":   g.InvalidCount,
		"porcentaje_validez":     g.ValidPercent,
		"pendiente_promedio_pct": g.MeanSlopePct,
		"metodologia":            "Hack (1973)",
	}
}
