package morpho

import (
	"math"
	"sort"
)

const (
	// ContinuityThreshold is the 3D gap between consecutive profile points
	// above which a discontinuity is reported.
	ContinuityThreshold = 1000.0
	// MinSegmentLength clamps near-zero segment lengths so the slope
	// division cannot blow up.
	MinSegmentLength = 1e-6
	// NullMagnitude is the SL-K magnitude below which a value counts as
	// null for validation, filtering and normalization.
	NullMagnitude = 1e-10
	// AnomalousMagnitude is the SL-K magnitude above which a value is
	// marked anomalous. Independent of the IQR fences.
	AnomalousMagnitude = 1000.0
	// ModerateFence and ExtremeFence are the Tukey fence multipliers of the
	// one-pass anomaly filter.
	ModerateFence = 1.5
	ExtremeFence  = 3.0
	// MinFilterSamples is the fewest valid values the fence filter needs;
	// below it the values pass through unfiltered.
	MinFilterSamples = 5
	// MinGradientPoints is the fewest profile points the pipeline accepts.
	MinGradientPoints = 3
)

// GradientParams holds the gradient-pipeline tunables.
type GradientParams struct {
	ContinuityThreshold float64
	ModerateFence       float64
	ExtremeFence        float64
	FilterAnomalies     bool
}

// DefaultGradientParams returns the tuned defaults with filtering enabled.
func DefaultGradientParams() GradientParams {
	return GradientParams{
		ContinuityThreshold: ContinuityThreshold,
		ModerateFence:       ModerateFence,
		ExtremeFence:        ExtremeFence,
		FilterAnomalies:     true,
	}
}

// ValidationState labels a computed SL-K value by simple magnitude.
type ValidationState int

const (
	StateValid ValidationState = iota
	StateNull
	StateAnomalous
)

// String returns the label written to the VALIDADO output attribute.
func (s ValidationState) String() string {
	switch s {
	case StateNull:
		return "NULO"
	case StateAnomalous:
		return "ANOMALO"
	default:
		return "VALIDO"
	}
}

// GradientResult holds the computed SL-K attributes for one profile point.
// The last point repeats the final segment's values so the result length
// matches the point count (intentional boundary convention).
type GradientResult struct {
	Point                OrderedPoint
	SLKRaw               float64
	SLKFiltered          float64
	SLKNormalized        float64
	CumulativeDistance3D float64
	MidpointDistance     float64
	SlopePercent         float64
	State                ValidationState
}

// ComputeGradient computes Hack's stream-gradient index SL = (ΔH/ΔL)×L along
// an ordered river profile, where ΔH is the segment's elevation drop, ΔL its
// 3D length and L the cumulative 3D distance from the headwater to the
// segment midpoint.
//
// When params.FilterAnomalies is set, a one-pass Tukey fence filter replaces
// extreme outliers (beyond ExtremeFence×IQR) with the median and clamps
// moderate ones (beyond ModerateFence×IQR) to the nearer quartile. Filtered
// values are then normalized by their median. Validation states are derived
// from the filtered values.
func ComputeGradient(points []OrderedPoint, params GradientParams) ([]GradientResult, Diagnostics, error) {
	var diags Diagnostics
	if len(points) < MinGradientPoints {
		return nil, diags, ErrTooFewPoints
	}

	checkContinuity(points, params.ContinuityThreshold, &diags)
	distances := cumulativeDistances(points, &diags)
	raw := hackGradients(points, distances, &diags)

	filtered := raw
	if params.FilterAnomalies {
		filtered = filterOutliers(raw, params.ModerateFence, params.ExtremeFence, &diags)
	}
	normalized := normalizeGradients(filtered, &diags)
	midpoints := segmentMidpoints(distances)

	results := make([]GradientResult, len(points))
	for i := range points {
		slope := 0.0
		if i < len(points)-1 {
			dh := points[i].Z - points[i+1].Z
			dl := distances[i+1] - distances[i]
			if math.Abs(dl) > MinSegmentLength {
				slope = math.Abs(dh/dl) * 100
			}
		}

		slk := sanitize(filtered[i])
		state := StateValid
		switch {
		case math.Abs(slk) < NullMagnitude:
			state = StateNull
		case math.Abs(slk) > AnomalousMagnitude:
			state = StateAnomalous
		}

		results[i] = GradientResult{
			Point:                points[i],
			SLKRaw:               sanitize(raw[i]),
			SLKFiltered:          slk,
			SLKNormalized:        sanitize(normalized[i]),
			CumulativeDistance3D: sanitize(distances[i]),
			MidpointDistance:     sanitize(midpoints[i]),
			SlopePercent:         sanitize(slope),
			State:                state,
		}
	}
	return results, diags, nil
}

// checkContinuity reports (but never corrects) large 3D gaps between
// consecutive profile points.
func checkContinuity(points []OrderedPoint, threshold float64, diags *Diagnostics) {
	count := 0
	for i := 0; i < len(points)-1; i++ {
		d := distance3D(points[i].SamplePoint, points[i+1].SamplePoint)
		if d > threshold {
			count++
			if count <= 3 {
				diags.Warnf("discontinuidad de %.0f entre puntos %d y %d",
					d, points[i].ID, points[i+1].ID)
			}
		}
	}
	if count > 0 {
		diags.Warnf("detectadas %d discontinuidades espaciales", count)
	} else {
		diags.Infof("continuidad espacial validada")
	}
}

func cumulativeDistances(points []OrderedPoint, diags *Diagnostics) []float64 {
	distances := make([]float64, len(points))
	var totalH, total3D float64
	for i := 1; i < len(points); i++ {
		d := distance3D(points[i-1].SamplePoint, points[i].SamplePoint)
		if d < MinSegmentLength {
			diags.Warnf("puntos casi coincidentes entre indices %d y %d", i-1, i)
			d = MinSegmentLength
		}
		distances[i] = distances[i-1] + d
		totalH += distanceHorizontal(points[i-1].SamplePoint, points[i].SamplePoint)
		total3D += d
	}
	diags.Infof("distancia total 3D: %.2f (horizontal %.2f)", total3D, totalH)
	return distances
}

func hackGradients(points []OrderedPoint, distances []float64, diags *Diagnostics) []float64 {
	gradients := make([]float64, 0, len(points))
	for i := 0; i < len(points)-1; i++ {
		deltaH := points[i].Z - points[i+1].Z // positive = descent
		deltaL := distances[i+1] - distances[i]
		l := (distances[i] + distances[i+1]) / 2

		if math.Abs(deltaL) < MinSegmentLength {
			diags.Warnf("segmento demasiado corto entre puntos %d y %d", i, i+1)
			gradients = append(gradients, 0)
			continue
		}
		if l < MinSegmentLength {
			diags.Warnf("distancia desde cabecera demasiado pequena en punto %d", i)
			gradients = append(gradients, 0)
			continue
		}

		slk := (deltaH / deltaL) * l
		if !finite(slk) {
			diags.Warnf("valor SL-K no finito en segmento %d, usando 0", i)
			slk = 0
		}
		gradients = append(gradients, slk)
	}

	// The final point repeats the last segment's value so the array length
	// matches the point count.
	gradients = append(gradients, gradients[len(gradients)-1])
	return gradients
}

// segmentMidpoints returns, per point, the midpoint of the segment ending at
// that point (0 for the headwater). This is the DIST_CABEC output value.
func segmentMidpoints(distances []float64) []float64 {
	midpoints := make([]float64, len(distances))
	for i := 1; i < len(distances); i++ {
		midpoints[i] = (distances[i-1] + distances[i]) / 2
	}
	return midpoints
}

// isValidGradient reports whether a value takes part in filtering and
// normalization: finite and not effectively zero.
func isValidGradient(v float64) bool {
	return finite(v) && math.Abs(v) > NullMagnitude
}

// filterOutliers applies a single Tukey fence pass over the valid values.
// Extreme anomalies (beyond extremeFence×IQR) become the median, moderate
// ones clamp to the nearer quartile, everything else passes through.
func filterOutliers(values []float64, moderateFence, extremeFence float64, diags *Diagnostics) []float64 {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if isValidGradient(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) < MinFilterSamples {
		diags.Warnf("insuficientes valores validos para el filtrado estadistico (%d)", len(valid))
		return values
	}

	sort.Float64s(valid)
	q1 := percentileLinear(valid, 25)
	q3 := percentileLinear(valid, 75)
	median := percentileLinear(valid, 50)
	iqr := q3 - q1

	moderateLo, moderateHi := q1-moderateFence*iqr, q3+moderateFence*iqr
	extremeLo, extremeHi := q1-extremeFence*iqr, q3+extremeFence*iqr
	diags.Infof("limites IQR: [%.6f, %.6f], extremos: [%.6f, %.6f]",
		moderateLo, moderateHi, extremeLo, extremeHi)

	out := make([]float64, len(values))
	moderate, extreme := 0, 0
	for i, v := range values {
		switch {
		case !isValidGradient(v):
			out[i] = v
		case v < extremeLo || v > extremeHi:
			out[i] = median
			extreme++
		case v < moderateLo:
			out[i] = q1
			moderate++
		case v > moderateHi:
			out[i] = q3
			moderate++
		default:
			out[i] = v
		}
	}
	if moderate+extreme > 0 {
		diags.Infof("anomalias corregidas: %d moderadas, %d extremas", moderate, extreme)
	} else {
		diags.Infof("no se detectaron anomalias estadisticas")
	}
	return out
}

// normalizeGradients divides every value by the median of the valid nonzero
// values. A near-zero median, or no valid values at all, forces everything
// to 0.
func normalizeGradients(values []float64, diags *Diagnostics) []float64 {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if isValidGradient(v) {
			valid = append(valid, v)
		}
	}

	out := make([]float64, len(values))
	if len(valid) == 0 {
		diags.Warnf("no hay gradientes validos para normalizar, usando valores 0")
		return out
	}

	sort.Float64s(valid)
	median := percentileLinear(valid, 50)
	if math.Abs(median) <= NullMagnitude {
		diags.Warnf("mediana de gradientes ~0, normalizados forzados a 0")
		return out
	}
	diags.Infof("mediana de gradientes SL-K: %.6f", median)

	for i, v := range values {
		if n := v / median; finite(n) {
			out[i] = n
		}
	}
	return out
}
