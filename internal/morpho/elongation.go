package morpho

import (
	"errors"
	"math"
)

// ExtremumTolerance is the absolute elevation tolerance within which two
// samples count as tied for an extremum. Ties resolve by X coordinate
// (largest for the maximum, smallest for the minimum) so repeated runs over
// the same data always pick the same pair.
const ExtremumTolerance = 1e-6

// MinPointsPerBasin is the smallest associated-sample count for which an
// elongation ratio can be computed. Basins below it are skipped with a
// warning.
const MinPointsPerBasin = 2

// Fatal precondition errors. Per-record defects never surface as errors;
// these fire only when a whole pipeline cannot produce any output.
var (
	ErrNoBasins     = errors.New("morpho: no basin polygons supplied")
	ErrNoPoints     = errors.New("morpho: no sample points supplied")
	ErrNilPredicate = errors.New("morpho: nil point-in-basin predicate")
	ErrNoResults    = errors.New("morpho: no basin produced a valid elongation result")
	ErrTooFewPoints = errors.New("morpho: at least 3 river points are required for the SL-K gradient")
)

// ElongationResult holds the computed elongation attributes for one basin.
// Attrs is the basin's original attribute bag, passed through for writers.
type ElongationResult struct {
	BasinID            int64
	Area               float64
	PointMin           SamplePoint
	PointMax           SamplePoint
	Distance3D         float64
	EquivalentDiameter float64
	ElongationRatio    float64
	Class              ElongationClass
	SampleCount        int
	Attrs              map[string]interface{}
}

// ComputeElongation associates sample points with their enclosing basins and
// computes the Schumm elongation ratio per basin: the diameter of the circle
// with the basin's area divided by the 3D distance between the basin's
// lowest and highest samples.
//
// Per-basin defects (non-positive area, fewer than two contained points)
// skip that basin with a warning, and a zero max-min distance degrades the
// ratio to 0; the run only fails when no basin at all yields a result.
func ComputeElongation(basins []Basin, points []SamplePoint, contains PointInBasinFunc) ([]ElongationResult, Diagnostics, error) {
	var diags Diagnostics
	if len(basins) == 0 {
		return nil, diags, ErrNoBasins
	}
	if len(points) == 0 {
		return nil, diags, ErrNoPoints
	}
	if contains == nil {
		return nil, diags, ErrNilPredicate
	}

	valid := make([]SamplePoint, 0, len(points))
	for _, p := range points {
		if !p.finiteCoords() {
			diags.Warnf("punto %d con coordenadas no finitas, omitido", p.ID)
			continue
		}
		valid = append(valid, p)
	}

	results := make([]ElongationResult, 0, len(basins))
	for _, b := range basins {
		if !finite(b.Area) || b.Area <= 0 {
			diags.Warnf("cuenca %d con area invalida (%v), omitida", b.ID, b.Area)
			continue
		}

		var inside []SamplePoint
		for _, p := range valid {
			if contains(b, p) {
				inside = append(inside, p)
			}
		}
		if len(inside) < MinPointsPerBasin {
			diags.Warnf("cuenca %d con %d puntos asociados (minimo %d), omitida",
				b.ID, len(inside), MinPointsPerBasin)
			continue
		}

		pmax := selectMaxElevation(inside)
		pmin := selectMinElevation(inside)

		dist := distance3D(pmin, pmax)
		diameter := 2 * math.Sqrt(b.Area/math.Pi)

		var re float64
		if dist == 0 {
			// Degenerate guard, not an error: coincident extrema force Re=0.
			diags.Warnf("cuenca %d con distancia max-min nula, Re forzado a 0", b.ID)
		} else {
			re = diameter / dist
		}
		if !finite(re) {
			diags.Warnf("cuenca %d produjo un Re no finito, forzado a 0", b.ID)
			re = 0
		}

		results = append(results, ElongationResult{
			BasinID:            b.ID,
			Area:               b.Area,
			PointMin:           pmin,
			PointMax:           pmax,
			Distance3D:         dist,
			EquivalentDiameter: diameter,
			ElongationRatio:    re,
			Class:              ClassifyElongation(re),
			SampleCount:        len(inside),
			Attrs:              b.Attrs,
		})
	}

	if len(results) == 0 {
		diags.Errorf("ninguna cuenca produjo resultados validos")
		return nil, diags, ErrNoResults
	}
	diags.Infof("elongacion calculada para %d de %d cuencas", len(results), len(basins))
	return results, diags, nil
}

// selectMaxElevation picks the highest sample; near-ties within
// ExtremumTolerance resolve to the largest X.
func selectMaxElevation(points []SamplePoint) SamplePoint {
	maxZ := points[0].Z
	for _, p := range points[1:] {
		if p.Z > maxZ {
			maxZ = p.Z
		}
	}
	var chosen SamplePoint
	found := false
	for _, p := range points {
		if maxZ-p.Z <= ExtremumTolerance {
			if !found || p.X > chosen.X {
				chosen = p
				found = true
			}
		}
	}
	return chosen
}

// selectMinElevation picks the lowest sample; near-ties within
// ExtremumTolerance resolve to the smallest X.
func selectMinElevation(points []SamplePoint) SamplePoint {
	minZ := points[0].Z
	for _, p := range points[1:] {
		if p.Z < minZ {
			minZ = p.Z
		}
	}
	var chosen SamplePoint
	found := false
	for _, p := range points {
		if p.Z-minZ <= ExtremumTolerance {
			if !found || p.X < chosen.X {
				chosen = p
				found = true
			}
		}
	}
	return chosen
}
