// Package morpho computes drainage-basin morphometric indices: the Schumm
// (1956) elongation ratio over basin polygons and the Hack (1973)
// longitudinal stream-gradient index (SL-K) over river elevation profiles.
//
// All engines are pure functions: they consume in-memory records, return
// computed records plus an ordered diagnostics list, and perform no I/O.
// Reading and writing vector layers, geometry containment, persistence and
// rendering live in the collaborator packages (geomio, morphodb, report).
package morpho

import "math"

// SamplePoint is one surveyed elevation sample.
type SamplePoint struct {
	ID int64
	X  float64
	Y  float64
	Z  float64

	// Attrs carries the source feature's original attributes through to the
	// output writers. The engines never read it directly; injected accessor
	// functions (e.g. ExplicitOrderFunc) may.
	Attrs map[string]interface{}
}

// Basin is one drainage-basin polygon record. Geometry is an opaque handle
// interpreted only by the injected containment predicate.
type Basin struct {
	ID       int64
	Area     float64
	Geometry interface{}
	Attrs    map[string]interface{}
}

// PointInBasinFunc reports whether a sample point lies inside or on the
// boundary of a basin polygon. Supplied by the geometry collaborator.
type PointInBasinFunc func(b Basin, p SamplePoint) bool

// OrderedPoint is a sample point with the downstream sequence index assigned
// by OrderByFlow (0 = headwater).
type OrderedPoint struct {
	SamplePoint
	Order int
}

func distance3D(a, b SamplePoint) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func distanceHorizontal(a, b SamplePoint) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// finiteCoords reports whether all three coordinates are finite numbers.
func (p SamplePoint) finiteCoords() bool {
	return finite(p.X) && finite(p.Y) && finite(p.Z)
}

// sanitize forces non-finite intermediates to zero so NaN/Inf never reach
// output records.
func sanitize(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return v
}
