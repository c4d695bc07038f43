package morpho

import (
	"math"
	"sort"
)

// Tunables for the flow-ordering heuristic. The values are empirically tuned
// for field-surveyed river profiles; there is no derivation behind them.
const (
	// DefaultAscentPenalty multiplies the horizontal distance of any
	// candidate sitting above the current point, biasing the traversal
	// downslope.
	DefaultAscentPenalty = 3.0
	// DefaultLargeJump is the horizontal gap (map units) above which a
	// consecutive pair is flagged as a spatial jump.
	DefaultLargeJump = 2000.0
	// DefaultLargeAscent is the elevation rise (map units) above which a
	// consecutive pair is flagged as an ascent.
	DefaultLargeAscent = 50.0
	// DefaultDisorderFraction is the ascent share of all segments beyond
	// which the whole ordering is suspected to be wrong.
	DefaultDisorderFraction = 0.30
)

// OrderingParams holds the flow-ordering tunables.
type OrderingParams struct {
	AscentPenalty    float64
	LargeJump        float64
	LargeAscent      float64
	DisorderFraction float64
}

// DefaultOrderingParams returns the tuned defaults.
func DefaultOrderingParams() OrderingParams {
	return OrderingParams{
		AscentPenalty:    DefaultAscentPenalty,
		LargeJump:        DefaultLargeJump,
		LargeAscent:      DefaultLargeAscent,
		DisorderFraction: DefaultDisorderFraction,
	}
}

// ExplicitOrderFunc returns the pre-existing order value carried by a point,
// when the source layer has one. Returning ok=false for any point disables
// the fast path for the whole set.
type ExplicitOrderFunc func(p SamplePoint) (float64, bool)

// OrderByFlow sequences an unordered river point cloud from headwater to
// outlet.
//
// When explicitOrder yields a value for every point, the points are sorted
// by it and the heuristic is skipped. Otherwise a greedy nearest-neighbour
// traversal starts at the highest sample and repeatedly hops to the closest
// unvisited point, with ascending candidates penalised by
// params.AscentPenalty so the walk prefers descending, the way water does.
//
// The traversal is O(n²) with no spatial index. That is fine for the tens to
// low hundreds of samples of a surveyed profile; at larger N an index could
// be substituted without changing the output, since candidates are still
// compared on absolute penalised distance.
func OrderByFlow(points []SamplePoint, explicitOrder ExplicitOrderFunc, params OrderingParams) ([]OrderedPoint, Diagnostics) {
	var diags Diagnostics

	valid := make([]SamplePoint, 0, len(points))
	for _, p := range points {
		if !p.finiteCoords() {
			diags.Warnf("punto %d con coordenadas no finitas, omitido", p.ID)
			continue
		}
		valid = append(valid, p)
	}
	points = valid
	if len(points) == 0 {
		return nil, diags
	}

	if explicitOrder != nil {
		if ordered, ok := orderByField(points, explicitOrder); ok {
			diags.Infof("usando campo de orden existente (%d puntos)", len(ordered))
			validateOrdering(ordered, params, &diags)
			return ordered, diags
		}
	}

	// Headwater = highest sample.
	start := 0
	for i, p := range points {
		if p.Z > points[start].Z {
			start = i
		}
	}
	diags.Infof("cabecera identificada en elevacion %.2f", points[start].Z)

	remaining := make([]SamplePoint, 0, len(points)-1)
	remaining = append(remaining, points[:start]...)
	remaining = append(remaining, points[start+1:]...)

	ordered := make([]OrderedPoint, 0, len(points))
	current := points[start]
	ordered = append(ordered, OrderedPoint{SamplePoint: current})

	for len(remaining) > 0 {
		bestIdx := 0
		bestDist := math.Inf(1)
		for i, cand := range remaining {
			d := distanceHorizontal(current, cand)
			if cand.Z > current.Z {
				d *= params.AscentPenalty
			}
			if d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		current = remaining[bestIdx]
		ordered = append(ordered, OrderedPoint{SamplePoint: current, Order: len(ordered)})
		// Remove in place, preserving order so distance ties keep resolving
		// to the earliest input point.
		copy(remaining[bestIdx:], remaining[bestIdx+1:])
		remaining = remaining[:len(remaining)-1]
	}

	diags.Infof("puntos ordenados espacialmente: %d", len(ordered))
	validateOrdering(ordered, params, &diags)
	return ordered, diags
}

func orderByField(points []SamplePoint, explicitOrder ExplicitOrderFunc) ([]OrderedPoint, bool) {
	type keyed struct {
		p   SamplePoint
		key float64
	}
	keys := make([]keyed, 0, len(points))
	for _, p := range points {
		k, ok := explicitOrder(p)
		if !ok {
			return nil, false
		}
		keys = append(keys, keyed{p, k})
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].key < keys[j].key })
	ordered := make([]OrderedPoint, len(keys))
	for i, k := range keys {
		ordered[i] = OrderedPoint{SamplePoint: k.p, Order: i}
	}
	return ordered, true
}

// validateOrdering flags suspicious consecutive pairs. Diagnostic only: the
// ordering is returned as-is regardless of what it finds.
func validateOrdering(ordered []OrderedPoint, params OrderingParams, diags *Diagnostics) {
	jumps, ascents := 0, 0
	segments := len(ordered) - 1
	for i := 0; i < segments; i++ {
		a, b := ordered[i].SamplePoint, ordered[i+1].SamplePoint
		if distanceHorizontal(a, b) > params.LargeJump {
			jumps++
		}
		if b.Z-a.Z > params.LargeAscent {
			ascents++
		}
	}
	if jumps > 0 {
		diags.Warnf("detectados %d saltos espaciales grandes (>%.0f)", jumps, params.LargeJump)
	}
	if float64(ascents) > float64(segments)*params.DisorderFraction {
		diags.Warnf("detectados %d ascensos significativos: posible desorden del perfil", ascents)
	} else {
		diags.Infof("ordenamiento espacial validado")
	}
}
