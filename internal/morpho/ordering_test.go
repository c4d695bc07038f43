package morpho

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func idsOf(ordered []OrderedPoint) []int64 {
	ids := make([]int64, len(ordered))
	for i, p := range ordered {
		ids[i] = p.ID
	}
	return ids
}

func TestOrderByFlow_DescendingLine(t *testing.T) {
	// Shuffled samples along a straight descending profile must come out
	// sorted headwater-first.
	points := []SamplePoint{
		{ID: 4, X: 30, Y: 0, Z: 70},
		{ID: 1, X: 0, Y: 0, Z: 100},
		{ID: 3, X: 20, Y: 0, Z: 80},
		{ID: 2, X: 10, Y: 0, Z: 90},
	}

	ordered, diags := OrderByFlow(points, nil, DefaultOrderingParams())
	if diff := cmp.Diff([]int64{1, 2, 3, 4}, idsOf(ordered)); diff != "" {
		t.Errorf("ordering mismatch (-want +got):\n%s", diff)
	}
	for i, p := range ordered {
		if p.Order != i {
			t.Errorf("ordered[%d].Order = %d, want %d", i, p.Order, i)
		}
	}
	if diags.WarningCount() != 0 {
		t.Errorf("unexpected warnings: %v", diags)
	}
}

func TestOrderByFlow_AscentPenaltyBiasesDownslope(t *testing.T) {
	// From the low point L, candidate A is nearer (3 vs 4) but uphill;
	// with the ×3 penalty the walk hops to D first.
	points := []SamplePoint{
		{ID: 1, X: 0, Y: 0, Z: 100}, // headwater
		{ID: 2, X: 5, Y: 0, Z: 10},  // L
		{ID: 3, X: 8, Y: 0, Z: 50},  // A, uphill from L
		{ID: 4, X: 9, Y: 0, Z: 5},   // D, downhill from L
	}

	ordered, _ := OrderByFlow(points, nil, DefaultOrderingParams())
	if diff := cmp.Diff([]int64{1, 2, 4, 3}, idsOf(ordered)); diff != "" {
		t.Errorf("penalised ordering mismatch (-want +got):\n%s", diff)
	}

	// Without the penalty the nearest neighbour wins outright.
	flat := DefaultOrderingParams()
	flat.AscentPenalty = 1.0
	ordered, _ = OrderByFlow(points, nil, flat)
	if diff := cmp.Diff([]int64{1, 2, 3, 4}, idsOf(ordered)); diff != "" {
		t.Errorf("unpenalised ordering mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderByFlow_ExplicitFieldFastPath(t *testing.T) {
	// The explicit field wins even when it contradicts elevations.
	points := []SamplePoint{
		{ID: 1, X: 0, Y: 0, Z: 10, Attrs: map[string]interface{}{"orden": 3.0}},
		{ID: 2, X: 10, Y: 0, Z: 100, Attrs: map[string]interface{}{"orden": 1.0}},
		{ID: 3, X: 20, Y: 0, Z: 50, Attrs: map[string]interface{}{"orden": 2.0}},
	}
	byField := func(p SamplePoint) (float64, bool) {
		v, ok := p.Attrs["orden"].(float64)
		return v, ok
	}

	ordered, _ := OrderByFlow(points, byField, DefaultOrderingParams())
	if diff := cmp.Diff([]int64{2, 3, 1}, idsOf(ordered)); diff != "" {
		t.Errorf("field ordering mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderByFlow_PartialFieldFallsBackToHeuristic(t *testing.T) {
	points := []SamplePoint{
		{ID: 1, X: 0, Y: 0, Z: 100, Attrs: map[string]interface{}{"orden": 2.0}},
		{ID: 2, X: 10, Y: 0, Z: 50}, // no order value: fast path disabled
		{ID: 3, X: 20, Y: 0, Z: 0, Attrs: map[string]interface{}{"orden": 1.0}},
	}
	byField := func(p SamplePoint) (float64, bool) {
		v, ok := p.Attrs["orden"].(float64)
		return v, ok
	}

	ordered, _ := OrderByFlow(points, byField, DefaultOrderingParams())
	// Heuristic: start at the highest point and descend.
	if diff := cmp.Diff([]int64{1, 2, 3}, idsOf(ordered)); diff != "" {
		t.Errorf("fallback ordering mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderByFlow_FlagsLargeJumps(t *testing.T) {
	points := []SamplePoint{
		{ID: 1, X: 0, Y: 0, Z: 100},
		{ID: 2, X: 3000, Y: 0, Z: 50}, // 3 km hop
	}

	_, diags := OrderByFlow(points, nil, DefaultOrderingParams())
	if diags.WarningCount() == 0 {
		t.Errorf("expected a large-jump warning, got %v", diags)
	}
}

func TestOrderByFlow_SkipsNonFiniteCoordinates(t *testing.T) {
	points := []SamplePoint{
		{ID: 1, X: 0, Y: 0, Z: 100},
		{ID: 2, X: 10, Y: 0, Z: math.NaN()},
		{ID: 3, X: 20, Y: 0, Z: 50},
		{ID: 4, X: 30, Y: 0, Z: 0},
	}

	ordered, diags := OrderByFlow(points, nil, DefaultOrderingParams())
	if diff := cmp.Diff([]int64{1, 3, 4}, idsOf(ordered)); diff != "" {
		t.Errorf("ordering mismatch (-want +got):\n%s", diff)
	}
	if diags.WarningCount() == 0 {
		t.Errorf("expected a non-finite-coordinate warning, got %v", diags)
	}

	// The defective sample must not poison the downstream distances: every
	// cumulative distance over the surviving points stays finite.
	results, _, err := ComputeGradient(ordered, noFilterParams())
	if err != nil {
		t.Fatalf("ComputeGradient failed: %v", err)
	}
	last := results[len(results)-1].CumulativeDistance3D
	if math.IsNaN(last) || math.IsInf(last, 0) || last <= 0 {
		t.Errorf("cumulative distance corrupted: %v", last)
	}
	for i, r := range results {
		if r.State == StateNull {
			t.Errorf("results[%d].State = NULO on a clean descending profile", i)
		}
	}
}

func TestOrderByFlow_Empty(t *testing.T) {
	ordered, diags := OrderByFlow(nil, nil, DefaultOrderingParams())
	if ordered != nil {
		t.Errorf("expected nil ordering for empty input, got %v", ordered)
	}
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics for empty input, got %v", diags)
	}
}
