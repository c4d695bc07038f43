package morpho

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// noFilterParams returns the default tunables with the anomaly filter off,
// so hand-computed raw values survive to the output.
func noFilterParams() GradientParams {
	p := DefaultGradientParams()
	p.FilterAnomalies = false
	return p
}

// profile builds an ordered profile from coordinate triples.
func profile(coords [][3]float64) []OrderedPoint {
	points := make([]OrderedPoint, len(coords))
	for i, c := range coords {
		points[i] = OrderedPoint{
			SamplePoint: SamplePoint{ID: int64(i + 1), X: c[0], Y: c[1], Z: c[2]},
			Order:       i,
		}
	}
	return points
}

func TestComputeGradient_HandComputed(t *testing.T) {
	// Three points with 3D segment lengths of exactly 100:
	// horizontal spacing sqrt(100²−50²) with a 50 m drop per segment.
	//   segment 0: SL = (50/100) × 50  = 25
	//   segment 1: SL = (50/100) × 150 = 75
	// The last point repeats the final segment: raw = [25, 75, 75].
	dx := 86.60254037844386
	points := profile([][3]float64{
		{0, 0, 100},
		{dx, 0, 50},
		{2 * dx, 0, 0},
	})

	results, diags, err := ComputeGradient(points, noFilterParams())
	if err != nil {
		t.Fatalf("ComputeGradient failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	approx := cmpopts.EquateApprox(0, 1e-9)
	raw := []float64{results[0].SLKRaw, results[1].SLKRaw, results[2].SLKRaw}
	if diff := cmp.Diff([]float64{25, 75, 75}, raw, approx); diff != "" {
		t.Errorf("raw SL-K mismatch (-want +got):\n%s", diff)
	}

	cum := []float64{results[0].CumulativeDistance3D, results[1].CumulativeDistance3D, results[2].CumulativeDistance3D}
	if diff := cmp.Diff([]float64{0, 100, 200}, cum, approx); diff != "" {
		t.Errorf("cumulative distance mismatch (-want +got):\n%s", diff)
	}

	mid := []float64{results[0].MidpointDistance, results[1].MidpointDistance, results[2].MidpointDistance}
	if diff := cmp.Diff([]float64{0, 50, 150}, mid, approx); diff != "" {
		t.Errorf("midpoint distance mismatch (-want +got):\n%s", diff)
	}

	// Median of [25, 75, 75] is 75, so normalized = [1/3, 1, 1].
	norm := []float64{results[0].SLKNormalized, results[1].SLKNormalized, results[2].SLKNormalized}
	if diff := cmp.Diff([]float64{1.0 / 3, 1, 1}, norm, approx); diff != "" {
		t.Errorf("normalized SL-K mismatch (-want +got):\n%s", diff)
	}

	slope := []float64{results[0].SlopePercent, results[1].SlopePercent, results[2].SlopePercent}
	if diff := cmp.Diff([]float64{50, 50, 0}, slope, approx); diff != "" {
		t.Errorf("slope mismatch (-want +got):\n%s", diff)
	}

	for i, r := range results {
		if r.State != StateValid {
			t.Errorf("results[%d].State = %v, want VALIDO", i, r.State)
		}
	}
	if diags.ErrorCount() != 0 {
		t.Errorf("unexpected error diagnostics: %v", diags)
	}
}

func TestComputeGradient_TooFewPoints(t *testing.T) {
	points := profile([][3]float64{{0, 0, 100}, {10, 0, 50}})
	_, _, err := ComputeGradient(points, DefaultGradientParams())
	if !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
}

func TestComputeGradient_FlatSegmentIsNull(t *testing.T) {
	points := profile([][3]float64{
		{0, 0, 100},
		{10, 0, 100}, // no drop: SL = 0 → NULO
		{20, 0, 50},
	})

	results, _, err := ComputeGradient(points, noFilterParams())
	if err != nil {
		t.Fatalf("ComputeGradient failed: %v", err)
	}
	if results[0].State != StateNull {
		t.Errorf("results[0].State = %v, want NULO", results[0].State)
	}
	if results[0].State.String() != "NULO" {
		t.Errorf("State.String() = %q, want NULO", results[0].State.String())
	}
}

func TestComputeGradient_ExtremeMagnitudeIsAnomalous(t *testing.T) {
	// Near-vertical kilometre-scale drops push SL beyond 1000 far from the
	// headwater: segment 1 gives SL ≈ 1×1500.
	points := profile([][3]float64{
		{0, 0, 2000},
		{0.5, 0, 1000},
		{1, 0, 0},
	})

	results, _, err := ComputeGradient(points, noFilterParams())
	if err != nil {
		t.Fatalf("ComputeGradient failed: %v", err)
	}
	if results[1].State != StateAnomalous {
		t.Errorf("results[1].State = %v (slk=%v), want ANOMALO", results[1].State, results[1].SLKFiltered)
	}
	if results[1].State.String() != "ANOMALO" {
		t.Errorf("State.String() = %q, want ANOMALO", results[1].State.String())
	}
}

func TestComputeGradient_FlagsDiscontinuities(t *testing.T) {
	points := profile([][3]float64{
		{0, 0, 100},
		{1500, 0, 50}, // 1.5 km gap
		{3000, 0, 0},
	})

	_, diags, err := ComputeGradient(points, noFilterParams())
	if err != nil {
		t.Fatalf("ComputeGradient failed: %v", err)
	}
	if diags.WarningCount() < 2 {
		t.Errorf("expected per-gap warnings plus a total, got %v", diags)
	}
}

func TestFilterOutliers_ExtremeToMedian(t *testing.T) {
	// Sorted valid values [10,11,12,13,14,100]: Q1=11.25, Q3=13.75,
	// IQR=2.5, extreme fence 21.25. 100 is extreme → replaced by the
	// median 12.5.
	var diags Diagnostics
	got := filterOutliers([]float64{10, 11, 12, 13, 14, 100}, ModerateFence, ExtremeFence, &diags)
	want := []float64{10, 11, 12, 13, 14, 12.5}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	// A second pass over the corrected values changes nothing.
	var diags2 Diagnostics
	again := filterOutliers(got, ModerateFence, ExtremeFence, &diags2)
	if diff := cmp.Diff(got, again, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("filter is not idempotent (-first +second):\n%s", diff)
	}
}

func TestFilterOutliers_ModerateToNearerQuartile(t *testing.T) {
	// 20 sits between the moderate fence (17.5) and the extreme fence
	// (21.25): clamp to Q3 = 13.75.
	var diags Diagnostics
	got := filterOutliers([]float64{10, 11, 12, 13, 14, 20}, ModerateFence, ExtremeFence, &diags)
	want := []float64{10, 11, 12, 13, 14, 13.75}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterOutliers_TooFewValidPassesThrough(t *testing.T) {
	var diags Diagnostics
	in := []float64{1, 2, 1e9, 0} // only three valid values
	got := filterOutliers(in, ModerateFence, ExtremeFence, &diags)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("expected pass-through below %d valid values (-want +got):\n%s", MinFilterSamples, diff)
	}
	if diags.WarningCount() == 0 {
		t.Error("expected an insufficient-samples warning")
	}
}

func TestNormalizeGradients_ScaleInvariant(t *testing.T) {
	var d1, d2 Diagnostics
	a := normalizeGradients([]float64{2, 4, 8}, &d1)
	b := normalizeGradients([]float64{20, 40, 80}, &d2)
	if diff := cmp.Diff(a, b, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("normalization is not scale invariant (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.5, 1, 2}, a, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("normalized values mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeGradients_AllZeroForcedToZero(t *testing.T) {
	var diags Diagnostics
	got := normalizeGradients([]float64{0, 0, math.NaN()}, &diags)
	if diff := cmp.Diff([]float64{0, 0, 0}, got); diff != "" {
		t.Errorf("expected forced zeros (-want +got):\n%s", diff)
	}
	if diags.WarningCount() == 0 {
		t.Error("expected a no-valid-gradients warning")
	}
}
