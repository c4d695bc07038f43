// Package geomio reads and writes the GeoJSON vector layers the morphometric
// pipelines consume: basin polygons with an area attribute and river point
// samples with an elevation attribute. Input features are kept verbatim so
// output layers carry the original geometries and attributes untouched, with
// the computed attributes appended.
package geomio

import (
	"math"
	"strconv"
	"strings"
)

// FieldCandidates lists the attribute names probed, in order, for each value
// the pipelines need. Field-survey layers are wildly inconsistent about
// naming, so each value gets a candidate list instead of a single name.
type FieldCandidates struct {
	X     []string
	Y     []string
	Z     []string
	Area  []string
	Order []string
}

// DefaultFieldCandidates returns the names observed across surveyed layers.
func DefaultFieldCandidates() FieldCandidates {
	return FieldCandidates{
		X:     []string{"POINT_X", "X", "x", "Point_X", "coord_x"},
		Y:     []string{"POINT_Y", "Y", "y", "Point_Y", "coord_y"},
		Z:     []string{"Z", "z", "elevation", "altura", "elev", "ELEVATION"},
		Area:  []string{"Shape_Area", "AREA", "area", "Area", "SHAPE_AREA"},
		Order: []string{"orden", "ORDEN", "order", "ORDER", "orden_rio"},
	}
}

// resolveField returns the first candidate present in the property bag.
func resolveField(props map[string]interface{}, candidates []string) (string, bool) {
	for _, name := range candidates {
		if _, ok := props[name]; ok {
			return name, true
		}
	}
	return "", false
}

// numericValue coerces a GeoJSON property to float64. Numbers decode as
// float64; numeric strings (a common shapefile-conversion artifact) are
// parsed too. Non-finite values are rejected: strconv accepts "NaN" and
// "Inf", another conversion artifact, and admitting them would poison every
// distance computed downstream.
func numericValue(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
