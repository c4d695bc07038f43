package geomio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ctessum/geom"

	"github.com/geomorfo/morfometria/internal/morpho"
)

// GeoJSON wire structures. Geometries stay as raw bytes so writers can emit
// them back unchanged.
type featureCollection struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	CRS      json.RawMessage `json:"crs,omitempty"`
	Features []feature       `json:"features"`
}

type feature struct {
	Type       string                 `json:"type"`
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// PointCollection is a river point layer. Point IDs are the source feature
// indices; the original features are kept for output round-tripping.
type PointCollection struct {
	Points     []morpho.SamplePoint
	OrderField string // resolved order attribute, "" when the layer has none
	Skipped    int    // features dropped for missing or non-numeric values

	name     string
	crs      json.RawMessage
	features map[int64]feature
}

// ExplicitOrder adapts the layer's order attribute, when present, to the
// ordering engine's fast path. Returns nil when no order field was found.
func (c *PointCollection) ExplicitOrder() morpho.ExplicitOrderFunc {
	if c.OrderField == "" {
		return nil
	}
	field := c.OrderField
	return func(p morpho.SamplePoint) (float64, bool) {
		return numericValue(p.Attrs[field])
	}
}

// ReadPoints loads a river point layer. An elevation attribute is mandatory;
// X/Y attributes are preferred but fall back to the Point geometry when the
// layer carries no coordinate columns.
func ReadPoints(path string, fields FieldCandidates) (*PointCollection, error) {
	fc, err := readCollection(path)
	if err != nil {
		return nil, err
	}

	props := layerProperties(fc)
	zField, ok := resolveField(props, fields.Z)
	if !ok {
		return nil, fmt.Errorf("geomio: %s: no elevation field found (tried %v)", path, fields.Z)
	}
	xField, _ := resolveField(props, fields.X)
	yField, _ := resolveField(props, fields.Y)
	orderField, _ := resolveField(props, fields.Order)

	col := &PointCollection{
		OrderField: orderField,
		name:       fc.Name,
		crs:        fc.CRS,
		features:   make(map[int64]feature, len(fc.Features)),
	}
	for i, f := range fc.Features {
		id := int64(i)
		x, y, ok := featureXY(f, xField, yField)
		if !ok {
			col.Skipped++
			continue
		}
		z, ok := numericValue(f.Properties[zField])
		if !ok {
			col.Skipped++
			continue
		}
		col.Points = append(col.Points, morpho.SamplePoint{
			ID: id, X: x, Y: y, Z: z, Attrs: f.Properties,
		})
		col.features[id] = f
	}
	if len(col.Points) == 0 {
		return nil, fmt.Errorf("geomio: %s: no usable point features", path)
	}
	return col, nil
}

// featureXY resolves a point's planar coordinates, attributes first, then the
// Point geometry.
func featureXY(f feature, xField, yField string) (x, y float64, ok bool) {
	if xField != "" && yField != "" {
		x, okX := numericValue(f.Properties[xField])
		y, okY := numericValue(f.Properties[yField])
		if okX && okY {
			return x, y, true
		}
	}
	var g geometry
	if err := json.Unmarshal(f.Geometry, &g); err != nil || g.Type != "Point" {
		return 0, 0, false
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil || len(coords) < 2 {
		return 0, 0, false
	}
	return coords[0], coords[1], true
}

// BasinCollection is a drainage-basin polygon layer.
type BasinCollection struct {
	Basins    []morpho.Basin
	AreaField string
	Skipped   int

	name     string
	crs      json.RawMessage
	features map[int64]feature
}

// ReadBasins loads a basin polygon layer. An area attribute is mandatory and
// each feature needs a Polygon or MultiPolygon geometry; features failing
// either are dropped and counted in Skipped.
func ReadBasins(path string, fields FieldCandidates) (*BasinCollection, error) {
	fc, err := readCollection(path)
	if err != nil {
		return nil, err
	}

	props := layerProperties(fc)
	areaField, ok := resolveField(props, fields.Area)
	if !ok {
		return nil, fmt.Errorf("geomio: %s: no area field found (tried %v)", path, fields.Area)
	}

	col := &BasinCollection{
		AreaField: areaField,
		name:      fc.Name,
		crs:       fc.CRS,
		features:  make(map[int64]feature, len(fc.Features)),
	}
	for i, f := range fc.Features {
		id := int64(i)
		area, ok := numericValue(f.Properties[areaField])
		if !ok {
			col.Skipped++
			continue
		}
		poly, err := polygonal(f.Geometry)
		if err != nil {
			col.Skipped++
			continue
		}
		col.Basins = append(col.Basins, morpho.Basin{
			ID: id, Area: area, Geometry: poly, Attrs: f.Properties,
		})
		col.features[id] = f
	}
	if len(col.Basins) == 0 {
		return nil, fmt.Errorf("geomio: %s: no usable basin features", path)
	}
	return col, nil
}

// polygonal parses a Polygon or MultiPolygon geometry into its geom
// counterpart for containment tests.
func polygonal(raw json.RawMessage) (geom.Polygonal, error) {
	var g geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("geomio: malformed geometry: %w", err)
	}
	switch g.Type {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("geomio: malformed Polygon coordinates: %w", err)
		}
		return polygonFromRings(rings), nil
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return nil, fmt.Errorf("geomio: malformed MultiPolygon coordinates: %w", err)
		}
		mp := make(geom.MultiPolygon, len(polys))
		for i, rings := range polys {
			mp[i] = polygonFromRings(rings)
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("geomio: unsupported geometry type %q", g.Type)
	}
}

func polygonFromRings(rings [][][]float64) geom.Polygon {
	poly := make(geom.Polygon, len(rings))
	for i, ring := range rings {
		pts := make([]geom.Point, 0, len(ring))
		for _, c := range ring {
			if len(c) < 2 {
				continue
			}
			pts = append(pts, geom.Point{X: c[0], Y: c[1]})
		}
		poly[i] = pts
	}
	return poly
}

func readCollection(path string) (*featureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geomio: reading %s: %w", path, err)
	}
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("geomio: parsing %s: %w", path, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("geomio: %s: empty feature collection", path)
	}
	return &fc, nil
}

// layerProperties merges every feature's property keys into one bag, the
// sample used for field resolution. Resolving against a single feature would
// fail the whole layer when only its leading features lack an attribute the
// rest carry.
func layerProperties(fc *featureCollection) map[string]interface{} {
	merged := make(map[string]interface{})
	for _, f := range fc.Features {
		for k, v := range f.Properties {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}
	return merged
}
