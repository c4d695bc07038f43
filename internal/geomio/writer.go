package geomio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/geomorfo/morfometria/internal/morpho"
)

// WriteElongation writes the basin layer with the elongation attributes
// appended. Geometries and original attributes pass through unchanged; only
// basins that produced a result are written.
func (c *BasinCollection) WriteElongation(path string, results []morpho.ElongationResult) error {
	out := featureCollection{
		Type: "FeatureCollection",
		Name: c.name,
		CRS:  c.crs,
	}
	for _, r := range results {
		src, ok := c.features[r.BasinID]
		if !ok {
			return fmt.Errorf("geomio: result for unknown basin %d", r.BasinID)
		}
		props := cloneProperties(src.Properties)
		props["MINPOINT_X"] = r.PointMin.X
		props["MINPOINT_Y"] = r.PointMin.Y
		props["MINPOINT_Z"] = r.PointMin.Z
		props["MAXPOINT_X"] = r.PointMax.X
		props["MAXPOINT_Y"] = r.PointMax.Y
		props["MAXPOINT_Z"] = r.PointMax.Z
		props["DIST_MAX"] = r.Distance3D
		props["DIAMETRO_EQ"] = r.EquivalentDiameter
		props["VALOR_ELON"] = r.ElongationRatio
		props["CLASIF_ELON"] = r.Class.String()
		props["AREA_CUENCA"] = r.Area
		props["NUM_PUNTOS"] = r.SampleCount
		out.Features = append(out.Features, feature{
			Type:       "Feature",
			Geometry:   src.Geometry,
			Properties: props,
		})
	}
	return writeCollection(path, &out)
}

// WriteGradient writes the river point layer with the SL-K attributes
// appended, in downstream order. ORDEN_RIO is 1-based.
func (c *PointCollection) WriteGradient(path string, results []morpho.GradientResult) error {
	out := featureCollection{
		Type: "FeatureCollection",
		Name: c.name,
		CRS:  c.crs,
	}
	for _, r := range results {
		src, ok := c.features[r.Point.ID]
		if !ok {
			return fmt.Errorf("geomio: result for unknown point %d", r.Point.ID)
		}
		props := cloneProperties(src.Properties)
		props["SLK_HACK"] = r.SLKFiltered
		props["DIST_3D"] = r.CumulativeDistance3D
		props["DIST_CABEC"] = r.MidpointDistance
		props["SLK_NORM"] = r.SLKNormalized
		props["ORDEN_RIO"] = r.Point.Order + 1
		props["PENDIENTE"] = r.SlopePercent
		props["VALIDADO"] = r.State.String()
		out.Features = append(out.Features, feature{
			Type:       "Feature",
			Geometry:   src.Geometry,
			Properties: props,
		})
	}
	return writeCollection(path, &out)
}

func cloneProperties(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props)+12)
	for k, v := range props {
		out[k] = v
	}
	return out
}

func writeCollection(path string, fc *featureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("geomio: encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("geomio: writing %s: %w", path, err)
	}
	return nil
}
