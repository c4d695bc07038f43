package geomio

import (
	"github.com/ctessum/geom"

	"github.com/geomorfo/morfometria/internal/morpho"
)

// PointInBasin reports whether a sample lies inside or on the boundary of a
// basin polygon. Boundary points count as contained so samples digitized
// exactly on a divide are not lost. Satisfies morpho.PointInBasinFunc.
func PointInBasin(b morpho.Basin, p morpho.SamplePoint) bool {
	poly, ok := b.Geometry.(geom.Polygonal)
	if !ok {
		return false
	}
	return geom.Point{X: p.X, Y: p.Y}.Within(poly) != geom.Outside
}
