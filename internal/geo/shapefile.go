package geo

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ReadShapefileBoundary reads the exterior ring of the first polygon shape in
// an ESRI shapefile. Shapefile points are X=longitude, Y=latitude.
func ReadShapefileBoundary(path string) (Polygon, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		p, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		g := shapeToGeom(p)
		if g == nil {
			skipped++
			continue
		}
		if skipped > 0 {
			zap.L().Debug("geo: skipped non-polygon shapefile records",
				zap.String("path", path),
				zap.Int("skipped", skipped),
			)
		}
		return PolygonFromGeom(g)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "geo: read shapefile %s", path)
	}

	return nil, eris.Wrapf(ErrInvalidArgument, "geo: shapefile %s has no polygon shapes", path)
}

// shapeToGeom converts the first part of a shapefile Polygon to a geom.Polygon.
func shapeToGeom(p *shp.Polygon) *geom.Polygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	end := int32(len(p.Points))
	if p.NumParts > 1 {
		end = p.Parts[1]
	}

	coords := make([]geom.Coord, 0, end-p.Parts[0])
	for j := p.Parts[0]; j < end; j++ {
		coords = append(coords, geom.Coord{p.Points[j].X, p.Points[j].Y})
	}

	ring := geom.NewLinearRingFlat(geom.XY, flatCoords(coords))
	poly := geom.NewPolygon(geom.XY).SetSRID(4326)
	if err := poly.Push(ring); err != nil {
		zap.L().Debug("geo: skipping malformed polygon ring", zap.Error(err))
		return nil
	}
	return poly
}
