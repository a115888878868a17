package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Polygon is a closed ring of geographic points. The first and last points
// are equal.
type Polygon []GeoPoint

// IsClosed reports whether the ring repeats its first point as its last.
func (p Polygon) IsClosed() bool {
	return len(p) > 1 && p[0] == p[len(p)-1]
}

// Closed returns the ring with its first point appended when it is open.
// A closed ring is returned as-is.
func (p Polygon) Closed() Polygon {
	if len(p) == 0 || p.IsClosed() {
		return p
	}
	out := make(Polygon, len(p), len(p)+1)
	copy(out, p)
	return append(out, p[0])
}

// DistinctVertices counts unique vertices, ignoring the closing duplicate.
func (p Polygon) DistinctVertices() int {
	seen := make(map[GeoPoint]struct{}, len(p))
	for _, v := range p {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// ValidateBoundary checks that a boundary polygon is a closed ring with at
// least three distinct vertices.
func ValidateBoundary(p Polygon) error {
	if len(p) == 0 {
		return eris.Wrap(ErrInvalidArgument, "geo: boundary polygon is empty")
	}
	if !p.IsClosed() {
		return eris.Wrap(ErrInvalidArgument, "geo: boundary polygon is not a closed ring")
	}
	if n := p.DistinctVertices(); n < 3 {
		return eris.Wrapf(ErrInvalidArgument, "geo: boundary polygon has %d distinct vertices, need at least 3", n)
	}
	for i, v := range p {
		if !v.IsValid() {
			return eris.Wrapf(ErrInvalidArgument, "geo: boundary vertex %d (%s) out of range", i, v)
		}
	}
	return nil
}

// PointInPolygon reports whether test lies inside polygon using even-odd ray
// casting. Each edge runs from the previous vertex to the current one,
// starting with the wrap from the last vertex back to the first. Edges whose
// endpoints share a longitude never count as a crossing, which also covers
// the zero-length edge produced by a closing duplicate.
func PointInPolygon(polygon Polygon, test GeoPoint) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	prev := polygon[len(polygon)-1]
	for _, cur := range polygon {
		if cur.Lon == prev.Lon {
			prev = cur
			continue
		}
		if (cur.Lon >= test.Lon) != (prev.Lon >= test.Lon) {
			crossLat := (prev.Lat-cur.Lat)*(test.Lon-cur.Lon)/(prev.Lon-cur.Lon) + cur.Lat
			if test.Lat <= crossLat {
				inside = !inside
			}
		}
		prev = cur
	}
	return inside
}

// ToGeom converts the ring into a single-ring go-geom polygon in lon/lat
// order with SRID 4326.
func (p Polygon) ToGeom() *geom.Polygon {
	flat := make([]float64, 0, len(p)*2)
	for _, v := range p {
		flat = append(flat, v.Lon, v.Lat)
	}
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(4326)
}

// PolygonFromGeom returns the exterior ring of a go-geom polygon, closing it
// when needed.
func PolygonFromGeom(g *geom.Polygon) (Polygon, error) {
	if g == nil || g.NumLinearRings() == 0 {
		return nil, eris.Wrap(ErrInvalidArgument, "geo: polygon has no rings")
	}
	ring := g.LinearRing(0)
	out := make(Polygon, 0, ring.NumCoords())
	for i := 0; i < ring.NumCoords(); i++ {
		c := ring.Coord(i)
		out = append(out, GeoPoint{Lat: c.Y(), Lon: c.X()})
	}
	return out.Closed(), nil
}

// flatCoords converts a slice of Coord to flat coordinate pairs for go-geom.
func flatCoords(coords []geom.Coord) []float64 {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	return flat
}
