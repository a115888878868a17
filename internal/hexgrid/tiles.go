// Package hexgrid tiles a map viewport with hexagons in screen space,
// projects them to geographic rings, and filters them by a boundary polygon
// and by distance to a focus point.
package hexgrid

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hexzone/internal/geo"
	"github.com/sells-group/hexzone/internal/metrics"
)

// Packing constants, as multiples of the hex size.
const (
	RowStride    = 1.525
	ColumnStride = 1.75
	OddRowOffset = 0.875
)

// Viewport is the size of the map view in screen pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Focus restricts tiles to those whose center lies strictly closer than
// MaxDistanceMeters to Point.
type Focus struct {
	Point             geo.GeoPoint
	MaxDistanceMeters float64
}

// Tile is one hexagon: its projected center and its closed 7-point ring.
type Tile struct {
	Center geo.GeoPoint `json:"center"`
	Ring   geo.Polygon  `json:"ring"`
}

// ValidateHexSize rejects sizes that would make the grid loops not terminate.
func ValidateHexSize(hexSize float64) error {
	if !(hexSize > 0) || math.IsInf(hexSize, 1) {
		return eris.Wrapf(geo.ErrInvalidArgument, "hexgrid: hex size %g must be positive and finite", hexSize)
	}
	return nil
}

// GenerateTiles walks the viewport row by row, keeps grid positions whose
// projected center lies inside boundary, and returns their hexagon rings.
// When focus is nil every boundary-valid tile is returned; otherwise only
// tiles within focus.MaxDistanceMeters of focus.Point. Tiles that fail to
// project are skipped. Output order is rows then columns, ascending.
func GenerateTiles(proj geo.Projector, vp Viewport, hexSize float64, boundary geo.Polygon, focus *Focus) ([]Tile, error) {
	return generate(proj, vp, hexSize, boundary, focus, nil)
}

func generate(proj geo.Projector, vp Viewport, hexSize float64, boundary geo.Polygon, focus *Focus, m *metrics.Metrics) ([]Tile, error) {
	if err := ValidateHexSize(hexSize); err != nil {
		return nil, err
	}
	if proj == nil {
		return nil, eris.Wrap(geo.ErrInvalidArgument, "hexgrid: projector is required")
	}

	rowStride := hexSize * RowStride
	colStride := hexSize * ColumnStride
	offset := hexSize * OddRowOffset

	var tiles []Tile
	oddRow := false
	for r := 0; float64(r)*rowStride < vp.Height; r++ {
		y := float64(r) * rowStride
		for c := 0; float64(c)*colStride < vp.Width; c++ {
			x := float64(c) * colStride
			if oddRow {
				x += offset
			}

			tile, ok := buildTile(proj, geo.ScreenPoint{X: x, Y: y}, hexSize, boundary, m)
			if !ok {
				continue
			}
			if focus != nil && !focus.contains(tile.Center) {
				continue
			}
			tiles = append(tiles, tile)
		}
		oddRow = !oddRow
	}

	return tiles, nil
}

// buildTile projects one grid position. It reports false when the center is
// outside the boundary or any point fails to project.
func buildTile(proj geo.Projector, center geo.ScreenPoint, hexSize float64, boundary geo.Polygon, m *metrics.Metrics) (Tile, bool) {
	centerGeo, err := proj.Project(center)
	if err != nil {
		zap.L().Debug("hexgrid: skipping tile, center did not project",
			zap.Float64("x", center.X), zap.Float64("y", center.Y), zap.Error(err))
		m.TileSkipped(metrics.ReasonProjection)
		return Tile{}, false
	}
	if !geo.PointInPolygon(boundary, centerGeo) {
		m.TileSkipped(metrics.ReasonBoundary)
		return Tile{}, false
	}

	corners := geo.HexCorners(center, hexSize)
	ring := make(geo.Polygon, 0, len(corners))
	for _, c := range corners[:len(corners)-1] {
		g, err := proj.Project(c)
		if err != nil {
			zap.L().Debug("hexgrid: skipping tile, corner did not project",
				zap.Float64("x", c.X), zap.Float64("y", c.Y), zap.Error(err))
			m.TileSkipped(metrics.ReasonProjection)
			return Tile{}, false
		}
		ring = append(ring, g)
	}
	ring = append(ring, ring[0])

	return Tile{Center: centerGeo, Ring: ring}, true
}

func (f *Focus) contains(p geo.GeoPoint) bool {
	return geo.DistanceMeters(f.Point, p) < f.MaxDistanceMeters
}

// Filter returns the tiles of an unfiltered grid that satisfy focus. A nil
// focus returns tiles unchanged. The input slice is not modified.
func Filter(tiles []Tile, focus *Focus) []Tile {
	if focus == nil {
		return tiles
	}
	var out []Tile
	for _, t := range tiles {
		if focus.contains(t.Center) {
			out = append(out, t)
		}
	}
	return out
}

// Rings extracts the hexagon rings from tiles.
func Rings(tiles []Tile) []geo.Polygon {
	out := make([]geo.Polygon, len(tiles))
	for i, t := range tiles {
		out[i] = t.Ring
	}
	return out
}
