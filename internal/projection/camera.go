// Package projection provides a Web Mercator camera that converts between
// view-local screen points and geographic coordinates the same way a slippy
// map engine does for a given center, zoom and viewport size.
package projection

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hexzone/internal/geo"
)

// MaxLatitude is the Web Mercator latitude limit.
const MaxLatitude = 85.05112878

// DefaultTileSize matches vector-tile engines that render 512px tiles.
const DefaultTileSize = 512

// Camera is a fixed map view. It implements geo.Projector.
type Camera struct {
	Center   geo.GeoPoint
	Zoom     float64
	Width    float64
	Height   float64
	TileSize float64
}

// NewCamera validates and returns a camera.
func NewCamera(center geo.GeoPoint, zoom, width, height, tileSize float64) (*Camera, error) {
	c := &Camera{Center: center, Zoom: zoom, Width: width, Height: height, TileSize: tileSize}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the camera parameters.
func (c *Camera) Validate() error {
	if !c.Center.IsValid() || math.Abs(c.Center.Lat) > MaxLatitude {
		return eris.Wrapf(geo.ErrInvalidArgument, "projection: center %s outside mercator range", c.Center)
	}
	if c.Zoom < 0 || c.Zoom > 24 || math.IsNaN(c.Zoom) {
		return eris.Wrapf(geo.ErrInvalidArgument, "projection: zoom %g outside [0, 24]", c.Zoom)
	}
	if c.TileSize <= 0 {
		return eris.Wrapf(geo.ErrInvalidArgument, "projection: tile size %g must be positive", c.TileSize)
	}
	if c.Width < 0 || c.Height < 0 {
		return eris.Wrapf(geo.ErrInvalidArgument, "projection: viewport %gx%g is negative", c.Width, c.Height)
	}
	return nil
}

// String identifies the view; equal strings mean identical projections.
func (c *Camera) String() string {
	return fmt.Sprintf("%s@%g/%gx%g/%g", c.Center, c.Zoom, c.Width, c.Height, c.TileSize)
}

func (c *Camera) worldSize() float64 {
	return c.TileSize * math.Exp2(c.Zoom)
}

// Project converts a screen point to a geographic coordinate. It fails with
// geo.ErrDegenerateGeometry while the viewport has no size or when the
// result falls outside the projectable range.
func (c *Camera) Project(p geo.ScreenPoint) (geo.GeoPoint, error) {
	if c.Width <= 0 || c.Height <= 0 {
		return geo.GeoPoint{}, eris.Wrap(geo.ErrDegenerateGeometry, "projection: viewport not laid out")
	}

	ws := c.worldSize()
	cx, cy := toWorld(c.Center, ws)
	wx := cx + p.X - c.Width/2
	wy := cy + p.Y - c.Height/2

	out := fromWorld(wx, wy, ws)
	if !out.IsValid() || math.Abs(out.Lat) > MaxLatitude {
		return geo.GeoPoint{}, eris.Wrapf(geo.ErrDegenerateGeometry, "projection: screen point (%g,%g) off the map", p.X, p.Y)
	}
	return out, nil
}

// Unproject converts a geographic coordinate to a screen point.
func (c *Camera) Unproject(g geo.GeoPoint) geo.ScreenPoint {
	ws := c.worldSize()
	cx, cy := toWorld(c.Center, ws)
	wx, wy := toWorld(g, ws)
	return geo.ScreenPoint{
		X: wx - cx + c.Width/2,
		Y: wy - cy + c.Height/2,
	}
}

func toWorld(g geo.GeoPoint, ws float64) (x, y float64) {
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, g.Lat))
	sin := math.Sin(lat * math.Pi / 180)
	x = (g.Lon + 180) / 360 * ws
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * ws
	return x, y
}

func fromWorld(x, y, ws float64) geo.GeoPoint {
	lon := x/ws*360 - 180
	n := math.Pi * (1 - 2*y/ws)
	lat := math.Atan(math.Sinh(n)) * 180 / math.Pi
	return geo.GeoPoint{Lat: lat, Lon: lon}
}
