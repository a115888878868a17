// Package geo holds the geometry primitives shared by the hex grid and the
// surge overlays: geographic and screen points, closed polygon rings,
// point-in-polygon, hexagon corners and surface distance.
package geo

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

var (
	// ErrInvalidArgument marks configuration or input that can never produce
	// a valid grid (non-positive hex size, degenerate boundary, empty catalog).
	ErrInvalidArgument = eris.New("invalid argument")

	// ErrDegenerateGeometry marks a single point or tile that could not be
	// projected. Callers skip the tile and continue.
	ErrDegenerateGeometry = eris.New("degenerate geometry")
)

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// String formats the point as "lat,lon".
func (p GeoPoint) String() string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lon)
}

// IsValid reports whether both components are finite and within the WGS84 range.
func (p GeoPoint) IsValid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// ScreenPoint is a position in view-local pixels, y growing downward.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Projector converts a view-local screen point to a geographic coordinate.
// The map engine owns the projection; the grid never computes one itself.
type Projector interface {
	Project(p ScreenPoint) (GeoPoint, error)
}

// ProjectorFunc adapts an ordinary function to the Projector interface.
type ProjectorFunc func(p ScreenPoint) (GeoPoint, error)

// Project calls f(p).
func (f ProjectorFunc) Project(p ScreenPoint) (GeoPoint, error) {
	return f(p)
}
