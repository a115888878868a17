// Package surge owns the surge zone catalog and the lifecycle of the map
// overlays that visualize the active zone. Every zone change tears down all
// registered sources and layers before the new zone is rendered.
package surge

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/hexzone/internal/geo"
)

// Band is one concentric intensity ring around a focus point.
type Band struct {
	Opacity      float64 `json:"opacity"`
	RadiusMeters float64 `json:"radius_m"`
}

// DefaultBands returns the fixed intensity table, innermost first. Bands are
// rendered independently, so a hexagon inside the innermost radius is drawn
// once per band.
func DefaultBands() []Band {
	return []Band{
		{Opacity: 0.5, RadiusMeters: 500},
		{Opacity: 0.25, RadiusMeters: 1000},
		{Opacity: 0.1, RadiusMeters: 1500},
	}
}

// Zone is one surge scenario: an ordered set of focus points. A zone without
// points is valid and renders nothing.
type Zone struct {
	Name   string         `json:"name" yaml:"name"`
	Points []geo.GeoPoint `json:"points" yaml:"points"`
}

// Catalog is the ordered, non-empty list of zones. Its order is fixed for the
// life of the process.
type Catalog []Zone

// Validate rejects an empty catalog and out-of-range focus points.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return eris.Wrap(geo.ErrInvalidArgument, "surge: catalog is empty")
	}
	for i, z := range c {
		for j, p := range z.Points {
			if !p.IsValid() {
				return eris.Wrapf(geo.ErrInvalidArgument, "surge: zone %d (%s) point %d (%s) out of range", i, z.Name, j, p)
			}
		}
	}
	return nil
}

// Normalize wraps any index, negative included, into [0, len(c)).
func (c Catalog) Normalize(index int) int {
	n := len(c)
	if n == 0 {
		return 0
	}
	return ((index % n) + n) % n
}
