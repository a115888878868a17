// Package render defines the contract between the surge overlays and the map
// engine (named GeoJSON sources and fill layers), and an in-memory engine
// implementing it.
package render

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/hexzone/internal/geo"
)

var (
	// ErrNotFound is returned when removing or referencing an id the engine
	// does not hold. Callers tearing down overlays treat it as already removed.
	ErrNotFound = eris.New("not found")

	// ErrDuplicate is returned when adding an id that is already registered.
	ErrDuplicate = eris.New("duplicate id")

	// ErrSourceInUse is returned when removing a source a layer still draws.
	ErrSourceInUse = eris.New("source in use")
)

// FillLayer draws the polygons of a source with a flat fill.
type FillLayer struct {
	ID          string  `json:"id"`
	SourceID    string  `json:"source"`
	FillColor   string  `json:"fill_color"`
	FillOpacity float64 `json:"fill_opacity"`
}

// Adapter adds and removes sources and fill layers on a map engine.
type Adapter interface {
	AddSource(id string, features *geojson.FeatureCollection) error
	RemoveSource(id string) error
	AddFillLayer(layer FillLayer) error
	RemoveLayer(id string) error
}

// NewPolygonCollection wraps polygons as a GeoJSON feature collection. props
// is shared by every feature and may be nil.
func NewPolygonCollection(polygons []geo.Polygon, props map[string]interface{}) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(polygons))}
	for _, p := range polygons {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   p.ToGeom(),
			Properties: props,
		})
	}
	return fc
}
