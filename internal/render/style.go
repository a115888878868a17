package render

import (
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Style is an in-memory map style: named GeoJSON sources plus fill layers in
// draw order. It enforces the same referential rules a map engine does, so
// a layer must be removed before its source. Style is safe for concurrent use.
type Style struct {
	mu      sync.RWMutex
	sources map[string]*geojson.FeatureCollection
	layers  []FillLayer
}

var _ Adapter = (*Style)(nil)

// NewStyle creates an empty style.
func NewStyle() *Style {
	return &Style{sources: make(map[string]*geojson.FeatureCollection)}
}

// AddSource registers a feature collection under id.
func (s *Style) AddSource(id string, features *geojson.FeatureCollection) error {
	if id == "" {
		return eris.New("render: source id is required")
	}
	if features == nil {
		features = &geojson.FeatureCollection{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources[id]; ok {
		return eris.Wrapf(ErrDuplicate, "render: source %s", id)
	}
	s.sources[id] = features
	return nil
}

// RemoveSource unregisters a source. It fails with ErrSourceInUse while a
// layer still references it.
func (s *Style) RemoveSource(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources[id]; !ok {
		return eris.Wrapf(ErrNotFound, "render: source %s", id)
	}
	for _, l := range s.layers {
		if l.SourceID == id {
			return eris.Wrapf(ErrSourceInUse, "render: source %s drawn by layer %s", id, l.ID)
		}
	}
	delete(s.sources, id)
	return nil
}

// AddFillLayer appends a layer on top of the existing ones.
func (s *Style) AddFillLayer(layer FillLayer) error {
	if layer.ID == "" {
		return eris.New("render: layer id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.layerIndex(layer.ID) >= 0 {
		return eris.Wrapf(ErrDuplicate, "render: layer %s", layer.ID)
	}
	if _, ok := s.sources[layer.SourceID]; !ok {
		return eris.Wrapf(ErrNotFound, "render: layer %s references source %s", layer.ID, layer.SourceID)
	}
	s.layers = append(s.layers, layer)
	return nil
}

// RemoveLayer removes a layer by id.
func (s *Style) RemoveLayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.layerIndex(id)
	if i < 0 {
		return eris.Wrapf(ErrNotFound, "render: layer %s", id)
	}
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	return nil
}

// Source returns the features registered under id.
func (s *Style) Source(id string) (*geojson.FeatureCollection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fc, ok := s.sources[id]
	return fc, ok
}

// SourceIDs returns the registered source ids, sorted.
func (s *Style) SourceIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sources))
	for id := range s.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Layers returns a copy of the layers in draw order.
func (s *Style) Layers() []FillLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FillLayer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Snapshot flattens every layer into one feature collection in draw order.
// Each feature carries its layer id, fill color and fill opacity so a web
// client can style it without knowing the layer table.
func (s *Style) Snapshot() *geojson.FeatureCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, l := range s.layers {
		src := s.sources[l.SourceID]
		if src == nil {
			continue
		}
		for _, f := range src.Features {
			props := make(map[string]interface{}, len(f.Properties)+3)
			for k, v := range f.Properties {
				props[k] = v
			}
			props["layer"] = l.ID
			props["fill-color"] = l.FillColor
			props["fill-opacity"] = l.FillOpacity

			out.Features = append(out.Features, &geojson.Feature{
				ID:         f.ID,
				Geometry:   f.Geometry,
				Properties: props,
			})
		}
	}
	return out
}

func (s *Style) layerIndex(id string) int {
	for i, l := range s.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}
