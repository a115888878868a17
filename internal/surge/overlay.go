package surge

import (
	"strconv"

	"github.com/sells-group/hexzone/internal/geo"
)

// OverlayKey identifies the overlay for one band around one focus point.
type OverlayKey struct {
	Opacity float64      `json:"opacity"`
	Point   geo.GeoPoint `json:"point"`
}

// String renders the key with the shortest exact representation of each
// float, so two keys share a string only when they are equal.
func (k OverlayKey) String() string {
	buf := make([]byte, 0, 48)
	buf = strconv.AppendFloat(buf, k.Opacity, 'g', -1, 64)
	buf = append(buf, '/')
	buf = strconv.AppendFloat(buf, k.Point.Lat, 'g', -1, 64)
	buf = append(buf, '/')
	buf = strconv.AppendFloat(buf, k.Point.Lon, 'g', -1, 64)
	return string(buf)
}

// SourceID is the map source id for the key.
func (k OverlayKey) SourceID() string { return "source-" + k.String() }

// LayerID is the fill layer id for the key.
func (k OverlayKey) LayerID() string { return "layer-" + k.String() }

// Handle pairs the source and layer registered for one key.
type Handle struct {
	Key      OverlayKey `json:"key"`
	SourceID string     `json:"source_id"`
	LayerID  string     `json:"layer_id"`
}

// NewHandle derives both ids from key.
func NewHandle(key OverlayKey) Handle {
	return Handle{Key: key, SourceID: key.SourceID(), LayerID: key.LayerID()}
}

// ActiveSet is the ordered set of handles currently live on the map.
type ActiveSet struct {
	handles []Handle
}

// Add appends h.
func (s *ActiveSet) Add(h Handle) {
	s.handles = append(s.handles, h)
}

// Len returns the number of live handles.
func (s *ActiveSet) Len() int { return len(s.handles) }

// Handles returns a copy of the handles in insertion order.
func (s *ActiveSet) Handles() []Handle {
	out := make([]Handle, len(s.handles))
	copy(out, s.handles)
	return out
}

// Drain calls fn for every handle in insertion order and leaves the set
// empty. fn must not add to the set.
func (s *ActiveSet) Drain(fn func(Handle)) {
	handles := s.handles
	s.handles = nil
	for _, h := range handles {
		fn(h)
	}
}
