package surge

import (
	"github.com/stretchr/testify/mock"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/hexzone/internal/geo"
	"github.com/sells-group/hexzone/internal/hexgrid"
	"github.com/sells-group/hexzone/internal/render"
)

// mockAdapter implements render.Adapter for testing.
type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) AddSource(id string, features *geojson.FeatureCollection) error {
	args := m.Called(id, features)
	return args.Error(0)
}

func (m *mockAdapter) RemoveSource(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *mockAdapter) AddFillLayer(layer render.FillLayer) error {
	args := m.Called(layer)
	return args.Error(0)
}

func (m *mockAdapter) RemoveLayer(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// callLog returns "Method:id" for every recorded call, in order.
func (m *mockAdapter) callLog() []string {
	var out []string
	for _, c := range m.Calls {
		switch arg := c.Arguments.Get(0).(type) {
		case string:
			out = append(out, c.Method+":"+arg)
		case render.FillLayer:
			out = append(out, c.Method+":"+arg.ID)
		}
	}
	return out
}

// stubTiles returns one tile centred on the focus point, so every
// (focus, band) pair produces a non-empty source.
type stubTiles struct {
	calls []hexgrid.Focus
	err   error
	hook  func()
}

func (s *stubTiles) Tiles(focus *hexgrid.Focus) ([]hexgrid.Tile, error) {
	if s.hook != nil {
		s.hook()
	}
	s.calls = append(s.calls, *focus)
	if s.err != nil {
		return nil, s.err
	}
	p := focus.Point
	ring := geo.Polygon{
		{Lat: p.Lat, Lon: p.Lon},
		{Lat: p.Lat + 0.001, Lon: p.Lon},
		{Lat: p.Lat + 0.001, Lon: p.Lon + 0.001},
		{Lat: p.Lat, Lon: p.Lon},
	}
	return []hexgrid.Tile{{Center: p, Ring: ring}}, nil
}

func testCatalog() Catalog {
	return Catalog{
		{Name: "downtown", Points: []geo.GeoPoint{
			{Lat: 37.7749, Lon: -122.4194},
			{Lat: 37.7849, Lon: -122.4094},
		}},
		{Name: "mission", Points: []geo.GeoPoint{
			{Lat: 37.7599, Lon: -122.4148},
		}},
		{Name: "quiet"},
	}
}
