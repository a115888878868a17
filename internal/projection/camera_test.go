package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hexzone/internal/geo"
)

func sfCamera(t *testing.T) *Camera {
	t.Helper()
	c, err := NewCamera(geo.GeoPoint{Lat: 37.7749, Lon: -122.4194}, 11.9, 375, 667, DefaultTileSize)
	require.NoError(t, err)
	return c
}

func TestCamera_CenterProjectsToViewportCenter(t *testing.T) {
	c := sfCamera(t)

	got, err := c.Project(geo.ScreenPoint{X: 187.5, Y: 333.5})
	require.NoError(t, err)
	assert.InDelta(t, 37.7749, got.Lat, 1e-9)
	assert.InDelta(t, -122.4194, got.Lon, 1e-9)
}

func TestCamera_RoundTrip(t *testing.T) {
	c := sfCamera(t)

	for _, sp := range []geo.ScreenPoint{{X: 0, Y: 0}, {X: 375, Y: 667}, {X: 12.5, Y: 600}} {
		g, err := c.Project(sp)
		require.NoError(t, err)
		back := c.Unproject(g)
		assert.InDelta(t, sp.X, back.X, 1e-6)
		assert.InDelta(t, sp.Y, back.Y, 1e-6)
	}
}

func TestCamera_Orientation(t *testing.T) {
	c := sfCamera(t)

	topLeft, err := c.Project(geo.ScreenPoint{X: 0, Y: 0})
	require.NoError(t, err)
	bottomRight, err := c.Project(geo.ScreenPoint{X: 375, Y: 667})
	require.NoError(t, err)

	// Screen y grows down, so latitude decreases.
	assert.Greater(t, topLeft.Lat, bottomRight.Lat)
	assert.Less(t, topLeft.Lon, bottomRight.Lon)
}

func TestCamera_NotLaidOut(t *testing.T) {
	c := &Camera{Center: geo.GeoPoint{Lat: 37.7, Lon: -122.4}, Zoom: 12, TileSize: DefaultTileSize}

	_, err := c.Project(geo.ScreenPoint{X: 1, Y: 1})
	assert.ErrorIs(t, err, geo.ErrDegenerateGeometry)
}

func TestCamera_OffMap(t *testing.T) {
	c, err := NewCamera(geo.GeoPoint{Lat: 80, Lon: 0}, 0, 512, 512, DefaultTileSize)
	require.NoError(t, err)

	_, err = c.Project(geo.ScreenPoint{X: 256, Y: -10000})
	assert.ErrorIs(t, err, geo.ErrDegenerateGeometry)
}

func TestNewCamera_Invalid(t *testing.T) {
	tests := []struct {
		name string
		c    Camera
	}{
		{"bad center", Camera{Center: geo.GeoPoint{Lat: 89, Lon: 0}, Zoom: 1, TileSize: 512}},
		{"bad zoom", Camera{Center: geo.GeoPoint{}, Zoom: 30, TileSize: 512}},
		{"bad tile size", Camera{Center: geo.GeoPoint{}, Zoom: 1}},
		{"negative viewport", Camera{Center: geo.GeoPoint{}, Zoom: 1, TileSize: 512, Width: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCamera(tt.c.Center, tt.c.Zoom, tt.c.Width, tt.c.Height, tt.c.TileSize)
			assert.ErrorIs(t, err, geo.ErrInvalidArgument)
		})
	}
}

func TestCamera_String(t *testing.T) {
	a := sfCamera(t)
	b := sfCamera(t)
	assert.Equal(t, a.String(), b.String())

	b.Zoom = 12
	assert.NotEqual(t, a.String(), b.String())
}
