package hexgrid

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/hexzone/internal/geo"
	"github.com/sells-group/hexzone/internal/metrics"
)

// Generator produces hex tiles for one projection, viewport, hex size and
// boundary. The unfiltered boundary grid is computed once and reused across
// focus points when a cache is attached.
type Generator struct {
	proj     geo.Projector
	viewport Viewport
	hexSize  float64
	boundary geo.Polygon
	cache    *GridCache
	scope    string
	fence    string
	metrics  *metrics.Metrics
}

// Option configures a Generator.
type Option func(*Generator)

// WithCache reuses grids from c. An empty scope falls back to the
// projector's String method when it has one.
func WithCache(c *GridCache, scope string) Option {
	return func(g *Generator) {
		g.cache = c
		g.scope = scope
	}
}

// WithMetrics records generation counts on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator validates its inputs and returns a Generator.
func NewGenerator(proj geo.Projector, vp Viewport, hexSize float64, boundary geo.Polygon, opts ...Option) (*Generator, error) {
	if err := ValidateHexSize(hexSize); err != nil {
		return nil, err
	}
	if err := geo.ValidateBoundary(boundary); err != nil {
		return nil, err
	}

	g := &Generator{
		proj:     proj,
		viewport: vp,
		hexSize:  hexSize,
		boundary: boundary,
		fence:    BoundaryFingerprint(boundary),
	}
	for _, o := range opts {
		o(g)
	}
	if g.cache != nil && g.scope == "" {
		if s, ok := proj.(fmt.Stringer); ok {
			g.scope = s.String()
		}
	}
	return g, nil
}

// Viewport returns the viewport the generator tiles.
func (g *Generator) Viewport() Viewport { return g.viewport }

// HexSize returns the hexagon circumradius in pixels.
func (g *Generator) HexSize() float64 { return g.hexSize }

// Boundary returns the boundary polygon.
func (g *Generator) Boundary() geo.Polygon { return g.boundary }

// Cache returns the attached grid cache, or nil.
func (g *Generator) Cache() *GridCache { return g.cache }

// Grid returns every boundary-valid tile in the viewport.
func (g *Generator) Grid() ([]Tile, error) {
	key := GridKey{Scope: g.scope, Boundary: g.fence, Viewport: g.viewport, HexSize: g.hexSize}
	if g.cache != nil {
		if tiles, ok := g.cache.Get(key); ok {
			g.metrics.CacheLookup(true)
			return tiles, nil
		}
		g.metrics.CacheLookup(false)
	}

	tiles, err := generate(g.proj, g.viewport, g.hexSize, g.boundary, nil, g.metrics)
	if err != nil {
		return nil, err
	}
	g.metrics.TilesBuilt(len(tiles))

	zap.L().Debug("hexgrid: generated grid",
		zap.String("scope", g.scope),
		zap.Float64("width", g.viewport.Width),
		zap.Float64("height", g.viewport.Height),
		zap.Float64("hex_size", g.hexSize),
		zap.Int("tiles", len(tiles)),
	)

	if g.cache != nil {
		g.cache.Put(key, tiles)
	}
	return tiles, nil
}

// Tiles returns the boundary-valid tiles that satisfy focus. A nil focus
// returns the whole grid. The result matches GenerateTiles with the same
// arguments.
func (g *Generator) Tiles(focus *Focus) ([]Tile, error) {
	grid, err := g.Grid()
	if err != nil {
		return nil, err
	}
	return Filter(grid, focus), nil
}
