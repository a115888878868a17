package surge

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/hexzone/internal/geo"
	"github.com/sells-group/hexzone/internal/hexgrid"
	"github.com/sells-group/hexzone/internal/metrics"
	"github.com/sells-group/hexzone/internal/render"
)

// DefaultFillColor is the fill used for every surge layer.
const DefaultFillColor = "#800080"

// ErrBusy is returned when a transition is requested while another one is
// still running.
var ErrBusy = eris.New("surge: transition already in progress")

// TileSource yields the hex tiles around a focus point.
type TileSource interface {
	Tiles(focus *hexgrid.Focus) ([]hexgrid.Tile, error)
}

// State is a point-in-time view of the manager.
type State struct {
	Index    int      `json:"index"`
	Zone     string   `json:"zone"`
	Zones    int      `json:"zones"`
	Loaded   bool     `json:"loaded"`
	Overlays []Handle `json:"overlays"`
}

// Manager renders one zone of the catalog at a time. All transitions
// (MapLoaded, LoadZone, Advance) are serialized; a transition requested
// while another runs fails with ErrBusy instead of interleaving.
type Manager struct {
	catalog   Catalog
	bands     []Band
	tiles     TileSource
	adapter   render.Adapter
	fillColor string
	metrics   *metrics.Metrics

	guard *semaphore.Weighted

	mu     sync.RWMutex
	index  int
	loaded bool
	active ActiveSet
}

// Option configures a Manager.
type Option func(*Manager)

// WithBands replaces the default intensity table.
func WithBands(bands []Band) Option {
	return func(m *Manager) { m.bands = bands }
}

// WithFillColor sets the layer fill color.
func WithFillColor(color string) Option {
	return func(m *Manager) { m.fillColor = color }
}

// WithStartIndex sets the zone rendered on the first map load.
func WithStartIndex(i int) Option {
	return func(m *Manager) { m.index = i }
}

// WithMetrics records lifecycle metrics on mm.
func WithMetrics(mm *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mm }
}

// NewManager validates the catalog and returns a manager with nothing
// rendered. Call MapLoaded once the map is ready.
func NewManager(catalog Catalog, tiles TileSource, adapter render.Adapter, opts ...Option) (*Manager, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if tiles == nil || adapter == nil {
		return nil, eris.Wrap(geo.ErrInvalidArgument, "surge: tile source and adapter are required")
	}

	m := &Manager{
		catalog:   catalog,
		bands:     DefaultBands(),
		tiles:     tiles,
		adapter:   adapter,
		fillColor: DefaultFillColor,
		guard:     semaphore.NewWeighted(1),
	}
	for _, o := range opts {
		o(m)
	}
	m.index = catalog.Normalize(m.index)
	return m, nil
}

// MapLoaded handles the map's first-load signal by rendering the current zone.
func (m *Manager) MapLoaded() error {
	if !m.guard.TryAcquire(1) {
		return ErrBusy
	}
	defer m.guard.Release(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(m.index)
}

// LoadZone tears down the current overlays and renders the zone at index,
// wrapped modulo the catalog length. The map counts as loaded afterwards.
func (m *Manager) LoadZone(index int) error {
	if !m.guard.TryAcquire(1) {
		return ErrBusy
	}
	defer m.guard.Release(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(index)
}

// Advance moves to the next zone, wrapping at the end of the catalog, and
// renders it. Before the map has loaded only the index moves; the zone is
// rendered by MapLoaded. It returns the new index, or -1 with ErrBusy.
func (m *Manager) Advance() (int, error) {
	if !m.guard.TryAcquire(1) {
		return -1, ErrBusy
	}
	defer m.guard.Release(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.catalog.Normalize(m.index + 1)
	if !m.loaded {
		m.index = next
		zap.L().Debug("surge: map not loaded, deferring render", zap.Int("zone_index", next))
		return next, nil
	}
	err := m.load(next)
	return m.index, err
}

// Index returns the active zone index.
func (m *Manager) Index() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index
}

// Loaded reports whether a zone has been rendered.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Active returns the live handles in registration order.
func (m *Manager) Active() []Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active.Handles()
}

// State returns a snapshot of the manager.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		Index:    m.index,
		Zone:     m.catalog[m.index].Name,
		Zones:    len(m.catalog),
		Loaded:   m.loaded,
		Overlays: m.active.Handles(),
	}
}

// load runs with guard and mu held.
func (m *Manager) load(index int) error {
	start := time.Now()
	log := zap.L().With(
		zap.String("component", "surge.manager"),
		zap.String("run_id", uuid.NewString()),
	)

	removed := m.teardown(log)

	m.index = m.catalog.Normalize(index)
	m.loaded = true
	zone := m.catalog[m.index]
	log = log.With(zap.Int("zone_index", m.index), zap.String("zone", zone.Name))

	var errs []error
	seen := make(map[OverlayKey]bool, len(zone.Points)*len(m.bands))
	for _, p := range zone.Points {
		for _, band := range m.bands {
			key := OverlayKey{Opacity: band.Opacity, Point: p}
			if seen[key] {
				log.Warn("surge: duplicate focus point, skipping", zap.String("key", key.String()))
				continue
			}
			seen[key] = true

			if err := m.register(key, band); err != nil {
				log.Error("surge: overlay not registered", zap.String("key", key.String()), zap.Error(err))
				errs = append(errs, err)
			}
		}
	}

	elapsed := time.Since(start)
	m.metrics.ZoneLoaded(elapsed, m.active.Len())
	log.Info("surge zone loaded",
		zap.Int("removed", removed),
		zap.Int("overlays", m.active.Len()),
		zap.Int("failed", len(errs)),
		zap.Duration("elapsed", elapsed),
	)

	return errors.Join(errs...)
}

// teardown removes every live overlay, layer before source, in insertion
// order. Failures are logged and never stop the remaining removals.
func (m *Manager) teardown(log *zap.Logger) int {
	n := 0
	m.active.Drain(func(h Handle) {
		if err := m.adapter.RemoveLayer(h.LayerID); err != nil {
			m.removeFailed(log, metrics.KindLayer, h.LayerID, err)
		}
		if err := m.adapter.RemoveSource(h.SourceID); err != nil {
			m.removeFailed(log, metrics.KindSource, h.SourceID, err)
		}
		m.metrics.OverlayRemoved()
		n++
	})
	return n
}

func (m *Manager) removeFailed(log *zap.Logger, kind, id string, err error) {
	if errors.Is(err, render.ErrNotFound) {
		m.metrics.PrimitiveMissing(kind)
		log.Warn("surge: map primitive already gone", zap.String("kind", kind), zap.String("id", id))
		return
	}
	log.Error("surge: remove failed", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
}

// register builds the hex set for one (focus, band) pair and adds its
// source and layer. A layer that fails to add rolls back its source so the
// map and the active set stay in step.
func (m *Manager) register(key OverlayKey, band Band) error {
	tiles, err := m.tiles.Tiles(&hexgrid.Focus{Point: key.Point, MaxDistanceMeters: band.RadiusMeters})
	if err != nil {
		return eris.Wrapf(err, "surge: tiles for %s", key)
	}

	h := NewHandle(key)
	features := render.NewPolygonCollection(hexgrid.Rings(tiles), map[string]interface{}{
		"opacity":  band.Opacity,
		"radius_m": band.RadiusMeters,
	})

	if err := m.adapter.AddSource(h.SourceID, features); err != nil {
		return eris.Wrapf(err, "surge: add source %s", h.SourceID)
	}
	layer := render.FillLayer{
		ID:          h.LayerID,
		SourceID:    h.SourceID,
		FillColor:   m.fillColor,
		FillOpacity: band.Opacity,
	}
	if err := m.adapter.AddFillLayer(layer); err != nil {
		if rmErr := m.adapter.RemoveSource(h.SourceID); rmErr != nil {
			zap.L().Warn("surge: rollback of source failed", zap.String("id", h.SourceID), zap.Error(rmErr))
		}
		return eris.Wrapf(err, "surge: add layer %s", h.LayerID)
	}

	m.active.Add(h)
	return nil
}
