// Package metrics defines the Prometheus collectors for hex grid generation
// and the surge overlay lifecycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons for TilesSkipped.
const (
	ReasonProjection = "projection"
	ReasonBoundary   = "boundary"
)

// Primitive kinds for MissingPrimitives.
const (
	KindLayer  = "layer"
	KindSource = "source"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	TilesGenerated    prometheus.Counter
	TilesSkipped      *prometheus.CounterVec
	GridCacheHits     prometheus.Counter
	GridCacheMisses   prometheus.Counter
	ZoneLoads         prometheus.Counter
	OverlaysActive    prometheus.Gauge
	OverlaysRemoved   prometheus.Counter
	MissingPrimitives *prometheus.CounterVec
	ZoneLoadSeconds   prometheus.Histogram
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which is what tests usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TilesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hexzone_tiles_generated_total",
			Help: "Hex tiles that passed the boundary test and were fully projected",
		}),
		TilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hexzone_tiles_skipped_total",
			Help: "Grid positions dropped before becoming a tile",
		}, []string{"reason"}),
		GridCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hexzone_grid_cache_hits_total",
			Help: "Boundary grid cache hits",
		}),
		GridCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hexzone_grid_cache_misses_total",
			Help: "Boundary grid cache misses",
		}),
		ZoneLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hexzone_zone_loads_total",
			Help: "Completed surge zone loads",
		}),
		OverlaysActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hexzone_overlays_active",
			Help: "Source/layer pairs currently registered on the map",
		}),
		OverlaysRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hexzone_overlays_removed_total",
			Help: "Source/layer pairs torn down",
		}),
		MissingPrimitives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hexzone_missing_primitives_total",
			Help: "Removals of ids the map did not recognize",
		}, []string{"kind"}),
		ZoneLoadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hexzone_zone_load_seconds",
			Help:    "Wall time of a full teardown and rebuild",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.TilesGenerated,
			m.TilesSkipped,
			m.GridCacheHits,
			m.GridCacheMisses,
			m.ZoneLoads,
			m.OverlaysActive,
			m.OverlaysRemoved,
			m.MissingPrimitives,
			m.ZoneLoadSeconds,
		)
	}
	return m
}

// TilesBuilt records n generated tiles.
func (m *Metrics) TilesBuilt(n int) {
	if m == nil {
		return
	}
	m.TilesGenerated.Add(float64(n))
}

// TileSkipped records a dropped grid position.
func (m *Metrics) TileSkipped(reason string) {
	if m == nil {
		return
	}
	m.TilesSkipped.WithLabelValues(reason).Inc()
}

// CacheLookup records a grid cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.GridCacheHits.Inc()
	} else {
		m.GridCacheMisses.Inc()
	}
}

// OverlayRemoved records one torn-down source/layer pair.
func (m *Metrics) OverlayRemoved() {
	if m == nil {
		return
	}
	m.OverlaysRemoved.Inc()
}

// PrimitiveMissing records a removal the map did not recognize.
func (m *Metrics) PrimitiveMissing(kind string) {
	if m == nil {
		return
	}
	m.MissingPrimitives.WithLabelValues(kind).Inc()
}

// ZoneLoaded records a completed zone load.
func (m *Metrics) ZoneLoaded(elapsed time.Duration, active int) {
	if m == nil {
		return
	}
	m.ZoneLoads.Inc()
	m.OverlaysActive.Set(float64(active))
	m.ZoneLoadSeconds.Observe(elapsed.Seconds())
}
