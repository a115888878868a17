// Package server exposes the rendered surge overlay to a web map client and
// forwards advance requests to the surge event loop.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/hexzone/internal/hexgrid"
	"github.com/sells-group/hexzone/internal/render"
	"github.com/sells-group/hexzone/internal/surge"
)

// Submitter delivers events to the surge manager. *surge.Loop implements it.
type Submitter interface {
	Submit(ctx context.Context, ev surge.Event) error
}

// StateReader reports the manager state. *surge.Manager implements it.
type StateReader interface {
	State() surge.State
}

// StyleReader reads the rendered map style. *render.Style implements it.
type StyleReader interface {
	Source(id string) (*geojson.FeatureCollection, bool)
	Layers() []render.FillLayer
	Snapshot() *geojson.FeatureCollection
}

// GridSource returns the unfiltered boundary grid. *hexgrid.Generator
// implements it.
type GridSource interface {
	Grid() ([]hexgrid.Tile, error)
}

// CacheStatter reports grid cache statistics. *hexgrid.GridCache implements it.
type CacheStatter interface {
	Stats() hexgrid.CacheStats
}

// Options configures the HTTP surface.
type Options struct {
	AdvanceRPS   float64
	AdvanceBurst int
	CORSOrigins  []string
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// GridCache backs /api/grid/stats. Nil disables the endpoint.
	GridCache CacheStatter
}

// Server wires the handlers.
type Server struct {
	events  Submitter
	state   StateReader
	style   StyleReader
	grid    GridSource
	limiter *rate.Limiter
	opts    Options
}

// New creates a server. Zero rate settings disable advance rate limiting.
func New(events Submitter, state StateReader, style StyleReader, grid GridSource, opts Options) *Server {
	limit := rate.Inf
	if opts.AdvanceRPS > 0 {
		limit = rate.Limit(opts.AdvanceRPS)
	}
	burst := opts.AdvanceBurst
	if burst < 1 {
		burst = 1
	}
	return &Server{
		events:  events,
		state:   state,
		style:   style,
		grid:    grid,
		limiter: rate.NewLimiter(limit, burst),
		opts:    opts,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/layers", s.handleLayers)
		r.Get("/sources/{id}", s.handleSource)
		r.Get("/style", s.handleStyle)
		r.Get("/grid", s.handleGrid)
		if s.opts.GridCache != nil {
			r.Get("/grid/stats", s.handleGridStats)
		}
		r.Post("/advance", s.handleAdvance)
	})

	return r
}

// ListenAndServe serves on port until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.State())
}

func (s *Server) handleLayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.style.Layers())
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fc, ok := s.style.Source(id)
	if !ok {
		writeError(w, http.StatusNotFound, "source not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

func (s *Server) handleStyle(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.style.Snapshot())
}

func (s *Server) handleGrid(w http.ResponseWriter, _ *http.Request) {
	tiles, err := s.grid.Grid()
	if err != nil {
		zap.L().Error("server: grid generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "grid unavailable")
		return
	}
	writeJSON(w, http.StatusOK, render.NewPolygonCollection(hexgrid.Rings(tiles), nil))
}

func (s *Server) handleGridStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.GridCache.Stats())
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "advance rate limited")
		return
	}

	err := s.events.Submit(r.Context(), surge.EventAdvance)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.state.State())
	case errors.Is(err, surge.ErrBusy):
		writeError(w, http.StatusConflict, "zone transition in progress")
	default:
		zap.L().Error("server: advance failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
