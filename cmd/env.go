package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hexzone/internal/config"
	"github.com/sells-group/hexzone/internal/dataset"
	"github.com/sells-group/hexzone/internal/hexgrid"
	"github.com/sells-group/hexzone/internal/metrics"
	"github.com/sells-group/hexzone/internal/projection"
	"github.com/sells-group/hexzone/internal/render"
	"github.com/sells-group/hexzone/internal/surge"
)

// surgeEnv holds the initialized components shared by every command.
type surgeEnv struct {
	Camera    *projection.Camera
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Generator *hexgrid.Generator
	Style     *render.Style
	Manager   *surge.Manager
}

// initSurge builds the camera, loads the boundary and catalog, and wires the
// generator, style and manager together. Nothing is rendered yet.
func initSurge(c *config.Config) (*surgeEnv, error) {
	log := zap.L().With(zap.String("component", "init"))

	cam, err := projection.NewCamera(c.Map.Center(), c.Map.Zoom, c.Map.Width, c.Map.Height, c.Map.TileSize)
	if err != nil {
		return nil, eris.Wrap(err, "init: camera")
	}

	boundary, err := dataset.LoadBoundary(c.Surge.BoundaryPath)
	if err != nil {
		return nil, err
	}
	catalog, err := dataset.LoadCatalog(c.Surge.CatalogPath)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cache := hexgrid.NewGridCache(c.Grid.CacheSize, c.Grid.CacheTTL)
	gen, err := hexgrid.NewGenerator(cam,
		hexgrid.Viewport{Width: c.Map.Width, Height: c.Map.Height},
		c.Grid.HexSize,
		boundary,
		hexgrid.WithCache(cache, cam.String()),
		hexgrid.WithMetrics(m),
	)
	if err != nil {
		return nil, eris.Wrap(err, "init: generator")
	}

	style := render.NewStyle()
	mgr, err := surge.NewManager(catalog, gen, style,
		surge.WithFillColor(c.Surge.FillColor),
		surge.WithStartIndex(c.Surge.StartIndex),
		surge.WithMetrics(m),
	)
	if err != nil {
		return nil, eris.Wrap(err, "init: manager")
	}

	log.Info("surge environment ready",
		zap.String("camera", cam.String()),
		zap.Int("boundary_vertices", len(boundary)),
		zap.Int("zones", len(catalog)),
		zap.Float64("hex_size", c.Grid.HexSize),
	)

	return &surgeEnv{
		Camera:    cam,
		Registry:  reg,
		Metrics:   m,
		Generator: gen,
		Style:     style,
		Manager:   mgr,
	}, nil
}

// writeJSON writes v to path, or to stdout when path is empty or "-".
func writeJSON(stdout io.Writer, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode geojson")
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = stdout.Write(data)
		return eris.Wrap(err, "write stdout")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	zap.L().Info("wrote geojson", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}
