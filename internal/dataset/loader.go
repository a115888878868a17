package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/hexzone/internal/geo"
	"github.com/sells-group/hexzone/internal/surge"
)

// catalogFile is the on-disk catalog layout:
//
//	zones:
//	  - name: downtown
//	    points:
//	      - {lat: 37.784, lon: -122.409}
type catalogFile struct {
	Zones []surge.Zone `yaml:"zones"`
}

// boundaryFile is the YAML boundary layout. The ring may be left open; it is
// closed on load.
type boundaryFile struct {
	Boundary []geo.GeoPoint `yaml:"boundary"`
}

// LoadCatalog reads a YAML zone catalog. An empty path returns the built-in
// catalog.
func LoadCatalog(path string) (surge.Catalog, error) {
	if path == "" {
		return Catalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read catalog %s", path)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "dataset: parse catalog")
	}

	c := surge.Catalog(f.Zones)
	if err := c.Validate(); err != nil {
		return nil, eris.Wrapf(err, "dataset: catalog %s", path)
	}

	zap.L().Info("dataset: loaded catalog", zap.String("path", path), zap.Int("zones", len(c)))
	return c, nil
}

// LoadBoundary reads a boundary polygon from a YAML file or an ESRI
// shapefile (.shp). An empty path returns the built-in boundary.
func LoadBoundary(path string) (geo.Polygon, error) {
	if path == "" {
		return Boundary(), nil
	}

	var (
		ring geo.Polygon
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		ring, err = geo.ReadShapefileBoundary(path)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: boundary %s", path)
		}
	default:
		ring, err = readYAMLBoundary(path)
		if err != nil {
			return nil, err
		}
	}

	if err := geo.ValidateBoundary(ring); err != nil {
		return nil, eris.Wrapf(err, "dataset: boundary %s", path)
	}

	zap.L().Info("dataset: loaded boundary", zap.String("path", path), zap.Int("vertices", len(ring)))
	return ring, nil
}

func readYAMLBoundary(path string) (geo.Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read boundary %s", path)
	}

	var f boundaryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "dataset: parse boundary")
	}
	return geo.Polygon(f.Boundary).Closed(), nil
}
