package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/hexzone/internal/geo"
	"github.com/sells-group/hexzone/internal/hexgrid"
	"github.com/sells-group/hexzone/internal/projection"
)

// Config holds the full application configuration.
type Config struct {
	Map    MapConfig    `yaml:"map" mapstructure:"map"`
	Grid   GridConfig   `yaml:"grid" mapstructure:"grid"`
	Surge  SurgeConfig  `yaml:"surge" mapstructure:"surge"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// MapConfig describes the camera the grid is generated for.
type MapConfig struct {
	CenterLat float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLon float64 `yaml:"center_lon" mapstructure:"center_lon"`
	Zoom      float64 `yaml:"zoom" mapstructure:"zoom"`
	Width     float64 `yaml:"width" mapstructure:"width"`
	Height    float64 `yaml:"height" mapstructure:"height"`
	TileSize  float64 `yaml:"tile_size" mapstructure:"tile_size"`
}

// Center returns the configured map center.
func (m MapConfig) Center() geo.GeoPoint {
	return geo.GeoPoint{Lat: m.CenterLat, Lon: m.CenterLon}
}

// GridConfig configures hex generation and the grid cache.
type GridConfig struct {
	HexSize   float64       `yaml:"hex_size" mapstructure:"hex_size"`
	CacheSize int           `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// SurgeConfig configures the zone catalog and overlay styling. Empty paths
// select the built-in San Francisco data.
type SurgeConfig struct {
	CatalogPath  string `yaml:"catalog_path" mapstructure:"catalog_path"`
	BoundaryPath string `yaml:"boundary_path" mapstructure:"boundary_path"`
	FillColor    string `yaml:"fill_color" mapstructure:"fill_color"`
	StartIndex   int    `yaml:"start_index" mapstructure:"start_index"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         int      `yaml:"port" mapstructure:"port"`
	AdvanceRPS   float64  `yaml:"advance_rps" mapstructure:"advance_rps"`
	AdvanceBurst int      `yaml:"advance_burst" mapstructure:"advance_burst"`
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HEXZONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("map.center_lat", 37.7749)
	v.SetDefault("map.center_lon", -122.4194)
	v.SetDefault("map.zoom", 11.9)
	v.SetDefault("map.width", 375)
	v.SetDefault("map.height", 667)
	v.SetDefault("map.tile_size", projection.DefaultTileSize)
	v.SetDefault("grid.hex_size", 12)
	v.SetDefault("grid.cache_size", 16)
	v.SetDefault("grid.cache_ttl", "0s")
	v.SetDefault("surge.catalog_path", "")
	v.SetDefault("surge.boundary_path", "")
	v.SetDefault("surge.fill_color", "#800080")
	v.SetDefault("surge.start_index", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.advance_rps", 2)
	v.SetDefault("server.advance_burst", 4)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings every command needs, plus the server
// settings when mode is "serve". Failures wrap geo.ErrInvalidArgument.
func (c *Config) Validate(mode string) error {
	switch mode {
	case "serve", "render", "grid":
	default:
		return eris.Wrapf(geo.ErrInvalidArgument, "config: unknown mode %q", mode)
	}

	var problems []string
	if !c.Map.Center().IsValid() {
		problems = append(problems, "map.center_lat/center_lon out of range")
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 24 {
		problems = append(problems, "map.zoom must be between 0 and 24")
	}
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		problems = append(problems, "map.width and map.height must be > 0")
	}
	if c.Map.TileSize <= 0 {
		problems = append(problems, "map.tile_size must be > 0")
	}
	if err := hexgrid.ValidateHexSize(c.Grid.HexSize); err != nil {
		problems = append(problems, "grid.hex_size must be positive and finite")
	}
	if c.Grid.CacheSize < 1 {
		problems = append(problems, "grid.cache_size must be >= 1")
	}
	if c.Grid.CacheTTL < 0 {
		problems = append(problems, "grid.cache_ttl must be >= 0")
	}
	if c.Surge.FillColor == "" {
		problems = append(problems, "surge.fill_color is required")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		if c.Server.AdvanceRPS <= 0 {
			problems = append(problems, "server.advance_rps must be > 0")
		}
		if c.Server.AdvanceBurst < 1 {
			problems = append(problems, "server.advance_burst must be >= 1")
		}
	}

	if len(problems) > 0 {
		return eris.Wrapf(geo.ErrInvalidArgument, "config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
