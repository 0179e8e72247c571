package config

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Interpolate InterpolateConfig `yaml:"interpolate" mapstructure:"interpolate"`
	Estimate    EstimateConfig    `yaml:"estimate" mapstructure:"estimate"`
	Export      ExportConfig      `yaml:"export" mapstructure:"export"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// InputConfig lists the source tables consumed by the pipeline.
type InputConfig struct {
	Income        string `yaml:"income" mapstructure:"income"`
	Resale        string `yaml:"resale" mapstructure:"resale"`
	ResaleCoords  string `yaml:"resale_coords" mapstructure:"resale_coords"`
	Private       string `yaml:"private" mapstructure:"private"`
	PublicPrices  string `yaml:"public_prices" mapstructure:"public_prices"`
	PrivatePrices string `yaml:"private_prices" mapstructure:"private_prices"`
	Density       string `yaml:"density" mapstructure:"density"`
}

// OutputConfig names the tables written by the pipeline.
type OutputConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	Cumulative   string `yaml:"cumulative" mapstructure:"cumulative"`
	Interpolated string `yaml:"interpolated" mapstructure:"interpolated"`
	Estimated    string `yaml:"estimated" mapstructure:"estimated"`
}

// Path joins a file name onto the output directory.
func (o OutputConfig) Path(name string) string {
	if o.Dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(o.Dir, name)
}

// InterpolateConfig configures the IDW interpolator.
type InterpolateConfig struct {
	Neighbors int     `yaml:"neighbors" mapstructure:"neighbors"`
	Power     float64 `yaml:"power" mapstructure:"power"`
	Epsilon   float64 `yaml:"epsilon" mapstructure:"epsilon"`
	Workers   int     `yaml:"workers" mapstructure:"workers"`
}

// EstimateConfig configures income assignment.
type EstimateConfig struct {
	Seed           uint64 `yaml:"seed" mapstructure:"seed"` // 0 = seed from clock
	FallbackRegion string `yaml:"fallback_region" mapstructure:"fallback_region"`
	PolicyFile     string `yaml:"policy_file" mapstructure:"policy_file"`
}

// ExportConfig configures optional GIS exports.
type ExportConfig struct {
	Shapefile string `yaml:"shapefile" mapstructure:"shapefile"`
}

// ServerConfig configures the read API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("INCOME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "income.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("input.income", "raw/income.csv")
	v.SetDefault("input.resale", "raw/hdb_resale.csv")
	v.SetDefault("input.resale_coords", "raw/hdb_addresses.csv")
	v.SetDefault("input.private", "raw/private_transactions.csv")
	v.SetDefault("input.public_prices", "processed/hdb_property_prices.csv")
	v.SetDefault("input.private_prices", "processed/private_property_prices.csv")
	v.SetDefault("input.density", "processed/population_density.csv")
	v.SetDefault("output.dir", "processed")
	v.SetDefault("output.cumulative", "cumulative_income.csv")
	v.SetDefault("output.interpolated", "interpolated_combined.csv")
	v.SetDefault("output.estimated", "estimated_income.csv")
	v.SetDefault("interpolate.neighbors", 30)
	v.SetDefault("interpolate.power", 2.0)
	v.SetDefault("interpolate.epsilon", 1e-10)
	v.SetDefault("interpolate.workers", 0)
	v.SetDefault("estimate.seed", 0)
	v.SetDefault("estimate.fallback_region", "others")
	v.SetDefault("estimate.policy_file", "")
	v.SetDefault("export.shapefile", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Interpolate.Neighbors <= 0 {
		return eris.Errorf("config: interpolate.neighbors must be positive, got %d", c.Interpolate.Neighbors)
	}
	if c.Interpolate.Power <= 0 {
		return eris.Errorf("config: interpolate.power must be positive, got %g", c.Interpolate.Power)
	}
	if c.Interpolate.Epsilon <= 0 {
		return eris.Errorf("config: interpolate.epsilon must be positive, got %g", c.Interpolate.Epsilon)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return eris.Errorf("config: unsupported log format %q", c.Log.Format)
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
