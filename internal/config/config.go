package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/akashicode/pdfworker/internal/logger"
)

// EnvPrefix prefixes every environment override, e.g. PDFWORKER_LOG_LEVEL.
const EnvPrefix = "PDFWORKER"

var (
	// ErrNilConfig is returned when a nil Config is provided.
	ErrNilConfig = errors.New("config is nil")
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Resources ResourcesConfig `mapstructure:"resources"`
	Server    ServerConfig    `mapstructure:"server"`
	Fulltext  FulltextConfig  `mapstructure:"fulltext"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
	Output     string `mapstructure:"output"`
}

// ResourcesConfig points at local copies of the character maps and standard
// fonts. Either directory may be empty.
type ResourcesConfig struct {
	CMapDir string `mapstructure:"cmap_dir"`
	FontDir string `mapstructure:"font_dir"`
}

// ServerConfig configures the websocket worker.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// FulltextConfig holds defaults of the fulltext command.
type FulltextConfig struct {
	// MaxPages limits extraction; 0 means all pages.
	MaxPages int `mapstructure:"max_pages"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.time_format", time.RFC3339)
	v.SetDefault("log.output", "stderr")
	v.SetDefault("resources.cmap_dir", "")
	v.SetDefault("resources.font_dir", "")
	v.SetDefault("server.listen", "")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("fulltext.max_pages", 0)
}

// BindEnv makes v read PDFWORKER_* variables, with "." in keys replaced by "_".
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the Viper-populated config into a Config struct.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log.format %q (want console or json)", ErrInvalidConfig, c.Log.Format)
	}
	if c.Fulltext.MaxPages < 0 {
		return fmt.Errorf("%w: fulltext.max_pages must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ValidateStdio checks that logging stays off stdout, which carries the
// protocol when the worker runs without a listen address.
func (c *Config) ValidateStdio() error {
	if c == nil {
		return ErrNilConfig
	}
	if strings.EqualFold(c.Log.Output, "stdout") {
		return fmt.Errorf("%w: log.output stdout conflicts with the stdio worker (use stderr, a file, or server.listen)", ErrInvalidConfig)
	}
	return nil
}

// GetLoggerConfig converts the log section for logger.Setup.
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		TimeFormat: c.Log.TimeFormat,
		Output:     c.Log.Output,
	}
}
