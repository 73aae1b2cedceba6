package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, time.RFC3339, cfg.Log.TimeFormat)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Empty(t, cfg.Resources.CMapDir)
	assert.Empty(t, cfg.Server.Listen)
	assert.Equal(t, 0, cfg.Fulltext.MaxPages)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
resources:
  cmap_dir: /usr/share/pdfworker/cmaps
  font_dir: /usr/share/pdfworker/fonts
server:
  listen: ":8090"
  cors_origins:
    - https://app.example
fulltext:
  max_pages: 20
`), 0o644))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Equal(t, ResourcesConfig{
		CMapDir: "/usr/share/pdfworker/cmaps",
		FontDir: "/usr/share/pdfworker/fonts",
	}, cfg.Resources)
	assert.Equal(t, ":8090", cfg.Server.Listen)
	assert.Equal(t, []string{"https://app.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 20, cfg.Fulltext.MaxPages)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PDFWORKER_LOG_LEVEL", "warn")
	t.Setenv("PDFWORKER_RESOURCES_FONT_DIR", "/fonts")
	t.Setenv("PDFWORKER_FULLTEXT_MAX_PAGES", "3")

	cfg, err := LoadFrom(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/fonts", cfg.Resources.FontDir)
	assert.Equal(t, 3, cfg.Fulltext.MaxPages)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Log: LogConfig{Level: "info", Format: "console"}}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "json format", mutate: func(c *Config) { c.Log.Format = "JSON" }},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{name: "negative pages", mutate: func(c *Config) { c.Fulltext.MaxPages = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}

	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrNilConfig)
}

func TestValidateStdio(t *testing.T) {
	for _, out := range []string{"", "stderr", "/var/log/pdfworker.log"} {
		cfg := &Config{Log: LogConfig{Output: out}}
		assert.NoError(t, cfg.ValidateStdio(), out)
	}

	cfg := &Config{Log: LogConfig{Output: "STDOUT"}}
	assert.ErrorIs(t, cfg.ValidateStdio(), ErrInvalidConfig)

	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.ValidateStdio(), ErrNilConfig)
}

func TestGetLoggerConfig(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "debug", Format: "json", TimeFormat: time.Kitchen, Output: "stdout"}}
	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, time.Kitchen, lc.TimeFormat)
	assert.Equal(t, "stdout", lc.Output)
}
