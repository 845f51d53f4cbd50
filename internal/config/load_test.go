package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load(t *testing.T) {
	t.Run("default load", func(t *testing.T) {
		// given
		expectedConfig := getDefaultConfig()

		// when
		actualConfig, err := Load()
		require.NoError(t, err, "error loading config")

		// then
		assert.Equal(t, *expectedConfig, actualConfig)
		assert.NoError(t, actualConfig.Validate())
	})

	t.Run("partial file override", func(t *testing.T) {
		// given
		dir := t.TempDir()
		content := []byte("logLevel: DEBUG\ntimeSpan: span1\nhorizonStep: 25\nstorage:\n  backend: memory\n  pebbleDir: /tmp/pebble\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

		// when
		actualConfig, err := Load(dir)
		require.NoError(t, err, "error loading config")

		// then
		assert.Equal(t, "DEBUG", actualConfig.LogLevel)
		assert.Equal(t, "span1", actualConfig.TimeSpan)
		assert.Equal(t, int64(25), actualConfig.HorizonStep)
		assert.Equal(t, "/tmp/pebble", actualConfig.Storage.PebbleDir)
		// not overridden
		assert.Equal(t, 4, actualConfig.ChainDepth)
		assert.Equal(t, []string{"500", "3000"}, actualConfig.Pools)
	})

	t.Run("env override", func(t *testing.T) {
		// given
		t.Setenv("SPILLOVER_WORKERS", "3")
		t.Setenv("SPILLOVER_STORAGE_BACKEND", "sql")

		// when
		actualConfig, err := Load()
		require.NoError(t, err)

		// then
		assert.Equal(t, 3, actualConfig.Workers)
		assert.Equal(t, BackendSQL, actualConfig.Storage.Backend)
		assert.ErrorIs(t, actualConfig.Validate(), ErrInvalidConfig)
	})

	t.Run("missing config dir", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent"))
		assert.ErrorIs(t, err, ErrConfigPath)
	})
}

func TestConfig_Span(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantStart int64
		wantErr   bool
	}{
		{name: "demo", cfg: Config{TimeSpan: "demo"}, wantStart: 1655593200},
		{name: "span2", cfg: Config{TimeSpan: "span2"}, wantStart: 1648771200},
		{name: "custom", cfg: Config{TimeSpan: "custom", SpanStart: 10, SpanEnd: 20}, wantStart: 10},
		{name: "custom inverted", cfg: Config{TimeSpan: "custom", SpanStart: 20, SpanEnd: 10}, wantErr: true},
		{name: "unknown", cfg: Config{TimeSpan: "span9"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, err := tt.cfg.Span()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, span.Start)
			assert.True(t, span.Contains(tt.wantStart))
			assert.False(t, span.Contains(span.End))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := *getDefaultConfig()

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "one pool", mutate: func(c *Config) { c.Pools = []string{"500"} }},
		{name: "same pools", mutate: func(c *Config) { c.Pools = []string{"500", "500"} }},
		{name: "shallow chain", mutate: func(c *Config) { c.ChainDepth = 1 }},
		{name: "zero step", mutate: func(c *Config) { c.HorizonStep = 0 }},
		{name: "no workers", mutate: func(c *Config) { c.Workers = 0 }},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "redis" }},
	}

	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Pools = append([]string(nil), valid.Pools...)
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_OtherPool(t *testing.T) {
	cfg := *getDefaultConfig()

	other, ok := cfg.OtherPool("500")
	assert.True(t, ok)
	assert.Equal(t, "3000", other)

	_, ok = cfg.OtherPool("10000")
	assert.False(t, ok)
}
