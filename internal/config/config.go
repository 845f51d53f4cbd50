package config

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the immutable run configuration. It is loaded once and passed by value.
type Config struct {
	LogLevel         string        `json:"logLevel" mapstructure:"logLevel"`
	LogFormat        string        `json:"logFormat" mapstructure:"logFormat"`
	MetricsAddr      string        `json:"metricsAddr" mapstructure:"metricsAddr"`
	TimeSpan         string        `json:"timeSpan" mapstructure:"timeSpan"`
	SpanStart        int64         `json:"spanStart" mapstructure:"spanStart"`
	SpanEnd          int64         `json:"spanEnd" mapstructure:"spanEnd"`
	Pools            []string      `json:"pools" mapstructure:"pools"`
	ChainDepth       int           `json:"chainDepth" mapstructure:"chainDepth"`
	HorizonStep      int64         `json:"horizonStep" mapstructure:"horizonStep"`
	Workers          int           `json:"workers" mapstructure:"workers"`
	CEXSpreadSeconds int           `json:"cexSpreadSeconds" mapstructure:"cexSpreadSeconds"`
	OutputDir        string        `json:"outputDir" mapstructure:"outputDir"`
	Input            InputConfig   `json:"input" mapstructure:"input"`
	Storage          StorageConfig `json:"storage" mapstructure:"storage"`
}

type InputConfig struct {
	DEXPath      string `json:"dexPath" mapstructure:"dexPath"`
	MetadataPath string `json:"metadataPath" mapstructure:"metadataPath"`
	CEXPath      string `json:"cexPath" mapstructure:"cexPath"`
}

type StorageConfig struct {
	Backend       string `json:"backend" mapstructure:"backend"` // memory | sql
	PostgresDSN   string `json:"postgresDSN" mapstructure:"postgresDSN"`
	ClickHouseDSN string `json:"clickHouseDSN" mapstructure:"clickHouseDSN"`
	PebbleDir     string `json:"pebbleDir" mapstructure:"pebbleDir"`
}

const (
	BackendMemory = "memory"
	BackendSQL    = "sql"
)

// TimeSpan is a [Start, End) window of unix seconds.
type TimeSpan struct {
	Name  string
	Start int64
	End   int64
}

// Contains reports whether ts falls inside the span.
func (s TimeSpan) Contains(ts int64) bool {
	return ts >= s.Start && ts < s.End
}

// Named research windows.
var spans = map[string]TimeSpan{
	"demo":  {Name: "demo", Start: 1655593200, End: 1658185200},
	"span1": {Name: "span1", Start: 1640995200, End: 1656633600},
	"span2": {Name: "span2", Start: 1648771200, End: 1664582400},
}

// Span resolves the configured time span. "custom" uses SpanStart and SpanEnd.
func (c Config) Span() (TimeSpan, error) {
	if c.TimeSpan == "custom" {
		if c.SpanEnd <= c.SpanStart {
			return TimeSpan{}, errors.Join(ErrInvalidConfig, fmt.Errorf("custom span end %d <= start %d", c.SpanEnd, c.SpanStart))
		}
		return TimeSpan{Name: "custom", Start: c.SpanStart, End: c.SpanEnd}, nil
	}

	span, ok := spans[c.TimeSpan]
	if !ok {
		return TimeSpan{}, errors.Join(ErrInvalidConfig, fmt.Errorf("unknown time span: %s", c.TimeSpan))
	}
	return span, nil
}

// Validate checks the invariants the pipeline relies on.
func (c Config) Validate() error {
	if len(c.Pools) != 2 {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("exactly two pools required, got %d", len(c.Pools)))
	}
	if c.Pools[0] == c.Pools[1] {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("pools must differ: %s", c.Pools[0]))
	}
	if c.ChainDepth < 2 {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("chain depth must be >= 2, got %d", c.ChainDepth))
	}
	if c.HorizonStep <= 0 {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("horizon step must be > 0, got %d", c.HorizonStep))
	}
	if c.Workers <= 0 {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("workers must be > 0, got %d", c.Workers))
	}
	if c.CEXSpreadSeconds <= 0 {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("cex spread must be > 0, got %d", c.CEXSpreadSeconds))
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQL:
		if c.Storage.PostgresDSN == "" || c.Storage.ClickHouseDSN == "" || c.Storage.PebbleDir == "" {
			return errors.Join(ErrInvalidConfig, errors.New("sql backend requires postgresDSN, clickHouseDSN and pebbleDir"))
		}
	default:
		return errors.Join(ErrInvalidConfig, fmt.Errorf("unknown storage backend: %s", c.Storage.Backend))
	}

	_, err := c.Span()
	return err
}

// OtherPool returns the configured pool that is not poolID.
func (c Config) OtherPool(poolID string) (string, bool) {
	switch poolID {
	case c.Pools[0]:
		return c.Pools[1], true
	case c.Pools[1]:
		return c.Pools[0], true
	}
	return "", false
}
