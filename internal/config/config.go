package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/rshade/copycat/internal/instructions"
	"github.com/rshade/copycat/internal/logging"
	"github.com/rshade/copycat/internal/reshape"
)

// Environment variables that override file configuration.
const (
	EnvLogLevel  = "COPYCAT_LOG_LEVEL"
	EnvLogFormat = "COPYCAT_LOG_FORMAT"
	EnvBatchSize = "COPYCAT_BATCH_SIZE"
)

// Defaults, taken from the generation settings of the original tool.
const (
	DefaultVersions    = 1
	DefaultBatchSize   = 15
	DefaultConcurrency = 1
	minBatchSize       = 1
	maxBatchSize       = 1000
)

// Config is the complete copycat configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Generation GenerationConfig `yaml:"generation"`
	Batch      BatchConfig      `yaml:"batch"`
}

// LoggingConfig controls log level, format and destination.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// GenerationConfig controls how the request table is built.
type GenerationConfig struct {
	// Versions is the number of ad versions requested per keyword group.
	Versions int `yaml:"versions"`

	// AdFormat names the ad format whose slot limits generated ads must respect.
	AdFormat string `yaml:"ad_format"`

	// InstructionOrder is "specificity" (default) or "lexical".
	InstructionOrder string `yaml:"instruction_order"`
}

// BatchConfig controls how request rows are handed to the generator.
type BatchConfig struct {
	Size int `yaml:"size"`

	// LimitRows caps the number of request rows processed; 0 processes all rows.
	LimitRows int `yaml:"limit_rows"`

	Concurrency int `yaml:"concurrency"`

	// RequestsPerSecond limits how often a batch is sent; 0 disables the limit.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
		Generation: GenerationConfig{
			Versions:         DefaultVersions,
			AdFormat:         reshape.ResponsiveSearchAd,
			InstructionOrder: instructions.OrderSpecificity.String(),
		},
		Batch: BatchConfig{
			Size:        DefaultBatchSize,
			Concurrency: DefaultConcurrency,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (when path is
// not empty) and with environment overrides, then validates the result.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := New()
	if path != "" {
		if err := ShallowMergeYAML(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	logger.Debug().
		Str("component", "config").
		Str("operation", "load").
		Str("path", path).
		Int("versions", cfg.Generation.Versions).
		Int("batch_size", cfg.Batch.Size).
		Msg("configuration loaded")

	return cfg, nil
}

// ApplyEnv applies environment overrides read through lookupEnv.
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookupEnv(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := lookupEnv(EnvBatchSize); ok && v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvBatchSize, v)
		}
		c.Batch.Size = size
	}
	return nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Generation.Versions < 1 {
		return fmt.Errorf("%w: generation.versions must be >= 1, got %d", ErrInvalidConfig, c.Generation.Versions)
	}
	if _, err := reshape.LookupFormat(c.Generation.AdFormat); err != nil {
		return fmt.Errorf("%w: generation.ad_format: %w", ErrInvalidConfig, err)
	}
	if _, err := instructions.ParseOrder(c.Generation.InstructionOrder); err != nil {
		return fmt.Errorf("%w: generation.instruction_order: %w", ErrInvalidConfig, err)
	}
	if c.Batch.Size < minBatchSize || c.Batch.Size > maxBatchSize {
		return fmt.Errorf("%w: batch.size must be between %d and %d, got %d",
			ErrInvalidConfig, minBatchSize, maxBatchSize, c.Batch.Size)
	}
	if c.Batch.LimitRows < 0 {
		return fmt.Errorf("%w: batch.limit_rows must be >= 0, got %d", ErrInvalidConfig, c.Batch.LimitRows)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("%w: batch.concurrency must be >= 1, got %d", ErrInvalidConfig, c.Batch.Concurrency)
	}
	if c.Batch.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: batch.requests_per_second must be >= 0, got %g",
			ErrInvalidConfig, c.Batch.RequestsPerSecond)
	}
	switch c.Logging.Format {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: logging.format must be %q or %q, got %q",
			ErrInvalidConfig, logging.FormatConsole, logging.FormatJSON, c.Logging.Format)
	}
	return nil
}

// Order returns the parsed instruction order. Validate guarantees it parses.
func (g GenerationConfig) Order() instructions.Order {
	order, err := instructions.ParseOrder(g.InstructionOrder)
	if err != nil {
		return instructions.OrderSpecificity
	}
	return order
}

// Format returns the configured ad format. Validate guarantees it exists.
func (g GenerationConfig) Format() reshape.Format {
	f, err := reshape.LookupFormat(g.AdFormat)
	if err != nil {
		f, _ = reshape.LookupFormat(reshape.ResponsiveSearchAd)
	}
	return f
}
