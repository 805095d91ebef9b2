// Package config handles mdxopt configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/multierr"
)

// Config holds all mdxopt settings.
type Config struct {
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Codec     CodecConfig     `yaml:"codec"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// OptimizerConfig holds keyframe optimizer settings.
type OptimizerConfig struct {
	Threshold           float32 `yaml:"threshold"`
	Linearize           bool    `yaml:"linearize"`
	Outside             bool    `yaml:"outside"` // range filter only
	SkipGlobalSequences bool    `yaml:"skip_global_sequences"`
}

// CodecConfig holds MDX reader and writer settings.
type CodecConfig struct {
	Strict             bool `yaml:"strict"`
	PreserveChunkOrder bool `yaml:"preserve_chunk_order"`
}

// OutputConfig controls where optimized files go.
type OutputConfig struct {
	Suffix string `yaml:"suffix"`
	Dir    string `yaml:"dir"` // empty writes next to the input
	DryRun bool   `yaml:"dry_run"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Optimizer: OptimizerConfig{
			Threshold: 0,
		},
		Codec: CodecConfig{
			Strict: true,
		},
		Output: OutputConfig{
			Suffix: "_optimized.mdx",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

var errInvalid = errors.New("invalid config")

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var err error
	if c.Output.Suffix == "" {
		err = multierr.Append(err, fmt.Errorf("%w: output.suffix is empty", errInvalid))
	}
	if strings.ContainsAny(c.Output.Suffix, `/\`) {
		err = multierr.Append(err, fmt.Errorf("%w: output.suffix %q contains a path separator", errInvalid, c.Output.Suffix))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("%w: logging.level %q", errInvalid, c.Logging.Level))
	}
	if math.IsNaN(float64(c.Optimizer.Threshold)) || math.IsInf(float64(c.Optimizer.Threshold), 0) {
		err = multierr.Append(err, fmt.Errorf("%w: optimizer.threshold %v", errInvalid, c.Optimizer.Threshold))
	}
	return err
}

// ClampThreshold resets a negative threshold to zero and reports whether it
// did.
func (c *Config) ClampThreshold() bool {
	if c.Optimizer.Threshold < 0 {
		c.Optimizer.Threshold = 0
		return true
	}
	return false
}
