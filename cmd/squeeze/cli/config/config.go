package config

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Configuration keys shared by flags, environment and the config file.
const (
	KeyProgress     = "progress"
	KeyFormat       = "compress.format"
	KeyLevel        = "compress.level"
	KeyBlockSize    = "compress.block-size"
	KeyStreamBlocks = "compress.stream-blocks"
	KeyMetricsFile  = "metrics.file"
)

// Progress modes.
const (
	ProgressAuto  = "auto"
	ProgressTTY   = "tty"
	ProgressPlain = "plain"
	ProgressNone  = "none"
)

// Config represents the squeeze CLI configuration.
// Use mapstructure tags for Viper unmarshaling.
type Config struct {
	Progress string         `mapstructure:"progress"`
	Compress CompressConfig `mapstructure:"compress"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// CompressConfig holds encoder settings.
type CompressConfig struct {
	Format       string `mapstructure:"format"`
	Level        int    `mapstructure:"level"`
	BlockSize    string `mapstructure:"block-size"`
	StreamBlocks int    `mapstructure:"stream-blocks"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	// File is a Prometheus textfile written after compression. Empty disables it.
	File string `mapstructure:"file"`
}

// Defaults returns the default configuration as nested maps, suitable for
// viper.SetDefault and for writing a fresh config file.
func Defaults() map[string]any {
	return map[string]any{
		"progress": ProgressAuto,
		"compress": map[string]any{
			"format":        "gzip",
			"level":         0,
			"block-size":    "1MiB",
			"stream-blocks": 0,
		},
	}
}

// SetDefaults registers Defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyProgress, ProgressAuto)
	v.SetDefault(KeyFormat, "gzip")
	v.SetDefault(KeyLevel, 0)
	v.SetDefault(KeyBlockSize, "1MiB")
	v.SetDefault(KeyStreamBlocks, 0)
	v.SetDefault(KeyMetricsFile, "")
}

// Load unmarshals the effective configuration from v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	switch cfg.Progress {
	case ProgressAuto, ProgressTTY, ProgressPlain, ProgressNone:
	default:
		return Config{}, fmt.Errorf("invalid progress mode %q (expected auto, tty, plain, or none)", cfg.Progress)
	}
	return cfg, nil
}

// BlockSizeBytes parses BlockSize, which accepts plain byte counts and
// humanized sizes such as "64KiB" or "4MB".
func (c CompressConfig) BlockSizeBytes() (int, error) {
	n, err := humanize.ParseBytes(c.BlockSize)
	if err != nil {
		return 0, fmt.Errorf("invalid block size %q: %w", c.BlockSize, err)
	}
	if n == 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("invalid block size %q: must be between 1 byte and 2GiB", c.BlockSize)
	}
	return int(n), nil
}
