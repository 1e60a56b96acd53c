// Package config handles tool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/cfrtools/internal/convert"
	"github.com/Faultbox/cfrtools/internal/logger"
	"github.com/Faultbox/cfrtools/pkg/cfr"
	"github.com/Faultbox/cfrtools/pkg/encoding"
)

// ErrInvalid is returned by Validate for settings no tool can use.
var ErrInvalid = errors.New("invalid config")

// Config holds all tool settings.
type Config struct {
	Geometry GeometryConfig `yaml:"geometry"`
	Dedup    DedupConfig    `yaml:"dedup"`
	Input    InputConfig    `yaml:"input"`
	Texture  TextureConfig  `yaml:"texture"`
	Report   ReportConfig   `yaml:"report"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GeometryConfig holds the storage type of each vertex attribute.
type GeometryConfig struct {
	Position string `yaml:"position"`
	Texcoord string `yaml:"texcoord"`
	Normal   string `yaml:"normal"`
	Tangent  string `yaml:"tangent"`
	Tangents bool   `yaml:"tangents"` // Synthesize tangents from texture coordinates
}

// DedupConfig holds vertex merging settings.
type DedupConfig struct {
	Mode      string  `yaml:"mode"` // exact or similar
	Tolerance float32 `yaml:"tolerance"`
}

// InputConfig holds settings for reading OBJ and MTL files.
type InputConfig struct {
	Encoding string `yaml:"encoding"`
}

// TextureConfig holds texture conversion settings. Zero means detect from
// the source image.
type TextureConfig struct {
	Channels int `yaml:"channels"`
	Bytes    int `yaml:"bytes"`
}

// ReportConfig holds progress and error reporting settings.
type ReportConfig struct {
	Interval time.Duration `yaml:"interval"`
	Popup    bool          `yaml:"popup"` // Show errors in message boxes
	Watch    bool          `yaml:"watch"` // Reconvert inputs when they change
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Geometry: GeometryConfig{
			Position: "float",
			Texcoord: "half",
			Normal:   "half",
			Tangent:  "half",
			Tangents: true,
		},
		Dedup: DedupConfig{
			Mode:      "exact",
			Tolerance: 1e-4,
		},
		Input: InputConfig{
			Encoding: "utf-8",
		},
		Report: ReportConfig{
			Interval: time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Layout returns the attribute storage types named by the geometry section.
func (c *Config) Layout() (cfr.Layout, error) {
	var l cfr.Layout
	names := [...]string{c.Geometry.Position, c.Geometry.Texcoord, c.Geometry.Normal, c.Geometry.Tangent}
	for i, a := range cfr.Attributes {
		t, err := cfr.ParseAttribType(names[i])
		if err != nil {
			return l, fmt.Errorf("%w: geometry.%s: %v", ErrInvalid, a, err)
		}
		l[a] = t
	}
	return l, nil
}

// ConvertOptions returns the geometry conversion settings.
func (c *Config) ConvertOptions() (convert.Options, error) {
	opts := convert.DefaultOptions()
	l, err := c.Layout()
	if err != nil {
		return opts, err
	}
	mode, err := convert.ParseDedupMode(c.Dedup.Mode)
	if err != nil {
		return opts, fmt.Errorf("%w: dedup.mode: %v", ErrInvalid, err)
	}
	opts.Layout = l
	opts.Tangents = c.Geometry.Tangents
	opts.Dedup = mode
	opts.Tolerance = c.Dedup.Tolerance
	opts.Encoding = c.Input.Encoding
	opts.Interval = c.Report.Interval
	return opts, nil
}

// Validate checks every setting that Load cannot check by type alone.
func (c *Config) Validate() error {
	if _, err := c.ConvertOptions(); err != nil {
		return err
	}
	if c.Dedup.Tolerance < 0 {
		return fmt.Errorf("%w: dedup.tolerance %v is negative", ErrInvalid, c.Dedup.Tolerance)
	}
	if !encoding.Valid(c.Input.Encoding) {
		return fmt.Errorf("%w: input.encoding %q", ErrInvalid, c.Input.Encoding)
	}
	if ch := c.Texture.Channels; ch < 0 || ch > 4 {
		return fmt.Errorf("%w: texture.channels %d", ErrInvalid, ch)
	}
	switch c.Texture.Bytes {
	case 0, 1, 2, 4:
	default:
		return fmt.Errorf("%w: texture.bytes %d", ErrInvalid, c.Texture.Bytes)
	}
	if c.Report.Interval < 0 {
		return fmt.Errorf("%w: report.interval %v is negative", ErrInvalid, c.Report.Interval)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalid, err)
	}
	return nil
}
