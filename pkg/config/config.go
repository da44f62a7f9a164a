// Package config loads generation settings from YAML or TOML files.
//
// The YAML layout is the one waveflow has always read:
//
//	input_image: samples/islands.png
//	output_width: 64
//	output_height: 48
//	tile_size: 1
//	luminance_levels: 4
//
// TOML files use the same keys. Optional keys tune the run: seed, attempts,
// quantizer (uniform or kmeans), format (png, bmp or tiff) and scale.
// A relative input_image is resolved against the directory of the config
// file, so configs can travel with their samples.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/quantize"
	"github.com/matzehuels/waveflow/pkg/render"
)

// Limits on optional settings.
const (
	MaxAttempts = 1000
	MaxScale    = 64
)

// Config describes one generation run.
type Config struct {
	InputImage      string `yaml:"input_image" toml:"input_image"`
	OutputWidth     int    `yaml:"output_width" toml:"output_width"`
	OutputHeight    int    `yaml:"output_height" toml:"output_height"`
	TileSize        int    `yaml:"tile_size" toml:"tile_size"`
	LuminanceLevels int    `yaml:"luminance_levels" toml:"luminance_levels"`

	// Seed fixes the random stream. Nil draws a fresh seed per run.
	Seed      *uint64 `yaml:"seed,omitempty" toml:"seed,omitempty"`
	Attempts  int     `yaml:"attempts,omitempty" toml:"attempts,omitempty"`
	Quantizer string  `yaml:"quantizer,omitempty" toml:"quantizer,omitempty"`
	Format    string  `yaml:"format,omitempty" toml:"format,omitempty"`
	Scale     int     `yaml:"scale,omitempty" toml:"scale,omitempty"`
}

// Load reads the config file at path. The format follows the extension:
// .yaml and .yml are YAML, .toml is TOML. Defaults are applied and the
// result is validated.
func Load(path string) (*Config, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	var cfg *Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(data)
	case ".toml":
		cfg, err = ParseTOML(data)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config extension %q (want .yaml, .yml or .toml)", ext)
	}
	if err != nil {
		return nil, err
	}

	if cfg.InputImage != "" && !filepath.IsAbs(cfg.InputImage) {
		cfg.InputImage = filepath.Join(filepath.Dir(path), cfg.InputImage)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseYAML decodes YAML config data. Unknown keys are rejected.
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse YAML config")
	}
	return &cfg, nil
}

// ParseTOML decodes TOML config data. Unknown keys are rejected.
func ParseTOML(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse TOML config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	return &cfg, nil
}

// SetDefaults fills optional settings left at their zero value.
func (c *Config) SetDefaults() {
	if c.TileSize == 0 {
		c.TileSize = 1
	}
	if c.Attempts == 0 {
		c.Attempts = 1
	}
	if c.Quantizer == "" {
		c.Quantizer = string(quantize.MethodUniform)
	}
	if c.Format == "" {
		c.Format = string(render.FormatPNG)
	}
	if c.Scale == 0 {
		c.Scale = 1
	}
}

// Validate checks every setting and fails on the first invalid one.
func (c *Config) Validate() error {
	if err := errors.ValidateImagePath(c.InputImage); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "input_image")
	}
	if err := errors.ValidateDimensions(c.OutputWidth, c.OutputHeight, c.TileSize); err != nil {
		return err
	}
	if err := errors.ValidateLevels(c.LuminanceLevels); err != nil {
		return err
	}
	if c.Attempts < 1 || c.Attempts > MaxAttempts {
		return errors.New(errors.ErrCodeInvalidConfig, "attempts must be in [1, %d], got %d", MaxAttempts, c.Attempts)
	}
	if c.Scale < 1 || c.Scale > MaxScale {
		return errors.New(errors.ErrCodeInvalidConfig, "scale must be in [1, %d], got %d", MaxScale, c.Scale)
	}
	if _, err := quantize.ParseMethod(c.Quantizer); err != nil {
		return err
	}
	if _, err := render.ParseFormat(c.Format); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "format")
	}
	return nil
}

// GridSize returns the output size in cells: each output unit spans
// TileSize cells in both directions.
func (c *Config) GridSize() (width, height int) {
	return c.OutputWidth * c.TileSize, c.OutputHeight * c.TileSize
}
