// Package pipeline provides the generation pipeline shared by the CLI and the
// HTTP server.
//
// # Architecture
//
// A run has four stages:
//
//  1. Quantize: decode the sample image and bucket its luminance into levels
//  2. Learn: extract the adjacency model from the sample grid
//  3. Solve: fill the output grid with Wave Function Collapse
//  4. Render: map levels to gray and encode the requested formats
//
// Quantize and Learn are cached together under the sample hash; the rendered
// artifacts are cached under the model hash when the run is seeded.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    SamplePath: "samples/islands.png",
//	    Width:      64,
//	    Height:     48,
//	    Levels:     4,
//	})
//	if err != nil {
//	    return err
//	}
//	png := result.Artifacts["png"]
//
// Stages can also be run individually with [Runner.Learn], [Runner.Solve]
// and [Runner.Render].
package pipeline

import (
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/waveflow/pkg/config"
	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/grid"
	"github.com/matzehuels/waveflow/pkg/quantize"
	"github.com/matzehuels/waveflow/pkg/render"
	"github.com/matzehuels/waveflow/pkg/wfc"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one generation run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Sample source; exactly one must be set.
	SamplePath  string      `json:"sample_path,omitempty"`
	Sample      []byte      `json:"-"` // encoded image bytes
	SampleImage image.Image `json:"-"`

	// Quantization
	Levels int    `json:"levels"`
	Method string `json:"method,omitempty"`

	// Solve
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	TileSize int     `json:"tile_size,omitempty"`
	Seed     *uint64 `json:"seed,omitempty"`
	Attempts int     `json:"attempts,omitempty"`

	// Render
	Formats []string `json:"formats,omitempty"`
	Scale   int      `json:"scale,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger    `json:"-"`
	OnStep func(wfc.Step) `json:"-"`

	validated bool
}

// OptionsFromConfig converts a loaded config file into pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SamplePath: cfg.InputImage,
		Levels:     cfg.LuminanceLevels,
		Method:     cfg.Quantizer,
		Width:      cfg.OutputWidth,
		Height:     cfg.OutputHeight,
		TileSize:   cfg.TileSize,
		Seed:       cfg.Seed,
		Attempts:   cfg.Attempts,
		Formats:    []string{cfg.Format},
		Scale:      cfg.Scale,
	}
}

// SetDefaults fills optional settings left at their zero value.
func (o *Options) SetDefaults() {
	if o.TileSize == 0 {
		o.TileSize = 1
	}
	if o.Method == "" {
		o.Method = string(quantize.MethodUniform)
	}
	if o.Attempts == 0 {
		o.Attempts = 1
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{string(render.FormatPNG)}
	}
	if o.Scale == 0 {
		o.Scale = 1
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLearn checks the sample source and quantizer settings.
func (o *Options) ValidateForLearn() error {
	o.SetDefaults()
	sources := 0
	for _, set := range []bool{o.SamplePath != "", len(o.Sample) > 0, o.SampleImage != nil} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "exactly one sample source is required, got %d", sources)
	}
	if err := errors.ValidateLevels(o.Levels); err != nil {
		return err
	}
	_, err := quantize.ParseMethod(o.Method)
	return err
}

// ValidateForSolve checks output size and restart settings.
func (o *Options) ValidateForSolve() error {
	o.SetDefaults()
	if err := errors.ValidateDimensions(o.Width, o.Height, o.TileSize); err != nil {
		return err
	}
	if err := errors.ValidateLevels(o.Levels); err != nil {
		return err
	}
	if o.Attempts < 1 || o.Attempts > config.MaxAttempts {
		return errors.New(errors.ErrCodeInvalidConfig, "attempts must be in [1, %d], got %d", config.MaxAttempts, o.Attempts)
	}
	return nil
}

// ValidateForRender checks scale and output formats.
func (o *Options) ValidateForRender() error {
	o.SetDefaults()
	if o.Scale < 1 || o.Scale > config.MaxScale {
		return errors.New(errors.ErrCodeInvalidConfig, "scale must be in [1, %d], got %d", config.MaxScale, o.Scale)
	}
	for _, f := range o.Formats {
		if _, err := render.ParseFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks every stage's settings and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLearn(); err != nil {
		return err
	}
	if err := o.ValidateForSolve(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// GridSize returns the output size in cells.
func (o *Options) GridSize() (width, height int) {
	return o.Width * o.TileSize, o.Height * o.TileSize
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies the run in logs and HTTP responses.
	RunID string

	// Seed is the seed the solver used; pass it back to reproduce the run.
	Seed uint64

	// Sample is the quantized sample. It is empty when the model came from
	// cache.
	Sample grid.Grid

	// Model is the learned adjacency model and ModelHash the hash of its
	// JSON encoding.
	Model     *wfc.Model
	ModelHash string

	// Output is the generated level grid. It is empty when the artifacts
	// came from cache.
	Output grid.Grid

	// Artifacts contains encoded images keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	SampleWidth  int
	SampleHeight int
	ModelLevels  int
	Attempts     int
	Collapses    int
	LearnTime    time.Duration
	SolveTime    time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ModelHit  bool // Whether the model came from cache
	RenderHit bool // Whether all artifacts came from cache
}
