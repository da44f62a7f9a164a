package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/waveflow/pkg/config"
	"github.com/matzehuels/waveflow/pkg/pipeline"
	"github.com/matzehuels/waveflow/pkg/quantize"
	"github.com/matzehuels/waveflow/pkg/render"
)

// generateFlags holds the command-line overrides for the generate command.
// Zero values leave the config file's setting untouched.
type generateFlags struct {
	input    string
	output   string
	width    int
	height   int
	tile     int
	levels   int
	seed     uint64
	seedSet  bool
	attempts int
	method   string
	format   string
	scale    int
	noCache  bool
	refresh  bool
	show     bool
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate [config] [output]",
		Short: "Generate an image from a sample",
		Long: `Generate quantizes the sample image named in the config file, learns its
adjacency model and writes a new image that follows the same rules.

The config file is YAML or TOML. Without one, --input, --width, --height and
--levels must be given as flags. Flags always override the config file.`,
		Example: `  waveflow generate config.yaml output.png
  waveflow generate --input sample.png --width 64 --height 48 --levels 4 -o out.png
  waveflow generate config.yaml --seed 42 --attempts 20 --scale 4`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfgPath string
			if len(args) > 0 {
				cfgPath = args[0]
			}
			if len(args) > 1 {
				if flags.output != "" {
					return fmt.Errorf("output given twice: %q and --output %q", args[1], flags.output)
				}
				flags.output = args[1]
			}
			flags.seedSet = cmd.Flags().Changed("seed")

			cfg, err := loadConfig(cfgPath, flags)
			if err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), cfg, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "sample image (overrides input_image)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output image path (default: output.<format>)")
	cmd.Flags().IntVar(&flags.width, "width", 0, "output width in tiles")
	cmd.Flags().IntVar(&flags.height, "height", 0, "output height in tiles")
	cmd.Flags().IntVar(&flags.tile, "tile", 0, "cells per tile along each axis")
	cmd.Flags().IntVarP(&flags.levels, "levels", "l", 0, "luminance levels (1-255)")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "random seed for reproducible output")
	cmd.Flags().IntVar(&flags.attempts, "attempts", 0, "restart up to this many times on contradiction")
	cmd.Flags().StringVar(&flags.method, "method", "", "quantizer: uniform, kmeans")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "output format: png, bmp, tiff (default: from output extension)")
	cmd.Flags().IntVar(&flags.scale, "scale", 0, "upscale the output image by this factor")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached results and recompute")
	cmd.Flags().BoolVar(&flags.show, "show", false, "print the generated grid to the terminal")

	completeFlagValues(cmd)
	return cmd
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(path string, flags generateFlags) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	}
	flags.apply(cfg)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f generateFlags) apply(cfg *config.Config) {
	if f.input != "" {
		cfg.InputImage = f.input
	}
	if f.width != 0 {
		cfg.OutputWidth = f.width
	}
	if f.height != 0 {
		cfg.OutputHeight = f.height
	}
	if f.tile != 0 {
		cfg.TileSize = f.tile
	}
	if f.levels != 0 {
		cfg.LuminanceLevels = f.levels
	}
	if f.seedSet {
		seed := f.seed
		cfg.Seed = &seed
	}
	if f.attempts != 0 {
		cfg.Attempts = f.attempts
	}
	if f.method != "" {
		cfg.Quantizer = f.method
	}
	if f.scale != 0 {
		cfg.Scale = f.scale
	}
	switch {
	case f.format != "":
		cfg.Format = f.format
	case f.output != "":
		if format, err := render.FormatFromPath(f.output); err == nil {
			cfg.Format = string(format)
		}
	}
}

// runGenerate executes the pipeline and writes the image.
func (c *CLI) runGenerate(ctx context.Context, cfg *config.Config, flags generateFlags) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.OptionsFromConfig(cfg)
	opts.Logger = c.Logger
	opts.Refresh = flags.refresh

	w, h := cfg.GridSize()
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating %dx%d grid...", w, h))
	spinner.Start()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done("Generated grid", "run", result.RunID, "seed", result.Seed)

	outputPath := flags.output
	if outputPath == "" {
		outputPath = "output." + cfg.Format
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, result.Artifacts[cfg.Format], 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	if flags.show && !result.Output.Empty() {
		fmt.Println(render.ToANSI(result.Output, cfg.LuminanceLevels))
	}

	printSuccess("Generation complete")
	printFile(outputPath)
	printRunStats(w, h, result)
	if cfg.Seed == nil {
		printNewline()
		printNextStep("Reproduce", fmt.Sprintf("waveflow generate %s --seed %d", reproduceArgs(cfg, outputPath), result.Seed))
	}
	return nil
}

// reproduceArgs rebuilds the flags that identify a run from its config.
func reproduceArgs(cfg *config.Config, output string) string {
	parts := []string{
		"--input " + cfg.InputImage,
		fmt.Sprintf("--width %d --height %d", cfg.OutputWidth, cfg.OutputHeight),
		fmt.Sprintf("--levels %d", cfg.LuminanceLevels),
	}
	if cfg.TileSize != 1 {
		parts = append(parts, fmt.Sprintf("--tile %d", cfg.TileSize))
	}
	if cfg.Attempts != 1 {
		parts = append(parts, fmt.Sprintf("--attempts %d", cfg.Attempts))
	}
	if cfg.Quantizer != string(quantize.MethodUniform) {
		parts = append(parts, "--method "+cfg.Quantizer)
	}
	if cfg.Scale != 1 {
		parts = append(parts, fmt.Sprintf("--scale %d", cfg.Scale))
	}
	return strings.Join(append(parts, "-o "+output), " ")
}
