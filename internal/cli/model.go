package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/modelio"
	"github.com/matzehuels/waveflow/pkg/pipeline"
	"github.com/matzehuels/waveflow/pkg/render/dot"
	"github.com/matzehuels/waveflow/pkg/wfc"
)

// modelFlags holds the command-line flags for the model command.
type modelFlags struct {
	output   string
	levels   int
	method   string
	from     string
	skipSelf bool
	noCache  bool
}

// modelCommand creates the model command for exporting adjacency models.
func (c *CLI) modelCommand() *cobra.Command {
	var flags modelFlags

	cmd := &cobra.Command{
		Use:   "model [sample]",
		Short: "Export the adjacency model learned from a sample",
		Long: `Model quantizes a sample image and writes the adjacency model it learns.

The output format follows the extension of --output: .json writes the model,
.dot writes Graphviz source and .svg renders the diagram. Without --output
the JSON model is printed to stdout. --from converts a previously exported
JSON model instead of learning a new one.`,
		Example: `  waveflow model sample.png --levels 4 -o model.json
  waveflow model sample.png --levels 4 -o model.svg
  waveflow model --from model.json -o model.dot`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (flags.from == "") {
				return errors.New(errors.ErrCodeInvalidInput, "give either a sample image or --from, not both")
			}
			var sample string
			if len(args) > 0 {
				sample = args[0]
			}
			return c.runModel(cmd.Context(), sample, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file: .json, .dot or .svg (default: JSON to stdout)")
	cmd.Flags().IntVarP(&flags.levels, "levels", "l", 0, "luminance levels (1-255)")
	cmd.Flags().StringVar(&flags.method, "method", "", "quantizer: uniform, kmeans")
	cmd.Flags().StringVar(&flags.from, "from", "", "read an exported JSON model instead of a sample")
	cmd.Flags().BoolVar(&flags.skipSelf, "skip-self", false, "omit self-adjacency edges in diagrams")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")

	completeFlagValues(cmd)
	return cmd
}

func (c *CLI) runModel(ctx context.Context, sample string, flags modelFlags) error {
	m, levels, err := c.loadModel(ctx, sample, flags)
	if err != nil {
		return err
	}

	if flags.output == "" {
		return modelio.WriteJSON(m, os.Stdout)
	}

	data, err := encodeModel(m, levels, flags)
	if err != nil {
		return err
	}
	if err := os.WriteFile(flags.output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", flags.output, err)
	}

	printSuccess("Model exported")
	printFile(flags.output)
	printKeyValue("Levels", StyleNumber.Render(fmt.Sprint(m.Len())))
	if !m.IsSymmetric() {
		printWarning("model is not symmetric; it was not learned from a single sample")
	}
	return nil
}

// loadModel learns the model from sample or imports it from flags.from.
// It also returns the level count used to shade diagram nodes.
func (c *CLI) loadModel(ctx context.Context, sample string, flags modelFlags) (*wfc.Model, int, error) {
	if flags.from != "" {
		m, err := modelio.ImportJSON(flags.from)
		if err != nil {
			return nil, 0, fmt.Errorf("import model: %w", err)
		}
		return m, max(flags.levels, int(m.MaxLevel())), nil
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return nil, 0, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	sampleGrid, m, err := runner.Learn(ctx, pipeline.Options{
		SamplePath: sample,
		Levels:     flags.levels,
		Method:     flags.method,
		Logger:     c.Logger,
	})
	if err != nil {
		return nil, 0, err
	}
	if sampleGrid.Empty() {
		prog.done("Loaded model from cache", "levels", m.Len())
	} else {
		prog.done("Learned model", "sample", fmt.Sprintf("%dx%d", sampleGrid.Width, sampleGrid.Height), "levels", m.Len())
	}
	return m, flags.levels, nil
}

func encodeModel(m *wfc.Model, levels int, flags modelFlags) ([]byte, error) {
	switch ext := strings.ToLower(filepath.Ext(flags.output)); ext {
	case ".json":
		var b strings.Builder
		if err := modelio.WriteJSON(m, &b); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil
	case ".dot", ".gv":
		return []byte(dot.ToDOT(m, dot.Options{Levels: levels, SkipSelf: flags.skipSelf})), nil
	case ".svg":
		return dot.RenderSVG(dot.ToDOT(m, dot.Options{Levels: levels, SkipSelf: flags.skipSelf}))
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported model output %q (want .json, .dot or .svg)", ext)
	}
}
