package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/waveflow/pkg/grid"
	"github.com/matzehuels/waveflow/pkg/pipeline"
	"github.com/matzehuels/waveflow/pkg/render"
	"github.com/matzehuels/waveflow/pkg/wfc"
)

// historySize is the number of past runs listed under the preview.
const historySize = 5

var (
	previewDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	previewErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// previewCommand creates the interactive preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "preview [config]",
		Short: "Preview generated grids in the terminal",
		Long: `Preview learns the model once and shows generated grids in the terminal.

Keys: r regenerates with a new seed, s saves the current grid, q quits.
Takes the same flags as generate.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfgPath string
			if len(args) > 0 {
				cfgPath = args[0]
			}
			flags.seedSet = cmd.Flags().Changed("seed")
			cfg, err := loadConfig(cfgPath, flags)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts := pipeline.OptionsFromConfig(cfg)
			opts.Logger = c.Logger
			opts.Refresh = flags.refresh
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			_, m, err := runner.Learn(cmd.Context(), opts)
			if err != nil {
				return err
			}

			output := flags.output
			if output == "" {
				output = "preview." + cfg.Format
			}
			model := newPreviewModel(cmd.Context(), runner, m, opts, output)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "sample image (overrides input_image)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "file written by the save key (default: preview.<format>)")
	cmd.Flags().IntVar(&flags.width, "width", 0, "output width in tiles")
	cmd.Flags().IntVar(&flags.height, "height", 0, "output height in tiles")
	cmd.Flags().IntVar(&flags.tile, "tile", 0, "cells per tile along each axis")
	cmd.Flags().IntVarP(&flags.levels, "levels", "l", 0, "luminance levels (1-255)")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "seed of the first grid")
	cmd.Flags().IntVar(&flags.attempts, "attempts", 0, "restart up to this many times on contradiction")
	cmd.Flags().StringVar(&flags.method, "method", "", "quantizer: uniform, kmeans")
	cmd.Flags().IntVar(&flags.scale, "scale", 0, "upscale saved images by this factor")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore the cached model and relearn it")

	completeFlagValues(cmd)
	return cmd
}

// =============================================================================
// PreviewModel - Interactive generation loop
// =============================================================================

// generatedMsg carries the outcome of one solve back to the UI.
type generatedMsg struct {
	grid     grid.Grid
	seed     uint64
	stats    wfc.Stats
	duration time.Duration
	err      error
}

// savedMsg reports the outcome of the save key.
type savedMsg struct {
	path string
	err  error
}

// previewRun is one entry of the run history.
type previewRun struct {
	seed     uint64
	stats    wfc.Stats
	duration time.Duration
	failed   bool
}

// PreviewModel is the bubbletea model for the preview command.
type PreviewModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	model  *wfc.Model
	opts   pipeline.Options
	output string

	current    grid.Grid
	seed       uint64
	generating bool
	status     string
	err        error
	history    []previewRun
}

func newPreviewModel(ctx context.Context, runner *pipeline.Runner, m *wfc.Model, opts pipeline.Options, output string) PreviewModel {
	return PreviewModel{
		ctx:        ctx,
		runner:     runner,
		model:      m,
		opts:       opts,
		output:     output,
		generating: true,
	}
}

func (m PreviewModel) Init() tea.Cmd {
	seed := wfc.RandomSeed()
	if m.opts.Seed != nil {
		seed = *m.opts.Seed
	}
	return m.generate(seed)
}

// generate solves one grid with seed off the UI goroutine.
func (m PreviewModel) generate(seed uint64) tea.Cmd {
	opts := m.opts
	opts.Seed = &seed
	return func() tea.Msg {
		start := time.Now()
		out, stats, err := m.runner.Solve(m.ctx, m.model, opts)
		return generatedMsg{grid: out, seed: seed, stats: stats, duration: time.Since(start), err: err}
	}
}

// save encodes the current grid to the output file.
func (m PreviewModel) save() tea.Cmd {
	g, opts, path := m.current, m.opts, m.output
	return func() tea.Msg {
		artifacts, err := m.runner.Render(m.ctx, g, opts)
		if err != nil {
			return savedMsg{path: path, err: err}
		}
		return savedMsg{path: path, err: os.WriteFile(path, artifacts[opts.Formats[0]], 0o644)}
	}
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r", " ":
			if m.generating {
				return m, nil
			}
			m.generating = true
			m.status = ""
			return m, m.generate(wfc.RandomSeed())
		case "s":
			if m.generating || m.current.Empty() {
				return m, nil
			}
			return m, m.save()
		}
	case generatedMsg:
		m.generating = false
		m.seed = msg.seed
		m.err = msg.err
		if msg.err == nil {
			m.current = msg.grid
		}
		m.history = append([]previewRun{{
			seed:     msg.seed,
			stats:    msg.stats,
			duration: msg.duration,
			failed:   msg.err != nil,
		}}, m.history...)
		if len(m.history) > historySize {
			m.history = m.history[:historySize]
		}
	case savedMsg:
		if msg.err != nil {
			m.status = previewErrorStyle.Render("save failed: " + msg.err.Error())
		} else {
			m.status = StyleSuccess.Render(iconSuccess+" saved ") + StyleValue.Render(msg.path)
		}
	}
	return m, nil
}

func (m PreviewModel) View() string {
	var b strings.Builder

	w, h := m.opts.GridSize()
	b.WriteString(StyleTitle.Render("Waveflow Preview"))
	b.WriteString(previewDimStyle.Render(fmt.Sprintf("  %dx%d · %d levels", w, h, m.opts.Levels)))
	b.WriteString("\n")
	b.WriteString(previewDimStyle.Render("r regenerate  s save  q quit"))
	b.WriteString("\n\n")

	switch {
	case m.generating && m.current.Empty():
		b.WriteString(previewDimStyle.Render("Generating..."))
	case m.err != nil:
		b.WriteString(previewErrorStyle.Render(m.err.Error()))
	default:
		b.WriteString(render.ToANSI(m.current, m.opts.Levels))
	}
	b.WriteString("\n\n")

	if len(m.history) > 0 {
		b.WriteString(m.historyTable())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	return b.String()
}

func (m PreviewModel) historyTable() string {
	rows := make([][]string, 0, len(m.history))
	for _, r := range m.history {
		result := "ok"
		if r.failed {
			result = "contradiction"
		}
		rows = append(rows, []string{
			fmt.Sprint(r.seed),
			fmt.Sprint(r.stats.Attempts),
			fmt.Sprint(r.stats.Collapses),
			r.duration.Round(time.Millisecond).String(),
			result,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Seed", "Attempts", "Collapses", "Time", "Result").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case row == 0:
				return StyleHighlight
			case row < len(m.history) && m.history[row].failed:
				return previewErrorStyle
			}
			return previewDimStyle
		})
	return t.Render()
}
