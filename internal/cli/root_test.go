package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/image/bmp"

	"github.com/matzehuels/waveflow/pkg/config"
	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/grid"
	"github.com/matzehuels/waveflow/pkg/modelio"
	"github.com/matzehuels/waveflow/pkg/pipeline"
	"github.com/matzehuels/waveflow/pkg/wfc"
)

// writeSample writes a 2x2 checkerboard PNG and a YAML config pointing at it.
func writeSample(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	copy(img.Pix, []uint8{0, 255, 255, 0})
	f, err := os.Create(filepath.Join(dir, "sample.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfgPath = filepath.Join(dir, "config.yaml")
	cfg := "input_image: sample.png\noutput_width: 6\noutput_height: 4\ntile_size: 1\nluminance_levels: 2\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&logs)
	root.SetErr(&logs)
	err := root.ExecuteContext(context.Background())
	return logs.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(os.Stderr, LogInfo).RootCommand()
	for _, name := range []string{"generate", "model", "preview", "serve", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
	if root.PersistentFlags().Lookup("verbose") == nil {
		t.Error("missing --verbose flag")
	}
}

func TestGenerateCommand(t *testing.T) {
	dir, cfgPath := writeSample(t)
	out := filepath.Join(dir, "out", "result.png")

	logs, err := execute(t, "generate", cfgPath, out, "--seed", "3", "--no-cache", "--scale", "2")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, logs)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Errorf("output = %dx%d, want 12x8", b.Dx(), b.Dy())
	}
	if !strings.Contains(logs, "seed=3") {
		t.Errorf("log should report the seed, got %q", logs)
	}
}

func TestGenerateFormatFromExtension(t *testing.T) {
	dir, cfgPath := writeSample(t)
	out := filepath.Join(dir, "result.bmp")

	if _, err := execute(t, "generate", cfgPath, "-o", out, "--no-cache"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bmp.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output should be a BMP: %v", err)
	}
}

func TestGenerateWithoutConfig(t *testing.T) {
	dir, _ := writeSample(t)
	out := filepath.Join(dir, "flags.png")
	_, err := execute(t, "generate", "--input", filepath.Join(dir, "sample.png"),
		"--width", "3", "--height", "3", "--levels", "2", "-o", out, "--no-cache")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}

	_, err = execute(t, "generate", "--input", filepath.Join(dir, "sample.png"), "--no-cache")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("missing dimensions: got %v", err)
	}
}

func TestGenerateRejectsDoubleOutput(t *testing.T) {
	_, cfgPath := writeSample(t)
	if _, err := execute(t, "generate", cfgPath, "a.png", "-o", "b.png"); err == nil {
		t.Error("expected error for two output paths")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	_, cfgPath := writeSample(t)
	cfg, err := loadConfig(cfgPath, generateFlags{
		width:    10,
		levels:   3,
		seed:     0,
		seedSet:  true,
		attempts: 5,
		method:   "kmeans",
		output:   "x.tiff",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OutputWidth != 10 || cfg.OutputHeight != 4 {
		t.Errorf("size = %dx%d, want 10x4", cfg.OutputWidth, cfg.OutputHeight)
	}
	if cfg.LuminanceLevels != 3 || cfg.Attempts != 5 || cfg.Quantizer != "kmeans" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Seed == nil || *cfg.Seed != 0 {
		t.Error("an explicit --seed 0 should be kept")
	}
	if cfg.Format != "tiff" {
		t.Errorf("Format = %q, want tiff from the output extension", cfg.Format)
	}
}

func TestReproduceArgs(t *testing.T) {
	cfg := &config.Config{
		InputImage:      "s.png",
		OutputWidth:     8,
		OutputHeight:    4,
		TileSize:        2,
		LuminanceLevels: 3,
		Attempts:        1,
		Quantizer:       "uniform",
		Scale:           1,
	}
	got := reproduceArgs(cfg, "out.png")
	want := "--input s.png --width 8 --height 4 --levels 3 --tile 2 -o out.png"
	if got != want {
		t.Errorf("reproduceArgs = %q, want %q", got, want)
	}
}

func TestModelCommand(t *testing.T) {
	dir, _ := writeSample(t)
	sample := filepath.Join(dir, "sample.png")
	jsonPath := filepath.Join(dir, "model.json")

	if _, err := execute(t, "model", sample, "--levels", "2", "-o", jsonPath, "--no-cache"); err != nil {
		t.Fatalf("model: %v", err)
	}
	m, err := modelio.ImportJSON(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := m.Constraint(1)
	if c.Top() != wfc.SetOf(2) {
		t.Errorf("level 1 top = %s, want {2}", c.Top())
	}

	dotPath := filepath.Join(dir, "model.dot")
	if _, err := execute(t, "model", "--from", jsonPath, "-o", dotPath); err != nil {
		t.Fatalf("model --from: %v", err)
	}
	data, _ := os.ReadFile(dotPath)
	if !strings.HasPrefix(string(data), "digraph model {") {
		t.Errorf("unexpected DOT output: %s", data)
	}

	if _, err := execute(t, "model", sample, "--from", jsonPath); err == nil {
		t.Error("sample and --from together should fail")
	}
	_, err = execute(t, "model", "--from", jsonPath, "-o", filepath.Join(dir, "model.txt"))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown extension: got %v", err)
	}
}

func TestPreviewModel(t *testing.T) {
	m, err := wfc.BuildModel(grid.MustFromRows([][]grid.Level{{1, 2}, {2, 1}}))
	if err != nil {
		t.Fatal(err)
	}
	opts := pipeline.Options{Width: 4, Height: 2, Levels: 2}
	if err := opts.ValidateForSolve(); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "preview.png")
	pm := newPreviewModel(context.Background(), pipeline.NewRunner(nil, nil, nil), m, opts, out)

	msg := pm.Init()()
	gen, ok := msg.(generatedMsg)
	if !ok || gen.err != nil {
		t.Fatalf("Init produced %#v", msg)
	}
	next, _ := pm.Update(gen)
	pm = next.(PreviewModel)
	if pm.generating || pm.current.Width != 4 || len(pm.history) != 1 {
		t.Fatalf("unexpected state after generation: %+v", pm)
	}
	if view := pm.View(); !strings.Contains(view, "Waveflow Preview") || !strings.Contains(view, "Seed") {
		t.Errorf("view missing title or history:\n%s", view)
	}

	next, cmd := pm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	pm = next.(PreviewModel)
	saved, ok := cmd().(savedMsg)
	if !ok || saved.err != nil {
		t.Fatalf("save produced %#v", saved)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("save did not write %s: %v", out, err)
	}

	next, cmd = pm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	pm = next.(PreviewModel)
	if !pm.generating || cmd == nil {
		t.Error("r should start a new generation")
	}

	_, cmd = pm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
