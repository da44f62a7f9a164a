package dot

import (
	"strings"
	"testing"

	"github.com/matzehuels/waveflow/pkg/grid"
	"github.com/matzehuels/waveflow/pkg/wfc"
)

func checkerModel(t *testing.T) *wfc.Model {
	t.Helper()
	m, err := wfc.BuildModel(grid.MustFromRows([][]grid.Level{{1, 2}, {2, 1}}))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestToDOT(t *testing.T) {
	src := ToDOT(checkerModel(t), Options{Levels: 2})

	for _, want := range []string{
		"digraph model {",
		`"L1" [label="1", fillcolor="#7f7f7f"`,
		`"L2" [label="2", fillcolor="#ffffff"];`,
		`"L1" -> "L2" [label="top,bottom,left,right"];`,
		`"L2" -> "L1" [label="top,bottom,left,right"];`,
	} {
		if !strings.Contains(src, want) {
			t.Errorf("DOT output missing %q:\n%s", want, src)
		}
	}
	if strings.Contains(src, `"L1" -> "L1"`) {
		t.Errorf("checkerboard has no self-adjacency:\n%s", src)
	}
}

func TestToDOTOptions(t *testing.T) {
	m, err := wfc.BuildModel(grid.MustFromRows([][]grid.Level{{1, 1, 2}}))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		opts    Options
		want    []string
		notWant []string
	}{
		{
			name: "all directions",
			want: []string{`"L1" -> "L1" [label="left,right"];`, `"L1" -> "L2" [label="right"];`, `"L2" -> "L1" [label="left"];`},
		},
		{
			name:    "right only",
			opts:    Options{Directions: []wfc.Direction{wfc.Right}},
			want:    []string{`"L1" -> "L1" [label="right"];`, `"L1" -> "L2" [label="right"];`},
			notWant: []string{`"L2" -> "L1"`},
		},
		{
			name:    "skip self",
			opts:    Options{SkipSelf: true},
			want:    []string{`"L1" -> "L2"`},
			notWant: []string{`"L1" -> "L1"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := ToDOT(m, tt.opts)
			for _, w := range tt.want {
				if !strings.Contains(src, w) {
					t.Errorf("missing %q:\n%s", w, src)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(src, w) {
					t.Errorf("unexpected %q:\n%s", w, src)
				}
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(ToDOT(checkerModel(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, "<svg") || !strings.Contains(s, `viewBox="0 0 `) {
		t.Errorf("unexpected SVG header: %.200s", s)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" viewBox="0.00 0.00 120.40 80.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 120.40 80.00" width="120" height="80"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %q, want %q", got, want)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("SVG without viewBox must pass through")
	}
}
