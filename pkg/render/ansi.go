package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/waveflow/pkg/grid"
)

// cellGlyph is drawn twice per cell so cells come out roughly square.
const cellGlyph = "██"

// ToANSI renders g as rows of shaded blocks for a terminal. Without color
// support the blocks are printed plain.
func ToANSI(g grid.Grid, levels int) string {
	styles := make([]lipgloss.Style, levels+1)
	for v := 1; v <= levels; v++ {
		gray := GrayLevel(grid.Level(v), levels)
		hex := fmt.Sprintf("#%02x%02x%02x", gray, gray, gray)
		styles[v] = lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	}

	var b strings.Builder
	for y := range g.Height {
		for x := range g.Width {
			v := int(g.At(x, y))
			if v < 1 || v > levels {
				b.WriteString("  ")
				continue
			}
			b.WriteString(styles[v].Render(cellGlyph))
		}
		if y < g.Height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
