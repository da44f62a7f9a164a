package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/waveflow/pkg/grid"
	"github.com/matzehuels/waveflow/pkg/render"
	"github.com/matzehuels/waveflow/pkg/wfc"
)

// Options configures model diagrams.
type Options struct {
	// Levels is the level count used for node shading.
	Levels int
	// Directions limits which adjacency directions produce edges.
	Directions []wfc.Direction
	// SkipSelf drops edges from a level to itself.
	SkipSelf bool
}

// ToDOT converts an adjacency model to Graphviz DOT source.
func ToDOT(m *wfc.Model, opts Options) string {
	levels := opts.Levels
	if levels <= 0 {
		levels = int(m.MaxLevel())
	}
	dirs := opts.Directions
	if len(dirs) == 0 {
		dirs = wfc.Directions[:]
	}

	var buf bytes.Buffer
	buf.WriteString("digraph model {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontsize=18];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	present := m.Levels()
	for _, l := range present {
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(l), strings.Join(nodeAttrs(l, levels), ", "))
	}

	buf.WriteString("\n")
	for _, a := range present {
		c, _ := m.Constraint(a)
		labels := map[grid.Level][]string{}
		for _, d := range dirs {
			c.In(d).Each(func(b grid.Level) {
				if opts.SkipSelf && a == b {
					return
				}
				labels[b] = append(labels[b], d.String())
			})
		}
		targets := make([]grid.Level, 0, len(labels))
		for b := range labels {
			targets = append(targets, b)
		}
		slices.Sort(targets)
		for _, b := range targets {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", nodeID(a), nodeID(b), strings.Join(labels[b], ","))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(l grid.Level) string { return "L" + strconv.Itoa(int(l)) }

func nodeAttrs(l grid.Level, levels int) []string {
	gray := render.GrayLevel(l, levels)
	attrs := []string{
		fmt.Sprintf("label=%q", strconv.Itoa(int(l))),
		fmt.Sprintf("fillcolor=\"#%02x%02x%02x\"", gray, gray, gray),
	}
	if gray < 128 {
		attrs = append(attrs, "fontcolor=white")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root tag with one whose viewBox starts at the
// origin and whose size matches it, so the SVG scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
