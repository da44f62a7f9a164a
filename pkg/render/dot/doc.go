// Package dot renders adjacency models as Graphviz diagrams.
//
// # Overview
//
// Every level observed in the sample becomes a node shaded with its output
// gray. An edge a -> b means b was seen next to a; its label lists the
// directions (top, bottom, left, right) in which that happened.
//
//	src := dot.ToDOT(model, dot.Options{Levels: 4})
//	svg, err := dot.RenderSVG(src)
//
// # Options
//
//   - Levels: total level count used to shade nodes. Zero uses the model's
//     highest level.
//   - Directions: restrict edges to the listed directions. Empty means all.
//   - SkipSelf: omit self-loops, which dominate diagrams of smooth samples.
//
// # Dependencies
//
// SVG rendering runs in-process through [github.com/goccy/go-graphviz].
package dot
