// Package render turns level grids back into pictures.
//
// # Overview
//
// Generated grids are plain arrays of levels in [1, L]. This package maps
// them onto grayscale and writes them out:
//
//   - [ToImage] converts a grid to an [*image.Gray] with gray = 255·v/L,
//     so the top level is white and lower levels darken evenly.
//   - [Scale] enlarges an image by an integer factor with nearest-neighbor
//     sampling, keeping cell edges crisp.
//   - [Encode] writes PNG, BMP or TIFF; [FormatFromPath] picks the format
//     from a file extension.
//   - [ToANSI] shades a grid with terminal colors for previews.
//
// Adjacency models are rendered as Graphviz diagrams by the [dot]
// subpackage.
//
//	img := render.ToImage(out, levels)
//	err := render.Encode(w, render.Scale(img, 4), render.FormatPNG)
//
// [dot]: github.com/matzehuels/waveflow/pkg/render/dot
package render
