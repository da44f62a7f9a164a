package render

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/matzehuels/waveflow/pkg/grid"
)

// GrayLevel returns the gray value for level v out of levels.
func GrayLevel(v grid.Level, levels int) uint8 {
	if levels <= 0 {
		return 0
	}
	return uint8(255 * int(v) / levels)
}

// ToImage converts g into a grayscale image, one pixel per cell.
func ToImage(g grid.Grid, levels int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for i, v := range g.Cells {
		img.Pix[i] = GrayLevel(v, levels)
	}
	return img
}

// Scale enlarges img by factor using nearest-neighbor sampling. Factors
// below 2 return img unchanged.
func Scale(img image.Image, factor int) image.Image {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
