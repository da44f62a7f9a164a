// Package quantize turns sample images into level grids.
//
// Every pixel is reduced to its ITU-R BT.709 luminance on 8-bit channels and
// then assigned one of L levels. Two methods are available:
//
//   - [MethodUniform] splits the luminance range of the image into L equal
//     bands. A flat image maps every pixel to level 1.
//   - [MethodKMeans] clusters the luminances into at most L groups and ranks
//     the groups by brightness, so sparse or skewed histograms still use all
//     of their levels.
//
// Decoding supports PNG, JPEG and GIF from the standard library plus BMP,
// TIFF and WebP from golang.org/x/image.
package quantize

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/grid"
)

// Method selects how luminances are bucketed into levels.
type Method string

const (
	MethodUniform Method = "uniform"
	MethodKMeans  Method = "kmeans"
)

// Methods lists the supported quantization methods.
var Methods = []Method{MethodUniform, MethodKMeans}

// ParseMethod resolves a method name. The empty string selects MethodUniform.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodUniform:
		return MethodUniform, nil
	case MethodKMeans:
		return MethodKMeans, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "unknown quantizer %q (want uniform or kmeans)", s)
}

// BT.709 luma coefficients.
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

// Luminance returns the BT.709 luminance of c in [0, 255]. Fully transparent
// pixels count as black.
func Luminance(c color.Color) float64 {
	col, ok := colorful.MakeColor(c)
	if !ok {
		return 0
	}
	r, g, b := col.RGB255()
	return lumR*float64(r) + lumG*float64(g) + lumB*float64(b)
}

// Luminances returns the row-major luminance of every pixel in img.
func Luminances(img image.Image) []float64 {
	b := img.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, Luminance(img.At(x, y)))
		}
	}
	return out
}

// Uniform buckets lums into levels equal-width bands between their minimum
// and maximum: level = min(floor((lum-min)/step)+1, levels) with
// step = (max-min)/levels.
func Uniform(lums []float64, levels int) []grid.Level {
	out := make([]grid.Level, len(lums))
	if len(lums) == 0 {
		return out
	}
	lo, hi := floats.Min(lums), floats.Max(lums)
	step := (hi - lo) / float64(levels)
	for i, lum := range lums {
		if step == 0 {
			out[i] = 1
			continue
		}
		idx := int(math.Floor((lum-lo)/step)) + 1
		out[i] = grid.Level(min(idx, levels))
	}
	return out
}

// ToGrid quantizes img into a grid with levels in [1, levels].
func ToGrid(img image.Image, levels int, method Method) (grid.Grid, error) {
	if err := errors.ValidateLevels(levels); err != nil {
		return grid.Grid{}, err
	}
	b := img.Bounds()
	if b.Empty() {
		return grid.Grid{}, errors.New(errors.ErrCodeInvalidSample, "sample image has no pixels")
	}

	lums := Luminances(img)
	var cells []grid.Level
	switch method {
	case "", MethodUniform:
		cells = Uniform(lums, levels)
	case MethodKMeans:
		var err error
		if cells, err = KMeans(lums, levels); err != nil {
			return grid.Grid{}, err
		}
	default:
		return grid.Grid{}, errors.New(errors.ErrCodeInvalidConfig, "unknown quantizer %q", method)
	}
	return grid.Grid{Width: b.Dx(), Height: b.Dy(), Cells: cells}, nil
}
