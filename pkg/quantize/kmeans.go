package quantize

import (
	"math"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/grid"
)

// maxSamples caps the number of luminances handed to k-means. Larger images
// are subsampled with a fixed stride.
const maxSamples = 12000

// KMeans clusters lums into at most levels groups and maps every luminance
// to the rank of its nearest cluster center, darkest first. Fewer distinct
// luminances than levels yield fewer levels.
func KMeans(lums []float64, levels int) ([]grid.Level, error) {
	out := make([]grid.Level, len(lums))
	if len(lums) == 0 {
		return out, nil
	}
	if floats.Min(lums) == floats.Max(lums) {
		for i := range out {
			out[i] = 1
		}
		return out, nil
	}

	step := 1
	if len(lums) > maxSamples {
		step = len(lums)/maxSamples + 1
	}
	dataset := make(clusters.Observations, 0, min(len(lums), maxSamples))
	distinct := map[float64]struct{}{}
	for i := 0; i < len(lums); i += step {
		dataset = append(dataset, clusters.Coordinates{lums[i]})
		distinct[lums[i]] = struct{}{}
	}

	k := min(levels, len(distinct))
	cc, err := kmeans.New().Partition(dataset, k)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "k-means partition failed")
	}

	centers := make([]float64, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) == 0 {
			continue
		}
		centers = append(centers, c.Center[0])
	}
	if len(centers) == 0 {
		return nil, errors.New(errors.ErrCodeInternal, "k-means produced no clusters")
	}
	slices.Sort(centers)
	centers = slices.Compact(centers)

	for i, lum := range lums {
		out[i] = grid.Level(nearest(centers, lum) + 1)
	}
	return out, nil
}

// nearest returns the index of the center closest to v. centers is sorted,
// so the result is monotonic in v.
func nearest(centers []float64, v float64) int {
	best, dist := 0, math.Inf(1)
	for i, c := range centers {
		if d := math.Abs(c - v); d < dist {
			best, dist = i, d
		}
	}
	return best
}
