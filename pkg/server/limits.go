package server

import (
	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/pipeline"
)

// limits caps the work a single request may ask for.
type limits struct {
	cells        int64
	pixels       int64
	samplePixels int64
}

// checkOutput rejects grids and rendered images above the limits. opts must
// already carry its defaults.
func (l limits) checkOutput(opts *pipeline.Options) error {
	w, h := opts.GridSize()
	cells := int64(w) * int64(h)
	if cells > l.cells {
		return errors.New(errors.ErrCodeInvalidInput,
			"output of %dx%d cells exceeds the server limit of %d", w, h, l.cells)
	}
	scale := int64(opts.Scale)
	if px := cells * scale * scale; px > l.pixels {
		return errors.New(errors.ErrCodeInvalidInput,
			"rendered image of %d pixels exceeds the server limit of %d", px, l.pixels)
	}
	return nil
}

// checkSample rejects samples whose declared size is above the limit.
func (l limits) checkSample(width, height int) error {
	if px := int64(width) * int64(height); px > l.samplePixels {
		return errors.New(errors.ErrCodeInvalidInput,
			"sample image of %dx%d exceeds the server limit of %d pixels", width, height, l.samplePixels)
	}
	return nil
}
