package wfc

import (
	stderrors "errors"
	"fmt"

	"github.com/matzehuels/waveflow/pkg/errors"
)

// ContradictionError reports that a finished wave holds cells with no
// candidates left. X and Y locate the first such cell in row-major order.
type ContradictionError struct {
	X, Y     int
	Cells    int // number of contradictory cells
	Attempts int // solve attempts made, including the failing one
}

func (e *ContradictionError) Error() string {
	msg := fmt.Sprintf("contradiction at (%d, %d): %d cell(s) have no candidates", e.X, e.Y, e.Cells)
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	return msg
}

// Code classifies the error for errors.Is.
func (e *ContradictionError) Code() errors.Code { return errors.ErrCodeContradiction }

// IsContradiction reports whether err is or wraps a *ContradictionError.
func IsContradiction(err error) bool {
	var ce *ContradictionError
	return stderrors.As(err, &ce)
}
