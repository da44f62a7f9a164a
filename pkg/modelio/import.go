package modelio

import (
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/grid"
	"github.com/matzehuels/waveflow/pkg/wfc"
)

// ReadJSON decodes a model from r. It does not close r.
func ReadJSON(r io.Reader) (*wfc.Model, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode model")
	}
	if len(doc.Levels) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSample, "model has no levels")
	}

	constraints := make(map[grid.Level]wfc.Constraint, len(doc.Levels))
	for key, rs := range doc.Levels {
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 || n > grid.MaxLevels {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "level key %q is not in [1, %d]", key, grid.MaxLevels)
		}
		var c wfc.Constraint
		for d, list := range map[wfc.Direction][]int{
			wfc.Top:    rs.Top,
			wfc.Bottom: rs.Bottom,
			wfc.Left:   rs.Left,
			wfc.Right:  rs.Right,
		} {
			for _, v := range list {
				if v < 1 || v > grid.MaxLevels {
					return nil, errors.New(errors.ErrCodeInvalidFormat,
						"level %s lists neighbor %d %s, want [1, %d]", key, v, d, grid.MaxLevels)
				}
				c[d].Add(grid.Level(v))
			}
		}
		constraints[grid.Level(n)] = c
	}
	return wfc.NewModel(constraints)
}

// ImportJSON reads the model file at path.
func ImportJSON(path string) (*wfc.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "model %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
