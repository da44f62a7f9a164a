package modelio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/waveflow/pkg/grid"
	"github.com/matzehuels/waveflow/pkg/wfc"
)

type document struct {
	Levels map[string]rules `json:"levels"`
}

type rules struct {
	Top    []int `json:"top"`
	Bottom []int `json:"bottom"`
	Left   []int `json:"left"`
	Right  []int `json:"right"`
}

// levelList returns the members of s as ints; a []grid.Level would be
// encoded as a base64 string.
func levelList(s wfc.LevelSet) []int {
	out := make([]int, 0, s.Len())
	s.Each(func(l grid.Level) { out = append(out, int(l)) })
	return out
}

// WriteJSON encodes m as indented JSON and writes it to w.
func WriteJSON(m *wfc.Model, w io.Writer) error {
	doc := document{Levels: make(map[string]rules, m.Len())}
	for _, l := range m.Levels() {
		c, _ := m.Constraint(l)
		doc.Levels[strconv.Itoa(int(l))] = rules{
			Top:    levelList(c.Top()),
			Bottom: levelList(c.Bottom()),
			Left:   levelList(c.Left()),
			Right:  levelList(c.Right()),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes m to a JSON file at path.
func ExportJSON(m *wfc.Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(m, f)
}
