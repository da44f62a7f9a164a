package wfc

// Direction is one of the four grid directions.
type Direction uint8

const (
	Top Direction = iota
	Bottom
	Left
	Right
)

// NumDirections is the number of grid directions.
const NumDirections = 4

// Directions lists all directions in a fixed order.
var Directions = [NumDirections]Direction{Top, Bottom, Left, Right}

// offsets holds (dx, dy) per direction; y grows downward.
var offsets = [NumDirections][2]int{
	Top:    {0, -1},
	Bottom: {0, 1},
	Left:   {-1, 0},
	Right:  {1, 0},
}

var directionNames = [NumDirections]string{
	Top:    "top",
	Bottom: "bottom",
	Left:   "left",
	Right:  "right",
}

// Offset returns the coordinate delta of one step in d.
func (d Direction) Offset() (dx, dy int) {
	o := offsets[d]
	return o[0], o[1]
}

// Opposite returns the reverse direction. Pairs are laid out so flipping the
// low bit swaps them.
func (d Direction) Opposite() Direction { return d ^ 1 }

func (d Direction) String() string {
	if int(d) < NumDirections {
		return directionNames[d]
	}
	return "invalid"
}
