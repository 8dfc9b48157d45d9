package protocol

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Coordinate is a square label such as "e4": file a-h then rank 1-8.
type Coordinate string

// NoCoordinate is the empty selection.
const NoCoordinate Coordinate = ""

var ErrBadCoordinate = errors.New("invalid coordinate")

// ParseCoordinate validates s and returns it as a Coordinate.
func ParseCoordinate(s string) (Coordinate, error) {
	c := Coordinate(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return NoCoordinate, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}
	return c, nil
}

// Valid reports whether c names one of the 64 squares.
func (c Coordinate) Valid() bool {
	if len(c) != 2 {
		return false
	}
	return c[0] >= 'a' && c[0] <= 'h' && c[1] >= '1' && c[1] <= '8'
}

// Index returns the canonical grid position: row 0 is rank 8, col 0 is file a.
func (c Coordinate) Index() (row, col int, ok bool) {
	if !c.Valid() {
		return 0, 0, false
	}
	return int('8' - c[1]), int(c[0] - 'a'), true
}

func (c Coordinate) File() byte { return c[0] }
func (c Coordinate) Rank() byte { return c[1] }

// CoordinateAt is the inverse of Index.
func CoordinateAt(row, col int) Coordinate {
	if row < 0 || row > 7 || col < 0 || col > 7 {
		return NoCoordinate
	}
	return Coordinate([]byte{byte('a' + col), byte('8' - row)})
}

// CoordSet is an unordered set of coordinates.
type CoordSet map[Coordinate]struct{}

func NewCoordSet(cs ...Coordinate) CoordSet {
	s := make(CoordSet, len(cs))
	for _, c := range cs {
		s.Add(c)
	}
	return s
}

func (s CoordSet) Add(c Coordinate) {
	if c.Valid() {
		s[c] = struct{}{}
	}
}

func (s CoordSet) Has(c Coordinate) bool {
	_, ok := s[c]
	return ok
}

func (s CoordSet) Len() int { return len(s) }

// Sorted returns the members in file-then-rank order.
func (s CoordSet) Sorted() []Coordinate {
	out := make([]Coordinate, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy; a nil set clones to an empty one.
func (s CoordSet) Clone() CoordSet {
	out := make(CoordSet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}
