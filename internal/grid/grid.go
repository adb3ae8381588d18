package grid

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// MaxCases bounds the grid size so that every case index fits the fixed
// six-digit naming scheme (case_000000 through case_999999).
const MaxCases = 1_000_000

var (
	// ErrNoDimensions is returned by Generate when the set holds no dimensions.
	ErrNoDimensions = errors.New("grid has no dimensions")
	// ErrGridTooLarge is returned by Generate when the Cartesian product
	// exceeds the addressable case-index space.
	ErrGridTooLarge = errors.New("grid size exceeds the case-index space")
)

// Entry is one parameter assignment within a point.
type Entry struct {
	Parameter string
	Value     cty.Value
}

// Point is one concrete combination of parameter values, one entry per
// dimension, in dimension registration order. Points are never mutated after
// generation.
type Point struct {
	Entries []Entry
}

// Value returns the value assigned to the given parameter path, if present.
func (p Point) Value(parameter string) (cty.Value, bool) {
	for _, e := range p.Entries {
		if e.Parameter == parameter {
			return e.Value, true
		}
	}
	return cty.NilVal, false
}

// Grid is the fully expanded sweep: the dimensions it was generated from and
// the ordered list of points. It is read-only after Generate.
type Grid struct {
	Dimensions []*Dimension
	Points     []Point
	Size       int
}

// Generate validates the set and expands the Cartesian product. The
// first-registered dimension varies slowest, matching standard nested-loop
// product order.
func (s *Set) Generate() (*Grid, error) {
	if len(s.dims) == 0 {
		return nil, ErrNoDimensions
	}

	size := 1
	for _, d := range s.dims {
		if len(d.Values) == 0 {
			return nil, fmt.Errorf("dimension %q has no values", d.Name)
		}
		size *= len(d.Values)
		if size > MaxCases {
			return nil, fmt.Errorf("%w: product of dimension cardinalities exceeds %d", ErrGridTooLarge, MaxCases)
		}
	}

	points := make([]Point, 0, size)
	odometer := make([]int, len(s.dims))
	for {
		entries := make([]Entry, len(s.dims))
		for i, d := range s.dims {
			entries[i] = Entry{Parameter: d.Parameter, Value: d.Values[odometer[i]]}
		}
		points = append(points, Point{Entries: entries})

		// Advance the last dimension fastest.
		pos := len(odometer) - 1
		for pos >= 0 {
			odometer[pos]++
			if odometer[pos] < len(s.dims[pos].Values) {
				break
			}
			odometer[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}

	return &Grid{Dimensions: s.dims, Points: points, Size: size}, nil
}
