package grid

import (
	"fmt"
	"math"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Dimension is one axis of the sweep: a name, the dotted parameter path it
// targets, and its ordered value list.
type Dimension struct {
	Name      string
	Parameter string
	Values    []cty.Value
}

// Set is an ordered collection of dimensions. Registration order is
// significant: the first-registered dimension varies slowest in the
// generated grid.
type Set struct {
	dims  []*Dimension
	index map[string]*Dimension
}

// NewSet creates an empty dimension set.
func NewSet() *Set {
	return &Set{index: make(map[string]*Dimension)}
}

// Add registers a new dimension with no values. It fails if the name is
// already registered.
func (s *Set) Add(name, parameter string) error {
	if _, exists := s.index[name]; exists {
		return fmt.Errorf("dimension %q is already registered", name)
	}
	d := &Dimension{Name: name, Parameter: parameter}
	s.dims = append(s.dims, d)
	s.index[name] = d
	return nil
}

// Dimensions returns the registered dimensions in registration order.
func (s *Set) Dimensions() []*Dimension {
	return s.dims
}

func (s *Set) dimension(name string) (*Dimension, error) {
	d, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("dimension %q is not registered", name)
	}
	return d, nil
}

// SetLinspace overwrites the dimension's values with count evenly spaced
// values from start to stop inclusive.
func (s *Set) SetLinspace(name string, start, stop float64, count int) error {
	d, err := s.dimension(name)
	if err != nil {
		return err
	}
	if count < 1 {
		return fmt.Errorf("dimension %q: linspace count must be at least 1, got %d", name, count)
	}

	values := make([]cty.Value, count)
	for i := range values {
		v := start
		if count > 1 {
			v = start + (stop-start)*float64(i)/float64(count-1)
		}
		if i == count-1 && count > 1 {
			// Land exactly on the endpoint regardless of rounding.
			v = stop
		}
		values[i] = cty.NumberFloatVal(v)
	}
	d.Values = values
	return nil
}

// SetLogspace overwrites the dimension's values with count values spaced
// evenly on a log scale: 10^start through 10^stop inclusive.
func (s *Set) SetLogspace(name string, start, stop float64, count int) error {
	d, err := s.dimension(name)
	if err != nil {
		return err
	}
	if count < 1 {
		return fmt.Errorf("dimension %q: logspace count must be at least 1, got %d", name, count)
	}

	values := make([]cty.Value, count)
	for i := range values {
		exp := start
		if count > 1 {
			exp = start + (stop-start)*float64(i)/float64(count-1)
		}
		if i == count-1 && count > 1 {
			exp = stop
		}
		values[i] = cty.NumberFloatVal(math.Pow(10, exp))
	}
	d.Values = values
	return nil
}

// SetArange overwrites the dimension's values with start, start+step,
// start+2*step, ... up to and including stop. If the last generated step does
// not land exactly on stop, stop is appended.
func (s *Set) SetArange(name string, start, stop, step float64) error {
	d, err := s.dimension(name)
	if err != nil {
		return err
	}
	if step <= 0 {
		return fmt.Errorf("dimension %q: arange step must be positive, got %g", name, step)
	}
	if stop < start {
		return fmt.Errorf("dimension %q: arange stop %g is below start %g", name, stop, start)
	}

	// Tolerance absorbs accumulated floating point error near the endpoint.
	tol := step * 1e-9
	var values []cty.Value
	for v := start; v <= stop+tol; v += step {
		values = append(values, cty.NumberFloatVal(v))
	}
	last, _ := values[len(values)-1].AsBigFloat().Float64()
	if math.Abs(last-stop) > tol {
		values = append(values, cty.NumberFloatVal(stop))
	}
	d.Values = values
	return nil
}

// SetDirect overwrites the dimension's values with an explicit list.
// Duplicates are removed. Numeric lists are sorted ascending unless sortAsc
// is false; lists containing strings keep their given order.
func (s *Set) SetDirect(name string, values []cty.Value, sortAsc bool) error {
	d, err := s.dimension(name)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("dimension %q: direct value list must not be empty", name)
	}

	deduped := dedupValues(values)
	if sortAsc && allNumbers(deduped) {
		sort.SliceStable(deduped, func(i, j int) bool {
			return deduped[i].AsBigFloat().Cmp(deduped[j].AsBigFloat()) < 0
		})
	}
	d.Values = deduped
	return nil
}

// dedupValues removes duplicate values, preserving first-occurrence order.
func dedupValues(values []cty.Value) []cty.Value {
	out := make([]cty.Value, 0, len(values))
	for _, v := range values {
		seen := false
		for _, w := range out {
			if v.RawEquals(w) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	return out
}

func allNumbers(values []cty.Value) bool {
	for _, v := range values {
		if v.Type() != cty.Number {
			return false
		}
	}
	return true
}
