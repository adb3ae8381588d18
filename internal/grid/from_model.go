package grid

import (
	"fmt"

	"github.com/FormingWorlds/sweepgridgo/internal/model"
)

// FromSweep builds a dimension set from a declarative sweep description.
// Dimensions are registered in declaration order, so the first dimension
// block in the sweep file varies slowest in the generated grid.
func FromSweep(sweep *model.Sweep) (*Set, error) {
	set := NewSet()
	for _, dim := range sweep.Dimensions {
		if err := set.Add(dim.Name, dim.Parameter); err != nil {
			return nil, err
		}

		var err error
		switch dim.Method {
		case model.MethodDirect:
			err = set.SetDirect(dim.Name, dim.Values, dim.Sort)
		case model.MethodLinspace:
			err = set.SetLinspace(dim.Name, dim.Start, dim.Stop, dim.Count)
		case model.MethodLogspace:
			err = set.SetLogspace(dim.Name, dim.Start, dim.Stop, dim.Count)
		case model.MethodArange:
			err = set.SetArange(dim.Name, dim.Start, dim.Stop, dim.Step)
		default:
			err = fmt.Errorf("dimension %q: unknown generation method %v", dim.Name, dim.Method)
		}
		if err != nil {
			return nil, err
		}
	}
	return set, nil
}
