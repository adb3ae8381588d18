package model

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Method identifies how a dimension's values are produced.
type Method int

const (
	// MethodDirect takes the values attribute verbatim (after dedup/sort).
	MethodDirect Method = iota
	// MethodLinspace generates evenly spaced values from start to stop.
	MethodLinspace
	// MethodLogspace generates values evenly spaced on a log10 scale.
	MethodLogspace
	// MethodArange generates values from start by step, endpoint inclusive.
	MethodArange
)

// String returns the HCL-facing name of the method.
func (m Method) String() string {
	switch m {
	case MethodDirect:
		return "values"
	case MethodLinspace:
		return "linspace"
	case MethodLogspace:
		return "logspace"
	case MethodArange:
		return "arange"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Dimension is the format-agnostic representation of a `dimension` block.
// Exactly one generation method is populated, identified by Method.
type Dimension struct {
	Name      string
	Parameter string
	Method    Method

	// Direct values (MethodDirect only).
	Values []cty.Value
	Sort   bool

	// Range parameters (linspace/logspace/arange).
	Start float64
	Stop  float64
	Count int
	Step  float64
}

// hclDimension represents a single 'dimension' block for initial decoding.
type hclDimension struct {
	Name      string       `hcl:"name,label"`
	Parameter string       `hcl:"parameter"`
	Values    *cty.Value   `hcl:"values,optional"`
	Sort      *bool        `hcl:"sort,optional"`
	Linspace  *hclSpaced   `hcl:"linspace,block"`
	Logspace  *hclSpaced   `hcl:"logspace,block"`
	Arange    *hclStepping `hcl:"arange,block"`
}

// hclSpaced holds the parameters shared by linspace and logspace blocks.
type hclSpaced struct {
	Start float64 `hcl:"start"`
	Stop  float64 `hcl:"stop"`
	Count int     `hcl:"count"`
}

// hclStepping holds the parameters of an arange block.
type hclStepping struct {
	Start float64 `hcl:"start"`
	Stop  float64 `hcl:"stop"`
	Step  float64 `hcl:"step"`
}

// newDimension translates a decoded dimension block into the typed model,
// enforcing that exactly one generation method is declared.
func newDimension(parsed *hclDimension) (*Dimension, error) {
	if parsed.Parameter == "" {
		return nil, fmt.Errorf("dimension %q: parameter must name a dotted config path", parsed.Name)
	}

	dim := &Dimension{
		Name:      parsed.Name,
		Parameter: parsed.Parameter,
		Sort:      true,
	}
	if parsed.Sort != nil {
		dim.Sort = *parsed.Sort
	}

	methods := 0
	if parsed.Values != nil && !parsed.Values.IsNull() {
		methods++
		dim.Method = MethodDirect
		values, err := directValues(*parsed.Values)
		if err != nil {
			return nil, fmt.Errorf("dimension %q: %w", parsed.Name, err)
		}
		dim.Values = values
	}
	if parsed.Linspace != nil {
		methods++
		dim.Method = MethodLinspace
		dim.Start, dim.Stop, dim.Count = parsed.Linspace.Start, parsed.Linspace.Stop, parsed.Linspace.Count
	}
	if parsed.Logspace != nil {
		methods++
		dim.Method = MethodLogspace
		dim.Start, dim.Stop, dim.Count = parsed.Logspace.Start, parsed.Logspace.Stop, parsed.Logspace.Count
	}
	if parsed.Arange != nil {
		methods++
		dim.Method = MethodArange
		dim.Start, dim.Stop, dim.Step = parsed.Arange.Start, parsed.Arange.Stop, parsed.Arange.Step
	}

	if methods != 1 {
		return nil, fmt.Errorf("dimension %q: exactly one of values, linspace, logspace or arange must be set, found %d", parsed.Name, methods)
	}
	return dim, nil
}

// directValues flattens a decoded values attribute into a value slice,
// accepting only numbers and strings.
func directValues(v cty.Value) ([]cty.Value, error) {
	ty := v.Type()
	if !ty.IsTupleType() && !ty.IsListType() {
		return nil, fmt.Errorf("values must be a list, got %s", ty.FriendlyName())
	}

	var out []cty.Value
	for it := v.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		switch elem.Type() {
		case cty.Number, cty.String:
			out = append(out, elem)
		default:
			return nil, fmt.Errorf("values may only contain numbers and strings, got %s", elem.Type().FriendlyName())
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("values must not be empty")
	}
	return out, nil
}
