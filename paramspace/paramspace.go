// Package paramspace holds the shared data model for the optimizer: the bounded
// parameter space, evaluation entries, and evaluation requests described in spec
// section 3.
package paramspace

import "fmt"

// Parameter describes a single bounded input dimension. Integer parameters are
// sampled and evolved as reals and rounded only when delivered to the objective
// function; the surrogate and evolutionary operators always work in the
// continuous domain.
type Parameter struct {
	Name    string
	Lower   float64
	Upper   float64
	Integer bool
}

// Space is an ordered list of parameters shared by every problem targeting the
// same optimization run.
type Space struct {
	Parameters []Parameter
}

// Dim returns the number of parameters in the space.
func (s Space) Dim() int {
	return len(s.Parameters)
}

// Bounds returns parallel lower/upper bound slices, one entry per parameter, in
// declaration order.
func (s Space) Bounds() (lb, ub []float64) {
	lb = make([]float64, len(s.Parameters))
	ub = make([]float64, len(s.Parameters))
	for i, p := range s.Parameters {
		lb[i] = p.Lower
		ub[i] = p.Upper
	}
	return lb, ub
}

// IntegerMask returns a boolean slice marking which dimensions are integer
// parameters.
func (s Space) IntegerMask() []bool {
	mask := make([]bool, len(s.Parameters))
	for i, p := range s.Parameters {
		mask[i] = p.Integer
	}
	return mask
}

// Names returns the parameter names in declaration order.
func (s Space) Names() []string {
	names := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		names[i] = p.Name
	}
	return names
}

// Clip clamps x in place to [lb, ub] component-wise and rounds integer
// parameters. x must have length Dim().
func (s Space) Clip(x []float64) {
	for i, p := range s.Parameters {
		if x[i] < p.Lower {
			x[i] = p.Lower
		} else if x[i] > p.Upper {
			x[i] = p.Upper
		}
		if p.Integer {
			x[i] = roundHalfAwayFromZero(x[i])
		}
	}
}

// Rounded returns a copy of x with integer-flagged dimensions rounded to the
// nearest integer. x is not mutated.
func (s Space) Rounded(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for i, p := range s.Parameters {
		if p.Integer {
			out[i] = roundHalfAwayFromZero(out[i])
		}
	}
	return out
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}

// Validate returns a configuration error if the space is structurally invalid.
func (s Space) Validate() error {
	if len(s.Parameters) == 0 {
		return fmt.Errorf("paramspace: space has no parameters")
	}
	seen := make(map[string]struct{}, len(s.Parameters))
	for _, p := range s.Parameters {
		if p.Name == "" {
			return fmt.Errorf("paramspace: parameter with empty name")
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("paramspace: duplicate parameter name %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Lower > p.Upper {
			return fmt.Errorf("paramspace: parameter %q has lower bound %v greater than upper bound %v", p.Name, p.Lower, p.Upper)
		}
	}
	return nil
}

// Entry is one stored evaluation: the epoch it belongs to, the sampled point,
// the objective vector, optional features and constraints, and the surrogate
// prediction made when x was proposed (if any). See spec section 3.
type Entry struct {
	Epoch       int
	X           []float64
	Y           []float64
	Features    map[string]float64
	Constraints []float64
	YPred       []float64
}

// Feasible reports whether every constraint component is strictly positive.
// An entry with no constraints is always feasible.
func (e Entry) Feasible() bool {
	for _, c := range e.Constraints {
		if c <= 0 {
			return false
		}
	}
	return true
}

// Request is a candidate awaiting real evaluation: the point to evaluate and
// the surrogate's prediction for it, if the point was proposed by a surrogate
// run rather than an initial sample.
type Request struct {
	X     []float64
	YPred []float64 // nil for initial-sample requests
}
