// Package bench provides named benchmark objectives for the CLI and server.
// Each problem implements metaheuristics.ObjFunc with canonical box bounds;
// the result of a run is the final fitness value.
package bench

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/optimize/functions"
)

// Problem is a named objective with box bounds.
type Problem struct {
	name string
	fn   func(x []float64) float64
	lb   []float64
	ub   []float64
}

// Name returns the registry name of the problem.
func (p *Problem) Name() string { return p.name }

// Dim returns the problem dimensionality.
func (p *Problem) Dim() int { return len(p.lb) }

// Fitness evaluates the objective; lower is better.
func (p *Problem) Fitness(_ int, v []float64) float64 { return p.fn(v) }

// Result returns the final fitness for the given vector.
func (p *Problem) Result(v []float64) float64 { return p.fn(v) }

// LB returns the lower bounds.
func (p *Problem) LB() []float64 { return p.lb }

// UB returns the upper bounds.
func (p *Problem) UB() []float64 { return p.ub }

func uniformBounds(dim int, lo, hi float64) (lb, ub []float64) {
	lb = make([]float64, dim)
	ub = make([]float64, dim)
	for i := range lb {
		lb[i] = lo
		ub[i] = hi
	}
	return lb, ub
}

func sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum
}

// eggholder is the classic two-dimensional multimodal benchmark with its
// minimum near (512, 404.23).
func eggholder(x []float64) float64 {
	a := x[1] + 47
	return -a*math.Sin(math.Sqrt(math.Abs(x[0]/2+a))) -
		x[0]*math.Sin(math.Sqrt(math.Abs(x[0]-a)))
}

type spec struct {
	fixedDim   int // 0 means dimension-generic
	defaultDim int
	lo, hi     float64
	lb, ub     []float64 // overrides lo/hi when set
	fn         func(x []float64) float64
}

var registry = map[string]spec{
	"sphere":     {defaultDim: 3, lo: -10, hi: 10, fn: sphere},
	"rastrigin":  {defaultDim: 3, lo: -5.12, hi: 5.12, fn: rastrigin},
	"rosenbrock": {defaultDim: 4, lo: -10, hi: 10, fn: functions.ExtendedRosenbrock{}.Func},
	"beale":      {fixedDim: 2, lo: -4.5, hi: 4.5, fn: functions.Beale{}.Func},
	"branin":     {fixedDim: 2, lb: []float64{-5, 0}, ub: []float64{10, 15}, fn: functions.BraninHoo{}.Func},
	"eggholder":  {fixedDim: 2, lo: -512, hi: 512, fn: eggholder},
}

// Names lists the available problems in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds a problem by name. dim selects the dimensionality for
// dimension-generic problems; pass 0 for the default. Fixed-dimension
// problems reject any other requested dimension.
func New(name string, dim int) (*Problem, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown objective %q (available: %v)", name, Names())
	}

	if s.fixedDim > 0 {
		if dim != 0 && dim != s.fixedDim {
			return nil, fmt.Errorf("objective %q is fixed to %d dimensions, got %d", name, s.fixedDim, dim)
		}
		dim = s.fixedDim
	} else if dim <= 0 {
		dim = s.defaultDim
	}
	if dim < 2 {
		return nil, fmt.Errorf("objective %q needs at least 2 dimensions, got %d", name, dim)
	}

	lb, ub := s.lb, s.ub
	if lb == nil {
		lb, ub = uniformBounds(dim, s.lo, s.hi)
	}
	return &Problem{name: name, fn: s.fn, lb: lb, ub: ub}, nil
}
