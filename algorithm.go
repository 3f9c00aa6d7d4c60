package metaheuristics

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Algorithm is implemented by every optimization method. Concrete engines
// embed a *Base holding the population state and provide the per-generation
// update; Run drives the shared lifecycle through this interface.
type Algorithm[R any] interface {
	// Base returns the shared population state.
	Base() *Base[R]
	// Init builds the initial population. Most engines delegate to
	// Base.InitPop.
	Init()
	// Generation performs one full update pass over the population.
	Generation()
}

// Base owns the mutable state of a run: the candidate pool, fitness values,
// the best-so-far pair, the generation counter, and the run configuration.
// It is created once per run and mutated in place by the active engine.
type Base[R any] struct {
	PopNum int
	Dim    int
	Gen    int

	// BestF is the minimum fitness ever observed; it never increases.
	BestF   float64
	Best    []float64
	Fitness []float64
	Pool    [][]float64

	Func ObjFunc[R]

	// RNG is the run's sole random source. All draws an engine makes must
	// come from here so that a fixed seed reproduces the run exactly.
	RNG *rand.Rand

	task    Task
	rpt     int
	guess   []float64
	start   time.Time
	reports []Report
}

// NewBase validates the objective and settings and allocates the population
// state. A bound-length mismatch is fatal here, before any run starts.
func NewBase[R any](fn ObjFunc[R], s Setting) (*Base[R], error) {
	lb, ub := fn.LB(), fn.UB()
	if len(lb) != len(ub) {
		return nil, fmt.Errorf("bound length mismatch: lower=%d upper=%d", len(lb), len(ub))
	}
	dim := len(lb)
	if dim == 0 {
		return nil, fmt.Errorf("objective has no dimensions")
	}
	if s.PopNum < 2 {
		return nil, fmt.Errorf("population size must be at least 2, got %d", s.PopNum)
	}
	if s.Guess != nil && len(s.Guess) != dim {
		return nil, fmt.Errorf("guess length %d does not match dimension %d", len(s.Guess), dim)
	}
	rpt := s.Rpt
	if rpt <= 0 {
		rpt = 1
	}

	pool := make([][]float64, s.PopNum)
	for i := range pool {
		pool[i] = make([]float64, dim)
	}
	return &Base[R]{
		PopNum:  s.PopNum,
		Dim:     dim,
		BestF:   math.Inf(1),
		Best:    make([]float64, dim),
		Fitness: make([]float64, s.PopNum),
		Pool:    pool,
		Func:    fn,
		RNG:     rand.New(rand.NewSource(s.Seed)),
		task:    s.Task,
		rpt:     rpt,
		guess:   s.Guess,
	}, nil
}

// randRange draws uniformly from [lo, hi).
func (b *Base[R]) randRange(lo, hi float64) float64 {
	return lo + b.RNG.Float64()*(hi-lo)
}

// maybe performs a Bernoulli trial with success probability p.
func (b *Base[R]) maybe(p float64) bool {
	return b.RNG.Float64() < p
}

// Clamp pulls v into the bounds of dimension s.
func (b *Base[R]) Clamp(s int, v float64) float64 {
	if ub := b.Func.UB()[s]; v > ub {
		return ub
	}
	if lb := b.Func.LB()[s]; v < lb {
		return lb
	}
	return v
}

// Assign copies individual j's state onto index i.
func (b *Base[R]) Assign(i, j int) {
	b.Fitness[i] = b.Fitness[j]
	copy(b.Pool[i], b.Pool[j])
}

// AssignFrom overwrites individual i with the supplied vector and fitness.
// The vector is copied, so callers may reuse their buffer.
func (b *Base[R]) AssignFrom(i int, f float64, v []float64) {
	b.Fitness[i] = f
	copy(b.Pool[i], v)
}

// SetBest adopts individual i as the global best.
func (b *Base[R]) SetBest(i int) {
	b.BestF = b.Fitness[i]
	copy(b.Best, b.Pool[i])
}

// FindBest scans the current population and adopts the fittest individual
// if it improves on the incumbent best. Ties go to the first index; an
// equal-or-worse candidate never replaces the incumbent.
func (b *Base[R]) FindBest() {
	i := floats.MinIdx(b.Fitness)
	if b.Fitness[i] < b.BestF {
		b.SetBest(i)
	}
}

// InitPop draws every individual uniformly within the bounds, applies the
// optional seeded guess to index 0, evaluates all fitness values, and
// adopts the initial best.
func (b *Base[R]) InitPop() {
	lb, ub := b.Func.LB(), b.Func.UB()
	for i := range b.Pool {
		for s := 0; s < b.Dim; s++ {
			b.Pool[i][s] = b.randRange(lb[s], ub[s])
		}
		if i == 0 && b.guess != nil {
			for s, v := range b.guess {
				b.Pool[0][s] = b.Clamp(s, v)
			}
		}
		b.Fitness[i] = b.Func.Fitness(b.Gen, b.Pool[i])
	}
	b.FindBest()
}

// Elapsed returns the wall-clock time since the run started.
func (b *Base[R]) Elapsed() time.Duration {
	return time.Since(b.start)
}

// History returns a copy of the accumulated progress reports.
func (b *Base[R]) History() []Report {
	return append([]Report{}, b.reports...)
}

// Result returns the best parameter vector and its fitness.
func (b *Base[R]) Result() ([]float64, float64) {
	return append([]float64{}, b.Best...), b.BestF
}

func (b *Base[R]) report(cb func(Report)) {
	r := Report{
		Gen:     b.Gen,
		Fitness: b.BestF,
		Time:    b.Elapsed().Seconds(),
	}
	b.reports = append(b.reports, r)
	if cb != nil {
		cb(r)
	}
}

// Run executes the optimization lifecycle: initialize the population,
// iterate generations, record progress every Rpt generations, and stop when
// the termination task is met. The callback, if non-nil, observes every
// report as it is recorded. Run returns the objective-defined result for
// the best vector found.
func Run[R any](a Algorithm[R], cb func(Report)) R {
	b := a.Base()
	b.Gen = 0
	b.start = time.Now()
	a.Init()
	b.report(cb)

	lastDiff := 0.0
	for {
		prev := b.BestF
		b.Gen++
		a.Generation()
		if b.Gen%b.rpt == 0 {
			b.report(cb)
		}
		if b.task.met(b.Gen, b.BestF, b.Elapsed(), prev, &lastDiff) {
			break
		}
	}
	// The interval report may already cover the terminal generation.
	if n := len(b.reports); n == 0 || b.reports[n-1].Gen != b.Gen {
		b.report(cb)
	}
	return b.Func.Result(b.Best)
}
