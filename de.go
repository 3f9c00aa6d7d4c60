package metaheuristics

import (
	"fmt"
	"slices"
)

// Strategy selects one of the ten classic Differential Evolution variants.
// Each variant fixes a mutation formula and a crossover pattern: S1..S5 use
// exponential crossover, S6..S10 repeat the same formulas with binomial
// crossover.
type Strategy int

const (
	S1 Strategy = iota + 1 // best/1/exp
	S2                     // rand/1/exp
	S3                     // rand-to-best/1/exp
	S4                     // best/2/exp
	S5                     // rand/2/exp
	S6                     // best/1/bin
	S7                     // rand/1/bin
	S8                     // rand-to-best/1/bin
	S9                     // best/2/bin
	S10                    // rand/2/bin
)

// DESetting configures the Differential Evolution engine.
type DESetting struct {
	Setting
	Strategy Strategy
	F        float64 // mutation scale factor
	CR       float64 // crossover probability
}

// DefaultDESetting returns the customary DE configuration: strategy S1,
// F=0.6, CR=0.9, population of 400.
func DefaultDESetting() DESetting {
	s := DefaultSetting()
	s.PopNum = 400
	return DESetting{
		Setting:  s,
		Strategy: S1,
		F:        0.6,
		CR:       0.9,
	}
}

// DE is the Differential Evolution engine. The strategy's mutation formula
// and crossover pattern are resolved once at construction and stored as
// function values.
type DE[R any] struct {
	f  float64
	cr float64

	v   []int     // auxiliary indices for the current recombination
	tmp []float64 // trial vector buffer

	formula func(d *DE[R], n int) float64
	cross   func(d *DE[R], n int)

	base *Base[R]
}

// NewDE builds a Differential Evolution run for the given objective.
// The population must be strictly larger than the number of distinct
// auxiliary individuals the strategy samples, or index sampling could
// never terminate.
func NewDE[R any](fn ObjFunc[R], s DESetting) (*DE[R], error) {
	base, err := NewBase(fn, s.Setting)
	if err != nil {
		return nil, err
	}

	var num int
	switch s.Strategy {
	case S1, S3, S6, S8:
		num = 2
	case S2, S7:
		// The rand/1 formula reads a fourth auxiliary index, so four
		// distinct partners are sampled.
		num = 4
	case S4, S9:
		num = 4
	case S5, S10:
		num = 5
	default:
		return nil, fmt.Errorf("unknown DE strategy: %d", s.Strategy)
	}
	if s.PopNum <= num {
		return nil, fmt.Errorf("population size %d too small for strategy S%d: needs more than %d individuals", s.PopNum, s.Strategy, num)
	}

	d := &DE[R]{
		f:    s.F,
		cr:   s.CR,
		v:    make([]int, num),
		tmp:  make([]float64, base.Dim),
		base: base,
	}
	switch s.Strategy {
	case S1, S6:
		d.formula = (*DE[R]).best1
	case S2, S7:
		d.formula = (*DE[R]).rand1
	case S3, S8:
		d.formula = (*DE[R]).randToBest1
	case S4, S9:
		d.formula = (*DE[R]).best2
	case S5, S10:
		d.formula = (*DE[R]).rand2
	}
	if s.Strategy <= S5 {
		d.cross = (*DE[R]).crossExp
	} else {
		d.cross = (*DE[R]).crossBin
	}
	return d, nil
}

// Base returns the shared population state.
func (d *DE[R]) Base() *Base[R] { return d.base }

// Init draws the initial population.
func (d *DE[R]) Init() { d.base.InitPop() }

// sample fills d.v with distinct auxiliary indices, none equal to i and no
// two equal to each other, by rejection sampling.
func (d *DE[R]) sample(i int) {
	for j := range d.v {
		d.v[j] = i
		for d.v[j] == i || slices.Contains(d.v[:j], d.v[j]) {
			d.v[j] = d.base.RNG.Intn(d.base.PopNum)
		}
	}
}

func (d *DE[R]) best1(n int) float64 {
	return d.base.Best[n] + d.f*(d.base.Pool[d.v[0]][n]-d.base.Pool[d.v[1]][n])
}

func (d *DE[R]) rand1(n int) float64 {
	return d.base.Pool[d.v[0]][n] + d.f*(d.base.Pool[d.v[1]][n]-d.base.Pool[d.v[3]][n])
}

func (d *DE[R]) randToBest1(n int) float64 {
	return d.tmp[n] + d.f*(d.base.Best[n]-d.tmp[n]+d.base.Pool[d.v[0]][n]-d.base.Pool[d.v[1]][n])
}

func (d *DE[R]) best2(n int) float64 {
	return d.base.Best[n] + d.pairDiff(n)
}

func (d *DE[R]) rand2(n int) float64 {
	return d.base.Pool[d.v[4]][n] + d.pairDiff(n)
}

func (d *DE[R]) pairDiff(n int) float64 {
	return (d.base.Pool[d.v[0]][n] + d.base.Pool[d.v[1]][n] -
		d.base.Pool[d.v[2]][n] - d.base.Pool[d.v[3]][n]) * d.f
}

// crossExp is the exponential pattern: starting at dimension n, overwrite
// consecutive dimensions (wrapping) and after each one continue only with
// probability cr. The starting dimension is always replaced.
func (d *DE[R]) crossExp(n int) {
	for k := 0; k < d.base.Dim; k++ {
		d.tmp[n] = d.formula(d, n)
		n = (n + 1) % d.base.Dim
		if !d.base.maybe(d.cr) {
			break
		}
	}
}

// crossBin is the binomial pattern: visit every dimension once from the
// starting point, replacing each with probability 1-cr; the last dimension
// of the walk is always replaced.
func (d *DE[R]) crossBin(n int) {
	for lv := 0; lv < d.base.Dim; lv++ {
		if !d.base.maybe(d.cr) || lv == d.base.Dim-1 {
			d.tmp[n] = d.formula(d, n)
		}
		n = (n + 1) % d.base.Dim
	}
}

// recombine builds the trial vector for individual i: copy its current
// vector, then apply the crossover pattern from a random starting
// dimension.
func (d *DE[R]) recombine(i int) {
	copy(d.tmp, d.base.Pool[i])
	d.cross(d, d.base.RNG.Intn(d.base.Dim))
}

// Generation updates every individual in index order: sample auxiliary
// indices, recombine, reject the whole trial if any component leaves the
// bounds, otherwise adopt it greedily when strictly fitter. The global best
// is refreshed once at the end of the pass.
func (d *DE[R]) Generation() {
	b := d.base
	lb, ub := b.Func.LB(), b.Func.UB()
next:
	for i := 0; i < b.PopNum; i++ {
		d.sample(i)
		d.recombine(i)
		for s := 0; s < b.Dim; s++ {
			if d.tmp[s] > ub[s] || d.tmp[s] < lb[s] {
				continue next
			}
		}
		f := b.Func.Fitness(b.Gen, d.tmp)
		if f < b.Fitness[i] {
			b.AssignFrom(i, f, d.tmp)
		}
	}
	b.FindBest()
}
