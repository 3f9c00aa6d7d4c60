package metaheuristics

import "math"

// TLBOSetting is an alias for the base Setting: TLBO has no tunables beyond
// population size and termination.
type TLBOSetting = Setting

// TLBO is the Teaching-Learning-Based Optimization engine. Every generation
// runs a teacher phase and a learner phase for each individual in index
// order; unlike DE, an improved global best is adopted immediately, so
// later individuals in the same generation see it.
type TLBO[R any] struct {
	tmp  []float64
	base *Base[R]
}

// NewTLBO builds a TLBO run for the given objective.
func NewTLBO[R any](fn ObjFunc[R], s TLBOSetting) (*TLBO[R], error) {
	base, err := NewBase(fn, s)
	if err != nil {
		return nil, err
	}
	return &TLBO[R]{
		tmp:  make([]float64, base.Dim),
		base: base,
	}, nil
}

// Base returns the shared population state.
func (t *TLBO[R]) Base() *Base[R] { return t.base }

// Init draws the initial population.
func (t *TLBO[R]) Init() { t.base.InitPop() }

// register evaluates the proposed vector and adopts it at index i when
// strictly fitter; a new global best is adopted on the spot rather than in
// a deferred scan.
func (t *TLBO[R]) register(i int) {
	b := t.base
	f := b.Func.Fitness(b.Gen, t.tmp)
	if f < b.Fitness[i] {
		b.AssignFrom(i, f, t.tmp)
	}
	if f < b.BestF {
		b.SetBest(i)
	}
}

// teaching moves individual i toward the best vector, away from a scaled
// population mean. The teaching factor tf rounds to 1 or 2; out-of-bounds
// components are clamped, never rejected.
func (t *TLBO[R]) teaching(i int) {
	b := t.base
	tf := math.Round(b.RNG.Float64() + 1)
	for s := 0; s < b.Dim; s++ {
		mean := 0.0
		for j := 0; j < b.PopNum; j++ {
			mean += b.Pool[j][s]
		}
		mean /= float64(b.PopNum)
		t.tmp[s] = b.Clamp(s, b.Pool[i][s]+b.randRange(1, float64(b.Dim))*(b.Best[s]-tf*mean))
	}
	t.register(i)
}

// learning pairs individual i with a random partner j != i. The partner is
// drawn from one fewer index and shifted past i, so a single draw
// guarantees the exclusion.
func (t *TLBO[R]) learning(i int) {
	b := t.base
	j := b.RNG.Intn(b.PopNum - 1)
	if j >= i {
		j++
	}
	for s := 0; s < b.Dim; s++ {
		var diff float64
		if b.Fitness[j] < b.Fitness[i] {
			diff = b.Pool[i][s] - b.Pool[j][s]
		} else {
			diff = b.Pool[j][s] - b.Pool[i][s]
		}
		t.tmp[s] = b.Clamp(s, b.Pool[i][s]+b.randRange(1, float64(b.Dim))*diff)
	}
	t.register(i)
}

// Generation runs the teacher phase then the learner phase for every
// individual in increasing index order.
func (t *TLBO[R]) Generation() {
	for i := 0; i < t.base.PopNum; i++ {
		t.teaching(i)
		t.learning(i)
	}
}
