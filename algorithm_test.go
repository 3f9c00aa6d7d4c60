package metaheuristics

import (
	"math"
	"testing"
	"time"
)

// sphereObj is the classic sum-of-squares objective with its minimum at the
// origin.
type sphereObj struct {
	lb, ub []float64
}

func newSphereObj(dim int) sphereObj {
	lb := make([]float64, dim)
	ub := make([]float64, dim)
	for i := range lb {
		lb[i] = -10
		ub[i] = 10
	}
	return sphereObj{lb: lb, ub: ub}
}

func (o sphereObj) Fitness(_ int, v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return sum
}

func (o sphereObj) Result(v []float64) float64 { return o.Fitness(0, v) }
func (o sphereObj) LB() []float64              { return o.lb }
func (o sphereObj) UB() []float64              { return o.ub }

// quadObj is f(v) = v0^2 + 8*v1 on [0,50]^2, minimized at the corner (0,0).
type quadObj struct{}

func (quadObj) Fitness(_ int, v []float64) float64 { return v[0]*v[0] + 8*v[1] }
func (q quadObj) Result(v []float64) float64       { return q.Fitness(0, v) }
func (quadObj) LB() []float64                      { return []float64{0, 0} }
func (quadObj) UB() []float64                      { return []float64{50, 50} }

// badBoundsObj has mismatched bound lengths.
type badBoundsObj struct{}

func (badBoundsObj) Fitness(_ int, v []float64) float64 { return 0 }
func (badBoundsObj) Result(v []float64) float64         { return 0 }
func (badBoundsObj) LB() []float64                      { return []float64{0, 0} }
func (badBoundsObj) UB() []float64                      { return []float64{50, 50, 50} }

func TestNewBaseRejectsMismatchedBounds(t *testing.T) {
	if _, err := NewBase[float64](badBoundsObj{}, DefaultSetting()); err == nil {
		t.Fatal("Expected error for mismatched bound lengths")
	}

	s := DefaultDESetting()
	if _, err := NewDE[float64](badBoundsObj{}, s); err == nil {
		t.Fatal("Expected NewDE to reject mismatched bound lengths")
	}
	if _, err := NewTLBO[float64](badBoundsObj{}, DefaultSetting()); err == nil {
		t.Fatal("Expected NewTLBO to reject mismatched bound lengths")
	}
}

func TestNewBaseRejectsBadPopulation(t *testing.T) {
	s := DefaultSetting()
	s.PopNum = 1
	if _, err := NewBase[float64](newSphereObj(2), s); err == nil {
		t.Fatal("Expected error for population of 1")
	}
}

func TestNewBaseRejectsBadGuess(t *testing.T) {
	s := DefaultSetting()
	s.Guess = []float64{1, 2, 3}
	if _, err := NewBase[float64](newSphereObj(2), s); err == nil {
		t.Fatal("Expected error for guess length mismatch")
	}
}

func TestReportCadenceMaxGen(t *testing.T) {
	s := DefaultDESetting()
	s.PopNum = 20
	s.Rpt = 1
	s.Task = MaxGen(5)

	d, err := NewDE[float64](newSphereObj(3), s)
	if err != nil {
		t.Fatalf("NewDE failed: %v", err)
	}
	Run[float64](d, nil)

	history := d.Base().History()
	if len(history) != 6 {
		t.Fatalf("Expected 6 reports for MaxGen(5) with rpt=1, got %d", len(history))
	}
	for i, r := range history {
		if r.Gen != i {
			t.Errorf("Report %d has generation %d, expected %d", i, r.Gen, i)
		}
	}
}

func TestReportFitnessMonotonic(t *testing.T) {
	s := DefaultDESetting()
	s.PopNum = 30
	s.Rpt = 5
	s.Task = MaxGen(100)

	d, err := NewDE[float64](newSphereObj(3), s)
	if err != nil {
		t.Fatalf("NewDE failed: %v", err)
	}
	Run[float64](d, nil)

	history := d.Base().History()
	for i := 1; i < len(history); i++ {
		if history[i].Fitness > history[i-1].Fitness {
			t.Errorf("Best fitness increased between reports %d and %d: %g -> %g",
				i-1, i, history[i-1].Fitness, history[i].Fitness)
		}
	}
}

func TestSlowDownNeverTripsOnFirstGeneration(t *testing.T) {
	task := SlowDown(0.5)
	lastDiff := 0.0

	// First generation: a large improvement, but no previous diff exists.
	if task.met(1, 5.0, 0, 100.0, &lastDiff) {
		t.Fatal("SlowDown must not trigger on the first generation")
	}
	if lastDiff != 95.0 {
		t.Fatalf("Expected lastDiff 95, got %g", lastDiff)
	}

	// Second generation: improvement shrank only slightly, ratio above 0.5.
	if !task.met(2, 4.0, 0, 5.0, &lastDiff) {
		t.Fatal("SlowDown should trigger once diff/lastDiff >= ratio")
	}
}

func TestMinFitHaltsOnThreshold(t *testing.T) {
	s := DefaultDESetting()
	s.PopNum = 50
	s.Rpt = 1
	s.Task = MinFit(1.0)

	d, err := NewDE[float64](newSphereObj(3), s)
	if err != nil {
		t.Fatalf("NewDE failed: %v", err)
	}
	Run[float64](d, nil)

	history := d.Base().History()
	last := history[len(history)-1]
	if last.Fitness > 1.0 {
		t.Fatalf("Run stopped with best fitness %g above threshold", last.Fitness)
	}
	// Every earlier report must still be above the threshold, otherwise the
	// run should have stopped sooner.
	for _, r := range history[:len(history)-1] {
		if r.Gen > 0 && r.Fitness <= 1.0 {
			t.Errorf("Generation %d already met the threshold (%g) but the run continued", r.Gen, r.Fitness)
		}
	}
}

func TestMaxTimeTerminates(t *testing.T) {
	s := Setting{Task: MaxTime(20 * time.Millisecond), PopNum: 20, Rpt: 100, Seed: 7}

	alg, err := NewTLBO[float64](newSphereObj(3), s)
	if err != nil {
		t.Fatalf("NewTLBO failed: %v", err)
	}
	start := time.Now()
	Run[float64](alg, nil)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("Run returned after %s, before the time limit", elapsed)
	}
}

func TestGuessSeedsFirstIndividual(t *testing.T) {
	s := DefaultSetting()
	s.PopNum = 10
	// Outside the [-10,10] bounds on purpose; must be clamped in.
	s.Guess = []float64{100, -100, 3}

	alg, err := NewTLBO[float64](newSphereObj(3), s)
	if err != nil {
		t.Fatalf("NewTLBO failed: %v", err)
	}
	alg.Init()

	b := alg.Base()
	want := []float64{10, -10, 3}
	for i, v := range want {
		if b.Pool[0][i] != v {
			t.Errorf("Pool[0][%d] = %g, expected clamped guess %g", i, b.Pool[0][i], v)
		}
	}
	if b.Fitness[0] != b.Func.Fitness(0, b.Pool[0]) {
		t.Error("Fitness of seeded individual was not evaluated")
	}
}

func TestRunCallbackSeesEveryReport(t *testing.T) {
	s := DefaultDESetting()
	s.PopNum = 20
	s.Rpt = 2
	s.Task = MaxGen(10)

	d, err := NewDE[float64](newSphereObj(2), s)
	if err != nil {
		t.Fatalf("NewDE failed: %v", err)
	}

	var seen []Report
	Run[float64](d, func(r Report) { seen = append(seen, r) })

	history := d.Base().History()
	if len(seen) != len(history) {
		t.Fatalf("Callback observed %d reports, history has %d", len(seen), len(history))
	}
	for i := range seen {
		if seen[i] != history[i] {
			t.Errorf("Callback report %d differs from history: %+v vs %+v", i, seen[i], history[i])
		}
	}
}

func TestBoundsInvariantHolds(t *testing.T) {
	check := func(t *testing.T, b *Base[float64]) {
		t.Helper()
		lb, ub := b.Func.LB(), b.Func.UB()
		for i, row := range b.Pool {
			for s, v := range row {
				if v < lb[s] || v > ub[s] {
					t.Fatalf("Individual %d dimension %d = %g outside [%g, %g]", i, s, v, lb[s], ub[s])
				}
			}
		}
		if math.IsInf(b.BestF, 1) {
			t.Fatal("Best fitness never adopted")
		}
	}

	t.Run("de extreme factors", func(t *testing.T) {
		s := DefaultDESetting()
		s.PopNum = 30
		s.Task = MaxGen(50)
		s.F = 10
		s.CR = 0.99
		d, err := NewDE[float64](newSphereObj(4), s)
		if err != nil {
			t.Fatalf("NewDE failed: %v", err)
		}
		Run[float64](d, nil)
		check(t, d.Base())
	})

	t.Run("tlbo clamping", func(t *testing.T) {
		s := Setting{Task: MaxGen(50), PopNum: 30, Rpt: 10, Seed: 3}
		alg, err := NewTLBO[float64](newSphereObj(4), s)
		if err != nil {
			t.Fatalf("NewTLBO failed: %v", err)
		}
		Run[float64](alg, nil)
		check(t, alg.Base())
	})
}
