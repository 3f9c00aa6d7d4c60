package metaheuristics

import (
	"fmt"
	"time"
)

type taskKind int

const (
	taskMaxGen taskKind = iota
	taskMinFit
	taskMaxTime
	taskSlowDown
)

// Task is the termination condition of a run. Exactly one condition is
// active per run, fixed at construction.
type Task struct {
	kind  taskKind
	gen   int
	fit   float64
	limit time.Duration
	ratio float64
}

// MaxGen stops the run once the generation counter reaches n.
func MaxGen(n int) Task { return Task{kind: taskMaxGen, gen: n} }

// MinFit stops the run once the best fitness drops to v or below.
func MinFit(v float64) Task { return Task{kind: taskMinFit, fit: v} }

// MaxTime stops the run once the elapsed wall-clock time reaches d.
func MaxTime(d time.Duration) Task { return Task{kind: taskMaxTime, limit: d} }

// SlowDown stops the run when the per-generation improvement of the best
// fitness shrinks to the given ratio of the previous improvement. It never
// triggers on the first generation, since no previous improvement exists.
func SlowDown(ratio float64) Task { return Task{kind: taskSlowDown, ratio: ratio} }

func (t Task) String() string {
	switch t.kind {
	case taskMaxGen:
		return fmt.Sprintf("MaxGen(%d)", t.gen)
	case taskMinFit:
		return fmt.Sprintf("MinFit(%g)", t.fit)
	case taskMaxTime:
		return fmt.Sprintf("MaxTime(%s)", t.limit)
	case taskSlowDown:
		return fmt.Sprintf("SlowDown(%g)", t.ratio)
	}
	return "Task(?)"
}

// met evaluates the condition after a generation. prevBest is the best
// fitness recorded before the generation ran; lastDiff carries SlowDown
// state between generations.
func (t Task) met(gen int, bestF float64, elapsed time.Duration, prevBest float64, lastDiff *float64) bool {
	switch t.kind {
	case taskMaxGen:
		return gen >= t.gen
	case taskMinFit:
		return bestF <= t.fit
	case taskMaxTime:
		return elapsed >= t.limit
	case taskSlowDown:
		diff := prevBest - bestF
		if *lastDiff > 0 && diff / *lastDiff >= t.ratio {
			return true
		}
		*lastDiff = diff
	}
	return false
}

// Report is an immutable snapshot of optimization progress. Reports are
// appended at initialization, every Rpt generations, and at run completion,
// and are never mutated or removed.
type Report struct {
	Gen     int     `json:"gen"`
	Fitness float64 `json:"fitness"`
	Time    float64 `json:"time"` // seconds since run start
}

// Setting holds the base configuration shared by every algorithm.
type Setting struct {
	// Task is the termination condition.
	Task Task

	// PopNum is the population size.
	PopNum int

	// Rpt is the report cadence in generations.
	Rpt int

	// Seed initializes the run's random source. Identical seed and
	// configuration reproduce identical report histories and results.
	Seed int64

	// Guess optionally seeds individual 0 of the initial population,
	// clamped to the bounds. Used to resume from a saved best vector.
	Guess []float64
}

// DefaultSetting mirrors the library defaults: 200 generations, population
// of 200, a report every 50 generations.
func DefaultSetting() Setting {
	return Setting{
		Task:   MaxGen(200),
		PopNum: 200,
		Rpt:    50,
		Seed:   42,
	}
}
