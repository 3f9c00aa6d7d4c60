// Package metaheuristics provides population-based stochastic optimizers
// for continuous, box-constrained minimization problems. Differential
// Evolution (DE) and Teaching-Learning-Based Optimization (TLBO) are
// implemented; both plug into a shared run loop that drives generations
// until a termination condition is met.
package metaheuristics

// ObjFunc is the contract an optimization problem must satisfy.
// The type parameter R is the caller-defined result derived from the best
// parameter vector at the end of a run.
//
// Implementations must be immutable for the duration of a run. The bound
// vectors define the problem dimensionality and must have equal length;
// a mismatch is rejected when the optimizer is constructed.
type ObjFunc[R any] interface {
	// Fitness returns the quality of a candidate vector; lower is better.
	// The current generation is passed through for objectives that anneal
	// or schedule internal behavior.
	Fitness(gen int, v []float64) float64

	// Result derives the final answer from a parameter vector, typically
	// the best vector found by a run.
	Result(v []float64) R

	// LB returns the per-dimension lower bounds.
	LB() []float64

	// UB returns the per-dimension upper bounds.
	UB() []float64
}
