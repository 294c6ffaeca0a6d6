package constrained

import (
	"errors"
	"fmt"
)

// Error categories for the constrained ODE core.
var (
	// ErrConfiguration indicates a shape mismatch or an inconsistent operator
	// pair detected at construction time. Never produced after construction.
	ErrConfiguration = errors.New("constrained: configuration error")

	// ErrNumericalDivergence indicates a non-finite value (NaN or Inf)
	// produced by an operator callback, a propagator, or a solve. Fatal for
	// the step; the previously committed state is left intact.
	ErrNumericalDivergence = errors.New("constrained: numerical divergence (NaN or Inf detected)")

	// ErrSolverConvergence indicates the iterative Schur-complement solve
	// exhausted its iteration budget. Non-fatal: the caller may retry with a
	// smaller step or switch to the direct factorization.
	ErrSolverConvergence = errors.New("constrained: saddle solver failed to converge")

	// ErrSingularSystem indicates the Schur complement is not invertible.
	ErrSingularSystem = errors.New("constrained: singular Schur complement")
)

// StepError wraps a step-time failure with the step, time and operator that
// produced it.
type StepError struct {
	Step    int
	Time    float64
	Op      string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d, t = %g, %s: %s", e.Step, e.Time, e.Op, e.Wrapped.Error())
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// ConvergenceError reports an exhausted iteration budget together with the
// last residual, so the caller can decide whether to reduce the step size or
// fall back to the direct factorization.
type ConvergenceError struct {
	Iterations int
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: %d iterations, residual %e",
		ErrSolverConvergence.Error(), e.Iterations, e.Residual)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrSolverConvergence
}

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
