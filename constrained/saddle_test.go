package constrained

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/goib/utils"
)

func saddleFixture(t *testing.T, n int, scale float64) (*System, MatrixOperator) {
	var (
		A     = scalarOp{lambda: -2}
		proto = NewState(4, 4, n)
		dc    = newDenseCoupling(n, 4, 4, scale, 3)
	)
	sys, err := NewSystem(A, proto, Options{
		ConstraintForce: dc.force,
		ConstraintOp:    dc.op,
	})
	require.NoError(t, err)
	return sys, A.Propagator(0.1)
}

func TestSaddleDirectVsCG(t *testing.T) {
	var (
		n         = 5
		sys, ainv = saddleFixture(t, n, -1)
		rnd       = rand.New(rand.NewSource(7))
		rState    = utils.NewMatrix(4, 4)
		rc        = utils.NewVector(n)
	)
	for i := range rState.DataP {
		rState.DataP[i] = rnd.NormFloat64()
	}
	for i := range rc.DataP {
		rc.DataP[i] = rnd.NormFloat64()
	}
	solve := func(method SaddleMethod) (utils.Matrix, utils.Vector) {
		sp, err := NewSaddleSolver(sys, ainv, SaddleConfig{Method: method})
		require.NoError(t, err)
		x := utils.NewMatrix(4, 4)
		sigma := utils.NewVector(n)
		require.NoError(t, sp.Solve(x, sigma, rState, rc))
		return x, sigma
	}
	xD, sD := solve(Direct)
	xCG, sCG := solve(CG)
	assert.InDeltaSlice(t, xD.DataP, xCG.DataP, 1.e-8)
	assert.InDeltaSlice(t, sD.DataP, sCG.DataP, 1.e-8)
	// Both satisfy the constraint equation op(x) = rConstraint
	check := utils.NewVector(n)
	sys.EvalOp(check, xD)
	assert.InDeltaSlice(t, rc.DataP, check.DataP, 1.e-9)
	sys.EvalOp(check, xCG)
	assert.InDeltaSlice(t, rc.DataP, check.DataP, 1.e-7)
}

func TestSaddleNegativeDefiniteCG(t *testing.T) {
	// force = -scale*Bt makes S negative definite; the CG path must detect
	// the sign from its curvature probe and still solve correctly.
	var (
		n         = 6
		sys, ainv = saddleFixture(t, n, -1)
		rState    = utils.NewMatrix(4, 4)
		rc        = utils.NewVector(n)
	)
	rState.AddScalar(1)
	rc.AddScalar(0.5)
	spCG, err := NewSaddleSolver(sys, ainv, SaddleConfig{Method: CG})
	require.NoError(t, err)
	spD, err := NewSaddleSolver(sys, ainv, SaddleConfig{Method: Direct})
	require.NoError(t, err)
	var (
		xCG, xD = utils.NewMatrix(4, 4), utils.NewMatrix(4, 4)
		sCG, sD = utils.NewVector(n), utils.NewVector(n)
	)
	require.NoError(t, spCG.Solve(xCG, sCG, rState, rc))
	require.NoError(t, spD.Solve(xD, sD, rState, rc))
	assert.InDeltaSlice(t, xD.DataP, xCG.DataP, 1.e-8)
	assert.InDeltaSlice(t, sD.DataP, sCG.DataP, 1.e-8)
}

func TestSaddleUnconstrained(t *testing.T) {
	var (
		A     = scalarOp{lambda: -2}
		proto = NewState(4, 4, 0)
	)
	sys, err := NewSystem(A, proto, Options{})
	require.NoError(t, err)
	ainv := A.Propagator(0.25)
	sp, err := NewSaddleSolver(sys, ainv, SaddleConfig{})
	require.NoError(t, err)
	var (
		rState = utils.NewMatrix(4, 4)
		x      = utils.NewMatrix(4, 4)
		sigma  = utils.NewVector(0)
	)
	rState.AddScalar(2)
	require.NoError(t, sp.Solve(x, sigma, rState, utils.NewVector(0)))
	// x = exp(dt*lambda)*rState with no constraint bound
	expect := rState.Copy().Scale(math.Exp(-2 * 0.25))
	assert.InDeltaSlice(t, expect.DataP, x.DataP, 1.e-14)
}

func TestSaddleSingularSystem(t *testing.T) {
	var (
		A     = scalarOp{lambda: -2}
		n     = 4
		proto = NewState(4, 4, n)
		dc    = newDenseCoupling(n, 4, 4, -1, 3)
	)
	// A surface point with all-zero coupling weights zeroes an entire row
	// and column of the Schur complement, making it exactly singular.
	N := 16
	for i := N; i < 2*N; i++ {
		dc.B.DataP[i] = 0
	}
	sys, err := NewSystem(A, proto, Options{
		ConstraintForce: dc.force,
		ConstraintOp:    dc.op,
	})
	require.NoError(t, err)
	_, err = NewSaddleSolver(sys, A.Propagator(0.1), SaddleConfig{Method: Direct})
	assert.ErrorIs(t, err, ErrSingularSystem)

	// An all-zero coupling is caught by the CG curvature probe.
	zero := denseCoupling{B: utils.NewMatrix(n, N), scale: -1}
	sysZ, err := NewSystem(A, proto, Options{
		ConstraintForce: zero.force,
		ConstraintOp:    zero.op,
	})
	require.NoError(t, err)
	_, err = NewSaddleSolver(sysZ, A.Propagator(0.1), SaddleConfig{Method: CG})
	assert.ErrorIs(t, err, ErrSingularSystem)
}

func TestSaddleConvergenceFailure(t *testing.T) {
	var (
		n         = 8
		sys, ainv = saddleFixture(t, n, -1)
		rState    = utils.NewMatrix(4, 4)
		rc        = utils.NewVector(n)
	)
	rState.AddScalar(1)
	sp, err := NewSaddleSolver(sys, ainv, SaddleConfig{
		Method:        CG,
		Tolerance:     1.e-14,
		MaxIterations: 1,
	})
	require.NoError(t, err)
	var (
		x     = utils.NewMatrix(4, 4)
		sigma = utils.NewVector(n)
	)
	err = sp.Solve(x, sigma, rState, rc)
	assert.ErrorIs(t, err, ErrSolverConvergence)
	var ce *ConvergenceError
	assert.ErrorAs(t, err, &ce)
	assert.GreaterOrEqual(t, ce.Iterations, 1)
}

func TestSaddleCGErrorClassification(t *testing.T) {
	var (
		n         = 4
		sys, ainv = saddleFixture(t, n, -1)
	)
	sp, err := NewSaddleSolver(sys, ainv, SaddleConfig{Method: CG, MaxIterations: 100})
	require.NoError(t, err)
	// Spending the whole budget is retryable
	err = sp.cgSolveError(errors.New("iteration limit reached"), 100, 1.e-3)
	assert.ErrorIs(t, err, ErrSolverConvergence)
	var ce *ConvergenceError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, 100, ce.Iterations)
	// A recurrence abort before the budget is spent means a singular system
	err = sp.cgSolveError(errors.New("rho breakdown"), 2, math.NaN())
	assert.ErrorIs(t, err, ErrSingularSystem)
	assert.NotErrorIs(t, err, ErrSolverConvergence)
}
