package constrained

import (
	"fmt"
	"math"

	"github.com/vladimir-ch/iterative"

	"github.com/notargets/goib/utils"
)

type SaddleMethod uint8

const (
	Auto SaddleMethod = iota
	Direct
	CG
)

func (sm SaddleMethod) String() string {
	switch sm {
	case Direct:
		return "Direct"
	case CG:
		return "CG"
	default:
		return "Auto"
	}
}

func NewSaddleMethod(label string) SaddleMethod {
	switch label {
	case "Direct", "direct":
		return Direct
	case "CG", "cg":
		return CG
	default:
		return Auto
	}
}

// DirectSchurLimit is the surface point count at or below which Auto selects
// the dense direct factorization over the matrix-free CG path.
const DirectSchurLimit = 512

const (
	defaultSaddleTol     = 1.e-10
	defaultSaddleMaxIter = 500
)

type SaddleConfig struct {
	Method        SaddleMethod
	Tolerance     float64 // CG residual tolerance, 0 selects the default
	MaxIterations int     // CG iteration budget, 0 selects the default
}

/*
SaddleSolver solves the block system

	[ A   B ] [ x ]   [ rState      ]
	[ Bt  0 ] [ s ] = [ rConstraint ]

by Schur-complement reduction, with the inverse action of A supplied as a
MatrixOperator (the integrating-factor propagator, which already incorporates
the time-step factor). B and Bt are the ConstraintForce/ConstraintOp pair of
the System; Bt must be the adjoint of B up to one constant scale or the Schur
complement S = Bt A^-1 B loses the symmetry both solve paths depend on.

The direct path assembles S densely (n applications of op(A^-1(force(e_j))))
and inverts it once; the CG path applies S matrix-free, probing its sign once
at construction since S is negative definite when force = -regularize.
*/
type SaddleSolver struct {
	sys    *System
	ainv   MatrixOperator
	n      int
	direct bool

	sInv utils.Matrix // direct path: factorized S^-1

	sign    float64 // CG path: +1 for positive definite S, -1 for negative
	tol     float64
	maxIter int

	// scratch, reused across Solve calls
	ga, gb, gw utils.Matrix
	rhs, sv    utils.Vector
	cgB        []float64
}

func NewSaddleSolver(sys *System, ainv MatrixOperator, cfg SaddleConfig) (sp *SaddleSolver, err error) {
	if sys == nil || ainv == nil {
		panic("NewSaddleSolver: nil system or inverse operator")
	}
	var (
		nr, nc = sys.NumGridRows(), sys.NumGridCols()
		n      = 0
	)
	if sys.Constrained() {
		n = sys.NumSurface()
	}
	sp = &SaddleSolver{
		sys:     sys,
		ainv:    ainv,
		n:       n,
		tol:     cfg.Tolerance,
		maxIter: cfg.MaxIterations,
		ga:      utils.NewMatrix(nr, nc),
		gb:      utils.NewMatrix(nr, nc),
		gw:      utils.NewMatrix(nr, nc),
		rhs:     utils.NewVector(n),
		sv:      utils.NewVector(n),
	}
	if sp.tol == 0 {
		sp.tol = defaultSaddleTol
	}
	if sp.maxIter == 0 {
		sp.maxIter = defaultSaddleMaxIter
	}
	switch cfg.Method {
	case Direct:
		sp.direct = true
	case CG:
		sp.direct = false
	default:
		sp.direct = n <= DirectSchurLimit
	}
	if n == 0 {
		return
	}
	if sp.direct {
		err = sp.assembleSchur()
	} else {
		sp.cgB = make([]float64, n)
		err = sp.probeSign()
	}
	if err != nil {
		sp = nil
	}
	return
}

// applySchur writes S*src (scaled by sign on the CG path) into dst.
func (sp *SaddleSolver) applySchur(dst, src []float64) {
	copy(sp.sv.DataP, src)
	sp.sys.EvalForce(sp.gw, sp.sv)
	sp.ainv.Apply(sp.gb, sp.gw)
	sp.sys.EvalOp(sp.sv, sp.gb)
	for i, val := range sp.sv.DataP {
		dst[i] = sp.sign * val
	}
}

func (sp *SaddleSolver) assembleSchur() (err error) {
	var (
		n   = sp.n
		S   = utils.NewMatrix(n, n)
		col = make([]float64, n)
		e   = make([]float64, n)
	)
	sp.sign = 1
	for j := 0; j < n; j++ {
		e[j] = 1
		sp.applySchur(col, e)
		e[j] = 0
		for i := 0; i < n; i++ {
			S.Set(i, j, col[i])
		}
	}
	if sp.sInv, err = S.Inverse(); err != nil {
		err = fmt.Errorf("%w: %s", ErrSingularSystem, err.Error())
	}
	return
}

// probeSign evaluates the curvature <v, S v> on a fixed probe vector. A
// vanishing curvature means S annihilates the probe and the system is
// reported singular rather than silently handed to CG.
func (sp *SaddleSolver) probeSign() (err error) {
	var (
		n  = sp.n
		v  = make([]float64, n)
		sv = make([]float64, n)
	)
	sp.sign = 1
	var vNorm2 float64
	for i := range v {
		v[i] = 1 + float64(i%7)/7
		vNorm2 += v[i] * v[i]
	}
	sp.applySchur(sv, v)
	var curvature, sNorm2 float64
	for i := range v {
		curvature += v[i] * sv[i]
		sNorm2 += sv[i] * sv[i]
	}
	if sNorm2 == 0 || math.Abs(curvature) < 1.e-14*math.Sqrt(sNorm2*vNorm2) {
		return fmt.Errorf("%w: Schur complement curvature probe vanished", ErrSingularSystem)
	}
	if curvature < 0 {
		sp.sign = -1
	}
	return
}

/*
Solve computes x = A^-1 rState - A^-1 B s with s satisfying
S s = Bt A^-1 rState - rConstraint. x must not alias rState, and x/s must not
alias the solver's scratch. With no constraint bound the solve short-circuits
to x = A^-1 rState.

A failed CG solve returns a *ConvergenceError carrying the iteration count and
last residual; the outputs are left unspecified and the caller decides whether
to retry.
*/
func (sp *SaddleSolver) Solve(x utils.Matrix, s utils.Vector, rState utils.Matrix, rConstraint utils.Vector) (err error) {
	sp.ainv.Apply(sp.ga, rState)
	if sp.n == 0 {
		x.CopyFrom(sp.ga)
		return
	}
	sp.sys.EvalOp(sp.rhs, sp.ga)
	sp.rhs.Subtract(rConstraint)
	if sp.direct {
		sp.sInv.MulVec(sp.rhs, s)
	} else {
		for i, val := range sp.rhs.DataP {
			sp.cgB[i] = sp.sign * val
		}
		res, solveErr := iterative.LinearSolve(
			iterative.MatrixOps{MatVec: sp.applySchur}, sp.cgB,
			&iterative.CG{},
			iterative.Settings{Tolerance: sp.tol, MaxIterations: sp.maxIter})
		if solveErr != nil {
			err = sp.cgSolveError(solveErr, res.Stats.Iterations, res.Stats.ResidualNorm)
			return
		}
		copy(s.DataP, res.X)
	}
	sp.sys.EvalForce(sp.gw, s)
	sp.ainv.Apply(sp.gb, sp.gw)
	x.CopyFrom(sp.ga).Subtract(sp.gb)
	return
}

// cgSolveError classifies a failed iterative solve. Only an exhausted
// iteration budget is retryable; an abort of the recurrence before the budget
// is spent means the Schur complement is singular or has lost the symmetry CG
// depends on, which no retry at a smaller step can repair.
func (sp *SaddleSolver) cgSolveError(solveErr error, iterations int, residual float64) error {
	if iterations >= sp.maxIter {
		return &ConvergenceError{
			Iterations: iterations,
			Residual:   residual,
		}
	}
	return fmt.Errorf("%w: %s", ErrSingularSystem, solveErr.Error())
}
