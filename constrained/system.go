package constrained

import (
	"math"
	"math/rand"

	"github.com/notargets/goib/utils"
)

/*
Operator callbacks follow a caller-allocates, callee-overwrites contract: the
callee must fully overwrite out (zeroing it first if it accumulates), and the
caller never assumes anything about out's prior contents.
*/
type (
	// StateRHS writes the explicit contribution to dQ/dt: everything except
	// the linear operator's own term and the constraint force.
	StateRHS func(out utils.Matrix, q utils.Matrix, t float64)

	// ConstraintRHS writes the target boundary value of the constraint
	// equation at time t.
	ConstraintRHS func(out utils.Vector, t float64)

	// ConstraintForce writes the grid-space contribution of the Lagrange
	// multiplier, typically -regularize(sigma).
	ConstraintForce func(out utils.Matrix, sigma utils.Vector)

	// ConstraintOp writes the surface sampling of the grid state, typically
	// interpolate(q). It must be the adjoint of ConstraintForce up to a
	// single constant scale; the saddle solver relies on that pairing for
	// the symmetry of the Schur complement.
	ConstraintOp func(out utils.Vector, q utils.Matrix)
)

// MatrixOperator is a linear grid-to-grid map applied in place.
type MatrixOperator interface {
	Apply(out, u utils.Matrix)
}

/*
LinearOperator is the stiff linear part A of dQ/dt = A Q + ... . Propagator
returns an operator approximating the action of exp(dt*A); its accuracy bounds
the order of the integrator and must be documented per implementation.
*/
type LinearOperator interface {
	MatrixOperator
	Propagator(dt float64) MatrixOperator
}

// Options collects the operator callbacks bound into a System. A nil StateRHS
// or ConstraintRHS means identically zero. ConstraintForce and ConstraintOp
// must be supplied together or not at all; both nil means an unconstrained
// system (B = 0).
type Options struct {
	StateRHS        StateRHS
	ConstraintRHS   ConstraintRHS
	ConstraintForce ConstraintForce
	ConstraintOp    ConstraintOp

	// CheckAdjoint enables the construction-time sampled inner-product check
	// that ConstraintOp is the adjoint of ConstraintForce up to one constant
	// scale. Off by default: the pairing is a documented precondition.
	CheckAdjoint bool
}

/*
System bundles the operator callbacks with the linear operator and the shape
of the coupled state. Immutable after construction; construction probes every
supplied callback once against prototype-shaped scratch so that shape
mismatches surface as ErrConfiguration instead of a panic mid-step.
*/
type System struct {
	A        LinearOperator
	stateRHS StateRHS
	cRHS     ConstraintRHS
	force    ConstraintForce
	op       ConstraintOp

	nr, nc, nSurface int
}

func NewSystem(A LinearOperator, prototype State, opts Options) (sys *System, err error) {
	if A == nil {
		panic("NewSystem: nil LinearOperator")
	}
	if prototype.Q.IsEmpty() || prototype.F.IsEmpty() {
		panic("NewSystem: prototype state is not allocated")
	}
	nr, nc := prototype.Q.Dims()
	if nr <= 0 || nc <= 0 {
		panic("NewSystem: nonpositive grid dimensions")
	}
	if (opts.ConstraintForce == nil) != (opts.ConstraintOp == nil) {
		err = configErrorf("ConstraintForce and ConstraintOp must be supplied together")
		return
	}
	sys = &System{
		A:        A,
		stateRHS: opts.StateRHS,
		cRHS:     opts.ConstraintRHS,
		force:    opts.ConstraintForce,
		op:       opts.ConstraintOp,
		nr:       nr,
		nc:       nc,
		nSurface: prototype.F.Len(),
	}
	if err = sys.probeShapes(); err != nil {
		sys = nil
		return
	}
	if opts.CheckAdjoint && sys.op != nil {
		if err = sys.checkAdjoint(); err != nil {
			sys = nil
			return
		}
	}
	return
}

func (sys *System) NumGridRows() int { return sys.nr }
func (sys *System) NumGridCols() int { return sys.nc }
func (sys *System) NumSurface() int  { return sys.nSurface }

// Constrained reports whether a force/op pair is bound (B != 0).
func (sys *System) Constrained() bool { return sys.op != nil }

// EvalStateRHS, EvalConstraintRHS, EvalForce and EvalOp dispatch to the bound
// callbacks, writing zero when the callback is absent.
func (sys *System) EvalStateRHS(out utils.Matrix, q utils.Matrix, t float64) {
	if sys.stateRHS == nil {
		out.Zero()
		return
	}
	sys.stateRHS(out, q, t)
}

func (sys *System) EvalConstraintRHS(out utils.Vector, t float64) {
	if sys.cRHS == nil {
		out.Zero()
		return
	}
	sys.cRHS(out, t)
}

func (sys *System) EvalForce(out utils.Matrix, sigma utils.Vector) {
	if sys.force == nil {
		out.Zero()
		return
	}
	sys.force(out, sigma)
}

func (sys *System) EvalOp(out utils.Vector, q utils.Matrix) {
	if sys.op == nil {
		out.Zero()
		return
	}
	sys.op(out, q)
}

// probeShapes calls every bound callback once with prototype-shaped scratch,
// converting any panic (the algebra layer panics on dimension mismatch) into
// ErrConfiguration.
func (sys *System) probeShapes() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = configErrorf("operator probe panicked: %v", r)
		}
	}()
	gridOut := utils.NewMatrix(sys.nr, sys.nc)
	gridIn := utils.NewMatrix(sys.nr, sys.nc)
	surfOut := utils.NewVector(sys.nSurface)
	surfIn := utils.NewVector(sys.nSurface)
	if sys.stateRHS != nil {
		sys.stateRHS(gridOut, gridIn, 0)
	}
	if sys.cRHS != nil {
		sys.cRHS(surfOut, 0)
	}
	if sys.force != nil {
		sys.force(gridOut, surfIn)
	}
	if sys.op != nil {
		sys.op(surfOut, gridIn)
	}
	sys.A.Apply(gridOut, gridIn)
	return
}

/*
checkAdjoint draws deterministic pseudo-random probe pairs (x, sigma) and
compares <op(x), sigma> against <x, force(sigma)> under the Euclidean pairing.
The two must agree up to a single nonzero constant scale across all probes;
anything else breaks the symmetry of the Schur complement and is rejected as
ErrConfiguration.
*/
func (sys *System) checkAdjoint() error {
	const (
		nProbes = 3
		relTol  = 1.e-10
	)
	var (
		rnd   = rand.New(rand.NewSource(1))
		x     = utils.NewMatrix(sys.nr, sys.nc)
		sigma = utils.NewVector(sys.nSurface)
		bx    = utils.NewMatrix(sys.nr, sys.nc)
		btx   = utils.NewVector(sys.nSurface)
		ratio float64
	)
	if sys.nSurface == 0 {
		return nil
	}
	for probe := 0; probe < nProbes; probe++ {
		for i := range x.DataP {
			x.DataP[i] = rnd.NormFloat64()
		}
		for i := range sigma.DataP {
			sigma.DataP[i] = rnd.NormFloat64()
		}
		sys.op(btx, x)
		sys.force(bx, sigma)
		var pSurface, pGrid float64
		for i, val := range btx.DataP {
			pSurface += val * sigma.DataP[i]
		}
		for i, val := range bx.DataP {
			pGrid += val * x.DataP[i]
		}
		if pGrid == 0 || pSurface == 0 {
			return configErrorf("adjoint probe %d produced a zero pairing", probe)
		}
		r := pSurface / pGrid
		if probe == 0 {
			ratio = r
			continue
		}
		if math.Abs(r-ratio) > relTol*math.Abs(ratio) {
			return configErrorf(
				"ConstraintOp is not the adjoint of ConstraintForce: pairing ratios %g and %g differ",
				ratio, r)
		}
	}
	return nil
}
