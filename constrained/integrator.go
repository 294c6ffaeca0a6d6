package constrained

import (
	"errors"
	"math"

	"github.com/notargets/goib/utils"
)

type Algorithm uint8

const (
	// IFEuler is the first-order integrating-factor Euler scheme: one
	// explicit RHS evaluation and one saddle solve per step, with the linear
	// term handled exactly by the propagator.
	IFEuler Algorithm = iota
	// IFRK2 is the second-order integrating-factor midpoint scheme: two
	// stages per step, both sharing the half-step propagator and hence one
	// saddle factorization.
	IFRK2
)

func (a Algorithm) String() string {
	if a == IFRK2 {
		return "IFRK2"
	}
	return "IFEuler"
}

func NewAlgorithm(label string) Algorithm {
	if label == "IFRK2" {
		return IFRK2
	}
	return IFEuler
}

type Status uint8

const (
	Uninitialized Status = iota
	Ready
	Stepping
	Finished
	Failed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Stepping:
		return "Stepping"
	case Finished:
		return "Finished"
	case Failed:
		return "Failed"
	default:
		return "Uninitialized"
	}
}

type Config struct {
	Algorithm Algorithm
	// Dt is the requested step size. When zero, StepSize is consulted
	// instead; the chosen value is then rescaled once so the time span
	// divides into whole steps.
	Dt       float64
	StepSize func() float64
	Saddle   SaddleConfig
}

/*
Integrator advances a coupled (grid state, multiplier) pair from t0 to tEnd in
fixed whole steps. It owns its State and scratch buffers exclusively: all
stage work happens in scratch and is committed to the authoritative State only
after a fully successful step, so a failed step leaves the last consistent
state untouched. The propagator and saddle machinery are built once per step
size and cached.
*/
type Integrator struct {
	sys      *System
	state    State
	alg      Algorithm
	saddle   SaddleConfig
	t0, tEnd float64
	dt       float64
	nSteps   int // whole steps from t0 to tEnd at dt
	done     int // steps completed since the last rebase
	count    int // steps completed since construction
	status   Status
	failure  error

	prop   MatrixOperator // IFEuler: exp(dt A); IFRK2: exp(dt/2 A)
	solver *SaddleSolver

	// scratch, reused across steps and stages
	r, w, q1, xs utils.Matrix
	sigma, rc    utils.Vector
}

func NewIntegrator(sys *System, initial State, t0, tEnd float64, cfg Config) (it *Integrator, err error) {
	if sys == nil {
		panic("NewIntegrator: nil system")
	}
	var (
		nr, nc = sys.NumGridRows(), sys.NumGridCols()
	)
	nrI, ncI := initial.Q.Dims()
	if nrI != nr || ncI != nc || initial.F.Len() != sys.NumSurface() {
		err = configErrorf("initial state is %dx%d grid, %d surface; system requires %dx%d, %d",
			nrI, ncI, initial.F.Len(), nr, nc, sys.NumSurface())
		return
	}
	if !initial.IsFinite() {
		err = configErrorf("initial state contains NaN or Inf")
		return
	}
	if tEnd <= t0 {
		err = configErrorf("time span [%g, %g] is empty", t0, tEnd)
		return
	}
	dt := cfg.Dt
	if dt == 0 && cfg.StepSize != nil {
		dt = cfg.StepSize()
	}
	if dt <= 0 {
		err = configErrorf("step size %g is not positive", dt)
		return
	}
	it = &Integrator{
		sys:    sys,
		state:  initial.Copy(),
		alg:    cfg.Algorithm,
		saddle: cfg.Saddle,
		t0:     t0,
		tEnd:   tEnd,
		r:      utils.NewMatrix(nr, nc),
		w:      utils.NewMatrix(nr, nc),
		q1:     utils.NewMatrix(nr, nc),
		xs:     utils.NewMatrix(nr, nc),
		sigma:  utils.NewVector(sys.NumSurface()),
		rc:     utils.NewVector(sys.NumSurface()),
	}
	if err = it.rebase(t0, dt); err != nil {
		it = nil
		return
	}
	it.status = Ready
	return
}

// rebase fixes the step size so the remaining span [from, tEnd] divides into
// whole steps, then rebuilds the cached propagator and saddle machinery.
func (it *Integrator) rebase(from, dt float64) (err error) {
	span := it.tEnd - from
	ns := math.Ceil(span / dt)
	it.nSteps = int(ns)
	it.dt = span / ns
	it.t0 = from
	it.done = 0
	propDt := it.dt
	if it.alg == IFRK2 {
		propDt = it.dt / 2
	}
	it.prop = it.sys.A.Propagator(propDt)
	it.solver, err = NewSaddleSolver(it.sys, it.prop, it.saddle)
	return
}

func (it *Integrator) Time() float64 {
	if it.done >= it.nSteps {
		return it.tEnd
	}
	return it.t0 + float64(it.done)*it.dt
}

func (it *Integrator) Dt() float64    { return it.dt }
func (it *Integrator) Status() Status { return it.status }
func (it *Integrator) StepCount() int { return it.count }
func (it *Integrator) Err() error     { return it.failure }

// State returns a view sharing the integrator's backing storage; it is
// overwritten by the next successful step. Use CopyState for a snapshot.
func (it *Integrator) State() State { return it.state }
func (it *Integrator) CopyState() State { return it.state.Copy() }

/*
SetStepSize re-derives the step size for the remaining span, rebuilding the
propagator and saddle machinery. Only legal between Advance calls while the
integrator is Ready.
*/
func (it *Integrator) SetStepSize(dt float64) (err error) {
	if it.status != Ready {
		return configErrorf("SetStepSize requires status Ready, have %s", it.status)
	}
	if dt <= 0 {
		return configErrorf("step size %g is not positive", dt)
	}
	if err = it.rebase(it.Time(), dt); err != nil {
		it.failure = err
		it.status = Failed
	}
	return
}

/*
Advance runs up to nsteps whole steps, stopping early when tEnd is reached. A
convergence failure of the iterative saddle solve is returned with the
integrator back in Ready and the step not committed, so the caller can shrink
the step or switch saddle methods and call Advance again. Any other step
failure is fatal: the integrator transitions to Failed, keeping the last
successfully committed state, and subsequent Advance calls return the stored
error. Advancing a Finished integrator is a no-op.
*/
func (it *Integrator) Advance(nsteps int) (err error) {
	switch it.status {
	case Failed:
		return it.failure
	case Finished:
		return nil
	case Ready:
	default:
		return configErrorf("Advance requires status Ready, have %s", it.status)
	}
	it.status = Stepping
	for k := 0; k < nsteps && it.done < it.nSteps; k++ {
		if err = it.step(); err != nil {
			var ce *ConvergenceError
			if errors.As(err, &ce) {
				it.status = Ready
				return
			}
			it.failure = err
			it.status = Failed
			return
		}
	}
	if it.done >= it.nSteps {
		it.status = Finished
	} else {
		it.status = Ready
	}
	return
}

// AdvanceTo advances until the current time reaches t (capped at tEnd).
func (it *Integrator) AdvanceTo(t float64) error {
	need := int(math.Ceil((t-it.t0)/it.dt - 1.e-12))
	if need > it.nSteps {
		need = it.nSteps
	}
	if need <= it.done {
		return nil
	}
	return it.Advance(need - it.done)
}

func (it *Integrator) step() (err error) {
	t := it.t0 + float64(it.done)*it.dt
	switch it.alg {
	case IFRK2:
		err = it.stepIFRK2(t)
	default:
		err = it.stepIFEuler(t)
	}
	if err != nil {
		return
	}
	// Commit: the stage multiplier approximates dt*lambda.
	it.state.Q.CopyFrom(it.xs)
	it.state.F.CopyFrom(it.sigma).Scale(1 / it.dt)
	it.done++
	it.count++
	return
}

/*
stepIFEuler solves one saddle system per step with A^-1 = exp(dt A):

	q_next = exp(dt A)(q + dt r1(q, t)) - exp(dt A) force(sigma),
	op(q_next) = r2(t + dt).
*/
func (it *Integrator) stepIFEuler(t float64) error {
	var (
		dt = it.dt
	)
	it.sys.EvalStateRHS(it.r, it.state.Q, t)
	if !it.r.IsFinite() {
		return it.divergence(t, "StateRHS")
	}
	it.w.CopyFrom(it.state.Q).AddScaled(it.r, dt)
	it.sys.EvalConstraintRHS(it.rc, t+dt)
	if !it.rc.IsFinite() {
		return it.divergence(t, "ConstraintRHS")
	}
	if err := it.solver.Solve(it.xs, it.sigma, it.w, it.rc); err != nil {
		return err
	}
	if !it.xs.IsFinite() || !it.sigma.IsFinite() {
		return it.divergence(t, "SaddleSolve")
	}
	return nil
}

/*
stepIFRK2 is the integrating-factor midpoint rule. Both stages use the
half-step propagator H = exp(dt/2 A) as the saddle system's A^-1, so the two
stage solves share one Schur factorization:

	stage 1: w1 = q + dt/2 r1(q, t),            op(q1) = r2(t + dt/2)
	stage 2: w2 = H q + dt r1(q1, t + dt/2),    op(q_next) = r2(t + dt)

giving q_next = exp(dt A) q + dt H r1(q1) - H force(sigma2).
*/
func (it *Integrator) stepIFRK2(t float64) error {
	var (
		dt   = it.dt
		half = dt / 2
	)
	// Stage 1: midpoint predictor.
	it.sys.EvalStateRHS(it.r, it.state.Q, t)
	if !it.r.IsFinite() {
		return it.divergence(t, "StateRHS")
	}
	it.w.CopyFrom(it.state.Q).AddScaled(it.r, half)
	it.sys.EvalConstraintRHS(it.rc, t+half)
	if !it.rc.IsFinite() {
		return it.divergence(t, "ConstraintRHS")
	}
	if err := it.solver.Solve(it.q1, it.sigma, it.w, it.rc); err != nil {
		return err
	}
	if !it.q1.IsFinite() {
		return it.divergence(t, "SaddleSolve")
	}
	// Stage 2: full step off the midpoint state.
	it.sys.EvalStateRHS(it.r, it.q1, t+half)
	if !it.r.IsFinite() {
		return it.divergence(t+half, "StateRHS")
	}
	it.prop.Apply(it.w, it.state.Q)
	if !it.w.IsFinite() {
		return it.divergence(t, "Propagator")
	}
	it.w.AddScaled(it.r, dt)
	it.sys.EvalConstraintRHS(it.rc, t+dt)
	if !it.rc.IsFinite() {
		return it.divergence(t, "ConstraintRHS")
	}
	if err := it.solver.Solve(it.xs, it.sigma, it.w, it.rc); err != nil {
		return err
	}
	if !it.xs.IsFinite() || !it.sigma.IsFinite() {
		return it.divergence(t, "SaddleSolve")
	}
	return nil
}

func (it *Integrator) divergence(t float64, op string) error {
	return &StepError{
		Step:    it.count,
		Time:    t,
		Op:      op,
		Wrapped: ErrNumericalDivergence,
	}
}
