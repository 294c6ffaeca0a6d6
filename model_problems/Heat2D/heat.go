package Heat2D

import (
	"fmt"
	"math"

	"github.com/notargets/goib/IB2D"
	"github.com/notargets/goib/constrained"
	"github.com/notargets/goib/utils"
)

/*
Heat models heat conduction dT/dt = kappa*Laplacian(T) on the doubly-periodic
unit square with an immersed circular isotherm holding T = BoundaryTemp(t) on
the circle, enforced through a surface Lagrange multiplier.
*/
type Heat struct {
	Kappa, FinalTime, FourierNumber float64
	BoundaryTemp                    func(t float64) float64
	Grid                            *IB2D.Grid
	Surface                         *IB2D.Surface
	Coupling                        *IB2D.Coupling
	Diffusion                       *IB2D.Diffusion
	Sys                             *constrained.System
	It                              *constrained.Integrator
}

/*
RampedTemp returns a boundary temperature rising smoothly from zero to tb over
tRamp and holding tb afterwards. Starting the isotherm at the initial field
value keeps the constraint compatible with the state: an impulsive jump to tb
forces a large multiplier whose regularized layer rings past the isotherm and
breaks the discrete maximum principle, while the ramp keeps the multiplier at
the modest quasi-static flux. tRamp = 0 gives the constant tb.
*/
func RampedTemp(tb, tRamp float64) func(t float64) float64 {
	return func(t float64) float64 {
		if t >= tRamp {
			return tb
		}
		if t <= 0 {
			return 0
		}
		u := t / tRamp
		return tb * u * u * (3 - 2*u)
	}
}

func NewHeat(nx, ny int, kappa, finalTime, fourierNumber float64,
	alg constrained.Algorithm, saddle constrained.SaddleConfig,
	xc, yc, r float64, boundaryTemp func(t float64) float64) (c *Heat, err error) {
	c = &Heat{
		Kappa:         kappa,
		FinalTime:     finalTime,
		FourierNumber: fourierNumber,
		BoundaryTemp:  boundaryTemp,
		Grid:          IB2D.NewGrid(nx, ny, 1/float64(nx), 0, 0),
	}
	// Surface point spacing of roughly 0.75H keeps the regularized delta
	// columns independent enough for an invertible Schur complement.
	nPts := int(math.Ceil(2 * math.Pi * r / (0.75 * c.Grid.H)))
	c.Surface = IB2D.NewCircle(xc, yc, r, nPts)
	c.Coupling = IB2D.NewCoupling(c.Grid, c.Surface)
	c.Diffusion = IB2D.NewDiffusion(c.Grid, kappa)
	proto := constrained.State{
		Q: c.Grid.NewField(),
		F: c.Surface.NewField(),
	}
	c.Sys, err = constrained.NewSystem(c.Diffusion, proto, constrained.Options{
		ConstraintRHS: func(out utils.Vector, t float64) {
			out.Zero().AddScalar(c.BoundaryTemp(t))
		},
		ConstraintForce: func(out utils.Matrix, sigma utils.Vector) {
			c.Coupling.Regularize(out, sigma)
			out.Scale(-1)
		},
		ConstraintOp: func(out utils.Vector, q utils.Matrix) {
			c.Coupling.Interpolate(out, q)
		},
	})
	if err != nil {
		return nil, err
	}
	c.It, err = constrained.NewIntegrator(c.Sys, proto, 0, finalTime, constrained.Config{
		Algorithm: alg,
		StepSize: func() float64 {
			return IB2D.FourierStep(c.Grid.H, kappa, fourierNumber)
		},
		Saddle: saddle,
	})
	if err != nil {
		return nil, err
	}
	return
}

func (c *Heat) Run() (err error) {
	var (
		it           = c.It
		logFrequency = 50
	)
	fmt.Printf("dt = %8.6f, Nsteps = %d\n", it.Dt(), int(math.Round(c.FinalTime/it.Dt())))
	for it.Status() != constrained.Finished {
		if err = it.Advance(1); err != nil {
			return
		}
		if it.StepCount()%logFrequency == 0 {
			Q, F := it.State().Q, it.State().F
			fmt.Printf("Time = %8.4f, step[%d] = |F| %8.4f, Tmin = %8.4f, Tmax = %8.4f\n",
				it.Time(), it.StepCount(), F.Norm(), Q.Min(), Q.Max())
		}
	}
	Q := it.State().Q
	fmt.Printf("Time = %8.4f, Tmin = %8.4f, Tmax = %8.4f\n", it.Time(), Q.Min(), Q.Max())
	return
}
