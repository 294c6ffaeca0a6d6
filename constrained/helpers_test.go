package constrained

import (
	"math"
	"math/rand"

	"github.com/notargets/goib/utils"
)

// scalarOp is the diagonal test operator A = lambda*I. Its propagator is the
// closed form exp(dt*lambda)*I, so the exponential action carries no
// approximation error and integrator tests see the scheme's order directly.
type scalarOp struct {
	lambda float64
}

func (s scalarOp) Apply(out, u utils.Matrix) {
	out.CopyFrom(u).Scale(s.lambda)
}

func (s scalarOp) Propagator(dt float64) MatrixOperator {
	return scaleOp{factor: math.Exp(dt * s.lambda)}
}

type scaleOp struct {
	factor float64
}

func (s scaleOp) Apply(out, u utils.Matrix) {
	out.CopyFrom(u).Scale(s.factor)
}

// denseCoupling realizes the force/op pair from an explicit n x N matrix B:
// op(q) = B*q and force(sigma) = scale*Bt*sigma, an exact adjoint pair up to
// the constant scale.
type denseCoupling struct {
	B     utils.Matrix
	scale float64
}

func newDenseCoupling(n, nr, nc int, scale float64, seed int64) denseCoupling {
	var (
		rnd = rand.New(rand.NewSource(seed))
		B   = utils.NewMatrix(n, nr*nc)
	)
	for i := range B.DataP {
		B.DataP[i] = rnd.NormFloat64()
	}
	return denseCoupling{B: B, scale: scale}
}

func (d denseCoupling) force(out utils.Matrix, sigma utils.Vector) {
	var (
		n, N = d.B.Dims()
	)
	out.Zero()
	for r := 0; r < n; r++ {
		row := d.B.DataP[r*N : (r+1)*N]
		for c, val := range row {
			out.DataP[c] += d.scale * val * sigma.DataP[r]
		}
	}
}

func (d denseCoupling) op(out utils.Vector, q utils.Matrix) {
	_, N := d.B.Dims()
	d.B.MulVec(utils.NewVector(N, q.DataP), out)
}

func randomState(nr, nc, n int, seed int64) State {
	var (
		rnd = rand.New(rand.NewSource(seed))
		s   = NewState(nr, nc, n)
	)
	for i := range s.Q.DataP {
		s.Q.DataP[i] = rnd.NormFloat64()
	}
	return s
}
