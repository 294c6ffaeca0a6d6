package IB2D

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKernelPartitionOfUnity(t *testing.T) {
	// The Roma kernel sums to one over the grid, so interpolating a constant
	// field returns that constant exactly at every surface point.
	var (
		g = NewGrid(32, 32, 1./32, 0, 0)
		s = NewCircle(0.5, 0.5, 0.25, 40)
		c = NewCoupling(g, s)
		u = g.NewField()
		f = s.NewField()
	)
	u.AddScalar(2.5)
	c.Interpolate(f, u)
	for q := 0; q < s.NumPoints(); q++ {
		assert.InDelta(t, 2.5, f.AtVec(q), 1.e-12)
	}
}

func TestCouplingAdjointIdentity(t *testing.T) {
	// <Interpolate(u), sigma>_surface == <u, Regularize(sigma)>_grid for
	// random fields, by construction from the shared kernel weights.
	var (
		g     = NewGrid(24, 20, 1./24, 0, 0)
		s     = NewCircle(0.5, 0.4, 0.2, 31)
		c     = NewCoupling(g, s)
		rnd   = rand.New(rand.NewSource(2))
		u     = g.NewField()
		sigma = s.NewField()
		iu    = s.NewField()
		rs    = g.NewField()
	)
	for i := range u.DataP {
		u.DataP[i] = rnd.NormFloat64()
	}
	for i := range sigma.DataP {
		sigma.DataP[i] = rnd.NormFloat64()
	}
	c.Interpolate(iu, u)
	c.Regularize(rs, sigma)
	assert.InDelta(t, s.InnerProduct(iu, sigma), g.InnerProduct(u, rs), 1.e-10)
}

func TestRegularizeConservation(t *testing.T) {
	// Spreading integrates to the surface total: H^2 sum(reg(sigma)) equals
	// sum(sigma*ds), again because the kernel is a partition of unity.
	var (
		g     = NewGrid(32, 32, 1./32, 0, 0)
		s     = NewCircle(0.5, 0.5, 0.25, 50)
		c     = NewCoupling(g, s)
		sigma = s.NewField()
		rs    = g.NewField()
		ones  = g.NewField()
	)
	sigma.AddScalar(1.5)
	ones.AddScalar(1)
	c.Regularize(rs, sigma)
	var total float64
	for q := 0; q < s.NumPoints(); q++ {
		total += sigma.AtVec(q) * s.Ds[q]
	}
	assert.InDelta(t, total, g.InnerProduct(ones, rs), 1.e-10)
}

func TestDoubleLayerZeroMean(t *testing.T) {
	// The centered periodic divergence of any field sums to zero, so the
	// double-layer source has zero mean.
	var (
		g     = NewGrid(24, 24, 1./24, 0, 0)
		s     = NewCircle(0.5, 0.5, 0.2, 30)
		c     = NewCoupling(g, s)
		rnd   = rand.New(rand.NewSource(4))
		sigma = s.NewField()
		out   = g.NewField()
	)
	for i := range sigma.DataP {
		sigma.DataP[i] = rnd.NormFloat64()
	}
	c.DoubleLayer(out, sigma)
	var sum float64
	for _, val := range out.DataP {
		sum += val
	}
	assert.InDelta(t, 0, sum, 1.e-10)
	assert.True(t, out.IsFinite())
}

func TestRomaDelta(t *testing.T) {
	// Partition of unity on the integer lattice for arbitrary shifts
	for _, r := range []float64{0, 0.13, 0.5, 0.77} {
		var sum float64
		for j := -2; j <= 2; j++ {
			sum += romaDelta(float64(j) - r)
		}
		assert.InDelta(t, 1, sum, 1.e-12)
	}
	assert.Equal(t, 0., romaDelta(1.5))
	assert.Equal(t, 0., romaDelta(-2))
}
