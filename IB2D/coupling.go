package IB2D

import (
	"math"

	"github.com/james-bowman/sparse"

	"github.com/notargets/goib/utils"
)

/*
Coupling holds the adjoint pair of grid-surface operators built from a
smoothed 3-point delta kernel (Roma kernel, support 1.5H per direction):

	Regularize:  u(x)    = sum_q sigma_q delta_h(x - X_q) ds_q
	Interpolate: sigma_q = sum_c u_c delta_h(x_c - X_q) H^2

Both operators are assembled once from the same kernel weights (DOK, then
converted to CSR for application), so the adjoint identity

	<Interpolate(u), sigma>_surface == <u, Regularize(sigma)>_grid

holds to roundoff. The kernel is a partition of unity: interpolating a
constant field returns that constant exactly. The grid is treated as doubly
periodic; kernel support wraps around the domain edges.
*/
type Coupling struct {
	grid *Grid
	surf *Surface

	reg    *sparse.CSR // (Ny*Nx) x n spread weights
	interp *sparse.CSR // n x (Ny*Nx) sample weights

	// scratch for the double-layer source
	gx, gy utils.Matrix
	sv     utils.Vector
}

// romaDelta is the one-dimensional Roma kernel phi(r), normalized so that
// sum_j phi(j - r) = 1 for any shift r.
func romaDelta(r float64) float64 {
	r = math.Abs(r)
	switch {
	case r <= 0.5:
		return (1 + math.Sqrt(1-3*r*r)) / 3
	case r <= 1.5:
		return (5 - 3*r - math.Sqrt(1-3*(1-r)*(1-r))) / 6
	default:
		return 0
	}
}

func NewCoupling(g *Grid, s *Surface) *Coupling {
	var (
		n     = s.NumPoints()
		nGrid = g.Nx * g.Ny
		dokR  = sparse.NewDOK(nGrid, n)
		dokI  = sparse.NewDOK(n, nGrid)
		h2    = g.H * g.H
	)
	for q := 0; q < n; q++ {
		// Cell-center index space of the surface point.
		cx := (s.X[q]-g.X0)/g.H - 0.5
		cy := (s.Y[q]-g.Y0)/g.H - 0.5
		j0, i0 := int(math.Floor(cx)), int(math.Floor(cy))
		for di := -1; di <= 2; di++ {
			i := i0 + di
			phiY := romaDelta(float64(i) - cy)
			if phiY == 0 {
				continue
			}
			iw := wrap(i, g.Ny)
			for dj := -1; dj <= 2; dj++ {
				j := j0 + dj
				phi := phiY * romaDelta(float64(j)-cx)
				if phi == 0 {
					continue
				}
				cell := iw*g.Nx + wrap(j, g.Nx)
				dokR.Set(cell, q, dokR.At(cell, q)+phi/h2*s.Ds[q])
				dokI.Set(q, cell, dokI.At(q, cell)+phi)
			}
		}
	}
	return &Coupling{
		grid:   g,
		surf:   s,
		reg:    dokR.ToCSR(),
		interp: dokI.ToCSR(),
		gx:     g.NewField(),
		gy:     g.NewField(),
		sv:     s.NewField(),
	}
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Regularize spreads a surface field onto the grid. Fully overwrites out.
func (c *Coupling) Regularize(out utils.Matrix, sigma utils.Vector) {
	out.Zero()
	c.reg.DoNonZero(func(i, j int, v float64) {
		out.DataP[i] += v * sigma.DataP[j]
	})
}

// Interpolate samples a grid field at the surface points. Fully overwrites out.
func (c *Coupling) Interpolate(out utils.Vector, q utils.Matrix) {
	out.Zero()
	c.interp.DoNonZero(func(i, j int, v float64) {
		out.DataP[i] += v * q.DataP[j]
	})
}

/*
DoubleLayer writes the double-layer source div(reg(sigma*nx), reg(sigma*ny))
built from a surface-supported jump sigma, using centered periodic
differences. Fully overwrites out. Not safe for concurrent use: the receiver's
scratch fields are reused across calls.
*/
func (c *Coupling) DoubleLayer(out utils.Matrix, sigma utils.Vector) {
	var (
		g    = c.grid
		inv2 = 1 / (2 * g.H)
	)
	for q := range c.sv.DataP {
		c.sv.DataP[q] = sigma.DataP[q] * c.surf.NormalX[q]
	}
	c.Regularize(c.gx, c.sv)
	for q := range c.sv.DataP {
		c.sv.DataP[q] = sigma.DataP[q] * c.surf.NormalY[q]
	}
	c.Regularize(c.gy, c.sv)
	for i := 0; i < g.Ny; i++ {
		var (
			ip = wrap(i+1, g.Ny) * g.Nx
			im = wrap(i-1, g.Ny) * g.Nx
			i0 = i * g.Nx
		)
		for j := 0; j < g.Nx; j++ {
			jp, jm := wrap(j+1, g.Nx), wrap(j-1, g.Nx)
			out.DataP[i0+j] = inv2 * (c.gx.DataP[i0+jp] - c.gx.DataP[i0+jm] +
				c.gy.DataP[ip+j] - c.gy.DataP[im+j])
		}
	}
}
