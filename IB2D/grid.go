package IB2D

import "github.com/notargets/goib/utils"

/*
Grid is a doubly-periodic uniform Cartesian grid of Nx x Ny cells of size H
with origin (X0, Y0). Grid fields are cell-centered: sample (i, j) lives at
(X0+(j+1/2)H, Y0+(i+1/2)H) and is stored row-major in an Ny x Nx Matrix.
*/
type Grid struct {
	Nx, Ny int
	H      float64
	X0, Y0 float64
}

func NewGrid(nx, ny int, h, x0, y0 float64) *Grid {
	if nx <= 0 || ny <= 0 || h <= 0 {
		panic("NewGrid: nonpositive dimensions")
	}
	return &Grid{
		Nx: nx,
		Ny: ny,
		H:  h,
		X0: x0,
		Y0: y0,
	}
}

// NewField allocates a zero-initialized grid field.
func (g *Grid) NewField() utils.Matrix {
	return utils.NewMatrix(g.Ny, g.Nx)
}

func (g *Grid) CellCenter(i, j int) (x, y float64) {
	x = g.X0 + (float64(j)+0.5)*g.H
	y = g.Y0 + (float64(i)+0.5)*g.H
	return
}

// InnerProduct is the grid inner product <u,v> = H^2 sum(u*v).
func (g *Grid) InnerProduct(u, v utils.Matrix) (ip float64) {
	for i, val := range u.DataP {
		ip += val * v.DataP[i]
	}
	ip *= g.H * g.H
	return
}
