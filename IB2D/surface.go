package IB2D

import (
	"math"

	"github.com/notargets/goib/utils"
)

/*
Surface is a discrete immersed boundary: point coordinates, per-point
arclength weights and outward unit normals. Surface fields are sampled at
these points and stored in a Vector of matching length.
*/
type Surface struct {
	X, Y             []float64
	Ds               []float64
	NormalX, NormalY []float64
}

// NewCircle places n uniformly spaced points on the circle of radius r about
// (xc, yc). The arclength weights are uniform, which keeps the Schur
// complement of the coupling operators exactly symmetric under the Euclidean
// pairing.
func NewCircle(xc, yc, r float64, n int) *Surface {
	if n <= 0 || r <= 0 {
		panic("NewCircle: nonpositive radius or point count")
	}
	s := &Surface{
		X:       make([]float64, n),
		Y:       make([]float64, n),
		Ds:      make([]float64, n),
		NormalX: make([]float64, n),
		NormalY: make([]float64, n),
	}
	ds := 2 * math.Pi * r / float64(n)
	for q := 0; q < n; q++ {
		theta := 2 * math.Pi * float64(q) / float64(n)
		s.X[q] = xc + r*math.Cos(theta)
		s.Y[q] = yc + r*math.Sin(theta)
		s.Ds[q] = ds
		s.NormalX[q] = math.Cos(theta)
		s.NormalY[q] = math.Sin(theta)
	}
	return s
}

func (s *Surface) NumPoints() int { return len(s.X) }

// NewField allocates a zero-initialized surface field.
func (s *Surface) NewField() utils.Vector {
	return utils.NewVector(s.NumPoints())
}

// InnerProduct is the surface inner product <a,b> = sum(a*b*ds).
func (s *Surface) InnerProduct(a, b utils.Vector) (ip float64) {
	for q, val := range a.DataP {
		ip += val * b.DataP[q] * s.Ds[q]
	}
	return
}
