package constrained

import "github.com/notargets/goib/utils"

/*
State is the coupled (grid state, surface multiplier) pair advanced by the
Integrator. Q holds the grid field, F the Lagrange multiplier at the surface
points. Both sub-fields are allocated once, sized by the grid and surface
discretizations fixed at construction, and are only overwritten afterwards,
never reallocated.
*/
type State struct {
	Q utils.Matrix
	F utils.Vector
}

// NewState allocates a zero coupled state with an nr x nc grid field and an
// nSurface-point multiplier field. nSurface may be zero for unconstrained
// systems.
func NewState(nr, nc, nSurface int) State {
	return State{
		Q: utils.NewMatrix(nr, nc),
		F: utils.NewVector(nSurface),
	}
}

func (s State) Copy() (R State) { // Does not change receiver
	R = State{
		Q: s.Q.Copy(),
		F: s.F.Copy(),
	}
	return
}

func (s State) CopyFrom(A State) State { // Changes receiver, no allocation
	s.Q.CopyFrom(A.Q)
	s.F.CopyFrom(A.F)
	return s
}

func (s State) IsFinite() bool {
	return s.Q.IsFinite() && s.F.IsFinite()
}

// SameShape reports whether both sub-fields of A match the receiver's
// discretization.
func (s State) SameShape(A State) bool {
	nr, nc := s.Q.Dims()
	nrA, ncA := A.Q.Dims()
	return nr == nrA && nc == ncA && s.F.Len() == A.F.Len()
}
