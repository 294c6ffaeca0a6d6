package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

/*
Vector is the container for surface fields: samples at the discrete points of
an immersed boundary, with the same chainable algebra as Matrix. DataP aliases
the backing store of V.
*/
type Vector struct {
	V        *mat.VecDense
	DataP    []float64
	readOnly bool
	name     string
}

func NewVector(n int, dataO ...[]float64) (R Vector) {
	var v *mat.VecDense
	if n == 0 {
		// mat.NewVecDense rejects zero length; an empty surface field is
		// legal (unconstrained systems), so back it with a bare empty slice.
		R = Vector{
			DataP: []float64{},
			name:  "unnamed - hint: pass a variable name to SetReadOnly()",
		}
		return
	}
	if len(dataO) != 0 {
		if len(dataO[0]) != n {
			err := fmt.Errorf("mismatch in allocation: NewVector n = %v, len(data[0]) = %v",
				n, len(dataO[0]))
			panic(err)
		}
		v = mat.NewVecDense(n, dataO[0])
	} else {
		v = mat.NewVecDense(n, make([]float64, n))
	}
	R = Vector{
		V:     v,
		DataP: v.RawVector().Data,
		name:  "unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)    { return v.V.Dims() }
func (v Vector) At(i, j int) float64 { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix       { return v.V.T() }
func (v Vector) AtVec(i int) float64 { return v.V.AtVec(i) }
func (v Vector) Len() int            { return len(v.DataP) }
func (v Vector) Data() []float64     { return v.DataP }
func (v Vector) IsEmpty() bool       { return v.V == nil && v.DataP == nil }

func (v *Vector) SetReadOnly(name ...string) Vector {
	if len(name) != 0 {
		v.name = name[0]
	}
	v.readOnly = true
	return *v
}

func (v *Vector) SetWritable() Vector {
	v.readOnly = false
	return *v
}

func (v Vector) Copy() (R Vector) { // Does not change receiver
	R = NewVector(v.Len())
	copy(R.DataP, v.DataP)
	return
}

func (v Vector) CopyFrom(A Vector) Vector { // Changes receiver, no allocation
	v.checkWritable()
	v.checkSameLen(A)
	copy(v.DataP, A.DataP)
	return v
}

func (v Vector) Zero() Vector { // Changes receiver
	v.checkWritable()
	for i := range v.DataP {
		v.DataP[i] = 0.
	}
	return v
}

func (v Vector) Set(i int, val float64) Vector { // Changes receiver
	v.checkWritable()
	v.V.SetVec(i, val)
	return v
}

func (v Vector) Add(A Vector) Vector { // Changes receiver
	v.checkWritable()
	v.checkSameLen(A)
	for i, val := range A.DataP {
		v.DataP[i] += val
	}
	return v
}

func (v Vector) Subtract(A Vector) Vector { // Changes receiver
	v.checkWritable()
	v.checkSameLen(A)
	for i, val := range A.DataP {
		v.DataP[i] -= val
	}
	return v
}

// AddScaled accumulates v += alpha * A without allocating
func (v Vector) AddScaled(A Vector, alpha float64) Vector { // Changes receiver
	v.checkWritable()
	v.checkSameLen(A)
	for i, val := range A.DataP {
		v.DataP[i] += alpha * val
	}
	return v
}

func (v Vector) Scale(a float64) Vector { // Changes receiver
	v.checkWritable()
	for i := range v.DataP {
		v.DataP[i] *= a
	}
	return v
}

func (v Vector) AddScalar(a float64) Vector { // Changes receiver
	v.checkWritable()
	for i := range v.DataP {
		v.DataP[i] += a
	}
	return v
}

func (v Vector) ElMul(A Vector) Vector { // Changes receiver
	v.checkWritable()
	v.checkSameLen(A)
	for i, val := range A.DataP {
		v.DataP[i] *= val
	}
	return v
}

func (v Vector) Apply(f func(float64) float64) Vector { // Changes receiver
	v.checkWritable()
	for i, val := range v.DataP {
		v.DataP[i] = f(val)
	}
	return v
}

func (v Vector) Dot(A Vector) (dot float64) {
	v.checkSameLen(A)
	for i, val := range v.DataP {
		dot += val * A.DataP[i]
	}
	return
}

func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Min and Max return 0 for a zero-length field
func (v Vector) Min() (min float64) {
	if len(v.DataP) == 0 {
		return
	}
	min = v.DataP[0]
	for _, val := range v.DataP {
		if val < min {
			min = val
		}
	}
	return
}

func (v Vector) Max() (max float64) {
	if len(v.DataP) == 0 {
		return
	}
	max = v.DataP[0]
	for _, val := range v.DataP {
		if val > max {
			max = val
		}
	}
	return
}

// IsFinite reports whether every element is neither NaN nor Inf
func (v Vector) IsFinite() bool {
	for _, val := range v.DataP {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return false
		}
	}
	return true
}

func (v Vector) Print(msgI ...string) (out string) {
	var (
		msg = ""
	)
	if len(msgI) != 0 {
		msg = msgI[0]
	}
	if v.V == nil {
		out = fmt.Sprintf("%s = %v\n", msg, v.DataP)
		return
	}
	formatString := "%s = \n%8.5f\n"
	out = fmt.Sprintf(formatString, msg, mat.Formatted(v.V, mat.Squeeze()))
	return
}

func (v Vector) checkWritable() {
	if v.readOnly {
		err := fmt.Errorf("attempt to write to a read only vector named: \"%v\"", v.name)
		panic(err)
	}
}

func (v Vector) checkSameLen(A Vector) {
	if v.Len() != A.Len() {
		err := fmt.Errorf("dimension mismatch: receiver has %d elements, argument has %d",
			v.Len(), A.Len())
		panic(err)
	}
}
