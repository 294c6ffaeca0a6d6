package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix(t *testing.T) {
	// Chained algebra
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		A := NewMatrix(2, 3, []float64{
			1, 1, 1,
			2, 2, 2,
		})
		R := M.Copy().Add(A).Scale(2)
		assert.Equal(t, []float64{4, 6, 8, 12, 14, 16}, R.DataP)
		// M untouched by Copy
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, M.DataP)
		R.Subtract(A).Scale(0.5).AddScaled(A, -1)
		assert.Equal(t, []float64{0.5, 1.5, 2.5, 3, 4, 5}, R.DataP)
	}
	// CopyFrom reuses storage
	{
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		R := NewMatrix(2, 2)
		data := R.DataP
		R.CopyFrom(M)
		assert.Equal(t, M.DataP, R.DataP)
		assert.Equal(t, &data[0], &R.DataP[0])
	}
	// ElMul and Apply
	{
		M := NewMatrix(1, 3, []float64{1, 2, 3})
		M.ElMul(NewMatrix(1, 3, []float64{2, 2, 2})).Apply(func(v float64) float64 { return v - 1 })
		assert.Equal(t, []float64{1, 3, 5}, M.DataP)
	}
	// MulVec
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		x := NewVector(3, []float64{1, 1, 1})
		out := NewVector(2)
		M.MulVec(x, out)
		assert.Equal(t, []float64{6, 15}, out.DataP)
	}
	// Min, Max
	{
		M := NewMatrix(2, 2, []float64{3, -1, 7, 2})
		assert.Equal(t, -1., M.Min())
		assert.Equal(t, 7., M.Max())
	}
	// Dimension mismatch panics
	{
		M := NewMatrix(2, 2)
		A := NewMatrix(2, 3)
		assert.Panics(t, func() { M.Add(A) })
	}
	// Read-only protection
	{
		M := NewMatrix(2, 2)
		M.SetReadOnly("M")
		assert.Panics(t, func() { M.Scale(2) })
		M.SetWritable()
		assert.NotPanics(t, func() { M.Scale(2) })
	}
}

func TestMatrixIsFinite(t *testing.T) {
	M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
	assert.True(t, M.IsFinite())
	M.Set(1, 1, math.NaN())
	assert.False(t, M.IsFinite())
	M.Set(1, 1, math.Inf(1))
	assert.False(t, M.IsFinite())
}

func TestMatrixInverse(t *testing.T) {
	{
		M := NewMatrix(2, 2, []float64{
			4, 7,
			2, 6,
		})
		MInv, err := M.Inverse()
		assert.NoError(t, err)
		R := M.Mul(MInv)
		assert.InDeltaSlice(t, []float64{1, 0, 0, 1}, R.DataP, 1.e-12)
	}
	// Singular matrix reports an error
	{
		M := NewMatrix(2, 2, []float64{
			1, 2,
			2, 4,
		})
		_, err := M.Inverse()
		assert.Error(t, err)
	}
	// Non-square matrix reports an error
	{
		M := NewMatrix(2, 3)
		_, err := M.Inverse()
		assert.Error(t, err)
	}
}
