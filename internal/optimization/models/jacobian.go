package models

import (
	"gonum.org/v1/gonum/mat"
)

// Jacobian is a 3×3 matrix of partial derivatives, row-major.
type Jacobian [3][3]float32

// Dense returns the matrix as a gonum dense matrix.
func (j Jacobian) Dense() *mat.Dense {
	data := make([]float64, 0, 9)
	for _, row := range j {
		for _, v := range row {
			data = append(data, float64(v))
		}
	}
	return mat.NewDense(3, 3, data)
}

// Condition returns the 2-norm condition number of the matrix. A singular
// Jacobian yields +Inf, meaning the variables are not identifiable from the
// measured currents at that point.
func (j Jacobian) Condition() float64 {
	return mat.Cond(j.Dense(), 2)
}

// Determinant returns the determinant of the matrix.
func (j Jacobian) Determinant() float64 {
	return mat.Det(j.Dense())
}
