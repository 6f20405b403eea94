// Package response reduces raw structural-response matrices to the scalar
// engineering-demand parameters the fragility classifier consumes.
package response

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Expected raw matrix widths. Column 0 is time; the remaining columns are
// packed as (x, y, z) triplets per node or element in model order.
const (
	DisplacementCols = 16 // 1 time + 5 nodes x 3 dof
	ForceCols        = 13 // 1 time + 4 elements x 3 force components
)

// Matrix is a time-indexed response history: one row per time sample.
type Matrix struct {
	data *mat.Dense
}

// NewMatrix builds a matrix from row-major data. Rows shorter than the
// longest row are zero-filled on the right.
func NewMatrix(rows [][]float64) *Matrix {
	if len(rows) == 0 {
		return &Matrix{}
	}
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return &Matrix{}
	}
	dense := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		for j, v := range row {
			dense.Set(i, j, v)
		}
	}
	return &Matrix{data: dense}
}

// ZeroMatrix returns an all-zero matrix of the given shape.
func ZeroMatrix(rows, cols int) *Matrix {
	if rows <= 0 || cols <= 0 {
		return &Matrix{}
	}
	return &Matrix{data: mat.NewDense(rows, cols, nil)}
}

// Rows returns the number of time samples.
func (m *Matrix) Rows() int {
	if m == nil || m.data == nil {
		return 0
	}
	r, _ := m.data.Dims()
	return r
}

// Cols returns the matrix width.
func (m *Matrix) Cols() int {
	if m == nil || m.data == nil {
		return 0
	}
	_, c := m.data.Dims()
	return c
}

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// PadTo returns a matrix at least width columns wide. Missing columns are
// zero-filled; a matrix already wide enough is returned unchanged. Short
// data is never an error here: absent response channels read as zero.
func (m *Matrix) PadTo(width int) *Matrix {
	if m.Cols() >= width {
		return m
	}
	if m.Rows() == 0 {
		return ZeroMatrix(0, 0)
	}
	padded := mat.NewDense(m.Rows(), width, nil)
	if m.data != nil {
		for i := 0; i < m.Rows(); i++ {
			for j := 0; j < m.Cols(); j++ {
				padded.Set(i, j, m.data.At(i, j))
			}
		}
	}
	return &Matrix{data: padded}
}

// MaxAbsCol returns the maximum absolute value in column j over all time
// samples, or 0 for an empty matrix.
func (m *Matrix) MaxAbsCol(j int) float64 {
	maxAbs := 0.0
	for i := 0; i < m.Rows(); i++ {
		if v := math.Abs(m.data.At(i, j)); v > maxAbs {
			maxAbs = v
		}
	}
	return maxAbs
}

// ToRows returns the matrix contents as row-major slices, for
// serialization into the results document.
func (m *Matrix) ToRows() [][]float64 {
	rows := make([][]float64, m.Rows())
	for i := range rows {
		row := make([]float64, m.Cols())
		mat.Row(row, i, m.data)
		rows[i] = row
	}
	return rows
}
