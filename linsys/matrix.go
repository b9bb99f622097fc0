// Package linsys supplies residue sources for exact integer linear algebra:
// solving a x = b and computing det(a) modulo a prime by Gaussian elimination,
// and a Solver that reconstructs the exact results with the cra package.
package linsys

// Copyright (c) 2025 Colin McRae

import (
	"errors"
	"fmt"
	"math/big"

	logging "github.com/ipfs/go-log/v2"
	"github.com/predrag3141/PSLQ/bigmatrix"
	"github.com/predrag3141/PSLQ/bignumber"

	"github.com/predrag3141/CRA/util"
)

var log = logging.Logger("linsys")

var (
	// ErrSingular is returned when a system has no unique solution.
	ErrSingular = errors.New("linsys: matrix is singular")

	// ErrFormat is returned for malformed matrix or vector text.
	ErrFormat = errors.New("linsys: malformed input")

	// ErrDimension is returned when operand dimensions do not agree.
	ErrDimension = errors.New("linsys: dimension mismatch")
)

// Matrix is a dense integer matrix stored by rows.
type Matrix struct {
	values  []*big.Int
	numRows int
	numCols int
}

// NewMatrix returns a numRows x numCols zero matrix.
func NewMatrix(numRows, numCols int) (*Matrix, error) {
	if (numRows <= 0) || (numCols <= 0) {
		return nil, fmt.Errorf("NewMatrix: illegal dimensions %d x %d: %w", numRows, numCols, ErrDimension)
	}
	retVal := &Matrix{
		values:  make([]*big.Int, numRows*numCols),
		numRows: numRows,
		numCols: numCols,
	}
	for i := range retVal.values {
		retVal.values[i] = big.NewInt(0)
	}
	return retVal, nil
}

// FromInt64 returns a numRows x numCols matrix with the entries of input, by rows.
func FromInt64(input []int64, numRows, numCols int) (*Matrix, error) {
	return FromBigInt(util.CopyInt64ToBigInt(input), numRows, numCols)
}

// FromBigInt returns a numRows x numCols matrix with copies of the entries of
// input, by rows.
func FromBigInt(input []*big.Int, numRows, numCols int) (*Matrix, error) {
	if (numRows <= 0) || (numCols <= 0) || (len(input) != numRows*numCols) {
		return nil, fmt.Errorf(
			"FromBigInt: %d entries for a %d x %d matrix: %w", len(input), numRows, numCols, ErrDimension,
		)
	}
	return &Matrix{
		values:  util.CopyBigInt(input),
		numRows: numRows,
		numCols: numCols,
	}, nil
}

func (m *Matrix) Dimensions() (int, int) {
	return m.numRows, m.numCols
}

func (m *Matrix) NumRows() int {
	return m.numRows
}

func (m *Matrix) NumCols() int {
	return m.numCols
}

// Get returns a copy of the entry in row i, column j.
func (m *Matrix) Get(i, j int) (*big.Int, error) {
	if err := m.checkIndices(i, j, "Matrix.Get"); err != nil {
		return nil, err
	}
	return big.NewInt(0).Set(m.values[i*m.numCols+j]), nil
}

// Set sets the entry in row i, column j to a copy of x.
func (m *Matrix) Set(i, j int, x *big.Int) error {
	if err := m.checkIndices(i, j, "Matrix.Set"); err != nil {
		return err
	}
	m.values[i*m.numCols+j].Set(x)
	return nil
}

// Values returns a copy of the entries, by rows.
func (m *Matrix) Values() []*big.Int {
	return util.CopyBigInt(m.values)
}

// BigMatrix returns m as an integer-valued bigmatrix.BigMatrix.
func (m *Matrix) BigMatrix() (*bigmatrix.BigMatrix, error) {
	retVal := bigmatrix.NewEmpty(m.numRows, m.numCols)
	for i := 0; i < m.numRows; i++ {
		for j := 0; j < m.numCols; j++ {
			err := retVal.Set(i, j, bignumber.NewFromInt(m.values[i*m.numCols+j]))
			if err != nil {
				return nil, fmt.Errorf("Matrix.BigMatrix: could not set entry (%d,%d): %w", i, j, err)
			}
		}
	}
	return retVal, nil
}

// ColumnBigMatrix returns the vector v as an n x 1 bigmatrix.BigMatrix.
func ColumnBigMatrix(v []*big.Int) (*bigmatrix.BigMatrix, error) {
	column, err := FromBigInt(v, len(v), 1)
	if err != nil {
		return nil, fmt.Errorf("ColumnBigMatrix: %w", err)
	}
	return column.BigMatrix()
}

// Verify reports whether a x = d b, the exact check of a solution x / d of a x = b.
func Verify(a *Matrix, x []*big.Int, d *big.Int, b []*big.Int) (bool, error) {
	if (len(x) != a.numCols) || (len(b) != a.numRows) {
		return false, fmt.Errorf(
			"Verify: x has %d entries, b %d, for a %d x %d matrix: %w", len(x), len(b), a.numRows, a.numCols,
			ErrDimension,
		)
	}
	ax, err := util.MultiplyBigInt(a.values, x, a.numCols)
	if err != nil {
		return false, fmt.Errorf("Verify: could not multiply a by x: %w", err)
	}
	return util.EqualBigInt(ax, util.ScaleBigInt(d, b)), nil
}

func (m *Matrix) checkIndices(i, j int, caller string) error {
	if (i < 0) || (m.numRows <= i) || (j < 0) || (m.numCols <= j) {
		return fmt.Errorf(
			"%s: index (%d,%d) outside a %d x %d matrix: %w", caller, i, j, m.numRows, m.numCols, ErrDimension,
		)
	}
	return nil
}
