// Package bound computes a priori bit sizes for multi-modular computations on
// integer matrices: how large the product of the primes must be for the
// determinant, or the rational solution of a linear system, to be recovered
// from its residues.
//
// All bounds derive from Hadamard's inequality |det(A)| <= prod_i ||row_i(A)||,
// applied to rows or columns, whichever gives the smaller product.
package bound

// Copyright (c) 2025 Colin McRae

import (
	"fmt"
	"math/big"

	"github.com/predrag3141/PSLQ/bigmatrix"
	"github.com/predrag3141/PSLQ/bignumber"
)

// SquaredRowNorms returns the exact squared Euclidean norm of each row of a,
// whose entries must be integers.
func SquaredRowNorms(a *bigmatrix.BigMatrix, caller string) ([]*big.Int, error) {
	caller = fmt.Sprintf("%s-SquaredRowNorms", caller)
	numRows, numCols := a.Dimensions()
	retVal := make([]*big.Int, numRows)
	for i := 0; i < numRows; i++ {
		squaredNorm := bignumber.NewFromInt64(0)
		for j := 0; j < numCols; j++ {
			aij, err := a.Get(i, j)
			if err != nil {
				return nil, fmt.Errorf("%s: could not get a[%d][%d]: %w", caller, i, j, err)
			}
			if !aij.IsInt() {
				return nil, fmt.Errorf("%s: a[%d][%d] is not an integer", caller, i, j)
			}
			squaredNorm.MulAdd(aij, aij)
		}
		asInt, err := asBigInt(squaredNorm)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", caller, i, err)
		}
		retVal[i] = asInt
	}
	return retVal, nil
}

// SquaredColumnNorms returns the exact squared Euclidean norm of each column of
// a, whose entries must be integers.
func SquaredColumnNorms(a *bigmatrix.BigMatrix, caller string) ([]*big.Int, error) {
	caller = fmt.Sprintf("%s-SquaredColumnNorms", caller)
	numRows, numCols := a.Dimensions()
	aTranspose, err := bigmatrix.NewEmpty(numCols, numRows).Transpose(a)
	if err != nil {
		return nil, fmt.Errorf("%s: could not transpose a: %w", caller, err)
	}
	return SquaredRowNorms(aTranspose, caller)
}

// Log2Hadamard returns k such that |det(a)| < 2^k for a square integer matrix a.
func Log2Hadamard(a *bigmatrix.BigMatrix) (int, error) {
	caller := "Log2Hadamard"
	numRows, numCols := a.Dimensions()
	if (numRows == 0) || (numRows != numCols) {
		return 0, fmt.Errorf("%s: a is %d x %d, not square", caller, numRows, numCols)
	}
	rowNorms, err := SquaredRowNorms(a, caller)
	if err != nil {
		return 0, err
	}
	columnNorms, err := SquaredColumnNorms(a, caller)
	if err != nil {
		return 0, err
	}
	rowProduct, columnProduct := product(rowNorms), product(columnNorms)
	if columnProduct.Cmp(rowProduct) < 0 {
		return halfBitLen(columnProduct), nil
	}
	return halfBitLen(rowProduct), nil
}

// Log2Norm returns k such that the Euclidean norm of the column vector b is
// less than 2^k.
func Log2Norm(b *bigmatrix.BigMatrix) (int, error) {
	columnNorms, err := SquaredColumnNorms(b, "Log2Norm")
	if err != nil {
		return 0, err
	}
	if len(columnNorms) != 1 {
		return 0, fmt.Errorf("Log2Norm: b has %d columns, not 1", len(columnNorms))
	}
	return halfBitLen(columnNorms[0]), nil
}

// DeterminantBits returns the number of bits a modulus M must exceed, M > 2^bits,
// for the balanced residue of det(a) modulo M to equal det(a).
func DeterminantBits(a *bigmatrix.BigMatrix) (int, error) {
	log2Det, err := Log2Hadamard(a)
	if err != nil {
		return 0, fmt.Errorf("DeterminantBits: %w", err)
	}
	return log2Det + 1, nil
}

// NumeratorBits returns k such that every Cramer numerator det(a_i) of the
// system a x = b is less than 2^k in absolute value, a_i being a with column i
// replaced by b.
//
// The column form of Hadamard's inequality gives
// |det(a_i)| <= ||b|| prod_{j != i} ||column_j(a)||.
func NumeratorBits(a, b *bigmatrix.BigMatrix) (int, error) {
	caller := "NumeratorBits"
	numRows, numCols := a.Dimensions()
	bRows, bCols := b.Dimensions()
	if (numRows == 0) || (numRows != numCols) {
		return 0, fmt.Errorf("%s: a is %d x %d, not square", caller, numRows, numCols)
	}
	if (bRows != numRows) || (bCols != 1) {
		return 0, fmt.Errorf("%s: b is %d x %d but a is %d x %d", caller, bRows, bCols, numRows, numCols)
	}
	columnNorms, err := SquaredColumnNorms(a, caller)
	if err != nil {
		return 0, err
	}
	bNorms, err := SquaredColumnNorms(b, caller)
	if err != nil {
		return 0, err
	}

	// Initializations. prefix[i] is the product of columnNorms[0..i-1].
	prefix := make([]*big.Int, numCols+1)
	prefix[0] = big.NewInt(1)
	for j := 0; j < numCols; j++ {
		prefix[j+1] = big.NewInt(0).Mul(prefix[j], columnNorms[j])
	}
	suffix := big.NewInt(1)
	largest := big.NewInt(0)

	for i := numCols - 1; i >= 0; i-- {
		withoutColumnI := big.NewInt(0).Mul(prefix[i], suffix)
		if withoutColumnI.Cmp(largest) > 0 {
			largest = withoutColumnI
		}
		suffix.Mul(suffix, columnNorms[i])
	}
	return halfBitLen(largest.Mul(largest, bNorms[0])), nil
}

// SolutionBits returns the number of bits a modulus M must exceed, M > 2^bits,
// for the balanced residues of det(a) and of every det(a) x[i] to equal them,
// x being the solution of a x = b. By Cramer's rule det(a) x[i] = det(a_i).
func SolutionBits(a, b *bigmatrix.BigMatrix) (int, error) {
	log2Numerator, err := NumeratorBits(a, b)
	if err != nil {
		return 0, fmt.Errorf("SolutionBits: %w", err)
	}
	log2Det, err := Log2Hadamard(a)
	if err != nil {
		return 0, fmt.Errorf("SolutionBits: %w", err)
	}
	return max(log2Numerator, log2Det) + 1, nil
}

// asBigInt returns the value of an integer-valued BigNumber.
func asBigInt(bn *bignumber.BigNumber) (*big.Int, error) {
	if !bn.IsInt() {
		return nil, fmt.Errorf("value lost precision and is no longer an integer")
	}
	asString, _ := bn.String()
	retVal, ok := big.NewInt(0).SetString(asString, 10)
	if !ok {
		return nil, fmt.Errorf("could not parse %q as an integer", asString)
	}
	return retVal, nil
}

func product(x []*big.Int) *big.Int {
	retVal := big.NewInt(1)
	for _, xi := range x {
		retVal.Mul(retVal, xi)
	}
	return retVal
}

// halfBitLen returns k with sqrt(x) < 2^k for non-negative x.
func halfBitLen(x *big.Int) int {
	return (x.BitLen() + 1) / 2
}
