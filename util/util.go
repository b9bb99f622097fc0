package util

// Copyright (c) 2025 Colin McRae

import (
	"fmt"
	"math/big"
)

// CopyInt64ToBigInt converts an int64 matrix to a big.Int matrix
func CopyInt64ToBigInt(input []int64) []*big.Int {
	retVal := make([]*big.Int, len(input))
	for i := 0; i < len(input); i++ {
		retVal[i] = big.NewInt(input[i])
	}
	return retVal
}

// CopyBigInt returns a deep copy of input
func CopyBigInt(input []*big.Int) []*big.Int {
	retVal := make([]*big.Int, len(input))
	for i := 0; i < len(input); i++ {
		retVal[i] = big.NewInt(0).Set(input[i])
	}
	return retVal
}

// ScaleBigInt returns the matrix d * x
func ScaleBigInt(d *big.Int, x []*big.Int) []*big.Int {
	retVal := make([]*big.Int, len(x))
	for i := 0; i < len(x); i++ {
		retVal[i] = big.NewInt(0).Mul(d, x[i])
	}
	return retVal
}

// MultiplyBigInt returns the matrix product, x * y, for []*big.Int x and y.
// n must equal the number of columns in x and the number of rows in y.
func MultiplyBigInt(x []*big.Int, y []*big.Int, n int) ([]*big.Int, error) {
	// x is mxn, y is nxp and xy is mxp.
	m, p, err := getDimensions(len(x), len(y), n, "MultiplyBigInt")
	if err != nil {
		return nil, err
	}
	xy := make([]*big.Int, m*p)
	product := big.NewInt(0)
	for i := 0; i < m; i++ {
		for j := 0; j < p; j++ {
			xy[i*p+j] = big.NewInt(0).Mul(x[i*n], y[j]) // x[i][0] * y[0][j]
			for k := 1; k < n; k++ {
				xy[i*p+j].Add(xy[i*p+j], product.Mul(x[i*n+k], y[k*p+j])) // x[i][k] * y[k][j]
			}
		}
	}
	return xy, nil
}

// EqualBigInt returns whether x and y have the same length and entries
func EqualBigInt(x, y []*big.Int) bool {
	if len(x) != len(y) {
		return false
	}
	for i := 0; i < len(x); i++ {
		if x[i].Cmp(y[i]) != 0 {
			return false
		}
	}
	return true
}

// GetPermutationMatrix returns the dim x dim matrix P with P[i][perm[i]] = 1, so
// that P x permutes the rows of x, and the sign of the permutation.
func GetPermutationMatrix(perm []int) ([]int64, int, error) {
	dim := len(perm)
	retVal := make([]int64, dim*dim)
	seen := make([]bool, dim)
	for i := 0; i < dim; i++ {
		if (perm[i] < 0) || (dim <= perm[i]) || seen[perm[i]] {
			return nil, 0, fmt.Errorf("GetPermutationMatrix: %v is not a permutation", perm)
		}
		seen[perm[i]] = true
		retVal[i*dim+perm[i]] = 1
	}

	// Each cycle of length L contributes L-1 transpositions
	sign := 1
	visited := make([]bool, dim)
	for i := 0; i < dim; i++ {
		if visited[i] {
			continue
		}
		for j := i; !visited[j]; j = perm[j] {
			visited[j] = true
			if j != i {
				sign = -sign
			}
		}
	}
	return retVal, sign, nil
}

// getDimensions returns the dimensions m and p for a matrix multiply
// xy where x has mn entries, y has np entries, and the number of columns
// in x (= the number of rows in y) is n.
func getDimensions(mn, np, n int, caller string) (int, int, error) {
	caller = fmt.Sprintf("%s-getDimensions", caller)
	if n <= 0 {
		return 0, 0, fmt.Errorf("%s: inner dimension %d is not positive", caller, n)
	}
	if mn%n != 0 {
		return 0, 0, fmt.Errorf(
			"%s: non-integer number of rows %d / %d in x", caller, mn, n,
		)
	}
	if np%n != 0 {
		return 0, 0, fmt.Errorf(
			"%s: non-integer number of columns  %d / %d in y", caller, np, n,
		)
	}
	return mn / n, np / n, nil
}
