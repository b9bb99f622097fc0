package linsys

// Copyright (c) 2025 Colin McRae

import (
	"fmt"

	"github.com/predrag3141/CRA/field"
)

// SolveMod solves a x = b over f by Gauss-Jordan elimination with row pivoting.
// a is n x n, by rows. It returns x and det(a), or ErrSingular if det(a) = 0 in f.
func SolveMod[E any](f field.Field[E], a, b []E, n int) ([]E, E, error) {
	caller := "SolveMod"
	var zero E
	if (n <= 0) || (len(a) != n*n) || (len(b) != n) {
		return nil, zero, fmt.Errorf("%s: %d entries and %d right hand sides for n = %d: %w", caller, len(a), len(b), n, ErrDimension)
	}

	// Initializations. aug is [a | b] with n+1 columns.
	width := n + 1
	aug := make([]E, n*width)
	for i := 0; i < n; i++ {
		copy(aug[i*width:i*width+n], a[i*n:(i+1)*n])
		aug[i*width+n] = b[i]
	}
	det := f.One()

	for k := 0; k < n; k++ {
		pivot := findPivot(f, aug, width, k, n)
		if pivot < 0 {
			return nil, f.Zero(), fmt.Errorf("%s: no pivot in column %d modulo %v: %w", caller, k, f.Characteristic(), ErrSingular)
		}
		if pivot != k {
			swapRows(aug, width, pivot, k)
			det = f.Neg(det)
		}
		det = f.Mul(det, aug[k*width+k])
		pivotInverse, err := f.Inv(aug[k*width+k])
		if err != nil {
			return nil, f.Zero(), fmt.Errorf("%s: could not invert pivot %d: %w", caller, k, err)
		}
		for j := k; j < width; j++ {
			aug[k*width+j] = f.Mul(aug[k*width+j], pivotInverse)
		}
		for i := 0; i < n; i++ {
			if (i == k) || f.IsZero(aug[i*width+k]) {
				continue
			}
			factor := aug[i*width+k]
			for j := k; j < width; j++ {
				aug[i*width+j] = f.Sub(aug[i*width+j], f.Mul(factor, aug[k*width+j]))
			}
		}
	}

	x := make([]E, n)
	for i := 0; i < n; i++ {
		x[i] = aug[i*width+n]
	}
	return x, det, nil
}

// DeterminantMod returns det(a) over f, computed by Gaussian elimination. a is
// n x n, by rows, and is not modified.
func DeterminantMod[E any](f field.Field[E], a []E, n int) (E, error) {
	if (n <= 0) || (len(a) != n*n) {
		return f.Zero(), fmt.Errorf("DeterminantMod: %d entries for n = %d: %w", len(a), n, ErrDimension)
	}

	// Initializations
	u := make([]E, len(a))
	copy(u, a)
	det := f.One()

	for k := 0; k < n; k++ {
		pivot := findPivot(f, u, n, k, n)
		if pivot < 0 {
			return f.Zero(), nil
		}
		if pivot != k {
			swapRows(u, n, pivot, k)
			det = f.Neg(det)
		}
		det = f.Mul(det, u[k*n+k])
		pivotInverse, err := f.Inv(u[k*n+k])
		if err != nil {
			return f.Zero(), fmt.Errorf("DeterminantMod: could not invert pivot %d: %w", k, err)
		}
		for i := k + 1; i < n; i++ {
			if f.IsZero(u[i*n+k]) {
				continue
			}
			factor := f.Mul(u[i*n+k], pivotInverse)
			for j := k; j < n; j++ {
				u[i*n+j] = f.Sub(u[i*n+j], f.Mul(factor, u[k*n+j]))
			}
		}
	}
	return det, nil
}

// findPivot returns the first row i >= k with a nonzero entry in column k, or -1.
func findPivot[E any](f field.Field[E], m []E, width, k, n int) int {
	for i := k; i < n; i++ {
		if !f.IsZero(m[i*width+k]) {
			return i
		}
	}
	return -1
}

func swapRows[E any](m []E, width, i, k int) {
	for j := 0; j < width; j++ {
		m[i*width+j], m[k*width+j] = m[k*width+j], m[i*width+j]
	}
}
