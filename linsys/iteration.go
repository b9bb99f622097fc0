package linsys

// Copyright (c) 2025 Colin McRae

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/predrag3141/CRA/cra"
	"github.com/predrag3141/CRA/field"
)

// SolveIteration returns an Iteration computing the solution of a x = b modulo
// a prime. A prime modulo which a is singular is reported as cra.ErrBadPrime.
func SolveIteration[E any](a *Matrix, b []*big.Int) cra.Iteration[E, []E] {
	return func(f field.Field[E]) ([]E, error) {
		x, _, err := SolveMod(f, field.InitVector(f, a.values), field.InitVector(f, b), a.numRows)
		if errors.Is(err, ErrSingular) {
			return nil, fmt.Errorf("SolveIteration: %w: %w", cra.ErrBadPrime, err)
		}
		if err != nil {
			return nil, fmt.Errorf("SolveIteration: %w", err)
		}
		return x, nil
	}
}

// ScaledSolveIteration returns an Iteration computing, modulo a prime, the
// vector (det(a_0), ..., det(a_{n-1}), det(a)), where a_i is a with column i
// replaced by b. By Cramer's rule x[i] = det(a_i) / det(a).
//
// Every prime gives correct residues. When a is singular modulo the prime, the
// det(a_i) are computed one by one.
func ScaledSolveIteration[E any](a *Matrix, b []*big.Int) cra.Iteration[E, []E] {
	return func(f field.Field[E]) ([]E, error) {
		caller := "ScaledSolveIteration"
		n := a.numRows
		aModP, bModP := field.InitVector(f, a.values), field.InitVector(f, b)
		retVal := make([]E, n+1)
		x, det, err := SolveMod(f, aModP, bModP, n)
		if err == nil {
			for i := 0; i < n; i++ {
				retVal[i] = f.Mul(det, x[i])
			}
			retVal[n] = det
			return retVal, nil
		}
		if !errors.Is(err, ErrSingular) {
			return nil, fmt.Errorf("%s: %w", caller, err)
		}

		// Cramer numerators one column at a time
		aI := make([]E, n*n)
		for i := 0; i < n; i++ {
			copy(aI, aModP)
			for k := 0; k < n; k++ {
				aI[k*n+i] = bModP[k]
			}
			retVal[i], err = DeterminantMod(f, aI, n)
			if err != nil {
				return nil, fmt.Errorf("%s: could not compute numerator %d: %w", caller, i, err)
			}
		}
		retVal[n] = f.Zero()
		return retVal, nil
	}
}

// DeterminantIteration returns an Iteration computing det(a) modulo a prime.
func DeterminantIteration[E any](a *Matrix) cra.Iteration[E, E] {
	return func(f field.Field[E]) (E, error) {
		det, err := DeterminantMod(f, field.InitVector(f, a.values), a.numRows)
		if err != nil {
			return det, fmt.Errorf("DeterminantIteration: %w", err)
		}
		return det, nil
	}
}

// vectorIteration adapts a scalar Iteration to the one-entry vectors a
// fixed-count builder consumes.
func vectorIteration[E any](iteration cra.Iteration[E, E]) cra.Iteration[E, []E] {
	return func(f field.Field[E]) ([]E, error) {
		e, err := iteration(f)
		if err != nil {
			return nil, err
		}
		return []E{e}, nil
	}
}
