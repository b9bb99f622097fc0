// Package ratrecon recovers a rational number of bounded height from one of its
// residues modulo an integer.
package ratrecon

// Copyright (c) 2025 Colin McRae

import (
	"math/big"
)

// Bound returns floor(sqrt(m/2)), the largest absolute value a numerator or
// denominator returned by Reconstruct may have for modulus m.
func Bound(m *big.Int) *big.Int {
	half := big.NewInt(0).Rsh(m, 1)
	return half.Sqrt(half)
}

// Reconstruct returns num and den with
//
//   - num = den * r (mod m)
//   - gcd(num, den) = 1 and den > 0
//   - |num| <= Bound(m) and den <= Bound(m)
//
// by running the extended Euclidean algorithm on (m, r mod m) and stopping at
// the first remainder that is at most Bound(m). The remainder is the numerator
// and its cofactor of r is the denominator.
//
// When no pair satisfying the bounds exists, the third return value is false.
// This only means that m is too small for the value being reconstructed; it is
// not an error. r = 0 reconstructs to 0/1.
func Reconstruct(r, m *big.Int) (*big.Int, *big.Int, bool) {
	if m.Sign() <= 0 {
		return nil, nil, false
	}

	// Initializations. Throughout the loop, r0 = t0 r (mod m) and r1 = t1 r (mod m).
	bound := Bound(m)
	r0 := big.NewInt(0).Set(m)
	r1 := big.NewInt(0).Mod(r, m)
	t0 := big.NewInt(0)
	t1 := big.NewInt(1)
	q := big.NewInt(0)
	if r1.Sign() == 0 {
		return r1, t1, true
	}

	// Continued fraction expansion of m / r, halted at the first small remainder
	for r1.Cmp(bound) > 0 {
		q.Quo(r0, r1)
		r0, r1 = r1, big.NewInt(0).Sub(r0, big.NewInt(0).Mul(q, r1))
		t0, t1 = t1, big.NewInt(0).Sub(t0, big.NewInt(0).Mul(q, t1))
	}

	// The cofactor can be negative; the sign belongs on the numerator
	num, den := r1, t1
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}
	if den.Cmp(bound) > 0 {
		return nil, nil, false
	}
	if big.NewInt(0).GCD(nil, nil, big.NewInt(0).Abs(num), den).Cmp(big.NewInt(1)) != 0 {
		return nil, nil, false
	}
	return num, den, true
}

// Residue returns num / den reduced modulo m, in [0, m). The second return
// value is false if den is not invertible modulo m.
func Residue(num, den, m *big.Int) (*big.Int, bool) {
	denInverse := big.NewInt(0).ModInverse(big.NewInt(0).Mod(den, m), m)
	if denInverse == nil {
		return nil, false
	}
	retVal := big.NewInt(0).Mul(num, denInverse)
	return retVal.Mod(retVal, m), true
}
