// Package cra reconstructs integers and rationals from their images modulo a
// sequence of primes (Chinese remaindering). A Builder accumulates residues
// one prime at a time; a Remainder drives an Iteration over primes from a
// Source until the Builder terminates.
package cra

// Copyright (c) 2025 Colin McRae

import (
	"math/big"

	logging "github.com/ipfs/go-log/v2"

	"github.com/predrag3141/CRA/field"
)

var log = logging.Logger("cra")

// Iteration computes the image of the wanted value in the field f. It returns an
// error wrapping ErrBadPrime when the problem degenerates modulo f's
// characteristic, in which case the driver draws another prime. Iterations run
// by RunParallel are called concurrently and must not share mutable state.
type Iteration[E, R any] func(f field.Field[E]) (R, error)

// Builder accumulates the residues of one value, or one vector of values, under
// pairwise coprime moduli. E is the field element type, R the per-prime residue
// shape (E or []E) and V the reconstructed value.
type Builder[E, R, V any] interface {
	// Initialize discards any previous state and records the first residue.
	Initialize(f field.Field[E], r R) error

	// Progress folds one more residue into the accumulated value.
	Progress(f field.Field[E], r R) error

	// Terminated reports whether the accumulated value is final.
	Terminated() bool

	// Noncoprime reports whether p shares a factor with the moduli accumulated
	// so far. The driver never passes such a p to Progress.
	Noncoprime(p *big.Int) bool

	// Result returns the reconstructed value, or ErrNotTerminated.
	Result() (V, error)
}

// kinded is implemented by builders that name themselves in logs and metrics.
type kinded interface {
	Kind() string
}

// modulusHolder is implemented by builders that expose their accumulated modulus.
type modulusHolder interface {
	Modulus() *big.Int
}

// Interface checks
var (
	_ Builder[uint64, uint64, *big.Int]       = (*EarlySingle[uint64])(nil)
	_ Builder[uint64, uint64, Rational]       = (*EarlyRational[uint64])(nil)
	_ Builder[uint64, []uint64, []Rational]   = (*EarlyVectorRational[uint64])(nil)
	_ Builder[float64, []float64, []*big.Int] = (*RNSFixed[float64])(nil)
)

// crtStep returns u in [0, m) with residue + u * primeProd = r (mod m), where r
// is already reduced to [0, m). The second return value is false if primeProd
// is not invertible modulo m.
func crtStep(residue, primeProd, m, r *big.Int) (*big.Int, bool) {
	primeProdInverse := big.NewInt(0).Mod(primeProd, m)
	if primeProdInverse.ModInverse(primeProdInverse, m) == nil {
		return nil, false
	}
	u := big.NewInt(0).Sub(r, residue)
	u.Mod(u, m)
	u.Mul(u, primeProdInverse)
	u.Mod(u, m)
	return u, true
}

// isCoprime reports whether gcd(a, b) = 1.
func isCoprime(a, b *big.Int) bool {
	return big.NewInt(0).GCD(nil, nil, a, b).Cmp(big.NewInt(1)) == 0
}
