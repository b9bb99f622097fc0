package cra

// Copyright (c) 2025 Colin McRae

import (
	"fmt"
	"math/big"

	"github.com/predrag3141/CRA/field"
	"github.com/predrag3141/CRA/ratrecon"
)

// EarlyVectorRational reconstructs a vector of rationals sharing one sequence of
// moduli. It stops once the whole reconstructed vector has been the same for
// threshold consecutive updates. If any entry has no reconstruction within the
// bound, the candidate is cleared and the count reset to 0.
type EarlyVectorRational[E any] struct {
	threshold   int
	residues    []*big.Int
	primeProd   *big.Int
	candidate   []Rational
	occurrence  int
	initialized bool
}

// NewEarlyVectorRational returns an EarlyVectorRational that terminates after
// threshold consecutive updates reconstruct the same vector.
func NewEarlyVectorRational[E any](threshold int) (*EarlyVectorRational[E], error) {
	if threshold < 1 {
		return nil, fmt.Errorf("NewEarlyVectorRational: threshold %d is not positive: %w", threshold, ErrInvalidConfig)
	}
	return &EarlyVectorRational[E]{threshold: threshold}, nil
}

// Kind names the builder in logs and metrics.
func (ev *EarlyVectorRational[E]) Kind() string {
	return "early-vector-rational"
}

// Initialize records e, a vector over f, as the first residue. Its length fixes
// the length of every later residue.
func (ev *EarlyVectorRational[E]) Initialize(f field.Field[E], e []E) error {
	if len(e) == 0 {
		return fmt.Errorf("EarlyVectorRational.Initialize: empty residue vector: %w", ErrShapeMismatch)
	}
	m := f.Characteristic()
	if m.Cmp(big.NewInt(2)) < 0 {
		return fmt.Errorf("EarlyVectorRational.Initialize: modulus %v is less than 2: %w", m, field.ErrModulus)
	}
	ev.primeProd = m
	ev.residues = field.ConvertVector(f, e)
	ev.candidate = nil
	ev.occurrence = 0
	ev.initialized = true
	ev.track()
	return nil
}

// Progress folds e into the accumulated residues. The inverse of the
// accumulated modulus is computed once for all entries.
func (ev *EarlyVectorRational[E]) Progress(f field.Field[E], e []E) error {
	caller := "EarlyVectorRational.Progress"
	if !ev.initialized {
		return fmt.Errorf("%s: %w", caller, ErrNotInitialized)
	}
	if len(e) != len(ev.residues) {
		return fmt.Errorf("%s: residue length %d, expected %d: %w", caller, len(e), len(ev.residues), ErrShapeMismatch)
	}
	m := f.Characteristic()
	if ev.Noncoprime(m) {
		return fmt.Errorf("%s: modulus %v shares a factor with %v: %w", caller, m, ev.primeProd, ErrNotCoprime)
	}

	// Initializations
	primeProdInverse, err := f.Inv(f.Init(ev.primeProd))
	if err != nil {
		return fmt.Errorf("%s: could not invert the accumulated modulus modulo %v: %w", caller, m, err)
	}

	for i := 0; i < len(e); i++ {
		u := f.Mul(f.Sub(e[i], f.Init(ev.residues[i])), primeProdInverse)
		ev.residues[i].Add(ev.residues[i], big.NewInt(0).Mul(f.Convert(u), ev.primeProd))
	}
	ev.primeProd = big.NewInt(0).Mul(ev.primeProd, m)
	ev.track()
	return nil
}

func (ev *EarlyVectorRational[E]) Terminated() bool {
	return ev.initialized && ev.occurrence >= ev.threshold
}

func (ev *EarlyVectorRational[E]) Noncoprime(p *big.Int) bool {
	if !ev.initialized {
		return false
	}
	return !isCoprime(ev.primeProd, p)
}

// Result returns the stable reconstructed vector.
func (ev *EarlyVectorRational[E]) Result() ([]Rational, error) {
	if !ev.initialized {
		return nil, fmt.Errorf("EarlyVectorRational.Result: %w", ErrNotInitialized)
	}
	if !ev.Terminated() {
		return nil, fmt.Errorf(
			"EarlyVectorRational.Result: vector stable for %d of %d updates: %w",
			ev.occurrence, ev.threshold, ErrNotTerminated,
		)
	}
	retVal := make([]Rational, len(ev.candidate))
	for i, r := range ev.candidate {
		retVal[i] = NewRational(r.Num, r.Den)
	}
	return retVal, nil
}

// Modulus returns a copy of the product of the moduli folded in so far.
func (ev *EarlyVectorRational[E]) Modulus() *big.Int {
	if !ev.initialized {
		return nil
	}
	return big.NewInt(0).Set(ev.primeProd)
}

func (ev *EarlyVectorRational[E]) track() {
	reconstructed := make([]Rational, len(ev.residues))
	for i, r := range ev.residues {
		num, den, ok := ratrecon.Reconstruct(r, ev.primeProd)
		if !ok {
			ev.candidate = nil
			ev.occurrence = 0
			return
		}
		reconstructed[i] = Rational{Num: num, Den: den}
	}
	if ev.candidate != nil && sameRationals(ev.candidate, reconstructed) {
		ev.occurrence++
		return
	}
	ev.candidate = reconstructed
	ev.occurrence = 1
}

func sameRationals(a, b []Rational) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
