package cra

// Copyright (c) 2025 Colin McRae

import (
	"fmt"
	"math/big"

	"github.com/predrag3141/CRA/field"
	"github.com/predrag3141/CRA/ratrecon"
)

// EarlyRational reconstructs one rational number. It accumulates residues with
// an EarlySingle and, after every update, rationally reconstructs the residue.
// It stops once the reconstructed fraction has been the same for threshold
// consecutive updates. An update whose residue has no reconstruction within the
// bound clears the candidate and resets the count to 0.
type EarlyRational[E any] struct {
	integer    *EarlySingle[E]
	threshold  int
	candidate  *Rational
	occurrence int
}

// NewEarlyRational returns an EarlyRational that terminates after threshold
// consecutive updates reconstruct the same fraction.
func NewEarlyRational[E any](threshold int) (*EarlyRational[E], error) {
	integer, err := NewEarlySingle[E](threshold)
	if err != nil {
		return nil, fmt.Errorf("NewEarlyRational: could not create integer accumulator: %w", err)
	}
	return &EarlyRational[E]{integer: integer, threshold: threshold}, nil
}

// Kind names the builder in logs and metrics.
func (er *EarlyRational[E]) Kind() string {
	return "early-rational"
}

// Initialize starts the reconstruction over with e, the residue modulo the
// characteristic of f.
func (er *EarlyRational[E]) Initialize(f field.Field[E], e E) error {
	if err := er.integer.Initialize(f, e); err != nil {
		return fmt.Errorf("EarlyRational.Initialize: %w", err)
	}
	er.candidate = nil
	er.occurrence = 0
	er.track()
	return nil
}

// Progress folds e, the residue modulo the characteristic of f, into the
// accumulated residue and reconstructs the fraction again.
func (er *EarlyRational[E]) Progress(f field.Field[E], e E) error {
	if err := er.integer.Progress(f, e); err != nil {
		return fmt.Errorf("EarlyRational.Progress: %w", err)
	}
	er.track()
	return nil
}

// InitializeInt records r as the residue modulo m.
func (er *EarlyRational[E]) InitializeInt(m, r *big.Int) error {
	if err := er.integer.InitializeInt(m, r); err != nil {
		return fmt.Errorf("EarlyRational.InitializeInt: %w", err)
	}
	er.candidate = nil
	er.occurrence = 0
	er.track()
	return nil
}

// ProgressInt folds r, a residue modulo m, into the accumulated residue.
func (er *EarlyRational[E]) ProgressInt(m, r *big.Int) error {
	if err := er.integer.ProgressInt(m, r); err != nil {
		return fmt.Errorf("EarlyRational.ProgressInt: %w", err)
	}
	er.track()
	return nil
}

// Terminated returns whether the fraction has been the same for threshold
// consecutive updates.
func (er *EarlyRational[E]) Terminated() bool {
	return er.occurrence >= er.threshold
}

// Noncoprime returns whether p shares a factor with the modulus accumulated so far.
func (er *EarlyRational[E]) Noncoprime(p *big.Int) bool {
	return er.integer.Noncoprime(p)
}

// Result returns the stable reconstructed fraction.
func (er *EarlyRational[E]) Result() (Rational, error) {
	if !er.integer.initialized {
		return Rational{}, fmt.Errorf("EarlyRational.Result: %w", ErrNotInitialized)
	}
	if !er.Terminated() {
		return Rational{}, fmt.Errorf(
			"EarlyRational.Result: fraction stable for %d of %d updates: %w", er.occurrence, er.threshold, ErrNotTerminated,
		)
	}
	return NewRational(er.candidate.Num, er.candidate.Den), nil
}

// IntegerResult always fails: this builder produces rationals only.
func (er *EarlyRational[E]) IntegerResult() (*big.Int, error) {
	return nil, fmt.Errorf("EarlyRational.IntegerResult: a rational builder has no integer result: %w", ErrShapeMismatch)
}

// Modulus returns a copy of the product of the moduli folded in so far.
func (er *EarlyRational[E]) Modulus() *big.Int {
	return er.integer.Modulus()
}

// Occurrence returns how many consecutive updates reconstructed the current fraction.
func (er *EarlyRational[E]) Occurrence() int {
	return er.occurrence
}

// track reconstructs the accumulated residue and updates the stability count.
func (er *EarlyRational[E]) track() {
	num, den, ok := ratrecon.Reconstruct(er.integer.residue, er.integer.primeProd)
	if !ok {
		er.candidate = nil
		er.occurrence = 0
		return
	}
	reconstructed := Rational{Num: num, Den: den}
	if er.candidate != nil && er.candidate.Equal(reconstructed) {
		er.occurrence++
		return
	}
	er.candidate = &reconstructed
	er.occurrence = 1
}
