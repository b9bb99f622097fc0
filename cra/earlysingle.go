package cra

// Copyright (c) 2025 Colin McRae

import (
	"fmt"
	"math/big"

	"github.com/predrag3141/CRA/field"
)

// EarlySingle reconstructs one integer by incremental Chinese remaindering and
// stops once its balanced image has been the same for threshold consecutive
// updates.
//
// Residue is kept in [0, primeProd). The stability check and Result use the
// balanced image in (-primeProd/2, primeProd/2].
type EarlySingle[E any] struct {
	threshold   int
	residue     *big.Int
	primeProd   *big.Int
	image       *big.Int
	occurrence  int
	initialized bool
}

// NewEarlySingle returns an EarlySingle that terminates after threshold
// consecutive updates leave the image unchanged.
func NewEarlySingle[E any](threshold int) (*EarlySingle[E], error) {
	if threshold < 1 {
		return nil, fmt.Errorf("NewEarlySingle: threshold %d is not positive: %w", threshold, ErrInvalidConfig)
	}
	return &EarlySingle[E]{threshold: threshold}, nil
}

// Kind names the builder in logs and metrics.
func (es *EarlySingle[E]) Kind() string {
	return "early-single"
}

// Initialize records e, an element of f, as the first residue.
func (es *EarlySingle[E]) Initialize(f field.Field[E], e E) error {
	return es.InitializeInt(f.Characteristic(), f.Convert(e))
}

// InitializeInt records r as the residue modulo m.
func (es *EarlySingle[E]) InitializeInt(m, r *big.Int) error {
	if m.Cmp(big.NewInt(2)) < 0 {
		return fmt.Errorf("EarlySingle.InitializeInt: modulus %v is less than 2: %w", m, field.ErrModulus)
	}
	es.primeProd = big.NewInt(0).Set(m)
	es.residue = big.NewInt(0).Mod(r, m)
	es.image = center(es.residue, es.primeProd)
	es.occurrence = 1
	es.initialized = true
	return nil
}

// Progress folds e, an element of f, into the accumulated residue. The update
// u = (e - residue) / primeProd is computed with f's own arithmetic.
func (es *EarlySingle[E]) Progress(f field.Field[E], e E) error {
	caller := "EarlySingle.Progress"
	m := f.Characteristic()
	if err := es.checkModulus(m, caller); err != nil {
		return err
	}

	// u = (e - residue) * primeProd^-1 in f
	primeProdInverse, err := f.Inv(f.Init(es.primeProd))
	if err != nil {
		return fmt.Errorf("%s: could not invert the accumulated modulus modulo %v: %w", caller, m, err)
	}
	u := f.Mul(f.Sub(e, f.Init(es.residue)), primeProdInverse)
	es.fold(f.Convert(u), m)
	return nil
}

// ProgressInt folds r, a residue modulo m, into the accumulated residue.
func (es *EarlySingle[E]) ProgressInt(m, r *big.Int) error {
	caller := "EarlySingle.ProgressInt"
	if err := es.checkModulus(m, caller); err != nil {
		return err
	}
	u, ok := crtStep(es.residue, es.primeProd, m, big.NewInt(0).Mod(r, m))
	if !ok {
		return fmt.Errorf("%s: modulus %v: %w", caller, m, ErrNotCoprime)
	}
	es.fold(u, m)
	return nil
}

// Terminated reports whether the image was stable for threshold updates.
func (es *EarlySingle[E]) Terminated() bool {
	return es.initialized && es.occurrence >= es.threshold
}

// Noncoprime reports whether p shares a factor with the accumulated modulus. It
// is false before initialization.
func (es *EarlySingle[E]) Noncoprime(p *big.Int) bool {
	if !es.initialized {
		return false
	}
	return !isCoprime(es.primeProd, p)
}

// Result returns the balanced image of the accumulated residue.
func (es *EarlySingle[E]) Result() (*big.Int, error) {
	if !es.initialized {
		return nil, fmt.Errorf("EarlySingle.Result: %w", ErrNotInitialized)
	}
	if !es.Terminated() {
		return nil, fmt.Errorf(
			"EarlySingle.Result: image stable for %d of %d updates: %w", es.occurrence, es.threshold, ErrNotTerminated,
		)
	}
	return big.NewInt(0).Set(es.image), nil
}

// Residue returns a copy of the accumulated residue, in [0, Modulus()).
func (es *EarlySingle[E]) Residue() *big.Int {
	if !es.initialized {
		return nil
	}
	return big.NewInt(0).Set(es.residue)
}

// Modulus returns a copy of the product of the moduli folded in so far.
func (es *EarlySingle[E]) Modulus() *big.Int {
	if !es.initialized {
		return nil
	}
	return big.NewInt(0).Set(es.primeProd)
}

// Occurrence returns how many consecutive updates produced the current image.
func (es *EarlySingle[E]) Occurrence() int {
	return es.occurrence
}

func (es *EarlySingle[E]) checkModulus(m *big.Int, caller string) error {
	if !es.initialized {
		return fmt.Errorf("%s: %w", caller, ErrNotInitialized)
	}
	if m.Cmp(big.NewInt(2)) < 0 {
		return fmt.Errorf("%s: modulus %v is less than 2: %w", caller, m, field.ErrModulus)
	}
	if es.Noncoprime(m) {
		return fmt.Errorf("%s: modulus %v shares a factor with %v: %w", caller, m, es.primeProd, ErrNotCoprime)
	}
	return nil
}

// fold applies residue += u * primeProd, primeProd *= m and updates the
// stability count.
func (es *EarlySingle[E]) fold(u, m *big.Int) {
	es.residue.Add(es.residue, big.NewInt(0).Mul(u, es.primeProd))
	es.primeProd.Mul(es.primeProd, m)
	image := center(es.residue, es.primeProd)
	if image.Cmp(es.image) == 0 {
		es.occurrence++
		return
	}
	es.image = image
	es.occurrence = 1
}
