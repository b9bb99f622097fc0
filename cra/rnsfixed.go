package cra

// Copyright (c) 2025 Colin McRae

import (
	"fmt"
	"math/big"

	"github.com/predrag3141/CRA/field"
	"github.com/predrag3141/CRA/ratrecon"
)

// RNSFixed reconstructs a vector of integers from its residues modulo a fixed,
// ordered list of pairwise coprime primes. The caller chooses the list so that
// the product of the primes exceeds twice the largest absolute value of any
// entry; the builder terminates after exactly one update per prime.
//
// Residues are stored per entry in residue number system form and converted to
// integers by Garner's mixed-radix algorithm when Result is called.
type RNSFixed[E any] struct {
	primes          []*big.Int
	product         *big.Int
	midProduct      *big.Int
	prefixProducts  []*big.Int // prefixProducts[k] = primes[0] * ... * primes[k-1]
	prefixInverses  []*big.Int // prefixInverses[k] = prefixProducts[k]^-1 mod primes[k]
	residues        [][]*big.Int
	iterationNumber int
	initialized     bool
}

// NewRNSFixed returns an RNSFixed over primes, which must be non-empty, at least
// 2 each and pairwise coprime.
func NewRNSFixed[E any](primes []*big.Int) (*RNSFixed[E], error) {
	caller := "NewRNSFixed"
	if len(primes) == 0 {
		return nil, fmt.Errorf("%s: empty prime list: %w", caller, ErrInvalidConfig)
	}

	// Initializations
	retVal := &RNSFixed[E]{
		primes:         make([]*big.Int, len(primes)),
		product:        big.NewInt(1),
		prefixProducts: make([]*big.Int, len(primes)),
		prefixInverses: make([]*big.Int, len(primes)),
	}

	for k, p := range primes {
		if p.Cmp(big.NewInt(2)) < 0 {
			return nil, fmt.Errorf("%s: prime %d is %v: %w", caller, k, p, field.ErrModulus)
		}
		if !isCoprime(retVal.product, p) {
			return nil, fmt.Errorf("%s: prime %d (%v) shares a factor with an earlier prime: %w", caller, k, p, ErrNotCoprime)
		}
		retVal.primes[k] = big.NewInt(0).Set(p)
		retVal.prefixProducts[k] = big.NewInt(0).Set(retVal.product)
		retVal.prefixInverses[k] = big.NewInt(0).Mod(retVal.product, p)
		retVal.prefixInverses[k].ModInverse(retVal.prefixInverses[k], p)
		retVal.product.Mul(retVal.product, p)
	}
	retVal.midProduct = big.NewInt(0).Rsh(retVal.product, 1)
	return retVal, nil
}

// Kind names the builder in logs and metrics.
func (rf *RNSFixed[E]) Kind() string {
	return "rns-fixed"
}

// Initialize discards previous residues and records e, a vector over the field
// of the first prime.
func (rf *RNSFixed[E]) Initialize(f field.Field[E], e []E) error {
	if len(e) == 0 {
		return fmt.Errorf("RNSFixed.Initialize: empty residue vector: %w", ErrShapeMismatch)
	}
	rf.residues = make([][]*big.Int, len(e))
	for i := range rf.residues {
		rf.residues[i] = make([]*big.Int, 0, len(rf.primes))
	}
	rf.iterationNumber = 0
	rf.initialized = true
	if err := rf.Progress(f, e); err != nil {
		rf.initialized = false
		return fmt.Errorf("RNSFixed.Initialize: %w", err)
	}
	return nil
}

// Progress records e, a vector over the field of the next prime in the list.
func (rf *RNSFixed[E]) Progress(f field.Field[E], e []E) error {
	caller := "RNSFixed.Progress"
	if !rf.initialized {
		return fmt.Errorf("%s: %w", caller, ErrNotInitialized)
	}
	if rf.Terminated() {
		return fmt.Errorf("%s: all %d primes already used: %w", caller, len(rf.primes), ErrPrimeOrder)
	}
	if len(e) != len(rf.residues) {
		return fmt.Errorf("%s: residue length %d, expected %d: %w", caller, len(e), len(rf.residues), ErrShapeMismatch)
	}
	if m := f.Characteristic(); m.Cmp(rf.primes[rf.iterationNumber]) != 0 {
		return fmt.Errorf(
			"%s: modulus %v, expected prime %d (%v): %w", caller, m, rf.iterationNumber, rf.primes[rf.iterationNumber],
			ErrPrimeOrder,
		)
	}
	for i := 0; i < len(e); i++ {
		rf.residues[i] = append(rf.residues[i], f.Convert(e[i]))
	}
	rf.iterationNumber++
	return nil
}

// Terminated reports whether every prime of the list has been used.
func (rf *RNSFixed[E]) Terminated() bool {
	return rf.initialized && rf.iterationNumber >= len(rf.primes)
}

// Noncoprime is always false: the prime list was checked at construction.
func (rf *RNSFixed[E]) Noncoprime(_ *big.Int) bool {
	return false
}

// Result returns each entry in the balanced range (-M/2, M/2], M being the
// product of the primes.
func (rf *RNSFixed[E]) Result() ([]*big.Int, error) {
	caller := "RNSFixed.Result"
	if err := rf.checkTerminated(caller); err != nil {
		return nil, err
	}
	retVal := make([]*big.Int, len(rf.residues))
	for i := range rf.residues {
		tmp := rf.garner(rf.residues[i])
		if (tmp.Sign() < 0) || (tmp.Cmp(rf.product) >= 0) {
			return nil, fmt.Errorf("%s: entry %d: mixed radix value %v outside [0, %v)", caller, i, tmp, rf.product)
		}
		if tmp.Cmp(rf.midProduct) > 0 {
			tmp.Sub(tmp, rf.product)
		}
		retVal[i] = tmp
	}
	return retVal, nil
}

// ResultRational rationally reconstructs each entry. It returns
// ErrNoReconstruction if the product of the primes is too small for some entry.
func (rf *RNSFixed[E]) ResultRational() ([]Rational, error) {
	caller := "RNSFixed.ResultRational"
	if err := rf.checkTerminated(caller); err != nil {
		return nil, err
	}
	retVal := make([]Rational, len(rf.residues))
	for i := range rf.residues {
		num, den, ok := ratrecon.Reconstruct(rf.garner(rf.residues[i]), rf.product)
		if !ok {
			return nil, fmt.Errorf("%s: entry %d modulo a %d-bit product: %w", caller, i, rf.product.BitLen(), ErrNoReconstruction)
		}
		retVal[i] = Rational{Num: num, Den: den}
	}
	return retVal, nil
}

// Modulus returns a copy of the product of all primes.
func (rf *RNSFixed[E]) Modulus() *big.Int {
	return big.NewInt(0).Set(rf.product)
}

func (rf *RNSFixed[E]) checkTerminated(caller string) error {
	if !rf.initialized {
		return fmt.Errorf("%s: %w", caller, ErrNotInitialized)
	}
	if !rf.Terminated() {
		return fmt.Errorf(
			"%s: %d of %d primes used: %w", caller, rf.iterationNumber, len(rf.primes), ErrNotTerminated,
		)
	}
	return nil
}

// garner returns the x in [0, product) with x = r[k] mod primes[k] for all k.
func (rf *RNSFixed[E]) garner(r []*big.Int) *big.Int {
	retVal := big.NewInt(0).Set(r[0])
	for k := 1; k < len(rf.primes); k++ {
		// c = (r[k] - x) * prefixInverses[k] mod primes[k]
		c := big.NewInt(0).Sub(r[k], retVal)
		c.Mod(c, rf.primes[k])
		c.Mul(c, rf.prefixInverses[k])
		c.Mod(c, rf.primes[k])
		retVal.Add(retVal, c.Mul(c, rf.prefixProducts[k]))
	}
	return retVal
}
