// Package field provides prime fields Z/pZ behind a single capability
// interface, with one implementation per element representation.
package field

// Copyright (c) 2025 Colin McRae

import (
	"errors"
	"math/big"
)

var (
	// ErrModulus is returned when a modulus is below 2 or too large for the
	// element representation.
	ErrModulus = errors.New("field: modulus out of range for this representation")

	// ErrNotInvertible is returned when inverting zero.
	ErrNotInvertible = errors.New("field: element is not invertible")
)

// Category classifies a field by how its elements are stored.
type Category int

const (
	// ModularFloatingPoint elements are float64 values holding exact integers.
	ModularFloatingPoint Category = iota

	// Modular elements are machine words.
	Modular

	// MultiPrecision elements are arbitrary-precision integers.
	MultiPrecision
)

func (c Category) String() string {
	switch c {
	case ModularFloatingPoint:
		return "modular-floating-point"
	case Modular:
		return "modular"
	case MultiPrecision:
		return "multi-precision"
	}
	return "unknown"
}

// Field is arithmetic modulo a prime p on elements of type E. Elements passed
// to a Field must have been produced by the same Field.
type Field[E any] interface {
	// Characteristic returns a copy of p.
	Characteristic() *big.Int

	// Category reports how elements are represented.
	Category() Category

	// Init reduces an arbitrary integer, possibly negative, into the field.
	Init(x *big.Int) E

	// Convert returns the canonical integer representative of e, in [0, p).
	Convert(e E) *big.Int

	Zero() E
	One() E
	Add(a, b E) E
	Sub(a, b E) E
	Mul(a, b E) E
	Neg(a E) E

	// Inv returns the multiplicative inverse of a, or ErrNotInvertible if a is 0.
	Inv(a E) (E, error)

	IsZero(a E) bool
}

// Factory constructs the field with the given prime characteristic.
type Factory[E any] func(p *big.Int) (Field[E], error)

// InitInt64 is a convenience wrapper around f.Init for small integers.
func InitInt64[E any](f Field[E], x int64) E {
	return f.Init(big.NewInt(x))
}

// InitVector reduces each entry of x into f.
func InitVector[E any](f Field[E], x []*big.Int) []E {
	retVal := make([]E, len(x))
	for i := 0; i < len(x); i++ {
		retVal[i] = f.Init(x[i])
	}
	return retVal
}

// ConvertVector returns the canonical integer representatives of the entries of e.
func ConvertVector[E any](f Field[E], e []E) []*big.Int {
	retVal := make([]*big.Int, len(e))
	for i := 0; i < len(e); i++ {
		retVal[i] = f.Convert(e[i])
	}
	return retVal
}
