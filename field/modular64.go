package field

// Copyright (c) 2025 Colin McRae

import (
	"fmt"
	"math/big"
	"math/bits"
)

// Modular64 is Z/pZ with uint64 elements in [0, p), for p < 2^63.
type Modular64 struct {
	modulus    uint64
	bigModulus *big.Int
}

// NewModular64 returns the word-sized field with characteristic p.
func NewModular64(p *big.Int) (Field[uint64], error) {
	if p.Cmp(big.NewInt(2)) < 0 || p.BitLen() > 63 {
		return nil, fmt.Errorf("NewModular64: modulus %v: %w", p, ErrModulus)
	}
	return &Modular64{
		modulus:    p.Uint64(),
		bigModulus: big.NewInt(0).Set(p),
	}, nil
}

func (m *Modular64) Characteristic() *big.Int {
	return big.NewInt(0).Set(m.bigModulus)
}

func (m *Modular64) Category() Category {
	return Modular
}

func (m *Modular64) Init(x *big.Int) uint64 {
	return big.NewInt(0).Mod(x, m.bigModulus).Uint64()
}

func (m *Modular64) Convert(e uint64) *big.Int {
	return big.NewInt(0).SetUint64(e)
}

func (m *Modular64) Zero() uint64 {
	return 0
}

func (m *Modular64) One() uint64 {
	return 1 % m.modulus
}

// Add cannot overflow since both operands are below 2^63.
func (m *Modular64) Add(a, b uint64) uint64 {
	s := a + b
	if s >= m.modulus {
		s -= m.modulus
	}
	return s
}

func (m *Modular64) Sub(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return a + (m.modulus - b)
}

func (m *Modular64) Mul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	_, rem := bits.Div64(hi, lo, m.modulus)
	return rem
}

func (m *Modular64) Neg(a uint64) uint64 {
	if a == 0 {
		return 0
	}
	return m.modulus - a
}

// Inv uses the extended Euclidean algorithm with signed cofactors.
func (m *Modular64) Inv(a uint64) (uint64, error) {
	if a == 0 {
		return 0, ErrNotInvertible
	}
	x, y := int64(m.modulus), int64(a)
	tx, ty := int64(0), int64(1)
	for y != 0 {
		q := x / y
		x, y = y, x-q*y
		tx, ty = ty, tx-q*ty
	}
	if x != 1 {
		return 0, ErrNotInvertible
	}
	if tx < 0 {
		tx += int64(m.modulus)
	}
	return uint64(tx), nil
}

func (m *Modular64) IsZero(a uint64) bool {
	return a == 0
}
