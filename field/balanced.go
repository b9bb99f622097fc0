package field

// Copyright (c) 2025 Colin McRae

import (
	"fmt"
	"math"
	"math/big"
)

// MaxBalancedDoubleModulus is the largest modulus BalancedDouble accepts. Products
// of two balanced elements stay below 2^52 in absolute value, so they are exact
// in a float64.
const MaxBalancedDoubleModulus = 1 << 26

// BalancedDouble is Z/pZ with float64 elements in the balanced range
// [-(p-1)/2, (p-1)/2] (for odd p).
type BalancedDouble struct {
	modulus    float64
	halfMod    float64 // largest element
	minusHalf  float64 // smallest element
	intModulus int64
	bigModulus *big.Int
}

// NewBalancedDouble returns the balanced floating point field with characteristic p.
func NewBalancedDouble(p *big.Int) (Field[float64], error) {
	if p.Cmp(big.NewInt(2)) < 0 || p.Cmp(big.NewInt(MaxBalancedDoubleModulus)) > 0 {
		return nil, fmt.Errorf("NewBalancedDouble: modulus %v: %w", p, ErrModulus)
	}
	intModulus := p.Int64()
	halfMod := float64((intModulus - 1) / 2)
	return &BalancedDouble{
		modulus:    float64(intModulus),
		halfMod:    halfMod,
		minusHalf:  halfMod - float64(intModulus) + 1,
		intModulus: intModulus,
		bigModulus: big.NewInt(0).Set(p),
	}, nil
}

func (bd *BalancedDouble) Characteristic() *big.Int {
	return big.NewInt(0).Set(bd.bigModulus)
}

func (bd *BalancedDouble) Category() Category {
	return ModularFloatingPoint
}

func (bd *BalancedDouble) Init(x *big.Int) float64 {
	r := big.NewInt(0).Mod(x, bd.bigModulus)
	return bd.reduce(float64(r.Int64()))
}

// Convert maps negative representatives back into [0, p).
func (bd *BalancedDouble) Convert(e float64) *big.Int {
	if e < 0 {
		return big.NewInt(int64(e + bd.modulus))
	}
	return big.NewInt(int64(e))
}

func (bd *BalancedDouble) Zero() float64 {
	return 0
}

func (bd *BalancedDouble) One() float64 {
	return bd.reduce(1)
}

func (bd *BalancedDouble) Add(a, b float64) float64 {
	return bd.reduce(a + b)
}

func (bd *BalancedDouble) Sub(a, b float64) float64 {
	return bd.reduce(a - b)
}

func (bd *BalancedDouble) Mul(a, b float64) float64 {
	return bd.reduce(math.Mod(a*b, bd.modulus))
}

func (bd *BalancedDouble) Neg(a float64) float64 {
	return bd.reduce(-a)
}

// Inv uses the extended Euclidean algorithm on int64 images of the operands.
func (bd *BalancedDouble) Inv(a float64) (float64, error) {
	if a == 0 {
		return 0, ErrNotInvertible
	}
	x, y := bd.intModulus, int64(a)
	if y < 0 {
		y += bd.intModulus
	}
	tx, ty := int64(0), int64(1)
	for y != 0 {
		q := x / y
		x, y = y, x-q*y
		tx, ty = ty, tx-q*ty
	}
	if x != 1 {
		return 0, ErrNotInvertible
	}
	return bd.reduce(float64(tx)), nil
}

func (bd *BalancedDouble) IsZero(a float64) bool {
	return a == 0
}

// reduce maps a value in (-2p, 2p) into the balanced range.
func (bd *BalancedDouble) reduce(x float64) float64 {
	if x > bd.halfMod {
		x -= bd.modulus
	} else if x < bd.minusHalf {
		x += bd.modulus
	}
	if x > bd.halfMod {
		x -= bd.modulus
	} else if x < bd.minusHalf {
		x += bd.modulus
	}
	return x
}
