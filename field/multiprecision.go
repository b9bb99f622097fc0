package field

// Copyright (c) 2025 Colin McRae

import (
	"fmt"
	"math/big"
)

// Multiprecision is Z/pZ with *big.Int elements in [0, p), for any p >= 2.
// Every operation returns a newly allocated element.
type Multiprecision struct {
	modulus *big.Int
}

// NewMultiprecision returns the arbitrary-precision field with characteristic p.
func NewMultiprecision(p *big.Int) (Field[*big.Int], error) {
	if p.Cmp(big.NewInt(2)) < 0 {
		return nil, fmt.Errorf("NewMultiprecision: modulus %v: %w", p, ErrModulus)
	}
	return &Multiprecision{modulus: big.NewInt(0).Set(p)}, nil
}

func (mp *Multiprecision) Characteristic() *big.Int {
	return big.NewInt(0).Set(mp.modulus)
}

func (mp *Multiprecision) Category() Category {
	return MultiPrecision
}

func (mp *Multiprecision) Init(x *big.Int) *big.Int {
	return big.NewInt(0).Mod(x, mp.modulus)
}

func (mp *Multiprecision) Convert(e *big.Int) *big.Int {
	return big.NewInt(0).Set(e)
}

func (mp *Multiprecision) Zero() *big.Int {
	return big.NewInt(0)
}

func (mp *Multiprecision) One() *big.Int {
	return big.NewInt(1)
}

func (mp *Multiprecision) Add(a, b *big.Int) *big.Int {
	retVal := big.NewInt(0).Add(a, b)
	return retVal.Mod(retVal, mp.modulus)
}

func (mp *Multiprecision) Sub(a, b *big.Int) *big.Int {
	retVal := big.NewInt(0).Sub(a, b)
	return retVal.Mod(retVal, mp.modulus)
}

func (mp *Multiprecision) Mul(a, b *big.Int) *big.Int {
	retVal := big.NewInt(0).Mul(a, b)
	return retVal.Mod(retVal, mp.modulus)
}

func (mp *Multiprecision) Neg(a *big.Int) *big.Int {
	retVal := big.NewInt(0).Neg(a)
	return retVal.Mod(retVal, mp.modulus)
}

func (mp *Multiprecision) Inv(a *big.Int) (*big.Int, error) {
	retVal := big.NewInt(0).ModInverse(a, mp.modulus)
	if retVal == nil || a.Sign() == 0 {
		return nil, ErrNotInvertible
	}
	return retVal, nil
}

func (mp *Multiprecision) IsZero(a *big.Int) bool {
	return a.Sign() == 0
}
