package cra

// Copyright (c) 2025 Colin McRae

import (
	"fmt"
	"math/big"
)

// Rational is a reconstructed fraction Num/Den with Den > 0 and gcd(Num, Den) = 1.
type Rational struct {
	Num *big.Int `json:"num"`
	Den *big.Int `json:"den"`
}

// NewRational returns a Rational holding copies of num and den. It does not
// reduce the fraction.
func NewRational(num, den *big.Int) Rational {
	return Rational{
		Num: big.NewInt(0).Set(num),
		Den: big.NewInt(0).Set(den),
	}
}

// Equal reports whether r and x have the same numerator and denominator.
func (r Rational) Equal(x Rational) bool {
	return r.Num.Cmp(x.Num) == 0 && r.Den.Cmp(x.Den) == 0
}

// Rat returns r as a big.Rat.
func (r Rational) Rat() *big.Rat {
	return big.NewRat(1, 1).SetFrac(r.Num, r.Den)
}

func (r Rational) String() string {
	if r.Den.Cmp(big.NewInt(1)) == 0 {
		return r.Num.String()
	}
	return fmt.Sprintf("%s/%s", r.Num.String(), r.Den.String())
}

// CommonDenominator returns numerators x and the least common denominator d with
// rs[i] = x[i] / d for all i. For an empty input d is 1.
func CommonDenominator(rs []Rational) ([]*big.Int, *big.Int) {
	d := big.NewInt(1)
	for _, r := range rs {
		g := big.NewInt(0).GCD(nil, nil, d, r.Den)
		d.Mul(d, big.NewInt(0).Quo(r.Den, g))
	}
	x := make([]*big.Int, len(rs))
	for i, r := range rs {
		x[i] = big.NewInt(0).Quo(d, r.Den)
		x[i].Mul(x[i], r.Num)
	}
	return x, d
}

// center maps x in [0, m) to the balanced range (-m/2, m/2] by subtracting m
// from values above floor(m/2). The result is a new big.Int.
func center(x, m *big.Int) *big.Int {
	retVal := big.NewInt(0).Set(x)
	if retVal.Cmp(big.NewInt(0).Rsh(m, 1)) > 0 {
		retVal.Sub(retVal, m)
	}
	return retVal
}
