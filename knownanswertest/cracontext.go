// Package knownanswertest generates problems with known answers and records how
// each reconstruction strategy does on them.
package knownanswertest

// Copyright (c) 2025 Colin McRae

import (
	cr "crypto/rand"
	"fmt"
	"math/big"

	"github.com/predrag3141/CRA/cra"
	"github.com/predrag3141/CRA/linsys"
	"github.com/predrag3141/CRA/util"
)

// The system a x = b in a CRAContext is built so that its solution and det(a)
// are known without solving it:
//
// - a = d P L U, where L is unit lower triangular, U is upper triangular with a
//   nonzero diagonal and P is a random permutation matrix. So
//   det(a) = d^dim sign(P) Π U[i][i].
// - b = P L U n for a random integer vector n, so that a (n/d) = b.
//
// The entries of L, U and n are uniform in [-entryRange, entryRange]. A known
// integer and a known rational of about IntegerBits bits exercise the scalar
// builders.

// CRAContext is one known-answer problem and the results of solving it.
type CRAContext struct {
	Dim         int           `json:"dim"`
	EntryRange  int64         `json:"entry_range"`
	IntegerBits int           `json:"integer_bits"`
	Matrix      []*big.Int    `json:"matrix"`
	RHS         []*big.Int    `json:"rhs"`
	Numerators  []*big.Int    `json:"numerators"`
	Denominator *big.Int      `json:"denominator"`
	Determinant *big.Int      `json:"determinant"`
	Integer     *big.Int      `json:"integer"`
	Rational    cra.Rational  `json:"rational"`
	Results     []StrategyRun `json:"results"`
}

// StrategyRun records one attempt at a problem in a CRAContext.
type StrategyRun struct {
	Problem    string `json:"problem"`
	Strategy   string `json:"strategy"`
	PrimesUsed int    `json:"primes_used"`
	Correct    bool   `json:"correct"`
}

// NewCRAContext returns a random dim x dim problem with a known answer.
func NewCRAContext(dim int, entryRange int64, integerBits int) (*CRAContext, error) {
	caller := "NewCRAContext"
	if (dim <= 0) || (entryRange <= 0) || (integerBits <= 1) {
		return nil, fmt.Errorf(
			"%s: dim = %d, entryRange = %d, integerBits = %d must be positive", caller, dim, entryRange, integerBits,
		)
	}

	// Initializations
	l := make([]*big.Int, dim*dim)
	u := make([]*big.Int, dim*dim)
	det := big.NewInt(1)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			var err error
			switch {
			case i < j:
				l[i*dim+j] = big.NewInt(0)
				u[i*dim+j], err = uniform(entryRange)
			case i == j:
				l[i*dim+j] = big.NewInt(1)
				u[i*dim+j], err = nonzero(entryRange)
				if err == nil {
					det.Mul(det, u[i*dim+j])
				}
			default:
				l[i*dim+j], err = uniform(entryRange)
				u[i*dim+j] = big.NewInt(0)
			}
			if err != nil {
				return nil, fmt.Errorf("%s: %w", caller, err)
			}
		}
	}
	perm, err := permutation(dim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	p, sign, err := util.GetPermutationMatrix(perm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	det.Mul(det, big.NewInt(int64(sign)))

	// plu = P L U
	lu, err := util.MultiplyBigInt(l, u, dim)
	if err != nil {
		return nil, fmt.Errorf("%s: could not compute L U: %w", caller, err)
	}
	plu, err := util.MultiplyBigInt(util.CopyInt64ToBigInt(p), lu, dim)
	if err != nil {
		return nil, fmt.Errorf("%s: could not compute P L U: %w", caller, err)
	}

	// a = d P L U, b = P L U n
	d, err := nonzero(entryRange)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	d.Abs(d)
	n := make([]*big.Int, dim)
	for i := range n {
		if n[i], err = uniform(entryRange); err != nil {
			return nil, fmt.Errorf("%s: %w", caller, err)
		}
	}
	b, err := util.MultiplyBigInt(plu, n, dim)
	if err != nil {
		return nil, fmt.Errorf("%s: could not compute b: %w", caller, err)
	}
	det.Mul(det, big.NewInt(0).Exp(d, big.NewInt(int64(dim)), nil))
	numerators, denominator := cra.CommonDenominator(asRationals(n, d))

	integer, err := cr.Int(cr.Reader, big.NewInt(0).Lsh(big.NewInt(1), uint(integerBits)))
	if err != nil {
		return nil, fmt.Errorf("%s: could not draw the known integer: %w", caller, err)
	}
	integer.Sub(integer, big.NewInt(0).Lsh(big.NewInt(1), uint(integerBits-1)))
	rational, err := randomRational(integerBits / 2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}

	return &CRAContext{
		Dim:         dim,
		EntryRange:  entryRange,
		IntegerBits: integerBits,
		Matrix:      util.ScaleBigInt(d, plu),
		RHS:         b,
		Numerators:  numerators,
		Denominator: denominator,
		Determinant: det,
		Integer:     integer,
		Rational:    rational,
	}, nil
}

// System returns the matrix and right hand side of cc.
func (cc *CRAContext) System() (*linsys.Matrix, []*big.Int, error) {
	a, err := linsys.FromBigInt(cc.Matrix, cc.Dim, cc.Dim)
	if err != nil {
		return nil, nil, fmt.Errorf("CRAContext.System: %w", err)
	}
	return a, util.CopyBigInt(cc.RHS), nil
}

// RecordSolution checks a solution of the system in cc against the known answer
// and records the outcome.
func (cc *CRAContext) RecordSolution(strategy string, solution *linsys.Solution) StrategyRun {
	correct := (solution.Denominator.Cmp(cc.Denominator) == 0) && util.EqualBigInt(solution.Numerators, cc.Numerators)
	return cc.record("solve", strategy, solution.Stats.PrimesUsed, correct)
}

// RecordDeterminant checks a determinant against the known one and records the outcome.
func (cc *CRAContext) RecordDeterminant(strategy string, det *big.Int, stats cra.Stats) StrategyRun {
	return cc.record("det", strategy, stats.PrimesUsed, det.Cmp(cc.Determinant) == 0)
}

// RecordInteger checks a reconstructed integer against the known one and records the outcome.
func (cc *CRAContext) RecordInteger(strategy string, x *big.Int, stats cra.Stats) StrategyRun {
	return cc.record("integer", strategy, stats.PrimesUsed, x.Cmp(cc.Integer) == 0)
}

// RecordRational checks a reconstructed rational against the known one and records the outcome.
func (cc *CRAContext) RecordRational(strategy string, x cra.Rational, stats cra.Stats) StrategyRun {
	return cc.record("rational", strategy, stats.PrimesUsed, x.Equal(cc.Rational))
}

// AllCorrect returns whether every recorded run found the known answer.
func (cc *CRAContext) AllCorrect() bool {
	for _, run := range cc.Results {
		if !run.Correct {
			return false
		}
	}
	return true
}

func (cc *CRAContext) record(problem, strategy string, primesUsed int, correct bool) StrategyRun {
	retVal := StrategyRun{Problem: problem, Strategy: strategy, PrimesUsed: primesUsed, Correct: correct}
	cc.Results = append(cc.Results, retVal)
	return retVal
}

// uniform returns a uniform random integer in [-r, r]
func uniform(r int64) (*big.Int, error) {
	retVal, err := cr.Int(cr.Reader, big.NewInt(2*r+1))
	if err != nil {
		return nil, fmt.Errorf("could not draw a random entry: %w", err)
	}
	return retVal.Sub(retVal, big.NewInt(r)), nil
}

// nonzero returns a uniform random integer in [-r, r] other than 0
func nonzero(r int64) (*big.Int, error) {
	for {
		retVal, err := uniform(r)
		if (err != nil) || (retVal.Sign() != 0) {
			return retVal, err
		}
	}
}

// permutation returns a uniform random permutation of 0, ..., dim-1 (Fisher-Yates)
func permutation(dim int) ([]int, error) {
	retVal := make([]int, dim)
	for i := range retVal {
		retVal[i] = i
	}
	for i := dim - 1; i > 0; i-- {
		j, err := cr.Int(cr.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, fmt.Errorf("could not draw a permutation: %w", err)
		}
		retVal[i], retVal[j.Int64()] = retVal[j.Int64()], retVal[i]
	}
	return retVal, nil
}

// randomRational returns num/den in lowest terms, with |num| and den below 2^bits
func randomRational(bits int) (cra.Rational, error) {
	limit := big.NewInt(0).Lsh(big.NewInt(1), uint(bits))
	num, err := cr.Int(cr.Reader, limit)
	if err != nil {
		return cra.Rational{}, fmt.Errorf("could not draw a numerator: %w", err)
	}
	den, err := cr.Int(cr.Reader, limit)
	if err != nil {
		return cra.Rational{}, fmt.Errorf("could not draw a denominator: %w", err)
	}
	den.Add(den, big.NewInt(1))
	if den.Cmp(limit) == 0 {
		den.Sub(den, big.NewInt(1))
	}
	if num.Bit(0) == 1 {
		num.Neg(num)
	}
	r := big.NewRat(1, 1).SetFrac(num, den)
	return cra.NewRational(r.Num(), r.Denom()), nil
}

func asRationals(n []*big.Int, d *big.Int) []cra.Rational {
	retVal := make([]cra.Rational, len(n))
	for i := range n {
		r := big.NewRat(1, 1).SetFrac(n[i], d)
		retVal[i] = cra.NewRational(r.Num(), r.Denom())
	}
	return retVal
}
