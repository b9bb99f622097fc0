package linsys

// Copyright (c) 2025 Colin McRae

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/predrag3141/CRA/bound"
	"github.com/predrag3141/CRA/cra"
	"github.com/predrag3141/CRA/field"
	"github.com/predrag3141/CRA/primes"
)

// Solution is the exact solution x = Numerators / Denominator of a x = b, with
// Denominator > 0 and no common factor shared by the Denominator and all
// Numerators.
type Solution struct {
	Numerators  []*big.Int `json:"numerators"`
	Denominator *big.Int   `json:"denominator"`
	Stats       cra.Stats  `json:"stats"`
}

// Rationals returns the entries of s as reduced fractions.
func (s *Solution) Rationals() []cra.Rational {
	retVal := make([]cra.Rational, len(s.Numerators))
	for i, numerator := range s.Numerators {
		r := big.NewRat(1, 1).SetFrac(numerator, s.Denominator)
		retVal[i] = cra.NewRational(r.Num(), r.Denom())
	}
	return retVal
}

// Solver computes exact determinants and solutions of integer systems from
// their images modulo random primes of a fixed size, in fields built by newField.
type Solver[E any] struct {
	newField  field.Factory[E]
	primeBits int
	rng       *rand.Rand
	config    cra.Config
	metrics   *cra.Metrics
}

// NewSolver returns a Solver drawing primeBits-bit primes with rng. metrics may be nil.
func NewSolver[E any](
	newField field.Factory[E], primeBits int, rng *rand.Rand, config cra.Config, metrics *cra.Metrics,
) (*Solver[E], error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("NewSolver: %w", err)
	}
	if primeBits < 3 {
		return nil, fmt.Errorf("NewSolver: prime size %d bits is less than 3: %w", primeBits, cra.ErrInvalidConfig)
	}
	return &Solver[E]{
		newField:  newField,
		primeBits: primeBits,
		rng:       rng,
		config:    config,
		metrics:   metrics,
	}, nil
}

// SolveEarly solves a x = b by reconstructing x from its images with early
// termination. The result is correct with high probability; see
// cra.EarlyTerminationFailureBound.
func (s *Solver[E]) SolveEarly(ctx context.Context, a *Matrix, b []*big.Int) (*Solution, error) {
	caller := "Solver.SolveEarly"
	if err := checkSystem(a, b, caller); err != nil {
		return nil, err
	}
	builder, err := cra.NewEarlyVectorRational[E](s.config.EarlyTerminationThreshold)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	remainder, err := cra.NewRemainder[E, []E, []cra.Rational](builder, s.newField, s.config, s.metrics)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	source, err := primes.NewRandom(s.primeBits, s.rng)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}

	x, err := remainder.RunParallel(ctx, SolveIteration[E](a, b), source)
	if errors.Is(err, cra.ErrTooManyBadPrimes) {
		return nil, fmt.Errorf("%s: %w: %w", caller, ErrSingular, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	numerators, denominator := cra.CommonDenominator(x)
	log.Debugf("%s: %d x %d system solved with %d primes", caller, a.numRows, a.numCols, remainder.Stats().PrimesUsed)
	return &Solution{Numerators: numerators, Denominator: denominator, Stats: remainder.Stats()}, nil
}

// SolveFixed solves a x = b by reconstructing det(a) x and det(a) modulo a
// product of primes large enough, by Hadamard's bound, to make the result
// certain.
func (s *Solver[E]) SolveFixed(ctx context.Context, a *Matrix, b []*big.Int) (*Solution, error) {
	caller := "Solver.SolveFixed"
	if err := checkSystem(a, b, caller); err != nil {
		return nil, err
	}
	aBig, err := a.BigMatrix()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	bBig, err := ColumnBigMatrix(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	bits, err := bound.SolutionBits(aBig, bBig)
	if err != nil {
		return nil, fmt.Errorf("%s: could not bound the solution: %w", caller, err)
	}

	scaled, stats, err := s.runFixed(ctx, ScaledSolveIteration[E](a, b), bits, caller)
	if err != nil {
		return nil, err
	}
	n := a.numRows
	denominator := scaled[n]
	if denominator.Sign() == 0 {
		return nil, fmt.Errorf("%s: determinant is 0: %w", caller, ErrSingular)
	}

	// Make the denominator positive and remove common factors
	numerators := scaled[:n]
	divisor := big.NewInt(0).Abs(denominator)
	for _, numerator := range numerators {
		divisor.GCD(nil, nil, divisor, big.NewInt(0).Abs(numerator))
	}
	if denominator.Sign() < 0 {
		divisor.Neg(divisor)
	}
	for i := range numerators {
		numerators[i].Quo(numerators[i], divisor)
	}
	denominator.Quo(denominator, divisor)
	log.Debugf("%s: %d x %d system solved with %d primes covering %d bits", caller, n, n, stats.PrimesUsed, bits)
	return &Solution{Numerators: numerators, Denominator: denominator, Stats: stats}, nil
}

// DeterminantEarly computes det(a) with early termination.
func (s *Solver[E]) DeterminantEarly(ctx context.Context, a *Matrix) (*big.Int, cra.Stats, error) {
	caller := "Solver.DeterminantEarly"
	if a.numRows != a.numCols {
		return nil, cra.Stats{}, fmt.Errorf("%s: a is %d x %d: %w", caller, a.numRows, a.numCols, ErrDimension)
	}
	builder, err := cra.NewEarlySingle[E](s.config.EarlyTerminationThreshold)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	remainder, err := cra.NewRemainder[E, E, *big.Int](builder, s.newField, s.config, s.metrics)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	source, err := primes.NewRandom(s.primeBits, s.rng)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	det, err := remainder.RunParallel(ctx, DeterminantIteration[E](a), source)
	if err != nil {
		return nil, remainder.Stats(), fmt.Errorf("%s: %w", caller, err)
	}
	return det, remainder.Stats(), nil
}

// DeterminantFixed computes det(a) modulo a product of primes exceeding twice
// Hadamard's bound.
func (s *Solver[E]) DeterminantFixed(ctx context.Context, a *Matrix) (*big.Int, cra.Stats, error) {
	caller := "Solver.DeterminantFixed"
	if a.numRows != a.numCols {
		return nil, cra.Stats{}, fmt.Errorf("%s: a is %d x %d: %w", caller, a.numRows, a.numCols, ErrDimension)
	}
	aBig, err := a.BigMatrix()
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	bits, err := bound.DeterminantBits(aBig)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: could not bound the determinant: %w", caller, err)
	}
	det, stats, err := s.runFixed(ctx, vectorIteration(DeterminantIteration[E](a)), bits, caller)
	if err != nil {
		return nil, stats, err
	}
	return det[0], stats, nil
}

// runFixed draws primes whose product exceeds 2^bits and reconstructs the
// integer vector computed by iteration.
func (s *Solver[E]) runFixed(
	ctx context.Context, iteration cra.Iteration[E, []E], bits int, caller string,
) ([]*big.Int, cra.Stats, error) {
	caller = fmt.Sprintf("%s-runFixed", caller)
	source, err := primes.NewRandom(s.primeBits, s.rng)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	primeList, err := primes.Covering(source, bits, caller)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	builder, err := cra.NewRNSFixed[E](primeList)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	remainder, err := cra.NewRemainder[E, []E, []*big.Int](builder, s.newField, s.config, s.metrics)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	retVal, err := remainder.RunParallel(ctx, iteration, primes.NewFixed(primeList))
	if err != nil {
		return nil, remainder.Stats(), fmt.Errorf("%s: %w", caller, err)
	}
	return retVal, remainder.Stats(), nil
}

func checkSystem(a *Matrix, b []*big.Int, caller string) error {
	if (a.numRows != a.numCols) || (len(b) != a.numRows) {
		return fmt.Errorf(
			"%s: a is %d x %d and b has %d entries: %w", caller, a.numRows, a.numCols, len(b), ErrDimension,
		)
	}
	return nil
}
