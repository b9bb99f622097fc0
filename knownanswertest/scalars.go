package knownanswertest

// Copyright (c) 2025 Colin McRae

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/predrag3141/CRA/config"
	"github.com/predrag3141/CRA/cra"
	"github.com/predrag3141/CRA/field"
	"github.com/predrag3141/CRA/primes"
)

// RunScalars reconstructs the known integer and the known rational of cc with
// strategy, in the fields newField makes from random primes of primeBits bits,
// and records both outcomes in cc. metrics may be nil.
func RunScalars[E any](
	ctx context.Context, cc *CRAContext, strategy string, newField field.Factory[E], primeBits int,
	rng *rand.Rand, craConfig cra.Config, metrics *cra.Metrics,
) error {
	// Initializations
	caller := fmt.Sprintf("RunScalars-%s", strategy)
	integer := func(f field.Field[E]) (E, error) {
		return f.Init(cc.Integer), nil
	}
	rational := func(f field.Field[E]) (E, error) {
		inverse, err := f.Inv(f.Init(cc.Rational.Den))
		if err != nil {
			var zero E
			return zero, fmt.Errorf("%w: %w", cra.ErrBadPrime, err)
		}
		return f.Mul(f.Init(cc.Rational.Num), inverse), nil
	}
	sr := scalarRun[E]{
		cc: cc, strategy: strategy, newField: newField, primeBits: primeBits,
		rng: rng, config: craConfig, metrics: metrics,
	}

	switch strategy {
	case config.StrategyEarly:
		if err := sr.earlyInteger(ctx, integer, caller); err != nil {
			return err
		}
		return sr.earlyRational(ctx, rational, caller)
	case config.StrategyFixed:
		if err := sr.fixedInteger(ctx, integer, caller); err != nil {
			return err
		}
		return sr.fixedRational(ctx, rational, caller)
	default:
		return fmt.Errorf("%s: unknown strategy %q", caller, strategy)
	}
}

// scalarRun holds what every reconstruction in RunScalars shares.
type scalarRun[E any] struct {
	cc        *CRAContext
	strategy  string
	newField  field.Factory[E]
	primeBits int
	rng       *rand.Rand
	config    cra.Config
	metrics   *cra.Metrics
}

func (sr *scalarRun[E]) earlyInteger(ctx context.Context, iteration cra.Iteration[E, E], caller string) error {
	caller = fmt.Sprintf("%s-earlyInteger", caller)
	builder, err := cra.NewEarlySingle[E](sr.config.EarlyTerminationThreshold)
	if err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	remainder, err := cra.NewRemainder[E, E, *big.Int](builder, sr.newField, sr.config, sr.metrics)
	if err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	source, err := primes.NewRandom(sr.primeBits, sr.rng)
	if err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	x, err := remainder.RunParallel(ctx, iteration, source)
	if err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	sr.cc.RecordInteger(sr.strategy, x, remainder.Stats())
	return nil
}

func (sr *scalarRun[E]) earlyRational(ctx context.Context, iteration cra.Iteration[E, E], caller string) error {
	caller = fmt.Sprintf("%s-earlyRational", caller)
	builder, err := cra.NewEarlyRational[E](sr.config.EarlyTerminationThreshold)
	if err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	remainder, err := cra.NewRemainder[E, E, cra.Rational](builder, sr.newField, sr.config, sr.metrics)
	if err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	source, err := primes.NewRandom(sr.primeBits, sr.rng)
	if err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	x, err := remainder.RunParallel(ctx, iteration, source)
	if err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	sr.cc.RecordRational(sr.strategy, x, remainder.Stats())
	return nil
}

// fixedInteger covers 2 |integer| < 2^(IntegerBits+1)
func (sr *scalarRun[E]) fixedInteger(ctx context.Context, iteration cra.Iteration[E, E], caller string) error {
	caller = fmt.Sprintf("%s-fixedInteger", caller)
	builder, stats, err := sr.fixed(ctx, iteration, sr.cc.IntegerBits+1, caller)
	if err != nil {
		return err
	}
	x, err := builder.Result()
	if err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	sr.cc.RecordInteger(sr.strategy, x[0], stats)
	return nil
}

// fixedRational covers 2 |num| den < 2^(2 (IntegerBits/2) + 1), with a bit to spare
func (sr *scalarRun[E]) fixedRational(ctx context.Context, iteration cra.Iteration[E, E], caller string) error {
	caller = fmt.Sprintf("%s-fixedRational", caller)
	builder, stats, err := sr.fixed(ctx, iteration, 2*(sr.cc.IntegerBits/2)+2, caller)
	if err != nil {
		return err
	}
	x, err := builder.ResultRational()
	if err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	sr.cc.RecordRational(sr.strategy, x[0], stats)
	return nil
}

// fixed runs iteration over primes whose product exceeds 2^bits. Primes
// dividing the known denominator are never drawn, so no prime in the list can
// be rejected.
func (sr *scalarRun[E]) fixed(
	ctx context.Context, iteration cra.Iteration[E, E], bits int, caller string,
) (*cra.RNSFixed[E], cra.Stats, error) {
	caller = fmt.Sprintf("%s-fixed", caller)
	random, err := primes.NewRandom(sr.primeBits, sr.rng)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	primeList, err := primes.Covering(&coprimeSource{source: random, den: sr.cc.Rational.Den}, bits, caller)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	builder, err := cra.NewRNSFixed[E](primeList)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	remainder, err := cra.NewRemainder[E, []E, []*big.Int](builder, sr.newField, sr.config, sr.metrics)
	if err != nil {
		return nil, cra.Stats{}, fmt.Errorf("%s: %w", caller, err)
	}
	if _, err = remainder.RunParallel(ctx, vector(iteration), primes.NewFixed(primeList)); err != nil {
		return nil, remainder.Stats(), fmt.Errorf("%s: %w", caller, err)
	}
	return builder, remainder.Stats(), nil
}

// coprimeSource passes on the primes of source that do not divide den.
type coprimeSource struct {
	source primes.Source
	den    *big.Int
}

func (cs *coprimeSource) Next() (*big.Int, error) {
	for {
		p, err := cs.source.Next()
		if err != nil {
			return nil, err
		}
		if big.NewInt(0).Mod(cs.den, p).Sign() != 0 {
			return p, nil
		}
	}
}

func vector[E any](iteration cra.Iteration[E, E]) cra.Iteration[E, []E] {
	return func(f field.Field[E]) ([]E, error) {
		e, err := iteration(f)
		if err != nil {
			return nil, err
		}
		return []E{e}, nil
	}
}
