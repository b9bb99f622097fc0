package cra

// Copyright (c) 2025 Colin McRae

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/predrag3141/CRA/field"
	"github.com/predrag3141/CRA/primes"
)

// Stats describes the most recent run of a Remainder.
type Stats struct {
	// RunID identifies the run in log lines.
	RunID string `json:"run_id"`

	// PrimesUsed counts the residues folded into the builder.
	PrimesUsed int `json:"primes_used"`

	// NoncoprimeSkipped counts primes drawn but discarded for sharing a factor
	// with the moduli already used.
	NoncoprimeSkipped int `json:"noncoprime_skipped"`

	// BadPrimes counts primes for which the Iteration returned ErrBadPrime.
	BadPrimes int `json:"bad_primes"`

	// SurplusResidues counts residues computed by RunParallel after the builder
	// had already terminated.
	SurplusResidues int `json:"surplus_residues"`

	// ModulusBits is the bit length of the final accumulated modulus, or 0 if
	// the builder does not expose it.
	ModulusBits int `json:"modulus_bits"`
}

// Remainder drives a Builder: it draws primes from a Source, evaluates an
// Iteration in the field of each prime and folds the residues into the
// Builder until it terminates.
type Remainder[E, R, V any] struct {
	builder     Builder[E, R, V]
	newField    field.Factory[E]
	config      Config
	metrics     *Metrics
	stats       Stats
	initialized bool
}

// NewRemainder returns a Remainder that drives builder, constructing fields with
// newField. metrics may be nil.
func NewRemainder[E, R, V any](
	builder Builder[E, R, V], newField field.Factory[E], config Config, metrics *Metrics,
) (*Remainder[E, R, V], error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("NewRemainder: %w", err)
	}
	return &Remainder[E, R, V]{
		builder:  builder,
		newField: newField,
		config:   config,
		metrics:  metrics,
	}, nil
}

// Run evaluates iteration for one prime at a time until the builder
// terminates, then returns the builder's result. Primes sharing a factor with
// those already used are skipped, as are up to Config.MaxBadPrimes primes for
// which iteration returns ErrBadPrime.
func (rm *Remainder[E, R, V]) Run(ctx context.Context, iteration Iteration[E, R], source primes.Source) (V, error) {
	// Initializations
	caller := "Remainder.Run"
	var zero V
	rm.start()

	for !rm.terminated() {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s: run %s cancelled after %d primes: %w", caller, rm.stats.RunID, rm.stats.PrimesUsed, err)
		}
		f, err := rm.nextField(source, nil, caller)
		if err != nil {
			return zero, err
		}
		r, err := iteration(f)
		if err != nil {
			if err = rm.badPrime(f, err, caller); err != nil {
				return zero, err
			}
			continue
		}
		if err = rm.fold(f, r, caller); err != nil {
			return zero, err
		}
	}
	return rm.finish(caller)
}

// RunParallel is Run with up to Config.Workers Iterations evaluated
// concurrently. Residues are folded in the order their primes were drawn, so
// the result is the same as Run's for the same source. Residues computed after
// the builder terminates are discarded.
func (rm *Remainder[E, R, V]) RunParallel(
	ctx context.Context, iteration Iteration[E, R], source primes.Source,
) (V, error) {
	// Initializations
	caller := "Remainder.RunParallel"
	var zero V
	workers := rm.config.Workers
	rm.start()

	for !rm.terminated() {
		// Draw a batch of pairwise coprime primes
		fields := make([]field.Field[E], 0, workers)
		pending := big.NewInt(1)
		for len(fields) < workers {
			f, err := rm.nextField(source, pending, caller)
			if err != nil {
				if errors.Is(err, primes.ErrExhausted) && (len(fields) > 0) {
					break
				}
				return zero, err
			}
			pending.Mul(pending, f.Characteristic())
			fields = append(fields, f)
		}

		// Evaluate the batch
		residues := make([]R, len(fields))
		badPrimeErrs := make([]error, len(fields))
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, f := range fields {
			i, f := i, f
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}
				r, err := iteration(f)
				if err != nil {
					if errors.Is(err, ErrBadPrime) {
						badPrimeErrs[i] = err
						return nil
					}
					return fmt.Errorf("%s: iteration modulo %v failed: %w", caller, f.Characteristic(), err)
				}
				residues[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return zero, fmt.Errorf("%s: run %s: %w", caller, rm.stats.RunID, err)
		}

		// Fold in draw order
		for i, f := range fields {
			if rm.terminated() {
				rm.stats.SurplusResidues++
				rm.metrics.skippedPrime(skipSurplus)
				continue
			}
			if badPrimeErrs[i] != nil {
				if err := rm.badPrime(f, badPrimeErrs[i], caller); err != nil {
					return zero, err
				}
				continue
			}
			if err := rm.fold(f, residues[i], caller); err != nil {
				return zero, err
			}
		}
	}
	return rm.finish(caller)
}

// Stats returns the statistics of the most recent run.
func (rm *Remainder[E, R, V]) Stats() Stats {
	return rm.stats
}

func (rm *Remainder[E, R, V]) start() {
	rm.initialized = false
	rm.stats = Stats{RunID: uuid.NewString()}
	log.Debugw("reconstruction started", "run", rm.stats.RunID, "builder", kindOf(rm.builder))
}

func (rm *Remainder[E, R, V]) terminated() bool {
	return rm.initialized && rm.builder.Terminated()
}

// nextField draws primes until one is coprime to the moduli already folded in
// and to pending, then returns its field. pending may be nil.
func (rm *Remainder[E, R, V]) nextField(source primes.Source, pending *big.Int, caller string) (field.Field[E], error) {
	caller = fmt.Sprintf("%s-nextField", caller)
	for {
		p, err := source.Next()
		if err != nil {
			return nil, fmt.Errorf(
				"%s: run %s could not draw a prime after %d: %w", caller, rm.stats.RunID, rm.stats.PrimesUsed, err,
			)
		}
		if (rm.initialized && rm.builder.Noncoprime(p)) || ((pending != nil) && !isCoprime(pending, p)) {
			rm.stats.NoncoprimeSkipped++
			rm.metrics.skippedPrime(skipNoncoprime)
			log.Debugf("%s: skipping %v, not coprime to the moduli in use", caller, p)
			continue
		}
		f, err := rm.newField(p)
		if err != nil {
			return nil, fmt.Errorf("%s: could not create field modulo %v: %w", caller, p, err)
		}
		return f, nil
	}
}

// badPrime records a prime rejected by the Iteration. It returns err itself
// unless err is ErrBadPrime and the run still tolerates another bad prime.
func (rm *Remainder[E, R, V]) badPrime(f field.Field[E], err error, caller string) error {
	if !errors.Is(err, ErrBadPrime) {
		return fmt.Errorf("%s: iteration modulo %v failed: %w", caller, f.Characteristic(), err)
	}
	rm.stats.BadPrimes++
	rm.metrics.skippedPrime(skipBadPrime)
	log.Debugf("%s: prime %v is unlucky: %v", caller, f.Characteristic(), err)
	if rm.stats.BadPrimes > rm.config.MaxBadPrimes {
		return fmt.Errorf(
			"%s: run %s rejected %d primes, allowed %d: %w",
			caller, rm.stats.RunID, rm.stats.BadPrimes, rm.config.MaxBadPrimes, ErrTooManyBadPrimes,
		)
	}
	return nil
}

func (rm *Remainder[E, R, V]) fold(f field.Field[E], r R, caller string) error {
	if !rm.initialized {
		if err := rm.builder.Initialize(f, r); err != nil {
			return fmt.Errorf("%s: could not initialize builder modulo %v: %w", caller, f.Characteristic(), err)
		}
		rm.initialized = true
	} else if err := rm.builder.Progress(f, r); err != nil {
		return fmt.Errorf("%s: could not progress builder modulo %v: %w", caller, f.Characteristic(), err)
	}
	rm.stats.PrimesUsed++
	rm.metrics.usedPrime()
	return nil
}

func (rm *Remainder[E, R, V]) finish(caller string) (V, error) {
	retVal, err := rm.builder.Result()
	if err != nil {
		return retVal, fmt.Errorf("%s: %w", caller, err)
	}
	if mh, ok := rm.builder.(modulusHolder); ok {
		rm.stats.ModulusBits = mh.Modulus().BitLen()
	}
	kind := kindOf(rm.builder)
	rm.metrics.finishedRun(kind, rm.stats.ModulusBits)
	log.Infow(
		"reconstruction finished", "run", rm.stats.RunID, "builder", kind, "primes", rm.stats.PrimesUsed,
		"modulusBits", rm.stats.ModulusBits, "badPrimes", rm.stats.BadPrimes,
	)
	return retVal, nil
}

func kindOf(builder any) string {
	if k, ok := builder.(kinded); ok {
		return k.Kind()
	}
	return fmt.Sprintf("%T", builder)
}
