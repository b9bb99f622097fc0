package cra

// Copyright (c) 2025 Colin McRae

import "errors"

var (
	// ErrInvalidConfig is returned for a non-positive threshold, worker count or
	// bad-prime allowance.
	ErrInvalidConfig = errors.New("cra: invalid configuration")

	// ErrNotInitialized is returned by Progress and Result before Initialize.
	ErrNotInitialized = errors.New("cra: builder not initialized")

	// ErrNotTerminated is returned by Result before Terminated reports true. The
	// partial value would look plausible and be wrong, so it is never returned.
	ErrNotTerminated = errors.New("cra: result requested before termination")

	// ErrShapeMismatch signals caller misuse: a residue vector whose length
	// differs from the builder's, or an integer result requested from a builder
	// that only produces rationals.
	ErrShapeMismatch = errors.New("cra: residue or result shape mismatch")

	// ErrPrimeOrder is returned when a fixed-count builder is fed a modulus other
	// than the next prime of its list, or is fed after every prime was consumed.
	ErrPrimeOrder = errors.New("cra: modulus does not match the fixed prime list")

	// ErrNotCoprime is returned when a modulus shares a factor with the moduli
	// already accumulated.
	ErrNotCoprime = errors.New("cra: moduli are not pairwise coprime")

	// ErrBadPrime is returned by an Iteration when its problem degenerates modulo
	// the given prime. The driver discards the prime and draws another.
	ErrBadPrime = errors.New("cra: unlucky prime")

	// ErrTooManyBadPrimes is returned by the driver once more than
	// Config.MaxBadPrimes primes were unlucky in one run.
	ErrTooManyBadPrimes = errors.New("cra: too many unlucky primes")

	// ErrNoReconstruction is returned by a fixed-count builder whose modulus is
	// too small for rational reconstruction of an entry.
	ErrNoReconstruction = errors.New("cra: no rational reconstruction within the bound")
)
