package cra

// Copyright (c) 2025 Colin McRae

import "fmt"

const (
	// DefaultEarlyTerminationThreshold is the number of consecutive updates that
	// must reproduce the same image before an early-terminated builder stops.
	DefaultEarlyTerminationThreshold = 20

	// DefaultMaxBadPrimes is how many unlucky primes one run tolerates.
	DefaultMaxBadPrimes = 64

	// DefaultWorkers is the number of Iterations evaluated concurrently by RunParallel.
	DefaultWorkers = 1
)

// Config holds the tunables of a reconstruction run.
type Config struct {
	// EarlyTerminationThreshold is K: an early-terminated builder stops when its
	// image was the same for K consecutive updates.
	EarlyTerminationThreshold int

	// MaxBadPrimes bounds how many primes an Iteration may reject with
	// ErrBadPrime before the run fails.
	MaxBadPrimes int

	// Workers is how many Iterations RunParallel evaluates at once.
	Workers int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		EarlyTerminationThreshold: DefaultEarlyTerminationThreshold,
		MaxBadPrimes:              DefaultMaxBadPrimes,
		Workers:                   DefaultWorkers,
	}
}

// Validate returns ErrInvalidConfig, wrapped with the offending field, if any
// field of c is out of range.
func (c Config) Validate() error {
	if c.EarlyTerminationThreshold < 1 {
		return fmt.Errorf(
			"Config.Validate: early termination threshold %d is not positive: %w",
			c.EarlyTerminationThreshold, ErrInvalidConfig,
		)
	}
	if c.MaxBadPrimes < 0 {
		return fmt.Errorf("Config.Validate: max bad primes %d is negative: %w", c.MaxBadPrimes, ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("Config.Validate: worker count %d is not positive: %w", c.Workers, ErrInvalidConfig)
	}
	return nil
}
