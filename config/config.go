// Package config loads the settings of a reconstruction run from YAML.
package config

// Copyright (c) 2025 Colin McRae

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/predrag3141/CRA/cra"
	"github.com/predrag3141/CRA/primes"
)

const (
	// StrategyEarly stops once the reconstructed value has been stable for
	// EarlyTerminationThreshold primes. The result is probabilistic.
	StrategyEarly = "early"

	// StrategyFixed uses enough primes, by Hadamard's bound, to make the result certain.
	StrategyFixed = "fixed"
)

// ErrInvalid is returned when a configuration fails validation.
var ErrInvalid = errors.New("config: invalid configuration")

var validate = validator.New()

// Config holds the settings of a run. A PrimeBits of 0 selects the size of the
// primes from the dimension of the problem.
type Config struct {
	Strategy                  string `json:"strategy" yaml:"strategy" validate:"oneof=early fixed"`
	EarlyTerminationThreshold int    `json:"early_termination_threshold" yaml:"early_termination_threshold" validate:"gte=1"`
	PrimeBits                 int    `json:"prime_bits" yaml:"prime_bits" validate:"gte=0,lte=4096,ne=1,ne=2"`
	Workers                   int    `json:"workers" yaml:"workers" validate:"gte=1,lte=1024"`
	Seed                      int64  `json:"seed" yaml:"seed"`
	MaxBadPrimes              int    `json:"max_bad_primes" yaml:"max_bad_primes" validate:"gte=0"`
	LogLevel                  string `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error dpanic panic fatal"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Strategy:                  StrategyEarly,
		EarlyTerminationThreshold: cra.DefaultEarlyTerminationThreshold,
		PrimeBits:                 0,
		Workers:                   cra.DefaultWorkers,
		Seed:                      1,
		MaxBadPrimes:              cra.DefaultMaxBadPrimes,
		LogLevel:                  "warn",
	}
}

// Load reads the YAML file at path. Keys missing from the file keep their
// default values, and unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("Load: could not read %s: %w", path, err)
	}
	retVal, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("Load: %s: %w", path, err)
	}
	return retVal, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	retVal := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&retVal); (err != nil) && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("Parse: could not decode: %w: %w", ErrInvalid, err)
	}
	if err := retVal.Validate(); err != nil {
		return Config{}, err
	}
	return retVal, nil
}

// Validate checks c against its struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("Config.Validate: %w: %w", ErrInvalid, err)
	}
	return nil
}

// CRAConfig returns the settings of the reconstruction driver.
func (c Config) CRAConfig() cra.Config {
	return cra.Config{
		EarlyTerminationThreshold: c.EarlyTerminationThreshold,
		MaxBadPrimes:              c.MaxBadPrimes,
		Workers:                   c.Workers,
	}
}

// PrimeBitsFor returns the size of the primes to use for an n x n problem.
func (c Config) PrimeBitsFor(n int) int {
	if c.PrimeBits > 0 {
		return c.PrimeBits
	}
	return primes.DefaultBits(n)
}

// Marshal returns c as YAML, in the format read by Load.
func (c Config) Marshal() ([]byte, error) {
	retVal, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("Config.Marshal: %w", err)
	}
	return retVal, nil
}
