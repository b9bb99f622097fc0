package knownanswertest

// Copyright (c) 2025 Colin McRae

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/predrag3141/CRA/config"
	"github.com/predrag3141/CRA/cra"
	"github.com/predrag3141/CRA/field"
	"github.com/predrag3141/CRA/linsys"
)

func TestCRAContext(t *testing.T) {
	const (
		numTests    = 4
		entryRange  = 50
		integerBits = 200
		primeBits   = 31
		randomSeed  = 11
	)

	rng := rand.New(rand.NewSource(randomSeed))
	for dim := 1; dim <= numTests; dim++ {
		cc, err := NewCRAContext(2*dim, entryRange, integerBits)
		require.NoError(t, err)
		a, b, err := cc.System()
		require.NoError(t, err)
		ok, err := linsys.Verify(a, cc.Numerators, cc.Denominator, b)
		require.NoError(t, err)
		require.True(t, ok)

		solver, err := linsys.NewSolver(field.NewModular64, primeBits, rng, cra.DefaultConfig(), nil)
		require.NoError(t, err)
		solution, err := solver.SolveEarly(context.Background(), a, b)
		require.NoError(t, err)
		cc.RecordSolution("early", solution)
		solution, err = solver.SolveFixed(context.Background(), a, b)
		require.NoError(t, err)
		cc.RecordSolution("fixed", solution)
		det, stats, err := solver.DeterminantEarly(context.Background(), a)
		require.NoError(t, err)
		cc.RecordDeterminant("early", det, stats)
		det, stats, err = solver.DeterminantFixed(context.Background(), a)
		require.NoError(t, err)
		cc.RecordDeterminant("fixed", det, stats)

		for _, strategy := range []string{config.StrategyEarly, config.StrategyFixed} {
			require.NoError(t, RunScalars(
				context.Background(), cc, strategy, field.NewModular64, primeBits, rng, cra.DefaultConfig(), nil,
			))
		}
		require.Len(t, cc.Results, 8)
		require.True(t, cc.AllCorrect(), "%+v", cc.Results)
		for _, run := range cc.Results {
			t.Logf("dim %d: %s/%s used %d primes", cc.Dim, run.Problem, run.Strategy, run.PrimesUsed)
		}

		// Test JSON
		var copyOfCRAContext CRAContext
		asJSON, err := json.Marshal(cc)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(asJSON, &copyOfCRAContext))
		require.Equal(t, 0, copyOfCRAContext.Determinant.Cmp(cc.Determinant))
		require.True(t, copyOfCRAContext.Rational.Equal(cc.Rational))
		require.Equal(t, cc.Results, copyOfCRAContext.Results)
	}

	_, err := NewCRAContext(0, entryRange, integerBits)
	require.Error(t, err)
}

func TestRunScalars(t *testing.T) {
	const (
		integerBits = 300
		randomSeed  = 23
	)

	// Initializations
	rng := rand.New(rand.NewSource(randomSeed))
	cc, err := NewCRAContext(2, 10, integerBits)
	require.NoError(t, err)
	craConfig := cra.DefaultConfig()
	craConfig.Workers = 3

	// Each field representation and strategy records one integer and one rational
	require.NoError(t, RunScalars(context.Background(), cc, config.StrategyEarly, field.NewBalancedDouble, 20, rng, craConfig, nil))
	require.NoError(t, RunScalars(context.Background(), cc, config.StrategyFixed, field.NewBalancedDouble, 20, rng, craConfig, nil))
	require.NoError(t, RunScalars(context.Background(), cc, config.StrategyFixed, field.NewMultiprecision, 80, rng, craConfig, nil))
	require.Len(t, cc.Results, 6)
	for i, run := range cc.Results {
		require.Equal(t, []string{"integer", "rational"}[i%2], run.Problem)
		require.True(t, run.Correct, "%+v", run)
		require.Positive(t, run.PrimesUsed)
	}

	// 2^301 takes at least 16 primes of 20 bits
	require.GreaterOrEqual(t, cc.Results[2].PrimesUsed, 16)
	require.Less(t, cc.Results[4].PrimesUsed, cc.Results[2].PrimesUsed)

	err = RunScalars(context.Background(), cc, "guess", field.NewModular64, 31, rng, craConfig, nil)
	require.Error(t, err)
	require.Len(t, cc.Results, 6)
}
