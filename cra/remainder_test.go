package cra

// Copyright (c) 2025 Colin McRae

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/predrag3141/CRA/field"
	"github.com/predrag3141/CRA/primes"
)

// spyBuilder records the moduli passed to an EarlySingle
type spyBuilder struct {
	*EarlySingle[uint64]
	initialized []int64
	progressed  []int64
}

func (sb *spyBuilder) Initialize(f field.Field[uint64], e uint64) error {
	sb.initialized = append(sb.initialized, f.Characteristic().Int64())
	return sb.EarlySingle.Initialize(f, e)
}

func (sb *spyBuilder) Progress(f field.Field[uint64], e uint64) error {
	sb.progressed = append(sb.progressed, f.Characteristic().Int64())
	return sb.EarlySingle.Progress(f, e)
}

func constantIteration(value int64) Iteration[uint64, uint64] {
	return func(f field.Field[uint64]) (uint64, error) {
		return field.InitInt64(f, value), nil
	}
}

func fixedSource(list ...int64) *primes.Fixed {
	bigList := make([]*big.Int, len(list))
	for i, p := range list {
		bigList[i] = big.NewInt(p)
	}
	return primes.NewFixed(bigList)
}

func TestRunSkipsNoncoprimeModuli(t *testing.T) {
	inner, err := NewEarlySingle[uint64](2)
	require.NoError(t, err)
	spy := &spyBuilder{EarlySingle: inner}
	rm, err := NewRemainder[uint64, uint64, *big.Int](spy, field.NewModular64, DefaultConfig(), nil)
	require.NoError(t, err)

	result, err := rm.Run(context.Background(), constantIteration(1), fixedSource(5, 10, 25, 7))
	require.NoError(t, err)
	require.Equal(t, int64(1), result.Int64())
	require.Equal(t, []int64{5}, spy.initialized)
	require.Equal(t, []int64{7}, spy.progressed)
	stats := rm.Stats()
	require.Equal(t, 2, stats.PrimesUsed)
	require.Equal(t, 2, stats.NoncoprimeSkipped)
	require.Equal(t, 6, stats.ModulusBits)
	require.NotEmpty(t, stats.RunID)
}

func TestRunEarlySingle(t *testing.T) {
	const (
		bits       = 26
		randomSeed = 99
	)

	expected, ok := big.NewInt(0).SetString("-123456789012345678901234567890", 10)
	require.True(t, ok)
	es, err := NewEarlySingle[float64](DefaultEarlyTerminationThreshold)
	require.NoError(t, err)
	rm, err := NewRemainder[float64, float64, *big.Int](es, field.NewBalancedDouble, DefaultConfig(), nil)
	require.NoError(t, err)
	src, err := primes.NewRandom(bits, rand.New(rand.NewSource(randomSeed)))
	require.NoError(t, err)

	result, err := rm.Run(context.Background(), func(f field.Field[float64]) (float64, error) {
		return f.Init(expected), nil
	}, src)
	require.NoError(t, err)
	require.Equal(t, 0, result.Cmp(expected))

	// 97 bits need 4 primes; the image is then confirmed threshold-1 more times
	stats := rm.Stats()
	require.Equal(t, 4+DefaultEarlyTerminationThreshold-1, stats.PrimesUsed)
	t.Logf("run %s: %+v", stats.RunID, stats)

	// Test JSON
	asJSON, err := json.Marshal(stats)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(asJSON, &fields))
	require.Equal(t, stats.RunID, fields["run_id"])
	require.Equal(t, float64(stats.PrimesUsed), fields["primes_used"])
	for _, key := range []string{"noncoprime_skipped", "bad_primes", "surplus_residues", "modulus_bits"} {
		require.Contains(t, fields, key)
	}
	require.Len(t, fields, 6)
}

func TestRunBadPrimes(t *testing.T) {
	badPrime := big.NewInt(1013)
	iteration := func(f field.Field[uint64]) (uint64, error) {
		if f.Characteristic().Cmp(badPrime) == 0 {
			return 0, fmt.Errorf("singular modulo %v: %w", badPrime, ErrBadPrime)
		}
		return field.InitInt64(f, -42), nil
	}

	cfg := DefaultConfig()
	cfg.EarlyTerminationThreshold = 3
	es, err := NewEarlySingle[uint64](cfg.EarlyTerminationThreshold)
	require.NoError(t, err)
	rm, err := NewRemainder[uint64, uint64, *big.Int](es, field.NewModular64, cfg, nil)
	require.NoError(t, err)
	result, err := rm.Run(context.Background(), iteration, primes.NewSequential(big.NewInt(1000)))
	require.NoError(t, err)
	require.Equal(t, int64(-42), result.Int64())
	require.Equal(t, 1, rm.Stats().BadPrimes)
	require.Equal(t, 3, rm.Stats().PrimesUsed)

	// No bad prime allowed
	cfg.MaxBadPrimes = 0
	rm, err = NewRemainder[uint64, uint64, *big.Int](es, field.NewModular64, cfg, nil)
	require.NoError(t, err)
	_, err = rm.Run(context.Background(), iteration, primes.NewSequential(big.NewInt(1000)))
	require.True(t, errors.Is(err, ErrTooManyBadPrimes))

	// Other iteration errors end the run
	failure := errors.New("disk on fire")
	_, err = rm.Run(context.Background(), func(field.Field[uint64]) (uint64, error) {
		return 0, failure
	}, primes.NewSequential(big.NewInt(1000)))
	require.True(t, errors.Is(err, failure))
}

func TestRunExhaustedAndCancelled(t *testing.T) {
	es, err := NewEarlySingle[uint64](5)
	require.NoError(t, err)
	rm, err := NewRemainder[uint64, uint64, *big.Int](es, field.NewModular64, DefaultConfig(), nil)
	require.NoError(t, err)
	_, err = rm.Run(context.Background(), constantIteration(3), fixedSource(101, 103))
	require.True(t, errors.Is(err, primes.ErrExhausted))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rm.Run(ctx, constantIteration(3), primes.NewSequential(big.NewInt(100)))
	require.True(t, errors.Is(err, context.Canceled))

	_, err = NewRemainder[uint64, uint64, *big.Int](es, field.NewModular64, Config{}, nil)
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestRunRNSFixed(t *testing.T) {
	list := []*big.Int{big.NewInt(101), big.NewInt(103), big.NewInt(107)}
	values := []*big.Int{big.NewInt(-500000), big.NewInt(12345), big.NewInt(-1)}
	iteration := func(f field.Field[float64]) ([]float64, error) {
		return field.InitVector(f, values), nil
	}

	for _, workers := range []int{1, 2, 3, 8} {
		rf, err := NewRNSFixed[float64](list)
		require.NoError(t, err)
		cfg := DefaultConfig()
		cfg.Workers = workers
		rm, err := NewRemainder[float64, []float64, []*big.Int](rf, field.NewBalancedDouble, cfg, nil)
		require.NoError(t, err)
		result, err := rm.RunParallel(context.Background(), iteration, primes.NewFixed(list))
		require.NoError(t, err, "workers %d", workers)
		for i := range values {
			require.Equal(t, 0, result[i].Cmp(values[i]), "workers %d entry %d", workers, i)
		}
		require.Equal(t, len(list), rm.Stats().PrimesUsed)
	}
}

func TestRunParallelMatchesRun(t *testing.T) {
	const (
		threshold = 6
		workers   = 4
	)

	num, den := big.NewInt(-987654321), big.NewInt(1234567)
	iteration := func(f field.Field[*big.Int]) ([]*big.Int, error) {
		denInverse, err := f.Inv(f.Init(den))
		if err != nil {
			return nil, fmt.Errorf("denominator vanishes modulo %v: %w", f.Characteristic(), ErrBadPrime)
		}
		return []*big.Int{f.Mul(f.Init(num), denInverse), f.Init(den)}, nil
	}

	var results [2][]Rational
	var stats [2]Stats
	for i := 0; i < 2; i++ {
		ev, err := NewEarlyVectorRational[*big.Int](threshold)
		require.NoError(t, err)
		cfg := DefaultConfig()
		cfg.EarlyTerminationThreshold = threshold
		cfg.Workers = workers
		rm, err := NewRemainder[*big.Int, []*big.Int, []Rational](ev, field.NewMultiprecision, cfg, nil)
		require.NoError(t, err)
		src := primes.NewSequential(big.NewInt(1 << 16))
		if i == 0 {
			results[i], err = rm.Run(context.Background(), iteration, src)
		} else {
			results[i], err = rm.RunParallel(context.Background(), iteration, src)
		}
		require.NoError(t, err)
		stats[i] = rm.Stats()
	}
	require.Equal(t, 0, results[0][0].Rat().Cmp(big.NewRat(-987654321, 1234567)))
	require.Equal(t, "1234567", results[0][1].String())
	require.True(t, sameRationals(results[0], results[1]))
	require.Equal(t, stats[0].PrimesUsed, stats[1].PrimesUsed)
	require.Equal(t, 0, stats[0].SurplusResidues)
	require.Equal(t, 0, (stats[1].PrimesUsed+stats[1].SurplusResidues)%workers)
	t.Logf("sequential %+v, parallel %+v", stats[0], stats[1])
}

func TestRunParallelIterationError(t *testing.T) {
	es, err := NewEarlySingle[uint64](3)
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.Workers = 3
	rm, err := NewRemainder[uint64, uint64, *big.Int](es, field.NewModular64, cfg, nil)
	require.NoError(t, err)
	failure := errors.New("out of memory")
	_, err = rm.RunParallel(context.Background(), func(f field.Field[uint64]) (uint64, error) {
		if f.Characteristic().Int64() == 107 {
			return 0, failure
		}
		return 1, nil
	}, fixedSource(101, 103, 107, 109))
	require.True(t, errors.Is(err, failure))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	require.Error(t, err)

	es, err := NewEarlySingle[uint64](2)
	require.NoError(t, err)
	rm, err := NewRemainder[uint64, uint64, *big.Int](es, field.NewModular64, DefaultConfig(), metrics)
	require.NoError(t, err)
	iteration := func(f field.Field[uint64]) (uint64, error) {
		if f.Characteristic().Int64() == 11 {
			return 0, ErrBadPrime
		}
		return field.InitInt64(f, 2), nil
	}
	_, err = rm.Run(context.Background(), iteration, fixedSource(5, 15, 11, 7))
	require.NoError(t, err)

	require.Equal(t, 2.0, testutil.ToFloat64(metrics.primesUsed))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.primesSkipped.WithLabelValues(skipNoncoprime)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.primesSkipped.WithLabelValues(skipBadPrime)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("early-single")))
	require.Equal(t, 6.0, testutil.ToFloat64(metrics.modulusBits))

	// A nil *Metrics records nothing
	var none *Metrics
	none.usedPrime()
	none.skippedPrime(skipSurplus)
	none.finishedRun("early-single", 1)
}
