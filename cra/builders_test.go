package cra

// Copyright (c) 2025 Colin McRae

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/predrag3141/CRA/field"
	"github.com/predrag3141/CRA/primes"
	"github.com/predrag3141/CRA/ratrecon"
)

func mustField[E any](t *testing.T, newField field.Factory[E], p int64) field.Field[E] {
	f, err := newField(big.NewInt(p))
	require.NoError(t, err)
	return f
}

func TestEarlySingleKeepsCanonicalResidue(t *testing.T) {
	// 17 and -18 have the same residues modulo 5 and 7, and 17 is the one in [0, 35)
	for _, value := range []int64{17, -18} {
		es, err := NewEarlySingle[uint64](2)
		require.NoError(t, err)
		f5, f7 := mustField(t, field.NewModular64, 5), mustField(t, field.NewModular64, 7)
		require.NoError(t, es.Initialize(f5, field.InitInt64(f5, value)))
		require.NoError(t, es.Progress(f7, field.InitInt64(f7, value)))
		require.Equal(t, int64(35), es.Modulus().Int64())
		require.Equal(t, int64(17), es.Residue().Int64())
		require.Equal(t, 1, es.Occurrence())
	}
}

func TestEarlySingleFieldAndIntegerAgree(t *testing.T) {
	const (
		numPrimes  = 40
		threshold  = 10
		randomSeed = 17
	)

	rng := rand.New(rand.NewSource(randomSeed))
	value := big.NewInt(0).Rand(rng, big.NewInt(0).Lsh(big.NewInt(1), 300))
	value.Neg(value)
	withField, err := NewEarlySingle[float64](threshold)
	require.NoError(t, err)
	withInt, err := NewEarlySingle[float64](threshold)
	require.NoError(t, err)
	src := primes.NewSequential(big.NewInt(1 << 20))
	for i := 0; i < numPrimes; i++ {
		p, err := src.Next()
		require.NoError(t, err)
		f, err := field.NewBalancedDouble(p)
		require.NoError(t, err)
		if i == 0 {
			require.NoError(t, withField.Initialize(f, f.Init(value)))
			require.NoError(t, withInt.InitializeInt(p, value))
		} else {
			require.NoError(t, withField.Progress(f, f.Init(value)))
			require.NoError(t, withInt.ProgressInt(p, value))
		}
		require.Equal(t, 0, withField.Residue().Cmp(withInt.Residue()))
		require.Equal(t, 0, withField.Modulus().Cmp(withInt.Modulus()))
		require.Equal(t, withField.Occurrence(), withInt.Occurrence())
	}
	require.True(t, withField.Terminated())
	result, err := withField.Result()
	require.NoError(t, err)
	require.Equal(t, 0, result.Cmp(value))
	t.Logf("%d-bit value stable after %d primes", value.BitLen(), withField.Occurrence())
}

func TestEarlySingleTermination(t *testing.T) {
	const threshold = 3

	es, err := NewEarlySingle[*big.Int](threshold)
	require.NoError(t, err)
	_, err = es.Result()
	require.True(t, errors.Is(err, ErrNotInitialized))
	require.True(t, errors.Is(es.ProgressInt(big.NewInt(7), big.NewInt(1)), ErrNotInitialized))
	require.False(t, es.Noncoprime(big.NewInt(7)))

	// -1000 is 1 modulo 11 and 143, and first represented modulo 11*13*101
	moduli := []int64{11, 13, 101, 103, 107}
	expectedOccurrence := []int{2, 1, 2, 3}
	require.NoError(t, es.InitializeInt(big.NewInt(moduli[0]), big.NewInt(-1000)))
	for i := 1; i < len(moduli); i++ {
		require.False(t, es.Terminated())
		_, err = es.Result()
		require.True(t, errors.Is(err, ErrNotTerminated))
		require.NoError(t, es.ProgressInt(big.NewInt(moduli[i]), big.NewInt(-1000)))
		require.Equal(t, expectedOccurrence[i-1], es.Occurrence(), "after modulus %d", moduli[i])
	}
	require.True(t, es.Terminated())
	for i := 0; i < 2; i++ {
		result, err := es.Result()
		require.NoError(t, err)
		require.Equal(t, int64(-1000), result.Int64())
	}

	// Noncoprime moduli are refused and leave the state untouched
	require.True(t, es.Noncoprime(big.NewInt(11*17)))
	require.False(t, es.Noncoprime(big.NewInt(127)))
	err = es.ProgressInt(big.NewInt(11*17), big.NewInt(0))
	require.True(t, errors.Is(err, ErrNotCoprime))
	require.Equal(t, 3, es.Occurrence())

	_, err = NewEarlySingle[uint64](0)
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestEarlySingleMidProductBoundary(t *testing.T) {
	// Modulo 35 the balanced range is [-17, 17]; modulo 6 it is [-2, 3]
	testCases := []struct {
		moduli   []int64
		value    int64
		expected int64
	}{
		{[]int64{5, 7}, 17, 17},
		{[]int64{5, 7}, 18, -17},
		{[]int64{5, 7}, -17, -17},
		{[]int64{2, 3}, 3, 3},
		{[]int64{2, 3}, -3, 3},
		{[]int64{2, 3}, 4, -2},
	}
	for _, tc := range testCases {
		es, err := NewEarlySingle[*big.Int](1)
		require.NoError(t, err)
		require.NoError(t, es.InitializeInt(big.NewInt(tc.moduli[0]), big.NewInt(tc.value)))
		require.NoError(t, es.ProgressInt(big.NewInt(tc.moduli[1]), big.NewInt(tc.value)))
		result, err := es.Result()
		require.NoError(t, err)
		require.Equal(t, tc.expected, result.Int64(), "value %d modulo %v", tc.value, tc.moduli)
	}
}

func TestEarlyRational(t *testing.T) {
	const threshold = 5

	er, err := NewEarlyRational[uint64](threshold)
	require.NoError(t, err)
	src := primes.NewSequential(big.NewInt(1000))
	num, den := big.NewInt(-3), big.NewInt(4)
	for i := 0; i < threshold; i++ {
		require.False(t, er.Terminated())
		p, err := src.Next()
		require.NoError(t, err)
		f := mustField(t, field.NewModular64, p.Int64())
		inverse, err := f.Inv(f.Init(den))
		require.NoError(t, err)
		e := f.Mul(f.Init(num), inverse)
		if i == 0 {
			require.NoError(t, er.Initialize(f, e))
		} else {
			require.NoError(t, er.Progress(f, e))
		}
		require.Equal(t, i+1, er.Occurrence())
	}
	require.True(t, er.Terminated())
	result, err := er.Result()
	require.NoError(t, err)
	require.Equal(t, "-3/4", result.String())
	require.Equal(t, 0, result.Rat().Cmp(big.NewRat(-3, 4)))

	_, err = er.IntegerResult()
	require.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestEarlyRationalFieldAndIntegerAgree(t *testing.T) {
	const threshold = 8

	// Initializations. The early candidates include a failed reconstruction.
	num, den := big.NewInt(-123456789012345), big.NewInt(98765432101)
	expectedOccurrences := []int{1, 1, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8}
	withField, err := NewEarlyRational[uint64](threshold)
	require.NoError(t, err)
	withInt, err := NewEarlyRational[uint64](threshold)
	require.NoError(t, err)
	src := primes.NewSequential(big.NewInt(1 << 20))

	for i, expectedOccurrence := range expectedOccurrences {
		require.False(t, withField.Terminated())
		p, err := src.Next()
		require.NoError(t, err)
		f := mustField(t, field.NewModular64, p.Int64())
		inverse, err := f.Inv(f.Init(den))
		require.NoError(t, err)
		e := f.Mul(f.Init(num), inverse)
		r, ok := ratrecon.Residue(num, den, p)
		require.True(t, ok)
		if i == 0 {
			require.NoError(t, withField.Initialize(f, e))
			require.NoError(t, withInt.InitializeInt(p, r))
		} else {
			require.NoError(t, withField.Progress(f, e))
			require.NoError(t, withInt.ProgressInt(p, r))
		}
		require.Equal(t, 0, withField.Modulus().Cmp(withInt.Modulus()))
		require.Equal(t, expectedOccurrence, withField.Occurrence(), "after %d primes", i+1)
		require.Equal(t, withField.Occurrence(), withInt.Occurrence(), "after %d primes", i+1)
	}
	require.True(t, withField.Terminated())
	require.True(t, withInt.Terminated())
	fieldResult, err := withField.Result()
	require.NoError(t, err)
	intResult, err := withInt.Result()
	require.NoError(t, err)
	require.True(t, fieldResult.Equal(intResult))
	require.Equal(t, "-123456789012345/98765432101", fieldResult.String())
}

func TestEarlyRationalFailedReconstruction(t *testing.T) {
	er, err := NewEarlyRational[*big.Int](1)
	require.NoError(t, err)

	// 5 has no reconstruction modulo 35
	require.NoError(t, er.InitializeInt(big.NewInt(35), big.NewInt(5)))
	require.Equal(t, 0, er.Occurrence())
	require.False(t, er.Terminated())
	_, err = er.Result()
	require.True(t, errors.Is(err, ErrNotTerminated))

	// 13 is 4/3 modulo 35
	require.NoError(t, er.InitializeInt(big.NewInt(35), big.NewInt(13)))
	require.True(t, er.Terminated())
	result, err := er.Result()
	require.NoError(t, err)
	require.Equal(t, "4/3", result.String())
}

func TestEarlyVectorRational(t *testing.T) {
	const threshold = 4

	expected := []*big.Rat{big.NewRat(1, 2), big.NewRat(-5, 3), big.NewRat(7, 1)}
	ev, err := NewEarlyVectorRational[*big.Int](threshold)
	require.NoError(t, err)
	_, err = ev.Result()
	require.True(t, errors.Is(err, ErrNotInitialized))

	src := primes.NewSequential(big.NewInt(10000))
	for i := 0; !ev.Terminated(); i++ {
		require.Less(t, i, 10)
		p, err := src.Next()
		require.NoError(t, err)
		f := mustField(t, field.NewMultiprecision, p.Int64())
		residues := make([]*big.Int, len(expected))
		for j, r := range expected {
			residue, ok := ratrecon.Residue(r.Num(), r.Denom(), p)
			require.True(t, ok)
			residues[j] = residue
		}
		if i == 0 {
			require.NoError(t, ev.Initialize(f, field.InitVector(f, residues)))
		} else {
			require.NoError(t, ev.Progress(f, field.InitVector(f, residues)))
		}
	}
	result, err := ev.Result()
	require.NoError(t, err)
	require.Len(t, result, len(expected))
	for i := range expected {
		require.Equal(t, 0, result[i].Rat().Cmp(expected[i]))
	}

	// A vector of another length is refused
	f := mustField(t, field.NewMultiprecision, 20011)
	err = ev.Progress(f, []*big.Int{big.NewInt(1)})
	require.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestRNSFixedNegativeEntry(t *testing.T) {
	primeList := []*big.Int{big.NewInt(101), big.NewInt(103), big.NewInt(107)}
	values := []*big.Int{big.NewInt(-500000), big.NewInt(556560), big.NewInt(-556560), big.NewInt(0)}

	rf, err := NewRNSFixed[float64](primeList)
	require.NoError(t, err)
	require.Equal(t, int64(1113121), rf.Modulus().Int64())
	for i, p := range primeList {
		f, err := field.NewBalancedDouble(p)
		require.NoError(t, err)
		if i == 0 {
			require.NoError(t, rf.Initialize(f, field.InitVector(f, values)))
			continue
		}
		_, err = rf.Result()
		require.True(t, errors.Is(err, ErrNotTerminated))
		require.NoError(t, rf.Progress(f, field.InitVector(f, values)))
	}
	require.True(t, rf.Terminated())
	for i := 0; i < 2; i++ {
		result, err := rf.Result()
		require.NoError(t, err)
		for j := range values {
			require.Equal(t, 0, result[j].Cmp(values[j]), "entry %d: %v", j, result[j])
		}
	}

	// No more primes
	f, err := field.NewBalancedDouble(big.NewInt(109))
	require.NoError(t, err)
	err = rf.Progress(f, field.InitVector(f, values))
	require.True(t, errors.Is(err, ErrPrimeOrder))
}

func TestRNSFixedEvenProduct(t *testing.T) {
	rf, err := NewRNSFixed[*big.Int]([]*big.Int{big.NewInt(2), big.NewInt(3)})
	require.NoError(t, err)
	values := []*big.Int{big.NewInt(3), big.NewInt(-2), big.NewInt(4), big.NewInt(-3)}
	for _, p := range []int64{2, 3} {
		f := mustField(t, field.NewMultiprecision, p)
		if p == 2 {
			require.NoError(t, rf.Initialize(f, field.InitVector(f, values)))
		} else {
			require.NoError(t, rf.Progress(f, field.InitVector(f, values)))
		}
	}
	result, err := rf.Result()
	require.NoError(t, err)
	require.Equal(t, []int64{3, -2, -2, 3}, []int64{result[0].Int64(), result[1].Int64(), result[2].Int64(), result[3].Int64()})
}

func TestRNSFixedMisuse(t *testing.T) {
	_, err := NewRNSFixed[uint64]([]*big.Int{big.NewInt(6), big.NewInt(9)})
	require.True(t, errors.Is(err, ErrNotCoprime))
	_, err = NewRNSFixed[uint64](nil)
	require.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = NewRNSFixed[uint64]([]*big.Int{big.NewInt(1)})
	require.True(t, errors.Is(err, field.ErrModulus))

	rf, err := NewRNSFixed[uint64]([]*big.Int{big.NewInt(101), big.NewInt(103), big.NewInt(107)})
	require.NoError(t, err)
	f101 := mustField(t, field.NewModular64, 101)
	f107 := mustField(t, field.NewModular64, 107)
	require.True(t, errors.Is(rf.Progress(f101, []uint64{1}), ErrNotInitialized))
	require.True(t, errors.Is(rf.Initialize(f107, []uint64{1}), ErrPrimeOrder))
	require.NoError(t, rf.Initialize(f101, []uint64{1, 2}))
	require.True(t, errors.Is(rf.Progress(f107, []uint64{1, 2}), ErrPrimeOrder))
	f103 := mustField(t, field.NewModular64, 103)
	require.True(t, errors.Is(rf.Progress(f103, []uint64{1}), ErrShapeMismatch))
	require.False(t, rf.Noncoprime(big.NewInt(101)))
}

func TestRNSFixedResultRational(t *testing.T) {
	primeList := []*big.Int{big.NewInt(101), big.NewInt(103), big.NewInt(107)}
	rf, err := NewRNSFixed[uint64](primeList)
	require.NoError(t, err)
	for i, p := range primeList {
		f := mustField(t, field.NewModular64, p.Int64())
		inverse, err := f.Inv(field.InitInt64(f, 7))
		require.NoError(t, err)
		e := []uint64{f.Mul(field.InitInt64(f, 22), inverse), field.InitInt64(f, -746)}
		if i == 0 {
			require.NoError(t, rf.Initialize(f, e))
		} else {
			require.NoError(t, rf.Progress(f, e))
		}
	}
	result, err := rf.ResultRational()
	require.NoError(t, err)
	require.Equal(t, "22/7", result[0].String())
	require.Equal(t, "-746", result[1].String())

	// 8 has no reconstruction modulo 101
	rf, err = NewRNSFixed[uint64](primeList[:1])
	require.NoError(t, err)
	f := mustField(t, field.NewModular64, 101)
	require.NoError(t, rf.Initialize(f, []uint64{field.InitInt64(f, 8)}))
	_, err = rf.ResultRational()
	require.True(t, errors.Is(err, ErrNoReconstruction))
}

func TestCommonDenominator(t *testing.T) {
	rs := []Rational{
		NewRational(big.NewInt(1), big.NewInt(2)),
		NewRational(big.NewInt(-5), big.NewInt(3)),
		NewRational(big.NewInt(7), big.NewInt(1)),
	}
	x, d := CommonDenominator(rs)
	require.Equal(t, int64(6), d.Int64())
	require.Equal(t, []int64{3, -10, 42}, []int64{x[0].Int64(), x[1].Int64(), x[2].Int64()})

	x, d = CommonDenominator(nil)
	require.Empty(t, x)
	require.Equal(t, int64(1), d.Int64())
}

func TestEarlyTerminationFailureBound(t *testing.T) {
	require.Equal(t, 1.0, EarlyTerminationFailureBound(1, 26, 1000))
	require.Equal(t, 1.0, EarlyTerminationFailureBound(20, 3, 1000))
	require.Less(t, EarlyTerminationFailureBound(20, 26, 1000), 1e-80)
	require.Less(t, EarlyTerminationFailureBound(21, 26, 1000), EarlyTerminationFailureBound(20, 26, 1000))
	require.Less(t, EarlyTerminationFailureBound(20, 26, 1000), EarlyTerminationFailureBound(20, 26, 100000))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	for _, cfg := range []Config{
		{EarlyTerminationThreshold: 0, MaxBadPrimes: 1, Workers: 1},
		{EarlyTerminationThreshold: 1, MaxBadPrimes: -1, Workers: 1},
		{EarlyTerminationThreshold: 1, MaxBadPrimes: 1, Workers: 0},
	} {
		require.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig), "%+v", cfg)
	}
}
