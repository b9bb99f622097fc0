package ratrecon

// Copyright (c) 2025 Colin McRae

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBound(t *testing.T) {
	for _, tc := range []struct {
		m        int64
		expected int64
	}{
		{m: 1, expected: 0},
		{m: 2, expected: 1},
		{m: 35, expected: 4},
		{m: 50, expected: 5},
		{m: 51, expected: 5},
		{m: 1000003, expected: 707},
	} {
		require.Equal(t, tc.expected, Bound(big.NewInt(tc.m)).Int64(), "m = %d", tc.m)
	}
}

func TestReconstructSmallModulus(t *testing.T) {
	const m = 35
	for _, tc := range []struct {
		r           int64
		ok          bool
		num, den    int64
		description string
	}{
		{r: 0, ok: true, num: 0, den: 1, description: "zero"},
		{r: 4, ok: true, num: 4, den: 1, description: "small positive integer"},
		{r: 31, ok: true, num: -4, den: 1, description: "small negative integer"},
		{r: 17, ok: true, num: -1, den: 2, description: "-1/2"},
		{r: 13, ok: true, num: 4, den: 3, description: "4/3"},
		{r: 8, ok: true, num: -3, den: 4, description: "-3/4"},
		{r: 5, ok: false, description: "no pair within the bound"},
		{r: 30, ok: false, description: "no pair within the bound"},
	} {
		num, den, ok := Reconstruct(big.NewInt(tc.r), big.NewInt(m))
		require.Equal(t, tc.ok, ok, tc.description)
		if !ok {
			continue
		}
		require.Equal(t, tc.num, num.Int64(), tc.description)
		require.Equal(t, tc.den, den.Int64(), tc.description)
	}
}

func TestReconstructZero(t *testing.T) {
	// Zero reconstructs to 0/1 even when the bound is 0
	for _, m := range []int64{1, 2, 3, 35} {
		for _, r := range []int64{0, m, -2 * m} {
			num, den, ok := Reconstruct(big.NewInt(r), big.NewInt(m))
			require.True(t, ok, "r = %d, m = %d", r, m)
			require.Equal(t, int64(0), num.Int64())
			require.Equal(t, int64(1), den.Int64())
		}
	}
}

func TestReconstructKnownRationals(t *testing.T) {
	const (
		numTests = 200
		maxEntry = 1 << 20
	)

	// A product of primes exceeding 2 maxEntry^2 is enough for every p/q with
	// |p|, q <= maxEntry.
	m := big.NewInt(1)
	for _, p := range []int64{1000003, 1000033, 1000037, 1000039} {
		m.Mul(m, big.NewInt(p))
	}
	rand.Seed(23894)
	for testNbr := 0; testNbr < numTests; testNbr++ {
		num := big.NewInt(rand.Int63n(2*maxEntry+1) - maxEntry)
		den := big.NewInt(rand.Int63n(maxEntry) + 1)
		g := big.NewInt(0).GCD(nil, nil, big.NewInt(0).Abs(num), den)
		if num.Sign() == 0 {
			den.SetInt64(1)
		} else {
			num.Quo(num, g)
			den.Quo(den, g)
		}
		r, ok := Residue(num, den, m)
		require.True(t, ok)

		actualNum, actualDen, ok := Reconstruct(r, m)
		require.True(t, ok)
		require.Equal(t, 0, num.Cmp(actualNum), "expected %v/%v, got %v/%v", num, den, actualNum, actualDen)
		require.Equal(t, 0, den.Cmp(actualDen), "expected %v/%v, got %v/%v", num, den, actualNum, actualDen)
	}
}

func TestReconstructRoundTrip(t *testing.T) {
	const numTests = 1000

	m := big.NewInt(1000003 * 65537)
	bound := Bound(m)
	rand.Seed(5531)
	successCount := 0
	for testNbr := 0; testNbr < numTests; testNbr++ {
		r := big.NewInt(rand.Int63n(m.Int64()))
		num, den, ok := Reconstruct(r, m)
		if !ok {
			continue
		}
		successCount++
		require.LessOrEqual(t, big.NewInt(0).Abs(num).Cmp(bound), 0)
		require.LessOrEqual(t, den.Cmp(bound), 0)
		require.Equal(t, 1, den.Sign())
		actual, ok := Residue(num, den, m)
		require.True(t, ok)
		require.Equal(t, 0, r.Cmp(actual))
	}
	t.Logf("%d of %d random residues had a reconstruction\n", successCount, numTests)
}

func TestResidueNotInvertible(t *testing.T) {
	_, ok := Residue(big.NewInt(1), big.NewInt(7), big.NewInt(35))
	require.False(t, ok)
}
