package knownanswertest

// Copyright (c) 2025 Colin McRae

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/predrag3141/CRA/cra"
)

func TestNewKATLog(t *testing.T) {
	const (
		dim         = 3
		entryRange  = 10
		integerBits = 64
	)

	// Initializations
	cc, err := NewCRAContext(dim, entryRange, integerBits)
	require.NoError(t, err)
	kl, err := NewKATLog(t.TempDir(), dim)
	require.NoError(t, err)

	// Nothing to report yet
	require.NoError(t, kl.ReportProgress(cc))
	cc.RecordDeterminant("fixed", big.NewInt(0).Set(cc.Determinant), cra.Stats{PrimesUsed: 2})
	cc.RecordInteger("early", big.NewInt(0).Add(cc.Integer, big.NewInt(1)), cra.Stats{PrimesUsed: 23})
	require.NoError(t, kl.ReportProgress(cc))
	require.NoError(t, kl.ReportProgress(cc))
	cc.RecordRational("early", cc.Rational, cra.Stats{PrimesUsed: 24})
	require.NoError(t, kl.ReportProgress(cc))
	require.NoError(t, kl.ReportResults(cc))
	require.NoError(t, kl.Close())

	entries, err := ReadKATLog(kl.Path())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, kindProgress, entries[0].Kind)
	require.Len(t, entries[0].Runs, 2)
	require.True(t, entries[0].Runs[0].Correct)
	require.False(t, entries[0].Runs[1].Correct)
	require.Equal(t, kindProgress, entries[1].Kind)
	require.Len(t, entries[1].Runs, 1)
	require.Equal(t, 24, entries[1].Runs[0].PrimesUsed)
	require.Equal(t, kindResults, entries[2].Kind)
	require.NotNil(t, entries[2].Context)
	require.Equal(t, dim, entries[2].Dim)
	require.Equal(t, 0, entries[2].Context.Determinant.Cmp(cc.Determinant))
	require.Len(t, entries[2].Context.Results, 3)
	require.False(t, cc.AllCorrect())
}
