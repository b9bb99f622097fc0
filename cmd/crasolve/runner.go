package main

// Copyright (c) 2025 Colin McRae

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/predrag3141/CRA/config"
	"github.com/predrag3141/CRA/cra"
	"github.com/predrag3141/CRA/field"
	"github.com/predrag3141/CRA/knownanswertest"
	"github.com/predrag3141/CRA/linsys"
)

const (
	maxBalancedDoubleBits = 26
	maxModular64Bits      = 63
)

// runner hides the element type of the field a Solver works in.
type runner interface {
	solve(ctx context.Context, a *linsys.Matrix, b []*big.Int) (*linsys.Solution, error)
	det(ctx context.Context, a *linsys.Matrix) (*big.Int, cra.Stats, error)
	scalars(ctx context.Context, cc *knownanswertest.CRAContext) error
	category() field.Category
}

type solverRunner[E any] struct {
	solver    *linsys.Solver[E]
	newField  field.Factory[E]
	primeBits int
	rng       *rand.Rand
	config    cra.Config
	metrics   *cra.Metrics
	strategy  string
	cat       field.Category
}

// newRunner returns a runner over the smallest field representation that holds
// primes of primeBits bits.
func newRunner(cfg config.Config, primeBits int, metrics *cra.Metrics) (runner, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	switch {
	case primeBits <= maxBalancedDoubleBits:
		return makeRunner(field.NewBalancedDouble, field.ModularFloatingPoint, cfg, primeBits, rng, metrics)
	case primeBits <= maxModular64Bits:
		return makeRunner(field.NewModular64, field.Modular, cfg, primeBits, rng, metrics)
	default:
		return makeRunner(field.NewMultiprecision, field.MultiPrecision, cfg, primeBits, rng, metrics)
	}
}

func makeRunner[E any](
	newField field.Factory[E], cat field.Category, cfg config.Config, primeBits int, rng *rand.Rand, metrics *cra.Metrics,
) (runner, error) {
	solver, err := linsys.NewSolver(newField, primeBits, rng, cfg.CRAConfig(), metrics)
	if err != nil {
		return nil, fmt.Errorf("makeRunner: %w", err)
	}
	return &solverRunner[E]{
		solver:    solver,
		newField:  newField,
		primeBits: primeBits,
		rng:       rng,
		config:    cfg.CRAConfig(),
		metrics:   metrics,
		strategy:  cfg.Strategy,
		cat:       cat,
	}, nil
}

func (sr *solverRunner[E]) solve(ctx context.Context, a *linsys.Matrix, b []*big.Int) (*linsys.Solution, error) {
	if sr.strategy == config.StrategyFixed {
		return sr.solver.SolveFixed(ctx, a, b)
	}
	return sr.solver.SolveEarly(ctx, a, b)
}

func (sr *solverRunner[E]) det(ctx context.Context, a *linsys.Matrix) (*big.Int, cra.Stats, error) {
	if sr.strategy == config.StrategyFixed {
		return sr.solver.DeterminantFixed(ctx, a)
	}
	return sr.solver.DeterminantEarly(ctx, a)
}

// scalars reconstructs the known integer and rational of cc.
func (sr *solverRunner[E]) scalars(ctx context.Context, cc *knownanswertest.CRAContext) error {
	return knownanswertest.RunScalars(ctx, cc, sr.strategy, sr.newField, sr.primeBits, sr.rng, sr.config, sr.metrics)
}

func (sr *solverRunner[E]) category() field.Category {
	return sr.cat
}
