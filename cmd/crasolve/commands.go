package main

// Copyright (c) 2025 Colin McRae

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/predrag3141/CRA/config"
	"github.com/predrag3141/CRA/cra"
	"github.com/predrag3141/CRA/knownanswertest"
	"github.com/predrag3141/CRA/linsys"
)

// options holds the flags shared by all commands.
type options struct {
	configPath string
	strategy   string
	primeBits  int
	stats      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "crasolve",
		Short: "Exact integer linear algebra by Chinese remaindering",
		Long: `crasolve computes exact rational solutions of A x = b and exact determinants
of integer matrices from their images modulo many primes. The early strategy
stops once the result has been stable for a number of primes; the fixed
strategy uses enough primes, by Hadamard's bound, to be certain.`,
		SilenceUsage: true,
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.strategy, "strategy", "", "early or fixed, overriding the configuration")
	flags.IntVar(&opts.primeBits, "prime-bits", 0, "size of the primes, overriding the configuration")
	flags.BoolVar(&opts.stats, "stats", false, "print reconstruction metrics after the run")

	rootCmd.AddCommand(newSolveCmd(opts), newDetCmd(opts), newKATCmd(opts))
	return rootCmd
}

func newSolveCmd(opts *options) *cobra.Command {
	var matrixPath, rhsPath string
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve A x = b exactly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, reg, metrics, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			a, err := readMatrix(matrixPath)
			if err != nil {
				return err
			}
			b, err := readVector(rhsPath)
			if err != nil {
				return err
			}
			r, err := newRunner(cfg, cfg.PrimeBitsFor(a.NumRows()), metrics)
			if err != nil {
				return err
			}
			solution, err := r.solve(cmd.Context(), a, b)
			if err != nil {
				return fmt.Errorf("solve: %w", err)
			}
			log.Infof("solve: %s strategy over %s fields used %d primes", cfg.Strategy, r.category(), solution.Stats.PrimesUsed)
			fmt.Fprintf(cmd.OutOrStdout(), "x = [%s] / %s\n", joinBigInt(solution.Numerators), solution.Denominator)
			return opts.report(cmd.OutOrStdout(), reg)
		},
	}
	cmd.Flags().StringVar(&matrixPath, "matrix", "", "file holding A in dense format")
	cmd.Flags().StringVar(&rhsPath, "rhs", "", "file holding b")
	_ = cmd.MarkFlagRequired("matrix")
	_ = cmd.MarkFlagRequired("rhs")
	return cmd
}

func newDetCmd(opts *options) *cobra.Command {
	var matrixPath string
	cmd := &cobra.Command{
		Use:   "det",
		Short: "Compute det(A) exactly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, reg, metrics, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			a, err := readMatrix(matrixPath)
			if err != nil {
				return err
			}
			r, err := newRunner(cfg, cfg.PrimeBitsFor(a.NumRows()), metrics)
			if err != nil {
				return err
			}
			det, stats, err := r.det(cmd.Context(), a)
			if err != nil {
				return fmt.Errorf("det: %w", err)
			}
			log.Infof("det: %s strategy over %s fields used %d primes", cfg.Strategy, r.category(), stats.PrimesUsed)
			fmt.Fprintln(cmd.OutOrStdout(), det)
			return opts.report(cmd.OutOrStdout(), reg)
		},
	}
	cmd.Flags().StringVar(&matrixPath, "matrix", "", "file holding A in dense format")
	_ = cmd.MarkFlagRequired("matrix")
	return cmd
}

func newKATCmd(opts *options) *cobra.Command {
	var (
		dir         string
		dim         int
		count       int
		entryRange  int64
		integerBits int
	)
	cmd := &cobra.Command{
		Use:   "kat",
		Short: "Run known-answer tests with both strategies and log the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, reg, metrics, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			kl, err := knownanswertest.NewKATLog(dir, dim)
			if err != nil {
				return err
			}
			defer kl.Close()
			numCorrect, err := runKAT(cmd, cfg, metrics, kl, dim, count, entryRange, integerBits)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d problems solved correctly; log in %s\n", numCorrect, count, kl.Path())
			return opts.report(cmd.OutOrStdout(), reg)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", os.TempDir(), "directory for the log")
	cmd.Flags().IntVar(&dim, "dim", 4, "dimension of the systems")
	cmd.Flags().IntVar(&count, "count", 10, "number of systems")
	cmd.Flags().Int64Var(&entryRange, "entry-range", 100, "bound on the entries of the random factors")
	cmd.Flags().IntVar(&integerBits, "integer-bits", 128, "size of the known integer and rational")
	return cmd
}

func runKAT(
	cmd *cobra.Command, cfg config.Config, metrics *cra.Metrics, kl *knownanswertest.KATLog,
	dim, count int, entryRange int64, integerBits int,
) (int, error) {
	// Initializations
	runners := make(map[string]runner)
	for _, strategy := range []string{config.StrategyEarly, config.StrategyFixed} {
		strategyConfig := cfg
		strategyConfig.Strategy = strategy
		r, err := newRunner(strategyConfig, cfg.PrimeBitsFor(dim), metrics)
		if err != nil {
			return 0, err
		}
		runners[strategy] = r
	}
	numCorrect := 0

	for i := 0; i < count; i++ {
		cc, err := knownanswertest.NewCRAContext(dim, entryRange, integerBits)
		if err != nil {
			return numCorrect, err
		}
		a, b, err := cc.System()
		if err != nil {
			return numCorrect, err
		}
		for _, strategy := range []string{config.StrategyEarly, config.StrategyFixed} {
			solution, err := runners[strategy].solve(cmd.Context(), a, b)
			if err != nil {
				return numCorrect, fmt.Errorf("kat: problem %d: %w", i, err)
			}
			cc.RecordSolution(strategy, solution)
			det, stats, err := runners[strategy].det(cmd.Context(), a)
			if err != nil {
				return numCorrect, fmt.Errorf("kat: problem %d: %w", i, err)
			}
			cc.RecordDeterminant(strategy, det, stats)
			if err = runners[strategy].scalars(cmd.Context(), cc); err != nil {
				return numCorrect, fmt.Errorf("kat: problem %d: %w", i, err)
			}
			if err = kl.ReportProgress(cc); err != nil {
				return numCorrect, err
			}
		}
		if err = kl.ReportResults(cc); err != nil {
			return numCorrect, err
		}
		if cc.AllCorrect() {
			numCorrect++
		} else {
			log.Warnf("kat: problem %d has a wrong answer; see %s", i, kl.Path())
		}
	}
	return numCorrect, nil
}

// setup loads the configuration, applies flag overrides and log levels, and
// registers metrics.
func (opts *options) setup(cmd *cobra.Command) (config.Config, *prometheus.Registry, *cra.Metrics, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return config.Config{}, nil, nil, err
		}
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Strategy = opts.strategy
	}
	if cmd.Flags().Changed("prime-bits") {
		cfg.PrimeBits = opts.primeBits
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, nil, err
	}

	level, err := logging.LevelFromString(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("setup: %w", err)
	}
	logging.SetAllLoggers(level)

	reg := prometheus.NewRegistry()
	metrics, err := cra.NewMetrics(reg)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, reg, metrics, nil
}

// report prints the metrics gathered by reg if --stats was given.
func (opts *options) report(w io.Writer, reg *prometheus.Registry) error {
	if !opts.stats {
		return nil
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("report: could not gather metrics: %w", err)
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, label := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", label.GetName(), label.GetValue()))
			}
			value := metric.GetCounter().GetValue()
			if metric.GetGauge() != nil {
				value = metric.GetGauge().GetValue()
			}
			name := family.GetName()
			if len(labels) > 0 {
				name = fmt.Sprintf("%s{%s}", name, strings.Join(labels, ","))
			}
			if _, err = fmt.Fprintf(w, "%s %g\n", name, value); err != nil {
				return fmt.Errorf("report: %w", err)
			}
		}
	}
	return nil
}

func readMatrix(path string) (*linsys.Matrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readMatrix: %w", err)
	}
	defer file.Close()
	return linsys.ReadDense(file)
}

func readVector(path string) ([]*big.Int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readVector: %w", err)
	}
	defer file.Close()
	return linsys.ReadVector(file)
}

func joinBigInt(x []*big.Int) string {
	asStrings := make([]string, len(x))
	for i, xi := range x {
		asStrings[i] = xi.String()
	}
	return strings.Join(asStrings, " ")
}
