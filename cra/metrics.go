package cra

// Copyright (c) 2025 Colin McRae

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons recorded by cra_primes_skipped_total
const (
	skipNoncoprime = "noncoprime"
	skipBadPrime   = "bad_prime"
	skipSurplus    = "surplus"
)

// Metrics counts the primes consumed by reconstruction runs. A nil *Metrics
// records nothing.
type Metrics struct {
	primesUsed    prometheus.Counter
	primesSkipped *prometheus.CounterVec
	runs          *prometheus.CounterVec
	modulusBits   prometheus.Gauge
}

// NewMetrics creates the reconstruction metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	retVal := &Metrics{
		primesUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cra",
			Name:      "primes_used_total",
			Help:      "Primes whose residues were folded into a builder",
		}),
		primesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cra",
			Name:      "primes_skipped_total",
			Help:      "Primes drawn but not folded into a builder",
		}, []string{"reason"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cra",
			Name:      "runs_total",
			Help:      "Completed reconstruction runs",
		}, []string{"builder"}),
		modulusBits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cra",
			Name:      "modulus_bits",
			Help:      "Bit length of the accumulated modulus at the end of the last run",
		}),
	}
	for _, c := range []prometheus.Collector{
		retVal.primesUsed, retVal.primesSkipped, retVal.runs, retVal.modulusBits,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("NewMetrics: could not register collector: %w", err)
		}
	}
	return retVal, nil
}

func (m *Metrics) usedPrime() {
	if m == nil {
		return
	}
	m.primesUsed.Inc()
}

func (m *Metrics) skippedPrime(reason string) {
	if m == nil {
		return
	}
	m.primesSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) finishedRun(builder string, modulusBits int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(builder).Inc()
	m.modulusBits.Set(float64(modulusBits))
}
