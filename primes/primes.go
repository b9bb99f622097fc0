// Package primes supplies the sequences of prime moduli consumed by
// multi-modular reconstruction.
package primes

// Copyright (c) 2025 Colin McRae

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/rand"

	logging "github.com/ipfs/go-log/v2"
)

const (
	// millerRabinRounds is passed to big.Int.ProbablyPrime. Together with the
	// Baillie-PSW test ProbablyPrime always runs, no composite below 2^64 passes.
	millerRabinRounds = 20

	// maxAttemptsPerBit bounds how long a Random source searches for a prime it
	// has not yet returned before reporting ErrExhausted.
	maxAttemptsPerBit = 1000

	// minDefaultBits keeps DefaultBits from suggesting tiny primes for huge matrices.
	minDefaultBits = 10
)

var log = logging.Logger("primes")

// ErrExhausted is returned by a Source that cannot produce another prime.
var ErrExhausted = errors.New("primes: source exhausted")

// Source yields primes. A Source never yields the same prime twice.
type Source interface {
	Next() (*big.Int, error)
}

// Random yields uniformly random primes with an exact bit length.
type Random struct {
	bits int
	rng  *rand.Rand
	seen map[string]struct{}
}

// NewRandom returns a Random source of bits-bit primes. bits must be at least 3.
func NewRandom(bits int, rng *rand.Rand) (*Random, error) {
	if bits < 3 {
		return nil, fmt.Errorf("NewRandom: bit length %d is less than 3", bits)
	}
	return &Random{
		bits: bits,
		rng:  rng,
		seen: make(map[string]struct{}),
	}, nil
}

// Next returns a prime in [2^(bits-1), 2^bits) that this source has not returned before.
func (r *Random) Next() (*big.Int, error) {
	lowest := big.NewInt(0).Lsh(big.NewInt(1), uint(r.bits-1))
	for attempt := 0; attempt < maxAttemptsPerBit*r.bits; attempt++ {
		candidate := big.NewInt(0).Rand(r.rng, lowest)
		candidate.Add(candidate, lowest)
		candidate.SetBit(candidate, 0, 1)
		if !candidate.ProbablyPrime(millerRabinRounds) {
			continue
		}
		key := candidate.String()
		if _, ok := r.seen[key]; ok {
			continue
		}
		r.seen[key] = struct{}{}
		return candidate, nil
	}
	log.Warnf("no unused %d-bit prime found after %d attempts", r.bits, maxAttemptsPerBit*r.bits)
	return nil, fmt.Errorf("Random.Next: %d-bit primes: %w", r.bits, ErrExhausted)
}

// Sequential yields the primes above a starting point in increasing order.
type Sequential struct {
	current *big.Int
}

// NewSequential returns a Sequential source whose first prime is the least
// prime greater than start.
func NewSequential(start *big.Int) *Sequential {
	return &Sequential{current: big.NewInt(0).Set(start)}
}

func (s *Sequential) Next() (*big.Int, error) {
	if s.current.Cmp(big.NewInt(2)) < 0 {
		s.current.SetInt64(2)
		return big.NewInt(2), nil
	}
	one := big.NewInt(1)
	for {
		s.current.Add(s.current, one)
		if s.current.ProbablyPrime(millerRabinRounds) {
			return big.NewInt(0).Set(s.current), nil
		}
	}
}

// Fixed yields a predetermined list of primes, in order, then ErrExhausted.
type Fixed struct {
	list []*big.Int
	next int
}

// NewFixed returns a Fixed source over a copy of list.
func NewFixed(list []*big.Int) *Fixed {
	retVal := &Fixed{list: make([]*big.Int, len(list))}
	for i := 0; i < len(list); i++ {
		retVal.list[i] = big.NewInt(0).Set(list[i])
	}
	return retVal
}

func (f *Fixed) Next() (*big.Int, error) {
	if f.next >= len(f.list) {
		return nil, fmt.Errorf("Fixed.Next: all %d primes used: %w", len(f.list), ErrExhausted)
	}
	f.next++
	return big.NewInt(0).Set(f.list[f.next-1]), nil
}

// Remaining reports how many primes Next can still return.
func (f *Fixed) Remaining() int {
	return len(f.list) - f.next
}

// DefaultBits returns the prime size used for an n x n problem: 26 - ceil(log2(n)/2),
// so that the dot products of elimination over a balanced floating point field
// stay exact. It never returns less than 10.
func DefaultBits(n int) int {
	if n < 1 {
		n = 1
	}
	retVal := 26 - int(math.Ceil(math.Log(float64(n))*0.7213475205))
	if retVal < minDefaultBits {
		return minDefaultBits
	}
	return retVal
}

// Covering draws distinct primes from src until their product exceeds 2^bits,
// and returns them in the order drawn.
func Covering(src Source, bits int, caller string) ([]*big.Int, error) {
	caller = fmt.Sprintf("%s-Covering", caller)
	target := big.NewInt(0).Lsh(big.NewInt(1), uint(bits))
	product := big.NewInt(1)
	var retVal []*big.Int
	for product.Cmp(target) <= 0 {
		p, err := src.Next()
		if err != nil {
			return nil, fmt.Errorf(
				"%s: could not draw prime %d of a %d-bit covering: %w", caller, len(retVal)+1, bits, err,
			)
		}
		if big.NewInt(0).GCD(nil, nil, product, p).Cmp(big.NewInt(1)) != 0 {
			continue
		}
		product.Mul(product, p)
		retVal = append(retVal, p)
	}
	log.Debugf("%s: %d primes cover %d bits", caller, len(retVal), bits)
	return retVal, nil
}
