package cra

// Copyright (c) 2025 Colin McRae

import "math"

// EarlyTerminationFailureBound bounds the probability that an early-terminated
// builder returns a wrong value when its primes are drawn uniformly from the
// primeBits-bit primes.
//
// heightBits must bound log2|v - w| for the true value v and any wrong image w
// the run can produce; log2|v| plus the bit length of the final modulus is
// enough. A wrong image survives the threshold-1 updates that follow its first
// appearance only if each new prime divides v - w. There are at most
// heightBits/(primeBits-1) such primes among roughly 2^(primeBits-1) /
// (primeBits ln 2) candidates.
func EarlyTerminationFailureBound(threshold, primeBits, heightBits int) float64 {
	if (threshold < 1) || (primeBits < 3) || (heightBits < 1) {
		return 1
	}
	pool := math.Exp2(float64(primeBits-1)) / (float64(primeBits) * math.Ln2)
	perPrime := float64(heightBits) / float64(primeBits-1) / pool
	if perPrime >= 1 {
		return 1
	}
	return math.Pow(perPrime, float64(threshold-1))
}
