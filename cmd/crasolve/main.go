// Command crasolve solves integer linear systems and computes determinants
// exactly, by Chinese remaindering over many primes.
package main

// Copyright (c) 2025 Colin McRae

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("crasolve")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Errorf("crasolve: %v", err)
		os.Exit(1)
	}
}
