// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"

	"github.com/decred/tumblebit/internal/loopbacktumbler"
	"github.com/decred/tumblebit/puzzle"
	"github.com/decred/tumblebit/solver"
	"github.com/google/uuid"
)

// version is the demo's fixed version string. A real release process would
// stamp this at build time; the puzzle-solver core has no concept of
// versioning of its own.
func version() string {
	return "0.1.0"
}

func main() {
	cfg, _, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	log.Infof("Version %s", version())

	ctx, cancel := context.WithCancel(context.Background())
	go shutdownListener(cancel)

	if err := runDemo(ctx, cfg); err != nil && err != context.Canceled {
		log.Errorf("Demo session failed: %v", err)
		os.Exit(1)
	}
}

// shutdownListener cancels ctx when an interrupt signal is received.
func shutdownListener(cancel context.CancelFunc) {
	interruptChannel := make(chan os.Signal, 1)
	signal.Notify(interruptChannel, os.Interrupt)
	<-interruptChannel
	log.Warn("Received interrupt signal, shutting down...")
	cancel()
}

// runDemo drives a single puzzle-solver session to completion against an
// in-process loopback tumbler, exercising every transition of
// solver.Machine and logging the protocol's progress. It stands in for the
// out-of-scope collaborators (HTTP transport, the Promise sub-protocol,
// wallet/node-RPC plumbing) that a production Tumbler client would use
// instead.
func runDemo(ctx context.Context, cfg *config) error {
	sessionID := uuid.New()
	log.Infof("Starting puzzle-solver session %s", sessionID)

	tb, pk, err := loopbacktumbler.New(cfg.RSAKeyBits)
	if err != nil {
		return fmt.Errorf("unable to set up loopback tumbler: %v", err)
	}

	// A production client's target puzzle comes from the out-of-scope
	// Promise sub-protocol; the demo stands in for it with a freshly
	// generated puzzle of its own.
	target, _, err := puzzle.GeneratePuzzle(pk, rand.Reader)
	if err != nil {
		return fmt.Errorf("unable to generate demo target puzzle: %v", err)
	}

	params := solver.Params{RealCount: cfg.RealCount, FakeCount: cfg.FakeCount}
	machine := solver.NewMachine(pk, target, params, rand.Reader)

	if ctxDone(ctx) {
		return ctx.Err()
	}

	// T1: client generates the puzzle set.
	puzzles, err := machine.GeneratePuzzles()
	if err != nil {
		return fmt.Errorf("GeneratePuzzles: %v", err)
	}
	log.Debugf("session %s: generated %d puzzles", sessionID, len(puzzles))

	// Server: commit to a key and an encrypted solution for every position.
	serverCommitments, err := tb.Commit(puzzles)
	if err != nil {
		return fmt.Errorf("tumbler commit: %v", err)
	}

	commitments := make([]solver.Commitment, len(serverCommitments))
	copy(commitments, serverCommitments)

	// T2: client reveals the known solutions for the fake positions.
	reveals, err := machine.AcceptCommitments(commitments)
	if err != nil {
		return fmt.Errorf("AcceptCommitments: %v", err)
	}
	log.Debugf("session %s: challenged %d fake positions", sessionID, len(reveals))

	fakeIndices := make([]int, len(reveals))
	for i, r := range reveals {
		fakeIndices[i] = r.Index
	}

	// Server: learn the real/fake split from the challenge and reveal the
	// fake-position keys.
	fakeKeys := tb.RevealFakeKeys(fakeIndices)

	// T3: client verifies the fake positions and learns the blind factors
	// of the real positions (sent onward to the server in a real
	// deployment so it can process its side of the escrow; unused by this
	// loopback demo beyond the verification T3 itself performs).
	blindFactors, err := machine.AcceptFakeKeys(fakeKeys)
	if err != nil {
		return fmt.Errorf("AcceptFakeKeys: %v", err)
	}
	log.Debugf("session %s: verified fake positions, %d real positions remain",
		sessionID, len(blindFactors))

	// Server: reveal the real-position keys.
	realKeys := tb.RevealRealKeys()

	// T4: client recovers the unblinded solution to the original target.
	solution, err := machine.AcceptRealKeys(realKeys)
	if err != nil {
		return fmt.Errorf("AcceptRealKeys: %v", err)
	}

	log.Infof("session %s: completed, recovered %d-byte solution", sessionID, len(solution))
	return nil
}

// ctxDone returns whether ctx has been cancelled.
func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
