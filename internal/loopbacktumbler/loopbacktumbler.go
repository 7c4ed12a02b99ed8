// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package loopbacktumbler implements an honest, in-process tumbler server
// test double for the puzzle-solver cut-and-choose exchange. It exists
// only to drive solver.Machine end to end without a real network
// transport: the CLI demo in cmd/dcrtumble uses it to show a complete
// session, and solver's own tests use it to exercise the five-message
// exchange against a server that always behaves correctly.
//
// Tumbler is not part of the puzzle-solver protocol's core and is never
// imported by the solver, puzzle, puzzleset, or commitment packages.
package loopbacktumbler

import (
	"crypto/rand"
	"crypto/rsa"
	"math/big"

	"github.com/decred/tumblebit/commitment"
	"github.com/decred/tumblebit/puzzle"
	"github.com/decred/tumblebit/solver"
)

// Tumbler holds the RSA private key needed to decrypt any puzzle handed
// to it, and the per-position commitment keys generated for the session
// currently in progress.
type Tumbler struct {
	priv *rsa.PrivateKey
	pk   *puzzle.PuzzlePubKey

	keys        []commitment.Key
	commitments []solver.Commitment
	realIndices []int
}

// New generates a fresh RSA key pair of the given bit size and returns a
// Tumbler ready to service one puzzle-solver session, along with the
// public key a client Machine needs to construct its puzzles.
func New(bits int) (*Tumbler, *puzzle.PuzzlePubKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, err
	}
	tb, err := NewFromKey(priv)
	if err != nil {
		return nil, nil, err
	}
	return tb, tb.pk, nil
}

// NewFromKey returns a Tumbler bound to a caller-supplied RSA private key,
// for tests that need to cross-check a session's recovered solution
// against a known key pair.
func NewFromKey(priv *rsa.PrivateKey) (*Tumbler, error) {
	pk := puzzle.PuzzlePubKey(priv.PublicKey)
	return &Tumbler{priv: priv, pk: &pk}, nil
}

// Commit is the server side of T2: for every puzzle the client
// generated, it decrypts the RSA preimage with its private key (the
// true solution regardless of whether the position is real or fake),
// generates a fresh commitment key, encrypts the solution under that
// key, and commits to the key's hash. The per-position keys are
// retained so later calls to RevealFakeKeys and RevealRealKeys can
// produce them on request.
func (s *Tumbler) Commit(puzzles [][]byte) ([]solver.Commitment, error) {
	s.keys = make([]commitment.Key, len(puzzles))
	s.commitments = make([]solver.Commitment, len(puzzles))

	for i, p := range puzzles {
		z, err := puzzle.Decode(s.pk, p)
		if err != nil {
			return nil, err
		}
		solution := decryptRSA(s.priv, z)
		solutionBytes, err := puzzle.Encode(s.pk, solution)
		if err != nil {
			return nil, err
		}

		key, err := commitment.NewKey()
		if err != nil {
			return nil, err
		}
		encrypted, err := commitment.Encrypt(key, solutionBytes)
		if err != nil {
			return nil, err
		}

		s.keys[i] = key
		s.commitments[i] = solver.Commitment{
			KeyHash:           commitment.KeyHash(key),
			EncryptedSolution: encrypted,
		}
	}
	return s.commitments, nil
}

// RevealFakeKeys is the server side of T2->T3: given the fake-position
// indices the client challenged (in ascending order, from its T2
// reveal), it returns the matching commitment keys and records the
// complementary set of indices as real, for a later RevealRealKeys call.
// An honest tumbler has no way to distinguish real from fake puzzles on
// its own; it learns the split entirely from the client's challenge.
func (s *Tumbler) RevealFakeKeys(fakeIndices []int) []commitment.Key {
	isFake := make(map[int]bool, len(fakeIndices))
	for _, idx := range fakeIndices {
		isFake[idx] = true
	}

	s.realIndices = s.realIndices[:0]
	for i := range s.keys {
		if !isFake[i] {
			s.realIndices = append(s.realIndices, i)
		}
	}

	out := make([]commitment.Key, len(fakeIndices))
	for i, idx := range fakeIndices {
		out[i] = s.keys[idx]
	}
	return out
}

// RevealRealKeys is the server side of T3->T4: it returns the commitment
// keys for the real positions derived by RevealFakeKeys, in ascending
// index order.
func (s *Tumbler) RevealRealKeys() []commitment.Key {
	out := make([]commitment.Key, len(s.realIndices))
	for i, idx := range s.realIndices {
		out[i] = s.keys[idx]
	}
	return out
}

// decryptRSA computes z^d mod n with the tumbler's private key. This
// mirrors what a real tumbler does when asked to solve a client's
// puzzle; it has nothing to do with blinding, which is entirely a
// client-side operation the tumbler never sees.
func decryptRSA(priv *rsa.PrivateKey, z *big.Int) *big.Int {
	return new(big.Int).Exp(z, priv.D, priv.N)
}
