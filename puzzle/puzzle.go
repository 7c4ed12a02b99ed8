// Copyright 2009 The Go Authors. All rights reserved.
// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// The puzzle package implements the blind-RSA primitives the puzzle-solver
// protocol is built on: generating a puzzle with a known solution,
// blinding a puzzle under a random factor, unblinding a recovered
// solution, and verifying a candidate solution against a puzzle.
package puzzle

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"io"
	"math/big"
)

var bigZero = big.NewInt(0)
var bigOne = big.NewInt(1)

// Encode canonically encodes x as an unsigned big-endian integer padded to
// pk's group width. It returns an error if x doesn't fit.
func Encode(pk *PuzzlePubKey, x *big.Int) ([]byte, error) {
	width := pk.Width()
	b := x.Bytes()
	if len(b) > width {
		return nil, errors.New("puzzle: value too large for group width")
	}
	out := make([]byte, width)
	copy(out[width-len(b):], b)
	return out, nil
}

// Decode parses a canonical fixed-width big-endian encoding produced by
// Encode, rejecting any input whose length doesn't match pk's group width
// exactly.
func Decode(pk *PuzzlePubKey, b []byte) (*big.Int, error) {
	if len(b) != pk.Width() {
		return nil, errors.New("puzzle: non-canonical encoding length")
	}
	return new(big.Int).SetBytes(b), nil
}

// GeneratePuzzle picks a uniformly random element s in Z_n*, computes the
// puzzle z = s^e mod n, and returns the canonically encoded puzzle and
// solution. The randomness is drawn entirely from rng, so a seeded rng
// makes the result reproducible.
func GeneratePuzzle(pk *PuzzlePubKey, rng io.Reader) (puzzleBytes, solutionBytes []byte, err error) {
	var s *big.Int
	for {
		s, err = rand.Int(rng, pk.N)
		if err != nil {
			return nil, nil, err
		}
		if s.Cmp(bigZero) != 0 {
			break
		}
	}
	z := rsaExp(pk, s)
	puzzleBytes, err = Encode(pk, z)
	if err != nil {
		return nil, nil, err
	}
	solutionBytes, err = Encode(pk, s)
	if err != nil {
		return nil, nil, err
	}
	return puzzleBytes, solutionBytes, nil
}

// newBlindingFactor allocates and returns a non-zero random element of
// Z_n* and its multiplicative inverse, drawing randomness from rng.
func newBlindingFactor(pk *PuzzlePubKey, rng io.Reader) (r, ir *big.Int, err error) {
	for {
		r, err = rand.Int(rng, pk.N)
		if err != nil {
			return nil, nil, err
		}
		if r.Cmp(bigZero) == 0 {
			continue
		}
		var ok bool
		ir, ok = modInverse(r, pk.N)
		if ok {
			return r, ir, nil
		}
	}
}

// Blind picks a random blinding factor r in Z_n* and returns the blinded
// puzzle p * r^e mod n along with the factor r, canonically encoded. r
// must be retained by the caller (as part of a PuzzleSetElement) in order
// to later Unblind a recovered solution. The blinding factor is drawn
// entirely from rng, so a seeded rng makes the result reproducible.
func Blind(pk *PuzzlePubKey, puzzleBytes []byte, rng io.Reader) (blinded, blindFactor []byte, err error) {
	p, err := Decode(pk, puzzleBytes)
	if err != nil {
		return nil, nil, err
	}
	r, _, err := newBlindingFactor(pk, rng)
	if err != nil {
		return nil, nil, err
	}
	z := new(big.Int).Mul(p, rsaExp(pk, r))
	z.Mod(z, pk.N)
	blinded, err = Encode(pk, z)
	if err != nil {
		return nil, nil, err
	}
	blindFactor, err = Encode(pk, r)
	if err != nil {
		return nil, nil, err
	}
	return blinded, blindFactor, nil
}

// Unblind removes a blinding factor obtained from Blind, recovering the
// solution to the original (unblinded) puzzle.
func Unblind(pk *PuzzlePubKey, blindedSolution, blindFactor []byte) ([]byte, error) {
	m, err := Decode(pk, blindedSolution)
	if err != nil {
		return nil, err
	}
	r, err := Decode(pk, blindFactor)
	if err != nil {
		return nil, err
	}
	ir, ok := modInverse(r, pk.N)
	if !ok {
		return nil, errors.New("puzzle: blind factor not invertible")
	}
	s := new(big.Int).Mul(m, ir)
	s.Mod(s, pk.N)
	return Encode(pk, s)
}

// Verify reports whether candidate is the RSA preimage of puzzleBytes
// under pk, i.e. candidate^e mod n == puzzle.
func Verify(pk *PuzzlePubKey, puzzleBytes, candidate []byte) bool {
	_, err := Decode(pk, puzzleBytes)
	if err != nil {
		return false
	}
	c, err := Decode(pk, candidate)
	if err != nil {
		return false
	}
	check, err := Encode(pk, rsaExp(pk, c))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(check, puzzleBytes) == 1
}

// rsaExp computes x^e mod n.
func rsaExp(pk *PuzzlePubKey, x *big.Int) *big.Int {
	bigE := big.NewInt(int64(pk.E))
	return new(big.Int).Exp(x, bigE, pk.N)
}

// modInverse returns the inverse of a in the multiplicative group of
// order n. It requires that a be a member of the group (i.e. less than n).
func modInverse(a, n *big.Int) (*big.Int, bool) {
	g := new(big.Int)
	x := new(big.Int)
	y := new(big.Int)
	g.GCD(x, y, a, n)
	if g.Cmp(bigOne) != 0 {
		// a and n aren't coprime; this happens because n is the product
		// of two primes rather than truly prime.
		return nil, false
	}
	if x.Cmp(bigOne) < 0 {
		x.Add(x, n)
	}
	return x, true
}
