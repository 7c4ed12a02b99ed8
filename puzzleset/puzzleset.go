// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// The puzzleset package implements the typed collection of real and fake
// puzzles a puzzle-solver session mixes together and hands to the
// tumbler server. Real puzzles are blindings of the client's true target;
// fake puzzles are freshly generated puzzles whose solutions the client
// already knows. After construction the set is shuffled once and its
// indices become the protocol's sole means of referring to elements.
package puzzleset

import (
	"errors"
	"io"
	"runtime"

	"github.com/decred/tumblebit/puzzle"
	"github.com/decred/tumblebit/shuffle"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/sync/errgroup"
)

// Kind tags a puzzle-set element as a blinding of the real target or a
// freshly fabricated fake.
type Kind int

const (
	Real Kind = iota
	Fake
)

func (k Kind) String() string {
	if k == Real {
		return "real"
	}
	return "fake"
}

// Element is a single tagged member of a Set. For Real elements,
// BlindFactor is the secret randomness used to blind the target puzzle;
// for Fake elements, Solution is the plaintext the client chose when
// fabricating the puzzle. PreShuffleIndex is the element's position
// before the final shuffle (0..realCount-1 were reals, realCount..total-1
// were fakes); New uses it to confirm the shuffle only reorders elements
// and never alters which position is real or fake.
type Element struct {
	Kind            Kind
	Puzzle          []byte
	BlindFactor     []byte
	Solution        []byte
	PreShuffleIndex int
}

// Zero overwrites an element's sensitive fields. Safe to call more than
// once.
func (e *Element) Zero() {
	zero(e.BlindFactor)
	zero(e.Solution)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Set is an ordered, index-stable collection of real and fake puzzles.
type Set []Element

// elementRNG expands a 32-byte seed into an unbounded deterministic
// keystream via ChaCha20. New gives each parallel per-element worker its
// own reader derived, in index order, from a single session rng: the
// seeds are drawn sequentially from rng before any worker starts, so the
// result is reproducible even though the expensive modular exponentiation
// afterward runs concurrently and would otherwise race on a shared rng.
type elementRNG struct {
	stream *chacha20.Cipher
}

func newElementRNG(seed [32]byte) (*elementRNG, error) {
	stream, err := chacha20.NewUnauthenticatedCipher(seed[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		return nil, err
	}
	return &elementRNG{stream: stream}, nil
}

func (r *elementRNG) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	r.stream.XORKeyStream(p, p)
	return len(p), nil
}

// New builds a Set of realCount blindings of target and fakeCount freshly
// generated fakes, then shuffles the combined slice uniformly at random
// using rng. The per-element RSA operations are parallelized across
// GOMAXPROCS workers since each is an independent modular exponentiation
// over a large modulus; the shuffle itself runs single-threaded after all
// elements are ready.
//
// Every byte of randomness this function consumes is ultimately drawn
// from rng: the per-element seeds sequentially, in index order, before any
// parallel work begins, and the shuffle's randomness afterward, once all
// workers have finished. A seeded rng therefore yields bit-identical
// puzzle sets across runs regardless of how the workers happen to be
// scheduled.
func New(pk *puzzle.PuzzlePubKey, target []byte, realCount, fakeCount int, rng io.Reader) (Set, error) {
	if realCount <= 0 || fakeCount <= 0 {
		return nil, errors.New("puzzleset: real and fake counts must be positive")
	}

	total := realCount + fakeCount
	set := make(Set, total)

	seeds := make([][32]byte, total)
	for i := range seeds {
		if _, err := io.ReadFull(rng, seeds[i][:]); err != nil {
			return nil, err
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < total; i++ {
		i := i
		g.Go(func() error {
			elemRNG, err := newElementRNG(seeds[i])
			if err != nil {
				return err
			}
			if i < realCount {
				blinded, factor, err := puzzle.Blind(pk, target, elemRNG)
				if err != nil {
					return err
				}
				set[i] = Element{
					Kind:            Real,
					Puzzle:          blinded,
					BlindFactor:     factor,
					PreShuffleIndex: i,
				}
				return nil
			}
			fakePuzzle, solution, err := puzzle.GeneratePuzzle(pk, elemRNG)
			if err != nil {
				return err
			}
			set[i] = Element{
				Kind:            Fake,
				Puzzle:          fakePuzzle,
				Solution:        solution,
				PreShuffleIndex: i,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sm := shuffle.Shuffle(rng, total, func(i, j int) {
		set[i], set[j] = set[j], set[i]
	})
	for postIdx, e := range set {
		if sm.Get(e.PreShuffleIndex) != postIdx {
			return nil, errors.New("puzzleset: shuffle invariant violated")
		}
	}

	return set, nil
}

// Puzzles returns the ordered sequence of opaque puzzle values, suitable
// for handing to the tumbler server: the blinded reals and the fakes,
// indistinguishable in order.
func (s Set) Puzzles() [][]byte {
	out := make([][]byte, len(s))
	for i, e := range s {
		out[i] = e.Puzzle
	}
	return out
}

// Indices returns, in ascending order, the indices of every element
// matching kind.
func (s Set) Indices(kind Kind) []int {
	var out []int
	for i, e := range s {
		if e.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

// Zero overwrites every element's sensitive fields.
func (s Set) Zero() {
	for i := range s {
		s[i].Zero()
	}
}
