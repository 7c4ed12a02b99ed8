// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// The solver package implements the client side of the TumbleBit
// puzzle-solver cut-and-choose protocol: a Machine obtains the RSA
// decryption of a target puzzle from a tumbler server without revealing
// which of many puzzles is real, and with cryptographic assurance the
// server behaved honestly.
//
// A Machine drives a strict, totally ordered sequence of five states
// (Initialized, WaitingCommitments, WaitingEncryptedFakePuzzleKeys,
// WaitingEncryptedRealPuzzleKeys, Completed); any transition invoked out
// of order or with malformed input returns an *Error without mutating
// the Machine. A verification failure poisons the Machine permanently —
// it is proof of tumbler misbehavior and no further transitions are
// permitted.
//
// The Machine is single-threaded and synchronous: no operation suspends
// internally, there is no internal timeout or retry, and network I/O is
// the caller's concern. It holds no locks; a caller that wants to hand
// the Machine between goroutines between transitions must provide its
// own synchronization.
package solver

import (
	"bytes"
	"io"

	"github.com/decred/tumblebit/commitment"
	"github.com/decred/tumblebit/puzzle"
	"github.com/decred/tumblebit/puzzleset"
)

// State identifies a Machine's position in the cut-and-choose protocol.
type State int

const (
	StateInitialized State = iota
	StateWaitingCommitments
	StateWaitingEncryptedFakePuzzleKeys
	StateWaitingEncryptedRealPuzzleKeys
	StateCompleted
)

var stateNames = [...]string{
	StateInitialized:                   "Initialized",
	StateWaitingCommitments:            "WaitingCommitments",
	StateWaitingEncryptedFakePuzzleKeys: "WaitingEncryptedFakePuzzleKeys",
	StateWaitingEncryptedRealPuzzleKeys: "WaitingEncryptedRealPuzzleKeys",
	StateCompleted:                     "Completed",
}

func (s State) String() string {
	if int(s) < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Commitment is a single puzzle-set position's hiding, binding
// commitment: a hash of the key the tumbler promises to reveal, and the
// solution encrypted under that key.
type Commitment struct {
	KeyHash           commitment.Hash
	EncryptedSolution []byte
}

// PuzzleSolution pairs a puzzle-set index with a plaintext solution. It
// is used for T2's fake-solution reveal: {index, known_solution}.
type PuzzleSolution struct {
	Index    int
	Solution []byte
}

// Machine is the puzzle-solver cut-and-choose state machine. The zero
// value is not usable; construct with NewMachine.
type Machine struct {
	pk     *puzzle.PuzzlePubKey
	target []byte
	params Params
	rng    io.Reader

	state    State
	poisoned bool

	set         puzzleset.Set
	commitments []Commitment
	solution    []byte
}

// NewMachine constructs a Machine for obtaining the RSA decryption of
// target under pk, using rng as the source of randomness for blind
// factors, fake-puzzle solutions, and the puzzle-set shuffle. Passing a
// seeded math/rand.Rand as rng yields bit-identical outputs across runs,
// per the protocol's determinism property; production callers should
// pass crypto/rand.Reader.
func NewMachine(pk *puzzle.PuzzlePubKey, target []byte, params Params, rng io.Reader) *Machine {
	return &Machine{
		pk:     pk,
		target: target,
		params: params,
		rng:    rng,
		state:  StateInitialized,
	}
}

// State returns the Machine's current state.
func (m *Machine) State() State {
	return m.state
}

// ready returns an *Error if the Machine cannot currently perform the
// transition that requires state want, either because a prior fatal
// verification failure poisoned the Machine or because the Machine is in
// a different state.
func (m *Machine) ready(want State) error {
	if m.poisoned {
		return invalidState("machine is poisoned by a prior fatal verification failure")
	}
	if m.state != want {
		return invalidState("expected state %s, got %s", want, m.state)
	}
	return nil
}

// poison permanently disables further transitions and zeroes any
// sensitive material still held by the puzzle set. Called on every
// fatal verification error.
func (m *Machine) poison() {
	m.poisoned = true
	m.set.Zero()
}

// GeneratePuzzles is transition T1 (Initialized -> WaitingCommitments).
// It builds the puzzle set — RealCount blindings of target mixed with
// FakeCount freshly generated fakes, in uniformly random order — and
// returns the ordered sequence of opaque puzzles to hand to the tumbler.
func (m *Machine) GeneratePuzzles() ([][]byte, error) {
	if err := m.ready(StateInitialized); err != nil {
		return nil, err
	}

	set, err := puzzleset.New(m.pk, m.target, m.params.RealCount, m.params.FakeCount, m.rng)
	if err != nil {
		return nil, err
	}

	m.set = set
	m.state = StateWaitingCommitments
	return set.Puzzles(), nil
}

// AcceptCommitments is transition T2
// (WaitingCommitments -> WaitingEncryptedFakePuzzleKeys). It stores the
// tumbler's per-position commitments and returns the client's challenge:
// the known solution for every fake-puzzle position, revealing which
// puzzles are fake without revealing the real ones.
func (m *Machine) AcceptCommitments(commitments []Commitment) ([]PuzzleSolution, error) {
	if err := m.ready(StateWaitingCommitments); err != nil {
		return nil, err
	}
	if len(commitments) != m.params.Total() {
		return nil, invalidArgument("expected %d commitments, got %d",
			m.params.Total(), len(commitments))
	}

	m.commitments = commitments

	fakeIdx := m.set.Indices(puzzleset.Fake)
	reveals := make([]PuzzleSolution, len(fakeIdx))
	for i, idx := range fakeIdx {
		reveals[i] = PuzzleSolution{Index: idx, Solution: m.set[idx].Solution}
	}

	m.state = StateWaitingEncryptedFakePuzzleKeys
	return reveals, nil
}

// AcceptFakeKeys is transition T3
// (WaitingEncryptedFakePuzzleKeys -> WaitingEncryptedRealPuzzleKeys).
// keys must be ordered to match the ascending fake-index order used in
// AcceptCommitments's return value. Every fake position is checked
// strictly: a hash mismatch or a decrypted solution that doesn't match
// the client's known fake solution is protocol-fatal and poisons the
// Machine. On success it returns, for every real index in ascending
// order, the blind factor used to construct that position — revealing
// which puzzles were real without revealing their solutions.
func (m *Machine) AcceptFakeKeys(keys []commitment.Key) ([][]byte, error) {
	if err := m.ready(StateWaitingEncryptedFakePuzzleKeys); err != nil {
		return nil, err
	}

	fakeIdx := m.set.Indices(puzzleset.Fake)
	if len(keys) != len(fakeIdx) {
		return nil, invalidArgument("expected %d fake keys, got %d",
			len(fakeIdx), len(keys))
	}

	for i, idx := range fakeIdx {
		key := keys[i]
		c := m.commitments[idx]

		if commitment.KeyHash(key) != c.KeyHash {
			m.poison()
			return nil, commitmentHashInvalid(idx)
		}

		decrypted, err := commitment.Decrypt(key, c.EncryptedSolution)
		if err != nil || !bytes.Equal(decrypted, m.set[idx].Solution) {
			m.poison()
			return nil, commitmentSolutionInvalid(idx)
		}

		// The fake solution has served its purpose; it's no longer
		// needed for the remainder of the session.
		m.set[idx].Zero()
	}

	realIdx := m.set.Indices(puzzleset.Real)
	factors := make([][]byte, len(realIdx))
	for i, idx := range realIdx {
		factors[i] = m.set[idx].BlindFactor
	}

	m.state = StateWaitingEncryptedRealPuzzleKeys
	return factors, nil
}

// AcceptRealKeys is transition T4
// (WaitingEncryptedRealPuzzleKeys -> Completed). keys must be ordered to
// match the ascending real-index order used in AcceptFakeKeys's return
// value. Scanning real positions in ascending index order, AcceptRealKeys
// skips any position whose revealed key hash doesn't match its
// commitment (a lenient check, accommodating a tumbler that deliberately
// reveals only one valid real key) and stops at the first position whose
// decrypted candidate verifies against its puzzle. If no position yields
// a verifying solution, this is protocol-fatal (SolutionNotFound) and
// poisons the Machine. On success it unblinds the winning candidate and
// returns the RSA preimage of the original target puzzle.
func (m *Machine) AcceptRealKeys(keys []commitment.Key) ([]byte, error) {
	if err := m.ready(StateWaitingEncryptedRealPuzzleKeys); err != nil {
		return nil, err
	}

	realIdx := m.set.Indices(puzzleset.Real)
	if len(keys) != len(realIdx) {
		return nil, invalidArgument("expected %d real keys, got %d",
			len(realIdx), len(keys))
	}

	var solvedAt = -1
	var candidate []byte
	for i, idx := range realIdx {
		key := keys[i]
		c := m.commitments[idx]

		if commitment.KeyHash(key) != c.KeyHash {
			continue
		}
		decrypted, err := commitment.Decrypt(key, c.EncryptedSolution)
		if err != nil {
			continue
		}
		if puzzle.Verify(m.pk, m.set[idx].Puzzle, decrypted) {
			solvedAt = idx
			candidate = decrypted
			break
		}
	}

	if solvedAt < 0 {
		m.poison()
		return nil, solutionNotFound()
	}

	solution, err := puzzle.Unblind(m.pk, candidate, m.set[solvedAt].BlindFactor)
	if err != nil {
		m.poison()
		return nil, solutionNotFound()
	}

	m.solution = solution
	m.state = StateCompleted
	m.set.Zero()

	out := make([]byte, len(solution))
	copy(out, solution)
	return out, nil
}

// Solution returns the decrypted puzzle solution once the Machine has
// reached Completed.
func (m *Machine) Solution() ([]byte, error) {
	if m.state != StateCompleted {
		return nil, invalidState("solution unavailable in state %s", m.state)
	}
	out := make([]byte, len(m.solution))
	copy(out, m.solution)
	return out, nil
}
