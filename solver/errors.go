// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package solver

import "fmt"

// Kind classifies a solver Error without requiring callers to match on
// its message text.
type Kind int

const (
	// KindInvalidArgument indicates a missing input or an array of the
	// wrong length. A programmer error.
	KindInvalidArgument Kind = iota
	// KindInvalidState indicates a transition invoked in a state other
	// than its prerequisite. A programmer error.
	KindInvalidState
	// KindCommitmentHashInvalid indicates a revealed fake-phase key's
	// hash doesn't match its prior commitment. Protocol-fatal.
	KindCommitmentHashInvalid
	// KindCommitmentSolutionInvalid indicates a fake-phase commitment
	// decrypted to something other than the client's known solution.
	// Protocol-fatal.
	KindCommitmentSolutionInvalid
	// KindSolutionNotFound indicates the real-key phase exhausted every
	// candidate without any verifying solution. Protocol-fatal.
	KindSolutionNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindInvalidState:
		return "invalid state"
	case KindCommitmentHashInvalid:
		return "commitment hash invalid"
	case KindCommitmentSolutionInvalid:
		return "commitment solution invalid"
	case KindSolutionNotFound:
		return "solution not found"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by every Machine method for argument,
// state and verification failures; GeneratePuzzles returns errors from
// puzzle-set construction (such as non-positive counts or an rng read
// failure) unchanged rather than as an *Error. Verification
// errors (CommitmentHashInvalid, CommitmentSolutionInvalid,
// SolutionNotFound) are protocol-fatal: they are proof of tumbler
// misbehavior and poison the Machine. InvalidArgument and InvalidState
// are programmer errors.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is reports whether target is a sentinel *Error of the same Kind,
// allowing callers to write errors.Is(err, solver.ErrSolutionNotFound)
// regardless of the message attached to err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for errors.Is comparisons.
var (
	ErrInvalidArgument           = &Error{Kind: KindInvalidArgument}
	ErrInvalidState              = &Error{Kind: KindInvalidState}
	ErrCommitmentHashInvalid     = &Error{Kind: KindCommitmentHashInvalid}
	ErrCommitmentSolutionInvalid = &Error{Kind: KindCommitmentSolutionInvalid}
	ErrSolutionNotFound          = &Error{Kind: KindSolutionNotFound}
)

func invalidArgument(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidState, Msg: fmt.Sprintf(format, args...)}
}

func commitmentHashInvalid(index int) error {
	return &Error{Kind: KindCommitmentHashInvalid,
		Msg: fmt.Sprintf("key hash mismatch at fake position %d", index)}
}

func commitmentSolutionInvalid(index int) error {
	return &Error{Kind: KindCommitmentSolutionInvalid,
		Msg: fmt.Sprintf("decrypted solution mismatch at fake position %d", index)}
}

func solutionNotFound() error {
	return &Error{Kind: KindSolutionNotFound,
		Msg: "no real position yielded a verifying solution"}
}
