// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package solver

// Params fixes the two puzzle counts for a session: RealCount blindings
// of the client's true target, and FakeCount freshly generated puzzles
// used to audit the tumbler's honesty. Both values must be identical to
// the server's; a mismatch is detected implicitly by the length checks
// in AcceptCommitments/AcceptFakeKeys/AcceptRealKeys.
type Params struct {
	RealCount int
	FakeCount int
}

// DefaultParams returns the production parameters: 15 real puzzles mixed
// with 285 fakes, giving the client 285 independent chances to catch a
// dishonest tumbler (roughly as many bits of cut-and-choose security as
// the ratio allows).
func DefaultParams() Params {
	return Params{RealCount: 15, FakeCount: 285}
}

// Total returns RealCount + FakeCount.
func (p Params) Total() int {
	return p.RealCount + p.FakeCount
}
