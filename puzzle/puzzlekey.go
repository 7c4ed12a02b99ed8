// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package puzzle

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
)

// PuzzlePubKey is the Tumbler's RSA public key (N, e), obtained by the
// client out of band from the tumbler server's transport collaborator.
// The client never holds the corresponding private key.
type PuzzlePubKey rsa.PublicKey

// Width returns the canonical big-endian encoding width, in bytes, of any
// group element under this public key: ceil(bitlen(N)/8).
func (pk *PuzzlePubKey) Width() int {
	return (pk.N.BitLen() + 7) / 8
}

// MarshalPubKey encodes pk using the standard PKIX encoding.
func MarshalPubKey(pk *PuzzlePubKey) ([]byte, error) {
	return x509.MarshalPKIXPublicKey((*rsa.PublicKey)(pk))
}

// ParsePubKey decodes a PKIX-encoded RSA public key as handed over by the
// tumbler's transport collaborator.
func ParsePubKey(pub []byte) (*PuzzlePubKey, error) {
	pubKey, err := x509.ParsePKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	switch pubKey := pubKey.(type) {
	case *rsa.PublicKey:
		pk := PuzzlePubKey(*pubKey)
		return &pk, nil
	default:
		return nil, errors.New("puzzle: unknown public key type")
	}
}
