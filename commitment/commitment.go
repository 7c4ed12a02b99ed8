// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// The commitment package implements the symmetric key-commitment
// primitives the puzzle-solver protocol uses to bind a not-yet-revealed
// decryption key to a puzzle solution: a ChaCha20 stream cipher for
// encrypting the solution and a RIPEMD-160 hash of the raw key for
// binding.
package commitment

import (
	"crypto/rand"
	"errors"

	"github.com/decred/dcrd/crypto/ripemd160"
	"golang.org/x/crypto/chacha20"
)

// KeySize is the length, in bytes, of a commitment key.
const KeySize = chacha20.KeySize

// HashSize is the length, in bytes, of a key hash.
const HashSize = ripemd160.Size

// Key is a symmetric key the tumbler server promises to reveal for a
// given puzzle-set position. It is single-use: each key encrypts exactly
// one plaintext over the life of the protocol, which is what makes the
// fixed nonce below safe.
type Key [KeySize]byte

// Hash is a RIPEMD-160 commitment to a Key, published before the key
// itself is revealed.
type Hash [HashSize]byte

// fixedNonce is the pinned ChaCha20 nonce convention: an all-zero 12-byte
// nonce for every key. This is safe only because a Key is never reused to
// encrypt more than one plaintext (see Key's doc comment); reusing a
// fixedNonce key for two different plaintexts would leak their XOR.
var fixedNonce = make([]byte, chacha20.NonceSize)

// NewKey generates a fresh, uniformly random commitment key.
func NewKey() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return Key{}, err
	}
	return k, nil
}

// KeyHash returns the RIPEMD-160 commitment to key.
func KeyHash(key Key) Hash {
	h := ripemd160.New()
	h.Write(key[:])
	var sum Hash
	copy(sum[:], h.Sum(nil))
	return sum
}

// Encrypt and Decrypt are the same ChaCha20 keystream XOR operation;
// encryption and decryption are inverses of one another.
func crypt(key Key, data []byte) ([]byte, error) {
	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], fixedNonce)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.XORKeyStream(out, data)
	return out, nil
}

// Encrypt encrypts plaintext under key, producing the encrypted_solution
// half of a PuzzleCommitment.
func Encrypt(key Key, plaintext []byte) ([]byte, error) {
	return crypt(key, plaintext)
}

// Decrypt recovers the plaintext a PuzzleCommitment's encrypted_solution
// was constructed from once key is revealed.
func Decrypt(key Key, ciphertext []byte) ([]byte, error) {
	return crypt(key, ciphertext)
}

// ParseHash parses a wire-format 20-byte key hash, rejecting any other
// length as a wire-layer error.
func ParseHash(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, errors.New("commitment: bad key hash length")
	}
	copy(h[:], b)
	return h, nil
}

// ParseKey parses a wire-format 32-byte commitment key, rejecting any
// other length as a wire-layer error.
func ParseKey(b []byte) (Key, error) {
	var k Key
	if len(b) != KeySize {
		return k, errors.New("commitment: bad key length")
	}
	copy(k[:], b)
	return k, nil
}

// Zero overwrites key with zero bytes. Callers should call this once a
// key is no longer needed for the lifetime of a session.
func (k *Key) Zero() {
	for i := range k {
		k[i] = 0
	}
}
