// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package commitment_test

import (
	"bytes"
	"testing"

	"github.com/decred/tumblebit/commitment"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := commitment.NewKey()
	if err != nil {
		t.Fatal(err)
	}

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	ciphertext, err := commitment.Encrypt(key, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext equals plaintext")
	}

	recovered, err := commitment.Decrypt(key, ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Fatal("decrypted plaintext didn't round-trip")
	}
}

func TestKeyHashDeterministic(t *testing.T) {
	key, err := commitment.NewKey()
	if err != nil {
		t.Fatal(err)
	}
	h1 := commitment.KeyHash(key)
	h2 := commitment.KeyHash(key)
	if h1 != h2 {
		t.Fatal("KeyHash isn't deterministic")
	}

	other, err := commitment.NewKey()
	if err != nil {
		t.Fatal(err)
	}
	if commitment.KeyHash(other) == h1 {
		t.Fatal("two distinct keys hashed to the same value")
	}
}

func TestParseKeyRejectsBadLength(t *testing.T) {
	if _, err := commitment.ParseKey(make([]byte, commitment.KeySize-1)); err == nil {
		t.Fatal("ParseKey accepted a short key")
	}
}

func TestParseHashRejectsBadLength(t *testing.T) {
	if _, err := commitment.ParseHash(make([]byte, commitment.HashSize+1)); err == nil {
		t.Fatal("ParseHash accepted an over-long hash")
	}
}
