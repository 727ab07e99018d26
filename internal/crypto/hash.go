// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crypto provides the hashing and static signature/pubkey
// validation helpers the CHECKSIG-family transfer functions use when their
// operands happen to be statically known, grounded on txscript's opcode.go
// and engine.go.
package crypto

import (
	"crypto/sha1"
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

// Sha256 returns sha256(b).
func Sha256(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

// Sha1 returns sha1(b).
func Sha1(b []byte) []byte {
	h := sha1.Sum(b)
	return h[:]
}

// Ripemd160 returns ripemd160(b).
func Ripemd160(b []byte) []byte {
	h := ripemd160.New()
	h.Write(b)
	return h.Sum(nil)
}

// Hash160 returns ripemd160(sha256(b)), as used by P2PKH/P2SH/P2WPKH.
func Hash160(b []byte) []byte {
	return Ripemd160(Sha256(b))
}

// Hash256 returns sha256(sha256(b)).
func Hash256(b []byte) []byte {
	return Sha256(Sha256(b))
}
