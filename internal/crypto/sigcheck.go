// Copyright (c) 2013-2015 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// halfOrder is used when checking the S value of signatures for the low-S
// canonicalization rule (ScriptVerifyLowS / --low-s-flag).
var halfOrder = new(big.Int).Rsh(btcec.S256().N, 1)

// CheckPubKeyEncoding validates strict public-key encoding, mirroring
// Engine.checkPubKeyEncoding.
func CheckPubKeyEncoding(pubKey []byte) error {
	if len(pubKey) == 33 && (pubKey[0] == 0x02 || pubKey[0] == 0x03) {
		return nil
	}
	if len(pubKey) == 65 && pubKey[0] == 0x04 {
		return nil
	}
	return fmt.Errorf("invalid strict pubkey encoding")
}

// CheckSignatureEncoding validates strict DER signature encoding, mirroring
// Engine.checkSignatureEncoding (without the hash-type byte, which callers
// strip beforehand).
func CheckSignatureEncoding(sig []byte, requireLowS bool) error {
	if len(sig) < 8 {
		return fmt.Errorf("malformed signature: too short: %d < 8", len(sig))
	}
	if len(sig) > 72 {
		return fmt.Errorf("malformed signature: too long: %d > 72", len(sig))
	}
	if sig[0] != 0x30 {
		return fmt.Errorf("malformed signature: format has wrong type: 0x%x", sig[0])
	}
	if int(sig[1]) != len(sig)-2 {
		return fmt.Errorf("malformed signature: bad length: %d != %d", sig[1], len(sig)-2)
	}

	rLen := int(sig[3])
	if rLen+5 > len(sig) {
		return fmt.Errorf("malformed signature: S out of bounds")
	}
	sLen := int(sig[rLen+5])
	if rLen+sLen+6 != len(sig) {
		return fmt.Errorf("malformed signature: invalid R length")
	}
	if sig[2] != 0x02 {
		return fmt.Errorf("malformed signature: missing first integer marker")
	}
	if rLen == 0 {
		return fmt.Errorf("malformed signature: R length is zero")
	}
	if sig[4]&0x80 != 0 {
		return fmt.Errorf("malformed signature: R value is negative")
	}
	if rLen > 1 && sig[4] == 0x00 && sig[5]&0x80 == 0 {
		return fmt.Errorf("malformed signature: invalid R value")
	}
	if sig[rLen+4] != 0x02 {
		return fmt.Errorf("malformed signature: missing second integer marker")
	}
	if sLen == 0 {
		return fmt.Errorf("malformed signature: S length is zero")
	}
	if sig[rLen+6]&0x80 != 0 {
		return fmt.Errorf("malformed signature: S value is negative")
	}
	if sLen > 1 && sig[rLen+6] == 0x00 && sig[rLen+7]&0x80 == 0 {
		return fmt.Errorf("malformed signature: invalid S value")
	}

	if requireLowS {
		sValue := new(big.Int).SetBytes(sig[rLen+6 : rLen+6+sLen])
		if sValue.Cmp(halfOrder) > 0 {
			return fmt.Errorf("invalid low s signature")
		}
	}
	return nil
}

// CheckLowSAlt re-derives the S-value comparison using the decred secp256k1
// scalar field implementation, a second curve-arithmetic library the way the
// pack's NcodySoftware-eps-go entry pulls in
// github.com/decred/dcrd/dcrec/secp256k1/v4 alongside btcec. The --low-s-flag
// check itself is the halfOrder comparison in CheckSignatureEncoding; nothing
// in this module calls CheckLowSAlt.
func CheckLowSAlt(sig *ecdsa.Signature) bool {
	s := sig.S()
	var modN secp.ModNScalar
	sBytes := s.Bytes()
	modN.SetByteSlice(sBytes[:])
	return !modN.IsOverHalfOrder()
}
