// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package value

import (
	"encoding/binary"
	"math/big"
)

// AsScriptNumber converts a little-endian sign-magnitude byte string to a
// bignum, following the same minimaldata-adjacent decode rules as the
// reference interpreter's internal representation of script numbers.
func AsScriptNumber(v []byte) (*big.Int, bool) {
	if len(v) > 4 {
		return nil, false
	}
	if len(v) == 0 {
		return big.NewInt(0), true
	}

	negative := false
	origLen := len(v)
	msb := v[len(v)-1]
	if msb&0x80 == 0x80 {
		negative = true
		msb &= 0x7f
	}
	for ; msb == 0; msb = v[len(v)-1] {
		v = v[:len(v)-1]
		if len(v) == 0 {
			break
		}
	}

	buf := make([]byte, len(v))
	for i := range v {
		buf[len(v)-i-1] = v[i]
	}
	if negative && len(buf) == origLen {
		buf[0] &= 0x7f
	}

	num := new(big.Int).SetBytes(buf)
	if negative {
		num.Neg(num)
	}
	return num, true
}

// FromScriptNumber renders a bignum back to its minimal little-endian
// sign-magnitude byte encoding.
func FromScriptNumber(v *big.Int) []byte {
	negative := v.Sign() == -1
	b := new(big.Int).Abs(v).Bytes()
	if len(b) == 0 {
		return []byte{}
	}

	arr := make([]byte, len(b))
	for i := range b {
		arr[len(b)-i-1] = b[i]
	}
	if arr[len(arr)-1]&0x80 == 0x80 {
		arr = append(arr, 0)
	}
	if negative {
		arr[len(arr)-1] |= 0x80
	}
	return arr
}

// CheckMinimalData reports whether the byte string uses the minimal possible
// script-number encoding.
func CheckMinimalData(so []byte) bool {
	if len(so) == 0 {
		return true
	}
	if so[len(so)-1]&0x7f == 0 {
		if len(so) == 1 || so[len(so)-2]&0x80 == 0 {
			return false
		}
	}
	return true
}

// AsLE64 decodes an 8-byte little-endian unsigned integer, as used by
// le64(...) literals and Elements introspection results.
func AsLE64(v []byte) (uint64, bool) {
	if len(v) != 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(v), true
}

// FromLE64 encodes n as an 8-byte little-endian unsigned integer.
func FromLE64(n uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, n)
	return buf
}

// CastToBool implements the script boolean cast: a byte string is false iff
// it is empty, all-zero, or all-zero with the final byte equal to 0x80 (the
// "negative zero" encoding).
func CastToBool(v []byte) bool {
	for i, b := range v {
		if b != 0 {
			if i == len(v)-1 && b == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}
