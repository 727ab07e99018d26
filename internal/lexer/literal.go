package lexer

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/dgpv/bsst/internal/value"
)

// decodeLiteral resolves one non-opcode token into its byte encoding,
// following the literal grammar of spec.md §6: decimal integer, `le64(N)`,
// hex as `x('..')` or `0x..`, or a single-quoted byte string.
func decodeLiteral(raw string) ([]byte, bool, error) {
	switch {
	case strings.HasPrefix(raw, "'") && strings.HasSuffix(raw, "'") && len(raw) >= 2:
		return []byte(raw[1 : len(raw)-1]), true, nil

	case strings.HasPrefix(strings.ToLower(raw), "le64(") && strings.HasSuffix(raw, ")"):
		inner := raw[len("le64(") : len(raw)-1]
		n, err := strconv.ParseUint(inner, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("invalid le64 literal %q: %w", raw, err)
		}
		return value.FromLE64(n), true, nil

	case strings.HasPrefix(strings.ToLower(raw), "x('") && strings.HasSuffix(raw, "')"):
		inner := raw[3 : len(raw)-2]
		b, err := decodeHex(inner)
		if err != nil {
			return nil, false, fmt.Errorf("invalid hex literal %q: %w", raw, err)
		}
		return b, true, nil

	case strings.HasPrefix(strings.ToLower(raw), "0x"):
		b, err := decodeHex(raw[2:])
		if err != nil {
			return nil, false, fmt.Errorf("invalid hex literal %q: %w", raw, err)
		}
		return b, true, nil

	default:
		if n, ok := new(big.Int).SetString(raw, 10); ok {
			return value.FromScriptNumber(n), true, nil
		}
	}
	return nil, false, nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexNibble(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q", c)
	}
}
