// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package value

// Kind tags a node in the symbolic expression tree.  The enumeration mirrors
// the opcode set of the scripting language plus the handful of synthetic
// operators the engine introduces on top of it (ADD, SUB, BOOL, ...).
type Kind int

const (
	// KindLiteral is a concrete byte string known at trace time.
	KindLiteral Kind = iota
	// KindWitness is a value consumed from the transaction's witness,
	// numbered by first appearance.
	KindWitness
	// KindPlaceholder is a user-declared `$name` input.
	KindPlaceholder
	// KindReference is a `&name` binding produced by a `=> name` comment.
	KindReference

	// KindAdd .. KindIntrospect are operator applications.  Names match the
	// opcode or synthetic operator they represent.
	KindAdd
	KindSub
	Kind1Add
	Kind1Sub
	KindNegate
	KindAbs
	KindNot
	Kind0NotEqual
	KindBoolAnd
	KindBoolOr
	KindNumEqual
	KindNumNotEqual
	KindLessThan
	KindGreaterThan
	KindLessThanOrEqual
	KindGreaterThanOrEqual
	KindMin
	KindMax
	KindWithin
	KindBool
	KindCat
	KindSize
	KindEqual
	KindInvert
	KindAnd
	KindOr
	KindXor
	KindLShift
	KindRShift
	KindSha1
	KindSha256
	KindRipemd160
	KindHash160
	KindHash256
	KindCheckSig
	KindCheckMultiSig
	KindCheckSigAdd
	KindCheckSigFromStack
	KindIntrospect

	// KindITE is a synthetic if-then-else node used internally to express
	// dynamic-stack-access fanout results that were not forked away, and to
	// build SMT select expressions.
	KindITE
)

// Commutative reports whether operand order is semantically irrelevant for
// this kind, making it eligible for canonical (sorted) display ordering when
// use-deterministic-arguments-order is enabled.
func (k Kind) Commutative() bool {
	switch k {
	case KindAdd, KindEqual, KindNumEqual, KindNumNotEqual, KindBoolAnd,
		KindBoolOr, KindMin, KindMax, KindAnd, KindOr, KindXor:
		return true
	default:
		return false
	}
}

// String renders the display name used when printing operator applications,
// e.g. "ADD", "CHECKMULTISIG".
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

var kindNames = map[Kind]string{
	KindAdd:               "ADD",
	KindSub:                "SUB",
	Kind1Add:               "1ADD",
	Kind1Sub:               "1SUB",
	KindNegate:             "NEGATE",
	KindAbs:                "ABS",
	KindNot:                "NOT",
	Kind0NotEqual:          "0NOTEQUAL",
	KindBoolAnd:            "BOOLAND",
	KindBoolOr:             "BOOLOR",
	KindNumEqual:           "NUMEQUAL",
	KindNumNotEqual:        "NUMNOTEQUAL",
	KindLessThan:           "LESSTHAN",
	KindGreaterThan:        "GREATERTHAN",
	KindLessThanOrEqual:    "LESSTHANOREQUAL",
	KindGreaterThanOrEqual: "GREATERTHANOREQUAL",
	KindMin:                "MIN",
	KindMax:                "MAX",
	KindWithin:             "WITHIN",
	KindBool:               "BOOL",
	KindCat:                "CAT",
	KindSize:               "SIZE",
	KindEqual:              "EQUAL",
	KindInvert:             "INVERT",
	KindAnd:                "AND",
	KindOr:                 "OR",
	KindXor:                "XOR",
	KindLShift:             "LSHIFT",
	KindRShift:             "RSHIFT",
	KindSha1:               "SHA1",
	KindSha256:             "SHA256",
	KindRipemd160:          "RIPEMD160",
	KindHash160:            "HASH160",
	KindHash256:            "HASH256",
	KindCheckSig:           "CHECKSIG",
	KindCheckMultiSig:      "CHECKMULTISIG",
	KindCheckSigAdd:        "CHECKSIGADD",
	KindCheckSigFromStack:  "CHECKSIGFROMSTACK",
	KindIntrospect:         "INTROSPECT",
	KindITE:                "ITE",
}
