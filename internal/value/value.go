// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package value implements the symbolic expression tree that the tracer
// builds up while walking a script: literals, witness/placeholder/reference
// leaves, and operator applications over them.  Values are immutable once
// constructed and hash-consed so that structural equality and identity
// coincide, which lets the rest of the engine use a *Value as a stable key
// into SMT variable tables.
package value

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
)

// Value is a node in the symbolic expression tree.  Arguments must never be
// mutated after a Value referencing them has been constructed.
type Value struct {
	id   uint64
	Kind Kind

	// Literal data, valid when Kind == KindLiteral.
	Bytes []byte

	// Witness identity, valid when Kind == KindWitness.
	WitnessIndex int
	Alias        string

	// Name, valid for KindPlaceholder and KindReference.
	Name string
	// Bound is the value a KindReference is bound to.
	Bound *Value

	// Operands, valid for operator-application kinds.
	Operands []*Value

	// Position is the source line the value was produced at, used for
	// `--tag-data-with-position` and unused-value reporting.
	Position int

	canon string // memoized canonical display string
}

// ID returns a process-wide stable identity for this value, suitable as an
// SMT variable key.
func (v *Value) ID() uint64 { return v.id }

var (
	arenaMu sync.Mutex
	arena   = map[string]*Value{}
	nextID  uint64
)

func intern(key string, build func(id uint64) *Value) *Value {
	arenaMu.Lock()
	defer arenaMu.Unlock()
	if v, ok := arena[key]; ok {
		return v
	}
	nextID++
	v := build(nextID)
	arena[key] = v
	return v
}

// NewLiteral returns the hash-consed literal value for the given bytes.
func NewLiteral(b []byte) *Value {
	key := "L:" + string(b)
	return intern(key, func(id uint64) *Value {
		cp := append([]byte(nil), b...)
		return &Value{id: id, Kind: KindLiteral, Bytes: cp}
	})
}

// NewWitness returns the hash-consed witness variable for the given index,
// numbered by first appearance in the trace.
func NewWitness(index int, alias string) *Value {
	key := fmt.Sprintf("W:%d", index)
	return intern(key, func(id uint64) *Value {
		return &Value{id: id, Kind: KindWitness, WitnessIndex: index, Alias: alias}
	})
}

// NewPlaceholder returns the hash-consed `$name` placeholder.
func NewPlaceholder(name string) *Value {
	key := "P:" + name
	return intern(key, func(id uint64) *Value {
		return &Value{id: id, Kind: KindPlaceholder, Name: name}
	})
}

// NewReference returns a fresh (never hash-consed, since the same name may
// rebind on different paths) `&name` reference bound to v.
func NewReference(name string, bound *Value, position int) *Value {
	arenaMu.Lock()
	nextID++
	id := nextID
	arenaMu.Unlock()
	return &Value{id: id, Kind: KindReference, Name: name, Bound: bound, Position: position}
}

// NewOp builds (or reuses, via hash-consing) the operator application node
// for kind over operands.  Operand order is preserved as given; canonical
// sorting for commutative kinds happens only at display time, controlled by
// DisplayOptions.UseDeterministicArgumentsOrder, so the underlying identity
// of the expression is independent of display settings.
func NewOp(kind Kind, operands ...*Value) *Value {
	var b strings.Builder
	fmt.Fprintf(&b, "O:%d(", kind)
	for i, o := range operands {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", o.id)
	}
	b.WriteByte(')')
	key := b.String()
	return intern(key, func(id uint64) *Value {
		ops := append([]*Value(nil), operands...)
		return &Value{id: id, Kind: kind, Operands: ops}
	})
}

// AsBytes returns the static byte encoding of a literal value.
func (v *Value) AsBytes() ([]byte, bool) {
	if v.Kind == KindLiteral {
		return v.Bytes, true
	}
	if v.Kind == KindReference && v.Bound != nil {
		return v.Bound.AsBytes()
	}
	return nil, false
}

// AsScriptNumber consults the value as a script-number, succeeding only for
// literals whose bytes decode as one.
func (v *Value) AsScriptNumber() (*big.Int, bool) {
	b, ok := v.AsBytes()
	if !ok {
		return nil, false
	}
	return AsScriptNumber(b)
}

// AsLE64 consults the value as an 8-byte little-endian integer.
func (v *Value) AsLE64() (uint64, bool) {
	b, ok := v.AsBytes()
	if !ok {
		return 0, false
	}
	return AsLE64(b)
}

// AsBool consults the static boolean cast of the value.
func (v *Value) AsBool() (bool, bool) {
	b, ok := v.AsBytes()
	if !ok {
		return false, false
	}
	return CastToBool(b), true
}

// IsStatic reports whether the value is a concrete literal (or a reference
// bound to one), i.e. requires no SMT lowering to inspect.
func (v *Value) IsStatic() bool {
	_, ok := v.AsBytes()
	return ok
}

// DisplayOptions controls how Strings render identifiers.
type DisplayOptions struct {
	UseDeterministicArgumentsOrder bool
	TagDataWithPosition            bool
}

// String renders the value using default display options (source order,
// no position tags), matching the identity-preserving canonical form used
// as a cache key elsewhere in the engine.
func (v *Value) String() string {
	return v.Display(DisplayOptions{})
}

// Display renders the value the way the reporter does: aliases inlined for
// witnesses (`a1<wit0>`), `&name` for references, `$name` for placeholders,
// and ` @ pos:N` position tags when requested.
func (v *Value) Display(opts DisplayOptions) string {
	var s string
	switch v.Kind {
	case KindLiteral:
		s = displayLiteral(v.Bytes)
	case KindWitness:
		if v.Alias != "" {
			s = fmt.Sprintf("%s<wit%d>", v.Alias, v.WitnessIndex)
		} else {
			s = fmt.Sprintf("wit%d", v.WitnessIndex)
		}
	case KindPlaceholder:
		s = "$" + v.Name
	case KindReference:
		s = "&" + v.Name
	default:
		operands := v.Operands
		if opts.UseDeterministicArgumentsOrder && v.Kind.Commutative() {
			operands = append([]*Value(nil), operands...)
			sort.Slice(operands, func(i, j int) bool {
				return operands[i].Display(opts) < operands[j].Display(opts)
			})
		}
		parts := make([]string, len(operands))
		for i, o := range operands {
			parts[i] = o.Display(opts)
		}
		s = fmt.Sprintf("%s(%s)", v.Kind, strings.Join(parts, ", "))
	}
	if opts.TagDataWithPosition && v.Position != 0 {
		s = fmt.Sprintf("%s @ pos:%d", s, v.Position)
	}
	return s
}

func displayLiteral(b []byte) string {
	if n, ok := AsScriptNumber(b); ok && CheckMinimalData(b) {
		return n.String()
	}
	return "x('" + hexEncode(b) + "')"
}

const hexDigits = "0123456789abcdef"

func hexEncode(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xf]
	}
	return string(out)
}
