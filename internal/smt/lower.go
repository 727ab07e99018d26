package smt

import (
	"math/big"

	"github.com/aclements/go-z3/z3"

	"github.com/dgpv/bsst/internal/value"
)

// lowering turns value.Value trees into Z3 terms, memoized per-session by
// value identity so repeated references to the same witness or
// sub-expression lower to the same Z3 term (spec.md §8 invariant 5:
// "wit<N> witness identities are stable across a path").
//
// Byte strings are modeled uniformly as arbitrary-precision integers
// (the decoded script-number when the literal is at most four bytes long,
// otherwise the unsigned big-endian reinterpretation of its bytes) rather
// than per-length bit-vectors. Cryptographic primitives and
// the handful of opcodes that are genuinely about byte layout (CAT, SIZE,
// bitwise ops) are modeled as uninterpreted functions over that same integer
// sort. This keeps one Z3 sort for the whole value algebra, at the cost of
// not reasoning about exact byte-size bounds inside the solver; no separate
// enforcement of those bounds is published either. See DESIGN.md, "SMT
// lowering sort for script numbers".
type lowering struct {
	ctx    *z3.Context
	intCache   map[uint64]z3.Int
	boolCache  map[uint64]z3.Bool
	funcs  map[value.Kind]z3.FuncDecl
}

func newLowering(ctx *z3.Context) *lowering {
	return &lowering{
		ctx:       ctx,
		intCache:  map[uint64]z3.Int{},
		boolCache: map[uint64]z3.Bool{},
		funcs:     map[value.Kind]z3.FuncDecl{},
	}
}

func (l *lowering) funcDecl(k value.Kind, arity int) z3.FuncDecl {
	if fd, ok := l.funcs[k]; ok {
		return fd
	}
	domain := make([]z3.Sort, arity)
	for i := range domain {
		domain[i] = l.ctx.IntSort()
	}
	fd := l.ctx.FuncDecl(k.String(), domain, l.ctx.IntSort())
	l.funcs[k] = fd
	return fd
}

func bytesToBigInt(b []byte) *big.Int {
	if n, ok := value.AsScriptNumber(b); ok {
		return n
	}
	return new(big.Int).SetBytes(b)
}

// Int lowers v to an integer-sorted term.
func (l *lowering) Int(v *value.Value) z3.Int {
	if cached, ok := l.intCache[v.ID()]; ok {
		return cached
	}

	var result z3.Int
	switch v.Kind {
	case value.KindLiteral:
		result = l.ctx.FromBigInt(bytesToBigInt(v.Bytes), l.ctx.IntSort()).(z3.Int)
	case value.KindWitness, value.KindPlaceholder:
		result = l.ctx.IntConst(symbolName(v))
	case value.KindReference:
		result = l.Int(v.Bound)
	case value.KindBool:
		b := l.Bool(v.Operands[0])
		result = b.IfThenElse(l.ctx.FromInt(1, l.ctx.IntSort()).(z3.Int), l.ctx.FromInt(0, l.ctx.IntSort()).(z3.Int))
	case value.KindAdd, value.KindSub, value.KindNegate, value.Kind1Add, value.Kind1Sub,
		value.KindAbs, value.KindMin, value.KindMax:
		result = l.arith(v)
	default:
		args := make([]z3.Value, len(v.Operands))
		for i, op := range v.Operands {
			args[i] = l.Int(op)
		}
		result = l.funcDecl(v.Kind, len(v.Operands)).Apply(args...).(z3.Int)
	}

	l.intCache[v.ID()] = result
	return result
}

func (l *lowering) arith(v *value.Value) z3.Int {
	ops := make([]z3.Int, len(v.Operands))
	for i, o := range v.Operands {
		ops[i] = l.Int(o)
	}
	one := l.ctx.FromInt(1, l.ctx.IntSort()).(z3.Int)
	switch v.Kind {
	case value.KindAdd:
		r := ops[0]
		for _, o := range ops[1:] {
			r = r.Add(o)
		}
		return r
	case value.KindSub:
		return ops[0].Sub(ops[1])
	case value.Kind1Add:
		return ops[0].Add(one)
	case value.Kind1Sub:
		return ops[0].Sub(one)
	case value.KindNegate:
		return ops[0].Neg()
	case value.KindAbs:
		zero := l.ctx.FromInt(0, l.ctx.IntSort()).(z3.Int)
		return ops[0].LT(zero).IfThenElse(ops[0].Neg(), ops[0]).(z3.Int)
	case value.KindMin:
		return ops[0].LT(ops[1]).IfThenElse(ops[0], ops[1]).(z3.Int)
	case value.KindMax:
		return ops[0].GT(ops[1]).IfThenElse(ops[0], ops[1]).(z3.Int)
	}
	panic("lower: unreachable arith kind " + v.Kind.String())
}

// Bool lowers v to a boolean-sorted term.
func (l *lowering) Bool(v *value.Value) z3.Bool {
	if cached, ok := l.boolCache[v.ID()]; ok {
		return cached
	}

	var result z3.Bool
	zero := l.ctx.FromInt(0, l.ctx.IntSort()).(z3.Int)
	switch v.Kind {
	case value.KindBool:
		result = l.Int(v.Operands[0]).NE(zero)
	case value.KindEqual, value.KindNumEqual:
		result = l.Int(v.Operands[0]).Eq(l.Int(v.Operands[1]))
	case value.KindNumNotEqual:
		result = l.Int(v.Operands[0]).NE(l.Int(v.Operands[1]))
	case value.KindLessThan:
		result = l.Int(v.Operands[0]).LT(l.Int(v.Operands[1]))
	case value.KindGreaterThan:
		result = l.Int(v.Operands[0]).GT(l.Int(v.Operands[1]))
	case value.KindLessThanOrEqual:
		result = l.Int(v.Operands[0]).LE(l.Int(v.Operands[1]))
	case value.KindGreaterThanOrEqual:
		result = l.Int(v.Operands[0]).GE(l.Int(v.Operands[1]))
	case value.KindWithin:
		x, lo, hi := l.Int(v.Operands[0]), l.Int(v.Operands[1]), l.Int(v.Operands[2])
		result = x.GE(lo).And(x.LT(hi))
	case value.KindBoolAnd:
		result = l.Bool(v.Operands[0]).And(l.Bool(v.Operands[1]))
	case value.KindBoolOr:
		result = l.Bool(v.Operands[0]).Or(l.Bool(v.Operands[1]))
	case value.KindNot:
		result = l.Bool(v.Operands[0]).Not()
	case value.Kind0NotEqual:
		result = l.Int(v.Operands[0]).NE(zero)
	case value.KindReference:
		result = l.Bool(v.Bound)
	default:
		// Fall back to the integer view for any value consulted in boolean
		// position that this switch does not special-case directly (e.g. a
		// bare CHECKSIG/CHECKMULTISIG result compared implicitly via BOOL).
		result = l.Int(v).NE(zero)
	}

	l.boolCache[v.ID()] = result
	return result
}

func symbolName(v *value.Value) string {
	switch v.Kind {
	case value.KindWitness:
		return "wit" + itoa(v.WitnessIndex)
	case value.KindPlaceholder:
		return "ph$" + v.Name
	default:
		return "v" + itoa(int(v.ID()))
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
