// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"strings"

	"github.com/dgpv/bsst/internal/value"
)

// registerArithOps covers both the numeric arithmetic opcodes and the
// splice/bitwise family (SIZE, CAT, EQUAL, bitwise AND/OR/XOR/INVERT); both
// groups build the same shape of binary/unary operator node, so they share
// one registration pass and one set of helper constructors below.
func registerArithOps() {
	register("1ADD", unaryOp("1add", value.Kind1Add))
	register("1SUB", unaryOp("1sub", value.Kind1Sub))
	register("NEGATE", unaryOp("negate", value.KindNegate))
	register("ABS", unaryOp("abs", value.KindAbs))
	register("NOT", unaryOp("not", value.KindNot))
	register("0NOTEQUAL", unaryOp("0notequal", value.Kind0NotEqual))
	register("ADD", binaryOp("add", value.KindAdd))
	register("SUB", binaryOp("sub", value.KindSub))
	register("BOOLAND", binaryOp("booland", value.KindBoolAnd))
	register("BOOLOR", binaryOp("boolor", value.KindBoolOr))
	register("NUMEQUAL", binaryOp("numequal", value.KindNumEqual))
	register("NUMEQUALVERIFY", verifyBinaryOp("numequalverify", value.KindNumEqual))
	register("NUMNOTEQUAL", binaryOp("numnotequal", value.KindNumNotEqual))
	register("LESSTHAN", binaryOp("lessthan", value.KindLessThan))
	register("GREATERTHAN", binaryOp("greaterthan", value.KindGreaterThan))
	register("LESSTHANOREQUAL", binaryOp("lessthanorequal", value.KindLessThanOrEqual))
	register("GREATERTHANOREQUAL", binaryOp("greaterthanorequal", value.KindGreaterThanOrEqual))
	register("MIN", binaryOp("min", value.KindMin))
	register("MAX", binaryOp("max", value.KindMax))
	register("WITHIN", transferWithin)

	register("SIZE", transferSize)
	register("CAT", binaryOp("cat", value.KindCat))
	register("EQUAL", binaryOp("equal", value.KindEqual))
	register("EQUALVERIFY", verifyBinaryOp("equalverify", value.KindEqual))
	register("INVERT", unaryOp("invert", value.KindInvert))
	register("AND", binaryOp("and", value.KindAnd))
	register("OR", binaryOp("or", value.KindOr))
	register("XOR", binaryOp("xor", value.KindXor))
	register("LSHIFT", binaryOp("lshift", value.KindLShift))
	register("RSHIFT", binaryOp("rshift", value.KindRShift))
}

// popOperand pops the stack top, failing the path with opName's standard
// check-kind if the stack underflows, and clearing its unused-value tracking
// entry since it is about to be folded into a new expression.
func popOperand(ctx *Context, opName string) (*value.Value, bool) {
	v, err := ctx.Pop()
	if err != nil {
		ctx.Fail(CheckFailKind(opName), err.Error())
		return nil, false
	}
	ctx.ConsumeValue(v)
	return v, true
}

func unaryOp(opName string, kind value.Kind) TransferFunc {
	return func(en *Engine, ctx *Context, pos int) ([]Fork, error) {
		a, ok := popOperand(ctx, opName)
		if !ok {
			return nil, nil
		}
		pushResult(ctx, value.NewOp(kind, a), pos)
		return nil, nil
	}
}

func binaryOp(opName string, kind value.Kind) TransferFunc {
	return func(en *Engine, ctx *Context, pos int) ([]Fork, error) {
		b, ok := popOperand(ctx, opName)
		if !ok {
			return nil, nil
		}
		a, ok := popOperand(ctx, opName)
		if !ok {
			return nil, nil
		}
		pushResult(ctx, value.NewOp(kind, a, b), pos)
		return nil, nil
	}
}

// verifyBinaryOp combines a binary comparison with the VERIFY semantics of
// its *VERIFY sibling: the comparison is published as an enforcement and
// folded into the path predicate instead of being pushed back to the stack.
func verifyBinaryOp(opName string, kind value.Kind) TransferFunc {
	return func(en *Engine, ctx *Context, pos int) ([]Fork, error) {
		b, ok := popOperand(ctx, opName)
		if !ok {
			return nil, nil
		}
		a, ok := popOperand(ctx, opName)
		if !ok {
			return nil, nil
		}
		pred := value.NewOp(kind, a, b)
		ctx.Publish(pred, pos)
		ctx.PushPredicate(pred, BranchStep{Opcode: strings.ToUpper(opName), Position: pos, Label: fmt.Sprintf("%s @ %d", strings.ToUpper(opName), pos)})
		return nil, nil
	}
}

// transferWithin pops max, min, x (in that order, the reverse of their push
// order) and pushes the half-open range test x in [min, max).
func transferWithin(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	maxV, ok := popOperand(ctx, "within")
	if !ok {
		return nil, nil
	}
	minV, ok := popOperand(ctx, "within")
	if !ok {
		return nil, nil
	}
	xV, ok := popOperand(ctx, "within")
	if !ok {
		return nil, nil
	}
	pushResult(ctx, value.NewOp(value.KindWithin, xV, minV, maxV), pos)
	return nil, nil
}

// transferSize peeks (not pops) the stack top and pushes its byte length,
// matching OP_SIZE leaving its input in place.
func transferSize(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	top, err := ctx.PeekTop()
	if err != nil {
		return badArgs(ctx, "size", err.Error())
	}
	pushResult(ctx, value.NewOp(value.KindSize, top), pos)
	return nil, nil
}
