// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"strings"

	"github.com/dgpv/bsst/internal/value"
)

func registerControlOps() {
	register("NOP", transferNop)
	register("IF", transferIf)
	register("NOTIF", transferNotIf)
	register("ELSE", transferElse)
	register("ENDIF", transferEndif)
	register("VERIFY", transferVerify)
	register("RETURN", transferReturn)
	register("CHECKLOCKTIMEVERIFY", transferCheckLockTimeVerify)
	register("CHECKSEQUENCEVERIFY", transferCheckSequenceVerify)
}

func transferNop(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	return nil, nil
}

// transferIf and transferNotIf fork the path on a symbolic condition. An
// IF/NOTIF nested in a dead branch pushes OpCondSkip without touching the
// stack, exactly as opcodeIf/opcodeNotIf do for a non-executing branch.
func transferIf(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	return forkConditional(en, ctx, pos, "if", false)
}

func transferNotIf(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	return forkConditional(en, ctx, pos, "notif", true)
}

func forkConditional(en *Engine, ctx *Context, pos int, name string, invert bool) ([]Fork, error) {
	upper := strings.ToUpper(name)

	if !ctx.isBranchExecuting() {
		ctx.CondStack = append(ctx.CondStack, CondSkip)
		return nil, nil
	}

	top, err := ctx.Pop()
	if err != nil {
		ctx.Fail(CheckFailKind(name), err.Error())
		return nil, nil
	}
	ctx.ConsumeValue(top)

	if en.Opts.MinimalIf {
		if b, ok := top.AsBytes(); ok {
			if len(b) > 1 || (len(b) == 1 && b[0] != 0x01) {
				ctx.Fail(CheckFailKind(name), "minimalif: top element must be empty or exactly 0x01")
				return nil, nil
			}
		}
	}

	cond := value.NewOp(value.KindBool, top)

	if concrete, ok := top.AsBool(); ok {
		taken := concrete
		if invert {
			taken = !taken
		}
		cv := CondFalse
		if taken {
			cv = CondTrue
		}
		ctx.CondStack = append(ctx.CondStack, cv)
		ctx.RecordBranch(BranchStep{Opcode: upper, Position: pos, Label: fmt.Sprintf("%s @ %d : %v", upper, pos, taken)})
		return nil, nil
	}

	trueChild := ctx.Clone()
	falseChild := ctx.Clone()

	trueCv, falseCv := CondTrue, CondFalse
	truePred, falsePred := cond, value.NewOp(value.KindNot, cond)
	if invert {
		trueCv, falseCv = falseCv, trueCv
		truePred, falsePred = falsePred, truePred
	}

	trueChild.CondStack = append(trueChild.CondStack, trueCv)
	falseChild.CondStack = append(falseChild.CondStack, falseCv)

	trueChild.PushPredicate(truePred, BranchStep{Opcode: upper, Position: pos, Label: fmt.Sprintf("%s @ %d : True", upper, pos)})
	falseChild.PushPredicate(falsePred, BranchStep{Opcode: upper, Position: pos, Label: fmt.Sprintf("%s @ %d : False", upper, pos)})

	return []Fork{
		{Ctx: trueChild, Step: trueChild.BranchTrail[len(trueChild.BranchTrail)-1]},
		{Ctx: falseChild, Step: falseChild.BranchTrail[len(falseChild.BranchTrail)-1]},
	}, nil
}

// transferElse inverts conditional execution for the other half of
// if/else/endif, mirroring opcodeElse.
func transferElse(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	if len(ctx.CondStack) == 0 {
		ctx.Fail(CheckFailKind("else"), "ELSE with no matching IF/NOTIF")
		return nil, nil
	}
	top := len(ctx.CondStack) - 1
	switch ctx.CondStack[top] {
	case CondTrue:
		ctx.CondStack[top] = CondFalse
	case CondFalse:
		ctx.CondStack[top] = CondTrue
	case CondSkip:
	}
	return nil, nil
}

// transferEndif terminates a conditional block, mirroring opcodeEndif.
func transferEndif(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	if len(ctx.CondStack) == 0 {
		ctx.Fail(CheckFailKind("endif"), "ENDIF with no matching IF/NOTIF")
		return nil, nil
	}
	ctx.CondStack = ctx.CondStack[:len(ctx.CondStack)-1]
	return nil, nil
}

// transferVerify publishes the path's requirement that the popped top
// evaluate true, both as a reported enforcement and as a path-predicate
// conjunct the solver checks reachability against.
func transferVerify(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	top, err := ctx.Pop()
	if err != nil {
		return badArgs(ctx, "verify", err.Error())
	}
	ctx.ConsumeValue(top)
	pred := value.NewOp(value.KindBool, top)
	ctx.Publish(pred, pos)
	ctx.PushPredicate(pred, BranchStep{Opcode: "VERIFY", Position: pos, Label: fmt.Sprintf("VERIFY @ %d", pos)})
	return nil, nil
}

// transferReturn unconditionally fails the path it executes on.
func transferReturn(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	ctx.Fail(CheckFailKind("return"), "OP_RETURN makes the script invalid")
	return nil, nil
}

// transferCheckLockTimeVerify and transferCheckSequenceVerify publish an
// enforcement against the corresponding transaction-level introspection
// field without consuming the stack top, mirroring the BIP65/BIP112 opcodes'
// "peek, don't pop" behavior.
func transferCheckLockTimeVerify(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	top, err := ctx.PeekTop()
	if err != nil {
		return badArgs(ctx, "checklocktimeverify", err.Error())
	}
	pred := value.NewOp(value.KindLessThanOrEqual, top, introspectField("tx.nLockTime"))
	ctx.Publish(pred, pos)
	ctx.PushPredicate(pred, BranchStep{Opcode: "CHECKLOCKTIMEVERIFY", Position: pos, Label: fmt.Sprintf("CHECKLOCKTIMEVERIFY @ %d", pos)})
	return nil, nil
}

func transferCheckSequenceVerify(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	top, err := ctx.PeekTop()
	if err != nil {
		return badArgs(ctx, "checksequenceverify", err.Error())
	}
	pred := value.NewOp(value.KindLessThanOrEqual, top, introspectField("tx.vin.sequence"))
	ctx.Publish(pred, pos)
	ctx.PushPredicate(pred, BranchStep{Opcode: "CHECKSEQUENCEVERIFY", Position: pos, Label: fmt.Sprintf("CHECKSEQUENCEVERIFY @ %d", pos)})
	return nil, nil
}
