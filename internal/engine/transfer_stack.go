// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"math/big"

	"github.com/dgpv/bsst/internal/value"
)

func registerStackOps() {
	register("TOALTSTACK", transferToAltStack)
	register("FROMALTSTACK", transferFromAltStack)
	register("DUP", transferDup)
	register("DROP", transferDrop)
	register("SWAP", transferSwap)
	register("OVER", transferOver)
	register("ROT", transferRot)
	register("NIP", transferNip)
	register("TUCK", transferTuck)
	register("2DUP", transferDupN(2))
	register("3DUP", transferDupN(3))
	register("2OVER", transferOverN(2))
	register("2ROT", transferRotN(2))
	register("2SWAP", transferSwapN(2))
	register("IFDUP", transferIfDup)
	register("DEPTH", transferDepth)
	register("PICK", transferPick)
	register("ROLL", transferRoll)
}

func transferToAltStack(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	v, err := ctx.Pop()
	if err != nil {
		return badArgs(ctx, "toaltstack", err.Error())
	}
	ctx.AltStack.Push(v)
	return nil, nil
}

func transferFromAltStack(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	v, err := ctx.AltStack.Pop()
	if err != nil {
		return badArgs(ctx, "fromaltstack", err.Error())
	}
	ctx.Stack.Push(v)
	return nil, nil
}

func transferDup(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	if err := ctx.Stack.DupN(1); err != nil {
		return badArgs(ctx, "dup", err.Error())
	}
	return nil, nil
}

func transferDrop(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	if err := ctx.Stack.DropN(1); err != nil {
		return badArgs(ctx, "drop", err.Error())
	}
	return nil, nil
}

func transferSwap(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	if err := ctx.Stack.SwapN(1); err != nil {
		return badArgs(ctx, "swap", err.Error())
	}
	return nil, nil
}

func transferOver(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	if err := ctx.Stack.OverN(1); err != nil {
		return badArgs(ctx, "over", err.Error())
	}
	return nil, nil
}

func transferRot(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	if err := ctx.Stack.RotN(1); err != nil {
		return badArgs(ctx, "rot", err.Error())
	}
	return nil, nil
}

func transferNip(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	if err := ctx.Stack.Nip(1); err != nil {
		return badArgs(ctx, "nip", err.Error())
	}
	return nil, nil
}

func transferTuck(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	if err := ctx.Stack.Tuck(); err != nil {
		return badArgs(ctx, "tuck", err.Error())
	}
	return nil, nil
}

func transferDupN(n int) TransferFunc {
	return func(en *Engine, ctx *Context, pos int) ([]Fork, error) {
		if err := ctx.Stack.DupN(n); err != nil {
			return badArgs(ctx, fmt.Sprintf("%ddup", n), err.Error())
		}
		return nil, nil
	}
}

func transferOverN(n int) TransferFunc {
	return func(en *Engine, ctx *Context, pos int) ([]Fork, error) {
		if err := ctx.Stack.OverN(n); err != nil {
			return badArgs(ctx, fmt.Sprintf("%dover", n), err.Error())
		}
		return nil, nil
	}
}

func transferRotN(n int) TransferFunc {
	return func(en *Engine, ctx *Context, pos int) ([]Fork, error) {
		if err := ctx.Stack.RotN(n); err != nil {
			return badArgs(ctx, fmt.Sprintf("%drot", n), err.Error())
		}
		return nil, nil
	}
}

func transferSwapN(n int) TransferFunc {
	return func(en *Engine, ctx *Context, pos int) ([]Fork, error) {
		if err := ctx.Stack.SwapN(n); err != nil {
			return badArgs(ctx, fmt.Sprintf("%dswap", n), err.Error())
		}
		return nil, nil
	}
}

// transferIfDup forks when the duplicate-or-not decision depends on a
// symbolic top-of-stack value, the same fanout shape as IF/NOTIF.
func transferIfDup(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	top, err := ctx.PeekTop()
	if err != nil {
		return badArgs(ctx, "ifdup", err.Error())
	}
	pred := value.NewOp(value.KindBool, top)

	if b, ok := top.AsBool(); ok {
		if b {
			_ = ctx.Stack.DupN(1)
		}
		return nil, nil
	}

	trueChild := ctx.Clone()
	falseChild := ctx.Clone()
	_ = trueChild.Stack.DupN(1)

	trueChild.PushPredicate(pred, BranchStep{Opcode: "IFDUP", Position: pos, Label: fmt.Sprintf("IFDUP @ %d : dup", pos)})
	falseChild.PushPredicate(value.NewOp(value.KindNot, pred), BranchStep{Opcode: "IFDUP", Position: pos, Label: fmt.Sprintf("IFDUP @ %d : no-dup", pos)})

	return []Fork{
		{Ctx: trueChild, Step: trueChild.BranchTrail[len(trueChild.BranchTrail)-1]},
		{Ctx: falseChild, Step: falseChild.BranchTrail[len(falseChild.BranchTrail)-1]},
	}, nil
}

func transferDepth(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	v := value.NewLiteral(value.FromScriptNumber(big.NewInt(int64(ctx.Stack.Depth()))))
	pushResult(ctx, v, pos)
	return nil, nil
}

// transferPick and transferRoll take the static-index fast path when the
// popped index is a concrete literal, and hand off to the solver-driven
// fanout in transfer_dynamic.go otherwise (spec's dynamic stack access).
func transferPick(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	idx, err := ctx.Pop()
	if err != nil {
		return badArgs(ctx, "pick", err.Error())
	}
	ctx.ConsumeValue(idx)
	if n, ok := idx.AsScriptNumber(); ok && n.IsInt64() {
		if err := ctx.Stack.PickN(int(n.Int64())); err != nil {
			return badArgs(ctx, "pick", err.Error())
		}
		return nil, nil
	}
	return dynamicAccess(en, ctx, pos, "pick", idx)
}

func transferRoll(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	idx, err := ctx.Pop()
	if err != nil {
		return badArgs(ctx, "roll", err.Error())
	}
	ctx.ConsumeValue(idx)
	if n, ok := idx.AsScriptNumber(); ok && n.IsInt64() {
		if err := ctx.Stack.RollN(int(n.Int64())); err != nil {
			return badArgs(ctx, "roll", err.Error())
		}
		return nil, nil
	}
	return dynamicAccess(en, ctx, pos, "roll", idx)
}
