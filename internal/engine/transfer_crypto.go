// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"

	"github.com/dgpv/bsst/internal/crypto"
	"github.com/dgpv/bsst/internal/value"
)

func registerCryptoOps() {
	register("RIPEMD160", hashOp("ripemd160", value.KindRipemd160, crypto.Ripemd160))
	register("SHA1", hashOp("sha1", value.KindSha1, crypto.Sha1))
	register("SHA256", hashOp("sha256", value.KindSha256, crypto.Sha256))
	register("HASH160", hashOp("hash160", value.KindHash160, crypto.Hash160))
	register("HASH256", hashOp("hash256", value.KindHash256, crypto.Hash256))
	register("CHECKSIG", transferCheckSig)
	register("CHECKSIGVERIFY", transferCheckSigVerify)
	register("CHECKMULTISIG", transferCheckMultiSig)
	register("CHECKMULTISIGVERIFY", transferCheckMultiSigVerify)
	register("CHECKSIGADD", transferCheckSigAdd)
	register("CHECKSIGFROMSTACK", transferCheckSigFromStack)
	register("CHECKSIGFROMSTACKVERIFY", transferCheckSigFromStackVerify)
}

// hashOp builds a unary transfer function that evaluates fn directly when
// its operand is statically known, and otherwise builds a symbolic node of
// the given kind, left for the SMT lowering's uninterpreted function to
// model (internal/smt/lower.go).
func hashOp(opName string, kind value.Kind, fn func([]byte) []byte) TransferFunc {
	return func(en *Engine, ctx *Context, pos int) ([]Fork, error) {
		a, ok := popOperand(ctx, opName)
		if !ok {
			return nil, nil
		}
		var result *value.Value
		if b, ok := a.AsBytes(); ok {
			result = value.NewLiteral(fn(b))
		} else {
			result = value.NewOp(kind, a)
		}
		pushResult(ctx, result, pos)
		return nil, nil
	}
}

// transferCheckSig validates strict signature/pubkey encoding when
// requested and statically decidable, short-circuits a known-empty
// signature to a literal false (matching the reference interpreter's
// always-fails-cleanly rule for a null signature), and otherwise leaves a
// symbolic CHECKSIG node for the solver.
func transferCheckSig(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	pubKeyV, ok := popOperand(ctx, "checksig")
	if !ok {
		return nil, nil
	}
	sigV, ok := popOperand(ctx, "checksig")
	if !ok {
		return nil, nil
	}

	if en.Opts.StrictEnc {
		if pk, ok := pubKeyV.AsBytes(); ok {
			if err := crypto.CheckPubKeyEncoding(pk); err != nil {
				ctx.Fail(CheckFailKind("checksig"), err.Error())
				return nil, nil
			}
		}
		if sig, ok := sigV.AsBytes(); ok && len(sig) > 0 {
			if err := crypto.CheckSignatureEncoding(sig[:len(sig)-1], en.Opts.LowS); err != nil {
				ctx.Fail(CheckFailKind("checksig"), err.Error())
				return nil, nil
			}
		}
	}

	if sig, ok := sigV.AsBytes(); ok && len(sig) == 0 {
		pushResult(ctx, value.NewLiteral(nil), pos)
		return nil, nil
	}

	result := value.NewOp(value.KindCheckSig, sigV, pubKeyV)
	pushResult(ctx, result, pos)
	ctx.RecordSigCheck("CHECKSIG", pos, result)
	if en.Opts.NullFail {
		ctx.Warn(string(WarnPossibleSuccessNoSig))
	}
	return nil, nil
}

func transferCheckSigVerify(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	if _, err := transferCheckSig(en, ctx, pos); err != nil || ctx.Failed() {
		return nil, err
	}
	top, err := ctx.Pop()
	if err != nil {
		return badArgs(ctx, "checksigverify", err.Error())
	}
	ctx.ConsumeValue(top)
	pred := value.NewOp(value.KindBool, top)
	ctx.Publish(pred, pos)
	ctx.PushPredicate(pred, BranchStep{Opcode: "CHECKSIGVERIFY", Position: pos, Label: fmt.Sprintf("CHECKSIGVERIFY @ %d", pos)})
	ctx.RecordSigCheck("CHECKSIGVERIFY", pos, value.NewLiteral([]byte{1}))
	return nil, nil
}

func transferCheckMultiSig(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	return checkMultiSigImpl(en, ctx, pos, false)
}

func transferCheckMultiSigVerify(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	return checkMultiSigImpl(en, ctx, pos, true)
}

// checkMultiSigImpl implements CHECKMULTISIG/CHECKMULTISIGVERIFY. Both the
// pubkey count and the signature count are read off as static literals when
// possible; a symbolic count hands off to the sampling fanout in
// transfer_dynamic.go (dynamicCheckMultiSig / dynamicCheckMultiSigM), which
// forks one child per sampled count and then rejoins this same function's
// tail (finishCheckMultiSigWithCounts) to pop the remainder of the operands.
func checkMultiSigImpl(en *Engine, ctx *Context, pos int, verify bool) ([]Fork, error) {
	nVal, ok := popOperand(ctx, "checkmultisig")
	if !ok {
		return nil, nil
	}
	n, isStaticN := nVal.AsScriptNumber()
	if !isStaticN || !n.IsInt64() {
		return dynamicCheckMultiSig(en, ctx, pos, verify, nVal)
	}
	nn := int(n.Int64())
	if nn < 0 || nn > 20 {
		ctx.Fail(CheckFailKind("checkmultisig"), "pubkey count out of range")
		return nil, nil
	}

	pubKeys := make([]*value.Value, nn)
	for i := nn - 1; i >= 0; i-- {
		v, ok := popOperand(ctx, "checkmultisig")
		if !ok {
			return nil, nil
		}
		pubKeys[i] = v
	}

	return finishCheckMultiSig(en, ctx, pos, verify, pubKeys)
}

// finishCheckMultiSig pops the signature count given a known set of pubKeys
// already popped off the stack, taking the static fast path when it reads
// off as a literal and the dynamic sampling fanout (dynamicCheckMultiSigM)
// otherwise.
func finishCheckMultiSig(en *Engine, ctx *Context, pos int, verify bool, pubKeys []*value.Value) ([]Fork, error) {
	mVal, ok := popOperand(ctx, "checkmultisig")
	if !ok {
		return nil, nil
	}
	m, isStaticM := mVal.AsScriptNumber()
	if !isStaticM || !m.IsInt64() {
		return dynamicCheckMultiSigM(en, ctx, pos, verify, pubKeys, mVal)
	}
	mm := int(m.Int64())
	if mm < 0 || mm > len(pubKeys) {
		ctx.Fail(CheckFailKind("checkmultisig"), "signature count out of range")
		return nil, nil
	}
	return finishCheckMultiSigWithCounts(en, ctx, pos, verify, pubKeys, mm)
}

// finishCheckMultiSigWithCounts pops the mm signatures and the dummy element,
// and publishes the CHECKMULTISIG/CHECKMULTISIGVERIFY result. By the time
// this runs, both the pubkey count and the signature count are concrete
// ints, whether they started out that way or were pinned by a sampled fork.
func finishCheckMultiSigWithCounts(en *Engine, ctx *Context, pos int, verify bool, pubKeys []*value.Value, mm int) ([]Fork, error) {
	sigs := make([]*value.Value, mm)
	for i := mm - 1; i >= 0; i-- {
		v, ok := popOperand(ctx, "checkmultisig")
		if !ok {
			return nil, nil
		}
		sigs[i] = v
	}

	dummy, ok := popOperand(ctx, "checkmultisig")
	if !ok {
		return nil, nil
	}
	if en.Opts.NullDummy {
		if b, ok := dummy.AsBytes(); ok && len(b) != 0 {
			ctx.Fail(CheckFailKind("checkmultisig"), "dummy element must be empty")
			return nil, nil
		}
	}

	operands := append(append([]*value.Value{}, sigs...), pubKeys...)
	result := value.NewOp(value.KindCheckMultiSig, operands...)

	if verify {
		pred := value.NewOp(value.KindBool, result)
		ctx.Publish(pred, pos)
		ctx.PushPredicate(pred, BranchStep{Opcode: "CHECKMULTISIGVERIFY", Position: pos, Label: fmt.Sprintf("CHECKMULTISIGVERIFY @ %d", pos)})
		ctx.RecordSigCheck("CHECKMULTISIGVERIFY", pos, value.NewLiteral([]byte{1}))
	} else {
		pushResult(ctx, result, pos)
		ctx.RecordSigCheck("CHECKMULTISIG", pos, result)
		if en.Opts.NullFail {
			ctx.Warn(string(WarnPossibleSuccessNoSig))
		}
	}
	return nil, nil
}

// transferCheckSigAdd implements the tapscript OP_CHECKSIGADD counter
// accumulator: pop pubkey, pop running count, pop signature, push
// count + (sig valid ? 1 : 0).
func transferCheckSigAdd(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	pubKeyV, ok := popOperand(ctx, "checksigadd")
	if !ok {
		return nil, nil
	}
	nVal, ok := popOperand(ctx, "checksigadd")
	if !ok {
		return nil, nil
	}
	sigV, ok := popOperand(ctx, "checksigadd")
	if !ok {
		return nil, nil
	}
	result := value.NewOp(value.KindCheckSigAdd, sigV, pubKeyV, nVal)
	pushResult(ctx, result, pos)
	ctx.RecordSigCheck("CHECKSIGADD", pos, result)
	return nil, nil
}

func transferCheckSigFromStack(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	return checkSigFromStackImpl(en, ctx, pos, false)
}

func transferCheckSigFromStackVerify(en *Engine, ctx *Context, pos int) ([]Fork, error) {
	return checkSigFromStackImpl(en, ctx, pos, true)
}

func checkSigFromStackImpl(en *Engine, ctx *Context, pos int, verify bool) ([]Fork, error) {
	pubKeyV, ok := popOperand(ctx, "checksigfromstack")
	if !ok {
		return nil, nil
	}
	msgV, ok := popOperand(ctx, "checksigfromstack")
	if !ok {
		return nil, nil
	}
	sigV, ok := popOperand(ctx, "checksigfromstack")
	if !ok {
		return nil, nil
	}
	result := value.NewOp(value.KindCheckSigFromStack, sigV, msgV, pubKeyV)
	if verify {
		pred := value.NewOp(value.KindBool, result)
		ctx.Publish(pred, pos)
		ctx.PushPredicate(pred, BranchStep{Opcode: "CHECKSIGFROMSTACKVERIFY", Position: pos, Label: fmt.Sprintf("CHECKSIGFROMSTACKVERIFY @ %d", pos)})
	} else {
		pushResult(ctx, result, pos)
	}
	return nil, nil
}
