// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dgpv/bsst/internal/value"
)

// registerDynamicOps exists for symmetry with the other registration
// functions; the opcodes it covers (PICK/ROLL with a symbolic index,
// CHECKMULTISIG with a symbolic pubkey or signature count) are dispatched by
// name through registerStackOps/registerCryptoOps, which fall back into this
// file's dynamicAccess/dynamicCheckMultiSig/dynamicCheckMultiSigM once they
// observe a non-static operand.
func registerDynamicOps() {}

// dynamicAccess implements the sampling loop: enumerate up to
// Opts.MaxSamplesForDynamicAccess distinct satisfying assignments of idxVal
// consistent with the path's accumulated constraints and the stack's
// current depth, and fork one child per sample, each pinning idxVal to that
// concrete value before applying the PICK/ROLL stack effect.
func dynamicAccess(en *Engine, ctx *Context, pos int, opName string, idxVal *value.Value) ([]Fork, error) {
	if !en.Opts.Z3Enabled || ctx.Solver == nil {
		ctx.Fail(FailSolverUnknown, ErrSolverUnavailable.Error())
		return nil, nil
	}

	depth := ctx.Stack.Depth()
	maxN := en.Opts.MaxSamplesForDynamicAccess
	if maxN <= 0 {
		maxN = 16
	}

	rangePred := value.NewOp(value.KindWithin,
		idxVal,
		value.NewLiteral(value.FromScriptNumber(big.NewInt(0))),
		value.NewLiteral(value.FromScriptNumber(big.NewInt(int64(depth)))))
	conjuncts := append(ctx.AllConstraints(), rangePred)

	samples, err := ctx.Solver.EnumerateDistinct(conjuncts, idxVal, maxN+1)
	if err != nil {
		ctx.Fail(FailSolverUnknown, err.Error())
		return nil, nil
	}
	if len(samples) == 0 {
		ctx.Fail(CheckFailKind(opName), "index out of range in every reachable assignment")
		return nil, nil
	}

	// EnumerateDistinct was asked for one extra sample beyond the cap
	// expressly so the cap case can be told apart from the "every feasible
	// value was covered" case (spec.md §4.4 step 4): when it actually
	// returns maxN+1, a next distinct value exists and is reported as an
	// unexplored terminal path rather than silently dropped.
	var nextUnexplored int64
	notExplored := len(samples) > maxN
	if notExplored {
		nextUnexplored = samples[maxN]
		samples = samples[:maxN]
	}

	upper := strings.ToUpper(opName)
	forks := make([]Fork, 0, len(samples)+1)
	for _, s := range samples {
		if s < 0 || int(s) >= depth {
			continue
		}
		child := ctx.Clone()
		eqPred := value.NewOp(value.KindNumEqual, idxVal, value.NewLiteral(value.FromScriptNumber(big.NewInt(s))))
		label := fmt.Sprintf("When %s = %d :: [%s @ %d]", idxVal.String(), s, upper, pos)
		child.PushPredicate(eqPred, BranchStep{Opcode: upper, Position: pos, Label: label})

		var opErr error
		if opName == "pick" {
			opErr = child.Stack.PickN(int(s))
		} else {
			opErr = child.Stack.RollN(int(s))
		}
		if opErr != nil {
			child.Fail(CheckFailKind(opName), opErr.Error())
		}
		forks = append(forks, Fork{Ctx: child, Step: child.BranchTrail[len(child.BranchTrail)-1]})
	}

	if len(forks) == 0 && !notExplored {
		ctx.Fail(CheckFailKind(opName), "no satisfiable index value in range")
		return nil, nil
	}
	if notExplored {
		marker := ctx.Clone()
		label := fmt.Sprintf("When %s = %d, ... :: [%s @ %d]", idxVal.String(), nextUnexplored, upper, pos)
		marker.PushPredicate(value.NewLiteral(value.FromScriptNumber(big.NewInt(1))), BranchStep{Opcode: upper, Position: pos, Label: label})
		marker.Fail(FailPathNotExplored, "the path was not explored")
		forks = append(forks, Fork{Ctx: marker, Step: marker.BranchTrail[len(marker.BranchTrail)-1]})
	}
	return forks, nil
}

// dynamicCheckMultiSig is reached when CHECKMULTISIG's pubkey count cannot be
// read off as a static literal. It enumerates up to
// Opts.MaxSamplesForDynamicAccess distinct satisfying pubkey counts, forks
// one child per sample with nVal pinned to that count and the pubkeys popped
// off it, and rejoins finishCheckMultiSig for the rest of the operands (which
// may itself fork again over a symbolic signature count). This is a nested
// application of the same sampling loop dynamicAccess uses for PICK/ROLL,
// bounded independently on each of the two counts rather than on their
// product directly.
func dynamicCheckMultiSig(en *Engine, ctx *Context, pos int, verify bool, nVal *value.Value) ([]Fork, error) {
	if !en.Opts.Z3Enabled || ctx.Solver == nil {
		ctx.Fail(FailSolverUnknown, ErrSolverUnavailable.Error())
		return nil, nil
	}

	depth := ctx.Stack.Depth()
	maxN := en.Opts.MaxSamplesForDynamicAccess
	if maxN <= 0 {
		maxN = 16
	}

	// A pubkey count must leave room for at least the signature count and
	// the dummy element still to be popped, on top of the consensus cap of
	// 20 pubkeys.
	upperBound := 20
	if room := depth - 2; room < upperBound {
		upperBound = room
	}
	if upperBound < 0 {
		upperBound = -1
	}

	rangePred := value.NewOp(value.KindWithin, nVal,
		value.NewLiteral(value.FromScriptNumber(big.NewInt(0))),
		value.NewLiteral(value.FromScriptNumber(big.NewInt(int64(upperBound+1)))))
	conjuncts := append(ctx.AllConstraints(), rangePred)

	samples, err := ctx.Solver.EnumerateDistinct(conjuncts, nVal, maxN+1)
	if err != nil {
		ctx.Fail(FailSolverUnknown, err.Error())
		return nil, nil
	}
	if len(samples) == 0 {
		ctx.Fail(CheckFailKind("checkmultisig"), "pubkey count out of range in every reachable assignment")
		return nil, nil
	}

	var nextUnexplored int64
	notExplored := len(samples) > maxN
	if notExplored {
		nextUnexplored = samples[maxN]
		samples = samples[:maxN]
	}

	var forks []Fork
	for _, s := range samples {
		if s < 0 || int(s) > upperBound {
			continue
		}
		nn := int(s)
		child := ctx.Clone()
		eqPred := value.NewOp(value.KindNumEqual, nVal, value.NewLiteral(value.FromScriptNumber(big.NewInt(s))))
		label := fmt.Sprintf("When pubkey count (%s) = %d :: [CHECKMULTISIG]", nVal.String(), nn)
		child.PushPredicate(eqPred, BranchStep{Opcode: "CHECKMULTISIG", Position: pos, Label: label})

		pubKeys := make([]*value.Value, nn)
		popFailed := false
		for i := nn - 1; i >= 0; i-- {
			v, ok := popOperand(child, "checkmultisig")
			if !ok {
				popFailed = true
				break
			}
			pubKeys[i] = v
		}
		if popFailed {
			forks = append(forks, Fork{Ctx: child, Step: child.BranchTrail[len(child.BranchTrail)-1]})
			continue
		}

		childForks, err := finishCheckMultiSig(en, child, pos, verify, pubKeys)
		if err != nil {
			return nil, err
		}
		if len(childForks) == 0 {
			forks = append(forks, Fork{Ctx: child, Step: child.BranchTrail[len(child.BranchTrail)-1]})
		} else {
			forks = append(forks, childForks...)
		}
	}

	if len(forks) == 0 && !notExplored {
		ctx.Fail(CheckFailKind("checkmultisig"), "no satisfiable pubkey count in range")
		return nil, nil
	}
	if notExplored {
		marker := ctx.Clone()
		label := fmt.Sprintf("When pubkey count (%s) = %d, ... :: [CHECKMULTISIG]", nVal.String(), nextUnexplored)
		marker.PushPredicate(value.NewLiteral(value.FromScriptNumber(big.NewInt(1))), BranchStep{Opcode: "CHECKMULTISIG", Position: pos, Label: label})
		marker.Fail(FailPathNotExplored, "the path was not explored")
		forks = append(forks, Fork{Ctx: marker, Step: marker.BranchTrail[len(marker.BranchTrail)-1]})
	}
	return forks, nil
}

// dynamicCheckMultiSigM is the signature-count analogue of
// dynamicCheckMultiSig: pubKeys has already been popped (its length is the
// now-concrete pubkey count), and mVal is the signature count operand that
// failed to read off as a literal. Each sampled count forks a child with
// mVal pinned and rejoins finishCheckMultiSigWithCounts to pop the
// signatures and the dummy element.
func dynamicCheckMultiSigM(en *Engine, ctx *Context, pos int, verify bool, pubKeys []*value.Value, mVal *value.Value) ([]Fork, error) {
	if !en.Opts.Z3Enabled || ctx.Solver == nil {
		ctx.Fail(FailSolverUnknown, ErrSolverUnavailable.Error())
		return nil, nil
	}

	nn := len(pubKeys)
	depth := ctx.Stack.Depth()
	maxN := en.Opts.MaxSamplesForDynamicAccess
	if maxN <= 0 {
		maxN = 16
	}

	// A signature count can be at most the pubkey count, and must leave
	// room for the dummy element still to be popped.
	upperBound := nn
	if room := depth - 1; room < upperBound {
		upperBound = room
	}
	if upperBound < 0 {
		upperBound = -1
	}

	rangePred := value.NewOp(value.KindWithin, mVal,
		value.NewLiteral(value.FromScriptNumber(big.NewInt(0))),
		value.NewLiteral(value.FromScriptNumber(big.NewInt(int64(upperBound+1)))))
	conjuncts := append(ctx.AllConstraints(), rangePred)

	samples, err := ctx.Solver.EnumerateDistinct(conjuncts, mVal, maxN+1)
	if err != nil {
		ctx.Fail(FailSolverUnknown, err.Error())
		return nil, nil
	}
	if len(samples) == 0 {
		ctx.Fail(CheckFailKind("checkmultisig"), "signature count out of range in every reachable assignment")
		return nil, nil
	}

	var nextUnexplored int64
	notExplored := len(samples) > maxN
	if notExplored {
		nextUnexplored = samples[maxN]
		samples = samples[:maxN]
	}

	var forks []Fork
	for _, s := range samples {
		if s < 0 || int(s) > upperBound {
			continue
		}
		mm := int(s)
		child := ctx.Clone()
		eqPred := value.NewOp(value.KindNumEqual, mVal, value.NewLiteral(value.FromScriptNumber(big.NewInt(s))))
		label := fmt.Sprintf("When signature count (%s) = %d :: [CHECKMULTISIG]", mVal.String(), mm)
		child.PushPredicate(eqPred, BranchStep{Opcode: "CHECKMULTISIG", Position: pos, Label: label})

		childForks, err := finishCheckMultiSigWithCounts(en, child, pos, verify, pubKeys, mm)
		if err != nil {
			return nil, err
		}
		if len(childForks) == 0 {
			forks = append(forks, Fork{Ctx: child, Step: child.BranchTrail[len(child.BranchTrail)-1]})
		} else {
			forks = append(forks, childForks...)
		}
	}

	if len(forks) == 0 && !notExplored {
		ctx.Fail(CheckFailKind("checkmultisig"), "no satisfiable signature count in range")
		return nil, nil
	}
	if notExplored {
		marker := ctx.Clone()
		label := fmt.Sprintf("When signature count (%s) = %d, ... :: [CHECKMULTISIG]", mVal.String(), nextUnexplored)
		marker.PushPredicate(value.NewLiteral(value.FromScriptNumber(big.NewInt(1))), BranchStep{Opcode: "CHECKMULTISIG", Position: pos, Label: label})
		marker.Fail(FailPathNotExplored, "the path was not explored")
		forks = append(forks, Fork{Ctx: marker, Step: marker.BranchTrail[len(marker.BranchTrail)-1]})
	}
	return forks, nil
}
