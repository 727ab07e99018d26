// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"strings"

	"github.com/dgpv/bsst/internal/lexer"
	"github.com/dgpv/bsst/internal/value"
)

// Fork is one successor context produced by a transfer function that forks
// execution (branches, dynamic stack access). A transfer function that does
// not fork returns a nil slice and leaves its mutations in the Context it
// was handed.
type Fork struct {
	Ctx  *Context
	Step BranchStep
}

// TransferFunc is the per-opcode contract of spec.md §4.2: given the live
// context at the current program point, mutate it (stack effects,
// published constraints) and optionally return forks.
type TransferFunc func(en *Engine, ctx *Context, pos int) ([]Fork, error)

// OpInfo describes one opcode's dispatch entry, mirroring the table-driven
// style of txscript's opcodeArray.
type OpInfo struct {
	Name string
	Fn   TransferFunc
}

// opcodeTable is built once at init time; Engine.Dispatch looks opcodes up
// by their canonicalized (OP_-stripped, upper-cased) name, matching what
// lexer.Tokenize already produces for KindOpcode tokens.
var opcodeTable = map[string]*OpInfo{}

func register(name string, fn TransferFunc) {
	opcodeTable[name] = &OpInfo{Name: name, Fn: fn}
}

// RegisterOpPlugin installs a transfer function for a new opcode name at
// runtime, the mechanism --op-plugins uses to extend the dispatch table
// beyond the opcodes this package registers at init time.
func RegisterOpPlugin(name string, fn TransferFunc) {
	register(strings.ToUpper(name), fn)
}

func init() {
	registerControlOps()
	registerStackOps()
	registerArithOps()
	registerCryptoOps()
	registerDynamicOps()
	registerIntrospectOps()
}

// lookup returns the opcode info for name, or nil if unknown.
func lookup(name string) *OpInfo {
	return opcodeTable[name]
}

// pushResult pushes v and records it as produced-but-unused at pos; a later
// consumer clears the entry via Context.ConsumeValue.
func pushResult(ctx *Context, v *value.Value, pos int) {
	ctx.Stack.Push(v)
	ctx.MarkProduced(v, pos)
	if ctx.PushHook != nil {
		ctx.PushHook(ctx, pos, v)
	}
}

// badArgs fails ctx with the standard `check_<opcode>_invalid` kind for a
// precondition violation (arity, size, encoding) raised by opName.
func badArgs(ctx *Context, opName, detail string) ([]Fork, error) {
	ctx.Fail(CheckFailKind(opName), detail)
	return nil, nil
}

// tokenOpcodeName extracts the dispatch key for an opcode token.
func tokenOpcodeName(t lexer.Token) string { return t.Raw }
