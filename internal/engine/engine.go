// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/dgpv/bsst/internal/smt"
	"github.com/dgpv/bsst/internal/value"
)

// Hooks is the subset of the plugin contract (the pre/post-opcode hooks)
// that the engine itself invokes around dispatch; internal/plugin's registry
// implements this by fanning a call out to every loaded plugin in order.
type Hooks interface {
	PreOpcode(ctx *Context, pos int, name string)
	PostOpcode(ctx *Context, pos int, name string)
}

// CommentHooks is implemented by a Hooks value that also wants
// `// bsst-plugin(name): args` directives routed to it; the path explorer
// type-asserts for this rather than widening Hooks itself, since most
// embedders of Hooks (tests, single-purpose wrappers) have no use for it.
type CommentHooks interface {
	Comment(ctx *Context, pos int, name, args string)
}

// PushDataHooks is implemented by a Hooks value that wants to observe every
// value pushed to the main stack, the signal the checksigtrack and
// modelusage reference plugins build on.
type PushDataHooks interface {
	PushData(ctx *Context, pos int, v *value.Value)
}

// FinalizeHooks is implemented by a Hooks value that wants to observe a
// path's end-of-script checks.
type FinalizeHooks interface {
	PreFinalize(ctx *Context)
	PostFinalize(ctx *Context)
}

// ScriptFailureHooks is implemented by a Hooks value that wants to observe
// every path sealed with a failure.
type ScriptFailureHooks interface {
	ScriptFailure(ctx *Context, kind FailKind, message string)
}

// Engine holds the configuration and shared SMT backend a trace run needs.
// All per-path mutable state lives in Context; an Engine is reused across
// every path explored for a given script.
type Engine struct {
	Opts  Options
	SMT   *smt.Backend
	Mode  smt.Mode
	Hooks Hooks
}

// New constructs an Engine ready to trace scripts under opts. The SMT
// backend is constructed unconditionally, even when opts.Z3Enabled is
// false, so callers never have to special-case backend construction; code
// paths that need a solver simply skip opening a Session when the flag is
// off.
func New(opts Options) *Engine {
	return &Engine{
		Opts: opts,
		SMT:  smt.NewBackend(),
		Mode: smt.ModeReset,
	}
}

// Dispatch looks up and invokes the transfer function registered for name at
// program point pos, running any installed hooks around it.
func (en *Engine) Dispatch(name string, ctx *Context, pos int) ([]Fork, error) {
	info := lookup(name)
	if info == nil {
		return nil, ErrUnknownOpcode
	}
	if en.Hooks != nil {
		en.Hooks.PreOpcode(ctx, pos, name)
	}
	forks, err := info.Fn(en, ctx, pos)
	if en.Hooks != nil {
		en.Hooks.PostOpcode(ctx, pos, name)
	}
	return forks, err
}

// isControlFlowOpcode reports whether name must be dispatched even while the
// enclosing branch is not executing, the same exemption txscript documents
// on opcodeIf/opcodeNotIf/opcodeElse/opcodeEndif to keep nesting balanced.
func isControlFlowOpcode(name string) bool {
	switch name {
	case "IF", "NOTIF", "ELSE", "ENDIF":
		return true
	default:
		return false
	}
}
