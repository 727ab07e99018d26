// Package checksigtrack is a reference plugin tracking whether every
// non-VERIFY CHECKSIG-family result on a path is ever required true by a
// later enforcement (a VERIFY-family check, an assertion, or the final
// stack-top check), warning when one is dropped on the floor. IF/NOTIF
// conditions are not enforcements and do not count.
// Grounded on original_source/plugins/checksig_track_bsst_plugin.py's
// pre_finalize hook, re-expressed without that file's Z3-model-summation
// approach: since hash-consing makes expression-tree identity exact,
// "was this result ever checked" reduces to a pointer-identity walk over
// every later enforcement's predicate tree rather than an extra solver
// query (see DESIGN.md "checksigtrack simplification").
package checksigtrack

import (
	"github.com/dgpv/bsst/internal/engine"
	"github.com/dgpv/bsst/internal/value"
)

// Plugin implements engine.FinalizeHooks via PreFinalize.
type Plugin struct{}

// New returns a ready-to-register checksigtrack plugin.
func New() *Plugin { return &Plugin{} }

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "checksigtrack" }

// PreFinalize implements engine.FinalizeHooks.
func (p *Plugin) PreFinalize(ctx *engine.Context) {
	for _, op := range ctx.SigCheckOps {
		if op.Opcode == "CHECKSIGVERIFY" || op.Opcode == "CHECKMULTISIGVERIFY" {
			continue
		}
		if !enforced(ctx, op.Result) {
			ctx.Warn(string(engine.WarnPossibleSuccessNoSig))
		}
	}
}

// PostFinalize implements engine.FinalizeHooks; nothing to do after the
// final checks run.
func (p *Plugin) PostFinalize(ctx *engine.Context) {}

func enforced(ctx *engine.Context, result *value.Value) bool {
	for _, e := range ctx.Enforcements {
		if references(e.Predicate, result) {
			return true
		}
	}
	// PreFinalize runs before the final stack-top check is published, so the
	// value that check will require true is consulted directly.
	if top, err := ctx.Stack.Peek(0); err == nil && references(top, result) {
		return true
	}
	return false
}

func references(v, target *value.Value) bool {
	if v == target {
		return true
	}
	for _, op := range v.Operands {
		if references(op, target) {
			return true
		}
	}
	return false
}
