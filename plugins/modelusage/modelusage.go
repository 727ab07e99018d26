// Package modelusage is a reference plugin that cross-references which
// witness (model) values were ever referenced by a published enforcement
// against which were only ever computed and left on the stack, logging a
// warning for the latter. Grounded on
// original_source/plugins/model_value_usage_track_bsst_plugin.py's
// post_finalize hook, simplified from that file's full per-value-kind
// usage classification (signature/pubkey/preimage/enforcement-dependency
// breakdown) down to a single "ever enforced" check, since this module has
// no model-value-sample report section of its own to attach the richer
// breakdown to (see DESIGN.md "modelusage simplification").
package modelusage

import (
	"github.com/dgpv/bsst/internal/bsstlog"
	"github.com/dgpv/bsst/internal/engine"
	"github.com/dgpv/bsst/internal/value"
)

// Plugin implements plugin.ReportHooks via ReportEnd.
type Plugin struct{}

// New returns a ready-to-register modelusage plugin.
func New() *Plugin { return &Plugin{} }

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "modelusage" }

// ReportStart implements plugin.ReportHooks; nothing to do before rendering.
func (p *Plugin) ReportStart() {}

// ReportEnd implements plugin.ReportHooks.
func (p *Plugin) ReportEnd(paths []*engine.Path) {
	for _, path := range paths {
		ctx := path.Ctx
		if ctx.Failed() {
			continue
		}
		seen := map[*value.Value]bool{}
		for _, e := range ctx.Enforcements {
			markDeps(e.Predicate, seen)
		}
		for _, item := range ctx.Stack.Items() {
			if item.Kind == value.KindWitness && !seen[item] {
				bsstlog.Warnf("modelusage: %s is computed but never referenced by any enforcement", item.Display(value.DisplayOptions{}))
			}
		}
	}
}

func markDeps(v *value.Value, seen map[*value.Value]bool) {
	if seen[v] {
		return
	}
	seen[v] = true
	for _, op := range v.Operands {
		markDeps(op, seen)
	}
}
