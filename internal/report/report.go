// Package report renders a completed path tree into a section-by-section
// text format: an unexplored-paths note when there are any, then valid
// paths, enforced constraints, unused values, witness usage, warnings,
// failures, and data references. The decoded script itself is not rendered.
// There is no single teacher file this is
// grounded on (txscript never renders a report; it just returns an error),
// so the shape here follows the teacher's general text-building idiom
// (strings.Builder plus fmt.Fprintf, as in engine/error.go's message
// construction) rather than any one source file.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgpv/bsst/internal/engine"
	"github.com/dgpv/bsst/internal/value"
)

// Options controls report rendering, mirroring the subset of the settings
// table that affects output rather than analysis (spec.md §6).
type Options struct {
	ReportModelValueSizes      bool
	SortModelValues            bool
	HideAlwaysTrueEnforcements bool
	Display                    value.DisplayOptions
}

// PathLabel renders a path's branch trail as the "[Root]" / "IF @0 : True,
// PICK @3 : 1" style label used throughout the report sections.
func PathLabel(p *engine.Path) string {
	if len(p.Ctx.BranchTrail) == 0 {
		return "[Root]"
	}
	labels := make([]string, len(p.Ctx.BranchTrail))
	for i, step := range p.Ctx.BranchTrail {
		labels[i] = step.Label
	}
	return strings.Join(labels, ", ")
}

// Render builds the full report text for a completed exploration.
func Render(paths []*engine.Path, unexplored int, opts Options) string {
	var b strings.Builder

	if unexplored > 0 {
		fmt.Fprintf(&b, "Note: %d path(s) were not explored (dynamic-access fanout cap reached).\n\n", unexplored)
	}

	fmt.Fprintln(&b, "=== Valid paths ===")
	valid := validPaths(paths)
	if len(valid) == 0 {
		fmt.Fprintln(&b, "(none)")
	}
	for _, p := range valid {
		fmt.Fprintf(&b, "Path %s:\n", PathLabel(p))
		fmt.Fprintf(&b, "  stack: %s\n", renderStack(p, opts))
	}

	fmt.Fprintln(&b, "\n=== Enforced constraints per path ===")
	for _, p := range valid {
		fmt.Fprintf(&b, "Path %s:\n", PathLabel(p))
		for _, e := range enforcementsToShow(p, opts) {
			fmt.Fprintf(&b, "  %s%s\n", renderEnforcementMarker(e), enforcementLabel(e, opts))
		}
	}

	fmt.Fprintln(&b, "\n=== Unused values ===")
	renderUnusedValues(&b, valid, opts)

	fmt.Fprintln(&b, "\n=== Witness usage ===")
	for _, p := range valid {
		fmt.Fprintf(&b, "Path %s: %d witness(es) used\n", PathLabel(p), p.Ctx.WitnessUsed)
	}

	fmt.Fprintln(&b, "\n=== Warnings per path ===")
	for _, p := range valid {
		for _, w := range p.Ctx.Warnings {
			fmt.Fprintf(&b, "Path %s: %s\n", PathLabel(p), w)
		}
	}

	fmt.Fprintln(&b, "\n=== Failures per path ===")
	for _, p := range paths {
		if !p.Ctx.Failed() {
			continue
		}
		fmt.Fprintf(&b, "Path %s: [%s] %s\n", PathLabel(p), p.Ctx.Failure.Kind, p.Ctx.Failure.Message)
	}

	fmt.Fprintln(&b, "\n=== Data references ===")
	for _, p := range valid {
		names := make([]string, 0, len(p.Ctx.DataRefs))
		for name := range p.Ctx.DataRefs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "Path %s: &%s = %s\n", PathLabel(p), name, p.Ctx.DataRefs[name].Display(opts.Display))
		}
	}

	return b.String()
}

func validPaths(paths []*engine.Path) []*engine.Path {
	out := make([]*engine.Path, 0, len(paths))
	for _, p := range paths {
		if !p.Ctx.Failed() {
			out = append(out, p)
		}
	}
	return out
}

func renderStack(p *engine.Path, opts Options) string {
	items := p.Ctx.Stack.Items()
	if len(items) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = v.Display(opts.Display)
	}
	return strings.Join(parts, " :: ")
}

// enforcementsToShow applies --hide-always-true-enforcements before display.
func enforcementsToShow(p *engine.Path, opts Options) []engine.Enforcement {
	if !opts.HideAlwaysTrueEnforcements {
		return p.Ctx.Enforcements
	}
	out := make([]engine.Enforcement, 0, len(p.Ctx.Enforcements))
	for _, e := range p.Ctx.Enforcements {
		if e.Flags&engine.FlagAlwaysTrue != 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}

// renderEnforcementMarker produces the "<*>"/"{*}" prefix markers for
// globally and path-locally always-true enforcements.
func renderEnforcementMarker(e engine.Enforcement) string {
	switch {
	case e.Flags&engine.FlagAlwaysTrue != 0:
		return "<*> "
	case e.Flags&engine.FlagPathLocalAlwaysTrue != 0:
		return "{*} "
	default:
		return ""
	}
}

func enforcementLabel(e engine.Enforcement, opts Options) string {
	pos := "END"
	if e.Position >= 0 {
		pos = fmt.Sprintf("%d", e.Position)
	}
	return fmt.Sprintf("%s @ %s", e.Predicate.Display(opts.Display), pos)
}

// LiftEnforcements marks an enforcement FlagAlwaysTrue across every valid
// path when the identical (position, predicate) pair appears, unmodified,
// on all of them; with fewer than two valid paths nothing is marked. It
// never sets FlagPathLocalAlwaysTrue. This only classifies; it never drops
// an enforcement from the model.
func LiftEnforcements(paths []*engine.Path) {
	valid := validPaths(paths)
	if len(valid) < 2 {
		return
	}
	counts := map[string]int{}
	for _, p := range valid {
		seen := map[string]bool{}
		for _, e := range p.Ctx.Enforcements {
			key := enforcementKey(e)
			if !seen[key] {
				counts[key]++
				seen[key] = true
			}
		}
	}
	for _, p := range valid {
		for i := range p.Ctx.Enforcements {
			key := enforcementKey(p.Ctx.Enforcements[i])
			if counts[key] == len(valid) {
				p.Ctx.Enforcements[i].Flags |= engine.FlagAlwaysTrue
			}
		}
	}
}

func enforcementKey(e engine.Enforcement) string {
	return fmt.Sprintf("%d:%s", e.Position, e.Predicate.String())
}

func renderUnusedValues(b *strings.Builder, valid []*engine.Path, opts Options) {
	for _, p := range valid {
		positions := make([]int, 0, len(p.Ctx.Unused))
		for pos := range p.Ctx.Unused {
			positions = append(positions, pos)
		}
		sort.Ints(positions)
		for _, pos := range positions {
			uv := p.Ctx.Unused[pos]
			fmt.Fprintf(b, "Path %s: %s from %d:L1\n", PathLabel(p), uv.Value.Display(opts.Display), uv.Position)
		}
	}
}
