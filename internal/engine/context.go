// Copyright (c) 2013-2015 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/dgpv/bsst/internal/smt"
	"github.com/dgpv/bsst/internal/value"
)

// CondValue is one entry of a Context's conditional-execution stack, mirroring
// txscript's OpCondTrue/OpCondFalse/OpCondSkip.
type CondValue int

const (
	CondTrue CondValue = iota
	CondFalse
	CondSkip
)

// EnforcementFlag is a bit in an Enforcement's flag set.
type EnforcementFlag int

const (
	// FlagAlwaysTrue marks an enforcement that report.LiftEnforcements
	// found, with the same position and predicate, on every valid path (the
	// "<*>" report marker). No solver check that the predicate is
	// tautologically true is made.
	FlagAlwaysTrue EnforcementFlag = 1 << iota
	// FlagPathLocalAlwaysTrue marks an enforcement proven tautologically
	// true within a single path but not lifted to all paths (the "{*}"
	// report marker).
	FlagPathLocalAlwaysTrue
)

// Enforcement is a predicate the script requires to hold for the owning
// path to be considered valid.
type Enforcement struct {
	Predicate *value.Value
	Position  int
	Flags     EnforcementFlag
}

// Equal reports whether two enforcements describe the same constraint at the
// same source position, the identity used when lifting shared enforcements
// up the path tree (spec.md §3 "Enforcement").
func (e Enforcement) Equal(o Enforcement) bool {
	return e.Position == o.Position && e.Predicate.String() == o.Predicate.String()
}

// BranchStep records one forced branch decision on the path from the root to
// this context, used to render the path label ("IF @pos : True", "When
// wit0 = 0 :: [PICK @pos]", ...).
type BranchStep struct {
	Opcode   string
	Position int
	Label    string
}

// UnusedValue is a value that was produced but never consumed or observed by
// the time the path finalized.
type UnusedValue struct {
	Value    *value.Value
	Position int
}

// DataRefBinding is one `// =>name` binding accumulated on a path.
type DataRefBinding struct {
	Name     string
	Value    *value.Value
	Position int
}

// SigCheckOp records one CHECKSIG-family opcode's result, in source order,
// for the checksigtrack reference plugin's "was this signature result ever
// required true" heuristic.
type SigCheckOp struct {
	Opcode   string
	Position int
	Result   *value.Value
}

// Context is the symbolic execution state for one traced path. It is the
// unit forked at every branching transfer function (spec.md §3 "Execution
// context"); ownership of a Context is exclusive to the path that holds it
// once forked.
type Context struct {
	Stack    Stack
	AltStack Stack

	PC   int
	Line int

	Enforcements []Enforcement
	Warnings     []string
	Failure      *Failure

	WitnessUsed int
	NextWitness int

	Unused  map[int]UnusedValue
	DataRefs map[string]*value.Value

	Assumptions []*value.Value
	BranchTrail []BranchStep

	// SigCheckOps accumulates every CHECKSIG-family result produced on this
	// path, read by the checksigtrack reference plugin.
	SigCheckOps []SigCheckOp

	// PathPredicate is the conjunction of all branch conditions and
	// assumptions that must hold for this context to be reachable; it is
	// what gets asserted into a fresh solver session in reset mode, or
	// pushed as a frame in incremental mode.
	PathPredicate []*value.Value

	// CondStack tracks nested IF/NOTIF/ELSE/ENDIF state, exactly as
	// txscript's Engine.condStack does; transferIf/transferNotIf only fork
	// when the branch they're nested in is executing, and every other
	// opcode's dispatch is gated on isBranchExecuting by the path explorer.
	CondStack []CondValue

	// Solver is the SMT session backing this path, set by the path explorer
	// when Z3 is enabled. Dynamic-stack-access transfer functions use it to
	// enumerate distinct index assignments; it is nil when solving is off.
	Solver *smt.Session

	// PushHook, when set by the path explorer, is invoked by pushResult for
	// every value pushed to the main stack, the hook point the checksigtrack
	// and modelusage reference plugins observe pushes through.
	PushHook func(ctx *Context, pos int, v *value.Value)

	sealed bool
}

// Failure records why a path was sealed unsuccessfully.
type Failure struct {
	Kind    FailKind
	Message string
}

// NewRootContext returns the empty context a trace starts from.
func NewRootContext() *Context {
	return &Context{
		Unused:   map[int]UnusedValue{},
		DataRefs: map[string]*value.Value{},
	}
}

// Clone returns an independent copy of c suitable for handing to a forked
// child; slices and maps are deep-copied one level since children mutate
// them independently, but the value.Value leaves they reference are shared
// (they are immutable).
func (c *Context) Clone() *Context {
	cp := &Context{
		Stack:       c.Stack.Clone(),
		AltStack:    c.AltStack.Clone(),
		PC:          c.PC,
		Line:        c.Line,
		WitnessUsed: c.WitnessUsed,
		NextWitness: c.NextWitness,
		Solver:      c.Solver,
		PushHook:    c.PushHook,
		sealed:      c.sealed,
	}
	cp.CondStack = append([]CondValue(nil), c.CondStack...)
	cp.Enforcements = append([]Enforcement(nil), c.Enforcements...)
	cp.Warnings = append([]string(nil), c.Warnings...)
	if c.Failure != nil {
		f := *c.Failure
		cp.Failure = &f
	}
	cp.Unused = make(map[int]UnusedValue, len(c.Unused))
	for k, v := range c.Unused {
		cp.Unused[k] = v
	}
	cp.DataRefs = make(map[string]*value.Value, len(c.DataRefs))
	for k, v := range c.DataRefs {
		cp.DataRefs[k] = v
	}
	cp.Assumptions = append([]*value.Value(nil), c.Assumptions...)
	cp.BranchTrail = append([]BranchStep(nil), c.BranchTrail...)
	cp.SigCheckOps = append([]SigCheckOp(nil), c.SigCheckOps...)
	cp.PathPredicate = append([]*value.Value(nil), c.PathPredicate...)
	return cp
}

// NewWitness allocates the next witness variable, bumping WitnessUsed the
// first time each distinct index is referenced.
func (c *Context) NewWitness(alias string) *value.Value {
	idx := c.NextWitness
	c.NextWitness++
	c.WitnessUsed++
	return value.NewWitness(idx, alias)
}

// Pop removes and returns the top stack item, synthesizing a fresh witness
// value when the stack is empty instead of failing: an empty stack at pop
// time means the spender is free to supply anything there, which is exactly
// where witnesses, numbered by first appearance, get allocated.
func (c *Context) Pop() (*value.Value, error) {
	if c.Stack.Depth() == 0 {
		return c.NewWitness(""), nil
	}
	return c.Stack.Pop()
}

// PeekTop is Pop's non-removing counterpart, used by opcodes (SIZE,
// CHECKLOCKTIMEVERIFY, IFDUP, ...) that inspect the top of stack without
// consuming it.
func (c *Context) PeekTop() (*value.Value, error) {
	if c.Stack.Depth() == 0 {
		v := c.NewWitness("")
		c.Stack.Push(v)
		return v, nil
	}
	return c.Stack.Peek(0)
}

// Publish appends an enforcement at the current program point.
func (c *Context) Publish(pred *value.Value, position int) {
	c.Enforcements = append(c.Enforcements, Enforcement{Predicate: pred, Position: position})
}

// Warn appends a warning string to the path.
func (c *Context) Warn(w string) {
	c.Warnings = append(c.Warnings, w)
}

// Fail seals the context as failed with the given kind/message. Once set,
// subsequent transfer functions must stop mutating the context.
func (c *Context) Fail(kind FailKind, message string) {
	if c.Failure == nil {
		c.Failure = &Failure{Kind: kind, Message: message}
	}
	c.sealed = true
}

// Failed reports whether the path has been sealed with a failure.
func (c *Context) Failed() bool { return c.Failure != nil }

// Sealed reports whether the context is done being mutated, either through
// finalization or failure.
func (c *Context) Sealed() bool { return c.sealed }

// Seal marks the context as successfully finalized.
func (c *Context) Seal() { c.sealed = true }

// isBranchExecuting reports whether every enclosing IF/NOTIF is currently on
// its taken side, i.e. whether ordinary (non-control-flow) opcodes should
// have any effect at all at this program point.
func (c *Context) isBranchExecuting() bool {
	for _, cv := range c.CondStack {
		if cv != CondTrue {
			return false
		}
	}
	return true
}

// RecordBranch appends a branch step to the trail without adding a path
// predicate conjunct, used when a branch decision is already statically
// known and so needs no solver-visible constraint.
func (c *Context) RecordBranch(step BranchStep) {
	c.BranchTrail = append(c.BranchTrail, step)
}

// ConsumeValue drops the unused-tracking entry for v, if it is currently
// tracked as produced-but-unused. Hash-consing makes pointer identity
// equivalent to structural identity, so this is a plain map scan rather than
// needing the producing position.
func (c *Context) ConsumeValue(v *value.Value) {
	for k, uv := range c.Unused {
		if uv.Value == v {
			delete(c.Unused, k)
		}
	}
}

// MarkProduced records a freshly produced value as unused, keyed by its
// producing position; Consume removes the tracking entry when the value is
// later popped or otherwise observed.
func (c *Context) MarkProduced(v *value.Value, position int) {
	c.Unused[position] = UnusedValue{Value: v, Position: position}
}

// Consume drops the unused-tracking entry for the position that produced v,
// if any. Positions, not values, are the key since the same literal may be
// produced at multiple points.
func (c *Context) Consume(position int) {
	delete(c.Unused, position)
}

// BindDataRef records a `=>name` binding, disambiguating with an apostrophe
// suffix if name is already bound to a different value on this path.
func (c *Context) BindDataRef(name string, v *value.Value, position int) string {
	finalName := name
	for {
		existing, ok := c.DataRefs[finalName]
		if !ok || existing.String() == v.String() {
			break
		}
		finalName += "'"
	}
	c.DataRefs[finalName] = v
	return finalName
}

// RecordSigCheck appends a CHECKSIG-family result to the path's signature
// tracking list.
func (c *Context) RecordSigCheck(opcode string, position int, result *value.Value) {
	c.SigCheckOps = append(c.SigCheckOps, SigCheckOp{Opcode: opcode, Position: position, Result: result})
}

// Assume attaches a global assumption expression.
func (c *Context) Assume(pred *value.Value) {
	c.Assumptions = append(c.Assumptions, pred)
}

// PushPredicate extends the path predicate with an additional conjunct,
// recording the branch step that introduced it.
func (c *Context) PushPredicate(pred *value.Value, step BranchStep) {
	c.PathPredicate = append(c.PathPredicate, pred)
	c.BranchTrail = append(c.BranchTrail, step)
}

// AllConstraints returns every conjunct that must hold for this path: the
// path predicate, the global assumptions, and every published enforcement's
// predicate.
func (c *Context) AllConstraints() []*value.Value {
	out := make([]*value.Value, 0, len(c.PathPredicate)+len(c.Assumptions)+len(c.Enforcements))
	out = append(out, c.PathPredicate...)
	out = append(out, c.Assumptions...)
	for _, e := range c.Enforcements {
		out = append(out, e.Predicate)
	}
	return out
}
