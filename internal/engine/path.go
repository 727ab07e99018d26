// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"strings"

	"github.com/dgpv/bsst/internal/lexer"
	"github.com/dgpv/bsst/internal/smt"
	"github.com/dgpv/bsst/internal/value"
)

// Path is one fully explored leaf of the execution tree.
type Path struct {
	Ctx *Context
}

// Explorer walks a tokenized script depth-first, forking a new Context at
// every transfer function that returns one, and sealing a Context into a
// Path once its line runs out, it fails, or CLEANSTACK/final-truth checks
// settle it.
type Explorer struct {
	En    *Engine
	Lines []lexer.Line

	// Aliases maps a witness alias target (as named by a bsst-name-alias
	// directive) to the display alias string transferIf/transferVerify's
	// BranchStep labels and value.Value.Display calls read back via the
	// witness's own Alias field once allocated.
	Aliases map[string]string

	Paths []*Path
}

// NewExplorer builds an Explorer over lines, ready to Run from an empty root
// context.
func NewExplorer(en *Engine, lines []lexer.Line) *Explorer {
	return &Explorer{En: en, Lines: lines, Aliases: map[string]string{}}
}

// Run explores every reachable path and returns the resulting leaves.
func (ex *Explorer) Run() []*Path {
	root := NewRootContext()
	if ex.En.Opts.Z3Enabled {
		root.Solver = ex.En.SMT.NewSession(ex.En.Mode)
	}
	if h, ok := ex.En.Hooks.(PushDataHooks); ok {
		root.PushHook = h.PushData
	}
	ex.walk(root, 0, 0)
	return ex.Paths
}

func (ex *Explorer) walk(ctx *Context, lineIdx, tokIdx int) {
	for lineIdx < len(ex.Lines) {
		if ctx.Failed() {
			// A fork may arrive already sealed (e.g. the dynamic-access
			// "path was not explored" marker), in which case it must not
			// run another line's directives or opcodes at all.
			ex.seal(ctx)
			return
		}

		line := ex.Lines[lineIdx]

		if tokIdx > 0 {
			// A fork resumed partway through this line; its directives
			// already ran before the line's first token.
		} else if err := ex.applyDirectives(ctx, line); err != nil {
			ctx.Fail(FailUntrackedConstraint, err.Error())
			ex.seal(ctx)
			return
		}
		if ctx.Failed() {
			ex.seal(ctx)
			return
		}

		for i := tokIdx; i < len(line.Tokens); i++ {
			tok := line.Tokens[i]
			forks, err := ex.step(ctx, line.Number, tok)
			if err != nil {
				ctx.Fail(CheckFailKind(strings.ToLower(tok.Raw)), err.Error())
				ex.seal(ctx)
				return
			}
			if ctx.Failed() {
				ex.seal(ctx)
				return
			}
			if len(forks) > 0 {
				for _, f := range forks {
					ex.walk(f.Ctx, lineIdx, i+1)
				}
				return
			}
		}
		tokIdx = 0
		lineIdx++
	}
	ex.finalize(ctx)
}

// step dispatches a single token at the given source line, gating
// non-control-flow opcodes and data pushes on the branch being live.
func (ex *Explorer) step(ctx *Context, line int, tok lexer.Token) ([]Fork, error) {
	if tok.Kind == lexer.KindOpcode {
		name := tokenOpcodeName(tok)
		if !ctx.isBranchExecuting() && !isControlFlowOpcode(name) {
			return nil, nil
		}
		return ex.En.Dispatch(name, ctx, line)
	}

	if !ctx.isBranchExecuting() {
		return nil, nil
	}
	switch tok.Kind {
	case lexer.KindLiteral:
		pushResult(ctx, value.NewLiteral(tok.Bytes), line)
	case lexer.KindPlaceholder:
		pushResult(ctx, value.NewPlaceholder(tok.Name), line)
	}
	return nil, nil
}

// applyDirectives resolves every directive trailing line against ctx,
// binding data references, recording witness-alias targets, and folding
// assertion/assumption expressions into path predicates and assumptions.
func (ex *Explorer) applyDirectives(ctx *Context, line lexer.Line) error {
	// Directives only make sense against live values, so a dead branch skips
	// them; the line's opcodes still go through step, which lets
	// IF/NOTIF/ELSE/ENDIF keep the nesting balanced there.
	if !ctx.isBranchExecuting() {
		return nil
	}
	for _, d := range line.Directives {
		switch d.Kind {
		case lexer.DirectiveDataRef:
			top, err := ctx.PeekTop()
			if err != nil {
				return fmt.Errorf("=>%s at line %d: %v", d.Name, line.Number, err)
			}
			ctx.BindDataRef(d.Name, top, line.Number)

		case lexer.DirectiveNameAlias:
			ex.Aliases[d.Target] = d.Name
			var idx int
			if _, err := fmt.Sscanf(d.Target, "wit%d", &idx); err == nil {
				value.NewWitness(idx, d.Name).Alias = d.Name
			} else if v, err := ex.resolveTarget(ctx, d.Target); err == nil && v.Kind == value.KindWitness {
				v.Alias = d.Name
			}

		case lexer.DirectiveAssert, lexer.DirectiveAssertSize:
			target, err := ex.resolveTarget(ctx, d.Target)
			if err != nil {
				return err
			}
			if d.Kind == lexer.DirectiveAssertSize {
				target = value.NewOp(value.KindSize, target)
			}
			terms, err := ParseExpression(d.Expression)
			if err != nil {
				return fmt.Errorf("line %d: %v", line.Number, err)
			}
			pred := BuildConstraint(terms, target)
			ctx.Publish(pred, line.Number)
			ctx.PushPredicate(pred, BranchStep{Opcode: "ASSERT", Position: line.Number, Label: fmt.Sprintf("ASSERT @ %d", line.Number)})

		case lexer.DirectiveAssume, lexer.DirectiveAssumeSize:
			target, err := ex.resolveTarget(ctx, d.Target)
			if err != nil {
				return err
			}
			if d.Kind == lexer.DirectiveAssumeSize {
				target = value.NewOp(value.KindSize, target)
			}
			terms, err := ParseExpression(d.Expression)
			if err != nil {
				return fmt.Errorf("line %d: %v", line.Number, err)
			}
			ctx.Assume(BuildConstraint(terms, target))

		case lexer.DirectivePlugin:
			if ch, ok := ex.En.Hooks.(CommentHooks); ok {
				ch.Comment(ctx, line.Number, d.PluginName, d.PluginArgs)
			}
		}
	}
	return nil
}

// resolveTarget turns an assertion/assumption/name-alias directive's target
// string into the value.Value it names: the bare stack top when empty, a
// `&name` data reference, a `$name` placeholder, or a witness alias bound by
// an earlier bsst-name-alias directive.
func (ex *Explorer) resolveTarget(ctx *Context, target string) (*value.Value, error) {
	if target == "" {
		return ctx.PeekTop()
	}
	if strings.HasPrefix(target, "&") {
		name := target[1:]
		if v, ok := ctx.DataRefs[name]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("unknown data reference %q", target)
	}
	if strings.HasPrefix(target, "$") {
		return value.NewPlaceholder(target[1:]), nil
	}
	for _, v := range ctx.Stack.Items() {
		if v.Kind == value.KindWitness && v.Alias == target {
			return v, nil
		}
	}
	for _, v := range ctx.AltStack.Items() {
		if v.Kind == value.KindWitness && v.Alias == target {
			return v, nil
		}
	}
	return nil, fmt.Errorf("unresolved target %q", target)
}

// finalize runs the end-of-script checks: balanced conditionals, the
// implicit "top of stack must be true" enforcement, and CLEANSTACK. The last
// two are skipped when Opts.IsIncompleteScript is set.
func (ex *Explorer) finalize(ctx *Context) {
	if fh, ok := ex.En.Hooks.(FinalizeHooks); ok {
		fh.PreFinalize(ctx)
	}
	if ctx.Failed() {
		ex.seal(ctx)
		return
	}
	if len(ctx.CondStack) != 0 {
		ctx.Fail(CheckFailKind("endif"), "script ends with an unbalanced IF/NOTIF")
		ex.seal(ctx)
		return
	}

	if ex.En.Opts.IsIncompleteScript {
		ctx.Seal()
		if fh, ok := ex.En.Hooks.(FinalizeHooks); ok {
			fh.PostFinalize(ctx)
		}
		ex.seal(ctx)
		return
	}

	top, err := ctx.Pop()
	if err != nil {
		ctx.Fail(FailBranchConditionInvalid, "script finished with an empty stack")
		ex.seal(ctx)
		return
	}
	ctx.ConsumeValue(top)
	pred := value.NewOp(value.KindBool, top)
	ctx.Publish(pred, -1)
	ctx.PushPredicate(pred, BranchStep{Opcode: "FINAL", Position: -1, Label: "final stack top is true"})

	if ex.En.Opts.CleanStack && ctx.Stack.Depth() != 0 {
		ctx.Fail(FailBranchConditionInvalid, "CLEANSTACK: extra items left on the stack")
		ex.seal(ctx)
		return
	}

	ctx.Seal()
	if fh, ok := ex.En.Hooks.(FinalizeHooks); ok {
		fh.PostFinalize(ctx)
	}
	ex.seal(ctx)
}

// seal appends ctx to the result set, first dropping it silently if the
// solver can prove its accumulated constraints unsatisfiable: such a path
// is not reachable under any witness assignment and so is not a real path
// at all, successful or failed.
func (ex *Explorer) seal(ctx *Context) {
	if ctx.Solver != nil {
		if res, err := ctx.Solver.CheckSatWith(ctx.AllConstraints()); err == nil && res == smt.Unsat {
			return
		}
	}
	if ctx.Failed() {
		if sh, ok := ex.En.Hooks.(ScriptFailureHooks); ok {
			sh.ScriptFailure(ctx, ctx.Failure.Kind, ctx.Failure.Message)
		}
	}
	ex.Paths = append(ex.Paths, &Path{Ctx: ctx})
}
