// Package opexample is a reference op-plugin demonstrating
// --op-plugins/--explicitly-enabled-opcodes: it registers a new opcode,
// OP_DOUBLE, through the same engine.RegisterOpPlugin entry point any
// third-party op-plugin uses. Grounded on
// original_source/plugins/op_example_bsst_plugin.py's OP_EXAMPLE
// (stacktop + 42), adapted to the duplicate-and-add shape SPEC_FULL names
// for this plugin (pop the top, push top+top) rather than an arbitrary
// constant offset.
package opexample

import (
	"github.com/dgpv/bsst/internal/engine"
	"github.com/dgpv/bsst/internal/value"
)

// Register installs OP_DOUBLE into the engine's opcode dispatch table. It
// has no per-instance state, so it is a package function rather than a
// Plugin value with a Name/hook surface.
func Register() {
	engine.RegisterOpPlugin("DOUBLE", transferDouble)
}

func transferDouble(en *engine.Engine, ctx *engine.Context, pos int) ([]engine.Fork, error) {
	top, err := ctx.Pop()
	if err != nil {
		ctx.Fail(engine.CheckFailKind("double"), err.Error())
		return nil, nil
	}
	ctx.ConsumeValue(top)
	ctx.Stack.Push(value.NewOp(value.KindAdd, top, top))
	return nil, nil
}
