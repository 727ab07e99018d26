package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgpv/bsst/internal/value"
)

func TestContextPopSynthesizesWitnessOnUnderflow(t *testing.T) {
	ctx := NewRootContext()
	v, err := ctx.Pop()
	require.NoError(t, err)
	require.Equal(t, value.KindWitness, v.Kind)
	require.Equal(t, 1, ctx.WitnessUsed)
	require.Equal(t, 0, ctx.Stack.Depth(), "a synthesized witness from Pop is not left on the stack")
}

func TestContextPeekTopLeavesWitnessOnStack(t *testing.T) {
	ctx := NewRootContext()
	v, err := ctx.PeekTop()
	require.NoError(t, err)
	require.Equal(t, value.KindWitness, v.Kind)
	require.Equal(t, 1, ctx.Stack.Depth(), "PeekTop's synthesized witness stays on the stack")

	again, err := ctx.PeekTop()
	require.NoError(t, err)
	require.True(t, again == v, "peeking twice in a row must not allocate a second witness")
}

func TestContextWitnessesNumberedByFirstAppearance(t *testing.T) {
	ctx := NewRootContext()
	first, _ := ctx.Pop()
	second, _ := ctx.Pop()
	require.NotEqual(t, first.WitnessIndex, second.WitnessIndex)
	require.Equal(t, 0, first.WitnessIndex)
	require.Equal(t, 1, second.WitnessIndex)
}

func TestContextCloneIsIndependent(t *testing.T) {
	ctx := NewRootContext()
	ctx.Stack.Push(value.NewLiteral([]byte{1}))
	ctx.Publish(value.NewLiteral([]byte{1}), 10)
	ctx.MarkProduced(value.NewLiteral([]byte{2}), 11)
	ctx.BindDataRef("x", value.NewLiteral([]byte{3}), 12)

	clone := ctx.Clone()
	clone.Stack.Push(value.NewLiteral([]byte{9}))
	clone.Publish(value.NewLiteral([]byte{4}), 20)
	clone.Unused[99] = UnusedValue{Value: value.NewLiteral([]byte{5}), Position: 99}
	clone.DataRefs["y"] = value.NewLiteral([]byte{6})

	require.Equal(t, 1, ctx.Stack.Depth())
	require.Equal(t, 2, clone.Stack.Depth())
	require.Len(t, ctx.Enforcements, 1)
	require.Len(t, clone.Enforcements, 2)
	require.Len(t, ctx.Unused, 1)
	require.Len(t, clone.Unused, 2)
	require.Len(t, ctx.DataRefs, 1)
	require.Len(t, clone.DataRefs, 2)
}

func TestContextClonePreservesPushHook(t *testing.T) {
	ctx := NewRootContext()
	called := false
	ctx.PushHook = func(c *Context, pos int, v *value.Value) { called = true }

	clone := ctx.Clone()
	require.NotNil(t, clone.PushHook)
	clone.PushHook(clone, 0, value.NewLiteral([]byte{1}))
	require.True(t, called)
}

func TestConsumeValueRemovesTrackingEntry(t *testing.T) {
	ctx := NewRootContext()
	v := value.NewLiteral([]byte{1})
	ctx.MarkProduced(v, 5)
	require.Len(t, ctx.Unused, 1)

	ctx.ConsumeValue(v)
	require.Len(t, ctx.Unused, 0)
}

func TestBindDataRefDisambiguatesOnConflict(t *testing.T) {
	ctx := NewRootContext()
	v1 := value.NewLiteral([]byte{1})
	v2 := value.NewLiteral([]byte{2})

	name1 := ctx.BindDataRef("x", v1, 1)
	require.Equal(t, "x", name1)

	// Same name, same value: no renaming needed.
	name1Again := ctx.BindDataRef("x", v1, 2)
	require.Equal(t, "x", name1Again)

	// Same name, different value: gets an apostrophe.
	name2 := ctx.BindDataRef("x", v2, 3)
	require.Equal(t, "x'", name2)
}

func TestFailSealsOnlyOnce(t *testing.T) {
	ctx := NewRootContext()
	ctx.Fail(FailBranchConditionInvalid, "first")
	ctx.Fail(FailSolverUnknown, "second")

	require.True(t, ctx.Failed())
	require.Equal(t, FailBranchConditionInvalid, ctx.Failure.Kind)
	require.Equal(t, "first", ctx.Failure.Message)
}

func TestIsBranchExecuting(t *testing.T) {
	ctx := NewRootContext()
	require.True(t, ctx.isBranchExecuting())

	ctx.CondStack = append(ctx.CondStack, CondTrue)
	require.True(t, ctx.isBranchExecuting())

	ctx.CondStack = append(ctx.CondStack, CondFalse)
	require.False(t, ctx.isBranchExecuting())
}

func TestRecordSigCheckAccumulates(t *testing.T) {
	ctx := NewRootContext()
	result := value.NewLiteral([]byte{1})
	ctx.RecordSigCheck("CHECKSIG", 3, result)
	require.Len(t, ctx.SigCheckOps, 1)
	require.Equal(t, "CHECKSIG", ctx.SigCheckOps[0].Opcode)
	require.True(t, ctx.SigCheckOps[0].Result == result)
}
