package modelusage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgpv/bsst/internal/engine"
	"github.com/dgpv/bsst/internal/value"
)

func TestMarkDepsWalksOperandTree(t *testing.T) {
	leaf := value.NewWitness(0, "")
	mid := value.NewOp(value.KindNot, leaf)
	top := value.NewOp(value.KindBoolAnd, mid, value.NewLiteral([]byte{1}))

	seen := map[*value.Value]bool{}
	markDeps(top, seen)

	require.True(t, seen[top])
	require.True(t, seen[mid])
	require.True(t, seen[leaf])
}

func TestMarkDepsStopsAtAlreadySeenNode(t *testing.T) {
	leaf := value.NewWitness(1, "")
	seen := map[*value.Value]bool{leaf: true}
	// Calling markDeps on a node whose only child is already marked seen
	// must not panic or loop; it should just mark the node itself.
	wrap := value.NewOp(value.KindNot, leaf)
	markDeps(wrap, seen)
	require.True(t, seen[wrap])
}

func TestReportEndSkipsFailedPaths(t *testing.T) {
	ctx := engine.NewRootContext()
	ctx.Stack.Push(value.NewWitness(0, ""))
	ctx.Fail(engine.FailBranchConditionInvalid, "irrelevant")

	p := &engine.Path{Ctx: ctx}
	New().ReportEnd([]*engine.Path{p})
	// No assertion beyond "does not panic": a failed path's stack contents
	// are not meaningful model-value usage data.
}

func TestReportEndHandlesValidPathWithEnforcedWitness(t *testing.T) {
	ctx := engine.NewRootContext()
	w := value.NewWitness(0, "")
	ctx.Stack.Push(w)
	ctx.Publish(w, 1)
	ctx.Seal()

	p := &engine.Path{Ctx: ctx}
	New().ReportEnd([]*engine.Path{p})
}

func TestNameIsStable(t *testing.T) {
	require.Equal(t, "modelusage", New().Name())
}
