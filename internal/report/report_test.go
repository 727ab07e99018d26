package report

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgpv/bsst/internal/engine"
	"github.com/dgpv/bsst/internal/value"
)

func newValidPath(t *testing.T) *engine.Path {
	t.Helper()
	ctx := engine.NewRootContext()
	ctx.Seal()
	return &engine.Path{Ctx: ctx}
}

func TestPathLabelRootHasNoBranchTrail(t *testing.T) {
	p := newValidPath(t)
	require.Equal(t, "[Root]", PathLabel(p))
}

func TestPathLabelJoinsBranchTrail(t *testing.T) {
	p := newValidPath(t)
	p.Ctx.RecordBranch(engine.BranchStep{Opcode: "IF", Position: 0, Label: "IF @0 : True"})
	p.Ctx.RecordBranch(engine.BranchStep{Opcode: "PICK", Position: 3, Label: "PICK @3 : 1"})
	require.Equal(t, "IF @0 : True, PICK @3 : 1", PathLabel(p))
}

func TestRenderReportsFailedPathsSeparately(t *testing.T) {
	ok := newValidPath(t)

	failed := newValidPath(t)
	failed.Ctx.Fail(engine.FailBranchConditionInvalid, "boom")

	out := Render([]*engine.Path{ok, failed}, 0, Options{})
	require.Contains(t, out, "=== Valid paths ===")
	require.Contains(t, out, "=== Failures per path ===")
	require.Contains(t, out, "boom")
	require.Contains(t, out, string(engine.FailBranchConditionInvalid))
}

func TestRenderNotesUnexploredCount(t *testing.T) {
	p := newValidPath(t)
	out := Render([]*engine.Path{p}, 2, Options{})
	require.Contains(t, out, "2 path(s) were not explored")
}

func TestRenderHideAlwaysTrueEnforcements(t *testing.T) {
	p := newValidPath(t)
	pred := value.NewLiteral([]byte{1})
	p.Ctx.Publish(pred, 4)
	p.Ctx.Enforcements[0].Flags |= engine.FlagAlwaysTrue

	shown := Render([]*engine.Path{p}, 0, Options{})
	require.Contains(t, shown, "<*>")

	hidden := Render([]*engine.Path{p}, 0, Options{HideAlwaysTrueEnforcements: true})
	require.NotContains(t, hidden, "<*>")
}

func TestLiftEnforcementsPromotesSharedEnforcement(t *testing.T) {
	shared := value.NewLiteral([]byte{7})

	p1 := newValidPath(t)
	p1.Ctx.Publish(shared, 1)

	p2 := newValidPath(t)
	p2.Ctx.Publish(shared, 1)

	LiftEnforcements([]*engine.Path{p1, p2})

	require.True(t, p1.Ctx.Enforcements[0].Flags&engine.FlagAlwaysTrue != 0)
	require.True(t, p2.Ctx.Enforcements[0].Flags&engine.FlagAlwaysTrue != 0)
}

func TestLiftEnforcementsDoesNotPromoteWhenOnlyOnSomePaths(t *testing.T) {
	p1 := newValidPath(t)
	p1.Ctx.Publish(value.NewLiteral([]byte{1}), 1)

	p2 := newValidPath(t)
	p2.Ctx.Publish(value.NewLiteral([]byte{2}), 1)

	LiftEnforcements([]*engine.Path{p1, p2})

	require.Equal(t, engine.EnforcementFlag(0), p1.Ctx.Enforcements[0].Flags)
	require.Equal(t, engine.EnforcementFlag(0), p2.Ctx.Enforcements[0].Flags)
}

func TestLiftEnforcementsNoOpWithFewerThanTwoPaths(t *testing.T) {
	p := newValidPath(t)
	p.Ctx.Publish(value.NewLiteral([]byte{1}), 1)
	LiftEnforcements([]*engine.Path{p})
	require.Equal(t, engine.EnforcementFlag(0), p.Ctx.Enforcements[0].Flags)
}
