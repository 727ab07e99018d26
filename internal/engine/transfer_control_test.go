package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgpv/bsst/internal/value"
)

func newEngine() *Engine {
	return New(DefaultOptions())
}

func TestTransferIfForksOnSymbolicCondition(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	ctx.Stack.Push(ctx.NewWitness(""))

	forks, err := transferIf(en, ctx, 2)
	require.NoError(t, err)
	require.Len(t, forks, 2)

	require.Equal(t, CondTrue, forks[0].Ctx.CondStack[0])
	require.Equal(t, CondFalse, forks[1].Ctx.CondStack[0])
	require.Contains(t, forks[0].Step.Label, "True")
	require.Contains(t, forks[1].Step.Label, "False")
}

func TestTransferIfDoesNotForkOnConcreteCondition(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	ctx.Stack.Push(value.NewLiteral([]byte{1}))

	forks, err := transferIf(en, ctx, 0)
	require.NoError(t, err)
	require.Nil(t, forks)
	require.Equal(t, CondTrue, ctx.CondStack[0])
}

func TestTransferNotIfInvertsConcreteCondition(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	ctx.Stack.Push(value.NewLiteral([]byte{1}))

	_, err := transferNotIf(en, ctx, 0)
	require.NoError(t, err)
	require.Equal(t, CondFalse, ctx.CondStack[0])
}

func TestTransferIfSkipsWithoutTouchingStackWhenBranchNotExecuting(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	ctx.CondStack = append(ctx.CondStack, CondFalse)

	forks, err := transferIf(en, ctx, 0)
	require.NoError(t, err)
	require.Nil(t, forks)
	require.Equal(t, 0, ctx.Stack.Depth(), "a dead IF must not pop anything")
	require.Equal(t, CondSkip, ctx.CondStack[1])
}

func TestTransferElseTogglesCondition(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	ctx.CondStack = append(ctx.CondStack, CondTrue)

	_, err := transferElse(en, ctx, 1)
	require.NoError(t, err)
	require.Equal(t, CondFalse, ctx.CondStack[0])
}

func TestTransferElseWithoutIfFails(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	_, err := transferElse(en, ctx, 0)
	require.NoError(t, err)
	require.True(t, ctx.Failed())
}

func TestTransferEndifPopsCondStack(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	ctx.CondStack = append(ctx.CondStack, CondTrue)

	_, err := transferEndif(en, ctx, 1)
	require.NoError(t, err)
	require.Len(t, ctx.CondStack, 0)
}

func TestTransferVerifyPublishesEnforcement(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	ctx.Stack.Push(value.NewLiteral([]byte{1}))

	_, err := transferVerify(en, ctx, 5)
	require.NoError(t, err)
	require.Len(t, ctx.Enforcements, 1)
	require.Equal(t, 5, ctx.Enforcements[0].Position)
}

func TestTransferReturnFailsPath(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()

	_, err := transferReturn(en, ctx, 1)
	require.NoError(t, err)
	require.True(t, ctx.Failed())
}
