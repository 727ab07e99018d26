package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgpv/bsst/internal/value"
)

func TestTransferToAndFromAltStack(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	v := value.NewLiteral([]byte{9})
	ctx.Stack.Push(v)

	_, err := en.Dispatch("TOALTSTACK", ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 0, ctx.Stack.Depth())
	require.Equal(t, 1, ctx.AltStack.Depth())

	_, err = en.Dispatch("FROMALTSTACK", ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, ctx.Stack.Depth())
	require.Equal(t, 0, ctx.AltStack.Depth())
}

func TestTransferDepthReportsCurrentStackSize(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	ctx.Stack.Push(value.NewLiteral([]byte{1}))
	ctx.Stack.Push(value.NewLiteral([]byte{2}))

	_, err := en.Dispatch("DEPTH", ctx, 0)
	require.NoError(t, err)
	top, _ := ctx.Stack.Peek(0)
	n, ok := top.AsScriptNumber()
	require.True(t, ok)
	require.Equal(t, big.NewInt(2), n)
}

func TestTransferPickTakesStaticFastPathOnConcreteIndex(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	bottom := value.NewLiteral([]byte{1})
	ctx.Stack.Push(bottom)
	ctx.Stack.Push(value.NewLiteral([]byte{2}))
	ctx.Stack.Push(value.NewLiteral(value.FromScriptNumber(big.NewInt(1))))

	forks, err := en.Dispatch("PICK", ctx, 0)
	require.NoError(t, err)
	require.Nil(t, forks)
	top, _ := ctx.Stack.Peek(0)
	require.Equal(t, bottom, top)
}

func TestTransferIfDupForksOnSymbolicTop(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	ctx.Stack.Push(ctx.NewWitness(""))

	forks, err := en.Dispatch("IFDUP", ctx, 0)
	require.NoError(t, err)
	require.Len(t, forks, 2)
	require.Equal(t, 2, forks[0].Ctx.Stack.Depth(), "true branch dups")
	require.Equal(t, 1, forks[1].Ctx.Stack.Depth(), "false branch does not dup")
}

func TestTransferIfDupNoForkOnConcreteTrue(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	ctx.Stack.Push(value.NewLiteral([]byte{1}))

	forks, err := en.Dispatch("IFDUP", ctx, 0)
	require.NoError(t, err)
	require.Nil(t, forks)
	require.Equal(t, 2, ctx.Stack.Depth())
}

func TestTransferSwapSwapsTopTwo(t *testing.T) {
	en := newEngine()
	ctx := NewRootContext()
	a := value.NewLiteral([]byte{1})
	b := value.NewLiteral([]byte{2})
	ctx.Stack.Push(a)
	ctx.Stack.Push(b)

	_, err := en.Dispatch("SWAP", ctx, 0)
	require.NoError(t, err)
	top, _ := ctx.Stack.Peek(0)
	under, _ := ctx.Stack.Peek(1)
	require.Equal(t, a, top)
	require.Equal(t, b, under)
}
