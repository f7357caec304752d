package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/value"
)

func TestLoopForeachRunsBodyPerItemInOrder(t *testing.T) {
	inv := newStubInvoker()
	inv.register("double", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		item, _ := snap.Get("item")
		n, _ := item.AsNumber()
		return Result{Output: value.Number(n * 2)}, nil
	}))

	n := NewLoopNode(inv, nil, LoopForeach, "double", "items", "item", "", 10)
	rc := rgcontext.New(0)
	rc.Set("items", value.Seq(value.Number(1), value.Number(2), value.Number(3)))

	res, err := n.RunLive(context.Background(), rc)
	require.NoError(t, err)

	seq, ok := res.Output.AsSeq()
	require.True(t, ok)
	require.Len(t, seq, 3)
	for i, want := range []float64{2, 4, 6} {
		got, ok := seq[i].AsNumber()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	require.Equal(t, 3, inv.callCount("double"))
}

func TestLoopForeachFailsWhenItemsKeyMissing(t *testing.T) {
	inv := newStubInvoker()
	n := NewLoopNode(inv, nil, LoopForeach, "double", "items", "item", "", 10)

	_, err := n.RunLive(context.Background(), rgcontext.New(0))
	require.Error(t, err)
}

func TestLoopForeachFailsWhenSequenceExceedsMaxIterations(t *testing.T) {
	inv := newStubInvoker()
	inv.register("noop", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{Output: value.Null()}, nil
	}))

	n := NewLoopNode(inv, nil, LoopForeach, "noop", "items", "item", "", 2)
	rc := rgcontext.New(0)
	rc.Set("items", value.Seq(value.Number(1), value.Number(2), value.Number(3)))

	_, err := n.RunLive(context.Background(), rc)
	require.Error(t, err)
	require.Equal(t, 0, inv.callCount("noop"))
}

func TestLoopWhileStopsAsSoonAsConditionGoesFalse(t *testing.T) {
	inv := newStubInvoker()
	inv.register("tick", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{Output: value.String("ticked")}, nil
	}))
	boolEval := &sequenceBool{answers: []bool{true, true, false}}

	n := NewLoopNode(inv, boolEval, LoopWhile, "tick", "", "", "keep_going", 10)
	res, err := n.RunLive(context.Background(), rgcontext.New(0))
	require.NoError(t, err)

	seq, ok := res.Output.AsSeq()
	require.True(t, ok)
	require.Len(t, seq, 2)
	require.Equal(t, 2, inv.callCount("tick"))
}

func TestLoopWhileExceedingMaxIterationsWithConditionStillTrueFails(t *testing.T) {
	inv := newStubInvoker()
	inv.register("tick", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{Output: value.Null()}, nil
	}))

	n := NewLoopNode(inv, stubBool{val: true}, LoopWhile, "tick", "", "", "always_true", 3)
	_, err := n.RunLive(context.Background(), rgcontext.New(0))
	require.Error(t, err)
	require.Equal(t, 3, inv.callCount("tick"))
}
