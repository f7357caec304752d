package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rgerrors"
	"github.com/reasonflow/graphcore/value"
)

func TestTryCatchReturnsTryOutputOnSuccessAndSkipsCatch(t *testing.T) {
	inv := newStubInvoker()
	inv.register("try", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{Output: value.String("try-ok")}, nil
	}))
	inv.register("catch", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{Output: value.String("catch-ran")}, nil
	}))
	inv.register("finally", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{Output: value.Null()}, nil
	}))

	n := NewTryCatchNode(inv, "try", "catch", "finally")
	res, err := n.RunLive(context.Background(), rgcontext.New(0))
	require.NoError(t, err)

	s, ok := res.Output.AsString()
	require.True(t, ok)
	require.Equal(t, "try-ok", s)
	require.Equal(t, 0, inv.callCount("catch"))
	require.Equal(t, 1, inv.callCount("finally"))
}

func TestTryCatchRunsCatchOnRecoverableFailure(t *testing.T) {
	inv := newStubInvoker()
	inv.register("try", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{}, rgerrors.New(rgerrors.CodeRuleEvaluation, "boom")
	}))
	inv.register("catch", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{Output: value.String("recovered")}, nil
	}))

	n := NewTryCatchNode(inv, "try", "catch", "")
	rc := rgcontext.New(0)
	res, err := n.RunLive(context.Background(), rc)
	require.NoError(t, err)

	s, ok := res.Output.AsString()
	require.True(t, ok)
	require.Equal(t, "recovered", s)

	errVal, present := rc.Get("error")
	require.True(t, present)
	msg, ok := errVal.MapGet("message")
	require.True(t, ok)
	m, _ := msg.AsString()
	require.Contains(t, m, "boom")
}

func TestTryCatchPropagatesNonRecoverableFailureWithoutRunningCatch(t *testing.T) {
	inv := newStubInvoker()
	inv.register("try", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{}, rgerrors.New(rgerrors.CodeConfiguration, "misconfigured")
	}))
	inv.register("catch", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{Output: value.String("should-not-run")}, nil
	}))

	n := NewTryCatchNode(inv, "try", "catch", "")
	_, err := n.RunLive(context.Background(), rgcontext.New(0))
	require.Error(t, err)
	require.Equal(t, 0, inv.callCount("catch"))
}

func TestTryCatchRunsFinallyEvenWhenTryFailsWithoutCatch(t *testing.T) {
	inv := newStubInvoker()
	inv.register("try", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{}, rgerrors.New(rgerrors.CodeRuleEvaluation, "boom")
	}))
	inv.register("finally", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{Output: value.Null()}, nil
	}))

	n := NewTryCatchNode(inv, "try", "", "finally")
	res, err := n.RunLive(context.Background(), rgcontext.New(0))
	require.NoError(t, err)
	require.True(t, res.Output.IsNull())
	require.Equal(t, 1, inv.callCount("finally"))
}
