package node

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rgerrors"
	"github.com/reasonflow/graphcore/value"
)

func TestRetrySucceedsOnLaterAttemptWithoutExhausting(t *testing.T) {
	inv := newStubInvoker()
	var mu sync.Mutex
	attempts := 0
	inv.register("flaky", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			return Result{}, rgerrors.New(rgerrors.CodeDatabaseConn, "connection reset")
		}
		return Result{Output: value.String("ok")}, nil
	}))

	n := NewRetryNode(inv, "flaky", 5, 1, false)
	res, err := n.RunLive(context.Background(), rgcontext.New(0))
	require.NoError(t, err)
	s, ok := res.Output.AsString()
	require.True(t, ok)
	require.Equal(t, "ok", s)
	require.Equal(t, 3, inv.callCount("flaky"))
}

func TestRetryExhaustsAttemptsAndPropagatesLastError(t *testing.T) {
	inv := newStubInvoker()
	inv.register("always_fails", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{}, rgerrors.New(rgerrors.CodeTimeout, "timed out")
	}))

	n := NewRetryNode(inv, "always_fails", 3, 1, false)
	_, err := n.RunLive(context.Background(), rgcontext.New(0))
	require.Error(t, err)
	require.Equal(t, rgerrors.CodeTimeout, rgerrors.CodeOf(err))
	require.Equal(t, 3, inv.callCount("always_fails"))
}

func TestRetryDoesNotRetryPermanentErrors(t *testing.T) {
	inv := newStubInvoker()
	inv.register("bad_rule", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{}, rgerrors.New(rgerrors.CodeRuleEvaluation, "malformed")
	}))

	n := NewRetryNode(inv, "bad_rule", 5, 1, false)
	_, err := n.RunLive(context.Background(), rgcontext.New(0))
	require.Error(t, err)
	require.Equal(t, 1, inv.callCount("bad_rule"))
}

func TestRetryExponentialBackoffDoublesDelay(t *testing.T) {
	inv := newStubInvoker()
	inv.register("always_fails", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{}, rgerrors.New(rgerrors.CodeTimeout, "timed out")
	}))

	n := NewRetryNode(inv, "always_fails", 3, 5, true)
	start := time.Now()
	_, err := n.RunLive(context.Background(), rgcontext.New(0))
	elapsed := time.Since(start)
	require.Error(t, err)
	// backoff waits occur between attempts 1->2 (5ms) and 2->3 (10ms); no
	// wait follows the final attempt.
	require.GreaterOrEqual(t, elapsed, 15*time.Millisecond)
	require.Equal(t, 3, inv.callCount("always_fails"))
}

func TestRetryAbortsOnContextCancellationDuringBackoff(t *testing.T) {
	inv := newStubInvoker()
	inv.register("always_fails", Func(func(ctx context.Context, input map[string]value.Value, snap *rgcontext.Snapshot) (Result, error) {
		return Result{}, rgerrors.New(rgerrors.CodeTimeout, "timed out")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	n := NewRetryNode(inv, "always_fails", 10, 50, false)
	_, err := n.RunLive(ctx, rgcontext.New(0))
	require.Error(t, err)
}
