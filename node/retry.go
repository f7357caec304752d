package node

import (
	"context"
	"time"

	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rgerrors"
)

// RetryNode re-executes TargetNodeID up to MaxAttempts times with a
// configurable backoff, per §4.6.7. Unlike the teacher's policy.go
// (computeBackoff with jitter + exponential cap), the spec's backoff is
// deterministic — "wait backoff_ms; if exponential, multiply by 2 each
// failed attempt" — so no jitter or max-delay cap is applied here.
type RetryNode struct {
	Invoker       Invoker
	TargetNodeID  string
	MaxAttempts   int
	BackoffMS     int
	Exponential   bool
}

func NewRetryNode(invoker Invoker, targetNodeID string, maxAttempts, backoffMS int, exponential bool) *RetryNode {
	return &RetryNode{Invoker: invoker, TargetNodeID: targetNodeID, MaxAttempts: maxAttempts, BackoffMS: backoffMS, Exponential: exponential}
}

func (n *RetryNode) RunLive(ctx context.Context, rc *rgcontext.Context) (Result, error) {
	delay := time.Duration(n.BackoffMS) * time.Millisecond
	var lastErr error

	for attempt := 0; attempt < n.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		res, err := n.Invoker.RunNode(ctx, n.TargetNodeID, rc)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !rgerrors.Retryable(err) {
			return Result{}, err
		}
		if attempt == n.MaxAttempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
		if n.Exponential {
			delay *= 2
		}
	}

	// On exhaustion, propagate the last error unchanged (§4.6.7).
	return Result{}, lastErr
}
