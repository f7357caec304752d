package node

import (
	"context"

	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rgerrors"
	"github.com/reasonflow/graphcore/value"
)

// TryCatchNode runs TryNodeID, routing to CatchNodeID on any recoverable
// failure and always running FinallyNodeID, per §4.6.6.
type TryCatchNode struct {
	Invoker       Invoker
	TryNodeID     string
	CatchNodeID   string
	FinallyNodeID string
}

func NewTryCatchNode(invoker Invoker, tryNodeID, catchNodeID, finallyNodeID string) *TryCatchNode {
	return &TryCatchNode{Invoker: invoker, TryNodeID: tryNodeID, CatchNodeID: catchNodeID, FinallyNodeID: finallyNodeID}
}

func (n *TryCatchNode) RunLive(ctx context.Context, rc *rgcontext.Context) (Result, error) {
	res, tryErr := n.Invoker.RunNode(ctx, n.TryNodeID, rc)

	var result Result
	var outErr error

	switch {
	case tryErr == nil:
		result = res
	case rgerrors.NonRecoverable(tryErr):
		outErr = tryErr
	default:
		rc.Set("error", errorToValue(tryErr))
		if n.CatchNodeID == "" {
			result = Result{Output: value.Null()}
		} else {
			catchRes, catchErr := n.Invoker.RunNode(ctx, n.CatchNodeID, rc)
			if catchErr != nil {
				outErr = catchErr
			} else {
				result = catchRes
			}
		}
	}

	if n.FinallyNodeID != "" {
		if _, finallyErr := n.Invoker.RunNode(ctx, n.FinallyNodeID, rc); finallyErr != nil {
			return Result{}, finallyErr
		}
	}

	if outErr != nil {
		return Result{}, outErr
	}
	return result, nil
}

func errorToValue(err error) value.Value {
	b := value.NewMapBuilder()
	b.Set("message", value.String(err.Error()))
	if code := rgerrors.CodeOf(err); code != "" {
		b.Set("code", value.String(string(code)))
	}
	return b.Build()
}
