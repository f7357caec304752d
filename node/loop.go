package node

import (
	"context"

	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rgerrors"
	"github.com/reasonflow/graphcore/value"
)

// LoopKind selects Foreach or While iteration semantics (§4.6.5).
type LoopKind int

const (
	LoopForeach LoopKind = iota
	LoopWhile
)

// LoopNode implements both Foreach and While iteration, synchronously
// executing BodyNodeID against the live Context each pass so later
// iterations observe earlier mutations.
type LoopNode struct {
	Invoker       Invoker
	Eval          BoolEvaluator // used only for LoopWhile
	Kind          LoopKind
	BodyNodeID    string
	ItemsKey      string
	ItemVar       string
	ConditionExpr string
	MaxIterations int
}

func NewLoopNode(invoker Invoker, eval BoolEvaluator, kind LoopKind, bodyNodeID, itemsKey, itemVar, conditionExpr string, maxIterations int) *LoopNode {
	return &LoopNode{
		Invoker:       invoker,
		Eval:          eval,
		Kind:          kind,
		BodyNodeID:    bodyNodeID,
		ItemsKey:      itemsKey,
		ItemVar:       itemVar,
		ConditionExpr: conditionExpr,
		MaxIterations: maxIterations,
	}
}

func (n *LoopNode) RunLive(ctx context.Context, rc *rgcontext.Context) (Result, error) {
	if n.Kind == LoopForeach {
		return n.runForeach(ctx, rc)
	}
	return n.runWhile(ctx, rc)
}

func (n *LoopNode) runForeach(ctx context.Context, rc *rgcontext.Context) (Result, error) {
	items, ok := rc.Get(n.ItemsKey)
	if !ok {
		return Result{}, rgerrors.Newf(rgerrors.CodeConfiguration, "items_key %q not present in context", n.ItemsKey)
	}
	seq, ok := items.AsSeq()
	if !ok {
		return Result{}, rgerrors.Newf(rgerrors.CodeConfiguration, "items_key %q does not resolve to a sequence", n.ItemsKey)
	}

	if len(seq) > n.MaxIterations {
		return Result{}, rgerrors.Newf(rgerrors.CodeConfiguration, "foreach sequence length %d exceeds max_iterations %d", len(seq), n.MaxIterations)
	}

	outputs := make([]value.Value, 0, len(seq))
	for _, item := range seq {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		rc.Set(n.ItemVar, item)
		res, err := n.Invoker.RunNode(ctx, n.BodyNodeID, rc)
		if err != nil {
			return Result{}, err
		}
		outputs = append(outputs, res.Output)
	}
	return Result{Output: value.Seq(outputs...)}, nil
}

func (n *LoopNode) runWhile(ctx context.Context, rc *rgcontext.Context) (Result, error) {
	outputs := make([]value.Value, 0)
	for i := 0; i < n.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		cond, err := n.Eval.EvaluateBool(ctx, n.ConditionExpr, rc)
		if err != nil {
			return Result{}, err
		}
		if !cond {
			return Result{Output: value.Seq(outputs...)}, nil
		}
		res, err := n.Invoker.RunNode(ctx, n.BodyNodeID, rc)
		if err != nil {
			return Result{}, err
		}
		outputs = append(outputs, res.Output)
	}

	cond, err := n.Eval.EvaluateBool(ctx, n.ConditionExpr, rc)
	if err != nil {
		return Result{}, err
	}
	if cond {
		return Result{}, rgerrors.Newf(rgerrors.CodeConfiguration, "while loop exceeded max_iterations %d with condition still true", n.MaxIterations)
	}
	return Result{Output: value.Seq(outputs...)}, nil
}
