package node

import (
	"context"

	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/value"
)

// ConditionalNode evaluates a boolean expression against Context and
// recurses into one of two branch nodes, per §4.6.4.
type ConditionalNode struct {
	Invoker       Invoker
	ConditionExpr string
	Eval          BoolEvaluator
	TrueBranchID  string
	FalseBranchID string
}

// BoolEvaluator evaluates a condition expression against the live Context,
// shared by Conditional and Loop-While nodes.
type BoolEvaluator interface {
	EvaluateBool(ctx context.Context, expr string, rc *rgcontext.Context) (bool, error)
}

func NewConditionalNode(invoker Invoker, eval BoolEvaluator, conditionExpr, trueBranchID, falseBranchID string) *ConditionalNode {
	return &ConditionalNode{Invoker: invoker, Eval: eval, ConditionExpr: conditionExpr, TrueBranchID: trueBranchID, FalseBranchID: falseBranchID}
}

// RunLive implements node.LiveRunner — called by the Executor with the live
// Context rather than through Runner, since control-flow nodes recurse
// synchronously (§4.6.4: "execute...in a fresh sub-execution that shares
// the same Context").
func (n *ConditionalNode) RunLive(ctx context.Context, rc *rgcontext.Context) (Result, error) {
	cond, err := n.Eval.EvaluateBool(ctx, n.ConditionExpr, rc)
	if err != nil {
		return Result{}, err
	}

	branch := n.FalseBranchID
	if cond {
		branch = n.TrueBranchID
	}
	if branch == "" {
		return Result{Output: value.Null()}, nil
	}
	return n.Invoker.RunNode(ctx, branch, rc)
}
