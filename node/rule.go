package node

import (
	"context"

	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rgerrors"
	"github.com/reasonflow/graphcore/rule"
	"github.com/reasonflow/graphcore/value"
)

// RuleNode delegates to an external rule engine (§4.6.1). Its output is the
// complete bindings map returned by the engine; mutations is always empty.
type RuleNode struct {
	Source string
	Cache  *rule.CompiledCache
	Eval   rule.Evaluator
}

// NewRuleNode builds a RuleNode sharing the process-global compiled-rule
// cache for the configured source.
func NewRuleNode(source string, eval rule.Evaluator, cache *rule.CompiledCache) *RuleNode {
	return &RuleNode{Source: source, Cache: cache, Eval: eval}
}

func (n *RuleNode) Run(ctx context.Context, input map[string]value.Value, _ *rgcontext.Snapshot) (Result, error) {
	compiled, err := n.Cache.Get(n.Source)
	if err != nil {
		return Result{}, rgerrors.Wrap(rgerrors.CodeRuleEvaluation, err, "rule source failed to compile")
	}

	bindings, err := n.Eval.Evaluate(ctx, compiled, input)
	if err != nil {
		return Result{}, rgerrors.Wrap(rgerrors.CodeRuleEvaluation, err, "rule evaluation failed")
	}

	return Result{Output: value.Map(bindings)}, nil
}
