package node

import (
	"context"
	"fmt"

	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rule"
	"github.com/reasonflow/graphcore/value"
)

// RuleBoolEvaluator adapts a rule.Evaluator into the BoolEvaluator Conditional
// and Loop-While nodes use to test `condition_expr` against the live
// Context. It compiles "__cond = <expr>" through the same evaluator and
// cache the Rule Node uses, and reads the `__cond` binding back as a bool —
// condition_expr is a single expression, not a rule program, so this is the
// minimal bridge rather than a second language.
type RuleBoolEvaluator struct {
	Eval  rule.Evaluator
	Cache *rule.CompiledCache
}

func NewRuleBoolEvaluator(eval rule.Evaluator, cache *rule.CompiledCache) *RuleBoolEvaluator {
	return &RuleBoolEvaluator{Eval: eval, Cache: cache}
}

func (e *RuleBoolEvaluator) EvaluateBool(ctx context.Context, expr string, rc *rgcontext.Context) (bool, error) {
	source := "__cond = " + expr
	compiled, err := e.Cache.Get(source)
	if err != nil {
		return false, fmt.Errorf("condition_expr %q: %w", expr, err)
	}

	snapshot := rc.Snapshot()
	input := make(map[string]value.Value, len(snapshot.Keys()))
	for _, k := range snapshot.Keys() {
		if v, ok := snapshot.Get(k); ok {
			input[k] = v
		}
	}

	bindings, err := e.Eval.Evaluate(ctx, compiled, input)
	if err != nil {
		return false, fmt.Errorf("condition_expr %q: %w", expr, err)
	}
	cond, ok := bindings["__cond"]
	if !ok {
		return false, fmt.Errorf("condition_expr %q produced no result", expr)
	}
	b, ok := cond.AsBool()
	if !ok {
		return false, fmt.Errorf("condition_expr %q did not evaluate to a boolean", expr)
	}
	return b, nil
}
