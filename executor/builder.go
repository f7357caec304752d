package executor

import (
	"github.com/reasonflow/graphcore/graph"
	"github.com/reasonflow/graphcore/llm"
	"github.com/reasonflow/graphcore/node"
	"github.com/reasonflow/graphcore/rgerrors"
	"github.com/reasonflow/graphcore/rule"
	"github.com/reasonflow/graphcore/tool"
)

// compiledNode pairs a NodeConfig with its built dispatch handle: exactly
// one of runner/liveRunner is set, matching the Runner/LiveRunner split
// documented in node/protocol.go.
type compiledNode struct {
	cfg        *graph.NodeConfig
	runner     node.Runner
	liveRunner node.LiveRunner
}

// build constructs a compiledNode for every node in def, wiring each
// control-flow node's Invoker back to e itself (the Invoker interface
// exists precisely so nodes never hold an owning reference to *Executor,
// per node/invoker.go's doc comment — they hold the interface view).
func (e *Executor) build(def *graph.Definition) (map[string]*compiledNode, error) {
	out := make(map[string]*compiledNode, len(def.Nodes))
	for id, cfg := range def.Nodes {
		cn, err := e.buildOne(cfg)
		if err != nil {
			return nil, rgerrors.Wrap(rgerrors.CodeConfiguration, err, "failed to build node").WithNode(id)
		}
		out[id] = cn
	}
	return out, nil
}

func (e *Executor) buildOne(cfg *graph.NodeConfig) (*compiledNode, error) {
	switch cfg.Kind {
	case graph.KindRule:
		eval, err := e.ruleEvaluator()
		if err != nil {
			return nil, err
		}
		source := cfg.RuleSource
		if source == "" {
			source = cfg.RuleRef
		}
		return &compiledNode{cfg: cfg, runner: node.NewRuleNode(source, eval, e.ruleCache)}, nil

	case graph.KindDB:
		if e.cfg.pools == nil {
			return nil, rgerrors.New(rgerrors.CodeConfiguration, "DB node requires WithPoolRegistry")
		}
		if _, err := e.cfg.pools.Lookup(cfg.Database); err != nil {
			return nil, err
		}
		return &compiledNode{cfg: cfg, runner: node.NewDBNode(cfg.QueryTemplate, cfg.Database, cfg.Params, e.cfg.pools)}, nil

	case graph.KindAI:
		model, err := e.chatModel(cfg.Provider)
		if err != nil {
			return nil, err
		}
		tools := e.resolveTools(cfg.Tools)
		executables := e.resolveExecutables(cfg.Tools)
		return &compiledNode{cfg: cfg, runner: node.NewAINode(model, cfg.PromptTemplate, cfg.SystemPrompt, cfg.Model, tools, executables, cfg.ResponseFormat, cfg.ID, e.cfg.costTracker)}, nil

	case graph.KindConditional:
		boolEval, err := e.boolEvaluator()
		if err != nil {
			return nil, err
		}
		return &compiledNode{cfg: cfg, liveRunner: node.NewConditionalNode(e, boolEval, cfg.ConditionExpr, cfg.TrueBranchID, cfg.FalseBranchID)}, nil

	case graph.KindLoop:
		boolEval, err := e.boolEvaluator()
		if err != nil {
			return nil, err
		}
		kind := node.LoopForeach
		if cfg.LoopKind == graph.LoopWhile {
			kind = node.LoopWhile
		}
		return &compiledNode{cfg: cfg, liveRunner: node.NewLoopNode(e, boolEval, kind, cfg.BodyNodeID, cfg.ItemsKey, cfg.ItemVar, cfg.ConditionExpr, cfg.MaxIteration)}, nil

	case graph.KindTryCatch:
		return &compiledNode{cfg: cfg, liveRunner: node.NewTryCatchNode(e, cfg.TryNodeID, cfg.CatchNodeID, cfg.FinallyNodeID)}, nil

	case graph.KindRetry:
		return &compiledNode{cfg: cfg, liveRunner: node.NewRetryNode(e, cfg.TargetNodeID, cfg.MaxAttempts, cfg.BackoffMS, cfg.Exponential)}, nil

	case graph.KindCircuitBreaker:
		return &compiledNode{cfg: cfg, liveRunner: node.NewCircuitBreakerNode(e, e.breakers, cfg.TargetNodeID, cfg.FailureThreshold, cfg.TimeoutMS)}, nil

	case graph.KindSubgraph:
		return &compiledNode{cfg: cfg, liveRunner: node.NewSubgraphNode(e, cfg.InnerGraph, cfg.InputMapping, cfg.OutputKey)}, nil

	default:
		return nil, rgerrors.Newf(rgerrors.CodeConfiguration, "unknown node kind %q", cfg.Kind)
	}
}

func (e *Executor) ruleEvaluator() (rule.Evaluator, error) {
	if e.cfg.ruleEval == nil {
		return nil, rgerrors.New(rgerrors.CodeConfiguration, "graph uses a Rule/Conditional/Loop node but no WithRuleEvaluator was configured")
	}
	return e.cfg.ruleEval, nil
}

func (e *Executor) boolEvaluator() (node.BoolEvaluator, error) {
	if e.cfg.ruleEval == nil {
		return nil, rgerrors.New(rgerrors.CodeConfiguration, "graph uses a Conditional/Loop node but no WithRuleEvaluator was configured")
	}
	return node.NewRuleBoolEvaluator(e.cfg.ruleEval, e.ruleCache), nil
}

func (e *Executor) chatModel(provider string) (llm.ChatModel, error) {
	model, ok := e.cfg.chatModels[provider]
	if !ok {
		return nil, rgerrors.Newf(rgerrors.CodeConfiguration, "no chat model registered for provider %q (use WithChatModel)", provider)
	}
	return model, nil
}

func (e *Executor) resolveTools(names []string) []llm.ToolSpec {
	if len(names) == 0 {
		return nil
	}
	specs := make([]llm.ToolSpec, 0, len(names))
	for _, n := range names {
		if spec, ok := e.cfg.toolSpecs[n]; ok {
			specs = append(specs, spec)
		}
	}
	return specs
}

// resolveExecutables narrows the node's tool name list down to the subset
// with a registered executable, leaving tool calls with no executable
// counterpart for the graph author to handle downstream.
func (e *Executor) resolveExecutables(names []string) map[string]tool.Tool {
	if len(names) == 0 || len(e.cfg.tools) == 0 {
		return nil
	}
	out := make(map[string]tool.Tool, len(names))
	for _, n := range names {
		if t, ok := e.cfg.tools[n]; ok {
			out[n] = t
		}
	}
	return out
}
