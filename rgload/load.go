// Package rgload decodes a declarative YAML or JSON document into a
// graph.Definition (§6, SPEC_FULL.md "Graph Definition" addendum). It is a
// convenience decoder, not a parser the spec's semantics depend on — a
// Definition built by hand via graph.New/AddNode/AddEdge behaves
// identically. Grounded on the teacher/pack's plain tag-driven decoding
// style (encoding/json + gopkg.in/yaml.v3), resolving `type:` tag variants
// (PascalCase or snake_case) into graph's typed Kind/LoopKind constants
// once, at load time, matching DESIGN NOTES §9 "resolve tags once at
// validation".
package rgload

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/reasonflow/graphcore/graph"
	"github.com/reasonflow/graphcore/rgerrors"
)

// Format selects the decoder Load uses.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// Load decodes r as the given Format into a graph.Definition. The result
// is not validated — callers pass it to graph.Validate or executor.New,
// which validates as its first step.
func Load(r io.Reader, format Format) (*graph.Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, rgerrors.Wrap(rgerrors.CodeConfiguration, err, "failed to read graph document")
	}

	var doc rawDoc
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, rgerrors.Wrap(rgerrors.CodeConfiguration, err, "failed to decode JSON graph document")
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, rgerrors.Wrap(rgerrors.CodeConfiguration, err, "failed to decode YAML graph document")
		}
	}

	return build(&doc)
}

func build(doc *rawDoc) (*graph.Definition, error) {
	def := graph.New(doc.ID)
	for _, n := range doc.Nodes {
		cfg, err := toNodeConfig(&n)
		if err != nil {
			return nil, rgerrors.Wrap(rgerrors.CodeConfiguration, err, "failed to decode node").WithNode(n.ID)
		}
		def.AddNode(cfg)
	}
	for _, e := range doc.Edges {
		def.AddEdge(graph.Edge{From: e.From, To: e.To, Guard: e.Guard})
	}
	return def, nil
}

func toNodeConfig(n *rawNode) (*graph.NodeConfig, error) {
	kind, err := resolveKind(n.Type)
	if err != nil {
		return nil, err
	}

	cfg := &graph.NodeConfig{
		ID:   n.ID,
		Kind: kind,

		Description:  n.Description,
		Dependencies: n.Dependencies,
		FieldMapping: n.FieldMapping,
		Params:       n.Params,
		Database:     n.Database,

		RuleSource: n.RuleSource,
		RuleRef:    n.RuleRef,

		QueryTemplate: n.QueryTemplate,

		Provider:       n.Provider,
		Model:          n.Model,
		PromptTemplate: n.PromptTemplate,
		SystemPrompt:   n.SystemPrompt,
		Tools:          n.Tools,
		ResponseFormat: n.ResponseFormat,

		ConditionExpr: n.ConditionExpr,
		TrueBranchID:  n.TrueBranchID,
		FalseBranchID: n.FalseBranchID,

		BodyNodeID:   n.BodyNodeID,
		MaxIteration: n.MaxIteration,
		ItemsKey:     n.ItemsKey,
		ItemVar:      n.ItemVar,

		TryNodeID:     n.TryNodeID,
		CatchNodeID:   n.CatchNodeID,
		FinallyNodeID: n.FinallyNodeID,

		TargetNodeID: n.TargetNodeID,
		MaxAttempts:  n.MaxAttempts,
		BackoffMS:    n.BackoffMS,
		Exponential:  n.Exponential,

		FailureThreshold: n.FailureThreshold,
		TimeoutMS:        n.TimeoutMS,

		InputMapping: n.InputMapping,
		OutputKey:    n.OutputKey,
	}

	if n.LoopKind != "" {
		lk, err := resolveLoopKind(n.LoopKind)
		if err != nil {
			return nil, err
		}
		cfg.LoopKind = lk
	}

	if n.InnerGraph != nil {
		inner, err := build(n.InnerGraph)
		if err != nil {
			return nil, err
		}
		cfg.InnerGraph = inner
	}

	return cfg, nil
}

func resolveKind(raw string) (graph.Kind, error) {
	switch normalize(raw) {
	case "rule":
		return graph.KindRule, nil
	case "db", "database":
		return graph.KindDB, nil
	case "ai":
		return graph.KindAI, nil
	case "conditional":
		return graph.KindConditional, nil
	case "loop":
		return graph.KindLoop, nil
	case "trycatch":
		return graph.KindTryCatch, nil
	case "retry":
		return graph.KindRetry, nil
	case "circuitbreaker":
		return graph.KindCircuitBreaker, nil
	case "subgraph":
		return graph.KindSubgraph, nil
	default:
		return "", rgerrors.Newf(rgerrors.CodeConfiguration, "unknown node type %q", raw)
	}
}

func resolveLoopKind(raw string) (graph.LoopKind, error) {
	switch normalize(raw) {
	case "foreach":
		return graph.LoopForeach, nil
	case "while":
		return graph.LoopWhile, nil
	default:
		return "", rgerrors.Newf(rgerrors.CodeConfiguration, "unknown loop_kind %q", raw)
	}
}

// normalize folds both PascalCase ("TryCatch") and snake_case
// ("try_catch") tag spellings down to one comparable form.
func normalize(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || c == '-' {
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
