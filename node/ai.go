package node

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/reasonflow/graphcore/llm"
	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rgerrors"
	"github.com/reasonflow/graphcore/tool"
	"github.com/reasonflow/graphcore/value"
)

// AINode is an opaque call to an external LLM provider (§4.6.3). Retry and
// rate-limit handling are deliberately absent here; a graph author wraps
// this node in a Retry or CircuitBreaker node when that's wanted.
//
// Executables is the supplemental tool-calling surface (§4.6.3 addendum):
// when the model returns a tool call whose name matches a registered
// tool.Tool, the node invokes it and folds the result into the output
// metadata under "tool_results" — a single round, not a multi-turn agent
// loop, since the Node Protocol's Run is one synchronous dispatch.
type AINode struct {
	Model          llm.ChatModel
	PromptTemplate string
	SystemPrompt   string
	Tools          []llm.ToolSpec
	Executables    map[string]tool.Tool
	ResponseFormat string // "" for text; "json" or "structured" requests structured output
	ModelName      string // recorded for cost tracking only
	Cost           *llm.CostTracker
	NodeID         string
}

func NewAINode(model llm.ChatModel, promptTemplate, systemPrompt, modelName string, tools []llm.ToolSpec, executables map[string]tool.Tool, responseFormat, nodeID string, cost *llm.CostTracker) *AINode {
	return &AINode{
		Model:          model,
		PromptTemplate: promptTemplate,
		SystemPrompt:   systemPrompt,
		ModelName:      modelName,
		Tools:          tools,
		Executables:    executables,
		ResponseFormat: responseFormat,
		NodeID:         nodeID,
		Cost:           cost,
	}
}

func (n *AINode) Run(ctx context.Context, input map[string]value.Value, _ *rgcontext.Snapshot) (Result, error) {
	prompt := interpolate(n.PromptTemplate, input)

	var messages []llm.Message
	if n.SystemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: interpolate(n.SystemPrompt, input)})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	out, err := n.Model.Chat(ctx, messages, n.Tools)
	if err != nil {
		return Result{}, rgerrors.Wrap(rgerrors.CodeAIProvider, err, "LLM call failed")
	}

	if n.Cost != nil {
		n.Cost.Record(n.NodeID, n.ModelName, out.Usage.PromptTokens, out.Usage.CompletionTokens, time.Now())
	}

	meta := value.NewMapBuilder()
	meta.Set("text", value.String(out.Text))
	if len(out.ToolCalls) > 0 {
		calls := make([]value.Value, len(out.ToolCalls))
		results := make([]value.Value, 0, len(out.ToolCalls))
		for i, tc := range out.ToolCalls {
			b := value.NewMapBuilder()
			b.Set("name", value.String(tc.Name))
			argsMap := make(map[string]value.Value, len(tc.Args))
			for k, v := range tc.Args {
				argsMap[k] = toValue(v)
			}
			b.Set("args", value.Map(argsMap))
			calls[i] = b.Build()

			if t, ok := n.Executables[tc.Name]; ok {
				results = append(results, n.runTool(ctx, t, tc))
			}
		}
		meta.Set("tool_calls", value.Seq(calls...))
		if len(results) > 0 {
			meta.Set("tool_results", value.Seq(results...))
		}
	}
	meta.Set("prompt_tokens", value.Number(float64(out.Usage.PromptTokens)))
	meta.Set("completion_tokens", value.Number(float64(out.Usage.CompletionTokens)))

	output := value.String(out.Text)
	if n.ResponseFormat == "json" || n.ResponseFormat == "structured" {
		parsed, ok := parseStructured(out.Text)
		if !ok {
			return Result{}, rgerrors.New(rgerrors.CodeAIProvider, "model response is not valid JSON and could not be repaired").WithClass(rgerrors.ClassPermanent)
		}
		output = parsed
	}

	return Result{Output: output, Mutations: map[string]value.Value{}}, nil
}

// runTool invokes a single requested tool call and wraps its outcome as a
// structured value — errors are recorded, not returned, since one failed
// tool call must not fail the whole AI node's output.
func (n *AINode) runTool(ctx context.Context, t tool.Tool, tc llm.ToolCall) value.Value {
	b := value.NewMapBuilder()
	b.Set("name", value.String(tc.Name))

	out, err := t.Call(ctx, tc.Args)
	if err != nil {
		b.Set("error", value.String(err.Error()))
		return b.Build()
	}
	outMap := make(map[string]value.Value, len(out))
	for k, v := range out {
		outMap[k] = toValue(v)
	}
	b.Set("output", value.Map(outMap))
	return b.Build()
}

// interpolate replaces {{field}} placeholders with the stringified input
// value, mirroring the spec's "interpolating input-view fields into the
// configured template."
func interpolate(template string, input map[string]value.Value) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}
	result := template
	for k, v := range input {
		placeholder := "{{" + k + "}}"
		if !strings.Contains(result, placeholder) {
			continue
		}
		result = strings.ReplaceAll(result, placeholder, stringify(v))
	}
	return result
}

func stringify(v value.Value) string {
	if v.Kind() == value.KindString {
		s, _ := v.AsString()
		return s
	}
	return string(value.Canonical(v))
}

// parseStructured decodes the model's text as JSON, repairing near-valid
// JSON before giving up, grounded on leofalp-aigo's jsonrepair usage.
func parseStructured(text string) (value.Value, bool) {
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err == nil {
		return fromJSON(raw), true
	}
	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return value.Value{}, false
	}
	if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
		return value.Value{}, false
	}
	return fromJSON(raw), true
}

func fromJSON(raw any) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(v)
	case float64:
		return value.Number(v)
	case string:
		return value.String(v)
	case []any:
		items := make([]value.Value, len(v))
		for i, it := range v {
			items[i] = fromJSON(it)
		}
		return value.Seq(items...)
	case map[string]any:
		m := make(map[string]value.Value, len(v))
		for k, val := range v {
			m[k] = fromJSON(val)
		}
		return value.Map(m)
	default:
		return value.Null()
	}
}

func toValue(raw any) value.Value {
	return fromJSON(raw)
}
