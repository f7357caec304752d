// Package tool implements the executable side of AI Node tool-calling
// (supplemental to §4.6.3, grounded on the teacher's graph/tool package):
// the Tool interface a graph author implements, plus a mock and an HTTP
// tool adapted from the teacher almost unchanged since both are already
// domain-agnostic.
package tool

import "context"

// Tool is something an AI node can invoke once the model has requested a
// named call with arguments. Separate from llm.ToolSpec, which only
// describes a tool's name/schema to the model — Tool is the thing that
// actually runs.
type Tool interface {
	Name() string
	Call(ctx context.Context, input map[string]any) (map[string]any, error)
}
