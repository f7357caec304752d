package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reasonflow/graphcore/llm"
	"github.com/reasonflow/graphcore/tool"
	"github.com/reasonflow/graphcore/value"
)

func TestAINodeInterpolatesPromptAndReturnsText(t *testing.T) {
	model := &llm.MockChatModel{Responses: []llm.ChatOut{{Text: "hello world", Usage: llm.Usage{PromptTokens: 10, CompletionTokens: 2}}}}
	n := NewAINode(model, "Summarize {{topic}} for the reader.", "", "test-model", nil, nil, "", "summarize", nil)

	res, err := n.Run(context.Background(), map[string]value.Value{"topic": value.String("graph execution")}, nil)
	require.NoError(t, err)

	s, ok := res.Output.AsString()
	require.True(t, ok)
	require.Equal(t, "hello world", s)
	require.Len(t, model.Calls, 1)
	require.Equal(t, "Summarize graph execution for the reader.", model.Calls[0].Messages[len(model.Calls[0].Messages)-1].Content)
}

func TestAINodeParsesStructuredJSONResponseFormat(t *testing.T) {
	model := &llm.MockChatModel{Responses: []llm.ChatOut{{Text: `{"verdict": "pass", "score": 9}`}}}
	n := NewAINode(model, "classify", "", "test-model", nil, nil, "json", "classify", nil)

	res, err := n.Run(context.Background(), nil, nil)
	require.NoError(t, err)

	verdict, ok := res.Output.MapGet("verdict")
	require.True(t, ok)
	s, _ := verdict.AsString()
	require.Equal(t, "pass", s)
}

func TestAINodeRepairsNearValidJSONResponseFormat(t *testing.T) {
	model := &llm.MockChatModel{Responses: []llm.ChatOut{{Text: `{"verdict": "pass",}`}}}
	n := NewAINode(model, "classify", "", "test-model", nil, nil, "json", "classify", nil)

	res, err := n.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	verdict, ok := res.Output.MapGet("verdict")
	require.True(t, ok)
	s, _ := verdict.AsString()
	require.Equal(t, "pass", s)
}

func TestAINodeFailsOnUnrepairableStructuredResponse(t *testing.T) {
	model := &llm.MockChatModel{Responses: []llm.ChatOut{{Text: "not json at all {{{"}}}}
	n := NewAINode(model, "classify", "", "test-model", nil, nil, "json", "classify", nil)

	_, err := n.Run(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestAINodeWrapsProviderErrorAsAIProviderCode(t *testing.T) {
	model := &llm.MockChatModel{Err: context.DeadlineExceeded}
	n := NewAINode(model, "classify", "", "test-model", nil, nil, "", "classify", nil)

	_, err := n.Run(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestAINodeInvokesMatchingExecutableToolAndRecordsResults(t *testing.T) {
	weatherTool := &tool.MockTool{ToolName: "get_weather", Responses: []map[string]any{{"forecast": "sunny"}}}
	model := &llm.MockChatModel{Responses: []llm.ChatOut{{
		Text:      "",
		ToolCalls: []llm.ToolCall{{Name: "get_weather", Args: map[string]any{"city": "nowhere"}}},
	}}}

	n := NewAINode(model, "what's the weather?", "", "test-model",
		[]llm.ToolSpec{{Name: "get_weather", Description: "look up weather"}},
		map[string]tool.Tool{"get_weather": weatherTool},
		"", "weather", nil)

	_, err := n.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, weatherTool.CallCount())
	require.Equal(t, "nowhere", weatherTool.Calls[0]["city"])
}

func TestAINodeSkipsToolCallsWithNoMatchingExecutable(t *testing.T) {
	model := &llm.MockChatModel{Responses: []llm.ChatOut{{
		ToolCalls: []llm.ToolCall{{Name: "unregistered_tool", Args: map[string]any{}}},
	}}}

	n := NewAINode(model, "do something", "", "test-model", nil, nil, "", "n1", nil)
	res, err := n.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	require.False(t, res.Output.IsNull())
}
