package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockToolCyclesThroughResponsesThenRepeatsLast(t *testing.T) {
	m := &MockTool{ToolName: "lookup", Responses: []map[string]any{{"v": 1}, {"v": 2}}}
	require.Equal(t, "lookup", m.Name())

	out1, err := m.Call(context.Background(), map[string]any{"q": "a"})
	require.NoError(t, err)
	require.Equal(t, 1, out1["v"])

	out2, err := m.Call(context.Background(), map[string]any{"q": "b"})
	require.NoError(t, err)
	require.Equal(t, 2, out2["v"])

	out3, err := m.Call(context.Background(), map[string]any{"q": "c"})
	require.NoError(t, err)
	require.Equal(t, 2, out3["v"])

	require.Equal(t, 3, m.CallCount())
	require.Equal(t, "a", m.Calls[0]["q"])
}

func TestMockToolReturnsInjectedError(t *testing.T) {
	m := &MockTool{ToolName: "broken", Err: errors.New("boom")}
	_, err := m.Call(context.Background(), map[string]any{})
	require.Error(t, err)
}

func TestMockToolRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &MockTool{ToolName: "lookup"}
	_, err := m.Call(ctx, map[string]any{})
	require.Error(t, err)
}
