package google

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"

	"github.com/reasonflow/graphcore/llm"
)

func TestNewChatModelDefaultsModelName(t *testing.T) {
	m := NewChatModel("key", "")
	require.Equal(t, "gemini-2.5-flash", m.modelName)
}

func TestSafetyFilterErrorFormatsCategory(t *testing.T) {
	err := &SafetyFilterError{Category: "SAFETY"}
	require.Equal(t, "content blocked by safety filter: SAFETY", err.Error())
}

func TestChatRejectsMissingAPIKey(t *testing.T) {
	m := NewChatModel("", "")
	_, err := m.Chat(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestChatFailsFastOnCancelledContext(t *testing.T) {
	m := NewChatModel("key", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
}

func TestConvertMessagesSkipsEmptyContent(t *testing.T) {
	parts := convertMessages([]llm.Message{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleUser, Content: ""},
	})
	require.Len(t, parts, 1)
}

func TestConvertSchemaReturnsNilForNilSchema(t *testing.T) {
	require.Nil(t, convertSchema(nil))
}

func TestConvertSchemaBuildsPropertiesAndRequired(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{
			"city": map[string]any{"type": "string", "description": "the city"},
		},
		"required": []any{"city"},
	}
	result := convertSchema(schema)
	require.Equal(t, genai.TypeObject, result.Type)
	require.Contains(t, result.Properties, "city")
	require.Equal(t, genai.TypeString, result.Properties["city"].Type)
	require.Equal(t, "the city", result.Properties["city"].Description)
	require.Equal(t, []string{"city"}, result.Required)
}

func TestConvertTypeStringMapsKnownTypesAndDefaultsToUnspecified(t *testing.T) {
	require.Equal(t, genai.TypeString, convertTypeString("string"))
	require.Equal(t, genai.TypeNumber, convertTypeString("number"))
	require.Equal(t, genai.TypeInteger, convertTypeString("integer"))
	require.Equal(t, genai.TypeBoolean, convertTypeString("boolean"))
	require.Equal(t, genai.TypeArray, convertTypeString("array"))
	require.Equal(t, genai.TypeObject, convertTypeString("object"))
	require.Equal(t, genai.TypeUnspecified, convertTypeString("something_else"))
}

func TestConvertResponseReturnsZeroValueForNoCandidates(t *testing.T) {
	resp := &genai.GenerateContentResponse{}
	out := convertResponse(resp)
	require.Empty(t, out.Text)
	require.Empty(t, out.ToolCalls)
}

func TestConvertToolsWrapsFunctionDeclarationsInSingleTool(t *testing.T) {
	tools := convertTools([]llm.ToolSpec{{Name: "get_weather", Description: "look up weather"}})
	require.Len(t, tools, 1)
	require.Len(t, tools[0].FunctionDeclarations, 1)
	require.Equal(t, "get_weather", tools[0].FunctionDeclarations[0].Name)
}
