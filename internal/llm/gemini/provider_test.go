package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/funnair-assistant/internal/config"
	"github.com/Rrens/funnair-assistant/internal/domain"
	"github.com/Rrens/funnair-assistant/internal/llm"
)

func TestToContents(t *testing.T) {
	contents, err := toContents([]domain.Message{
		{Role: domain.RoleUser, Content: "cancel 101 and 102"},
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{
			{ID: "a", Name: "cancel_booking", Arguments: `{"booking_number":"101"}`},
			{ID: "b", Name: "cancel_booking", Arguments: `{"booking_number":"102"}`},
		}},
		{Role: domain.RoleTool, ToolCallID: "a", ToolName: "cancel_booking", Content: `{"success":true}`},
		{Role: domain.RoleTool, ToolCallID: "b", ToolName: "cancel_booking", Content: "plain text"},
		{Role: domain.RoleAssistant, Content: "Both are cancelled."},
	})
	require.NoError(t, err)
	require.Len(t, contents, 4)

	assert.Equal(t, "user", contents[0].Role)

	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	call := contents[1].Parts[0].(genai.FunctionCall)
	assert.Equal(t, "101", call.Args["booking_number"])

	assert.Equal(t, "user", contents[2].Role)
	require.Len(t, contents[2].Parts, 2)
	first := contents[2].Parts[0].(genai.FunctionResponse)
	assert.Equal(t, true, first.Response["success"])
	second := contents[2].Parts[1].(genai.FunctionResponse)
	assert.Equal(t, "plain text", second.Response["result"])

	assert.Equal(t, genai.Text("Both are cancelled."), contents[3].Parts[0])
}

func TestToContents_BadArguments(t *testing.T) {
	_, err := toContents([]domain.Message{
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{Name: "x", Arguments: "{"}}},
	})
	assert.Error(t, err)
}

func TestToTool(t *testing.T) {
	tool := toTool([]llm.ToolSpec{{
		Name:        "search_policy",
		Description: "Search policies",
		Params:      []llm.ToolParam{{Name: "query", Description: "question"}},
	}})

	require.Len(t, tool.FunctionDeclarations, 1)
	decl := tool.FunctionDeclarations[0]
	assert.Equal(t, "search_policy", decl.Name)
	assert.Equal(t, genai.TypeObject, decl.Parameters.Type)
	assert.Equal(t, []string{"query"}, decl.Parameters.Required)
	assert.Equal(t, genai.TypeString, decl.Parameters.Properties["query"].Type)
}

func TestFromParts(t *testing.T) {
	calls, text, err := fromParts([]genai.Part{
		genai.Text("Let me check. "),
		genai.FunctionCall{Name: "get_booking_details", Args: map[string]any{"booking_number": "103"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Let me check. ", text)
	require.Len(t, calls, 1)
	assert.Equal(t, "get_booking_details", calls[0].Name)
	assert.NotEmpty(t, calls[0].ID)
	assert.JSONEq(t, `{"booking_number":"103"}`, calls[0].Arguments)
}

func TestProvider_NotConfigured(t *testing.T) {
	p := NewProvider(config.GeminiConfig{})
	assert.False(t, p.IsConfigured())
	assert.Equal(t, "gemini-2.5-flash", p.DefaultModel())

	_, err := p.Chat(context.Background(), llm.ChatRequest{}, "", nil)
	assert.ErrorContains(t, err, "not configured")

	_, err = p.Embed(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "not configured")
}
