package openai_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/funnair-assistant/internal/config"
	"github.com/Rrens/funnair-assistant/internal/domain"
	"github.com/Rrens/funnair-assistant/internal/llm"
	"github.com/Rrens/funnair-assistant/internal/llm/openai"
)

func sse(w http.ResponseWriter, chunks ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, c := range chunks {
		fmt.Fprintf(w, "data: %s\n\n", c)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func chunk(delta string) string {
	return `{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":` + delta + `,"finish_reason":null}]}`
}

func newTestProvider(t *testing.T, h http.HandlerFunc) *openai.Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return openai.NewProvider("openai", config.OpenAIConfig{
		APIKey:         "sk-test",
		Model:          "gpt-4o-mini",
		BaseURL:        srv.URL + "/v1",
		EmbeddingModel: "text-embedding-3-small",
	}, option.WithMaxRetries(0))
}

func TestProvider_ChatStreamsContent(t *testing.T) {
	var body map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		sse(w,
			chunk(`{"role":"assistant","content":"Hello"}`),
			chunk(`{"content":", Frank!"}`),
		)
	})

	var fragments []string
	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		System: "be nice",
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "hi"},
		},
		Tools: []llm.ToolSpec{{Name: "search_policy", Description: "policy", Params: []llm.ToolParam{{Name: "query"}}}},
	}, "", func(s string) { fragments = append(fragments, s) })
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello", ", Frank!"}, fragments)
	assert.Equal(t, "Hello, Frank!", resp.Content)
	assert.Empty(t, resp.ToolCalls)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, true, body["stream"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "search_policy", fn["name"])
}

func TestProvider_ChatToolCall(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		sse(w,
			chunk(`{"role":"assistant","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"cancel_booking","arguments":""}}]}`),
			chunk(`{"tool_calls":[{"index":0,"function":{"arguments":"{\"booking_number\":\"101\","}}]}`),
			chunk(`{"tool_calls":[{"index":0,"function":{"arguments":"\"first_name\":\"Frank\",\"last_name\":\"Li\"}"}}]}`),
		)
	})

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "cancel 101 Frank Li"}},
	}, "", nil)
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "cancel_booking", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"booking_number":"101","first_name":"Frank","last_name":"Li"}`, resp.ToolCalls[0].Arguments)
}

func TestProvider_ChatReplaysToolHistory(t *testing.T) {
	var body map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		sse(w, chunk(`{"content":"done"}`))
	})

	_, err := p.Chat(context.Background(), llm.ChatRequest{
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "cancel"},
			{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{ID: "call_1", Name: "cancel_booking", Arguments: "{}"}}},
			{Role: domain.RoleTool, ToolCallID: "call_1", Content: `{"success":true}`},
		},
	}, "", nil)
	require.NoError(t, err)

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 3)
	assistant := msgs[1].(map[string]any)
	assert.Equal(t, "assistant", assistant["role"])
	calls := assistant["tool_calls"].([]any)
	assert.Equal(t, "call_1", calls[0].(map[string]any)["id"])
	tool := msgs[2].(map[string]any)
	assert.Equal(t, "tool", tool["role"])
	assert.Equal(t, "call_1", tool["tool_call_id"])
}

func TestProvider_ChatError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`)
	})

	_, err := p.Chat(context.Background(), llm.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	}, "", nil)
	assert.Error(t, err)
}

func TestProvider_Embed(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"))
		w.Header().Set("Content-Type", "application/json")
		// out of order on purpose
		fmt.Fprint(w, `{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}
		],"usage":{"prompt_tokens":2,"total_tokens":2}}`)
	})

	vecs, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestProvider_IsConfigured(t *testing.T) {
	p := openai.NewProvider("deepseek", config.OpenAIConfig{Model: "deepseek-chat"})
	assert.False(t, p.IsConfigured())
	assert.Equal(t, "deepseek", p.Name())
	assert.Equal(t, []string{"deepseek-chat"}, p.AvailableModels())
}
