package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Rrens/funnair-assistant/internal/config"
	"github.com/Rrens/funnair-assistant/internal/domain"
	"github.com/Rrens/funnair-assistant/internal/llm"
)

// Provider implements llm.Provider and llm.Embedder for OpenAI and any
// endpoint speaking the same API (DeepSeek, OpenRouter, vLLM).
type Provider struct {
	name           string
	apiKey         string
	defaultModel   string
	embeddingModel string
	models         []string
	client         sdk.Client
}

// NewProvider creates a new OpenAI compatible provider registered as name
func NewProvider(name string, cfg config.OpenAIConfig, opts ...option.RequestOption) *Provider {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithRequestTimeout(120 * time.Second),
	}
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base+"/"))
	}
	reqOpts = append(reqOpts, opts...)

	models := []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1", "gpt-4.1-mini"}
	if name != "openai" {
		models = []string{cfg.Model}
	}

	return &Provider{
		name:           name,
		apiKey:         cfg.APIKey,
		defaultModel:   cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		models:         models,
		client:         sdk.NewClient(reqOpts...),
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return p.name
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return p.models
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

// Chat streams one completion round
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest, model string, onChunk llm.StreamFunc) (*llm.ChatResponse, error) {
	if model == "" {
		model = p.defaultModel
	}

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(model),
		Messages: toMessages(req),
		StreamOptions: sdk.ChatCompletionStreamOptionsParam{
			IncludeUsage: sdk.Bool(true),
		},
	}
	if len(req.Tools) > 0 {
		params.Tools = toTools(req.Tools)
	}

	start := time.Now()

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := sdk.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && onChunk != nil {
			onChunk(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%s stream failed: %w", p.name, err)
	}

	if len(acc.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.name)
	}

	msg := acc.Choices[0].Message
	resp := &llm.ChatResponse{
		Content:    msg.Content,
		Model:      model,
		TokensUsed: int(acc.Usage.TotalTokens),
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	for _, tc := range msg.ToolCalls {
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		resp.ToolCalls = append(resp.ToolCalls, domain.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return resp, nil
}

// Embed returns one vector per text, in input order
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if p.embeddingModel == "" {
		return nil, errors.New("embedding model is not configured")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := p.client.Embeddings.New(ctx, sdk.EmbeddingNewParams{
		Input: sdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: sdk.EmbeddingModel(p.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("%s embeddings failed: %w", p.name, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%s returned %d embeddings for %d inputs", p.name, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(vectors) {
			return nil, fmt.Errorf("%s returned embedding index %d out of range", p.name, d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}
	return vectors, nil
}

func toMessages(req llm.ChatRequest) []sdk.ChatCompletionMessageParamUnion {
	msgs := make([]sdk.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, sdk.SystemMessage(req.System))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleUser:
			msgs = append(msgs, sdk.UserMessage(m.Content))
		case domain.RoleTool:
			msgs = append(msgs, sdk.ToolMessage(m.Content, m.ToolCallID))
		case domain.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				msgs = append(msgs, sdk.AssistantMessage(m.Content))
				continue
			}
			assistant := &sdk.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content = sdk.ChatCompletionAssistantMessageParamContentUnion{OfString: sdk.String(m.Content)}
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, sdk.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: sdk.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			msgs = append(msgs, sdk.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		}
	}
	return msgs
}

func toTools(specs []llm.ToolSpec) []sdk.ChatCompletionToolParam {
	tools := make([]sdk.ChatCompletionToolParam, 0, len(specs))
	for _, s := range specs {
		tools = append(tools, sdk.ChatCompletionToolParam{
			Function: sdk.FunctionDefinitionParam{
				Name:        s.Name,
				Description: sdk.String(s.Description),
				Parameters:  sdk.FunctionParameters(s.JSONSchema()),
			},
		})
	}
	return tools
}
