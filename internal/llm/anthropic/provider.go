package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rrens/funnair-assistant/internal/config"
	"github.com/Rrens/funnair-assistant/internal/domain"
	"github.com/Rrens/funnair-assistant/internal/llm"
)

const apiVersion = "2023-06-01"

// Provider implements llm.Provider for Anthropic
type Provider struct {
	apiKey       string
	defaultModel string
	maxTokens    int
	client       *http.Client
	baseURL      string
}

// NewProvider creates a new Anthropic provider
func NewProvider(cfg config.AnthropicConfig) *Provider {
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-sonnet-20241022"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	return &Provider{
		apiKey:       cfg.APIKey,
		defaultModel: cfg.Model,
		maxTokens:    cfg.MaxTokens,
		client:       &http.Client{Timeout: 120 * time.Second},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "anthropic"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"claude-3-opus-20240229",
		"claude-3-sonnet-20240229",
		"claude-3-haiku-20240307",
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	Tools     []tool    `json:"tools,omitempty"`
	Stream    bool      `json:"stream"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type streamEvent struct {
	Type    string `json:"type"`
	Index   int    `json:"index"`
	Message struct {
		Usage usage `json:"usage"`
	} `json:"message"`
	ContentBlock contentBlock `json:"content_block"`
	Delta        struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
	Usage usage `json:"usage"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type toolUse struct {
	id    string
	name  string
	input strings.Builder
}

// Chat streams one completion round from /messages
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest, model string, onChunk llm.StreamFunc) (*llm.ChatResponse, error) {
	if model == "" {
		model = p.defaultModel
	}

	anthropicReq := messagesRequest{
		Model:     model,
		MaxTokens: p.maxTokens,
		System:    req.System,
		Messages:  toMessages(req.Messages),
		Stream:    true,
	}
	for _, t := range req.Tools {
		anthropicReq.Tools = append(anthropicReq.Tools, tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.JSONSchema(),
		})
	}

	body, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("anthropic returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var (
		content  strings.Builder
		tokens   usage
		calls    = make(map[int]*toolUse)
		order    []int
		finished bool
	)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for !finished && scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			// event names repeat the type carried in the data line
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &event); err != nil {
			return nil, fmt.Errorf("failed to decode stream event: %w", err)
		}

		switch event.Type {
		case "message_start":
			tokens.InputTokens = event.Message.Usage.InputTokens
		case "content_block_start":
			if event.ContentBlock.Type == "tool_use" {
				calls[event.Index] = &toolUse{id: event.ContentBlock.ID, name: event.ContentBlock.Name}
				order = append(order, event.Index)
			}
		case "content_block_delta":
			switch event.Delta.Type {
			case "text_delta":
				content.WriteString(event.Delta.Text)
				if onChunk != nil && event.Delta.Text != "" {
					onChunk(event.Delta.Text)
				}
			case "input_json_delta":
				if call, ok := calls[event.Index]; ok {
					call.input.WriteString(event.Delta.PartialJSON)
				}
			}
		case "message_delta":
			tokens.OutputTokens = event.Usage.OutputTokens
		case "message_stop":
			finished = true
		case "error":
			return nil, fmt.Errorf("anthropic error: %s: %s", event.Error.Type, event.Error.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	if !finished {
		return nil, fmt.Errorf("anthropic stream ended before message_stop")
	}

	out := &llm.ChatResponse{
		Content:    content.String(),
		Model:      model,
		TokensUsed: tokens.InputTokens + tokens.OutputTokens,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	for _, idx := range order {
		call := calls[idx]
		args := strings.TrimSpace(call.input.String())
		if args == "" {
			args = "{}"
		}
		id := call.id
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		out.ToolCalls = append(out.ToolCalls, domain.ToolCall{ID: id, Name: call.name, Arguments: args})
	}
	return out, nil
}

// toMessages maps the thread onto alternating user and assistant turns.
// Tool results travel as tool_result blocks inside a user turn.
func toMessages(thread []domain.Message) []message {
	msgs := make([]message, 0, len(thread))

	appendBlocks := func(role string, blocks ...contentBlock) {
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content = append(msgs[n-1].Content, blocks...)
			return
		}
		msgs = append(msgs, message{Role: role, Content: blocks})
	}

	for _, m := range thread {
		switch m.Role {
		case domain.RoleUser:
			text := m.Content
			if strings.TrimSpace(text) == "" {
				// blank text blocks are rejected
				text = "(empty message)"
			}
			appendBlocks("user", contentBlock{Type: "text", Text: text})
		case domain.RoleAssistant:
			var blocks []contentBlock
			if strings.TrimSpace(m.Content) != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				input := json.RawMessage(tc.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, contentBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
			}
			if len(blocks) == 0 {
				continue
			}
			appendBlocks("assistant", blocks...)
		case domain.RoleTool:
			appendBlocks("user", contentBlock{Type: "tool_result", ToolUseID: m.ToolCallID, Content: m.Content})
		}
	}
	return msgs
}
