package llm

import (
	"context"

	"github.com/Rrens/funnair-assistant/internal/domain"
)

// ToolParam describes one string argument of a tool
type ToolParam struct {
	Name        string
	Description string
}

// ToolSpec describes a tool the model may call
type ToolSpec struct {
	Name        string
	Description string
	Params      []ToolParam // all params are required strings
}

// JSONSchema renders the parameters as a JSON-schema object
func (s ToolSpec) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Params))
	required := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		props[p.Name] = map[string]any{
			"type":        "string",
			"description": p.Description,
		}
		required = append(required, p.Name)
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ChatRequest contains one completion round
type ChatRequest struct {
	System   string
	Messages []domain.Message
	Tools    []ToolSpec
}

// ChatResponse contains the result of one completion round. Either Content
// is final or ToolCalls asks for another round.
type ChatResponse struct {
	Content    string
	ToolCalls  []domain.ToolCall
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// StreamFunc receives content fragments as they arrive
type StreamFunc func(fragment string)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Chat runs one completion round, streaming content fragments to onChunk
	Chat(ctx context.Context, req ChatRequest, model string, onChunk StreamFunc) (*ChatResponse, error)
}

// Embedder turns texts into vectors
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
