package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/funnair-assistant/internal/llm"
)

type stubProvider struct {
	name       string
	configured bool
}

func (p stubProvider) Name() string              { return p.name }
func (p stubProvider) AvailableModels() []string { return []string{p.name + "-model"} }
func (p stubProvider) DefaultModel() string      { return p.name + "-model" }
func (p stubProvider) IsConfigured() bool        { return p.configured }
func (p stubProvider) Chat(ctx context.Context, req llm.ChatRequest, model string, onChunk llm.StreamFunc) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Content: "ok", Model: model}, nil
}

type stubEmbedder struct{ name string }

func (e stubEmbedder) Name() string { return e.name }
func (e stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func TestRouter(t *testing.T) {
	r := llm.NewRouter("openai")
	r.RegisterProvider(stubProvider{name: "openai", configured: true})
	r.RegisterProvider(stubProvider{name: "gemini", configured: false})
	r.RegisterEmbedder(stubEmbedder{name: "openai"})

	t.Run("default provider", func(t *testing.T) {
		p, err := r.GetProvider("")
		require.NoError(t, err)
		assert.Equal(t, "openai", p.Name())
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		_, err := r.GetProvider("gemini")
		assert.ErrorContains(t, err, "not configured")
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := r.GetProvider("anthropic")
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("embedder", func(t *testing.T) {
		e, err := r.GetEmbedder("")
		require.NoError(t, err)
		assert.Equal(t, "openai", e.Name())

		_, err = r.GetEmbedder("gemini")
		assert.Error(t, err)
	})

	t.Run("info", func(t *testing.T) {
		assert.Equal(t, []string{"openai"}, r.ListProviders())

		infos := r.GetProvidersInfo()
		require.Len(t, infos, 2)
		assert.Equal(t, "gemini", infos[0].Name)
		assert.False(t, infos[0].Configured)
		assert.True(t, infos[1].Default)
		assert.True(t, infos[1].Embeddings)
	})
}
