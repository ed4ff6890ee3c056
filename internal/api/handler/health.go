package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/funnair-assistant/internal/api/response"
	"github.com/Rrens/funnair-assistant/internal/llm"
	"github.com/Rrens/funnair-assistant/internal/rag"
)

// CacheFlusher drops cached entries
type CacheFlusher interface {
	FlushAll(ctx context.Context) (int64, error)
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// Root describes the service
func Root(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"service": "Funnair customer support assistant",
		"chat":    "/api/chat/stream",
		"health":  "/health",
	})
}

// ReadyCheck reports the state of the policy index
func ReadyCheck(stats func() rag.Stats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := stats()
		if !s.Ready {
			response.JSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "warming",
				"index":  s,
			})
			return
		}

		response.OK(w, map[string]any{
			"status": "ready",
			"index":  s,
		})
	}
}

// ListLLMProviders returns the registered completion engines
func ListLLMProviders(router *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        router.GetProvidersInfo(),
			"default_provider": router.DefaultProvider(),
		})
	}
}

// FlushCache clears the cached query embeddings
func FlushCache(cache CacheFlusher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := cache.FlushAll(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to flush cache: "+err.Error())
			return
		}

		response.OK(w, map[string]any{
			"message":      "cache flushed successfully",
			"keys_deleted": deleted,
		})
	}
}
