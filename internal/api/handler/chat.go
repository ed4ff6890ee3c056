package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/funnair-assistant/internal/api/response"
	"github.com/Rrens/funnair-assistant/internal/domain"
	"github.com/Rrens/funnair-assistant/internal/service"
)

// ChatHandler handles the assistant chat endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Stream answers a chat message as a server-sent event stream. Every stream
// that got past validation ends with exactly one [DONE] frame.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, validationMessage(err))
		return
	}

	stream := response.NewEventStream(w)
	broken := false

	// the channel is drained even after a failed write so the turn can finish
	for fragment := range h.chatService.Stream(r.Context(), req.ChatID, req.Message) {
		if broken {
			continue
		}
		if err := stream.Send(domain.ChatFrame{Chunk: fragment}); err != nil {
			log.Warn().
				Err(err).
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("chat_id", req.ChatID).
				Msg("chat stream write failed")
			broken = true
		}
	}

	if !broken {
		stream.Send(domain.ChatFrame{Chunk: domain.StreamDone})
	}
}

// History reports how many messages are kept for a chat
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	response.OK(w, map[string]any{
		"chat_id":  chatID,
		"messages": h.chatService.HistoryLength(chatID),
	})
}

// Clear forgets a chat
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	if err := h.chatService.ClearHistory(r.Context(), chatID); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.OK(w, map[string]string{
		"message": "conversation cleared",
	})
}
