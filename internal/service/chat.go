package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/funnair-assistant/internal/domain"
	"github.com/Rrens/funnair-assistant/internal/llm"
	"github.com/Rrens/funnair-assistant/internal/repository/memory"
	"github.com/Rrens/funnair-assistant/internal/tool"
)

// ProviderSource resolves a completion engine by name
type ProviderSource interface {
	GetProvider(name string) (llm.Provider, error)
}

// ToolDispatcher runs the tools offered to the model
type ToolDispatcher interface {
	Specs() []llm.ToolSpec
	Dispatch(ctx context.Context, call domain.ToolCall) tool.Result
}

// ChatConfig controls the agent loop
type ChatConfig struct {
	Provider       string
	Model          string
	MaxToolRounds  int
	RequestTimeout time.Duration
}

// ChatService runs the tool calling agent loop over per chat histories
type ChatService struct {
	providers     ProviderSource
	tools         ToolDispatcher
	conversations *memory.ConversationStore
	cfg           ChatConfig
	now           func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(providers ProviderSource, tools ToolDispatcher, conversations *memory.ConversationStore, cfg ChatConfig) *ChatService {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 5
	}
	return &ChatService{
		providers:     providers,
		tools:         tools,
		conversations: conversations,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Stream answers message in the chat identified by chatID. Fragments are
// delivered on the returned channel, which is closed when the turn is over.
// Turns of the same chat run one at a time, in arrival order.
func (s *ChatService) Stream(ctx context.Context, chatID, message string) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		s.run(ctx, chatID, message, out)
	}()
	return out
}

// HistoryLength returns the number of messages kept for chatID
func (s *ChatService) HistoryLength(chatID string) int {
	return s.conversations.Len(chatID)
}

// ClearHistory forgets the messages of chatID
func (s *ChatService) ClearHistory(ctx context.Context, chatID string) error {
	return s.conversations.Clear(ctx, chatID)
}

func (s *ChatService) run(ctx context.Context, chatID, message string, out chan<- string) {
	logger := log.With().
		Str("chat_id", chatID).
		Str("turn_id", uuid.NewString()).
		Logger()
	start := time.Now()

	thread, err := s.conversations.Acquire(ctx, chatID)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error().Err(err).Msg("failed to open conversation")
			emit(ctx, out, llm.ApologyMessage)
		}
		return
	}
	defer thread.Release()

	thread.Append(domain.Message{Role: domain.RoleUser, Content: message, CreatedAt: s.now()})

	provider, err := s.providers.GetProvider(s.cfg.Provider)
	if err != nil {
		s.fail(ctx, logger, out, fmt.Errorf("%w: %w", domain.ErrCompletionFailed, err))
		return
	}

	specs := s.tools.Specs()
	system := llm.BuildSystemPrompt(s.now(), specs)

	for round := 1; round <= s.cfg.MaxToolRounds; round++ {
		// a caller that went away gets no further rounds
		if ctx.Err() != nil {
			logger.Info().Int("round", round).Msg("caller left, turn abandoned")
			return
		}

		resp, err := s.propose(ctx, provider, llm.ChatRequest{
			System:   system,
			Messages: thread.Messages(),
			Tools:    specs,
		}, out)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info().Err(err).Msg("caller left during completion")
				return
			}
			s.fail(ctx, logger, out, fmt.Errorf("%w: %w", domain.ErrCompletionFailed, err))
			return
		}

		logger.Debug().
			Int("round", round).
			Str("model", resp.Model).
			Int("tokens", resp.TokensUsed).
			Int64("latency_ms", resp.LatencyMs).
			Int("tool_calls", len(resp.ToolCalls)).
			Msg("completion round")

		if len(resp.ToolCalls) == 0 {
			thread.Append(domain.Message{Role: domain.RoleAssistant, Content: resp.Content, CreatedAt: s.now()})
			logger.Info().
				Int("rounds", round).
				Dur("duration", time.Since(start)).
				Msg("chat turn completed")
			return
		}

		thread.Append(domain.Message{
			Role:      domain.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
			CreatedAt: s.now(),
		})

		// tools finish even if the caller disconnects mid-call
		toolCtx := context.WithoutCancel(ctx)
		for _, call := range resp.ToolCalls {
			result := s.tools.Dispatch(toolCtx, call)
			thread.Append(domain.Message{
				Role:       domain.RoleTool,
				Content:    result.Content(),
				ToolCallID: call.ID,
				ToolName:   call.Name,
				CreatedAt:  s.now(),
			})
		}
	}

	s.fail(ctx, logger, out, fmt.Errorf("%w: %w after %d rounds", domain.ErrCompletionFailed, domain.ErrToolRoundsExceeded, s.cfg.MaxToolRounds))
}

func (s *ChatService) propose(ctx context.Context, provider llm.Provider, req llm.ChatRequest, out chan<- string) (*llm.ChatResponse, error) {
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	return provider.Chat(ctx, req, s.cfg.Model, func(fragment string) {
		emit(ctx, out, fragment)
	})
}

// fail logs err and tells the caller to try again later
func (s *ChatService) fail(ctx context.Context, logger zerolog.Logger, out chan<- string, err error) {
	logger.Error().Err(err).Msg("chat turn failed")
	emit(ctx, out, llm.ApologyMessage)
}

// emit delivers one fragment unless the caller is gone
func emit(ctx context.Context, out chan<- string, fragment string) bool {
	select {
	case out <- fragment:
		return true
	case <-ctx.Done():
		return false
	}
}
