package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/funnair-assistant/internal/api"
	"github.com/Rrens/funnair-assistant/internal/config"
	"github.com/Rrens/funnair-assistant/internal/domain"
	"github.com/Rrens/funnair-assistant/internal/llm"
	"github.com/Rrens/funnair-assistant/internal/llm/anthropic"
	"github.com/Rrens/funnair-assistant/internal/llm/gemini"
	"github.com/Rrens/funnair-assistant/internal/llm/ollama"
	"github.com/Rrens/funnair-assistant/internal/llm/openai"
	"github.com/Rrens/funnair-assistant/internal/logger"
	"github.com/Rrens/funnair-assistant/internal/rag"
	"github.com/Rrens/funnair-assistant/internal/repository/memory"
	"github.com/Rrens/funnair-assistant/internal/repository/redis"
	"github.com/Rrens/funnair-assistant/internal/service"
	"github.com/Rrens/funnair-assistant/internal/tool"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	envLoaded := false
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			envLoaded = true
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logCloser, err := logger.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if !envLoaded {
		log.Warn().Msg(".env file not found in any standard location")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("provider", cfg.LLM.DefaultProvider).
		Msg("Starting Funnair assistant")

	// Bookings
	var seed []domain.Booking
	if cfg.Booking.SeedDemo {
		seed = memory.DemoBookings(time.Now(), rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	}
	bookingStore, err := memory.NewBookingStore(seed)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed bookings")
	}
	bookingService := service.NewBookingService(bookingStore)
	log.Info().Int("bookings", len(seed)).Msg("Booking store ready")

	// Initialize LLM Router with providers
	llmRouter := newLLMRouter(cfg)

	// Redis is optional, it backs the rate limiter and the embedding cache
	var (
		rateLimiter    *redis.RateLimiter
		embeddingCache *redis.EmbeddingCache
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		rateLimiter = redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute)
		if model := cfg.EmbeddingModel(); model != "" {
			embeddingCache = redis.NewEmbeddingCache(redisClient, model, cfg.Redis.CacheTTL)
		}
		log.Info().Str("addr", cfg.Redis.Addr()).Msg("Redis connected")
	}

	// Policy retrieval
	embedder, err := llmRouter.GetEmbedder(cfg.Embedding.Provider)
	if err != nil {
		log.Warn().Err(err).Msg("No embedder available, policy search will return nothing")
		embedder = nil
	}

	var ragOpts []rag.Option
	if embeddingCache != nil {
		ragOpts = append(ragOpts, rag.WithQueryCache(embeddingCache))
	}
	policies := rag.NewService(rag.Config{
		DocumentPath: cfg.RAG.DocumentPath,
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		TopK:         cfg.RAG.TopK,
		BatchSize:    cfg.Embedding.BatchSize,
	}, embedder, ragOpts...)

	if cfg.RAG.WarmOnStart {
		go policies.Warm(context.Background())
	}

	// Agent
	chatService := service.NewChatService(
		llmRouter,
		tool.NewRegistry(bookingService, policies),
		memory.NewConversationStore(),
		service.ChatConfig{
			Provider:       cfg.LLM.DefaultProvider,
			Model:          cfg.LLM.Model,
			MaxToolRounds:  cfg.LLM.MaxToolRounds,
			RequestTimeout: cfg.LLM.RequestTimeout,
		},
	)

	deps := api.Dependencies{
		Bookings: bookingService,
		Chat:     chatService,
		LLM:      llmRouter,
		Policies: policies,
	}
	if rateLimiter != nil {
		deps.RateLimiter = rateLimiter
	}
	if embeddingCache != nil {
		deps.Cache = embeddingCache
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// newLLMRouter registers every configured completion engine and embedder
func newLLMRouter(cfg *config.Config) *llm.Router {
	router := llm.NewRouter(cfg.LLM.DefaultProvider)

	if cfg.LLM.OpenAI.APIKey != "" {
		p := openai.NewProvider("openai", cfg.LLM.OpenAI)
		router.RegisterProvider(p)
		router.RegisterEmbedder(p)
	}
	if cfg.LLM.DeepSeek.APIKey != "" {
		// DeepSeek has no embeddings endpoint
		router.RegisterProvider(openai.NewProvider("deepseek", cfg.LLM.DeepSeek))
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		// Anthropic has no embeddings endpoint either
		router.RegisterProvider(anthropic.NewProvider(cfg.LLM.Anthropic))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		p := gemini.NewProvider(cfg.LLM.Gemini)
		router.RegisterProvider(p)
		router.RegisterEmbedder(p)
	} else {
		log.Debug().Msg("Gemini API key is empty, skipping registration")
	}
	if cfg.LLM.Ollama.Host != "" {
		p := ollama.NewProvider(cfg.LLM.Ollama)
		router.RegisterProvider(p)
		router.RegisterEmbedder(p)
	}

	log.Info().
		Strs("providers", router.ListProviders()).
		Str("default", router.DefaultProvider()).
		Msg("LLM providers registered")

	return router
}
