package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rrens/funnair-assistant/internal/api/handler"
	customMiddleware "github.com/Rrens/funnair-assistant/internal/api/middleware"
	"github.com/Rrens/funnair-assistant/internal/config"
	"github.com/Rrens/funnair-assistant/internal/llm"
	"github.com/Rrens/funnair-assistant/internal/rag"
	"github.com/Rrens/funnair-assistant/internal/service"
)

// Dependencies are the services served over HTTP. RateLimiter and Cache are
// optional.
type Dependencies struct {
	Bookings    *service.BookingService
	Chat        *service.ChatService
	LLM         *llm.Router
	Policies    *rag.Service
	RateLimiter customMiddleware.Limiter
	Cache       handler.CacheFlusher
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	bookingHandler := handler.NewBookingHandler(deps.Bookings)
	chatHandler := handler.NewChatHandler(deps.Chat)

	r.Get("/", handler.Root)
	r.Get("/health", handler.HealthCheck)
	r.Get("/ready", handler.ReadyCheck(deps.Policies.Stats))

	r.Route("/api", func(r chi.Router) {
		r.Get("/llm-providers", handler.ListLLMProviders(deps.LLM))

		if deps.Cache != nil {
			r.Post("/cache/flush", handler.FlushCache(deps.Cache))
		}

		// Booking routes
		r.Route("/bookings", func(r chi.Router) {
			if cfg.Server.MiddlewareTimeout > 0 {
				r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
			}

			r.Get("/", bookingHandler.List)
			r.Post("/change", bookingHandler.Change)
			r.Post("/cancel", bookingHandler.Cancel)
			r.Get("/{bookingNumber}", bookingHandler.Get)
			r.Post("/{bookingNumber}/seat", bookingHandler.ChangeSeat)
		})

		// Chat routes, no timeout so streams can outlive it
		r.Route("/chat", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if deps.RateLimiter != nil {
					r.Use(customMiddleware.NewRateLimitMiddleware(deps.RateLimiter).Limit)
				}
				r.Post("/stream", chatHandler.Stream)
			})

			r.Get("/{chatID}/history", chatHandler.History)
			r.Delete("/{chatID}", chatHandler.Clear)
		})
	})

	return r
}
