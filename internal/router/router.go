package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"eduvid-backend/internal/handlers"
	"eduvid-backend/internal/middleware"
	"eduvid-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	videoHandler *handlers.VideoHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	storagePath string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Video Routes ────
		r.Route("/videos", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/process", videoHandler.Process)
			r.Post("/process-async", videoHandler.ProcessAsync)
			r.Get("/", videoHandler.List)
			r.Get("/{id}", videoHandler.Get)
			r.Delete("/{id}", videoHandler.Delete)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.GetJob)
		})

		// ──── Synthesized audio files ────
		if storagePath != "" {
			fs := http.StripPrefix("/api/v1/files/", http.FileServer(http.Dir(storagePath)))
			r.Get("/files/*", fs.ServeHTTP)
		}

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
