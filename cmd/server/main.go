package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduvid-backend/internal/config"
	"eduvid-backend/internal/database"
	"eduvid-backend/internal/handlers"
	"eduvid-backend/internal/middleware"
	"eduvid-backend/internal/repository"
	"eduvid-backend/internal/router"
	"eduvid-backend/internal/services"
	"eduvid-backend/internal/websocket"
	"eduvid-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting EduVid Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	videoRepo := repository.NewVideoRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Initialize Pipeline Stage Services ────
	ctx := context.Background()

	youtubeService, err := services.NewYouTubeService(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		log.Fatalf("✗ YouTube client initialization failed: %v", err)
	}
	log.Println("✓ YouTube extraction client initialized")

	scriptService, err := services.NewScriptService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs, cfg.WordsPerMinute)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer scriptService.Close()
	log.Println("✓ Gemini script generation client initialized")

	ttsService := services.NewTTSService(cfg.ElevenLabsBaseURL, cfg.ElevenLabsAPIKey, cfg.ElevenLabsModelID, cfg.DefaultVoiceID, cfg.StoragePath)
	log.Println("✓ ElevenLabs speech synthesis client initialized")

	extractors := services.NewExtractorRegistry(youtubeService)
	pipelineService := services.NewPipelineService(extractors, scriptService, ttsService, videoRepo, cfg)
	log.Println("✓ Content pipeline assembled")

	// ──── Initialize Auth & Supporting Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	videoHandler := handlers.NewVideoHandler(pipelineService, videoRepo, jobRepo, redisClients.Queue)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		pipelineService,
		emailService,
		jobRepo,
		userRepo,
		videoRepo,
		5,
	)
	workerPool.Start()
	log.Println("✓ Worker pool started (5 goroutines)")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		videoHandler,
		jobHandler,
		wsHub,
		cfg.StoragePath,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout: 15 * time.Second,
		// Synchronous pipeline runs hold the response open for up to three
		// stage timeouts plus retries.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("✓ EduVid Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
