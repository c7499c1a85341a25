package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ownchat-backend/internal/api"
	"ownchat-backend/internal/auth"
	"ownchat-backend/internal/config"
	"ownchat-backend/internal/handlers"
	"ownchat-backend/internal/llm"
	"ownchat-backend/internal/services"
	"ownchat-backend/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	log.Println("Starting OwnChat Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize Database Connection Pool
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Unable to create database connection pool: %v\n", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(dbCtx); err != nil {
		log.Fatalf("FATAL: Unable to ping database: %v\n", err)
	}
	log.Println("Database connection pool established and pinged successfully.")

	// 3. Run Migrations
	if err := postgres.RunMigrations(dbpool); err != nil {
		log.Fatalf("FATAL: Failed to run database migrations: %v", err)
	}
	log.Println("Database migrations applied.")

	// 4. Initialize Dependencies (Store, Services, Handlers)
	pgStore := postgres.NewPostgresStore(dbpool)
	log.Println("Postgres store initialized.")

	// Sweep stale sessions once at startup, then hourly.
	sweepSessions(dbCtx, pgStore)
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				sweepSessions(sweepCtx, pgStore)
			}
		}
	}()

	googleVerifier := auth.NewGoogleVerifier(cfg.GoogleClientID)
	log.Println("Google token verifier initialized.")

	gateway := llm.NewDispatcher(cfg.OpenAIAPIKey, cfg.AnthropicAPIKey)
	summarizer := llm.NewSummarizer(gateway)
	log.Println("LLM gateway initialized.")

	authService := services.NewAuthService(pgStore, cfg, googleVerifier)
	log.Println("AuthService initialized.")
	chatService := services.NewChatService(pgStore, gateway, summarizer, int64(cfg.MaxMessagesPerChat))
	log.Println("ChatService initialized.")

	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandlers(chatService)

	// 5. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		AuthHandler: authHandler,
		ChatHandler: chatHandler,
		Store:       pgStore,
		Config:      cfg,
	})
	log.Println("HTTP router configured.")

	// 6. Configure and Start HTTP Server
	// WriteTimeout must outlast a slow provider call on the send-message path.
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}

func sweepSessions(ctx context.Context, pgStore *postgres.PostgresStore) {
	if n, err := pgStore.DeleteExpiredSessions(ctx); err != nil {
		log.Printf("WARN: Failed to sweep expired sessions: %v", err)
	} else if n > 0 {
		log.Printf("Swept %d expired sessions.", n)
	}
}
