package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/tekky-backend/internal/api"
	"github.com/dom/tekky-backend/internal/config"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/dom/tekky-backend/internal/repository/memory"
	"github.com/dom/tekky-backend/internal/repository/postgres"
	"github.com/dom/tekky-backend/internal/service"
	"github.com/dom/tekky-backend/internal/websocket"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize repositories
	var repos *repository.Repositories
	if cfg.UseMemoryStore() {
		log.Println("WARN [main] using in-memory store, data is lost on restart")
		repos = memory.NewRepositories()
	} else {
		logLevel := logger.Warn
		if cfg.IsDevelopment() {
			logLevel = logger.Info
		}
		db, err := postgres.NewConnection(cfg.DatabaseURL, logLevel)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		repos = postgres.NewRepositories(db)
	}

	// Optional Redis for rate limiting
	rdb := config.NewRedisClient(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize services
	services := service.NewServices(repos, cfg, service.WithNotifier(hub))

	// Initialize router
	router := api.NewRouter(services, hub, cfg, rdb)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("ERROR [main] server forced to shutdown: %v", err)
	}
	hub.Stop()

	log.Println("Server stopped")
}
