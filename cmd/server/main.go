package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finlingo/internal/config"
	"finlingo/internal/database"
	"finlingo/internal/handlers"
	"finlingo/internal/repository"
	"finlingo/internal/service"
	"finlingo/internal/token"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if cfg.UsingDevSecret() {
		log.Println("Warning: JWT_SECRET not set, using development default")
	}

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories and services
	accountRepo := repository.NewAccountRepository(db)
	tokenIssuer := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	accountService := service.NewAccountService(db, accountRepo, tokenIssuer)

	// Initialize handlers
	middleware := handlers.NewMiddleware(tokenIssuer)
	authHandler := handlers.NewAuthHandler(accountService)

	// Setup routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("POST /auth/child/signup", authHandler.ChildSignup)
	mux.HandleFunc("POST /auth/parent/signup", authHandler.ParentSignup)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("GET /auth/me", middleware.RequireAuth(authHandler.Me))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
