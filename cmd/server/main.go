package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cart-sync-api/internal/cache"
	"cart-sync-api/internal/config"
	"cart-sync-api/internal/handlers"
	"cart-sync-api/internal/middleware"
	"cart-sync-api/internal/telemetry"

	"github.com/gorilla/mux"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg := config.LoadConfig()

	slog.Info("Starting Cart Sync API", "version", "1.0.0")

	// Initialize OpenTelemetry telemetry system
	ctx := context.Background()
	otelTelemetry := &telemetry.Telemetry{}
	otelTelemetry.InitMetrics("cart-sync-api", &ctx)
	slog.Info("OpenTelemetry telemetry initialized")

	apiTelemetry := telemetry.NewCartApiTelemetry()
	if err := apiTelemetry.InitializeTelemetry(ctx); err != nil {
		slog.Error("Failed to initialize API telemetry", "error", err)
		return
	}

	// Initialize the server cart cache: Redis when configured, otherwise
	// the in-process TTL cache
	cartTTL, err := time.ParseDuration(cfg.CartCacheTTL)
	if err != nil {
		slog.Warn("Invalid CART_CACHE_TTL, using 24h", "value", cfg.CartCacheTTL, "error", err)
		cartTTL = cache.DefaultCartTTL
	}
	cleanupInterval, err := time.ParseDuration(cfg.CacheCleanupInterval)
	if err != nil {
		cleanupInterval = 5 * time.Minute
	}

	var cartCache cache.CartCache
	if cfg.RedisAddress != "" {
		redisDB, _ := strconv.Atoi(cfg.RedisDB)
		cartCache, err = cache.NewRedisCartCache(cfg.RedisAddress, cfg.RedisPassword, redisDB, slog.Default())
		if err != nil {
			slog.Error("Failed to connect to redis cart cache", "error", err)
			return
		}
	} else {
		slog.Info("REDIS_ADDRESS not set, using in-memory cart cache")
		cartCache = cache.NewMemoryCartCache(cleanupInterval, slog.Default())
	}

	// Initialize handlers
	cartHandler := handlers.NewCartHandler(cartCache, cartTTL, apiTelemetry)
	healthHandler := handlers.NewHealthHandler()
	slog.Debug("HTTP handlers initialized")

	r := mux.NewRouter()

	// Apply telemetry middleware to all routes first
	telemetryMiddleware := telemetry.NewMiddleware(apiTelemetry)
	r.Use(telemetryMiddleware.Handler)

	// Cart API routes (v1): auth middleware resolves the identity, the
	// read path degrades gracefully without one, writes require it
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(middleware.AuthMiddleware)

	v1.HandleFunc("/cart", cartHandler.GetCart).Methods("GET")
	v1.Handle("/cart", middleware.RequireAuth(http.HandlerFunc(cartHandler.SaveCart))).Methods("PUT")
	v1.Handle("/cart", middleware.RequireAuth(http.HandlerFunc(cartHandler.DeleteCart))).Methods("DELETE")

	// Health check endpoint (no auth required)
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")

	slog.Info("Starting HTTP server",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"cart_ttl", cartTTL.String())

	// Create HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server ready to accept connections", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := cartCache.Close(); err != nil {
		slog.Error("Error closing cart cache", "error", err)
	}

	otelTelemetry.Close()
	slog.Info("Telemetry shutdown completed")

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}
