package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cart-sync-api/internal/auth"
	"cart-sync-api/internal/cart"
	"cart-sync-api/internal/client"
	"cart-sync-api/internal/config"
	"cart-sync-api/internal/syncer"
)

// The sync agent runs the local cart store and sync coordinator against
// a remote cart API. SESSION_TOKEN and SYNC_USER_ID select the identity
// it signs in as on startup; SIGHUP fires a visibility-style wake and
// shutdown triggers the best-effort flush plus logout path.
func main() {
	cfg := config.LoadConfig()

	slog.Info("Starting cart sync agent")

	storage, err := cart.NewFileStorage(cfg.LocalCartPath, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize local cart storage", "error", err)
		return
	}

	store := cart.NewStore(storage, slog.Default())
	cartClient := client.NewCartClient(cfg.CartAPIBaseURL, cfg.SessionToken, slog.Default())
	provider := auth.NewSessionProvider(slog.Default())

	syncInterval, err := time.ParseDuration(cfg.SyncInterval)
	if err != nil {
		slog.Warn("Invalid SYNC_INTERVAL, using 30s", "value", cfg.SyncInterval, "error", err)
		syncInterval = 30 * time.Second
	}

	coordinator := syncer.NewCoordinator(syncer.Config{
		Store:        store,
		Client:       cartClient,
		Provider:     provider,
		Logger:       slog.Default(),
		SyncInterval: syncInterval,
		OnRestore: func(itemCount int) {
			slog.Info("Cart restored", "item_count", itemCount)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go coordinator.Run(ctx)

	if userID := os.Getenv("SYNC_USER_ID"); userID != "" && cfg.SessionToken != "" {
		provider.Login(userID)
	} else {
		slog.Info("No SYNC_USER_ID configured, staying anonymous")
	}

	wakeSignal := make(chan os.Signal, 1)
	signal.Notify(wakeSignal, syscall.SIGHUP)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-wakeSignal:
			slog.Info("Wake signal received, triggering sync check")
			coordinator.Wake()
		case <-quit:
			slog.Info("Shutting down sync agent...")

			coordinator.Flush()
			provider.Logout()

			if !coordinator.WaitForState(syncer.StateAnonymous, 5*time.Second) {
				slog.Warn("Logout did not complete before shutdown deadline")
			}

			status := coordinator.Status()
			slog.Info("Sync agent exiting",
				"state", string(status.State),
				"pushes", status.Pushes,
				"restores", status.Restores,
				"last_error", status.LastError)

			coordinator.Stop()
			return
		}
	}
}
