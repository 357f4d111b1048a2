package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cart-sync-api/internal/auth"
	"cart-sync-api/internal/cart"
	"cart-sync-api/internal/client"
)

// State identifies where the coordinator is in its per-session lifecycle
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateLoggingOut     State = "logging_out"
)

// Sync operation labels sent to the persistence endpoint for logging
const (
	opPeriodicSync   = "periodic_sync"
	opVisibilitySync = "visibility_sync"
	opLogoutSync     = "logout_sync"
	opUnloadSync     = "unload_sync"
)

// SyncStatus is a snapshot of the coordinator's sync bookkeeping
type SyncStatus struct {
	State        State
	LastSyncTime time.Time
	LastError    string
	Pushes       int
	Restores     int
}

// Coordinator decides when cart data moves between the local cart store
// and the server cart cache. Three independent triggers feed one run
// loop: authentication-state transitions, a periodic timer, and
// wake/flush signals from page-lifecycle events. The loop serializes
// ticker, wake and auth-transition pushes; only Flush runs out-of-band,
// which full-replace write semantics make benign.
//
// Every network failure here degrades to local-only mode: logged, dirty
// flag left set, retried on the next trigger. Nothing propagates to the
// caller.
type Coordinator struct {
	store    *cart.Store
	client   *client.CartClient
	provider auth.Provider
	logger   *slog.Logger

	syncInterval time.Duration
	onRestore    func(itemCount int)

	wake     chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once

	statusMutex sync.RWMutex
	status      SyncStatus

	// restored suppresses repeat restore fetches until the next logout
	restored bool
}

// Config holds the coordinator's dependencies and tunables
type Config struct {
	Store        *cart.Store
	Client       *client.CartClient
	Provider     auth.Provider
	Logger       *slog.Logger
	SyncInterval time.Duration
	// OnRestore is invoked at most once per login, with the number of
	// items pulled from the server into the local cart.
	OnRestore func(itemCount int)
}

// NewCoordinator creates a coordinator in the anonymous state
func NewCoordinator(cfg Config) *Coordinator {
	interval := cfg.SyncInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	onRestore := cfg.OnRestore
	if onRestore == nil {
		onRestore = func(int) {}
	}

	return &Coordinator{
		store:        cfg.Store,
		client:       cfg.Client,
		provider:     cfg.Provider,
		logger:       cfg.Logger,
		syncInterval: interval,
		onRestore:    onRestore,
		wake:         make(chan struct{}, 1),
		stopChan:     make(chan struct{}),
		status:       SyncStatus{State: StateAnonymous},
	}
}

// Run drives the coordinator until the context is cancelled or Stop is
// called. It subscribes to the auth provider and owns the single ticker
// with its two wake sources.
func (c *Coordinator) Run(ctx context.Context) {
	authCh := c.provider.Subscribe()
	defer c.provider.Unsubscribe(authCh)

	// Catch up with a login that happened before Run started
	if state := c.provider.Current(); state.SignedIn {
		c.handleLogin(ctx, state)
	}

	ticker := time.NewTicker(c.syncInterval)
	defer ticker.Stop()

	c.logger.Info("Cart sync coordinator started", "sync_interval", c.syncInterval.String())

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Cart sync coordinator stopped", "reason", "context cancelled")
			return
		case <-c.stopChan:
			c.logger.Info("Cart sync coordinator stopped")
			return
		case authState, ok := <-authCh:
			if !ok {
				return
			}
			c.handleAuthTransition(ctx, authState)
		case <-ticker.C:
			c.pushIfDirty(ctx, opPeriodicSync)
		case <-c.wake:
			c.pushIfDirty(ctx, opVisibilitySync)
		}
	}
}

// Wake triggers an out-of-band dirty check, covering the case where the
// timer was suspended while the tab was hidden. Coalesces if a wake is
// already pending.
func (c *Coordinator) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Flush fires a best-effort push of the current cart if it is dirty.
// At-most-once, no confirmation: the dirty flag is not cleared. This is
// the unload push and must never block navigation.
func (c *Coordinator) Flush() {
	if c.State() != StateAuthenticated || !c.store.Dirty() {
		return
	}

	c.logger.Debug("Firing best-effort unload push", "item_count", c.store.ItemCount())
	c.client.SaveCartBestEffort(c.store.Items(), opUnloadSync)
}

// Stop terminates the run loop
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}

// State returns the coordinator's current lifecycle state
func (c *Coordinator) State() State {
	c.statusMutex.RLock()
	defer c.statusMutex.RUnlock()
	return c.status.State
}

// WaitForState blocks until the coordinator reaches the given state or
// the timeout elapses. Reports whether the state was reached. Intended
// for shutdown paths that want the logout push to finish before the
// process exits.
func (c *Coordinator) WaitForState(state State, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if c.State() == state {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// Status returns a snapshot of the sync bookkeeping
func (c *Coordinator) Status() SyncStatus {
	c.statusMutex.RLock()
	defer c.statusMutex.RUnlock()
	return c.status
}

// handleAuthTransition reacts to a login or logout observed on the auth
// provider
func (c *Coordinator) handleAuthTransition(ctx context.Context, authState auth.State) {
	signedIn := authState.SignedIn
	current := c.State()

	switch {
	case signedIn && current == StateAnonymous:
		c.handleLogin(ctx, authState)
	case !signedIn && (current == StateAuthenticated || current == StateAuthenticating):
		c.handleLogout(ctx)
	}
}

// handleLogin performs the one-time restore and enters the
// authenticated steady state
func (c *Coordinator) handleLogin(ctx context.Context, authState auth.State) {
	c.setState(StateAuthenticating)
	c.logger.Info("Login detected, checking for server-held cart",
		"user_id", authState.UserID,
		"session_id", authState.SessionID)

	c.restoreOnce(ctx)
	c.setState(StateAuthenticated)
}

// restoreOnce pulls the server-held cart at most once per login. The
// server cart replaces the local one only when the local cart is empty;
// a local cart with items wins outright, with no item-level merge.
func (c *Coordinator) restoreOnce(ctx context.Context) {
	if c.restored {
		return
	}
	c.restored = true

	snapshot, err := c.client.FetchCart(ctx)
	if err != nil {
		c.logger.Warn("Cart restore fetch failed, continuing with local cart", "error", err)
		c.recordError(err)
		return
	}

	if len(snapshot.Items) == 0 {
		c.logger.Debug("No server-held cart to restore")
		return
	}

	if !c.store.IsEmpty() {
		c.logger.Info("Local cart has items, keeping it over server-held cart",
			"local_items", c.store.ItemCount(),
			"server_items", snapshot.ItemCount)
		return
	}

	c.store.LoadSavedCart(snapshot.Items)

	c.statusMutex.Lock()
	c.status.Restores++
	c.statusMutex.Unlock()

	c.logger.Info("Cart restored from server", "item_count", snapshot.ItemCount)
	c.onRestore(snapshot.ItemCount)
}

// handleLogout pushes a dirty cart once, then clears local state. The
// push is best-effort: sign-out always succeeds locally even when the
// network write fails.
func (c *Coordinator) handleLogout(ctx context.Context) {
	c.setState(StateLoggingOut)

	if c.store.Dirty() {
		if err := c.push(ctx, opLogoutSync); err != nil {
			c.logger.Warn("Logout cart push failed, proceeding with logout", "error", err)
		}
	}

	c.store.Clear()
	c.store.MarkSynced()
	c.restored = false
	c.setState(StateAnonymous)

	c.logger.Info("Logout completed, local cart cleared")
}

// pushIfDirty pushes the full local cart when authenticated and dirty
func (c *Coordinator) pushIfDirty(ctx context.Context, operation string) {
	if c.State() != StateAuthenticated || !c.store.Dirty() {
		return
	}

	if err := c.push(ctx, operation); err != nil {
		c.logger.Warn("Cart sync push failed, will retry on next trigger",
			"operation", operation,
			"error", err)
	}
}

// push sends the full cart to the persistence endpoint and clears the
// dirty flag only on confirmed success. The dirty flag stays set when
// a mutation landed while the write was in flight, so the next trigger
// pushes the newer cart.
func (c *Coordinator) push(ctx context.Context, operation string) error {
	items, generation := c.store.ItemsForSync()

	snapshot, err := c.client.SaveCart(ctx, items, operation)
	if err != nil {
		c.recordError(err)
		return err
	}

	if !c.store.MarkSyncedAt(generation) {
		c.logger.Debug("Cart mutated during push, keeping dirty for next sync",
			"operation", operation)
	}

	c.statusMutex.Lock()
	c.status.Pushes++
	c.status.LastSyncTime = time.Now()
	c.status.LastError = ""
	c.statusMutex.Unlock()

	c.logger.Debug("Cart pushed to server",
		"operation", operation,
		"item_count", snapshot.ItemCount)
	return nil
}

func (c *Coordinator) setState(state State) {
	c.statusMutex.Lock()
	defer c.statusMutex.Unlock()
	c.status.State = state
}

func (c *Coordinator) recordError(err error) {
	c.statusMutex.Lock()
	defer c.statusMutex.Unlock()
	c.status.LastError = err.Error()
}
