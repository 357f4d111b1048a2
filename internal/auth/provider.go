package auth

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// State is the authentication state observed by the sync coordinator
type State struct {
	SignedIn  bool
	UserID    string
	SessionID string
}

// Provider exposes the current authentication state and a subscription
// channel for state transitions. The coordinator consumes this
// interface only; how sign-in actually happens is someone else's job.
type Provider interface {
	Current() State
	Subscribe() <-chan State
	Unsubscribe(ch <-chan State)
}

// SessionProvider is a Provider whose state is driven by explicit
// Login/Logout calls. Each login gets a fresh session id.
type SessionProvider struct {
	mu          sync.RWMutex
	state       State
	subscribers []chan State
	logger      *slog.Logger
}

// NewSessionProvider creates a provider in the signed-out state
func NewSessionProvider(logger *slog.Logger) *SessionProvider {
	return &SessionProvider{logger: logger}
}

// Current returns the current authentication state
func (p *SessionProvider) Current() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Subscribe returns a channel receiving every subsequent state transition
func (p *SessionProvider) Subscribe() <-chan State {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan State, 4)
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription channel and closes it
func (p *SessionProvider) Unsubscribe(ch <-chan State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, sub := range p.subscribers {
		if sub == ch {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Login transitions to the signed-in state for the given user identity
func (p *SessionProvider) Login(userID string) State {
	p.mu.Lock()
	state := State{
		SignedIn:  true,
		UserID:    userID,
		SessionID: uuid.NewString(),
	}
	p.state = state
	p.mu.Unlock()

	p.logger.Info("User signed in", "user_id", userID, "session_id", state.SessionID)
	p.notify(state)
	return state
}

// Logout transitions to the signed-out state
func (p *SessionProvider) Logout() {
	p.mu.Lock()
	prev := p.state
	p.state = State{}
	p.mu.Unlock()

	if prev.SignedIn {
		p.logger.Info("User signed out", "user_id", prev.UserID)
	}
	p.notify(State{})
}

// notify fans the new state out to all subscribers without blocking on
// a slow one
func (p *SessionProvider) notify(state State) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, ch := range p.subscribers {
		select {
		case ch <- state:
		default:
			p.logger.Warn("Dropping auth state notification for slow subscriber")
		}
	}
}
