// Package session owns the application's auth state. The Manager
// subscribes to the backend's auth-event stream, reconciles each
// principal with its profile document, and exposes the login/logout
// family of operations. It is the single writer of AuthState.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/readyinterview/client-go/internal/client/backend"
	"github.com/readyinterview/client-go/internal/client/models"
	"github.com/readyinterview/client-go/internal/clock"
	"github.com/readyinterview/client-go/internal/common"
	"github.com/readyinterview/client-go/internal/logging"
)

const (
	// DefaultInitialResolveTimeout bounds how long the very first
	// auth-state resolution may take before the session force-resolves
	// to signed-out.
	DefaultInitialResolveTimeout = 10 * time.Second

	// DefaultDocReadTimeout is the budget for each profile-document read
	// that accompanies an auth event.
	DefaultDocReadTimeout = 2500 * time.Millisecond

	// DefaultInactivityLimit is how long a signed-in session may sit idle
	// before it is signed out automatically.
	DefaultInactivityLimit = time.Hour
)

// ErrResolveTimeout is recorded when the backend stream produces no event
// within the initial-resolve budget. It originates locally, not from the
// backend.
var ErrResolveTimeout = fmt.Errorf("connection timed out, please refresh and try again: %w", common.ErrTimeout)

// Config carries the Manager's tunable budgets. Zero values take the
// package defaults.
type Config struct {
	InitialResolveTimeout time.Duration
	DocReadTimeout        time.Duration
	InactivityLimit       time.Duration
}

func (c Config) withDefaults() Config {
	if c.InitialResolveTimeout <= 0 {
		c.InitialResolveTimeout = DefaultInitialResolveTimeout
	}
	if c.DocReadTimeout <= 0 {
		c.DocReadTimeout = DefaultDocReadTimeout
	}
	if c.InactivityLimit <= 0 {
		c.InactivityLimit = DefaultInactivityLimit
	}
	return c
}

// Manager synchronizes AuthState with the backend. Create with New,
// start with Start, release with Close.
type Manager struct {
	backend  backend.Service
	idp      backend.FederatedAuthenticator // nil when federated sign-in is not configured
	clk      clock.Clock
	log      logging.Logger
	cfg      Config
	validate *validator.Validate

	mu         sync.Mutex
	state      AuthState
	subs       map[int]chan AuthState
	nextSub    int
	started    bool
	closed     bool
	resolved   bool // first auth resolution has completed
	gen        int  // reconciliation generation; stale results are discarded
	cancelAuth func()
	resolveT   clock.Timer
	idleT      clock.Timer
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithFederatedAuthenticator enables Google sign-in.
func WithFederatedAuthenticator(a backend.FederatedAuthenticator) Option {
	return func(m *Manager) { m.idp = a }
}

// WithClock overrides the wall clock, used by tests.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clk = c }
}

func New(svc backend.Service, cfg Config, log logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		backend:  svc,
		clk:      clock.Real{},
		log:      log,
		cfg:      cfg.withDefaults(),
		validate: validator.New(),
		subs:     make(map[int]chan AuthState),
		state:    AuthState{InitialLoading: true},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start subscribes to the backend auth stream and arms the
// initial-resolve timeout. It may be called once.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return common.ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return errors.New("session manager already started")
	}
	m.started = true
	m.resolveT = m.clk.AfterFunc(m.cfg.InitialResolveTimeout, m.onResolveTimeout)
	m.mu.Unlock()

	m.cancelAuth = m.backend.OnAuthChange(m.handleAuthEvent)
	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			m.Close()
		}()
	}
	m.log.Debug(ctx, "session manager started",
		"initial_resolve_timeout", m.cfg.InitialResolveTimeout,
		"inactivity_limit", m.cfg.InactivityLimit)
	return nil
}

// Close detaches from the auth stream and cancels pending timers.
// Reconciliations that finish after Close never write state.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.gen++
	cancel := m.cancelAuth
	m.cancelAuth = nil
	if m.resolveT != nil {
		m.resolveT.Stop()
	}
	if m.idleT != nil {
		m.idleT.Stop()
	}
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.log.Debug(context.Background(), "session manager closed")
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Subscribe registers for state updates. The channel is buffered; if a
// subscriber falls behind, intermediate states are dropped in favor of
// newer ones. The cancel func unsubscribes and closes the channel.
func (m *Manager) Subscribe() (<-chan AuthState, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan AuthState, 16)
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

// RecordActivity rearms the inactivity watchdog. A no-op while signed out.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state.User == nil {
		return
	}
	m.armIdleLocked()
}

// setState mutates state under the lock and fans the new value out to
// subscribers. It is the only write path.
func (m *Manager) setState(mutate func(*AuthState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.setStateLocked(mutate)
}

func (m *Manager) setStateLocked(mutate func(*AuthState)) {
	mutate(&m.state)
	for _, ch := range m.subs {
		st := m.state.clone()
		select {
		case ch <- st:
		default:
			// Drop the oldest queued state so the newest always lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

// handleAuthEvent is the auth-stream callback. Sign-out applies
// synchronously; sign-in kicks off an asynchronous reconciliation tagged
// with a generation so only the latest event's result is applied.
func (m *Manager) handleAuthEvent(p *models.Principal) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen

	if p == nil {
		m.markResolvedLocked()
		m.disarmIdleLocked()
		m.setStateLocked(func(st *AuthState) {
			st.User = nil
			st.IsOffline = false
		})
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	go m.reconcile(gen, p)
}

// reconcile merges the principal with its profile document. A document
// failure degrades rather than errors: the user is built from auth
// fields alone with the default role and IsOffline set.
func (m *Manager) reconcile(gen int, p *models.Principal) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DocReadTimeout)
	defer cancel()

	doc, err := m.backend.GetProfile(ctx, p.UID)
	offline := false
	switch {
	case err == nil:
	case errors.Is(err, common.ErrNotFound):
		// No document yet (fresh account); defaults apply, we are online.
		doc = nil
	default:
		m.log.Warn(ctx, "profile read failed, continuing degraded", "uid", p.UID, "error", err)
		doc = nil
		offline = true
	}
	user := models.MergeUser(p, doc)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		return
	}
	m.markResolvedLocked()
	m.armIdleLocked()
	m.setStateLocked(func(st *AuthState) {
		st.User = user
		st.IsOffline = offline
	})
}

func (m *Manager) onResolveTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.resolved {
		return
	}
	m.resolved = true
	m.log.Warn(context.Background(), "initial auth resolution timed out")
	m.setStateLocked(func(st *AuthState) {
		st.User = nil
		st.InitialLoading = false
		st.Err = ErrResolveTimeout
	})
}

func (m *Manager) markResolvedLocked() {
	if m.resolved {
		return
	}
	m.resolved = true
	if m.resolveT != nil {
		m.resolveT.Stop()
	}
	m.state.InitialLoading = false
}

// onIdle signs the session out after the inactivity limit elapses.
func (m *Manager) onIdle() {
	m.mu.Lock()
	if m.closed || m.state.User == nil {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ctx := context.Background()
	m.log.Info(ctx, "signing out after inactivity", "limit", m.cfg.InactivityLimit)
	if err := m.Logout(ctx); err != nil {
		m.log.Error(ctx, "inactivity sign-out failed", "error", err)
	}
}

func (m *Manager) armIdleLocked() {
	if m.idleT == nil {
		m.idleT = m.clk.AfterFunc(m.cfg.InactivityLimit, m.onIdle)
		return
	}
	m.idleT.Reset(m.cfg.InactivityLimit)
}

func (m *Manager) disarmIdleLocked() {
	if m.idleT != nil {
		m.idleT.Stop()
	}
}
