package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/crossapp/crossapp-go/pkg/api"
	"github.com/crossapp/crossapp-go/pkg/events"
	"github.com/crossapp/crossapp-go/pkg/logger"
	"github.com/crossapp/crossapp-go/pkg/store"
)

// DefaultRefreshLead is how long before token expiry the proactive refresh
// fires.
const DefaultRefreshLead = 5 * time.Minute

// API is the subset of the server client the manager depends on.
type API interface {
	AppID() string
	Login(ctx context.Context, req api.LoginRequest) (*api.Session, error)
	Logout(ctx context.Context, sessionToken string) error
	RefreshToken(ctx context.Context, sessionToken string) (*api.RefreshResult, error)
	ValidateToken(ctx context.Context, sessionToken string) (*api.ValidationResult, error)
}

// Manager owns the authentication state machine for one member app:
// login, logout, validation, refresh and expiry-driven refresh scheduling.
// It is the only component that touches the session store, and it publishes
// every state transition on the event bus.
//
// Overlapping network operations on one Manager are not mutually exclusive;
// the last writer wins on the persisted session. A generation counter
// guards against a stale refresh response resurrecting a session that was
// cleared (logged out or replaced) while the request was in flight.
type Manager struct {
	api         API
	store       store.Store
	bus         *events.Bus
	clock       Clock
	log         *slog.Logger
	refreshLead time.Duration

	mu         sync.Mutex
	session    *api.Session
	generation uint64
	timer      Timer
	inFlight   int
	lastError  string
	closed     bool
}

// LoginOption customizes a login request.
type LoginOption func(*api.LoginRequest)

// WithAppUserID links the central identity to a member-app local user ID.
func WithAppUserID(id string) LoginOption {
	return func(req *api.LoginRequest) {
		req.AppUserID = id
	}
}

// WithAppMetadata attaches member-app metadata to the login.
func WithAppMetadata(metadata map[string]any) LoginOption {
	return func(req *api.LoginRequest) {
		req.AppMetadata = metadata
	}
}

// New creates a session manager and restores any previously persisted
// session for the app ID. A restored session whose expiry has passed is
// treated as absent and its storage entry removed; a valid one re-arms the
// refresh timer.
//
// Panics if apiClient is nil to fail fast on misconfiguration.
func New(ctx context.Context, apiClient API, opts ...Option) (*Manager, error) {
	if apiClient == nil {
		panic("auth: api client is required")
	}

	m := &Manager{
		api:         apiClient,
		bus:         events.NewBus(),
		clock:       realClock{},
		log:         logger.Discard(),
		refreshLead: DefaultRefreshLead,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = store.NewMemoryStore()
	}

	m.restore(ctx)

	return m, nil
}

// restore loads a prior session from the store, dropping it when expired.
func (m *Manager) restore(ctx context.Context) {
	session, err := m.store.Load(ctx, m.api.AppID())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.WarnContext(ctx, "failed to load persisted session", slog.Any("error", err))
		}
		return
	}

	if session.IsExpired(m.clock.Now()) {
		_ = m.store.Delete(ctx, m.api.AppID())
		return
	}

	m.mu.Lock()
	m.session = session
	m.scheduleRefreshLocked()
	m.mu.Unlock()
}

// Login authenticates the user and starts a new session, replacing any
// prior one. On success it persists the session, arms the refresh timer
// and publishes AUTH_SUCCESS; on failure it publishes AUTH_FAILURE and
// returns the error. Login is never retried automatically.
func (m *Manager) Login(ctx context.Context, email, password string, opts ...LoginOption) (*api.Session, error) {
	req := api.LoginRequest{Email: email, Password: password}
	for _, opt := range opts {
		opt(&req)
	}

	m.begin()
	session, err := m.api.Login(ctx, req)
	m.end()

	if err != nil {
		m.mu.Lock()
		m.lastError = err.Error()
		m.mu.Unlock()

		m.bus.Publish(events.AuthFailure, err)
		return nil, err
	}

	m.mu.Lock()
	m.generation++
	m.session = session
	m.lastError = ""
	m.persistLocked(ctx)
	m.scheduleRefreshLocked()
	sessionCopy := *session
	m.mu.Unlock()

	m.bus.Publish(events.AuthSuccess, &sessionCopy)
	return &sessionCopy, nil
}

// Logout clears the session. Server-side invalidation is best-effort: a
// network failure is swallowed because local cleanup must proceed
// regardless. Calling Logout while already unauthenticated is a no-op and
// publishes nothing.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return nil
	}
	token := m.session.SessionToken
	m.clearLocked(ctx)
	m.mu.Unlock()

	m.begin()
	if err := m.api.Logout(ctx, token); err != nil {
		m.log.DebugContext(ctx, "server-side logout failed", slog.Any("error", err))
	}
	m.end()

	m.bus.Publish(events.AuthLogout, nil)
	return nil
}

// RefreshToken exchanges the current token for a new one. On success the
// session is mutated in place, re-persisted, the timer re-armed and
// TOKEN_REFRESH published. A failure is a hard session loss: the session is
// cleared as in a forced logout and the error propagated. There is no retry
// loop here.
func (m *Manager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return api.NewError(api.CodeNoSession, "no active session to refresh")
	}
	token := m.session.SessionToken
	gen := m.generation
	m.mu.Unlock()

	m.begin()
	result, err := m.api.RefreshToken(ctx, token)
	m.end()

	if err != nil {
		cleared := false
		m.mu.Lock()
		m.lastError = err.Error()
		if m.generation == gen && m.session != nil {
			m.clearLocked(ctx)
			cleared = true
		}
		m.mu.Unlock()

		if cleared {
			m.bus.Publish(events.AuthLogout, nil)
		}
		return err
	}

	m.mu.Lock()
	if m.generation != gen || m.session == nil {
		// The session was cleared or replaced while the request was in
		// flight; applying the result would resurrect a dead session.
		m.mu.Unlock()
		m.log.Debug("discarding stale refresh result")
		return nil
	}

	m.session.SessionToken = result.NewSessionToken
	m.session.ExpiresAt = result.ExpiresAt
	if result.Permissions != nil {
		m.session.Permissions = result.Permissions
		m.session.User.Permissions = result.Permissions
	}
	m.lastError = ""
	m.persistLocked(ctx)
	m.scheduleRefreshLocked()
	sessionCopy := *m.session
	m.mu.Unlock()

	m.bus.Publish(events.TokenRefresh, &sessionCopy)
	return nil
}

// ValidateToken confirms the session is still accepted server-side. On
// success the cached user, permissions and expiry are refreshed without
// rotating the token. A server-side rejection clears the session; a pure
// transport failure leaves it untouched so a flaky network cannot log the
// user out.
func (m *Manager) ValidateToken(ctx context.Context) error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return api.NewError(api.CodeNoSession, "no active session to validate")
	}
	token := m.session.SessionToken
	gen := m.generation
	m.mu.Unlock()

	m.begin()
	result, err := m.api.ValidateToken(ctx, token)
	m.end()

	if err != nil {
		m.mu.Lock()
		m.lastError = err.Error()
		m.mu.Unlock()

		if api.IsCode(err, api.CodeNetwork) {
			return err
		}
		m.invalidate(ctx, gen)
		return err
	}

	if !result.Valid {
		err := api.NewError(api.CodeValidationFailed, "session token is no longer valid")
		m.mu.Lock()
		m.lastError = err.Error()
		m.mu.Unlock()

		m.invalidate(ctx, gen)
		return err
	}

	m.mu.Lock()
	if m.generation != gen || m.session == nil {
		m.mu.Unlock()
		return nil
	}
	if result.User != nil {
		m.session.User = *result.User
	}
	if result.Permissions != nil {
		m.session.Permissions = result.Permissions
		m.session.User.Permissions = result.Permissions
	}
	if !result.ExpiresAt.IsZero() {
		m.session.ExpiresAt = result.ExpiresAt
	}
	m.lastError = ""
	m.persistLocked(ctx)
	m.scheduleRefreshLocked()
	m.mu.Unlock()

	return nil
}

// invalidate clears the session after a server-side rejection, unless a
// newer session took its place while the request was in flight.
func (m *Manager) invalidate(ctx context.Context, gen uint64) {
	cleared := false
	m.mu.Lock()
	if m.generation == gen && m.session != nil {
		m.clearLocked(ctx)
		cleared = true
	}
	m.mu.Unlock()

	if cleared {
		m.bus.Publish(events.AuthLogout, nil)
	}
}

// HasPermission checks the cached permission set without calling the
// server, so the answer can be briefly stale until the next validation or
// refresh.
func (m *Manager) HasPermission(permission string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.IsExpired(m.clock.Now()) {
		return false
	}
	return m.session.Permissions.Has(permission)
}

// IsAuthenticated reports whether a live session is held. An expired
// session is treated as absent.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticatedLocked()
}

func (m *Manager) authenticatedLocked() bool {
	return m.session != nil && m.session.SessionToken != "" && !m.session.IsExpired(m.clock.Now())
}

// SessionToken returns the current bearer token, or "" when no live
// session is held.
func (m *Manager) SessionToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticatedLocked() {
		return ""
	}
	return m.session.SessionToken
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (m *Manager) CurrentUser() *api.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticatedLocked() {
		return nil
	}
	user := m.session.User
	return &user
}

// State returns a point-in-time snapshot of the auth state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := State{
		IsAuthenticated: m.authenticatedLocked(),
		Loading:         m.inFlight > 0,
		Error:           m.lastError,
	}
	if state.IsAuthenticated {
		sessionCopy := *m.session
		userCopy := m.session.User
		state.Session = &sessionCopy
		state.User = &userCopy
	}
	return state
}

// OnAuthChange subscribes to session state transitions and returns the
// unsubscribe function.
func (m *Manager) OnAuthChange(listener events.Listener) (unsubscribe func()) {
	return m.bus.Subscribe(listener)
}

// Bus exposes the underlying event bus for composition.
func (m *Manager) Bus() *events.Bus {
	return m.bus
}

// Close cancels any scheduled refresh. The manager must not be used after
// Close. Safe to call multiple times.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	return nil
}

// clearLocked performs logout-equivalent cleanup: bump the generation so
// in-flight responses are discarded, cancel the timer, drop the storage
// entry and the in-memory session. Callers hold the mutex.
func (m *Manager) clearLocked(ctx context.Context) {
	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if err := m.store.Delete(ctx, m.api.AppID()); err != nil {
		m.log.WarnContext(ctx, "failed to clear persisted session", slog.Any("error", err))
	}
	m.session = nil
}

// persistLocked writes the current session through the store. Persistence
// failures are logged, not fatal: the in-memory session remains usable for
// the rest of the process lifetime.
func (m *Manager) persistLocked(ctx context.Context) {
	if m.session == nil {
		return
	}
	if m.session.AppID == "" {
		m.session.AppID = m.api.AppID()
	}
	if err := m.store.Save(ctx, m.session); err != nil {
		m.log.WarnContext(ctx, "failed to persist session", slog.Any("error", err))
	}
}

// scheduleRefreshLocked arms the one-shot refresh timer, always cancelling
// any previously scheduled one first so at most one timer is outstanding.
// Callers hold the mutex.
func (m *Manager) scheduleRefreshLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.session == nil || m.closed {
		return
	}

	delay := max(0, m.session.ExpiresAt.Sub(m.clock.Now())-m.refreshLead)
	m.timer = m.clock.AfterFunc(delay, m.refreshFromTimer)
}

// refreshFromTimer runs the scheduled refresh. A failure already triggers
// logout-equivalent cleanup inside RefreshToken, so the application is
// never left holding a silently expired session.
func (m *Manager) refreshFromTimer() {
	if err := m.RefreshToken(context.Background()); err != nil {
		m.log.Warn("scheduled token refresh failed", slog.Any("error", err))
	}
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.inFlight++
	m.mu.Unlock()
}

func (m *Manager) end() {
	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
}
