package crossapp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/crossapp/crossapp-go/pkg/api"
	"github.com/crossapp/crossapp-go/pkg/auth"
	"github.com/crossapp/crossapp-go/pkg/credits"
	"github.com/crossapp/crossapp-go/pkg/events"
	"github.com/crossapp/crossapp-go/pkg/logger"
	"github.com/crossapp/crossapp-go/pkg/store"
)

// SDK composes the session manager and the credit client behind a small
// convenience surface. It is not itself stateful: all session state lives
// in the session manager and its store.
type SDK struct {
	config  Config
	api     *api.Client
	auth    *auth.Manager
	credits *credits.Client
	bus     *events.Bus
	log     *slog.Logger
}

// Option configures the SDK.
type Option func(*options)

type options struct {
	store      store.Store
	httpClient *http.Client
	clock      auth.Clock
	log        *slog.Logger
}

// WithStore overrides the session store chosen from the config.
func WithStore(s store.Store) Option {
	return func(o *options) { o.store = s }
}

// WithHTTPClient replaces the HTTP client used against the server.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithClock sets a custom clock, primarily for tests.
func WithClock(clock auth.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithLogger replaces the logger derived from the config's debug flag.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// New builds the SDK: API client, session store, event bus, session
// manager and credit client. A previously persisted session for the app ID
// is restored when still valid.
func New(ctx context.Context, cfg Config, opts ...Option) (*SDK, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := o.log
	if log == nil {
		if cfg.Debug {
			log = logger.New(logger.WithDebug(cfg.AppID))
		} else {
			log = logger.Discard()
		}
	}

	apiOpts := []api.Option{
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(log),
	}
	if o.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(o.httpClient))
	}

	apiClient, err := api.New(cfg.BaseURL(), cfg.AppID, apiOpts...)
	if err != nil {
		return nil, err
	}

	sessionStore := o.store
	if sessionStore == nil {
		if cfg.SessionDir != "" {
			sessionStore, err = store.NewFileStore(cfg.SessionDir)
			if err != nil {
				return nil, err
			}
		} else {
			sessionStore = store.NewMemoryStore()
		}
	}

	bus := events.NewBus(events.WithLogger(log))

	authOpts := []auth.Option{
		auth.WithStore(sessionStore),
		auth.WithBus(bus),
		auth.WithRefreshLead(cfg.RefreshLead),
		auth.WithLogger(log),
	}
	if o.clock != nil {
		authOpts = append(authOpts, auth.WithClock(o.clock))
	}

	manager, err := auth.New(ctx, apiClient, authOpts...)
	if err != nil {
		return nil, err
	}

	return &SDK{
		config:  cfg,
		api:     apiClient,
		auth:    manager,
		credits: credits.New(apiClient, manager, credits.WithLogger(log)),
		bus:     bus,
		log:     log,
	}, nil
}

// Auth exposes the session manager for callers that need the full surface.
func (s *SDK) Auth() *auth.Manager {
	return s.auth
}

// Credits exposes the credit client for callers that need the full surface.
func (s *SDK) Credits() *credits.Client {
	return s.credits
}

// Login authenticates the user and starts a session.
func (s *SDK) Login(ctx context.Context, email, password string, opts ...auth.LoginOption) (*api.Session, error) {
	return s.auth.Login(ctx, email, password, opts...)
}

// Logout clears the session; server-side invalidation is best-effort.
func (s *SDK) Logout(ctx context.Context) error {
	return s.auth.Logout(ctx)
}

// IsAuthenticated reports whether a live session is held.
func (s *SDK) IsAuthenticated() bool {
	return s.auth.IsAuthenticated()
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (s *SDK) CurrentUser() *api.User {
	return s.auth.CurrentUser()
}

// AuthState returns a point-in-time snapshot of the auth state.
func (s *SDK) AuthState() auth.State {
	return s.auth.State()
}

// HasPermission checks the cached permission set locally.
func (s *SDK) HasPermission(permission string) bool {
	return s.auth.HasPermission(permission)
}

// OnAuthChange subscribes to session state transitions.
func (s *SDK) OnAuthChange(listener events.Listener) (unsubscribe func()) {
	return s.bus.Subscribe(listener)
}

// CreditBalance fetches the current balance from the server.
func (s *SDK) CreditBalance(ctx context.Context, requiredCredits float64) (*api.CreditBalance, error) {
	return s.credits.Balance(ctx, requiredCredits)
}

// HasSufficientCredits is a non-fatal pre-flight gate; errors degrade to
// false.
func (s *SDK) HasSufficientCredits(ctx context.Context, requiredCredits float64) bool {
	return s.credits.HasSufficientCredits(ctx, requiredCredits)
}

// QuickCreditCheck never fails; on shortfall it includes a suggested
// package covering the deficit.
func (s *SDK) QuickCreditCheck(ctx context.Context, requiredCredits float64) credits.QuickCheckResult {
	return s.credits.QuickCheck(ctx, requiredCredits)
}

// ConsumeCredits debits the ledger. Not idempotent; never retried.
func (s *SDK) ConsumeCredits(ctx context.Context, creditAmount float64, service string, opts ...credits.ConsumeOption) (*api.CreditConsumption, error) {
	return s.credits.Consume(ctx, creditAmount, service, opts...)
}

// PurchaseCredits initiates a purchase, typically returning a checkout
// redirect target.
func (s *SDK) PurchaseCredits(ctx context.Context, req api.PurchaseRequest) (*api.CreditPurchase, error) {
	return s.credits.Purchase(ctx, req)
}

// CreditPackages fetches the read-only package catalog.
func (s *SDK) CreditPackages(ctx context.Context) ([]api.CreditPackage, error) {
	return s.credits.Packages(ctx)
}

// ComparePackages returns the catalog sorted by cost per credit.
func (s *SDK) ComparePackages(ctx context.Context) ([]credits.RankedPackage, error) {
	return s.credits.ComparePackages(ctx)
}

// RecommendedPackage picks the package for a target credit amount.
func (s *SDK) RecommendedPackage(ctx context.Context, targetCredits float64) (*api.CreditPackage, error) {
	return s.credits.Recommended(ctx, targetCredits)
}

// Subscriptions fetches the user's recurring credit subscriptions.
func (s *SDK) Subscriptions(ctx context.Context) ([]api.UserSubscription, error) {
	return s.credits.Subscriptions(ctx)
}

// Close releases the refresh timer and the event bus. The SDK must not be
// used after Close. Safe to call multiple times.
func (s *SDK) Close() error {
	_ = s.auth.Close()
	return s.bus.Close()
}
