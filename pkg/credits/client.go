package credits

import (
	"context"
	"log/slog"

	"github.com/crossapp/crossapp-go/pkg/api"
	"github.com/crossapp/crossapp-go/pkg/logger"
)

// API is the subset of the server client the credit client depends on.
type API interface {
	CreditBalance(ctx context.Context, sessionToken string, requiredCredits float64) (*api.CreditBalance, error)
	ConsumeCredits(ctx context.Context, sessionToken string, req api.ConsumeRequest) (*api.CreditConsumption, error)
	PurchaseCredits(ctx context.Context, sessionToken string, req api.PurchaseRequest) (*api.CreditPurchase, error)
	CreditPackages(ctx context.Context, sessionToken string) ([]api.CreditPackage, error)
	CreditSubscriptions(ctx context.Context, sessionToken string) ([]api.UserSubscription, error)
}

// TokenSource provides the current bearer token; implemented by
// auth.Manager.
type TokenSource interface {
	IsAuthenticated() bool
	SessionToken() string
}

// QuickCheckResult is the degraded-safe answer to "can I afford this
// operation right now".
type QuickCheckResult struct {
	CanProceed       bool
	CurrentCredits   float64
	Deficit          float64
	SuggestedPackage *api.CreditPackage
}

// Client is the stateless request layer for balance inspection,
// consumption, purchase and package comparison. Balances are never cached
// locally; the server is the source of truth on every call.
type Client struct {
	api    API
	tokens TokenSource
	log    *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithLogger attaches a structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a credit client. Panics if either dependency is nil to fail
// fast on misconfiguration.
func New(apiClient API, tokens TokenSource, opts ...Option) *Client {
	if apiClient == nil {
		panic("credits: api client is required")
	}
	if tokens == nil {
		panic("credits: token source is required")
	}

	c := &Client{
		api:    apiClient,
		tokens: tokens,
		log:    logger.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Balance fetches the current balance. Pass requiredCredits > 0 to have
// the server answer the affordability question in the same round trip.
func (c *Client) Balance(ctx context.Context, requiredCredits float64) (*api.CreditBalance, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}
	return c.api.CreditBalance(ctx, token, requiredCredits)
}

// ConsumeOption customizes a consume request.
type ConsumeOption func(*api.ConsumeRequest)

// WithDescription attaches a human-readable description to the debit.
func WithDescription(description string) ConsumeOption {
	return func(req *api.ConsumeRequest) {
		req.Description = description
	}
}

// WithMetadata attaches arbitrary metadata to the debit.
func WithMetadata(metadata map[string]any) ConsumeOption {
	return func(req *api.ConsumeRequest) {
		req.Metadata = metadata
	}
}

// Consume debits the server-side ledger and returns the receipt. The call
// is not idempotent: an ambiguous failure (e.g. a timeout) must not be
// retried blindly because a retry could double-charge. The server error is
// surfaced verbatim; the retry decision belongs to the caller.
func (c *Client) Consume(ctx context.Context, creditAmount float64, service string, opts ...ConsumeOption) (*api.CreditConsumption, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}

	req := api.ConsumeRequest{Credits: creditAmount, Service: service}
	for _, opt := range opts {
		opt(&req)
	}

	return c.api.ConsumeCredits(ctx, token, req)
}

// Purchase initiates a credit purchase, typically returning a checkout
// redirect target rather than completing synchronously.
func (c *Client) Purchase(ctx context.Context, req api.PurchaseRequest) (*api.CreditPurchase, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}
	return c.api.PurchaseCredits(ctx, token, req)
}

// Packages fetches the read-only package catalog.
func (c *Client) Packages(ctx context.Context) ([]api.CreditPackage, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}
	return c.api.CreditPackages(ctx, token)
}

// Subscriptions fetches the user's recurring credit subscriptions.
func (c *Client) Subscriptions(ctx context.Context) ([]api.UserSubscription, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}
	return c.api.CreditSubscriptions(ctx, token)
}

// ComparePackages returns the catalog sorted by cost per credit, cheapest
// first, ties in the server's original order.
func (c *Client) ComparePackages(ctx context.Context) ([]RankedPackage, error) {
	packages, err := c.Packages(ctx)
	if err != nil {
		return nil, err
	}
	return RankByCostPerCredit(packages), nil
}

// Recommended fetches the catalog and picks the package for the target
// credit amount. Returns nil when no package covers the target.
func (c *Client) Recommended(ctx context.Context, targetCredits float64) (*api.CreditPackage, error) {
	packages, err := c.Packages(ctx)
	if err != nil {
		return nil, err
	}
	return RecommendedPackage(packages, targetCredits), nil
}

// HasSufficientCredits is a pre-flight gate that must not crash the
// caller: any error degrades to false.
func (c *Client) HasSufficientCredits(ctx context.Context, requiredCredits float64) bool {
	balance, err := c.Balance(ctx, requiredCredits)
	if err != nil {
		c.log.DebugContext(ctx, "credit check degraded to false", slog.Any("error", err))
		return false
	}
	return balance.CanConsume
}

// QuickCheck composes the balance check with, on shortfall, a recommended
// package lookup. It never fails: any internal error degrades to a
// negative result with a zero balance and the full requirement as deficit.
func (c *Client) QuickCheck(ctx context.Context, requiredCredits float64) QuickCheckResult {
	degraded := QuickCheckResult{
		CanProceed:     false,
		CurrentCredits: 0,
		Deficit:        requiredCredits,
	}

	balance, err := c.Balance(ctx, requiredCredits)
	if err != nil {
		c.log.DebugContext(ctx, "quick credit check degraded", slog.Any("error", err))
		return degraded
	}

	if balance.CanConsume {
		return QuickCheckResult{
			CanProceed:     true,
			CurrentCredits: balance.CurrentCredits,
		}
	}

	result := QuickCheckResult{
		CanProceed:     false,
		CurrentCredits: balance.CurrentCredits,
		Deficit:        max(requiredCredits-balance.CurrentCredits, 0),
	}

	// Best effort: the suggestion is a convenience, not a requirement.
	if packages, err := c.Packages(ctx); err == nil {
		result.SuggestedPackage = RecommendedPackage(packages, result.Deficit)
	}

	return result
}

func (c *Client) token() (string, error) {
	if !c.tokens.IsAuthenticated() {
		return "", api.NewError(api.CodeNoSession, "not authenticated: login before using credits")
	}
	token := c.tokens.SessionToken()
	if token == "" {
		return "", api.NewError(api.CodeNoSession, "not authenticated: session token unavailable")
	}
	return token, nil
}
