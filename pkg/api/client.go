package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/crossapp/crossapp-go/pkg/logger"
)

const (
	defaultTimeout = 30 * time.Second

	// Catalog reads are idempotent and safe to retry; everything else is not.
	catalogRetries       = 2
	catalogRetryInterval = 500 * time.Millisecond
)

// Client is the stateless HTTP request layer against the identity/credit
// server. It holds no session state; callers supply the bearer token on
// every call.
type Client struct {
	baseURL string
	appID   string
	http    *http.Client
	log     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout overrides the per-request timeout. A hung network call must
// never hold a caller's loading state indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger attaches a structured logger for request diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for the given server base URL and member app ID.
func New(baseURL, appID string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingBaseURL
	}
	if strings.TrimSpace(appID) == "" {
		return nil, ErrMissingAppID
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logger.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// AppID returns the member app identity this client authenticates as.
func (c *Client) AppID() string {
	return c.appID
}

// Login exchanges member-app credentials for a new session.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	req.AppID = c.appID

	var session Session
	if err := c.post(ctx, "/api/cross-app/auth", CodeAuthFailed, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Logout invalidates the session server-side. Callers treat failures as
// best-effort; local cleanup proceeds regardless.
func (c *Client) Logout(ctx context.Context, sessionToken string) error {
	body := map[string]string{"session_token": sessionToken, "app_id": c.appID}
	return c.post(ctx, "/api/cross-app/logout", CodeAuthFailed, body, nil)
}

// RefreshToken exchanges the current token for a new one with fresh expiry.
func (c *Client) RefreshToken(ctx context.Context, sessionToken string) (*RefreshResult, error) {
	body := map[string]string{"session_token": sessionToken, "app_id": c.appID}

	var result RefreshResult
	if err := c.post(ctx, "/api/cross-app/refresh-token", CodeRefreshFailed, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateToken asks the server whether the session is still accepted. It
// does not rotate the token.
func (c *Client) ValidateToken(ctx context.Context, sessionToken string) (*ValidationResult, error) {
	body := map[string]string{"session_token": sessionToken, "app_id": c.appID}

	var result ValidationResult
	if err := c.post(ctx, "/api/cross-app/validate-token", CodeValidationFailed, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreditBalance fetches the current balance. Pass requiredCredits > 0 to
// have the server answer the affordability question in the same round trip.
func (c *Client) CreditBalance(ctx context.Context, sessionToken string, requiredCredits float64) (*CreditBalance, error) {
	body := map[string]any{"session_token": sessionToken, "app_id": c.appID}
	if requiredCredits > 0 {
		body["required_credits"] = requiredCredits
	}

	var balance CreditBalance
	if err := c.post(ctx, "/api/cross-app/credits/check", CodeCreditsFailed, body, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// ConsumeCredits debits the ledger. Never retried here: a retry on an
// ambiguous failure could double-charge.
func (c *Client) ConsumeCredits(ctx context.Context, sessionToken string, req ConsumeRequest) (*CreditConsumption, error) {
	body := map[string]any{
		"session_token": sessionToken,
		"app_id":        c.appID,
		"credits":       req.Credits,
		"service":       req.Service,
	}
	if req.Description != "" {
		body["description"] = req.Description
	}
	if req.Metadata != nil {
		body["metadata"] = req.Metadata
	}

	var receipt CreditConsumption
	if err := c.post(ctx, "/api/cross-app/credits/consume", CodeCreditsFailed, body, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// PurchaseCredits initiates a purchase, typically returning a checkout
// redirect target rather than completing synchronously.
func (c *Client) PurchaseCredits(ctx context.Context, sessionToken string, req PurchaseRequest) (*CreditPurchase, error) {
	body := map[string]any{
		"session_token": sessionToken,
		"app_id":        c.appID,
	}
	if req.PackageID != "" {
		body["package_id"] = req.PackageID
	}
	if req.Credits > 0 {
		body["credits"] = req.Credits
	}
	if req.SuccessURL != "" {
		body["success_url"] = req.SuccessURL
	}
	if req.CancelURL != "" {
		body["cancel_url"] = req.CancelURL
	}

	var purchase CreditPurchase
	if err := c.post(ctx, "/api/cross-app/credits/purchase", CodeCreditsFailed, body, &purchase); err != nil {
		return nil, err
	}
	return &purchase, nil
}

// CreditPackages fetches the read-only package catalog.
func (c *Client) CreditPackages(ctx context.Context, sessionToken string) ([]CreditPackage, error) {
	var out struct {
		Packages []CreditPackage `json:"packages"`
	}
	if err := c.get(ctx, "/api/cross-app/credits/packages", sessionToken, &out); err != nil {
		return nil, err
	}
	return out.Packages, nil
}

// CreditSubscriptions fetches the user's recurring credit subscriptions.
func (c *Client) CreditSubscriptions(ctx context.Context, sessionToken string) ([]UserSubscription, error) {
	var out struct {
		Subscriptions []UserSubscription `json:"subscriptions"`
	}
	if err := c.get(ctx, "/api/cross-app/credits/subscriptions", sessionToken, &out); err != nil {
		return nil, err
	}
	return out.Subscriptions, nil
}

func (c *Client) post(ctx context.Context, path string, code Code, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return networkError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	return c.do(req, code, out)
}

// get performs an idempotent catalog read with bounded retry on transient
// failures. Mutating calls never pass through here.
func (c *Client) get(ctx context.Context, path, sessionToken string, out any) error {
	query := url.Values{}
	query.Set("session_token", sessionToken)
	query.Set("app_id", c.appID)

	backoff := retry.WithMaxRetries(catalogRetries, retry.NewConstant(catalogRetryInterval))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return networkError(err)
		}
		req.Header.Set("X-Request-ID", uuid.NewString())

		err = c.do(req, CodeCreditsFailed, out)
		if err == nil {
			return nil
		}

		var apiErr *Error
		if errors.As(err, &apiErr) && (apiErr.Code == CodeNetwork || apiErr.Status >= http.StatusInternalServerError) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) do(req *http.Request, code Code, out any) error {
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.DebugContext(req.Context(), "request failed",
			slog.String("path", req.URL.Path),
			slog.Any("error", err),
		)
		return networkError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	c.log.DebugContext(req.Context(), "request completed",
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(code, resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// decodeError surfaces the server-reported detail verbatim, keeping the raw
// payload for diagnostics.
func decodeError(code Code, status int, raw []byte) *Error {
	var payload struct {
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(raw, &payload)

	message := payload.Detail
	if message == "" {
		message = http.StatusText(status)
	}

	return &Error{
		Code:    code,
		Status:  status,
		Message: message,
		Raw:     raw,
	}
}
