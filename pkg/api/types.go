package api

import (
	"time"

	"github.com/crossapp/crossapp-go/pkg/permissions"
)

// User is an immutable snapshot of the identity server's user record.
// It is refreshed on login and token validation, never mutated locally.
type User struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	Name        string          `json:"name,omitempty"`
	Permissions permissions.Set `json:"permissions,omitempty"`
}

// Session is the unit of persistence: one session per app ID is stored at
// a time, and creating a new one overwrites the prior.
type Session struct {
	SessionToken string          `json:"session_token"`
	User         User            `json:"user"`
	Permissions  permissions.Set `json:"permissions"`
	ExpiresAt    time.Time       `json:"expires_at"`
	AppID        string          `json:"app_id"`
}

// IsExpired reports whether the session has passed its expiry at the given
// instant. An expired session must be treated as absent by every caller.
func (s *Session) IsExpired(now time.Time) bool {
	return s == nil || !s.ExpiresAt.After(now)
}

// LoginRequest carries member-app credentials to the identity server.
type LoginRequest struct {
	AppID       string         `json:"app_id"`
	Email       string         `json:"email"`
	Password    string         `json:"password"`
	AppUserID   string         `json:"app_user_id,omitempty"`
	AppMetadata map[string]any `json:"app_metadata,omitempty"`
}

// RefreshResult is the server response to a token refresh. The field names
// follow the server's wire contract, which is camelCase on this endpoint.
type RefreshResult struct {
	NewSessionToken string          `json:"newSessionToken"`
	ExpiresAt       time.Time       `json:"expiresAt"`
	Permissions     permissions.Set `json:"permissions"`
}

// ValidationResult is the server response to a token validation probe.
// User, Permissions and ExpiresAt are only set when Valid is true.
type ValidationResult struct {
	Valid       bool            `json:"valid"`
	User        *User           `json:"user,omitempty"`
	Permissions permissions.Set `json:"permissions,omitempty"`
	ExpiresAt   time.Time       `json:"expires_at,omitzero"`
}

// CreditBalance is the server's current truth about a user's balance.
// It is always fetched fresh; staleness has direct billing consequences.
type CreditBalance struct {
	CurrentCredits  float64 `json:"current_credits"`
	CanConsume      bool    `json:"can_consume"`
	RequiredCredits float64 `json:"required_credits,omitempty"`
}

// ConsumeRequest debits the server-side ledger. The call is not idempotent
// at the client level; callers must not retry blindly on ambiguous failure.
type ConsumeRequest struct {
	Credits     float64        `json:"credits"`
	Service     string         `json:"service"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// CreditConsumption is the receipt returned for a successful debit.
type CreditConsumption struct {
	ID               string    `json:"id"`
	Credits          float64   `json:"credits"`
	RemainingCredits float64   `json:"remaining_credits"`
	Service          string    `json:"service"`
	Description      string    `json:"description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// PurchaseRequest initiates a credit purchase, typically resolving to a
// hosted checkout redirect rather than completing synchronously.
type PurchaseRequest struct {
	PackageID  string  `json:"package_id,omitempty"`
	Credits    float64 `json:"credits,omitempty"`
	SuccessURL string  `json:"success_url,omitempty"`
	CancelURL  string  `json:"cancel_url,omitempty"`
}

// CreditPurchase records an initiated purchase.
type CreditPurchase struct {
	ID          string    `json:"id"`
	Credits     float64   `json:"credits"`
	Status      string    `json:"status"`
	CheckoutURL string    `json:"checkout_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreditPackage is a read-only catalog entry from the server.
type CreditPackage struct {
	ID           string  `json:"id"`
	Name         string  `json:"name,omitempty"`
	CreditAmount float64 `json:"credit_amount"`
	MonthlyPrice float64 `json:"monthly_price"`
	Currency     string  `json:"currency,omitempty"`
	Description  string  `json:"description,omitempty"`
}

// UserSubscription describes an active recurring credit subscription.
type UserSubscription struct {
	ID               string    `json:"id"`
	PackageID        string    `json:"package_id"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"current_period_end,omitzero"`
}
