// Package crossapp is a client SDK that lets independently deployed member
// apps authenticate end users against one central identity and billing
// server and consume a shared, meterable credit balance, without each app
// re-implementing password handling, session storage, token refresh or
// credit accounting.
//
// # Architecture
//
// The SDK facade composes two collaborators:
//
//	┌─────────────┐   auth    ┌──────────────┐
//	│   SDK       │ ────────► │ auth.Manager │ ──► store.Store
//	│  (facade)   │           └──────────────┘ ──► events.Bus
//	│             │  credits  ┌────────────────┐
//	│             │ ────────► │ credits.Client │
//	└─────────────┘           └────────────────┘
//	        both ──► api.Client ──► identity/credit server (HTTPS)
//
// The session manager owns the authentication state machine, the session
// store and the refresh timer, and publishes transitions on the event bus.
// The credit client is stateless with respect to balances: every call
// fetches current truth from the server using the manager's bearer token.
//
// # Usage
//
//	cfg, err := crossapp.LoadConfig()
//	if err != nil {
//	    // Handle error
//	}
//
//	sdk, err := crossapp.New(ctx, cfg)
//	if err != nil {
//	    // Handle error
//	}
//	defer sdk.Close()
//
//	unsubscribe := sdk.OnAuthChange(func(e events.Event) {
//	    // re-render UI on AUTH_SUCCESS, AUTH_LOGOUT, ...
//	})
//	defer unsubscribe()
//
//	if _, err := sdk.Login(ctx, email, password); err != nil {
//	    // Bad credentials or network failure; never retried automatically
//	}
//
//	check := sdk.QuickCreditCheck(ctx, 5)
//	if check.CanProceed {
//	    receipt, err := sdk.ConsumeCredits(ctx, 5, "video-gen")
//	    _ = receipt
//	    _ = err
//	}
//
// # Known limitation
//
// Two SDK instances sharing one storage key (the same app ID against the
// same store backend) race on writes; the last writer wins. There is no
// cross-process coordination.
package crossapp
