// Package auth implements the session lifecycle for a member app: login,
// logout, server-side validation, token refresh and expiry-driven refresh
// scheduling.
//
// # State machine
//
// The manager moves between two settled states:
//
//	Unauthenticated ──(login success)──► Authenticated
//	Authenticated ──(logout | refresh failure | validation failure)──► Unauthenticated
//
// A Loading flag overlays either state while a network-bound operation is
// in flight. State transitions are published on an events.Bus as
// AUTH_SUCCESS, AUTH_FAILURE, AUTH_LOGOUT and TOKEN_REFRESH.
//
// # Refresh scheduling
//
// After every successful login, refresh or validation the manager arms a
// single one-shot timer for max(0, expires_at - now - refreshLead). Arming
// always cancels the previous timer, so at most one is outstanding per
// manager. When the timer's refresh fails, the manager performs
// logout-equivalent cleanup so the application never holds a silently
// expired session.
//
// # Concurrency
//
// Overlapping operations are not mutually exclusive; the last resolved
// writer wins on the persisted session. A generation counter, bumped on
// login and on every clear, prevents an in-flight refresh or validation
// response from resurrecting a session that was logged out meanwhile.
//
// # Usage
//
//	client, _ := api.New("https://hub.example.com", "my-app")
//	manager, _ := auth.New(ctx, client,
//	    auth.WithStore(fileStore),
//	)
//	defer manager.Close()
//
//	unsubscribe := manager.OnAuthChange(func(e events.Event) {
//	    // re-render UI
//	})
//	defer unsubscribe()
//
//	session, err := manager.Login(ctx, email, password)
package auth
