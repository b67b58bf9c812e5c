// Package api implements the JSON-over-HTTPS request layer against the
// central identity/credit server. The Client is stateless: it holds the
// server base URL and the member app identity, while callers supply the
// bearer session token on every call.
//
// Non-2xx responses carry `{"detail": "..."}`; the detail string is
// surfaced verbatim inside a structured *Error together with a
// machine-readable Code and the raw payload for diagnostics. Transport
// failures map to CodeNetwork.
//
// Only the idempotent GET catalog reads retry on transient failures. The
// credit consume call is deliberately never retried because the debit is
// not idempotent and a retry on an ambiguous failure could double-charge.
//
// # Usage
//
//	client, err := api.New("https://hub.example.com", "my-app")
//	if err != nil {
//	    // Handle error
//	}
//
//	session, err := client.Login(ctx, api.LoginRequest{
//	    Email:    "user@example.com",
//	    Password: "secret",
//	})
package api
