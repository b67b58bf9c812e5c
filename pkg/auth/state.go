package auth

import "github.com/crossapp/crossapp-go/pkg/api"

// State is a derived, in-memory snapshot of the manager's auth state.
// IsAuthenticated is true iff a session with a token is held. Loading
// reports whether any network-bound operation is currently in flight.
type State struct {
	IsAuthenticated bool
	User            *api.User
	Session         *api.Session
	Loading         bool
	Error           string
}
