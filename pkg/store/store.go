package store

import (
	"context"
	"errors"

	"github.com/crossapp/crossapp-go/pkg/api"
)

var (
	// ErrNotFound indicates no session is persisted under the app ID
	ErrNotFound = errors.New("store.session_not_found")

	// ErrInvalidSession indicates a nil session or one without an app ID
	ErrInvalidSession = errors.New("store.invalid_session")
)

// Store persists the current session keyed per member app identity.
// Exactly one session per app ID is stored at a time; Save overwrites any
// prior entry.
//
// The storage entry is owned by one session manager per app ID in one
// process. Two processes sharing one backing key (e.g. the same Redis key)
// race on writes and the last writer wins; this is a documented limitation,
// not coordinated away.
type Store interface {
	// Load returns the persisted session for the app ID, or ErrNotFound.
	Load(ctx context.Context, appID string) (*api.Session, error)

	// Save persists the session under its app ID, overwriting any prior one.
	Save(ctx context.Context, session *api.Session) error

	// Delete removes the session for the app ID. Deleting a missing entry
	// is not an error.
	Delete(ctx context.Context, appID string) error
}
