package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/crossapp/crossapp-go/pkg/api"
)

// FileStore implements Store with one JSON file per app ID under a base
// directory. It is the durable local-storage analog for CLI and desktop
// member apps.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed. Files are written with owner-only permissions since
// they hold bearer tokens.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store.empty_directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load reads the persisted session for the app ID.
func (f *FileStore) Load(ctx context.Context, appID string) (*api.Session, error) {
	raw, err := os.ReadFile(f.path(appID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var session api.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// A corrupt entry is unusable; treat it as absent.
		return nil, ErrNotFound
	}
	return &session, nil
}

// Save writes the session atomically via a temp file rename so a crash
// mid-write never leaves a truncated entry behind.
func (f *FileStore) Save(ctx context.Context, session *api.Session) error {
	if session == nil || session.AppID == "" {
		return ErrInvalidSession
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	path := f.path(session.AppID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Delete removes the session file for the app ID.
func (f *FileStore) Delete(ctx context.Context, appID string) error {
	if err := os.Remove(f.path(appID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (f *FileStore) path(appID string) string {
	return filepath.Join(f.dir, "session-"+sanitize(appID)+".json")
}

// sanitize keeps app IDs filesystem-safe without losing uniqueness for the
// common alphanumeric-with-dashes case.
func sanitize(appID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, appID)
}
