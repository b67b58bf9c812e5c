package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossapp/crossapp-go/pkg/api"
	"github.com/crossapp/crossapp-go/pkg/permissions"
	"github.com/crossapp/crossapp-go/pkg/store"
)

func testSession(appID string) *api.Session {
	return &api.Session{
		SessionToken: "tok-" + appID,
		User: api.User{
			ID:    "user-1",
			Email: "user@example.com",
		},
		Permissions: permissions.Set{"credits.*"},
		ExpiresAt:   time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		AppID:       appID,
	}
}

// runStoreContract runs the behavior every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("load missing returns ErrNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load(ctx, "unknown-app")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("save then load round trips", func(t *testing.T) {
		s := newStore(t)
		session := testSession("app-a")
		require.NoError(t, s.Save(ctx, session))

		loaded, err := s.Load(ctx, "app-a")
		require.NoError(t, err)
		assert.Equal(t, session.SessionToken, loaded.SessionToken)
		assert.Equal(t, session.User.ID, loaded.User.ID)
		assert.True(t, session.ExpiresAt.Equal(loaded.ExpiresAt))
		assert.Equal(t, session.Permissions, loaded.Permissions)
	})

	t.Run("save overwrites prior session", func(t *testing.T) {
		s := newStore(t)
		first := testSession("app-a")
		require.NoError(t, s.Save(ctx, first))

		second := testSession("app-a")
		second.SessionToken = "rotated"
		require.NoError(t, s.Save(ctx, second))

		loaded, err := s.Load(ctx, "app-a")
		require.NoError(t, err)
		assert.Equal(t, "rotated", loaded.SessionToken)
	})

	t.Run("sessions are keyed per app", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, testSession("app-a")))
		require.NoError(t, s.Save(ctx, testSession("app-b")))

		loaded, err := s.Load(ctx, "app-b")
		require.NoError(t, err)
		assert.Equal(t, "tok-app-b", loaded.SessionToken)
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, testSession("app-a")))
		require.NoError(t, s.Delete(ctx, "app-a"))

		_, err := s.Load(ctx, "app-a")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete missing is not an error", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Delete(ctx, "never-saved"))
	})

	t.Run("rejects session without app id", func(t *testing.T) {
		s := newStore(t)
		session := testSession("app-a")
		session.AppID = ""
		assert.ErrorIs(t, s.Save(ctx, session), store.ErrInvalidSession)
		assert.ErrorIs(t, s.Save(ctx, nil), store.ErrInvalidSession)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) store.Store {
		return store.NewMemoryStore()
	})

	t.Run("load returns a copy", func(t *testing.T) {
		ctx := context.Background()
		s := store.NewMemoryStore()
		require.NoError(t, s.Save(ctx, testSession("app-a")))

		first, err := s.Load(ctx, "app-a")
		require.NoError(t, err)
		first.SessionToken = "mutated"

		second, err := s.Load(ctx, "app-a")
		require.NoError(t, err)
		assert.Equal(t, "tok-app-a", second.SessionToken)
	})
}

func TestFileStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) store.Store {
		s, err := store.NewFileStore(t.TempDir())
		require.NoError(t, err)
		return s
	})

	t.Run("survives a new store instance", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()

		first, err := store.NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, first.Save(ctx, testSession("app-a")))

		second, err := store.NewFileStore(dir)
		require.NoError(t, err)
		loaded, err := second.Load(ctx, "app-a")
		require.NoError(t, err)
		assert.Equal(t, "tok-app-a", loaded.SessionToken)
	})

	t.Run("corrupt entry is treated as absent", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()

		s, err := store.NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, testSession("app-a")))

		corruptSessionFile(t, dir)

		_, err = s.Load(ctx, "app-a")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unusual app ids stay filesystem safe", func(t *testing.T) {
		ctx := context.Background()
		s, err := store.NewFileStore(t.TempDir())
		require.NoError(t, err)

		session := testSession("app/../with:odd chars")
		require.NoError(t, s.Save(ctx, session))

		loaded, err := s.Load(ctx, "app/../with:odd chars")
		require.NoError(t, err)
		assert.Equal(t, session.SessionToken, loaded.SessionToken)
	})

	t.Run("empty directory rejected", func(t *testing.T) {
		_, err := store.NewFileStore("  ")
		assert.Error(t, err)
	})
}

func corruptSessionFile(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "session-*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.NoError(t, os.WriteFile(matches[0], []byte("{not json"), 0o600))
}
