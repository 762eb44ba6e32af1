package session

import (
	"testing"

	"github.com/printloft/storefront/pkg/storage"
	"github.com/printloft/storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type change struct {
	prev, next string
}

func TestSessionNotifiesOnlyOnUserChange(t *testing.T) {
	s := New()
	var seen []change
	s.Subscribe(func(prev, next types.Identity) {
		seen = append(seen, change{prev.UserID, next.UserID})
	})

	require.NoError(t, s.SignIn(types.Identity{UserID: "u1"}))
	require.NoError(t, s.Set(types.Identity{UserID: "u1", DisplayName: "Asha"}))
	require.NoError(t, s.SignIn(types.Identity{UserID: "u2"}))
	require.NoError(t, s.SignOut())
	require.NoError(t, s.SignOut())

	assert.Equal(t, []change{
		{"", "u1"},
		{"u1", "u2"},
		{"u2", ""},
	}, seen)
	assert.False(t, s.Authenticated())
}

func TestSessionProfileUpdateIsStored(t *testing.T) {
	s := New()
	require.NoError(t, s.SignIn(types.Identity{UserID: "u1"}))
	require.NoError(t, s.Set(types.Identity{UserID: "u1", Email: "asha@example.com"}))

	assert.Equal(t, "asha@example.com", s.Current().Email)
	assert.True(t, s.Authenticated())
}

func TestSessionListenersRunInOrder(t *testing.T) {
	s := New()
	var order []int
	s.Subscribe(func(_, _ types.Identity) { order = append(order, 1) })
	s.Subscribe(func(_, _ types.Identity) { order = append(order, 2) })

	require.NoError(t, s.SignIn(types.Identity{UserID: "u1"}))
	assert.Equal(t, []int{1, 2}, order)
}

func TestSessionUnsubscribe(t *testing.T) {
	s := New()
	calls := 0
	cancel := s.Subscribe(func(_, _ types.Identity) { calls++ })

	require.NoError(t, s.SignIn(types.Identity{UserID: "u1"}))
	cancel()
	cancel()
	require.NoError(t, s.SignOut())

	assert.Equal(t, 1, calls)
}

func TestSessionPersistence(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewBoltStore(dir)
	require.NoError(t, err)

	s := New(WithStore(store))
	require.NoError(t, s.SignIn(types.Identity{UserID: "u1", Email: "asha@example.com"}))
	require.NoError(t, store.Close())

	store, err = storage.NewBoltStore(dir)
	require.NoError(t, err)
	defer store.Close()

	restored := New(WithStore(store))
	var seen []change
	restored.Subscribe(func(prev, next types.Identity) {
		seen = append(seen, change{prev.UserID, next.UserID})
	})
	require.NoError(t, restored.Restore())

	assert.Equal(t, "asha@example.com", restored.Current().Email)
	assert.Equal(t, []change{{"", "u1"}}, seen)

	require.NoError(t, restored.SignOut())
	identity, err := store.LoadIdentity()
	require.NoError(t, err)
	assert.True(t, identity.IsAnonymous())
}

func TestSessionRestoreWithoutStore(t *testing.T) {
	s := New()
	assert.NoError(t, s.Restore())
	assert.False(t, s.Authenticated())
}
