package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgestore/storefront/internal/domain/session"
)

func openTestStore(t *testing.T) *SessionStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionStore_SaveLoadRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	user, err := session.DecodeUser([]byte(`{"username":"alice","plan":"gold"}`))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "t1", user))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "t1", got.Token)
	assert.Equal(t, "alice", got.User.Username)
	assert.JSONEq(t, `{"username":"alice","plan":"gold"}`, string(got.User.Raw))
}

func TestSessionStore_SaveOverwritesPriorSession(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	alice, err := session.DecodeUser([]byte(`{"username":"alice"}`))
	require.NoError(t, err)
	bob, err := session.DecodeUser([]byte(`{"username":"bob"}`))
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "t1", alice))
	require.NoError(t, s.Save(ctx, "t2", bob))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "t2", got.Token)
	assert.Equal(t, "bob", got.User.Username)
}

func TestSessionStore_LoadAbsent(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_MalformedUserDegradesToAbsent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	// Corrupt the stored user behind the store's back.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv(key, value) VALUES('token', 't1'), ('user', 'not json')`)
	require.NoError(t, err)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	user, err := session.DecodeUser([]byte(`{"username":"alice"}`))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "t1", user))

	require.NoError(t, s.Clear(ctx))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
