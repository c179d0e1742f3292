package flow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgestore/storefront/internal/commerce"
)

const testNoticeTTL = 30 * time.Millisecond

func newTestAuth(api *mockAPI, store *memStore) *Auth {
	return NewAuth(api, store, testNoticeTTL, zap.NewNop())
}

func TestLogin_Success(t *testing.T) {
	api := &mockAPI{session: testSession("t1", "alice")}
	store := &memStore{}
	auth := newTestAuth(api, store)

	require.NoError(t, auth.Login(context.Background(), "alice", "pw"))

	assert.Equal(t, StateAuthenticated, auth.State())
	require.NotNil(t, auth.Session())
	assert.Equal(t, "alice", auth.Session().User.Username)
	assert.Equal(t, "Welcome back, alice", auth.Notice())

	// Session persisted durably.
	stored := store.stored()
	require.NotNil(t, stored)
	assert.Equal(t, "t1", stored.Token)
	assert.Equal(t, "alice", stored.User.Username)
}

func TestLogin_NoticeAutoClears(t *testing.T) {
	api := &mockAPI{session: testSession("t1", "alice")}
	auth := newTestAuth(api, &memStore{})

	require.NoError(t, auth.Login(context.Background(), "alice", "pw"))
	require.NotEmpty(t, auth.Notice())

	assert.Eventually(t, func() bool { return auth.Notice() == "" },
		time.Second, 5*time.Millisecond)
}

func TestLogin_RejectedShowsServerMessage(t *testing.T) {
	api := &mockAPI{authErr: &commerce.RejectedError{Message: "bad credentials"}}
	store := &memStore{}
	auth := newTestAuth(api, store)

	err := auth.Login(context.Background(), "alice", "wrong")

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "bad credentials", f.Message)
	assert.Equal(t, StateAnonymous, auth.State())
	assert.Nil(t, auth.Session())
	assert.Nil(t, store.stored())
}

func TestLogin_TransportFailureFallsBack(t *testing.T) {
	api := &mockAPI{authErr: errors.New("connection refused")}
	auth := newTestAuth(api, &memStore{})

	err := auth.Login(context.Background(), "alice", "pw")

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "Login failed", f.Message)
	assert.Equal(t, StateAnonymous, auth.State())
}

func TestLogin_FailureKeepsPriorStoredSession(t *testing.T) {
	store := &memStore{}
	require.NoError(t, store.Save(context.Background(), "old", testUser("alice")))

	api := &mockAPI{authErr: &commerce.RejectedError{Message: "bad credentials"}}
	auth := newTestAuth(api, store)

	require.Error(t, auth.Login(context.Background(), "alice", "wrong"))

	stored := store.stored()
	require.NotNil(t, stored)
	assert.Equal(t, "old", stored.Token)
}

func TestRegister_Success(t *testing.T) {
	api := &mockAPI{session: testSession("t2", "bob")}
	auth := newTestAuth(api, &memStore{})

	require.NoError(t, auth.Register(context.Background(), "bob", "pw"))

	assert.Equal(t, StateAuthenticated, auth.State())
	assert.Equal(t, "Account created", auth.Notice())
}

func TestRegister_FailureFallsBack(t *testing.T) {
	api := &mockAPI{authErr: errors.New("boom")}
	auth := newTestAuth(api, &memStore{})

	err := auth.Register(context.Background(), "bob", "pw")

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "Register failed", f.Message)
}

func TestLogout_WipesSessionSynchronously(t *testing.T) {
	api := &mockAPI{session: testSession("t1", "alice")}
	store := &memStore{}
	auth := newTestAuth(api, store)
	require.NoError(t, auth.Login(context.Background(), "alice", "pw"))

	require.NoError(t, auth.Logout(context.Background()))

	assert.Equal(t, StateAnonymous, auth.State())
	assert.Nil(t, auth.Session())
	assert.Empty(t, auth.Notice())
	assert.Nil(t, store.stored())
	// Logout never touches the network.
	assert.Zero(t, api.calls("checkout"))
	assert.Equal(t, 1, api.calls("login"))
}

func TestResume_RestoresPersistedSession(t *testing.T) {
	store := &memStore{}
	require.NoError(t, store.Save(context.Background(), "t1", testUser("alice")))
	auth := newTestAuth(&mockAPI{}, store)

	require.NoError(t, auth.Resume(context.Background()))

	assert.Equal(t, StateAuthenticated, auth.State())
	require.NotNil(t, auth.Session())
	assert.Equal(t, "t1", auth.Session().Token)
}

func TestResume_EmptyStoreStaysAnonymous(t *testing.T) {
	auth := newTestAuth(&mockAPI{}, &memStore{})

	require.NoError(t, auth.Resume(context.Background()))

	assert.Equal(t, StateAnonymous, auth.State())
	assert.Nil(t, auth.Session())
}

func TestLogin_DuplicateSubmissionsCoalesce(t *testing.T) {
	api := &mockAPI{
		session: testSession("t1", "alice"),
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	auth := newTestAuth(api, &memStore{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = auth.Login(context.Background(), "alice", "pw")
	}()
	<-api.entered // first submission is now in flight

	go func() {
		defer wg.Done()
		_ = auth.Login(context.Background(), "alice", "pw")
	}()
	// Give the duplicate a moment to join the pending call.
	time.Sleep(20 * time.Millisecond)

	close(api.gate)
	wg.Wait()

	assert.Equal(t, 1, api.calls("login"))
	assert.Equal(t, StateAuthenticated, auth.State())
}

func TestLoginRequested_ClearedBySuccessfulLogin(t *testing.T) {
	api := &mockAPI{session: testSession("t1", "alice")}
	auth := newTestAuth(api, &memStore{})

	auth.RequestLogin()
	require.True(t, auth.LoginRequested())

	require.NoError(t, auth.Login(context.Background(), "alice", "pw"))
	assert.False(t, auth.LoginRequested())
}
