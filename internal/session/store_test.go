package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) CurrentUser(ctx context.Context) (Identity, error) {
	args := m.Called(ctx)
	return args.Get(0).(Identity), args.Error(1)
}

func (m *mockBackend) AuthorizationEntries(ctx context.Context, userID int64) ([]MenuNode, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]MenuNode), args.Error(1)
}

func (m *mockBackend) Login(ctx context.Context, username string, password string) error {
	return m.Called(ctx, username, password).Error(0)
}

func (m *mockBackend) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBackend) ConfirmPasswordReset(ctx context.Context, username string, newPassword string) error {
	return m.Called(ctx, username, newPassword).Error(0)
}

func (m *mockBackend) ClearCredentials() {
	m.Called()
}

type messageError struct{ msg string }

func (e *messageError) Error() string       { return e.msg }
func (e *messageError) UserMessage() string { return e.msg }

var (
	alice = Identity{ID: 7, Username: "alice", Name: "Alice"}
	menu  = []MenuNode{{OptionID: 1, Label: "Admin", Children: []MenuNode{{OptionID: 2, Label: "Companies", Path: "/manage/companies"}}}}
)

type closeRecorder struct{ closed bool }

func (c *closeRecorder) Close() { c.closed = true }

func TestNewStoreStartsInitializing(t *testing.T) {
	t.Parallel()

	snap := NewStore(&mockBackend{}).Snapshot()
	require.Equal(t, Initializing, snap.State)
	require.Nil(t, snap.Identity)
	require.Empty(t, snap.Entries)
}

func TestBootstrap(t *testing.T) {
	t.Parallel()

	t.Run("unauthenticated backend leaves an empty ready session", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("CurrentUser", mock.Anything).Return(Identity{}, &messageError{msg: "authentication required"})

		store := NewStore(backend)
		store.Bootstrap(context.Background())

		snap := store.Snapshot()
		require.Nil(t, snap.Identity)
		require.Empty(t, snap.Entries)
		require.Equal(t, Ready, snap.State)
		backend.AssertNotCalled(t, "AuthorizationEntries", mock.Anything, mock.Anything)
	})

	t.Run("loads identity and menu", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("CurrentUser", mock.Anything).Return(alice, nil)
		backend.On("AuthorizationEntries", mock.Anything, int64(7)).Return(menu, nil)

		store := NewStore(backend)
		store.Bootstrap(context.Background())

		snap := store.Snapshot()
		require.Equal(t, alice, *snap.Identity)
		require.Equal(t, menu, snap.Entries)
		require.Equal(t, Ready, snap.State)
	})

	t.Run("menu failure keeps the identity with an empty menu", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("CurrentUser", mock.Anything).Return(alice, nil)
		backend.On("AuthorizationEntries", mock.Anything, int64(7)).Return(nil, errors.New("boom"))

		store := NewStore(backend)
		store.Bootstrap(context.Background())

		snap := store.Snapshot()
		require.NotNil(t, snap.Identity)
		require.Empty(t, snap.Entries)
		require.Equal(t, Ready, snap.State)
	})

	t.Run("identity without a user id skips the menu request", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("CurrentUser", mock.Anything).Return(Identity{Username: "svc"}, nil)

		store := NewStore(backend)
		store.Bootstrap(context.Background())

		snap := store.Snapshot()
		require.NotNil(t, snap.Identity)
		require.Empty(t, snap.Entries)
		backend.AssertNotCalled(t, "AuthorizationEntries", mock.Anything, mock.Anything)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("rejected credentials return the server message and keep state", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("CurrentUser", mock.Anything).Return(Identity{}, &messageError{msg: "authentication required"})
		backend.On("Login", mock.Anything, "alice", "secret").Return(&messageError{msg: "bad credentials"})

		store := NewStore(backend)
		store.Bootstrap(context.Background())

		result := store.Login(context.Background(), "alice", "secret")
		require.Equal(t, Result{Success: false, Message: "bad credentials"}, result)

		snap := store.Snapshot()
		require.Nil(t, snap.Identity)
		require.Empty(t, snap.Entries)
		require.Equal(t, Ready, snap.State)
	})

	t.Run("network failure returns a generic message", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("Login", mock.Anything, "alice", "secret").Return(errors.New("dial tcp: connection refused"))

		result := NewStore(backend).Login(context.Background(), "alice", "secret")
		require.False(t, result.Success)
		require.Equal(t, genericLoginFailure, result.Message)
	})

	t.Run("success populates identity and menu", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("Login", mock.Anything, "alice", "secret").Return(nil)
		backend.On("CurrentUser", mock.Anything).Return(alice, nil)
		backend.On("AuthorizationEntries", mock.Anything, int64(7)).Return(menu, nil)

		store := NewStore(backend)
		result := store.Login(context.Background(), " alice ", "secret")
		require.True(t, result.Success)

		snap := store.Snapshot()
		require.Equal(t, "alice", snap.Identity.Username)
		require.Len(t, snap.Entries, 1)
		require.Equal(t, Ready, snap.State)
	})
}

func TestLogoutAlwaysClears(t *testing.T) {
	t.Parallel()

	for _, logoutErr := range []error{nil, errors.New("backend down")} {
		backend := &mockBackend{}
		backend.On("CurrentUser", mock.Anything).Return(alice, nil)
		backend.On("AuthorizationEntries", mock.Anything, int64(7)).Return(menu, nil)
		backend.On("Logout", mock.Anything).Return(logoutErr)
		backend.On("ClearCredentials").Return()

		store := NewStore(backend)
		store.Bootstrap(context.Background())
		recorder := &closeRecorder{}
		store.Put("list:companies", recorder)

		store.Logout(context.Background())

		snap := store.Snapshot()
		require.Nil(t, snap.Identity)
		require.Empty(t, snap.Entries)
		require.Equal(t, Ready, snap.State)
		require.True(t, recorder.closed)
		_, ok := store.Value("list:companies")
		require.False(t, ok)
		backend.AssertCalled(t, "ClearCredentials")
	}
}

func TestTransientLoadOrStore(t *testing.T) {
	t.Parallel()

	store := NewStore(&mockBackend{})
	calls := 0
	build := func() any {
		calls++
		return calls
	}

	require.Equal(t, 1, store.LoadOrStore("k", build))
	require.Equal(t, 1, store.LoadOrStore("k", build))
	require.Equal(t, 1, calls)
}

func TestConfirmPasswordReset(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{}
	backend.On("ConfirmPasswordReset", mock.Anything, "alice", "n3w-Passw0rd").Return(nil).Once()
	backend.On("ConfirmPasswordReset", mock.Anything, "bob", "short").Return(&messageError{msg: "password too short"}).Once()

	store := NewStore(backend)
	require.True(t, store.ConfirmPasswordReset(context.Background(), "alice", "n3w-Passw0rd").Success)
	require.Equal(t, Result{Message: "password too short"}, store.ConfirmPasswordReset(context.Background(), "bob", "short"))
	require.Nil(t, store.Snapshot().Identity)
}

func TestRevalidate(t *testing.T) {
	t.Parallel()

	signedIn := func(t *testing.T) (*Store, *mockBackend, *closeRecorder) {
		backend := &mockBackend{}
		backend.On("CurrentUser", mock.Anything).Return(alice, nil).Once()
		backend.On("AuthorizationEntries", mock.Anything, int64(7)).Return(menu, nil).Once()

		store := NewStore(backend)
		store.Bootstrap(context.Background())
		recorder := &closeRecorder{}
		store.Put("list:companies", recorder)
		return store, backend, recorder
	}

	t.Run("same user keeps transient storage", func(t *testing.T) {
		store, backend, recorder := signedIn(t)
		backend.On("CurrentUser", mock.Anything).Return(alice, nil).Once()
		backend.On("AuthorizationEntries", mock.Anything, int64(7)).Return([]MenuNode{}, nil).Once()

		require.True(t, store.Revalidate(context.Background()))

		snap := store.Snapshot()
		require.Equal(t, Ready, snap.State)
		require.Equal(t, "alice", snap.Identity.Username)
		require.Empty(t, snap.Entries)
		_, kept := store.Value("list:companies")
		require.True(t, kept)
		require.False(t, recorder.closed)
	})

	t.Run("lost session clears everything", func(t *testing.T) {
		store, backend, recorder := signedIn(t)
		backend.On("CurrentUser", mock.Anything).Return(Identity{}, errors.New("401")).Once()

		require.False(t, store.Revalidate(context.Background()))

		snap := store.Snapshot()
		require.Nil(t, snap.Identity)
		require.Empty(t, snap.Entries)
		require.True(t, recorder.closed)
	})

	t.Run("different user replaces the session", func(t *testing.T) {
		store, backend, recorder := signedIn(t)
		bob := Identity{ID: 9, Username: "bob"}
		backend.On("CurrentUser", mock.Anything).Return(bob, nil).Once()
		backend.On("AuthorizationEntries", mock.Anything, int64(9)).Return(menu, nil).Once()

		require.True(t, store.Revalidate(context.Background()))

		snap := store.Snapshot()
		require.Equal(t, "bob", snap.Identity.Username)
		require.True(t, recorder.closed)
		_, kept := store.Value("list:companies")
		require.False(t, kept)
	})
}
