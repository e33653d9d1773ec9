package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
)

const testSecret = "test-secret-with-enough-length"

func newAuthFixture(t *testing.T) (*AuthService, *repository.MockUserRepository, *repository.MockSessionRepository) {
	t.Helper()

	users := &repository.MockUserRepository{}
	sessions := &repository.MockSessionRepository{}
	svc := NewAuthService(users, sessions, AuthOptions{
		JWTSecret:        testSecret,
		SessionTTL:       time.Hour,
		LockoutThreshold: 3,
		LockoutDuration:  10 * time.Minute,
	})

	t.Cleanup(func() {
		users.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})
	return svc, users, sessions
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	t.Parallel()

	svc, users, sessions := newAuthFixture(t)
	alice := model.User{ID: 7, Username: "alice", Name: "Alice", Role: model.RoleOperator, PasswordHash: hashed(t, "s3cret-pass")}
	users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)

	var stored model.Session
	sessions.On("Store", mock.Anything, mock.MatchedBy(func(s model.Session) bool {
		return s.UserID == 7 && s.TokenID != "" && s.IP == "10.0.0.1"
	})).Run(func(args mock.Arguments) {
		stored = args.Get(1).(model.Session)
	}).Return(nil)

	result, err := svc.Login(context.Background(), " alice ", "s3cret-pass", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, int64(7), result.User.ID)
	require.Equal(t, "Alice", result.User.Name)
	require.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, 5*time.Second)

	sessions.On("Validate", mock.Anything, stored.TokenID).Return(int64(7), nil)

	claims, err := svc.ValidateSession(context.Background(), result.Token)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, model.RoleOperator, claims.Role)
	require.Equal(t, stored.TokenID, claims.TokenID)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	t.Parallel()

	t.Run("unknown user", func(t *testing.T) {
		svc, users, _ := newAuthFixture(t)
		users.On("FindByUsername", mock.Anything, "ghost").Return(model.User{}, model.ErrUserNotFound)

		_, err := svc.Login(context.Background(), "ghost", "whatever", "", "")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("wrong password counts the failure", func(t *testing.T) {
		svc, users, _ := newAuthFixture(t)
		users.On("FindByUsername", mock.Anything, "alice").Return(model.User{ID: 7, Username: "alice", PasswordHash: hashed(t, "right-password")}, nil)
		users.On("IncrementFailedAttempts", mock.Anything, int64(7)).Return(1, nil)

		_, err := svc.Login(context.Background(), "alice", "wrong-password", "", "")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("reaching the threshold locks the account", func(t *testing.T) {
		svc, users, _ := newAuthFixture(t)
		users.On("FindByUsername", mock.Anything, "alice").Return(model.User{ID: 7, Username: "alice", PasswordHash: hashed(t, "right-password")}, nil)
		users.On("IncrementFailedAttempts", mock.Anything, int64(7)).Return(3, nil)
		users.On("LockAccount", mock.Anything, int64(7), mock.MatchedBy(func(until time.Time) bool {
			return until.After(time.Now().Add(9 * time.Minute))
		})).Return(nil)

		_, err := svc.Login(context.Background(), "alice", "wrong-password", "", "")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("locked account is rejected before the password check", func(t *testing.T) {
		svc, users, _ := newAuthFixture(t)
		until := time.Now().Add(5 * time.Minute)
		users.On("FindByUsername", mock.Anything, "alice").Return(model.User{ID: 7, Username: "alice", PasswordHash: hashed(t, "right-password"), LockedUntil: &until}, nil)

		_, err := svc.Login(context.Background(), "alice", "right-password", "", "")
		require.ErrorIs(t, err, model.ErrAccountLocked)
	})

	t.Run("successful login clears earlier failures", func(t *testing.T) {
		svc, users, sessions := newAuthFixture(t)
		users.On("FindByUsername", mock.Anything, "alice").Return(model.User{ID: 7, Username: "alice", PasswordHash: hashed(t, "right-password"), FailedLoginAttempts: 2}, nil)
		users.On("ResetFailedAttempts", mock.Anything, int64(7)).Return(nil)
		sessions.On("Store", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Login(context.Background(), "alice", "right-password", "", "")
		require.NoError(t, err)
	})
}

func TestAuthServiceValidateSessionRejects(t *testing.T) {
	t.Parallel()

	t.Run("revoked session", func(t *testing.T) {
		svc, _, sessions := newAuthFixture(t)
		token, err := svc.signToken(jwt.MapClaims{"sub": "7", "jti": "revoked", "exp": time.Now().Add(time.Hour).Unix()})
		require.NoError(t, err)
		sessions.On("Validate", mock.Anything, "revoked").Return(int64(0), model.ErrSessionNotFound)

		_, err = svc.ValidateSession(context.Background(), token)
		require.ErrorIs(t, err, model.ErrSessionExpired)
	})

	t.Run("foreign signature", func(t *testing.T) {
		svc, _, _ := newAuthFixture(t)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "7", "jti": "x", "exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("another-secret-entirely"))
		require.NoError(t, err)

		_, err = svc.ValidateSession(context.Background(), token)
		require.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		svc, _, _ := newAuthFixture(t)
		token, err := svc.signToken(jwt.MapClaims{"sub": "7", "jti": "old", "exp": time.Now().Add(-time.Minute).Unix()})
		require.NoError(t, err)

		_, err = svc.ValidateSession(context.Background(), token)
		require.ErrorIs(t, err, model.ErrSessionExpired)
	})

	t.Run("empty token", func(t *testing.T) {
		svc, _, _ := newAuthFixture(t)
		_, err := svc.ValidateSession(context.Background(), "")
		require.ErrorIs(t, err, model.ErrUnauthorized)
	})
}

func TestAuthServiceLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	svc, _, sessions := newAuthFixture(t)
	token, err := svc.signToken(jwt.MapClaims{"sub": "7", "jti": "abc", "exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)
	sessions.On("Revoke", mock.Anything, "abc").Return(nil)

	require.NoError(t, svc.Logout(context.Background(), token))
	require.NoError(t, svc.Logout(context.Background(), "not-a-token"))
}

func TestAuthServiceConfirmPasswordReset(t *testing.T) {
	t.Parallel()

	t.Run("rejects accounts not flagged for a change", func(t *testing.T) {
		svc, users, _ := newAuthFixture(t)
		users.On("FindByUsername", mock.Anything, "alice").Return(model.User{ID: 7, Username: "alice"}, nil)

		err := svc.ConfirmPasswordReset(context.Background(), "alice", "new-password-1")
		require.ErrorIs(t, err, model.ErrResetNotAllowed)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		svc, _, _ := newAuthFixture(t)
		err := svc.ConfirmPasswordReset(context.Background(), "alice", "short")
		require.ErrorContains(t, err, "at least 8 characters")
	})

	t.Run("updates the hash and revokes sessions", func(t *testing.T) {
		svc, users, sessions := newAuthFixture(t)
		users.On("FindByUsername", mock.Anything, "bob").Return(model.User{ID: 9, Username: "bob", ForcePasswordChange: true}, nil)
		users.On("UpdatePassword", mock.Anything, int64(9), mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password-1")) == nil
		})).Return(nil)
		sessions.On("RevokeAllForUser", mock.Anything, int64(9)).Return(nil)

		require.NoError(t, svc.ConfirmPasswordReset(context.Background(), "bob", "new-password-1"))
	})
}

func TestAuthServiceEnsureAdmin(t *testing.T) {
	t.Parallel()

	t.Run("skips when users exist", func(t *testing.T) {
		svc, users, _ := newAuthFixture(t)
		users.On("Count", mock.Anything).Return(2, nil)

		created, err := svc.EnsureAdmin(context.Background(), "admin", "admin-password")
		require.NoError(t, err)
		require.False(t, created)
	})

	t.Run("creates the first administrator", func(t *testing.T) {
		svc, users, _ := newAuthFixture(t)
		users.On("Count", mock.Anything).Return(0, nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
			return u.Username == "admin" && u.Role == model.RoleAdmin && u.PasswordHash != ""
		})).Return(model.User{ID: 1, Username: "admin", Role: model.RoleAdmin}, nil)

		created, err := svc.EnsureAdmin(context.Background(), "admin", "admin-password")
		require.NoError(t, err)
		require.True(t, created)
	})

	t.Run("requires a usable password", func(t *testing.T) {
		svc, users, _ := newAuthFixture(t)
		users.On("Count", mock.Anything).Return(0, nil)

		_, err := svc.EnsureAdmin(context.Background(), "admin", "")
		require.Error(t, err)
	})
}
