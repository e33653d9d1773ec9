package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-admin-console/internal/model"
	"go-admin-console/internal/util"
	"go-admin-console/pkg/apierror"
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

type UserStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	IncrementFailedAttempts(ctx context.Context, userID int64) (int, error)
	LockAccount(ctx context.Context, userID int64, until time.Time) error
	ResetFailedAttempts(ctx context.Context, userID int64) error
	Count(ctx context.Context) (int, error)
}

type SessionStore interface {
	Store(ctx context.Context, s model.Session) error
	Validate(ctx context.Context, tokenID string) (int64, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	CleanExpired(ctx context.Context) (int64, error)
}

type AuthOptions struct {
	JWTSecret        string
	SessionTTL       time.Duration
	LockoutThreshold int
	LockoutDuration  time.Duration
}

type AuthService struct {
	users     UserStore
	sessions  SessionStore
	jwtSecret []byte
	ttl       time.Duration
	threshold int
	lockout   time.Duration
	now       func() time.Time
}

func NewAuthService(users UserStore, sessions SessionStore, opts AuthOptions) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 8 * time.Hour
	}
	if opts.LockoutThreshold <= 0 {
		opts.LockoutThreshold = 5
	}
	if opts.LockoutDuration <= 0 {
		opts.LockoutDuration = 15 * time.Minute
	}

	return &AuthService{
		users:     users,
		sessions:  sessions,
		jwtSecret: []byte(opts.JWTSecret),
		ttl:       opts.SessionTTL,
		threshold: opts.LockoutThreshold,
		lockout:   opts.LockoutDuration,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the credentials and opens a server-side session. Repeated
// failures lock the account for the configured duration.
func (s *AuthService) Login(ctx context.Context, username string, password string, ip string, userAgent string) (model.LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.LoginResult{}, apierror.BadRequest("username and password are required", "")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.LoginResult{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.LoginResult{}, err
	}

	now := s.now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return model.LoginResult{}, model.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		attempts, incErr := s.users.IncrementFailedAttempts(ctx, user.ID)
		if incErr != nil {
			return model.LoginResult{}, incErr
		}
		if attempts >= s.threshold {
			if lockErr := s.users.LockAccount(ctx, user.ID, now.Add(s.lockout)); lockErr != nil {
				return model.LoginResult{}, lockErr
			}
			slog.Warn("account locked after failed logins", "user_id", user.ID, "attempts", attempts)
		}
		return model.LoginResult{}, model.ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		if err := s.users.ResetFailedAttempts(ctx, user.ID); err != nil {
			return model.LoginResult{}, err
		}
	}

	tokenID := uuid.NewString()
	expiresAt := now.Add(s.ttl)

	token, err := s.signToken(jwt.MapClaims{
		"sub":      strconv.FormatInt(user.ID, 10),
		"username": user.Username,
		"role":     user.Role,
		"jti":      tokenID,
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
	})
	if err != nil {
		return model.LoginResult{}, err
	}

	if err := s.sessions.Store(ctx, model.Session{
		TokenID:   tokenID,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		IP:        ip,
		UserAgent: userAgent,
	}); err != nil {
		return model.LoginResult{}, err
	}

	return model.LoginResult{User: user.Public(), ExpiresAt: expiresAt, Token: token}, nil
}

// ValidateSession verifies the token signature and that its session has not
// been revoked.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*model.AuthClaims, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := s.sessions.Validate(ctx, claims.TokenID)
	if errors.Is(err, model.ErrSessionNotFound) {
		return nil, model.ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if userID != claims.UserID {
		return nil, model.ErrUnauthorized
	}

	return claims, nil
}

// Logout revokes the session behind token. Invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	return s.sessions.Revoke(ctx, claims.TokenID)
}

func (s *AuthService) Me(ctx context.Context, userID int64) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.AuthUser{}, err
	}
	return user.Public(), nil
}

// ConfirmPasswordReset sets a new password for an account that has been
// flagged for a forced change. Every open session of the account is revoked.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, username string, newPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" || newPassword == "" {
		return apierror.BadRequest("username and newPassword are required", "")
	}
	if len([]rune(newPassword)) < minPasswordLength {
		return apierror.BadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength), "newPassword")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.ErrResetNotAllowed
	}
	if err != nil {
		return err
	}
	if !user.ForcePasswordChange {
		return model.ErrResetNotAllowed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	if err := s.sessions.RevokeAllForUser(ctx, user.ID); err != nil {
		return err
	}

	slog.Info("password reset confirmed", "user_id", user.ID)
	return nil
}

// EnsureAdmin creates the first administrator when the users table is empty.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username string, password string) (bool, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if len([]rune(password)) < minPasswordLength {
		return false, fmt.Errorf("seed admin password must be at least %d characters", minPasswordLength)
	}
	if !util.ValidUsername(username) {
		return false, fmt.Errorf("invalid seed admin username %q", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	if _, err := s.users.Create(ctx, model.User{
		Username:     username,
		Name:         "Administrator",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return false, err
	}

	return true, nil
}

func (s *AuthService) CleanExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.CleanExpired(ctx)
}

func (s *AuthService) parseToken(tokenString string) (*model.AuthClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, model.ErrUnauthorized
	}

	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrSessionExpired
		}
		return nil, model.ErrUnauthorized
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrUnauthorized
	}

	claims := &model.AuthClaims{}
	subject, _ := claimsMap["sub"].(string)
	claims.UserID, err = strconv.ParseInt(subject, 10, 64)
	if err != nil || claims.UserID <= 0 {
		return nil, apierror.New("UNAUTHORIZED", "invalid token subject", "", http.StatusUnauthorized)
	}
	claims.Username, _ = claimsMap["username"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)
	if exp, err := claimsMap.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	if claims.TokenID == "" {
		return nil, model.ErrUnauthorized
	}

	return claims, nil
}

func (s *AuthService) signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
