package model

import "time"

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

type User struct {
	ID                  int64      `json:"id"`
	Username            string     `json:"username"`
	Name                string     `json:"name"`
	Avatar              string     `json:"avatar,omitempty"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	ForcePasswordChange bool       `json:"force_password_change"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// AuthClaims is what a validated session token carries.
type AuthClaims struct {
	UserID    int64
	Username  string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

type AuthUser struct {
	ID                  int64  `json:"id"`
	Username            string `json:"username"`
	Name                string `json:"name"`
	Avatar              string `json:"avatar,omitempty"`
	Role                string `json:"role"`
	ForcePasswordChange bool   `json:"force_password_change"`
}

func (u User) Public() AuthUser {
	return AuthUser{
		ID:                  u.ID,
		Username:            u.Username,
		Name:                u.Name,
		Avatar:              u.Avatar,
		Role:                u.Role,
		ForcePasswordChange: u.ForcePasswordChange,
	}
}

// LoginResult is returned by a successful login. The token travels in the
// session cookie, never in the body.
type LoginResult struct {
	User      AuthUser  `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"-"`
}

type Session struct {
	TokenID   string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
