package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenUse discriminates short-lived access tokens from long-lived refresh
// tokens within the same claim shape.
type TokenUse = string

const (
	TokenUseAccess  TokenUse = "access"
	TokenUseRefresh TokenUse = "refresh"
)

// AuthClaims represents the structured JWT claims this package issues
type AuthClaims interface {
	Subject() string
	UserID() string
	UserEmail() string
	Use() TokenUse
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string   `json:"uid,omitempty"`
	Email    string   `json:"email,omitempty"`
	TokenUse TokenUse `json:"use,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// UserEmail returns the email claim
func (c *JWTClaims) UserEmail() string {
	return c.Email
}

// Use returns the token use claim
func (c *JWTClaims) Use() TokenUse {
	return c.TokenUse
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
