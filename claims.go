package portal

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates access tokens from refresh tokens.
type TokenKind string

const (
	// TokenKindAccess is the short-lived credential presented on API calls.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the long-lived credential used to mint new access tokens.
	TokenKindRefresh TokenKind = "refresh"
)

// AuthClaims is the read surface middleware and handlers use.
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	Kind() TokenKind
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenClaims is the concrete claims payload carried by portal tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"uid,omitempty"`
	UserEmail string `json:"email,omitempty"`
	UserRole  string `json:"role,omitempty"`
	TokenUse  string `json:"knd,omitempty"`
}

var _ AuthClaims = (*TokenClaims)(nil)

// Subject returns the subject claim
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the account id the token was minted for
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email claim
func (c *TokenClaims) Email() string {
	return c.UserEmail
}

// Role returns the global role
func (c *TokenClaims) Role() string {
	return c.UserRole
}

// HasRole checks if the claims carry the given role
func (c *TokenClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks if the role meets the minimum required level
func (c *TokenClaims) IsAtLeast(minRole string) bool {
	return UserRole(c.UserRole).IsAtLeast(UserRole(minRole))
}

// Kind returns the token kind discriminator
func (c *TokenClaims) Kind() TokenKind {
	return TokenKind(c.TokenUse)
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
