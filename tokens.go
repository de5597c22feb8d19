package portal

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPair bundles the two credentials minted on a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// TokenIssuer signs and verifies portal tokens. Access and refresh tokens use
// independent secrets so one kind can never verify as the other.
type TokenIssuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

// TokenIssuerOption configures a TokenIssuer.
type TokenIssuerOption func(*TokenIssuer)

// WithIssuer sets the iss claim on minted tokens.
func WithIssuer(issuer string) TokenIssuerOption {
	return func(ts *TokenIssuer) {
		ts.issuer = issuer
	}
}

// WithAudience sets the aud claim on minted tokens.
func WithAudience(audience ...string) TokenIssuerOption {
	return func(ts *TokenIssuer) {
		ts.audience = jwt.ClaimStrings(audience)
	}
}

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenIssuerOption {
	return func(ts *TokenIssuer) {
		if ttl > 0 {
			ts.accessTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) TokenIssuerOption {
	return func(ts *TokenIssuer) {
		if ttl > 0 {
			ts.refreshTTL = ttl
		}
	}
}

// WithTokenLogger sets the issuer logger.
func WithTokenLogger(logger Logger) TokenIssuerOption {
	return func(ts *TokenIssuer) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// WithTokenClock injects the time source, mostly for tests.
func WithTokenClock(now func() time.Time) TokenIssuerOption {
	return func(ts *TokenIssuer) {
		if now != nil {
			ts.now = now
		}
	}
}

// NewTokenIssuer creates a TokenIssuer with the given signing secrets.
func NewTokenIssuer(accessSecret, refreshSecret string, opts ...TokenIssuerOption) *TokenIssuer {
	ts := &TokenIssuer{
		accessKey:  []byte(accessSecret),
		refreshKey: []byte(refreshSecret),
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// IssueAccess mints a short-lived access token for the identity.
func (ts *TokenIssuer) IssueAccess(identity Identity) (string, error) {
	return ts.issue(identity, TokenKindAccess)
}

// IssueRefresh mints a long-lived refresh token for the identity.
func (ts *TokenIssuer) IssueRefresh(identity Identity) (string, error) {
	return ts.issue(identity, TokenKindRefresh)
}

// IssuePair mints both credentials for the identity.
func (ts *TokenIssuer) IssuePair(identity Identity) (*TokenPair, error) {
	access, err := ts.IssueAccess(identity)
	if err != nil {
		return nil, err
	}

	refresh, err := ts.IssueRefresh(identity)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (ts *TokenIssuer) issue(identity Identity, kind TokenKind) (string, error) {
	if identity == nil {
		return "", errors.New("identity must not be nil", errors.CategoryInternal)
	}

	key, ttl := ts.accessKey, ts.accessTTL
	if kind == TokenKindRefresh {
		key, ttl = ts.refreshKey, ts.refreshTTL
	}

	now := ts.now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UID:       identity.ID(),
		UserEmail: identity.Email(),
		UserRole:  identity.Role(),
		TokenUse:  string(kind),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Verify parses and validates a token of the given kind, returning structured
// claims. A token signed for the other kind fails the signature check before
// the kind claim is ever compared.
func (ts *TokenIssuer) Verify(tokenString string, kind TokenKind) (*TokenClaims, error) {
	key := ts.accessKey
	if kind == TokenKindRefresh {
		key = ts.refreshKey
	}

	parserOptions := make([]jwt.ParserOption, 0, 3)
	parserOptions = append(parserOptions, jwt.WithTimeFunc(ts.now))
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenIssuer verify encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenIssuer verify could not decode claims")
		return nil, ErrTokenMalformed
	}

	if claims.Kind() != kind {
		return nil, ErrTokenKindMismatch
	}

	return claims, nil
}
