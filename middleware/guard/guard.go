// Package guard gates routes with explicit capability descriptors. Every
// route states what it needs: nothing, an optional identity, or a verified
// identity with a role. There is no implicit discovery; what a route requires
// is visible where the route is registered.
package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "header:" + router.HeaderAuthorization

	// ErrTokenMissingOrMalformed is returned when no usable token was found
	// on the request.
	ErrTokenMissingOrMalformed = errors.New("missing or malformed token")
)

// Capability describes what a route demands from the caller.
type Capability string

const (
	// Public routes never look at credentials.
	Public Capability = "public"
	// Optional routes attach a verified identity when one is presented and
	// silently ignore missing or invalid credentials.
	Optional Capability = "optional"
	// Protected routes require a verified identity, optionally with a role.
	Protected Capability = "protected"
)

// Claims is the verified identity surface the guard needs, mirrored locally
// to avoid import cycles.
type Claims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
}

// TokenVerifier validates a raw access token.
type TokenVerifier interface {
	VerifyAccess(raw string) (Claims, error)
}

// TokenVerifierFunc adapts a function to the TokenVerifier interface.
type TokenVerifierFunc func(raw string) (Claims, error)

// VerifyAccess implements TokenVerifier.
func (f TokenVerifierFunc) VerifyAccess(raw string) (Claims, error) {
	return f(raw)
}

// Config describes one guarded route (or route group).
type Config struct {
	// Capability is the route's access descriptor. Defaults to Protected.
	Capability Capability

	// RequiredRole demands an exact role on Protected routes.
	RequiredRole string

	// MinimumRole demands at least the given role level on Protected routes.
	MinimumRole string

	// Verifier validates presented tokens. Required unless Capability is Public.
	Verifier TokenVerifier

	// TokenLookup is a comma-separated list of sources, e.g.
	// "header:Authorization,cookie:jwt,query:token". Defaults to the
	// Authorization header.
	TokenLookup string

	// AuthScheme is the expected header scheme. Defaults to "Bearer".
	AuthScheme string

	// ContextKey is the locals key verified claims are stored under.
	// Defaults to "user".
	ContextKey string

	// ErrorHandler renders guard failures. Defaults to plain status responses.
	ErrorHandler router.ErrorHandler

	// ContextEnricher propagates claims into the standard context after a
	// successful verification.
	ContextEnricher func(c context.Context, claims Claims) context.Context
}

// New builds the middleware for one capability descriptor.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Capability == Public {
				return hf(ctx)
			}

			raw, err := extractRawToken(ctx, cfg.getExtractors())
			if err != nil {
				if cfg.Capability == Optional {
					return hf(ctx)
				}
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.Verifier.VerifyAccess(raw)
			if err != nil {
				if cfg.Capability == Optional {
					return hf(ctx)
				}
				return cfg.ErrorHandler(ctx, err)
			}

			if cfg.Capability == Protected {
				if err := checkRole(claims, cfg); err != nil {
					return cfg.ErrorHandler(ctx, err)
				}
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.ContextEnricher != nil {
				ctx.SetContext(cfg.ContextEnricher(ctx.Context(), claims))
			}

			return hf(ctx)
		}
	}
}

// RoleError marks an authorization (as opposed to authentication) failure.
type RoleError struct {
	Role string
}

// Error implements the error interface.
func (e *RoleError) Error() string {
	return fmt.Sprintf("access denied: role %q required", e.Role)
}

func checkRole(claims Claims, cfg Config) error {
	if cfg.RequiredRole != "" && !claims.HasRole(cfg.RequiredRole) {
		return &RoleError{Role: cfg.RequiredRole}
	}

	if cfg.MinimumRole != "" && !claims.IsAtLeast(cfg.MinimumRole) {
		return &RoleError{Role: cfg.MinimumRole}
	}

	return nil
}

// GetDefaultConfig fills in the defaults for a guard configuration.
func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Capability == "" {
		cfg.Capability = Protected
	}

	if cfg.Capability != Public && cfg.Verifier == nil {
		panic("GUARD: middleware configuration: Verifier is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			var roleErr *RoleError
			if errors.As(err, &roleErr) {
				return c.Status(router.StatusForbidden).SendString(err.Error())
			}
			if errors.Is(err, ErrTokenMissingOrMalformed) {
				return c.Status(router.StatusUnauthorized).SendString(ErrTokenMissingOrMalformed.Error())
			}
			return c.Status(router.StatusUnauthorized).SendString("invalid or expired token")
		}
	}

	return cfg
}

func (cfg *Config) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// TokenExtractor pulls a raw token out of a request.
type TokenExtractor func(c router.Context) (string, error)

func extractRawToken(ctx router.Context, extractors []TokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

// GetExtractors parses a token lookup string into extractors.
func GetExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,cookie:jwt,query:token,param:token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		if len(parts) < 2 {
			continue
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, tokenFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(parts[1]))
		}
	}

	return extractors
}

// tokenFromHeader returns an extractor that reads the request header.
func tokenFromHeader(header string, authScheme string) TokenExtractor {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		scheme := strings.TrimSpace(authScheme)
		l := len(scheme)
		if l == 0 {
			return "", ErrTokenMissingOrMalformed
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], scheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissingOrMalformed
	}
}

// tokenFromQuery returns an extractor that reads the query string.
func tokenFromQuery(param string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}

// tokenFromParam returns an extractor that reads a url parameter.
func tokenFromParam(param string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}

// tokenFromCookie returns an extractor that reads the named cookie.
func tokenFromCookie(name string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}
