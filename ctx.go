package portal

import (
	"context"

	"github.com/goliatone/go-router"
)

var claimsCtxKey = &contextKey{"claims"}
var viewerCtxKey = &contextKey{"viewer"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// WithViewerContext sets the Viewer in the given context
func WithViewerContext(r context.Context, viewer *Viewer) context.Context {
	return context.WithValue(r, viewerCtxKey, viewer)
}

// GetViewer extracts the Viewer from the standard context
func GetViewer(ctx context.Context) (*Viewer, bool) {
	raw, ok := ctx.Value(viewerCtxKey).(*Viewer)
	return raw, ok
}

// GetRouterClaims extracts the AuthClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user" // Default key used by the guard middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// ViewerFromRouter builds a Viewer from the claims the guard middleware left
// in the router context. Requests without claims yield a nil, anonymous
// viewer.
func ViewerFromRouter(ctx router.Context, key string) *Viewer {
	claims, ok := GetRouterClaims(ctx, key)
	if !ok {
		return nil
	}
	return ViewerFromClaims(claims)
}
