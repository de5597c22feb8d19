package portal

import (
	"context"

	"github.com/goliatone/go-portal/middleware/guard"
)

// GuardVerifier adapts the TokenIssuer to the guard middleware's verifier
// contract. Only access tokens pass; refresh tokens presented on API calls
// fail the kind gate.
func GuardVerifier(issuer *TokenIssuer) guard.TokenVerifier {
	return guard.TokenVerifierFunc(func(raw string) (guard.Claims, error) {
		claims, err := issuer.Verify(raw, TokenKindAccess)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}

// GuardContextEnricher stores claims and the derived viewer in the standard
// context for downstream usage.
func GuardContextEnricher(c context.Context, claims guard.Claims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	ctxWithClaims := WithClaimsContext(c, authClaims)

	return WithViewerContext(ctxWithClaims, ViewerFromClaims(authClaims))
}
