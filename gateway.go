package portal

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-portal/provider"
	"github.com/google/uuid"
)

// ProviderLogin describes where to send the user to start an external login.
type ProviderLogin struct {
	RedirectURL    string
	State          string
	CorrelationKey string
}

// AuthGateway orchestrates every way into the portal: password login,
// external provider login, refresh, and logout.
type AuthGateway struct {
	issuer         *TokenIssuer
	accounts       AccountStore
	linker         *IdentityLinker
	invites        *InviteService
	correlation    CorrelationStore
	providers      map[string]provider.Provider
	states         StateCodec
	sink           ActivitySink
	logger         Logger
	correlationTTL time.Duration
	now            func() time.Time
}

// AuthGatewayOption configures the gateway.
type AuthGatewayOption func(*AuthGateway)

// WithLinker sets the identity linker used by provider logins.
func WithLinker(linker *IdentityLinker) AuthGatewayOption {
	return func(g *AuthGateway) {
		g.linker = linker
	}
}

// WithInvites sets the invite lifecycle consulted after provider logins.
func WithInvites(invites *InviteService) AuthGatewayOption {
	return func(g *AuthGateway) {
		g.invites = invites
	}
}

// WithCorrelationStore sets the store that parks invite tokens across the
// provider redirect.
func WithCorrelationStore(store CorrelationStore) AuthGatewayOption {
	return func(g *AuthGateway) {
		g.correlation = store
	}
}

// WithCorrelationTTL overrides how long a parked invite token survives.
func WithCorrelationTTL(ttl time.Duration) AuthGatewayOption {
	return func(g *AuthGateway) {
		if ttl > 0 {
			g.correlationTTL = ttl
		}
	}
}

// WithProvider registers an external identity provider.
func WithProvider(p provider.Provider) AuthGatewayOption {
	return func(g *AuthGateway) {
		if p != nil {
			g.providers[strings.ToLower(p.Name())] = p
		}
	}
}

// WithStateCodec sets the codec used to seal login state blobs.
func WithStateCodec(codec StateCodec) AuthGatewayOption {
	return func(g *AuthGateway) {
		g.states = codec
	}
}

// WithActivitySink sets the audit sink.
func WithActivitySink(sink ActivitySink) AuthGatewayOption {
	return func(g *AuthGateway) {
		g.sink = normalizeActivitySink(sink)
	}
}

// WithGatewayLogger sets the gateway logger.
func WithGatewayLogger(logger Logger) AuthGatewayOption {
	return func(g *AuthGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGatewayClock injects the time source, mostly for tests.
func WithGatewayClock(now func() time.Time) AuthGatewayOption {
	return func(g *AuthGateway) {
		if now != nil {
			g.now = now
		}
	}
}

// NewAuthGateway creates an AuthGateway.
func NewAuthGateway(issuer *TokenIssuer, accounts AccountStore, opts ...AuthGatewayOption) *AuthGateway {
	g := &AuthGateway{
		issuer:         issuer,
		accounts:       accounts,
		providers:      map[string]provider.Provider{},
		sink:           noopActivitySink{},
		logger:         defLogger{},
		correlationTTL: 5 * time.Minute,
		now:            time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// LoginWithPassword authenticates the administrative surface. Unknown
// accounts and bad passwords are indistinguishable; known non-admin accounts
// are refused outright.
func (g *AuthGateway) LoginWithPassword(ctx context.Context, email, password string) (*TokenPair, error) {
	account, err := g.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errorIsNotFound(err) {
			g.recordActivity(ctx, ActivityEventLoginFailure, "", map[string]any{"email": email})
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		g.recordActivity(ctx, ActivityEventLoginFailure, account.ID.String(), nil)
		return nil, ErrInvalidCredentials
	}

	if account.Role != RoleAdmin {
		g.recordActivity(ctx, ActivityEventLoginFailure, account.ID.String(), map[string]any{"reason": "role"})
		return nil, ErrAccessDenied
	}

	pair, err := g.issuer.IssuePair(NewAccountIdentity(account))
	if err != nil {
		return nil, err
	}

	g.recordActivity(ctx, ActivityEventLoginSuccess, account.ID.String(), nil)

	return pair, nil
}

// BeginProviderLogin builds the redirect that starts an external login. When
// an invite token rides along it is parked in the correlation store and only
// the opaque key travels, sealed inside the state blob. A correlation store
// failure downgrades the login to one without an invite instead of failing it.
func (g *AuthGateway) BeginProviderLogin(ctx context.Context, providerName, inviteToken string) (*ProviderLogin, error) {
	p, err := g.resolveProvider(providerName)
	if err != nil {
		return nil, err
	}

	key := ""
	if inviteToken != "" {
		if g.correlation == nil {
			g.logger.Error("no correlation store configured, continuing without invite")
		} else {
			key = NewCorrelationKey()
			if putErr := g.correlation.Put(ctx, key, inviteToken, g.correlationTTL); putErr != nil {
				g.logger.Error("correlation store put failed, continuing without invite: %v", putErr)
				key = ""
			}
		}
	}

	state, err := g.encodeState(&LoginState{
		Provider:       p.Name(),
		CorrelationKey: key,
	})
	if err != nil {
		return nil, err
	}

	return &ProviderLogin{
		RedirectURL:    p.AuthCodeURL(state),
		State:          state,
		CorrelationKey: key,
	}, nil
}

// CompleteProviderLogin finishes the external login round trip: it verifies
// the state blob, exchanges the code, links the reported profile to an
// account, consumes any parked invite, and mints a token pair.
func (g *AuthGateway) CompleteProviderLogin(ctx context.Context, providerName, code, state string) (*TokenPair, *Account, error) {
	p, err := g.resolveProvider(providerName)
	if err != nil {
		return nil, nil, err
	}

	st, err := g.decodeState(state)
	if err != nil {
		return nil, nil, err
	}

	if st.Provider != "" && !strings.EqualFold(st.Provider, p.Name()) {
		return nil, nil, ErrInvalidState
	}

	token, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryAuth, "provider code exchange failed").
			WithCode(errors.CodeUnauthorized)
	}

	profile, err := p.UserInfo(ctx, token)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryAuth, "provider profile fetch failed").
			WithCode(errors.CodeUnauthorized)
	}

	if g.linker == nil {
		return nil, nil, errors.New("identity linker not configured", errors.CategoryInternal)
	}

	account, err := g.linker.LinkOrCreate(ctx, profile)
	if err != nil {
		return nil, nil, err
	}

	g.consumeInvite(ctx, st, account)

	pair, err := g.issuer.IssuePair(NewAccountIdentity(account))
	if err != nil {
		return nil, nil, err
	}

	g.recordActivity(ctx, ActivityEventProviderLogin, account.ID.String(), map[string]any{
		"provider": p.Name(),
	})

	return pair, account, nil
}

// consumeInvite redeems a parked invite token after a successful provider
// login. Every failure in here is logged and dropped on purpose: the invite
// is a rider on the login, never a gate. The user is already authenticated,
// and an admin can always re-issue a lost invite.
func (g *AuthGateway) consumeInvite(ctx context.Context, st *LoginState, account *Account) {
	if st == nil || st.CorrelationKey == "" || g.correlation == nil || g.invites == nil {
		return
	}

	inviteToken, ok, err := g.correlation.TakeOnce(ctx, st.CorrelationKey)
	if err != nil {
		g.logger.Error("correlation store take failed, login proceeds: %v", err)
		return
	}
	if !ok {
		g.logger.Debug("correlation key %s yielded no invite", st.CorrelationKey)
		return
	}

	if _, err := g.invites.Accept(ctx, inviteToken); err != nil {
		g.logger.Error("invite accept failed after provider login, login proceeds: %v", err)
		g.recordActivity(ctx, ActivityEventInviteDiscarded, account.ID.String(), map[string]any{
			"error": err.Error(),
		})
		return
	}

	g.recordActivity(ctx, ActivityEventInviteAccepted, account.ID.String(), nil)
}

// Refresh verifies a refresh token and mints a new access token. The account
// must still exist; the refresh credential itself is never rotated here.
func (g *AuthGateway) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := g.issuer.Verify(refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := g.accounts.FindByID(ctx, id)
	if err != nil {
		if errorIsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	access, err := g.issuer.IssueAccess(NewAccountIdentity(account))
	if err != nil {
		return nil, err
	}

	g.recordActivity(ctx, ActivityEventTokenRefresh, account.ID.String(), nil)

	return &TokenPair{AccessToken: access}, nil
}

// LogoutAck is the response body of a logout call.
type LogoutAck struct {
	Success bool `json:"success"`
}

// Logout acknowledges the client intent. Tokens are stateless and there is no
// revocation list; clients discard their credentials.
func (g *AuthGateway) Logout(ctx context.Context) *LogoutAck {
	return &LogoutAck{Success: true}
}

func (g *AuthGateway) resolveProvider(name string) (provider.Provider, error) {
	p, ok := g.providers[strings.ToLower(name)]
	if !ok {
		return nil, errors.New("identity provider not configured", ErrProviderNotConfigured.Category).
			WithTextCode(ErrProviderNotConfigured.TextCode).
			WithCode(errors.CodeInternal).
			WithMetadata(map[string]any{"provider": name})
	}
	return p, nil
}

func (g *AuthGateway) encodeState(state *LoginState) (string, error) {
	if g.states == nil {
		return "", errors.New("state codec not configured", errors.CategoryInternal)
	}
	return g.states.Encode(state)
}

func (g *AuthGateway) decodeState(raw string) (*LoginState, error) {
	if g.states == nil {
		return nil, errors.New("state codec not configured", errors.CategoryInternal)
	}
	return g.states.Decode(raw)
}

func (g *AuthGateway) recordActivity(ctx context.Context, event ActivityEventType, subjectID string, metadata map[string]any) {
	err := g.sink.Record(ctx, ActivityEvent{
		EventType:  event,
		SubjectID:  subjectID,
		Metadata:   metadata,
		OccurredAt: g.now(),
	})
	if err != nil {
		g.logger.Error("activity sink failed for %s: %v", event, err)
	}
}
