package portal_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	portal "github.com/goliatone/go-portal"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatewayFixture struct {
	gateway     *portal.AuthGateway
	issuer      *portal.TokenIssuer
	accounts    *memAccounts
	invites     *memInvites
	correlation *portal.MemoryCorrelationStore
	provider    *stubProvider
	sink        *capturingSink
}

func newGatewayFixture(t *testing.T, accounts ...*portal.Account) *gatewayFixture {
	t.Helper()

	f := &gatewayFixture{
		issuer:      portal.NewTokenIssuer("access-secret", "refresh-secret"),
		accounts:    newMemAccounts(accounts...),
		invites:     newMemInvites(),
		correlation: portal.NewMemoryCorrelationStore(),
		provider:    &stubProvider{name: "google"},
		sink:        &capturingSink{},
	}

	codec := portal.NewEncryptedStateCodec(testEncryptionKey, testHMACKey)

	f.gateway = portal.NewAuthGateway(f.issuer, f.accounts,
		portal.WithLinker(portal.NewIdentityLinker(f.accounts)),
		portal.WithInvites(portal.NewInviteService(f.invites)),
		portal.WithCorrelationStore(f.correlation),
		portal.WithProvider(f.provider),
		portal.WithStateCodec(codec),
		portal.WithActivitySink(f.sink),
	)

	return f
}

func adminAccount(t *testing.T, email, password string) *portal.Account {
	t.Helper()

	hash, err := portal.HashPassword(password)
	require.NoError(t, err)

	return &portal.Account{
		ID:           uuid.New(),
		Role:         portal.RoleAdmin,
		Email:        email,
		PasswordHash: hash,
	}
}

func TestAuthGateway_LoginWithPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("admin with valid password gets a pair", func(t *testing.T) {
		admin := adminAccount(t, "admin@example.com", "correct-horse-battery")
		f := newGatewayFixture(t, admin)

		pair, err := f.gateway.LoginWithPassword(ctx, "admin@example.com", "correct-horse-battery")
		require.NoError(t, err)
		require.NotNil(t, pair)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.True(t, f.sink.has(portal.ActivityEventLoginSuccess))

		claims, err := f.issuer.Verify(pair.AccessToken, portal.TokenKindAccess)
		require.NoError(t, err)
		assert.Equal(t, admin.ID.String(), claims.UserID())
		assert.Equal(t, "admin", claims.Role())
	})

	t.Run("unknown email and bad password are indistinguishable", func(t *testing.T) {
		admin := adminAccount(t, "admin@example.com", "correct-horse-battery")
		f := newGatewayFixture(t, admin)

		_, unknownErr := f.gateway.LoginWithPassword(ctx, "nobody@example.com", "whatever")
		_, badPassErr := f.gateway.LoginWithPassword(ctx, "admin@example.com", "wrong")

		assert.ErrorIs(t, unknownErr, portal.ErrInvalidCredentials)
		assert.ErrorIs(t, badPassErr, portal.ErrInvalidCredentials)
		assert.Equal(t, unknownErr.Error(), badPassErr.Error())
		assert.True(t, f.sink.has(portal.ActivityEventLoginFailure))
	})

	t.Run("non-admin account is refused", func(t *testing.T) {
		hash, err := portal.HashPassword("patient-password")
		require.NoError(t, err)

		patient := &portal.Account{
			ID:           uuid.New(),
			Role:         portal.RolePatient,
			Email:        "patient@example.com",
			PasswordHash: hash,
		}
		f := newGatewayFixture(t, patient)

		_, err = f.gateway.LoginWithPassword(ctx, "patient@example.com", "patient-password")
		require.ErrorIs(t, err, portal.ErrAccessDenied)

		// Reads as 401, never 403: a role refusal must not confirm that the
		// credentials themselves were valid.
		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, http.StatusUnauthorized, richErr.Code)
	})
}

func TestAuthGateway_BeginProviderLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("without invite", func(t *testing.T) {
		f := newGatewayFixture(t)

		login, err := f.gateway.BeginProviderLogin(ctx, "google", "")
		require.NoError(t, err)

		assert.Empty(t, login.CorrelationKey)
		assert.NotEmpty(t, login.State)
		assert.Contains(t, login.RedirectURL, "state=")
		assert.Zero(t, f.correlation.Len())
	})

	t.Run("invite token is parked, only the key travels", func(t *testing.T) {
		f := newGatewayFixture(t)

		login, err := f.gateway.BeginProviderLogin(ctx, "google", "invite-token-1")
		require.NoError(t, err)

		require.NotEmpty(t, login.CorrelationKey)
		assert.NotContains(t, login.RedirectURL, "invite-token-1")
		assert.NotContains(t, login.State, "invite-token-1")

		value, ok, err := f.correlation.TakeOnce(ctx, login.CorrelationKey)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "invite-token-1", value)
	})

	t.Run("provider names are case insensitive", func(t *testing.T) {
		f := newGatewayFixture(t)

		_, err := f.gateway.BeginProviderLogin(ctx, "GOOGLE", "")
		assert.NoError(t, err)
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		f := newGatewayFixture(t)

		_, err := f.gateway.BeginProviderLogin(ctx, "github", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})

	t.Run("correlation store failure downgrades the login", func(t *testing.T) {
		f := newGatewayFixture(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		login, err := f.gateway.BeginProviderLogin(cancelled, "google", "invite-token-2")
		require.NoError(t, err)
		assert.Empty(t, login.CorrelationKey)
	})

	t.Run("missing correlation store drops the invite and says so", func(t *testing.T) {
		logger := &captureLogger{}
		gateway := portal.NewAuthGateway(
			portal.NewTokenIssuer("access-secret", "refresh-secret"),
			newMemAccounts(),
			portal.WithProvider(&stubProvider{name: "google"}),
			portal.WithStateCodec(portal.NewEncryptedStateCodec(testEncryptionKey, testHMACKey)),
			portal.WithGatewayLogger(logger),
		)

		login, err := gateway.BeginProviderLogin(ctx, "google", "invite-token-3")
		require.NoError(t, err)

		assert.Empty(t, login.CorrelationKey)
		assert.True(t, logger.contains("continuing without invite"))
	})
}

func TestAuthGateway_CompleteProviderLogin(t *testing.T) {
	ctx := context.Background()

	begin := func(t *testing.T, f *gatewayFixture, inviteToken string) *portal.ProviderLogin {
		t.Helper()
		login, err := f.gateway.BeginProviderLogin(ctx, "google", inviteToken)
		require.NoError(t, err)
		return login
	}

	t.Run("new profile creates an account and mints a pair", func(t *testing.T) {
		f := newGatewayFixture(t)
		f.provider.profile = googleProfile("google-sub-1", "fresh@example.com")

		login := begin(t, f, "")

		pair, account, err := f.gateway.CompleteProviderLogin(ctx, "google", "auth-code", login.State)
		require.NoError(t, err)
		require.NotNil(t, account)

		assert.Equal(t, "fresh@example.com", account.Email)
		assert.Equal(t, portal.RolePatient, account.Role)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.True(t, f.sink.has(portal.ActivityEventProviderLogin))
	})

	t.Run("parked invite is accepted", func(t *testing.T) {
		f := newGatewayFixture(t)
		f.provider.profile = googleProfile("google-sub-2", "invited@example.com")

		invite := &portal.Invite{
			ID:        uuid.New(),
			Email:     "invited@example.com",
			Token:     "invite-token",
			Status:    portal.InviteStatusPending,
			ExpiresAt: time.Now().Add(time.Hour),
		}
		_, err := f.invites.Create(ctx, invite)
		require.NoError(t, err)

		login := begin(t, f, "invite-token")

		_, _, err = f.gateway.CompleteProviderLogin(ctx, "google", "auth-code", login.State)
		require.NoError(t, err)

		stored, err := f.invites.FindByID(ctx, invite.ID)
		require.NoError(t, err)
		assert.Equal(t, portal.InviteStatusAccepted, stored.Status)
		assert.True(t, f.sink.has(portal.ActivityEventInviteAccepted))
	})

	t.Run("invite failure never blocks the login", func(t *testing.T) {
		f := newGatewayFixture(t)
		f.provider.profile = googleProfile("google-sub-3", "lost@example.com")

		// The parked token points at an invite that no longer exists.
		login := begin(t, f, "gone-invite-token")

		pair, account, err := f.gateway.CompleteProviderLogin(ctx, "google", "auth-code", login.State)
		require.NoError(t, err)
		assert.NotNil(t, account)
		assert.NotEmpty(t, pair.AccessToken)
		assert.True(t, f.sink.has(portal.ActivityEventInviteDiscarded))
	})

	t.Run("state for another provider is rejected", func(t *testing.T) {
		f := newGatewayFixture(t)
		other := &stubProvider{name: "facebook", profile: googleProfile("fb-sub", "fb@example.com")}
		fGateway := portal.NewAuthGateway(f.issuer, f.accounts,
			portal.WithLinker(portal.NewIdentityLinker(f.accounts)),
			portal.WithProvider(f.provider),
			portal.WithProvider(other),
			portal.WithStateCodec(portal.NewEncryptedStateCodec(testEncryptionKey, testHMACKey)),
		)

		login, err := fGateway.BeginProviderLogin(ctx, "google", "")
		require.NoError(t, err)

		_, _, err = fGateway.CompleteProviderLogin(ctx, "facebook", "auth-code", login.State)
		assert.ErrorIs(t, err, portal.ErrInvalidState)
	})

	t.Run("tampered state is rejected", func(t *testing.T) {
		f := newGatewayFixture(t)
		f.provider.profile = googleProfile("google-sub-4", "x@example.com")

		_, _, err := f.gateway.CompleteProviderLogin(ctx, "google", "auth-code", "bogus-state")
		assert.ErrorIs(t, err, portal.ErrInvalidState)
	})

	t.Run("exchange failure surfaces as auth error", func(t *testing.T) {
		f := newGatewayFixture(t)
		f.provider.exchangeErr = errors.New("code already redeemed")

		login := begin(t, f, "")

		_, _, err := f.gateway.CompleteProviderLogin(ctx, "google", "auth-code", login.State)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "exchange"))
	})

	t.Run("userinfo failure surfaces as auth error", func(t *testing.T) {
		f := newGatewayFixture(t)
		f.provider.userInfoErr = errors.New("profile fetch denied")

		login := begin(t, f, "")

		_, _, err := f.gateway.CompleteProviderLogin(ctx, "google", "auth-code", login.State)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "profile"))
	})
}

func TestAuthGateway_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("valid refresh mints a new access token only", func(t *testing.T) {
		admin := adminAccount(t, "admin@example.com", "correct-horse-battery")
		f := newGatewayFixture(t, admin)

		pair, err := f.gateway.LoginWithPassword(ctx, "admin@example.com", "correct-horse-battery")
		require.NoError(t, err)

		refreshed, err := f.gateway.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)

		assert.NotEmpty(t, refreshed.AccessToken)
		assert.Empty(t, refreshed.RefreshToken)
		assert.True(t, f.sink.has(portal.ActivityEventTokenRefresh))

		claims, err := f.issuer.Verify(refreshed.AccessToken, portal.TokenKindAccess)
		require.NoError(t, err)
		assert.Equal(t, admin.ID.String(), claims.UserID())
	})

	t.Run("access token is not a refresh credential", func(t *testing.T) {
		admin := adminAccount(t, "admin@example.com", "correct-horse-battery")
		f := newGatewayFixture(t, admin)

		pair, err := f.gateway.LoginWithPassword(ctx, "admin@example.com", "correct-horse-battery")
		require.NoError(t, err)

		_, err = f.gateway.Refresh(ctx, pair.AccessToken)
		assert.Error(t, err)
	})

	t.Run("refresh for a deleted account fails", func(t *testing.T) {
		admin := adminAccount(t, "admin@example.com", "correct-horse-battery")
		f := newGatewayFixture(t, admin)

		pair, err := f.gateway.LoginWithPassword(ctx, "admin@example.com", "correct-horse-battery")
		require.NoError(t, err)

		delete(f.accounts.records, admin.ID)

		_, err = f.gateway.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, portal.ErrInvalidToken)
	})

	t.Run("garbage token fails", func(t *testing.T) {
		f := newGatewayFixture(t)

		_, err := f.gateway.Refresh(ctx, "garbage")
		assert.Error(t, err)
	})
}

func TestAuthGateway_Logout(t *testing.T) {
	f := newGatewayFixture(t)

	ack := f.gateway.Logout(context.Background())
	require.NotNil(t, ack)
	assert.True(t, ack.Success)
}
