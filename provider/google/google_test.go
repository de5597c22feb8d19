package google_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-portal/provider"
	"github.com/goliatone/go-portal/provider/google"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Name(t *testing.T) {
	p := google.New(google.Config{ClientID: "id", ClientSecret: "secret"})
	assert.Equal(t, "google", p.Name())
}

func TestProvider_AuthCodeURL(t *testing.T) {
	p := google.New(google.Config{
		ClientID:    "client-id",
		CallbackURL: "http://localhost:8080/auth/google/callback",
	})

	u := p.AuthCodeURL("sealed-state")

	assert.Contains(t, u, "accounts.google.com")
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "state=sealed-state")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "response_type=code")
}

func TestProvider_Exchange(t *testing.T) {
	ctx := context.Background()

	t.Run("successful exchange", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "the-code", r.Form.Get("code"))
			assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))

			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "provider-access",
				"token_type":    "Bearer",
				"refresh_token": "provider-refresh",
				"expires_in":    3600,
			})
		}))
		defer server.Close()

		p := google.New(google.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			TokenURL:     server.URL,
		})

		token, err := p.Exchange(ctx, "the-code")
		require.NoError(t, err)

		assert.Equal(t, "provider-access", token.AccessToken)
		assert.Equal(t, "provider-refresh", token.RefreshToken)
		assert.False(t, token.ExpiresAt.IsZero())
	})

	t.Run("error response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error":             "invalid_grant",
				"error_description": "code expired",
			})
		}))
		defer server.Close()

		p := google.New(google.Config{TokenURL: server.URL})

		_, err := p.Exchange(ctx, "stale-code")
		require.Error(t, err)

		var provErr *provider.Error
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, "invalid_grant", provErr.Code)
		assert.Equal(t, "exchange", provErr.Operation)
	})

	t.Run("missing access token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"token_type": "Bearer"})
		}))
		defer server.Close()

		p := google.New(google.Config{TokenURL: server.URL})

		_, err := p.Exchange(ctx, "the-code")
		var provErr *provider.Error
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, "missing_access_token", provErr.Code)
	})
}

func TestProvider_UserInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("successful fetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer provider-access", r.Header.Get("Authorization"))

			json.NewEncoder(w).Encode(map[string]any{
				"sub":            "google-sub-1",
				"email":          "pat@example.com",
				"email_verified": true,
				"name":           "Pat Example",
				"picture":        "https://avatars.example/pat.png",
			})
		}))
		defer server.Close()

		p := google.New(google.Config{UserInfoURL: server.URL})

		profile, err := p.UserInfo(ctx, &provider.Token{AccessToken: "provider-access"})
		require.NoError(t, err)

		assert.Equal(t, "google-sub-1", profile.Subject)
		assert.Equal(t, "google", profile.Provider)
		assert.Equal(t, "pat@example.com", profile.Email)
		assert.True(t, profile.EmailVerified)
		assert.Equal(t, "Pat Example", profile.Name)
	})

	t.Run("missing subject", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"email": "pat@example.com"})
		}))
		defer server.Close()

		p := google.New(google.Config{UserInfoURL: server.URL})

		_, err := p.UserInfo(ctx, &provider.Token{AccessToken: "x"})
		var provErr *provider.Error
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, "missing_subject", provErr.Code)
	})

	t.Run("unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"code":    401,
					"message": "Request had invalid authentication credentials.",
					"status":  "UNAUTHENTICATED",
				},
			})
		}))
		defer server.Close()

		p := google.New(google.Config{UserInfoURL: server.URL})

		_, err := p.UserInfo(ctx, &provider.Token{AccessToken: "expired"})
		var provErr *provider.Error
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, http.StatusUnauthorized, provErr.Status)
		assert.Equal(t, "UNAUTHENTICATED", provErr.Code)
	})
}
