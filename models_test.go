package portal_test

import (
	"encoding/json"
	"testing"
	"time"

	portal "github.com/goliatone/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_IsAdmin(t *testing.T) {
	assert.True(t, (&portal.Account{Role: portal.RoleAdmin}).IsAdmin())
	assert.False(t, (&portal.Account{Role: portal.RolePatient}).IsAdmin())

	var nilAccount *portal.Account
	assert.False(t, nilAccount.IsAdmin())
}

func TestAccount_SensitiveFieldsStayPrivate(t *testing.T) {
	raw, err := json.Marshal(&portal.Account{
		Email:        "pat@example.com",
		PasswordHash: "bcrypt-hash",
	})
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "bcrypt-hash")
	assert.Contains(t, string(raw), "pat@example.com")
}

func TestInvite_IsExpiredAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := &portal.Invite{ExpiresAt: now.Add(time.Hour)}
	stale := &portal.Invite{ExpiresAt: now.Add(-time.Hour)}
	zero := &portal.Invite{}

	assert.False(t, fresh.IsExpiredAt(now))
	assert.True(t, stale.IsExpiredAt(now))
	assert.False(t, zero.IsExpiredAt(now))
}

func TestEbook_FileKeysStayPrivate(t *testing.T) {
	raw, err := json.Marshal(&portal.Ebook{
		Title:    "Recovery Guide",
		FileKey:  "books/recovery.epub",
		CoverKey: "covers/recovery.png",
	})
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "books/recovery.epub")
	assert.NotContains(t, string(raw), "covers/recovery.png")
	assert.Contains(t, string(raw), "Recovery Guide")
}
