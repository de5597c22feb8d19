package portal_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	portal "github.com/goliatone/go-portal"
	"github.com/goliatone/go-portal/provider"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// memAccounts is an in-memory portal.AccountStore.
type memAccounts struct {
	mu          sync.Mutex
	records     map[uuid.UUID]*portal.Account
	createErr   error
	createCalls int
	attachCalls int
}

func newMemAccounts(records ...*portal.Account) *memAccounts {
	m := &memAccounts{records: map[uuid.UUID]*portal.Account{}}
	for _, record := range records {
		m.records[record.ID] = record
	}
	return m
}

func (m *memAccounts) FindByID(ctx context.Context, id uuid.UUID) (*portal.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record, ok := m.records[id]; ok {
		return record, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memAccounts) GetByEmail(ctx context.Context, email string) (*portal.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.Email == email {
			return record, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memAccounts) GetByProviderID(ctx context.Context, providerID string) (*portal.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.ProviderID == providerID {
			return record, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memAccounts) AttachProviderID(ctx context.Context, id uuid.UUID, providerID string) (*portal.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attachCalls++

	record, ok := m.records[id]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	record.ProviderID = providerID
	return record, nil
}

func (m *memAccounts) Create(ctx context.Context, account *portal.Account, criteria ...repository.InsertCriteria) (*portal.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++

	if m.createErr != nil {
		return nil, m.createErr
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	m.records[account.ID] = account

	return account, nil
}

// memInvites is an in-memory portal.InviteStore.
type memInvites struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*portal.Invite
	updateErr error
	removed   []uuid.UUID
}

func newMemInvites(records ...*portal.Invite) *memInvites {
	m := &memInvites{records: map[uuid.UUID]*portal.Invite{}}
	for _, record := range records {
		m.records[record.ID] = record
	}
	return m
}

func (m *memInvites) FindByID(ctx context.Context, id uuid.UUID) (*portal.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record, ok := m.records[id]; ok {
		return record, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memInvites) GetByToken(ctx context.Context, token string) (*portal.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.Token == token {
			return record, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memInvites) GetPendingByEmail(ctx context.Context, email string) (*portal.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.Email == email && record.Status == portal.InviteStatusPending {
			return record, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memInvites) Create(ctx context.Context, invite *portal.Invite, criteria ...repository.InsertCriteria) (*portal.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if invite.ID == uuid.Nil {
		invite.ID = uuid.New()
	}
	m.records[invite.ID] = invite

	return invite, nil
}

func (m *memInvites) Update(ctx context.Context, invite *portal.Invite, criteria ...repository.UpdateCriteria) (*portal.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return nil, m.updateErr
	}

	m.records[invite.ID] = invite
	return invite, nil
}

func (m *memInvites) Remove(ctx context.Context, invite *portal.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, invite.ID)
	m.removed = append(m.removed, invite.ID)
	return nil
}

func (m *memInvites) ListAll(ctx context.Context) ([]*portal.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*portal.Invite, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, record)
	}
	return out, nil
}

// stubProvider is a canned provider.Provider.
type stubProvider struct {
	name        string
	profile     *provider.Profile
	exchangeErr error
	userInfoErr error
}

func (p *stubProvider) Name() string {
	if p.name == "" {
		return "stub"
	}
	return p.name
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.example/authorize?state=" + state
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (*provider.Token, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &provider.Token{AccessToken: "provider-token-" + code}, nil
}

func (p *stubProvider) UserInfo(ctx context.Context, token *provider.Token) (*provider.Profile, error) {
	if p.userInfoErr != nil {
		return nil, p.userInfoErr
	}
	return p.profile, nil
}

// recordingNotifier captures invite notifications.
type recordingNotifier struct {
	invites []*portal.Invite
	err     error
}

func (n *recordingNotifier) InviteCreated(ctx context.Context, invite *portal.Invite) error {
	n.invites = append(n.invites, invite)
	return n.err
}

// capturingSink collects activity events.
type capturingSink struct {
	events []portal.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt portal.ActivityEvent) error {
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) has(eventType portal.ActivityEventType) bool {
	for _, evt := range c.events {
		if evt.EventType == eventType {
			return true
		}
	}
	return false
}

// memContents is an in-memory portal.ContentStore.
type memContents struct {
	records []*portal.Content
}

func (m *memContents) FindByID(ctx context.Context, id uuid.UUID) (*portal.Content, error) {
	for _, record := range m.records {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memContents) ListAll(ctx context.Context) ([]*portal.Content, error) {
	return m.records, nil
}

func (m *memContents) ListByKind(ctx context.Context, kind portal.ContentKind) ([]*portal.Content, error) {
	out := []*portal.Content{}
	for _, record := range m.records {
		if record.Kind == kind {
			out = append(out, record)
		}
	}
	return out, nil
}

// memEbooks is an in-memory portal.EbookStore.
type memEbooks struct {
	records []*portal.Ebook
}

func (m *memEbooks) FindByID(ctx context.Context, id uuid.UUID) (*portal.Ebook, error) {
	for _, record := range m.records {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memEbooks) ListAll(ctx context.Context) ([]*portal.Ebook, error) {
	return m.records, nil
}

// captureLogger collects formatted log lines.
type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) log(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *captureLogger) Debug(format string, args ...any) { l.log(format, args...) }
func (l *captureLogger) Info(format string, args ...any)  { l.log(format, args...) }
func (l *captureLogger) Error(format string, args ...any) { l.log(format, args...) }

func (l *captureLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// stubFileStore mints deterministic signed URLs.
type stubFileStore struct {
	err error
}

func (s *stubFileStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://files.example/" + key + "?signed=1", nil
}
