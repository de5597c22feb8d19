package portal

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// inviteTransitions is the single source of truth for lifecycle legality.
// Removal is not a state: it is a soft delete, allowed for any non-accepted
// invite.
var inviteTransitions = map[InviteStatus]map[InviteStatus]struct{}{
	InviteStatusPending: {
		InviteStatusAccepted: {},
		InviteStatusExpired:  {},
	},
	InviteStatusAccepted: {},
	InviteStatusExpired:  {},
}

func canTransitionInvite(from, to InviteStatus) bool {
	targets, ok := inviteTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// InviteStore is the persistence surface the lifecycle needs.
type InviteStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invite, error)
	GetByToken(ctx context.Context, token string) (*Invite, error)
	GetPendingByEmail(ctx context.Context, email string) (*Invite, error)
	Create(ctx context.Context, invite *Invite, criteria ...repository.InsertCriteria) (*Invite, error)
	Update(ctx context.Context, invite *Invite, criteria ...repository.UpdateCriteria) (*Invite, error)
	Remove(ctx context.Context, invite *Invite) error
	ListAll(ctx context.Context) ([]*Invite, error)
}

// InviteService owns the invitation lifecycle.
type InviteService struct {
	store    InviteStore
	notifier InviteNotifier
	ttl      time.Duration
	now      func() time.Time
	logger   Logger
}

// InviteServiceOption configures the service.
type InviteServiceOption func(*InviteService)

// WithInviteTTL overrides the default invite lifetime.
func WithInviteTTL(ttl time.Duration) InviteServiceOption {
	return func(s *InviteService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithInviteNotifier sets the outbound notifier.
func WithInviteNotifier(notifier InviteNotifier) InviteServiceOption {
	return func(s *InviteService) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithInviteClock injects the time source, mostly for tests.
func WithInviteClock(now func() time.Time) InviteServiceOption {
	return func(s *InviteService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithInviteLogger sets the service logger.
func WithInviteLogger(logger Logger) InviteServiceOption {
	return func(s *InviteService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewInviteService creates an InviteService over the given store.
func NewInviteService(store InviteStore, opts ...InviteServiceOption) *InviteService {
	s := &InviteService{
		store:  store,
		ttl:    7 * 24 * time.Hour,
		now:    time.Now,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.notifier == nil {
		s.notifier = logInviteNotifier{logger: s.logger}
	}

	return s
}

// Create issues a new invite. A pending, unexpired invite for the same email
// is a conflict. Notification delivery is best-effort: a failed send is
// logged and dropped, the invite stands.
func (s *InviteService) Create(ctx context.Context, email, name, message string) (*Invite, error) {
	existing, err := s.store.GetPendingByEmail(ctx, email)
	if err != nil && !errorIsNotFound(err) {
		return nil, err
	}

	if existing != nil && !existing.IsExpiredAt(s.now()) {
		return nil, ErrDuplicatePendingInvite
	}

	invite := &Invite{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		Message:   message,
		Token:     uuid.NewString(),
		Status:    InviteStatusPending,
		ExpiresAt: s.now().Add(s.ttl),
	}

	created, err := s.store.Create(ctx, invite)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.InviteCreated(ctx, created); err != nil {
		s.logger.Error("invite notification failed for %s: %v", created.Email, err)
	}

	return created, nil
}

// Claim resolves an invite token without consuming it. A pending invite past
// its expiry is moved to expired here, so expiry observed once is expiry
// persisted.
func (s *InviteService) Claim(ctx context.Context, token string) (*Invite, error) {
	invite, err := s.store.GetByToken(ctx, token)
	if err != nil {
		if errorIsNotFound(err) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	if invite.Status != InviteStatusPending {
		return nil, ErrInviteAlreadyUsed
	}

	if invite.IsExpiredAt(s.now()) {
		if _, err := s.transition(ctx, invite, InviteStatusExpired); err != nil {
			s.logger.Error("failed to persist invite expiry for %s: %v", invite.ID, err)
		}
		return nil, ErrInviteExpired
	}

	return invite, nil
}

// Accept consumes a claimable invite.
func (s *InviteService) Accept(ctx context.Context, token string) (*Invite, error) {
	invite, err := s.Claim(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, invite, InviteStatusAccepted)
}

// Cancel soft deletes an invite. Accepted invites already admitted an account
// and cannot be canceled.
func (s *InviteService) Cancel(ctx context.Context, id uuid.UUID) error {
	invite, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errorIsNotFound(err) {
			return ErrInviteNotFound
		}
		return err
	}

	if invite.Status == InviteStatusAccepted {
		return ErrInviteNotCancelable
	}

	return s.store.Remove(ctx, invite)
}

// Resend refreshes a pending invite's expiry and re-notifies.
func (s *InviteService) Resend(ctx context.Context, id uuid.UUID) (*Invite, error) {
	invite, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errorIsNotFound(err) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	if invite.Status != InviteStatusPending {
		return nil, ErrInviteNotResendable
	}

	invite.ExpiresAt = s.now().Add(s.ttl)

	updated, err := s.store.Update(ctx, invite)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.InviteCreated(ctx, updated); err != nil {
		s.logger.Error("invite notification failed for %s: %v", updated.Email, err)
	}

	return updated, nil
}

// List returns all invites.
func (s *InviteService) List(ctx context.Context) ([]*Invite, error) {
	return s.store.ListAll(ctx)
}

func (s *InviteService) transition(ctx context.Context, invite *Invite, to InviteStatus) (*Invite, error) {
	if !canTransitionInvite(invite.Status, to) {
		return nil, ErrInviteAlreadyUsed
	}

	invite.Status = to

	return s.store.Update(ctx, invite)
}
