package portal

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-portal/provider"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// AccountStore is the persistence surface the linker and gateway need.
type AccountStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByProviderID(ctx context.Context, providerID string) (*Account, error)
	AttachProviderID(ctx context.Context, id uuid.UUID, providerID string) (*Account, error)
	Create(ctx context.Context, account *Account, criteria ...repository.InsertCriteria) (*Account, error)
}

// IdentityLinker resolves an external provider profile to a local account.
type IdentityLinker struct {
	accounts    AccountStore
	defaultRole UserRole
	logger      Logger
}

// IdentityLinkerOption configures the linker.
type IdentityLinkerOption func(*IdentityLinker)

// WithDefaultRole sets the role assigned to accounts the linker creates.
func WithDefaultRole(role UserRole) IdentityLinkerOption {
	return func(l *IdentityLinker) {
		if role.IsValid() {
			l.defaultRole = role
		}
	}
}

// WithLinkerLogger sets the linker logger.
func WithLinkerLogger(logger Logger) IdentityLinkerOption {
	return func(l *IdentityLinker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewIdentityLinker creates an IdentityLinker over the given account store.
func NewIdentityLinker(accounts AccountStore, opts ...IdentityLinkerOption) *IdentityLinker {
	l := &IdentityLinker{
		accounts:    accounts,
		defaultRole: RolePatient,
		logger:      defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// LinkOrCreate resolves the profile to an account:
//
//  1. an account already linked to the provider subject wins;
//  2. an account with the same email gets the subject attached;
//  3. otherwise a new account is created with the default role.
//
// Two concurrent first logins for the same email race on step 3. The unique
// email constraint serializes them: the loser retries the email lookup once
// and attaches instead of creating.
func (l *IdentityLinker) LinkOrCreate(ctx context.Context, profile *provider.Profile) (*Account, error) {
	if profile == nil || profile.Subject == "" {
		return nil, errors.New("provider profile missing subject", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	account, err := l.accounts.GetByProviderID(ctx, profile.Subject)
	if err == nil {
		return account, nil
	}
	if !errorIsNotFound(err) {
		return nil, err
	}

	account, err = l.accounts.GetByEmail(ctx, profile.Email)
	if err == nil {
		return l.accounts.AttachProviderID(ctx, account.ID, profile.Subject)
	}
	if !errorIsNotFound(err) {
		return nil, err
	}

	created, err := l.accounts.Create(ctx, &Account{
		ID:         uuid.New(),
		Role:       l.defaultRole,
		Name:       profile.Name,
		Email:      profile.Email,
		ProviderID: profile.Subject,
		Picture:    profile.AvatarURL,
	})
	if err == nil {
		return created, nil
	}

	l.logger.Debug("account create for %s failed, retrying lookup: %v", profile.Email, err)

	account, lookupErr := l.accounts.GetByEmail(ctx, profile.Email)
	if lookupErr == nil {
		return l.accounts.AttachProviderID(ctx, account.ID, profile.Subject)
	}

	return nil, errors.Wrap(err, ErrAccountConflict.Category, ErrAccountConflict.Message).
		WithTextCode(ErrAccountConflict.TextCode).
		WithMetadata(map[string]any{
			"email":    profile.Email,
			"provider": profile.Provider,
		})
}
