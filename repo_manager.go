package portal

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Accounts() Accounts
	Invites() Invites
	Contents() Contents
	Ebooks() Ebooks
}

type mngr struct {
	db       *bun.DB
	accounts Accounts
	invites  Invites
	contents Contents
	ebooks   Ebooks
}

// NewRepositoryManager wires every repository over one bun handle.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:       db,
		accounts: NewAccountsRepository(db),
		invites:  NewInvitesRepository(db),
		contents: NewContentsRepository(db),
		ebooks:   NewEbooksRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.invites == nil {
		return errors.New("repository invites should be initialized")
	}

	if m.contents == nil {
		return errors.New("repository contents should be initialized")
	}

	if m.ebooks == nil {
		return errors.New("repository ebooks should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) Invites() Invites {
	return m.invites
}

func (m mngr) Contents() Contents {
	return m.contents
}

func (m mngr) Ebooks() Ebooks {
	return m.ebooks
}
