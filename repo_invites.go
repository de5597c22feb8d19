package portal

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Invites exposes the full invite repository. The lifecycle service consumes
// the narrow InviteStore slice of it.
type Invites interface {
	repository.Repository[*Invite]
	InviteStore
}

type invites struct {
	repository.Repository[*Invite]
	db bun.IDB
}

var (
	_ Invites     = (*invites)(nil)
	_ InviteStore = (*invites)(nil)
)

// NewInvitesRepository creates the bun-backed invites repository.
func NewInvitesRepository(db *bun.DB) Invites {
	repo := repository.NewRepository[*Invite](db, repository.ModelHandlers[*Invite]{
		NewRecord: func() *Invite { return &Invite{} },
		GetID: func(i *Invite) uuid.UUID {
			if i == nil {
				return uuid.Nil
			}
			return i.ID
		},
		SetID: func(i *Invite, id uuid.UUID) {
			if i != nil {
				i.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &invites{
		Repository: repo,
		db:         db,
	}
}

func (r *invites) FindByID(ctx context.Context, id uuid.UUID) (*Invite, error) {
	record := &Invite{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id.String()).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (r *invites) GetByToken(ctx context.Context, token string) (*Invite, error) {
	record := &Invite{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"token": token})
		}
		return nil, err
	}

	return record, nil
}

func (r *invites) GetPendingByEmail(ctx context.Context, email string) (*Invite, error) {
	record := &Invite{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Where("?TableAlias.status = ?", InviteStatusPending).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (r *invites) Create(ctx context.Context, record *Invite, criteria ...repository.InsertCriteria) (*Invite, error) {
	prepareInviteDefaults(record)
	return r.Repository.Create(ctx, record, criteria...)
}

func (r *invites) Update(ctx context.Context, record *Invite, criteria ...repository.UpdateCriteria) (*Invite, error) {
	criteria = append(criteria, repository.UpdateByID(record.ID.String()))
	return r.Repository.Update(ctx, record, criteria...)
}

func (r *invites) Remove(ctx context.Context, record *Invite) error {
	_, err := r.db.NewDelete().
		Model(record).
		WherePK().
		Exec(ctx)
	return err
}

func (r *invites) ListAll(ctx context.Context) ([]*Invite, error) {
	records := []*Invite{}
	err := r.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func prepareInviteDefaults(record *Invite) {
	if record == nil {
		return
	}

	if record.Status == "" {
		record.Status = InviteStatusPending
	}

	if record.Token == "" {
		record.Token = uuid.NewString()
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
