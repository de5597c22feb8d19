package portal

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ContentStore is the read surface the library needs for articles and videos.
type ContentStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Content, error)
	ListAll(ctx context.Context) ([]*Content, error)
	ListByKind(ctx context.Context, kind ContentKind) ([]*Content, error)
}

// EbookStore is the read surface the library needs for e-books.
type EbookStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Ebook, error)
	ListAll(ctx context.Context) ([]*Ebook, error)
}

// Contents exposes the full content repository.
type Contents interface {
	repository.Repository[*Content]
	ContentStore
}

// Ebooks exposes the full e-book repository.
type Ebooks interface {
	repository.Repository[*Ebook]
	EbookStore
}

type contents struct {
	repository.Repository[*Content]
	db bun.IDB
}

type ebooks struct {
	repository.Repository[*Ebook]
	db bun.IDB
}

var (
	_ Contents = (*contents)(nil)
	_ Ebooks   = (*ebooks)(nil)
)

// NewContentsRepository creates the bun-backed contents repository.
func NewContentsRepository(db *bun.DB) Contents {
	repo := repository.NewRepository[*Content](db, repository.ModelHandlers[*Content]{
		NewRecord: func() *Content { return &Content{} },
		GetID: func(c *Content) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Content, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "title"
		},
	})

	return &contents{
		Repository: repo,
		db:         db,
	}
}

// NewEbooksRepository creates the bun-backed e-books repository.
func NewEbooksRepository(db *bun.DB) Ebooks {
	repo := repository.NewRepository[*Ebook](db, repository.ModelHandlers[*Ebook]{
		NewRecord: func() *Ebook { return &Ebook{} },
		GetID: func(e *Ebook) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *Ebook, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
		GetIdentifier: func() string {
			return "title"
		},
	})

	return &ebooks{
		Repository: repo,
		db:         db,
	}
}

func (r *contents) FindByID(ctx context.Context, id uuid.UUID) (*Content, error) {
	record := &Content{}
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

func (r *contents) ListAll(ctx context.Context) ([]*Content, error) {
	records := []*Content{}
	err := r.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *contents) ListByKind(ctx context.Context, kind ContentKind) ([]*Content, error) {
	records := []*Content{}
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.kind = ?", kind).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *ebooks) FindByID(ctx context.Context, id uuid.UUID) (*Ebook, error) {
	record := &Ebook{}
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

func (r *ebooks) ListAll(ctx context.Context) ([]*Ebook, error) {
	records := []*Ebook{}
	err := r.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}
