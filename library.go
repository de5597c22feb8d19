package portal

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// FileStore mints signed URLs for stored binaries. The implementation lives
// outside this package.
type FileStore interface {
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Library serves the gated read paths over contents and e-books. Every
// lookup funnels through CanView; a denied resource is reported exactly like
// a missing one.
type Library struct {
	contents ContentStore
	ebooks   EbookStore
	files    FileStore
	urlTTL   time.Duration
	logger   Logger
}

// LibraryOption configures the library.
type LibraryOption func(*Library)

// WithFileStore sets the signed-URL backend for e-book downloads.
func WithFileStore(files FileStore) LibraryOption {
	return func(l *Library) {
		l.files = files
	}
}

// WithDownloadURLTTL overrides how long minted download URLs stay valid.
func WithDownloadURLTTL(ttl time.Duration) LibraryOption {
	return func(l *Library) {
		if ttl > 0 {
			l.urlTTL = ttl
		}
	}
}

// WithLibraryLogger sets the library logger.
func WithLibraryLogger(logger Logger) LibraryOption {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLibrary creates a Library over the given stores.
func NewLibrary(contents ContentStore, ebooks EbookStore, opts ...LibraryOption) *Library {
	l := &Library{
		contents: contents,
		ebooks:   ebooks,
		urlTTL:   15 * time.Minute,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// FindContent returns one content entry the viewer may see.
func (l *Library) FindContent(ctx context.Context, viewer *Viewer, id uuid.UUID) (*Content, error) {
	record, err := l.contents.FindByID(ctx, id)
	if err != nil {
		if errorIsNotFound(err) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	if !CanView(viewer, record) {
		return nil, ErrResourceNotFound
	}

	return record, nil
}

// ListContents returns the content entries the viewer may see, optionally
// narrowed to one kind.
func (l *Library) ListContents(ctx context.Context, viewer *Viewer, kind ContentKind) ([]*Content, error) {
	var records []*Content
	var err error

	if kind != "" {
		records, err = l.contents.ListByKind(ctx, kind)
	} else {
		records, err = l.contents.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	return VisibleTo(viewer, records), nil
}

// FindEbook returns one e-book the viewer may see.
func (l *Library) FindEbook(ctx context.Context, viewer *Viewer, id uuid.UUID) (*Ebook, error) {
	record, err := l.ebooks.FindByID(ctx, id)
	if err != nil {
		if errorIsNotFound(err) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	if !CanView(viewer, record) {
		return nil, ErrResourceNotFound
	}

	return record, nil
}

// ListEbooks returns the e-books the viewer may see.
func (l *Library) ListEbooks(ctx context.Context, viewer *Viewer) ([]*Ebook, error) {
	records, err := l.ebooks.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return VisibleTo(viewer, records), nil
}

// EbookDownloadURL mints a signed URL for an e-book the viewer may see.
func (l *Library) EbookDownloadURL(ctx context.Context, viewer *Viewer, id uuid.UUID) (string, error) {
	record, err := l.FindEbook(ctx, viewer, id)
	if err != nil {
		return "", err
	}

	if l.files == nil {
		return "", errors.New("file store not configured", errors.CategoryInternal)
	}

	if record.FileKey == "" {
		return "", ErrResourceNotFound
	}

	return l.files.SignedURL(ctx, record.FileKey, l.urlTTL)
}
