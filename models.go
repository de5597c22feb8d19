package portal

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the portal account model
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"role,notnull" json:"role,omitempty"`
	Name          string     `bun:"name" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	ProviderID    string     `bun:"provider_id,nullzero,unique" json:"provider_id,omitempty"`
	Picture       string     `bun:"picture" json:"picture,omitempty"`
	LoggedInAt    *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsAdmin reports whether the account carries the admin role.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// InviteStatus is the invite lifecycle state
type InviteStatus string

const (
	// InviteStatusPending is the initial state
	InviteStatusPending InviteStatus = "pending"
	// InviteStatusAccepted marks a consumed invite
	InviteStatusAccepted InviteStatus = "accepted"
	// InviteStatusExpired marks an invite past its expiry
	InviteStatusExpired InviteStatus = "expired"
)

// Invite is the invitation model. Removal is a soft delete.
type Invite struct {
	bun.BaseModel `bun:"table:invites,alias:inv"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string       `bun:"email,notnull" json:"email,omitempty"`
	Name          string       `bun:"name" json:"name,omitempty"`
	Message       string       `bun:"message" json:"message,omitempty"`
	Token         string       `bun:"token,notnull,unique" json:"token,omitempty"`
	Status        InviteStatus `bun:"status,notnull" json:"status,omitempty"`
	ExpiresAt     time.Time    `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time   `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsExpiredAt reports whether the invite is past its expiry at the given time.
func (i *Invite) IsExpiredAt(now time.Time) bool {
	return i != nil && !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// ContentKind discriminates portal content entries
type ContentKind string

const (
	// ContentKindArticle is written content
	ContentKindArticle ContentKind = "article"
	// ContentKindVideo is embedded video content
	ContentKindVideo ContentKind = "video"
)

// Content is the article/video model. Contents have no per-viewer allow list;
// published entries are visible to everyone.
type Content struct {
	bun.BaseModel `bun:"table:contents,alias:cnt"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Kind          ContentKind `bun:"kind,notnull" json:"kind,omitempty"`
	Title         string      `bun:"title,notnull" json:"title,omitempty"`
	Description   string      `bun:"description" json:"description,omitempty"`
	URL           string      `bun:"url" json:"url,omitempty"`
	Published     bool        `bun:"published" json:"published"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsPublished implements Restricted.
func (c *Content) IsPublished() bool { return c != nil && c.Published }

// SharedWithEveryone implements Restricted.
func (c *Content) SharedWithEveryone() bool { return true }

// AllowsViewer implements Restricted.
func (c *Content) AllowsViewer(id string) bool { return false }

// Ebook is the e-book model. Visibility is either global or limited to the
// accounts on the allow list.
type Ebook struct {
	bun.BaseModel `bun:"table:ebooks,alias:ebk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	FileKey       string     `bun:"file_key" json:"-"`
	CoverKey      string     `bun:"cover_key" json:"-"`
	Published     bool       `bun:"published" json:"published"`
	VisibleToAll  bool       `bun:"visible_to_all" json:"visible_to_all"`
	VisibleTo     []string   `bun:"visible_to,type:json" json:"visible_to,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsPublished implements Restricted.
func (e *Ebook) IsPublished() bool { return e != nil && e.Published }

// SharedWithEveryone implements Restricted.
func (e *Ebook) SharedWithEveryone() bool { return e != nil && e.VisibleToAll }

// AllowsViewer implements Restricted.
func (e *Ebook) AllowsViewer(id string) bool {
	if e == nil || id == "" {
		return false
	}
	for _, allowed := range e.VisibleTo {
		if allowed == id {
			return true
		}
	}
	return false
}
