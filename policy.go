package portal

// Viewer identifies who is looking at a resource. A nil Viewer is an
// anonymous request.
type Viewer struct {
	ID   string
	Role UserRole
}

// IsAdmin reports whether the viewer carries the admin role. Nil-safe.
func (v *Viewer) IsAdmin() bool {
	return v != nil && v.Role == RoleAdmin
}

// IsAuthenticated reports whether the viewer maps to an account. Nil-safe.
func (v *Viewer) IsAuthenticated() bool {
	return v != nil && v.ID != ""
}

// ViewerFromClaims builds a Viewer from verified token claims.
func ViewerFromClaims(claims AuthClaims) *Viewer {
	if claims == nil {
		return nil
	}
	return &Viewer{
		ID:   claims.UserID(),
		Role: UserRole(claims.Role()),
	}
}

// Restricted is the contract resources expose for visibility decisions.
type Restricted interface {
	IsPublished() bool
	SharedWithEveryone() bool
	AllowsViewer(id string) bool
}

// CanView is the single place resource visibility is decided.
//
// Admins see everything, published or not. Everyone else requires the
// resource to be published AND either shared with everyone or carrying the
// viewer on its allow list. Anonymous viewers only ever see published,
// globally shared resources.
func CanView(viewer *Viewer, res Restricted) bool {
	if res == nil {
		return false
	}

	if viewer.IsAdmin() {
		return true
	}

	if !res.IsPublished() {
		return false
	}

	if res.SharedWithEveryone() {
		return true
	}

	if !viewer.IsAuthenticated() {
		return false
	}

	return res.AllowsViewer(viewer.ID)
}

// VisibleTo filters items with the same predicate CanView applies to single
// lookups, so lists and direct reads can never disagree.
func VisibleTo[T Restricted](viewer *Viewer, items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if CanView(viewer, item) {
			out = append(out, item)
		}
	}
	return out
}
