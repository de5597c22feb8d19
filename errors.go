package portal

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const (
	TextCodeInvalidCredentials    = "auth_invalid_credentials"
	TextCodeAccessDenied          = "auth_access_denied"
	TextCodeTokenExpired          = "auth_token_expired"
	TextCodeTokenMalformed        = "auth_token_malformed"
	TextCodeTokenKindMismatch     = "auth_token_kind_mismatch"
	TextCodeInvalidToken          = "auth_invalid_token"
	TextCodeProviderNotConfigured = "auth_provider_not_configured"
	TextCodeInvalidState          = "auth_invalid_state"
	TextCodeStateExpired          = "auth_state_expired"
	TextCodeInviteNotFound        = "invite_not_found"
	TextCodeInviteExpired         = "invite_expired"
	TextCodeInviteAlreadyUsed     = "invite_already_used"
	TextCodeDuplicateInvite       = "invite_duplicate_pending"
	TextCodeInviteNotCancelable   = "invite_not_cancelable"
	TextCodeInviteNotResendable   = "invite_not_resendable"
	TextCodeAccountConflict       = "account_conflict"
	TextCodeResourceNotFound      = "resource_not_found"
)

// ErrInvalidCredentials is returned for unknown accounts and bad passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrAccessDenied is returned when a valid account lacks the required role.
// It still reads as 401 so a caller cannot tell a refused role apart from bad
// credentials.
var ErrAccessDenied = errors.New("access denied", errors.CategoryAuth).
	WithTextCode(TextCodeAccessDenied).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token is past its expiry.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token fails parsing or signature checks.
var ErrTokenMalformed = errors.New("token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenKindMismatch is returned when a token of one kind is presented where
// the other kind is required.
var ErrTokenKindMismatch = errors.New("token kind mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeTokenKindMismatch).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidToken is returned when a verified token no longer maps to a live account.
var ErrInvalidToken = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrProviderNotConfigured is returned when an external provider is requested
// but its credentials are missing.
var ErrProviderNotConfigured = errors.New("identity provider not configured", errors.CategoryInternal).
	WithTextCode(TextCodeProviderNotConfigured).
	WithCode(errors.CodeInternal)

// ErrInvalidState is returned when the login state blob is invalid or tampered.
var ErrInvalidState = errors.New("invalid login state", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(errors.CodeBadRequest)

// ErrStateExpired is returned when the login state blob has expired.
var ErrStateExpired = errors.New("login state expired", errors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(errors.CodeBadRequest)

// ErrInviteNotFound is returned when no invite matches the given token or id.
var ErrInviteNotFound = errors.New("invite not found", errors.CategoryNotFound).
	WithTextCode(TextCodeInviteNotFound).
	WithCode(errors.CodeNotFound)

// ErrInviteExpired is returned when a pending invite is past its expiry.
var ErrInviteExpired = errors.New("invite has expired", errors.CategoryBadInput).
	WithTextCode(TextCodeInviteExpired).
	WithCode(errors.CodeBadRequest)

// ErrInviteAlreadyUsed is returned when the invite already left the pending state.
var ErrInviteAlreadyUsed = errors.New("invite already used", errors.CategoryConflict).
	WithTextCode(TextCodeInviteAlreadyUsed).
	WithCode(errors.CodeConflict)

// ErrDuplicatePendingInvite is returned when a pending, unexpired invite
// already exists for the email.
var ErrDuplicatePendingInvite = errors.New("pending invite already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateInvite).
	WithCode(errors.CodeConflict)

// ErrInviteNotCancelable is returned when trying to remove an accepted invite.
var ErrInviteNotCancelable = errors.New("invite cannot be canceled", errors.CategoryValidation).
	WithTextCode(TextCodeInviteNotCancelable).
	WithCode(errors.CodeBadRequest)

// ErrInviteNotResendable is returned when trying to resend a non-pending invite.
var ErrInviteNotResendable = errors.New("invite cannot be resent", errors.CategoryValidation).
	WithTextCode(TextCodeInviteNotResendable).
	WithCode(errors.CodeBadRequest)

// ErrAccountConflict is returned when account creation fails and the
// post-conflict lookup still finds no owner for the email.
var ErrAccountConflict = errors.New("account conflict", errors.CategoryConflict).
	WithTextCode(TextCodeAccountConflict).
	WithCode(errors.CodeConflict)

// ErrResourceNotFound is returned for resources the viewer cannot see. Denied
// and missing resources are indistinguishable on purpose.
var ErrResourceNotFound = errors.New("resource not found", errors.CategoryNotFound).
	WithTextCode(TextCodeResourceNotFound).
	WithCode(errors.CodeNotFound)

func errorIsNotFound(err error) bool {
	if err == nil {
		return false
	}

	if repository.IsRecordNotFound(err) {
		return true
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Category == errors.CategoryNotFound
	}

	return false
}
