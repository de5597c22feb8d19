package portal

import "log"

// Logger is the minimal logging surface this package needs. Any structured
// logger can be adapted to it.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

type defLogger struct{}

func (l defLogger) Debug(format string, args ...any) {
	log.Printf("[DBG] PORTAL "+format, args...)
}

func (l defLogger) Info(format string, args ...any) {
	log.Printf("[INF] PORTAL "+format, args...)
}

func (l defLogger) Error(format string, args ...any) {
	log.Printf("[ERR] PORTAL "+format, args...)
}

// Identity is the subject tokens are minted for.
type Identity interface {
	ID() string
	Email() string
	Role() string
}

type identity struct {
	id    string
	email string
	role  string
}

func (i identity) ID() string    { return i.id }
func (i identity) Email() string { return i.email }
func (i identity) Role() string  { return i.role }

// NewIdentity builds an Identity from raw values.
func NewIdentity(id, email, role string) Identity {
	return identity{id: id, email: email, role: role}
}

// NewAccountIdentity adapts an Account to the Identity interface.
func NewAccountIdentity(account *Account) Identity {
	if account == nil {
		return identity{}
	}
	return identity{
		id:    account.ID.String(),
		email: account.Email,
		role:  string(account.Role),
	}
}
