package portal

import "context"

// InviteNotifier delivers invitation messages. Delivery is an external
// concern; the portal only guarantees best-effort dispatch.
type InviteNotifier interface {
	InviteCreated(ctx context.Context, invite *Invite) error
}

// InviteNotifierFunc adapts a function to the InviteNotifier interface.
type InviteNotifierFunc func(ctx context.Context, invite *Invite) error

// InviteCreated implements InviteNotifier.
func (f InviteNotifierFunc) InviteCreated(ctx context.Context, invite *Invite) error {
	if f == nil {
		return nil
	}
	return f(ctx, invite)
}

type logInviteNotifier struct {
	logger Logger
}

func (n logInviteNotifier) InviteCreated(ctx context.Context, invite *Invite) error {
	n.logger.Info("invite notification for %s token=%s expires=%s", invite.Email, invite.Token, invite.ExpiresAt)
	return nil
}
