package portal

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProvisionAdminMessage creates an administrative account out of band. There
// is no self-service path to the admin role.
type ProvisionAdminMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool
}

func (e ProvisionAdminMessage) Type() string { return "account.provision_admin" }

// Validate checks the message payload.
func (e ProvisionAdminMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(12, 0)),
	)
}

// ProvisionAdminHandler executes ProvisionAdminMessage.
type ProvisionAdminHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewProvisionAdminHandler creates the handler.
func NewProvisionAdminHandler(repo RepositoryManager, logger Logger) *ProvisionAdminHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &ProvisionAdminHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *ProvisionAdminHandler) Execute(ctx context.Context, event ProvisionAdminMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during admin provisioning",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ProvisionAdminHandler) execute(ctx context.Context, event ProvisionAdminMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid admin provisioning payload")
	}

	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		account.PasswordHash = hash
		account.Email = event.Email
		account.Name = event.Name
		account.Role = RoleAdmin
		account.ID = uuid.New()
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				account.ID = id
			}
		}

		if account, err = h.repo.Accounts().CreateTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create admin account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "admin provisioning transaction failed")
	}

	h.logger.Info("provisioned admin account %s", account.Email)

	return nil
}
