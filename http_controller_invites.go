package portal

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterInviteRoutes mounts the invite routes. The admin CRUD routes expect
// a Protected guard with the admin role in front of them; the claim route is
// public so invited users can preview their invite before signing in.
func RegisterInviteRoutes[T any](app router.Router[T], opts ...InviteControllerOption) {

	controller := NewInviteController(opts...)

	app.
		Post(controller.Routes.Invites, controller.CreatePost).
		SetName("invites.create.post")

	app.
		Get(controller.Routes.Invites, controller.ListGet).
		SetName("invites.list.get")

	app.
		Delete(controller.Routes.Invites+"/:id", controller.CancelDelete).
		SetName("invites.cancel.delete")

	app.
		Post(controller.Routes.Invites+"/:id/resend", controller.ResendPost).
		SetName("invites.resend.post")

	app.
		Get(controller.Routes.Claim+"/:token", controller.ClaimGet).
		SetName("invites.claim.get")
}

// InviteControllerRoutes holds the mount points for the invite surface.
type InviteControllerRoutes struct {
	Invites string
	Claim   string
}

// InviteController exposes the invite lifecycle over HTTP.
type InviteController struct {
	Logger       Logger
	Invites      *InviteService
	Routes       *InviteControllerRoutes
	ErrorHandler router.ErrorHandler
}

type InviteControllerOption func(*InviteController) *InviteController

func NewInviteController(opts ...InviteControllerOption) *InviteController {
	c := &InviteController{
		Logger:       defLogger{},
		ErrorHandler: JSONErrorHandler,
		Routes: &InviteControllerRoutes{
			Invites: "/invites",
			Claim:   "/invites/claim",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Invites == nil {
		panic("Missing InviteService in invite controller...")
	}

	return c
}

// WithInviteControllerService sets the invite lifecycle service.
func WithInviteControllerService(invites *InviteService) InviteControllerOption {
	return func(c *InviteController) *InviteController {
		c.Invites = invites
		return c
	}
}

// WithInviteControllerLogger sets the controller logger.
func WithInviteControllerLogger(logger Logger) InviteControllerOption {
	return func(c *InviteController) *InviteController {
		c.Logger = logger
		return c
	}
}

// WithInviteControllerRoutes overrides the default mount points.
func WithInviteControllerRoutes(routes *InviteControllerRoutes) InviteControllerOption {
	return func(c *InviteController) *InviteController {
		c.Routes = routes
		return c
	}
}

// CreateInviteRequest payload
type CreateInviteRequest struct {
	Email   string `form:"email" json:"email"`
	Name    string `form:"name" json:"name"`
	Message string `form:"message" json:"message"`
}

// Validate will run validation rules
func (r CreateInviteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Name, validation.Length(0, 250)),
		validation.Field(&r.Message, validation.Length(0, 2000)),
	)
}

func (a *InviteController) CreatePost(ctx router.Context) error {
	payload := new(CreateInviteRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid invite payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid invite payload").
			WithCode(goerrors.CodeBadRequest))
	}

	invite, err := a.Invites.Create(ctx.Context(), payload.Email, payload.Name, payload.Message)
	if err != nil {
		a.Logger.Error("invite create error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, invite)
}

func (a *InviteController) ListGet(ctx router.Context) error {
	invites, err := a.Invites.List(ctx.Context())
	if err != nil {
		a.Logger.Error("invite list error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"invites": invites,
	})
}

func (a *InviteController) CancelDelete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid invite id").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := a.Invites.Cancel(ctx.Context(), id); err != nil {
		a.Logger.Error("invite cancel error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "canceled",
	})
}

func (a *InviteController) ResendPost(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid invite id").
			WithCode(goerrors.CodeBadRequest))
	}

	invite, err := a.Invites.Resend(ctx.Context(), id)
	if err != nil {
		a.Logger.Error("invite resend error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, invite)
}

// ClaimGet previews a pending invite by token. Claiming does not consume the
// invite; acceptance happens when the invited user completes a provider login.
func (a *InviteController) ClaimGet(ctx router.Context) error {
	invite, err := a.Invites.Claim(ctx.Context(), ctx.Param("token"))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, inviteClaimPayload(invite))
}

// inviteClaimPayload is the public claim body: a validity marker plus what the
// invited user needs to see, never internal identifiers.
func inviteClaimPayload(invite *Invite) map[string]any {
	return map[string]any{
		"valid":      true,
		"email":      invite.Email,
		"name":       invite.Name,
		"message":    invite.Message,
		"expires_at": invite.ExpiresAt,
	}
}
