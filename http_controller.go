package portal

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// OAuthSessionCookie carries the sealed login state across the provider
// redirect so the callback can reject states minted elsewhere.
const OAuthSessionCookie = "oauth_session"

// RegisterAuthRoutes mounts the authentication routes on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login.post")

	app.
		Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh.post")

	app.
		Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("auth.logout.post")

	app.
		Get(fmt.Sprintf("%s/:provider/callback", controller.Routes.Provider), controller.ProviderCallback).
		SetName("auth.provider.callback")

	app.
		Get(fmt.Sprintf("%s/:provider", controller.Routes.Provider), controller.ProviderBegin).
		SetName("auth.provider.begin")
}

// AuthControllerRoutes holds the mount points for the auth surface.
type AuthControllerRoutes struct {
	Login    string
	Refresh  string
	Logout   string
	Provider string
}

// AuthController exposes the gateway over HTTP. Password login, refresh, and
// logout speak JSON; the provider pair speaks redirects.
type AuthController struct {
	Debug        bool
	Logger       Logger
	Gateway      *AuthGateway
	Routes       *AuthControllerRoutes
	FrontendURL  string
	CookieSecure bool
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: JSONErrorHandler,
		FrontendURL:  "http://localhost:3000",
		Routes: &AuthControllerRoutes{
			Login:    "/auth/login",
			Refresh:  "/auth/refresh",
			Logout:   "/auth/logout",
			Provider: "/auth",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Gateway == nil {
		panic("Missing AuthGateway in auth controller...")
	}

	return c
}

// WithControllerGateway sets the gateway the controller drives.
func WithControllerGateway(gateway *AuthGateway) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Gateway = gateway
		return c
	}
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

// WithControllerFrontendURL sets the SPA base the provider callback redirects to.
func WithControllerFrontendURL(frontendURL string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.FrontendURL = frontendURL
		return c
	}
}

// WithControllerRoutes overrides the default mount points.
func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Routes = routes
		return c
	}
}

// WithControllerErrorHandler overrides the default JSON error handler.
func WithControllerErrorHandler(handler router.ErrorHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ErrorHandler = handler
		return c
	}
}

// WithControllerSecureCookies marks the oauth session cookie Secure.
func WithControllerSecureCookies(secure bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.CookieSecure = secure
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RefreshRequest payload
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid login payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload").
			WithCode(goerrors.CodeBadRequest))
	}

	pair, err := a.Gateway.LoginWithPassword(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid refresh payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid refresh payload").
			WithCode(goerrors.CodeBadRequest))
	}

	pair, err := a.Gateway.Refresh(ctx.Context(), payload.RefreshToken)
	if err != nil {
		a.Logger.Error("refresh error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	ack := a.Gateway.Logout(ctx.Context())
	return ctx.JSON(router.StatusOK, ack)
}

// ProviderBegin starts an external login. An optional invite token rides the
// query string and is parked server side until the callback comes home.
func (a *AuthController) ProviderBegin(ctx router.Context) error {
	providerName := ctx.Param("provider")
	inviteToken := ctx.Query("invite", "")

	login, err := a.Gateway.BeginProviderLogin(ctx.Context(), providerName, inviteToken)
	if err != nil {
		a.Logger.Error("provider begin error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	ctx.Cookie(&router.Cookie{
		Name:     OAuthSessionCookie,
		Value:    login.State,
		Path:     "/",
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   a.CookieSecure,
		SameSite: "Lax",
	})

	return ctx.Redirect(login.RedirectURL, http.StatusTemporaryRedirect)
}

// ProviderCallback finishes an external login and hands the browser back to
// the frontend with a fresh access token.
func (a *AuthController) ProviderCallback(ctx router.Context) error {
	providerName := ctx.Param("provider")
	code := ctx.Query("code", "")
	state := ctx.Query("state", "")

	defer a.clearOAuthCookie(ctx)

	if errCode := ctx.Query("error", ""); errCode != "" {
		a.Logger.Error("provider callback rejected: %s", errCode)
		return ctx.Redirect(a.frontendErrorURL(errCode), http.StatusTemporaryRedirect)
	}

	if code == "" || state == "" {
		return ctx.Redirect(a.frontendErrorURL("missing_params"), http.StatusTemporaryRedirect)
	}

	if cookie := ctx.Cookies(OAuthSessionCookie); cookie != "" && cookie != state {
		return ctx.Redirect(a.frontendErrorURL(TextCodeInvalidState), http.StatusTemporaryRedirect)
	}

	pair, _, err := a.Gateway.CompleteProviderLogin(ctx.Context(), providerName, code, state)
	if err != nil {
		a.Logger.Error("provider callback error: %s", err)
		return ctx.Redirect(a.frontendErrorURL(errorTextCode(err)), http.StatusTemporaryRedirect)
	}

	redirectURL := appendQueryParam(a.FrontendURL+"/auth/callback", "token", pair.AccessToken)

	return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
}

func (a *AuthController) clearOAuthCookie(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     OAuthSessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * 24),
		HTTPOnly: true,
		Secure:   a.CookieSecure,
		SameSite: "Lax",
	})
}

func (a *AuthController) frontendErrorURL(code string) string {
	return appendQueryParam(a.FrontendURL+"/auth/callback", "error", code)
}

// JSONErrorHandler renders rich errors as JSON, using the error's own HTTP
// code when it carries one.
func JSONErrorHandler(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "unexpected error").
			WithCode(fiber.StatusInternalServerError)
	}

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	body := map[string]any{
		"error": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}

	return ctx.JSON(status, body)
}

func errorTextCode(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode != "" {
		return richErr.TextCode
	}
	return "auth_failed"
}

func appendQueryParam(rawURL, key, value string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	query.Set(key, value)
	parsed.RawQuery = query.Encode()

	return parsed.String()
}
