package portal

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterLibraryRoutes mounts the content and ebook read routes. Every route
// works for anonymous callers; an Optional guard in front of them widens what
// authenticated viewers can see.
func RegisterLibraryRoutes[T any](app router.Router[T], opts ...LibraryControllerOption) {

	controller := NewLibraryController(opts...)

	app.
		Get(controller.Routes.Contents, controller.ContentsGet).
		SetName("library.contents.get")

	app.
		Get(controller.Routes.Contents+"/:id", controller.ContentGet).
		SetName("library.content.get")

	app.
		Get(controller.Routes.Ebooks, controller.EbooksGet).
		SetName("library.ebooks.get")

	app.
		Get(controller.Routes.Ebooks+"/:id", controller.EbookGet).
		SetName("library.ebook.get")

	app.
		Get(controller.Routes.Ebooks+"/:id/download", controller.EbookDownloadGet).
		SetName("library.ebook.download.get")
}

// LibraryControllerRoutes holds the mount points for the library surface.
type LibraryControllerRoutes struct {
	Contents string
	Ebooks   string
}

// LibraryController exposes gated library reads over HTTP.
type LibraryController struct {
	Logger       Logger
	Library      *Library
	Routes       *LibraryControllerRoutes
	ContextKey   string
	ErrorHandler router.ErrorHandler
}

type LibraryControllerOption func(*LibraryController) *LibraryController

func NewLibraryController(opts ...LibraryControllerOption) *LibraryController {
	c := &LibraryController{
		Logger:       defLogger{},
		ErrorHandler: JSONErrorHandler,
		ContextKey:   "user",
		Routes: &LibraryControllerRoutes{
			Contents: "/contents",
			Ebooks:   "/ebooks",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Library == nil {
		panic("Missing Library in library controller...")
	}

	return c
}

// WithLibraryControllerLibrary sets the library service.
func WithLibraryControllerLibrary(library *Library) LibraryControllerOption {
	return func(c *LibraryController) *LibraryController {
		c.Library = library
		return c
	}
}

// WithLibraryControllerLogger sets the controller logger.
func WithLibraryControllerLogger(logger Logger) LibraryControllerOption {
	return func(c *LibraryController) *LibraryController {
		c.Logger = logger
		return c
	}
}

// WithLibraryControllerRoutes overrides the default mount points.
func WithLibraryControllerRoutes(routes *LibraryControllerRoutes) LibraryControllerOption {
	return func(c *LibraryController) *LibraryController {
		c.Routes = routes
		return c
	}
}

// WithLibraryControllerContextKey sets the locals key the guard stores claims
// under.
func WithLibraryControllerContextKey(key string) LibraryControllerOption {
	return func(c *LibraryController) *LibraryController {
		c.ContextKey = key
		return c
	}
}

func (a *LibraryController) ContentsGet(ctx router.Context) error {
	viewer := ViewerFromRouter(ctx, a.ContextKey)
	kind := ContentKind(ctx.Query("kind", ""))

	contents, err := a.Library.ListContents(ctx.Context(), viewer, kind)
	if err != nil {
		a.Logger.Error("content list error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"contents": contents,
	})
}

func (a *LibraryController) ContentGet(ctx router.Context) error {
	viewer := ViewerFromRouter(ctx, a.ContextKey)

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid content id").
			WithCode(goerrors.CodeBadRequest))
	}

	content, err := a.Library.FindContent(ctx.Context(), viewer, id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, content)
}

func (a *LibraryController) EbooksGet(ctx router.Context) error {
	viewer := ViewerFromRouter(ctx, a.ContextKey)

	ebooks, err := a.Library.ListEbooks(ctx.Context(), viewer)
	if err != nil {
		a.Logger.Error("ebook list error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"ebooks": ebooks,
	})
}

func (a *LibraryController) EbookGet(ctx router.Context) error {
	viewer := ViewerFromRouter(ctx, a.ContextKey)

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid ebook id").
			WithCode(goerrors.CodeBadRequest))
	}

	ebook, err := a.Library.FindEbook(ctx.Context(), viewer, id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, ebook)
}

func (a *LibraryController) EbookDownloadGet(ctx router.Context) error {
	viewer := ViewerFromRouter(ctx, a.ContextKey)

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid ebook id").
			WithCode(goerrors.CodeBadRequest))
	}

	downloadURL, err := a.Library.EbookDownloadURL(ctx.Context(), viewer, id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"url": downloadURL,
	})
}
