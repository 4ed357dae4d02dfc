package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citymaid/citymaid/app/controllers"
	"github.com/citymaid/citymaid/app/repository"
	"github.com/citymaid/citymaid/internal/pkg/database"
	"github.com/citymaid/citymaid/internal/pkg/middleware"
	"github.com/citymaid/citymaid/internal/pkg/oauth"
	"github.com/citymaid/citymaid/internal/pkg/session"
	"github.com/citymaid/citymaid/internal/pkg/storage"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// init repositories
	repository.InitializeFactory(database.GetDB())

	// init receipt storage + payment workflow
	cfg, err := storage.LoadConfig()
	if err != nil {
		panic("receipt storage misconfigured: " + err.Error())
	}
	store, err := storage.NewClient(cfg)
	if err != nil {
		panic("receipt storage unavailable: " + err.Error())
	}
	controllers.InitializePaymentControllers(database.GetDB(), store)

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)

	// OAuth login flow (session handling is goth's own store)
	app.Get("/auth/:provider", controllers.HandleOAuthLogin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Get("/auth/logout", controllers.HandleOAuthLogout)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
