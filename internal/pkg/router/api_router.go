package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/citymaid/citymaid/app/controllers"
	"github.com/citymaid/citymaid/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// auth
	v1.Post("/auth/register", controllers.HandleRegister)
	v1.Post("/auth/login", controllers.HandleLogin)
	v1.Post("/auth/logout", controllers.HandleLogout)

	// posts
	v1.Post("/posts", controllers.HandleCreatePost)
	v1.Get("/posts", controllers.HandleListPosts)
	v1.Get("/posts/:uuid", controllers.HandleGetPost)
	v1.Get("/posts/:uuid/contact-visibility", controllers.HandleContactVisibility)

	// payment requests
	v1.Post("/payment-requests", controllers.HandleCreatePaymentRequest)
	v1.Post("/payment-requests/:id/receipt", controllers.HandleUploadReceipt)

	h.registerAdminRoutes(v1)
}

func (h ApiRouter) registerAdminRoutes(v1 fiber.Router) {
	adminGroup := v1.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/dashboard", controllers.HandleAdminDashboard)

	// Payment request review
	adminGroup.Get("/payment-requests", controllers.HandleAdminListPaymentRequests)
	adminGroup.Post("/payment-requests/:id/review", controllers.HandleAdminReviewPaymentRequest)
	adminGroup.Post("/payment-requests/:id/delivery", controllers.HandleAdminSetDeliveryStatus)
	adminGroup.Delete("/payment-requests/:id", controllers.HandleAdminDeletePaymentRequest)

	// Post moderation
	adminGroup.Get("/posts", controllers.HandleAdminListPosts)
	adminGroup.Post("/posts/:id/approve", controllers.HandleAdminApprovePost)
	adminGroup.Post("/posts/:id/hide", controllers.HandleAdminHidePost)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
