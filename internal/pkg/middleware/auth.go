package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citymaid/citymaid/app/repository"
	icuser "github.com/citymaid/citymaid/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in session and returns JSON 401 otherwise.
func RequireAuth(c *fiber.Ctx) error {
	if !icuser.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireAdmin ensures a logged-in admin. The role is re-read from the
// users table on every call; the session's admin flag alone is never
// authoritative for admin operations.
func RequireAdmin(c *fiber.Ctx) error {
	uctx := icuser.GetUserContext(c)
	if !uctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}

	user, err := repository.GetGlobalRepositories().User.GetByID(uctx.UserID)
	if err != nil || !user.IsAdmin() || !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "admin role required",
		})
	}

	c.Locals("ADMIN_USER", user)
	return c.Next()
}
