package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/citymaid/citymaid/app/models"
	"github.com/citymaid/citymaid/app/repository"
)

// GET /auth/:provider
func HandleOAuthLogin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// GET /auth/:provider/callback
func HandleOAuthCallback(c *fiber.Ctx) error {
	gothUser, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		fiberlog.Errorf("oauth callback failed: %v", err)
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	users := repository.GetGlobalRepositories().User
	user, err := users.GetByProvider(gothUser.Provider, gothUser.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			fiberlog.Errorf("oauth lookup failed: %v", err)
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		// First login via this provider: link by email or create an account.
		user, err = users.GetByEmail(gothUser.Email)
		if err != nil {
			name := gothUser.Name
			if name == "" {
				name = gothUser.NickName
			}
			user = &models.User{
				Name:   name,
				Email:  gothUser.Email,
				Role:   models.ROLE_USER,
				Status: models.STATUS_ACTIVE,
			}
			// OAuth accounts get an unusable random password slot.
			if err := user.SetPassword(uuid.New().String()); err != nil {
				fiberlog.Errorf("oauth password init failed: %v", err)
				return c.Redirect("/", fiber.StatusSeeOther)
			}
			if err := users.Create(user); err != nil {
				fiberlog.Errorf("oauth user create failed: %v", err)
				return c.Redirect("/", fiber.StatusSeeOther)
			}
		}
		user.Provider = gothUser.Provider
		user.ProviderID = gothUser.UserID
		if err := users.Update(user); err != nil {
			fiberlog.Warnf("oauth provider link failed for user %d: %v", user.ID, err)
		}
	}

	if err := establishSession(c, user); err != nil {
		fiberlog.Errorf("oauth session save failed: %v", err)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// GET /auth/logout
func HandleOAuthLogout(c *fiber.Ctx) error {
	if err := gothfiber.Logout(c); err != nil {
		fiberlog.Warnf("oauth logout failed: %v", err)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}
