package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/citymaid/citymaid/app/models"
	"github.com/citymaid/citymaid/app/repository"
	"github.com/citymaid/citymaid/internal/pkg/cache"
	"github.com/citymaid/citymaid/internal/pkg/paymentflow"
)

// adminActor returns the admin user loaded by the RequireAdmin middleware.
func adminActor(c *fiber.Ctx) *models.User {
	if u, ok := c.Locals("ADMIN_USER").(*models.User); ok {
		return u
	}
	return nil
}

// GET /api/v1/admin/dashboard
func HandleAdminDashboard(c *fiber.Ctx) error {
	const cacheKey = "admin:dashboard:counts"
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	repos := repository.GetGlobalRepositories()
	pendingPosts, _ := repos.Post.CountByStatus(models.PostStatusPending)
	totalPosts, _ := repos.Post.Count()
	pendingRequests, _ := repos.PaymentRequest.CountByStatus(models.RequestStatusPending)
	paidRequests, _ := repos.PaymentRequest.CountByStatus(models.RequestStatusPaid)
	totalUsers, _ := repos.User.Count()

	body := fiber.Map{
		"pending_posts":    pendingPosts,
		"total_posts":      totalPosts,
		"pending_requests": pendingRequests,
		"paid_requests":    paidRequests,
		"total_users":      totalUsers,
	}

	if raw, err := marshalMap(body); err == nil {
		if err := cache.Set(cacheKey, raw, time.Minute); err != nil {
			fiberlog.Warnf("dashboard cache write failed: %v", err)
		}
	}
	return c.JSON(body)
}

// GET /api/v1/admin/payment-requests?status=paid
func HandleAdminListPaymentRequests(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	requests, err := getFlow().ListRequests(c.Query("status"), offset, limit)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

type reviewBody struct {
	Decision string `json:"decision"`
}

// POST /api/v1/admin/payment-requests/:id/review
func HandleAdminReviewPaymentRequest(c *fiber.Ctx) error {
	var body reviewBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	req, err := getFlow().Review(c.Params("id"), body.Decision, adminActor(c))
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(fiber.Map{"status": req.Status})
}

type deliveryBody struct {
	DeliveryStatus string `json:"delivery_status"`
	Notes          string `json:"notes"`
}

// POST /api/v1/admin/payment-requests/:id/delivery
func HandleAdminSetDeliveryStatus(c *fiber.Ctx) error {
	var body deliveryBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	if err := getFlow().SetDeliveryStatus(c.Params("id"), body.DeliveryStatus, body.Notes); err != nil {
		return workflowError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// DELETE /api/v1/admin/payment-requests/:id
// Hard delete, admin cleanup only.
func HandleAdminDeletePaymentRequest(c *fiber.Ctx) error {
	if err := getFlow().DeleteRequest(c.Params("id")); err != nil {
		return workflowError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// GET /api/v1/admin/posts?status=pending
func HandleAdminListPosts(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	posts, err := repository.GetGlobalRepositories().Post.ListByStatus(c.Query("status"), offset, limit)
	if err != nil {
		fiberlog.Errorf("admin post list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// POST /api/v1/admin/posts/:id/approve
func HandleAdminApprovePost(c *fiber.Ctx) error {
	return adminSetPostStatus(c, models.PostStatusApproved)
}

// POST /api/v1/admin/posts/:id/hide
func HandleAdminHidePost(c *fiber.Ctx) error {
	return adminSetPostStatus(c, models.PostStatusHidden)
}

func adminSetPostStatus(c *fiber.Ctx, status string) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	if err := repository.GetGlobalRepositories().Post.UpdateStatus(uint(id), status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return workflowError(c, paymentflow.ErrNotFound)
		}
		fiberlog.Errorf("post status update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return c.JSON(fiber.Map{"ok": true, "status": status})
}
