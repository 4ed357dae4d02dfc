package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/citymaid/citymaid/internal/pkg/identity"
	"github.com/citymaid/citymaid/internal/pkg/paymentflow"
	"github.com/citymaid/citymaid/internal/pkg/receipt"
)

const (
	AUTH_KEY       string = "authenticated"
	USER_ID        string = "user_id"
	USER_NAME      string = "username"
	USER_IS_ADMIN  string = "isAdmin"
	FROM_PROTECTED string = "from_protected"
)

// workflowError maps workflow errors to JSON responses. Downstream causes
// are logged server-side and never leaked to the client.
func workflowError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, identity.ErrIdentityMissing):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "identity_missing",
			"message": "a login session or visitor token is required",
		})
	case errors.Is(err, paymentflow.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "unauthorized"})
	case errors.Is(err, paymentflow.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	case errors.Is(err, paymentflow.ErrDuplicateActiveRequest):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "duplicate_active_request"})
	case errors.Is(err, paymentflow.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_state_transition"})
	case errors.Is(err, paymentflow.ErrInvalidDeliveryStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_delivery_status"})
	case errors.Is(err, paymentflow.ErrInvalidRequestType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request_type"})
	case errors.Is(err, paymentflow.ErrInvalidDecision):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_decision"})
	case errors.Is(err, receipt.ErrUnsupportedFileType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported_file_type"})
	case errors.Is(err, receipt.ErrFileTooLarge):
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "file_too_large"})
	}

	fiberlog.Errorf("workflow error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
}

// pagination parses offset/limit query params with sane bounds.
func pagination(c *fiber.Ctx) (int, int) {
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return offset, limit
}

// marshalMap serializes a response body for caching.
func marshalMap(m fiber.Map) (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// GetClientIP determines the actual client IP address considering proxies.
func GetClientIP(c *fiber.Ctx) string {
	if cfIP := c.Get("CF-Connecting-IP"); cfIP != "" {
		return cfIP
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	return c.IP()
}
