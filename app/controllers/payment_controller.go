package controllers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/citymaid/citymaid/internal/pkg/identity"
	"github.com/citymaid/citymaid/internal/pkg/paymentflow"
	"github.com/citymaid/citymaid/internal/pkg/receipt"
)

var (
	flow        *paymentflow.Service
	receiptGate *receipt.Gate
)

// InitializePaymentControllers wires the workflow service and the receipt
// upload gate. Called once from the router during startup.
func InitializePaymentControllers(db *gorm.DB, store receipt.ObjectStore) {
	flow = paymentflow.NewService(db)
	receiptGate = receipt.NewGate(db, store)
}

func getFlow() *paymentflow.Service {
	if flow == nil {
		panic("payment controllers not initialized. Call InitializePaymentControllers first.")
	}
	return flow
}

func getGate() *receipt.Gate {
	if receiptGate == nil {
		panic("payment controllers not initialized. Call InitializePaymentControllers first.")
	}
	return receiptGate
}

type createPaymentRequestBody struct {
	Type     string `json:"type"`
	TargetID uint   `json:"target_id"`
}

// POST /api/v1/payment-requests
func HandleCreatePaymentRequest(c *fiber.Ctx) error {
	actor, err := identity.FromContext(c)
	if err != nil {
		return workflowError(c, err)
	}

	var body createPaymentRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	req, err := getFlow().CreateRequest(actor, body.Type, body.TargetID)
	if err != nil {
		return workflowError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"request_id": req.ID,
		"status":     req.Status,
	})
}

// POST /api/v1/payment-requests/:id/receipt
// Multipart upload of the proof-of-payment artifact. Advances the request
// from pending to paid.
func HandleUploadReceipt(c *fiber.Ctx) error {
	if _, err := identity.FromContext(c); err != nil {
		return workflowError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	if fileHeader.Size > receipt.MaxReceiptBytes {
		return workflowError(c, receipt.ErrFileTooLarge)
	}

	f, err := fileHeader.Open()
	if err != nil {
		fiberlog.Errorf("receipt open failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		fiberlog.Errorf("receipt read failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}

	result, err := getGate().Upload(c.Context(), c.Params("id"), fileHeader.Filename, data)
	if err != nil {
		return workflowError(c, err)
	}

	return c.JSON(fiber.Map{
		"receipt_url": result.ReceiptURL,
		"thumb_url":   result.ThumbURL,
	})
}
