package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/citymaid/citymaid/app/models"
	"github.com/citymaid/citymaid/internal/pkg/usercontext"
)

const testVisitorID = "7f3b1c9e-0d2a-4e5f-8a6b-1c2d3e4f5a6b"

type stubStore struct{}

func (stubStore) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	return "https://cdn.test/" + key, nil
}

func newUploadTestApp(t *testing.T) (*fiber.App, string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "citymaid_test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.PaymentRequest{}))

	post := &models.Post{Title: "Gardener wanted", Status: models.PostStatusApproved, VisitorID: testVisitorID}
	require.NoError(t, db.Create(post).Error)
	req := &models.PaymentRequest{
		RequestType:    models.RequestTypeContactUnlock,
		TargetID:       post.ID,
		VisitorID:      testVisitorID,
		Status:         models.RequestStatusPending,
		DeliveryStatus: models.DeliveryStatusPending,
	}
	require.NoError(t, db.Create(req).Error)

	InitializePaymentControllers(db, stubStore{})

	// Same body limit the application runs with. It must leave enough
	// headroom that an oversized receipt still reaches the handler.
	app := fiber.New(fiber.Config{BodyLimit: 8 * 1024 * 1024})
	app.Post("/api/v1/payment-requests/:id/receipt", HandleUploadReceipt)
	return app, req.ID
}

func multipartUpload(t *testing.T, url, filename string, payload []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, url, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: usercontext.VisitorCookie, Value: testVisitorID})
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestUploadReceiptEndpoint(t *testing.T) {
	app, requestID := newUploadTestApp(t)

	payload := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{'x'}, 64)...)
	resp, err := app.Test(multipartUpload(t, "/api/v1/payment-requests/"+requestID+"/receipt", "receipt.pdf", payload), 10000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp)["receipt_url"], "https://cdn.test/receipts/")
}

// A 6 MiB receipt must be rejected by the handler with the file_too_large
// JSON error, not swallowed by the server's body limit before the handler
// runs.
func TestUploadReceiptTooLargeAnsweredByHandler(t *testing.T) {
	app, requestID := newUploadTestApp(t)

	payload := bytes.Repeat([]byte{'x'}, 6*1024*1024)
	resp, err := app.Test(multipartUpload(t, "/api/v1/payment-requests/"+requestID+"/receipt", "receipt.jpg", payload), 10000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "file_too_large", decodeBody(t, resp)["error"])
}
