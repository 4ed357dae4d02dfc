package receipt

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/citymaid/citymaid/app/models"
	"github.com/citymaid/citymaid/internal/pkg/paymentflow"
)

// fakeStore records puts in memory and answers with deterministic URLs.
type fakeStore struct {
	puts    int
	objects map[string][]byte
	failPut bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	if f.failPut {
		return "", fmt.Errorf("connection refused")
	}
	f.puts++
	f.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func newGateTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "citymaid_test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.PaymentRequest{}))
	return db
}

func createGateRequest(t *testing.T, db *gorm.DB, status string) *models.PaymentRequest {
	t.Helper()

	post := &models.Post{Title: "Nanny wanted", Status: models.PostStatusApproved, VisitorID: "b2f9a4f0-1111-4222-8333-444455556666"}
	require.NoError(t, db.Create(post).Error)

	req := &models.PaymentRequest{
		RequestType:    models.RequestTypeContactUnlock,
		TargetID:       post.ID,
		VisitorID:      post.VisitorID,
		Status:         status,
		DeliveryStatus: models.DeliveryStatusPending,
	}
	require.NoError(t, db.Create(req).Error)
	return req
}

// pdfPayload is a minimal document http.DetectContentType recognizes as PDF.
func pdfPayload() []byte {
	return append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{'x'}, 64)...)
}

func TestUploadMarksRequestPaid(t *testing.T) {
	db := newGateTestDB(t)
	store := newFakeStore()
	gate := NewGate(db, store)
	req := createGateRequest(t, db, models.RequestStatusPending)

	res, err := gate.Upload(context.Background(), req.ID, "receipt.pdf", pdfPayload())
	require.NoError(t, err)
	assert.NotEmpty(t, res.ReceiptURL)
	assert.Empty(t, res.ThumbURL)
	assert.Equal(t, 1, store.puts)

	var got models.PaymentRequest
	require.NoError(t, db.Where("id = ?", req.ID).First(&got).Error)
	assert.Equal(t, models.RequestStatusPaid, got.Status)
	assert.Equal(t, res.ReceiptURL, got.ReceiptURL)
}

func TestUploadIsIdempotentAfterPaid(t *testing.T) {
	db := newGateTestDB(t)
	store := newFakeStore()
	gate := NewGate(db, store)
	req := createGateRequest(t, db, models.RequestStatusPending)

	first, err := gate.Upload(context.Background(), req.ID, "receipt.pdf", pdfPayload())
	require.NoError(t, err)

	// The retry must answer with the recorded artifact, not store a new one.
	second, err := gate.Upload(context.Background(), req.ID, "receipt.pdf", pdfPayload())
	require.NoError(t, err)
	assert.Equal(t, first.ReceiptURL, second.ReceiptURL)
	assert.Equal(t, 1, store.puts)
}

func TestUploadRejectsDecidedRequest(t *testing.T) {
	db := newGateTestDB(t)
	gate := NewGate(db, newFakeStore())

	for _, status := range []string{models.RequestStatusApproved, models.RequestStatusRejected} {
		req := createGateRequest(t, db, status)
		_, err := gate.Upload(context.Background(), req.ID, "receipt.pdf", pdfPayload())
		assert.ErrorIs(t, err, paymentflow.ErrInvalidStateTransition, "status %s", status)
	}
}

func TestUploadUnknownRequest(t *testing.T) {
	db := newGateTestDB(t)
	gate := NewGate(db, newFakeStore())

	_, err := gate.Upload(context.Background(), "no-such-id", "receipt.pdf", pdfPayload())
	assert.ErrorIs(t, err, paymentflow.ErrNotFound)
}

func TestUploadInvalidArtifactLeavesRequestPending(t *testing.T) {
	db := newGateTestDB(t)
	store := newFakeStore()
	gate := NewGate(db, store)
	req := createGateRequest(t, db, models.RequestStatusPending)

	_, err := gate.Upload(context.Background(), req.ID, "payload.exe", []byte("MZ...."))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = gate.Upload(context.Background(), req.ID, "receipt.pdf", bytes.Repeat(pdfPayload(), 1<<17))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	assert.Equal(t, 0, store.puts)
	var got models.PaymentRequest
	require.NoError(t, db.Where("id = ?", req.ID).First(&got).Error)
	assert.Equal(t, models.RequestStatusPending, got.Status)
	assert.Empty(t, got.ReceiptURL)
}

func TestUploadStorageFailureLeavesRequestPending(t *testing.T) {
	db := newGateTestDB(t)
	store := newFakeStore()
	store.failPut = true
	gate := NewGate(db, store)
	req := createGateRequest(t, db, models.RequestStatusPending)

	_, err := gate.Upload(context.Background(), req.ID, "receipt.pdf", pdfPayload())
	assert.ErrorIs(t, err, paymentflow.ErrStorageUnavailable)

	var got models.PaymentRequest
	require.NoError(t, db.Where("id = ?", req.ID).First(&got).Error)
	assert.Equal(t, models.RequestStatusPending, got.Status)
}

func TestObjectKeyKeepsExtension(t *testing.T) {
	key := objectKey("My Receipt.JPG")
	assert.True(t, len(key) > len("receipts/"))
	assert.Equal(t, ".jpg", filepath.Ext(key))
	assert.NotEqual(t, key, objectKey("My Receipt.JPG"))
}
