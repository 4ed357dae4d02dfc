package receipt

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/citymaid/citymaid/app/models"
	"github.com/citymaid/citymaid/app/repository"
	"github.com/citymaid/citymaid/internal/pkg/paymentflow"
)

// ObjectStore persists receipt artifacts and returns a retrievable URL per
// object. Implemented by the S3 receipt store.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// UploadResult is the outcome of a successful (or idempotently repeated)
// receipt upload.
type UploadResult struct {
	ReceiptURL string `json:"receipt_url"`
	ThumbURL   string `json:"thumb_url,omitempty"`
}

// Gate validates and persists proof-of-payment uploads and is the only
// component that moves a request out of pending. Every other transition is
// admin-driven.
type Gate struct {
	requests repository.PaymentRequestRepository
	store    ObjectStore
}

// NewGate creates a receipt upload gate.
func NewGate(db *gorm.DB, store ObjectStore) *Gate {
	return &Gate{
		requests: repository.NewPaymentRequestRepository(db),
		store:    store,
	}
}

// Upload validates the artifact, writes it to object storage under a
// collision-resistant key and advances the request from pending to paid.
//
// The storage write and the status update are two external calls that are
// not naturally atomic. Retries are safe: if the request is already paid
// with a recorded receipt, the recorded URL is returned without storing a
// new artifact, and a lost race on the status update resolves the same way.
func (g *Gate) Upload(ctx context.Context, requestID, filename string, data []byte) (*UploadResult, error) {
	req, err := g.requests.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, paymentflow.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", paymentflow.ErrStorageUnavailable, err)
	}

	// Idempotent retry: the transition already happened with an artifact.
	if req.Status == models.RequestStatusPaid && req.ReceiptURL != "" {
		return &UploadResult{ReceiptURL: req.ReceiptURL, ThumbURL: req.ReceiptThumbURL}, nil
	}
	if req.Status != models.RequestStatusPending {
		return nil, paymentflow.ErrInvalidStateTransition
	}

	contentType, err := Validate(filename, int64(len(data)), head(data))
	if err != nil {
		return nil, err
	}

	key := objectKey(filename)
	url, err := g.store.Put(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentflow.ErrStorageUnavailable, err)
	}

	thumbURL := ""
	if strings.HasPrefix(contentType, "image/") {
		if thumb, terr := Thumbnail(data); terr == nil {
			thumbKey := strings.TrimSuffix(key, filepath.Ext(key)) + "_thumb.jpg"
			if u, perr := g.store.Put(ctx, thumbKey, "image/jpeg", thumb); perr == nil {
				thumbURL = u
			} else {
				fiberlog.Warnf("[Receipt] thumbnail upload failed for %s: %v", requestID, perr)
			}
		} else {
			fiberlog.Warnf("[Receipt] thumbnail render failed for %s: %v", requestID, terr)
		}
	}

	rows, err := g.requests.TransitionStatus(nil, requestID, models.RequestStatusPending, models.RequestStatusPaid, map[string]interface{}{
		"receipt_url":       url,
		"receipt_thumb_url": thumbURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentflow.ErrStorageUnavailable, err)
	}
	if rows == 0 {
		// Lost a race. If a concurrent upload already marked it paid,
		// answer with the recorded artifact instead of failing the retry.
		cur, gerr := g.requests.GetByID(requestID)
		if gerr == nil && cur.Status == models.RequestStatusPaid && cur.ReceiptURL != "" {
			return &UploadResult{ReceiptURL: cur.ReceiptURL, ThumbURL: cur.ReceiptThumbURL}, nil
		}
		return nil, paymentflow.ErrInvalidStateTransition
	}

	return &UploadResult{ReceiptURL: url, ThumbURL: thumbURL}, nil
}

// objectKey builds a collision-resistant storage key: timestamp + random
// suffix + original extension.
func objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("receipts/%s_%s%s", time.Now().UTC().Format("20060102_150405"), suffix, ext)
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}
