package repository

import (
	"errors"

	"github.com/citymaid/citymaid/app/models"
	"gorm.io/gorm"
)

// ErrDuplicateActiveRequest means the requester already holds a pending or
// paid request for the same target and type. Besides the transactional
// check here, the payment_requests table carries a generated-column unique
// index so two concurrent inserts cannot both succeed (see migrations).
var ErrDuplicateActiveRequest = errors.New("duplicate active request")

type paymentRequestRepository struct {
	db *gorm.DB
}

// NewPaymentRequestRepository creates a payment request repository backed by GORM.
func NewPaymentRequestRepository(db *gorm.DB) PaymentRequestRepository {
	return &paymentRequestRepository{db: db}
}

func (r *paymentRequestRepository) Create(req *models.PaymentRequest) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.PaymentRequest{}).
			Where("request_type = ? AND target_id = ?", req.RequestType, req.TargetID).
			Where("status IN ?", []string{models.RequestStatusPending, models.RequestStatusPaid})
		if req.UserID != nil {
			q = q.Where("user_id = ?", *req.UserID)
		} else {
			q = q.Where("visitor_id = ?", req.VisitorID)
		}

		var active int64
		if err := q.Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrDuplicateActiveRequest
		}

		return tx.Create(req).Error
	})
	// The unique active_key index fires when two transactions race past the
	// count; surface it the same way as the in-transaction check.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateActiveRequest
	}
	return err
}

func (r *paymentRequestRepository) GetByID(id string) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	if err := r.db.Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRequestRepository) GetByIDAndType(id, requestType string) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	err := r.db.Where("id = ? AND request_type = ?", id, requestType).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRequestRepository) TransitionStatus(db *gorm.DB, id, from, to string, updates map[string]interface{}) (int64, error) {
	if db == nil {
		db = r.db
	}
	values := map[string]interface{}{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := db.Model(&models.PaymentRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	return res.RowsAffected, res.Error
}

func (r *paymentRequestRepository) SetDeliveryStatus(id, status, notes string) error {
	values := map[string]interface{}{"delivery_status": status}
	if notes != "" {
		values["delivery_notes"] = notes
	}
	res := r.db.Model(&models.PaymentRequest{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *paymentRequestRepository) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&models.PaymentRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *paymentRequestRepository) ListByStatus(status string, offset, limit int) ([]models.PaymentRequest, error) {
	var requests []models.PaymentRequest
	q := r.db.Preload("Target").Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *paymentRequestRepository) CountByStatus(status string) (int64, error) {
	var count int64
	q := r.db.Model(&models.PaymentRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *paymentRequestRepository) HasApprovedUnlock(targetID uint, userID uint, visitorID string) (bool, error) {
	q := r.db.Model(&models.PaymentRequest{}).
		Where("request_type = ? AND target_id = ? AND status = ?",
			models.RequestTypeContactUnlock, targetID, models.RequestStatusApproved)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	} else {
		q = q.Where("visitor_id = ?", visitorID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
