package paymentflow

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/citymaid/citymaid/app/models"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Review applies an admin decision to a paid request. The actor's role is
// checked here again even though the admin routes already gate on it:
// authorization for review decisions is never trusted from client-supplied
// state, only from the actor record the caller loaded from the database.
//
// Approving a post_promotion request also marks the target post's homepage
// promotion as approved; both writes happen in one transaction so a crash
// cannot leave a request approved with the post never promoted. Rejecting a
// promotion leaves the post untouched.
func (s *Service) Review(requestID, decision string, actor *models.User) (*models.PaymentRequest, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, ErrInvalidDecision
	}

	target := models.RequestStatusApproved
	if decision == DecisionReject {
		target = models.RequestStatusRejected
	}

	var reviewed *models.PaymentRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var req models.PaymentRequest
		if err := tx.Where("id = ?", requestID).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		rows, err := s.requests.TransitionStatus(tx, req.ID, models.RequestStatusPaid, target, map[string]interface{}{
			"reviewed_by_id": actor.ID,
			"reviewed_at":    now,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			// Never reached paid, or already decided.
			return ErrInvalidStateTransition
		}

		if decision == DecisionApprove && req.RequestType == models.RequestTypePostPromotion {
			res := tx.Model(&models.Post{}).
				Where("id = ?", req.TargetID).
				Update("homepage_payment_status", models.HomepagePaymentApproved)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrNotFound
			}
		}

		req.Status = target
		req.ReviewedByID = &actor.ID
		req.ReviewedAt = &now
		reviewed = &req
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound),
			errors.Is(err, ErrInvalidStateTransition):
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return reviewed, nil
}
