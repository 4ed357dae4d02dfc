package paymentflow

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/citymaid/citymaid/app/models"
	"github.com/citymaid/citymaid/app/repository"
	"github.com/citymaid/citymaid/internal/pkg/identity"
)

// Service drives the payment-request lifecycle: creation, admin review,
// delivery tracking and contact-visibility resolution. All multi-row
// mutations run in a single database transaction.
type Service struct {
	db       *gorm.DB
	requests repository.PaymentRequestRepository
	posts    repository.PostRepository
}

// NewService creates a workflow service from a GORM DB handle.
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:       db,
		requests: repository.NewPaymentRequestRepository(db),
		posts:    repository.NewPostRepository(db),
	}
}

// CreateRequest opens a new pending payment request for the given target by
// the given requester. At most one pending-or-paid request may exist per
// (requester, target, type); a second attempt fails with
// ErrDuplicateActiveRequest.
func (s *Service) CreateRequest(requester identity.Identity, requestType string, targetID uint) (*models.PaymentRequest, error) {
	if !models.IsValidRequestType(requestType) {
		return nil, ErrInvalidRequestType
	}
	if requester.IsZero() {
		return nil, identity.ErrIdentityMissing
	}

	if _, err := s.posts.GetByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	req := &models.PaymentRequest{
		ID:             models.NewPaymentRequestID(),
		RequestType:    requestType,
		TargetID:       targetID,
		Status:         models.RequestStatusPending,
		DeliveryStatus: models.DeliveryStatusPending,
		VisitorID:      requester.VisitorID,
	}
	if requester.IsUser() {
		uid := requester.UserID
		req.UserID = &uid
		req.VisitorID = ""
	}

	if err := s.requests.Create(req); err != nil {
		if errors.Is(err, ErrDuplicateActiveRequest) {
			return nil, ErrDuplicateActiveRequest
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return req, nil
}

// GetRequest returns the request of the given id and type, or ErrNotFound.
func (s *Service) GetRequest(id, requestType string) (*models.PaymentRequest, error) {
	req, err := s.requests.GetByIDAndType(id, requestType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return req, nil
}

// SetDeliveryStatus records whether the unlocked contact was actually
// communicated to the requester. It applies to contact_unlock requests only
// and is independent of the approval status.
func (s *Service) SetDeliveryStatus(id, status, notes string) error {
	if !models.IsValidDeliveryStatus(status) {
		return ErrInvalidDeliveryStatus
	}

	req, err := s.requests.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if req.RequestType != models.RequestTypeContactUnlock {
		return ErrInvalidRequestType
	}

	if err := s.requests.SetDeliveryStatus(id, status, notes); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// DeleteRequest hard-deletes a request. Authorization is the caller's job;
// the route layer exposes this under /admin only.
func (s *Service) DeleteRequest(id string) error {
	if err := s.requests.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// ListRequests returns requests filtered by status (empty = all), newest first.
func (s *Service) ListRequests(status string, offset, limit int) ([]models.PaymentRequest, error) {
	reqs, err := s.requests.ListByStatus(status, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return reqs, nil
}
