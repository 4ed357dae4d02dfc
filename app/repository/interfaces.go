package repository

import (
	"github.com/citymaid/citymaid/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByProvider(provider, providerID string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// PostRepository defines the interface for post-related database operations
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id uint) (*models.Post, error)
	GetByUUID(uuid string) (*models.Post, error)
	Update(post *models.Post) error
	UpdateStatus(id uint, status string) error
	Delete(id uint) error
	ListApproved(city string, offset, limit int) ([]models.Post, error)
	ListByStatus(status string, offset, limit int) ([]models.Post, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
	AddViews(counts map[uint]int64) error
}

// PaymentRequestRepository is the single parameterized store for both paid
// flows (contact_unlock and post_promotion): the two differ only in what an
// approval mutates downstream, so they share one record shape and one set
// of request/approve/reject mechanics keyed by request type.
type PaymentRequestRepository interface {
	// Create inserts a new pending request. It fails with
	// ErrDuplicateActiveRequest when the requester already has a pending
	// or paid request for the same target and type; the check is an atomic
	// check-and-insert, not a read-then-write in handler code.
	Create(req *models.PaymentRequest) error
	GetByID(id string) (*models.PaymentRequest, error)
	GetByIDAndType(id, requestType string) (*models.PaymentRequest, error)
	// TransitionStatus applies a guarded forward transition. It returns the
	// number of rows changed; zero means the request was not in the
	// expected from status (or does not exist).
	TransitionStatus(db *gorm.DB, id, from, to string, updates map[string]interface{}) (int64, error)
	SetDeliveryStatus(id, status, notes string) error
	Delete(id string) error
	ListByStatus(status string, offset, limit int) ([]models.PaymentRequest, error)
	CountByStatus(status string) (int64, error)
	// HasApprovedUnlock reports whether an approved contact_unlock request
	// exists for the target by the given requester (user id or visitor id).
	HasApprovedUnlock(targetID uint, userID uint, visitorID string) (bool, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User           UserRepository
	Post           PostRepository
	PaymentRequest PaymentRequestRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:           NewUserRepository(db),
		Post:           NewPostRepository(db),
		PaymentRequest: NewPaymentRequestRepository(db),
	}
}
