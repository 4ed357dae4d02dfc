package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RequestTypeContactUnlock = "contact_unlock"
	RequestTypePostPromotion = "post_promotion"

	RequestStatusPending  = "pending"
	RequestStatusPaid     = "paid"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"

	DeliveryStatusPending = "pending"
	DeliveryStatusSent    = "sent"
	DeliveryStatusFailed  = "failed"
	DeliveryStatusManual  = "manual"
)

// PaymentRequest is the lifecycle record for a single paid action (contact
// unlock or homepage promotion) against a single post. Exactly one of
// UserID/VisitorID identifies the requester.
type PaymentRequest struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	RequestType     string     `gorm:"type:varchar(30);not null;index" json:"request_type"`
	TargetID        uint       `gorm:"not null;index" json:"target_id"`
	Target          *Post      `gorm:"foreignKey:TargetID" json:"target,omitempty"`
	UserID          *uint      `gorm:"index" json:"user_id,omitempty"`
	User            *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	VisitorID       string     `gorm:"type:varchar(36);index;default:null" json:"visitor_id,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReceiptURL      string     `gorm:"type:varchar(512);default:null" json:"receipt_url,omitempty"`
	ReceiptThumbURL string     `gorm:"type:varchar(512);default:null" json:"receipt_thumb_url,omitempty"`
	DeliveryStatus  string     `gorm:"type:varchar(20);not null;default:'pending'" json:"delivery_status"`
	DeliveryNotes   string     `gorm:"type:text" json:"delivery_notes,omitempty"`
	ReviewedByID    *uint      `gorm:"index" json:"reviewed_by_id,omitempty"`
	ReviewedBy      *User      `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewPaymentRequestID generates the opaque identifier used for new requests.
func NewPaymentRequestID() string {
	return uuid.New().String()
}

// IsValidRequestType reports whether t is a known request type.
func IsValidRequestType(t string) bool {
	return t == RequestTypeContactUnlock || t == RequestTypePostPromotion
}

// IsValidDeliveryStatus reports whether s is a known delivery status.
func IsValidDeliveryStatus(s string) bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusSent, DeliveryStatusFailed, DeliveryStatusManual:
		return true
	}
	return false
}

// IsActive reports whether the request still occupies the per-requester
// slot for its target (one active request per requester/target/type).
func (p *PaymentRequest) IsActive() bool {
	return p.Status == RequestStatusPending || p.Status == RequestStatusPaid
}

// IsTerminal reports whether the request reached a final status.
func (p *PaymentRequest) IsTerminal() bool {
	return p.Status == RequestStatusApproved || p.Status == RequestStatusRejected
}

// CanTransition reports whether moving from the current status to target is
// a legal forward transition. Transitions are monotonic: pending -> paid ->
// approved|rejected, nothing ever moves backwards or skips paid.
func (p *PaymentRequest) CanTransition(target string) bool {
	switch p.Status {
	case RequestStatusPending:
		return target == RequestStatusPaid
	case RequestStatusPaid:
		return target == RequestStatusApproved || target == RequestStatusRejected
	}
	return false
}

// BeforeCreate assigns an ID when the caller did not set one.
func (p *PaymentRequest) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewPaymentRequestID()
	}
	return nil
}
