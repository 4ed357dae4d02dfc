package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PostStatusPending  = "pending"
	PostStatusApproved = "approved"
	PostStatusHidden   = "hidden"

	// Homepage promotion lifecycle, independent of the post status.
	HomepagePaymentPending  = "pending"
	HomepagePaymentPaid     = "paid"
	HomepagePaymentApproved = "approved"
)

// Post is a job listing. Contact fields are masked for readers until an
// approved contact_unlock request grants visibility. Exactly one of
// UserID/VisitorID identifies the poster.
type Post struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	UUID                  string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	Title                 string    `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=3,max=200"`
	Description           string    `gorm:"type:text" json:"description" validate:"max=5000"`
	City                  string    `gorm:"type:varchar(100);index" json:"city" validate:"max=100"`
	Salary                string    `gorm:"type:varchar(100)" json:"salary" validate:"max=100"`
	ContactName           string    `gorm:"type:varchar(150)" json:"contact_name" validate:"max=150"`
	ContactPhone          string    `gorm:"type:varchar(30)" json:"contact_phone" validate:"max=30"`
	ContactEmail          string    `gorm:"type:varchar(200)" json:"contact_email" validate:"omitempty,email,max=200"`
	UserID                *uint     `gorm:"index" json:"user_id,omitempty"`
	User                  *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	VisitorID             string    `gorm:"type:varchar(36);index;default:null" json:"visitor_id,omitempty"`
	Status                string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	HomepagePaymentStatus string    `gorm:"type:varchar(20);default:null;index" json:"homepage_payment_status,omitempty"`
	ViewCount             int64     `gorm:"default:0" json:"view_count"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Post) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// BeforeCreate assigns the public UUID used in URLs.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	return nil
}

// IsPromoted reports whether the post earned its homepage slot.
func (p *Post) IsPromoted() bool {
	return p.HomepagePaymentStatus == HomepagePaymentApproved
}

// MaskContact redacts the contact fields in place. Used when the reader has
// no approved unlock for this post.
func (p *Post) MaskContact() {
	p.ContactName = maskTail(p.ContactName, 2)
	p.ContactPhone = maskTail(p.ContactPhone, 3)
	p.ContactEmail = maskEmail(p.ContactEmail)
}

func maskTail(s string, keep int) string {
	r := []rune(s)
	if len(r) <= keep {
		return strings.Repeat("*", len(r))
	}
	return string(r[:keep]) + strings.Repeat("*", len(r)-keep)
}

func maskEmail(s string) string {
	at := strings.IndexByte(s, '@')
	if at <= 0 {
		return maskTail(s, 1)
	}
	return maskTail(s[:at], 1) + s[at:]
}
