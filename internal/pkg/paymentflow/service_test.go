package paymentflow

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/citymaid/citymaid/app/models"
	"github.com/citymaid/citymaid/internal/pkg/identity"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "citymaid_test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.PaymentRequest{}))
	return db
}

func createTestPost(t *testing.T, db *gorm.DB, visitorID string) *models.Post {
	t.Helper()

	post := &models.Post{
		Title:        "Housekeeper wanted",
		City:         "Kathmandu",
		Status:       models.PostStatusApproved,
		VisitorID:    visitorID,
		ContactName:  "Sita",
		ContactPhone: "9841000000",
		ContactEmail: "sita@example.com",
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func createTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	admin := &models.User{
		Name:   "Admin",
		Email:  uuid.New().String() + "@example.com",
		Role:   models.ROLE_ADMIN,
		Status: models.STATUS_ACTIVE,
	}
	require.NoError(t, admin.SetPassword("secret-pass"))
	require.NoError(t, db.Create(admin).Error)
	return admin
}

func visitorIdentity(t *testing.T) identity.Identity {
	t.Helper()

	id, err := identity.Resolve(0, uuid.New().String())
	require.NoError(t, err)
	return id
}

func markPaid(t *testing.T, db *gorm.DB, requestID string) {
	t.Helper()

	res := db.Model(&models.PaymentRequest{}).
		Where("id = ? AND status = ?", requestID, models.RequestStatusPending).
		Updates(map[string]interface{}{"status": models.RequestStatusPaid, "receipt_url": "https://cdn.test/receipts/r.jpg"})
	require.NoError(t, res.Error)
	require.EqualValues(t, 1, res.RowsAffected)
}

func TestCreateRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")
	visitor := visitorIdentity(t)

	req, err := svc.CreateRequest(visitor, models.RequestTypeContactUnlock, post.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, models.DeliveryStatusPending, req.DeliveryStatus)
	assert.Equal(t, visitor.VisitorID, req.VisitorID)
	assert.Nil(t, req.UserID)
}

func TestCreateRequestDuplicateActive(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")
	visitor := visitorIdentity(t)

	_, err := svc.CreateRequest(visitor, models.RequestTypeContactUnlock, post.ID)
	require.NoError(t, err)

	// Second active request for the same (requester, target, type) must fail.
	_, err = svc.CreateRequest(visitor, models.RequestTypeContactUnlock, post.ID)
	assert.ErrorIs(t, err, ErrDuplicateActiveRequest)

	// A different type for the same target is a separate slot.
	_, err = svc.CreateRequest(visitor, models.RequestTypePostPromotion, post.ID)
	assert.NoError(t, err)

	// A different requester gets their own slot too.
	_, err = svc.CreateRequest(visitorIdentity(t), models.RequestTypeContactUnlock, post.ID)
	assert.NoError(t, err)
}

func TestCreateRequestAfterTerminalStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")
	admin := createTestAdmin(t, db)
	visitor := visitorIdentity(t)

	req, err := svc.CreateRequest(visitor, models.RequestTypeContactUnlock, post.ID)
	require.NoError(t, err)
	markPaid(t, db, req.ID)
	_, err = svc.Review(req.ID, DecisionReject, admin)
	require.NoError(t, err)

	// Once the first request is terminal, the slot is free again.
	_, err = svc.CreateRequest(visitor, models.RequestTypeContactUnlock, post.ID)
	assert.NoError(t, err)
}

func TestCreateRequestValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")
	visitor := visitorIdentity(t)

	_, err := svc.CreateRequest(visitor, "unlock", post.ID)
	assert.ErrorIs(t, err, ErrInvalidRequestType)

	_, err = svc.CreateRequest(identity.Identity{}, models.RequestTypeContactUnlock, post.ID)
	assert.ErrorIs(t, err, identity.ErrIdentityMissing)

	_, err = svc.CreateRequest(visitor, models.RequestTypeContactUnlock, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRequestByType(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")

	req, err := svc.CreateRequest(visitorIdentity(t), models.RequestTypeContactUnlock, post.ID)
	require.NoError(t, err)

	got, err := svc.GetRequest(req.ID, models.RequestTypeContactUnlock)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)

	// Same id under the other type does not exist.
	_, err = svc.GetRequest(req.ID, models.RequestTypePostPromotion)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewRequiresAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")

	req, err := svc.CreateRequest(visitorIdentity(t), models.RequestTypeContactUnlock, post.ID)
	require.NoError(t, err)
	markPaid(t, db, req.ID)

	_, err = svc.Review(req.ID, DecisionApprove, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	regular := &models.User{ID: 7, Role: models.ROLE_USER}
	_, err = svc.Review(req.ID, DecisionApprove, regular)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestReviewRejectsInvalidDecision(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	admin := createTestAdmin(t, db)

	_, err := svc.Review("whatever", "maybe", admin)
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestReviewStateTransitions(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")
	admin := createTestAdmin(t, db)

	req, err := svc.CreateRequest(visitorIdentity(t), models.RequestTypeContactUnlock, post.ID)
	require.NoError(t, err)

	// Direct pending -> approved must fail: the request never reached paid.
	_, err = svc.Review(req.ID, DecisionApprove, admin)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	markPaid(t, db, req.ID)

	reviewed, err := svc.Review(req.ID, DecisionApprove, admin)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedByID)
	assert.Equal(t, admin.ID, *reviewed.ReviewedByID)
	assert.NotNil(t, reviewed.ReviewedAt)

	// Re-deciding a terminal request must fail.
	_, err = svc.Review(req.ID, DecisionReject, admin)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	_, err = svc.Review("no-such-id", DecisionApprove, admin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewPromotionApprovePromotesPost(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")
	admin := createTestAdmin(t, db)

	req, err := svc.CreateRequest(visitorIdentity(t), models.RequestTypePostPromotion, post.ID)
	require.NoError(t, err)
	markPaid(t, db, req.ID)

	_, err = svc.Review(req.ID, DecisionApprove, admin)
	require.NoError(t, err)

	var got models.Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.Equal(t, models.HomepagePaymentApproved, got.HomepagePaymentStatus)
}

func TestReviewPromotionRejectLeavesPostUntouched(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")
	admin := createTestAdmin(t, db)

	req, err := svc.CreateRequest(visitorIdentity(t), models.RequestTypePostPromotion, post.ID)
	require.NoError(t, err)
	markPaid(t, db, req.ID)

	reviewed, err := svc.Review(req.ID, DecisionReject, admin)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, reviewed.Status)

	var got models.Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.Empty(t, got.HomepagePaymentStatus)
}

func TestSetDeliveryStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")

	req, err := svc.CreateRequest(visitorIdentity(t), models.RequestTypeContactUnlock, post.ID)
	require.NoError(t, err)

	require.NoError(t, svc.SetDeliveryStatus(req.ID, models.DeliveryStatusSent, "sent via SMS"))

	got, err := svc.GetRequest(req.ID, models.RequestTypeContactUnlock)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusSent, got.DeliveryStatus)
	assert.Equal(t, "sent via SMS", got.DeliveryNotes)

	assert.ErrorIs(t, svc.SetDeliveryStatus(req.ID, "shipped", ""), ErrInvalidDeliveryStatus)
	assert.ErrorIs(t, svc.SetDeliveryStatus("no-such-id", models.DeliveryStatusSent, ""), ErrNotFound)

	promo, err := svc.CreateRequest(visitorIdentity(t), models.RequestTypePostPromotion, post.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.SetDeliveryStatus(promo.ID, models.DeliveryStatusSent, ""), ErrInvalidRequestType)
}

func TestDeleteRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")

	req, err := svc.CreateRequest(visitorIdentity(t), models.RequestTypeContactUnlock, post.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRequest(req.ID))
	_, err = svc.GetRequest(req.ID, models.RequestTypeContactUnlock)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.DeleteRequest(req.ID), ErrNotFound)
}

func TestCanViewContactSelfView(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	posterVisitor := visitorIdentity(t)
	post := createTestPost(t, db, posterVisitor.VisitorID)

	ok, err := svc.CanViewContact(post, posterVisitor)
	require.NoError(t, err)
	assert.True(t, ok)

	// A user-owned post is self-viewable by that user only.
	uid := uint(11)
	userPost := &models.Post{Title: "Cook wanted", Status: models.PostStatusApproved, UserID: &uid}
	require.NoError(t, db.Create(userPost).Error)

	ok, err = svc.CanViewContact(userPost, identity.Identity{UserID: 11})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanViewContact(userPost, identity.Identity{UserID: 12})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanViewContactZeroIdentity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")

	ok, err := svc.CanViewContact(post, identity.Identity{})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanViewContact(nil, visitorIdentity(t))
	require.NoError(t, err)
	assert.False(t, ok)
}

// Full lifecycle: create -> paid -> approved unlocks the contact for the
// requesting visitor and nobody else.
func TestUnlockLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")
	admin := createTestAdmin(t, db)

	visitor := visitorIdentity(t)
	other := visitorIdentity(t)

	req, err := svc.CreateRequest(visitor, models.RequestTypeContactUnlock, post.ID)
	require.NoError(t, err)

	// No approval yet: contact stays masked.
	ok, err := svc.CanViewContact(post, visitor)
	require.NoError(t, err)
	assert.False(t, ok)

	markPaid(t, db, req.ID)

	// Paid but not approved: still masked.
	ok, err = svc.CanViewContact(post, visitor)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Review(req.ID, DecisionApprove, admin)
	require.NoError(t, err)

	ok, err = svc.CanViewContact(post, visitor)
	require.NoError(t, err)
	assert.True(t, ok)

	// A different visitor on the same post remains masked.
	ok, err = svc.CanViewContact(post, other)
	require.NoError(t, err)
	assert.False(t, ok)
}

// A rejected unlock never grants visibility.
func TestRejectedUnlockStaysMasked(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	post := createTestPost(t, db, "")
	admin := createTestAdmin(t, db)
	visitor := visitorIdentity(t)

	req, err := svc.CreateRequest(visitor, models.RequestTypeContactUnlock, post.ID)
	require.NoError(t, err)
	markPaid(t, db, req.ID)

	_, err = svc.Review(req.ID, DecisionReject, admin)
	require.NoError(t, err)

	ok, err := svc.CanViewContact(post, visitor)
	require.NoError(t, err)
	assert.False(t, ok)
}
