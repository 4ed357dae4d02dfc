package paymentflow

import (
	"errors"

	"github.com/citymaid/citymaid/app/repository"
)

// Workflow error taxonomy. Controllers map these to HTTP statuses at the
// edge; downstream causes are wrapped and logged server-side only.
var (
	// ErrUnauthorized means the actor lacks the required role or identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means no record matches the given identifier.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition means the operation is not permitted from
	// the request's current status.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrDuplicateActiveRequest means the requester already has a pending
	// or paid request for the same target and type.
	ErrDuplicateActiveRequest = repository.ErrDuplicateActiveRequest

	// ErrInvalidDeliveryStatus means the given delivery status is not one
	// of pending, sent, failed, manual.
	ErrInvalidDeliveryStatus = errors.New("invalid delivery status")

	// ErrInvalidRequestType means the given request type is not one of
	// contact_unlock, post_promotion.
	ErrInvalidRequestType = errors.New("invalid request type")

	// ErrInvalidDecision means the review decision is not approve/reject.
	ErrInvalidDecision = errors.New("invalid review decision")

	// ErrStorageUnavailable wraps downstream database or object-store
	// failures surfaced to callers as a generic failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
