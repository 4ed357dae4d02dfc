package paymentflow

import (
	"fmt"

	"github.com/citymaid/citymaid/app/models"
	"github.com/citymaid/citymaid/internal/pkg/identity"
)

// CanViewContact decides whether the requester may see the post's contact
// fields unmasked. The original poster always may; anyone else only with an
// approved contact_unlock request for this post. The answer is computed
// fresh from stored state on every call, never cached, so it can not go
// stale relative to an approval.
func (s *Service) CanViewContact(post *models.Post, requester identity.Identity) (bool, error) {
	if post == nil || requester.IsZero() {
		return false, nil
	}

	// Self-view
	if requester.IsUser() && post.UserID != nil && *post.UserID == requester.UserID {
		return true, nil
	}
	if requester.IsVisitor() && post.VisitorID != "" && post.VisitorID == requester.VisitorID {
		return true, nil
	}

	ok, err := s.requests.HasApprovedUnlock(post.ID, requester.UserID, requester.VisitorID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return ok, nil
}
