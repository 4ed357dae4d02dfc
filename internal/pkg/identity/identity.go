package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/citymaid/citymaid/internal/pkg/usercontext"
)

// ErrIdentityMissing is returned when an operation requires an acting party
// and neither an authenticated session nor a visitor token is present. The
// server never fabricates visitor tokens; generating and persisting one is
// the client's job so the same visitor is recognized across requests.
var ErrIdentityMissing = errors.New("identity missing")

// Identity names exactly one acting party: an authenticated user (UserID
// set) or an anonymous visitor (VisitorID set). Never both.
type Identity struct {
	UserID    uint
	VisitorID string
}

// IsUser reports whether the identity is an authenticated account.
func (id Identity) IsUser() bool {
	return id.UserID != 0
}

// IsVisitor reports whether the identity is an anonymous visitor.
func (id Identity) IsVisitor() bool {
	return id.UserID == 0 && id.VisitorID != ""
}

// IsZero reports whether no acting party could be resolved.
func (id Identity) IsZero() bool {
	return id.UserID == 0 && id.VisitorID == ""
}

// Resolve produces the acting identity from an authenticated user ID and a
// client-presented visitor token. An authenticated session always wins over
// the visitor token. Malformed visitor tokens are treated as absent.
func Resolve(userID uint, visitorToken string) (Identity, error) {
	if userID != 0 {
		return Identity{UserID: userID}, nil
	}
	if visitorToken != "" {
		if _, err := uuid.Parse(visitorToken); err == nil {
			return Identity{VisitorID: visitorToken}, nil
		}
	}
	return Identity{}, ErrIdentityMissing
}

// FromContext resolves the acting identity for the current request: the
// session user if logged in, otherwise the visitor cookie.
func FromContext(c *fiber.Ctx) (Identity, error) {
	uctx := usercontext.GetUserContext(c)
	if uctx.IsLoggedIn {
		return Resolve(uctx.UserID, "")
	}
	return Resolve(0, c.Cookies(usercontext.VisitorCookie))
}
