package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/citymaid/citymaid/app/models"
	"github.com/citymaid/citymaid/app/repository"
	"github.com/citymaid/citymaid/internal/pkg/counter"
	"github.com/citymaid/citymaid/internal/pkg/identity"
	"github.com/citymaid/citymaid/internal/pkg/paymentflow"
)

type createPostRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	City         string `json:"city"`
	Salary       string `json:"salary"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email"`
}

// POST /api/v1/posts
// Users and visitors may post. Listings start pending until an admin
// approves them.
func HandleCreatePost(c *fiber.Ctx) error {
	actor, err := identity.FromContext(c)
	if err != nil {
		return workflowError(c, err)
	}

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	post := &models.Post{
		Title:        req.Title,
		Description:  req.Description,
		City:         req.City,
		Salary:       req.Salary,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Status:       models.PostStatusPending,
	}
	if actor.IsUser() {
		uid := actor.UserID
		post.UserID = &uid
	} else {
		post.VisitorID = actor.VisitorID
	}

	if err := post.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := repository.GetGlobalRepositories().Post.Create(post); err != nil {
		fiberlog.Errorf("post create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": post.ID, "uuid": post.UUID, "status": post.Status})
}

// GET /api/v1/posts
// Approved posts only, homepage-promoted first.
func HandleListPosts(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	posts, err := repository.GetGlobalRepositories().Post.ListApproved(c.Query("city"), offset, limit)
	if err != nil {
		fiberlog.Errorf("post list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}

	for i := range posts {
		posts[i].MaskContact()
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// GET /api/v1/posts/:uuid
// Post detail. Contact fields are masked unless the reader is the poster or
// holds an approved unlock.
func HandleGetPost(c *fiber.Ctx) error {
	post, err := repository.GetGlobalRepositories().Post.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return workflowError(c, paymentflow.ErrNotFound)
		}
		fiberlog.Errorf("post load failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	if post.Status != models.PostStatusApproved {
		// Pending/hidden posts are visible to their poster only. An approved
		// contact unlock does not apply here.
		actor, _ := identity.FromContext(c)
		owner := (actor.IsUser() && post.UserID != nil && *post.UserID == actor.UserID) ||
			(actor.IsVisitor() && post.VisitorID != "" && post.VisitorID == actor.VisitorID)
		if !owner {
			return workflowError(c, paymentflow.ErrNotFound)
		}
	}

	if err := counter.AddPostView(post.ID); err != nil {
		fiberlog.Warnf("view counter failed for post %d: %v", post.ID, err)
	}

	visible := false
	if actor, err := identity.FromContext(c); err == nil {
		visible, err = getFlow().CanViewContact(post, actor)
		if err != nil {
			return workflowError(c, err)
		}
	}
	if !visible {
		post.MaskContact()
	}

	return c.JSON(fiber.Map{"post": post, "contact_visible": visible})
}

// GET /api/v1/posts/:uuid/contact-visibility
func HandleContactVisibility(c *fiber.Ctx) error {
	actor, err := identity.FromContext(c)
	if err != nil {
		return workflowError(c, err)
	}

	post, err := repository.GetGlobalRepositories().Post.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return workflowError(c, paymentflow.ErrNotFound)
		}
		fiberlog.Errorf("post load failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}

	visible, err := getFlow().CanViewContact(post, actor)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(fiber.Map{"visible": visible})
}
