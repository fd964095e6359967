package organizations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/middleware"
	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/response"
)

// CreateRequest is the body for POST /organizations.
type CreateRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Website     string          `json:"website"`
	Location    models.Location `json:"location"`
	Contact     models.Contact  `json:"contact"`
	ImageID     *uuid.UUID      `json:"image_id"`
}

// UpdateRequest is the body for PATCH /organizations/:id.
type UpdateRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Website     *string          `json:"website"`
	Location    *models.Location `json:"location"`
	Contact     *models.Contact  `json:"contact"`
}

// OwnerRequest is the body for owner mutations.
type OwnerRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an organizations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// canManage reports whether the caller may manage the organization.
func canManage(c *gin.Context, org *models.Organization) bool {
	role, _ := middleware.UserRole(c)
	if role == models.RoleAdmin || role == models.RoleSuperAdmin {
		return true
	}
	userID, ok := middleware.UserID(c)
	return ok && org.HasOwner(userID)
}

// List handles GET /organizations.
func (h *Handler) List(c *gin.Context) {
	if slug := c.Query("slug"); slug != "" {
		o, err := h.svc.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, o)
		return
	}
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /organizations/mine.
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	list, err := h.svc.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /organizations/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	o, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, o)
}

// Create handles POST /organizations. The caller becomes the first owner.
func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	o, err := h.svc.Create(c.Request.Context(), CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
		Location:    req.Location,
		Contact:     req.Contact,
		ImageID:     req.ImageID,
	}, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, o)
}

// Update handles PATCH /organizations/:id (owner or admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	existing, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canManage(c, existing) {
		response.Forbidden(c, "only owners can update the organization")
		return
	}
	o, err := h.svc.Update(c.Request.Context(), id, UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
		Location:    req.Location,
		Contact:     req.Contact,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, o)
}

// AddOwner handles POST /organizations/:id/owners (owner or admin).
func (h *Handler) AddOwner(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	var req OwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	existing, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canManage(c, existing) {
		response.Forbidden(c, "only owners can add owners")
		return
	}
	o, err := h.svc.AddOwner(c.Request.Context(), id, req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, o)
}

// RemoveOwner handles DELETE /organizations/:id/owners/:userId (owner or admin).
func (h *Handler) RemoveOwner(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	existing, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canManage(c, existing) {
		response.Forbidden(c, "only owners can remove owners")
		return
	}
	o, err := h.svc.RemoveOwner(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, o)
}

// Delete handles DELETE /organizations/:id (owner or admin).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	existing, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canManage(c, existing) {
		response.Forbidden(c, "only owners can delete the organization")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
