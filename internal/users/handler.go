package users

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/middleware"
	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/response"
)

// UpdateRequest is the body for PATCH /users/me.
type UpdateRequest struct {
	Name      *string              `json:"name"`
	AvatarURL *string              `json:"avatar_url"`
	Settings  *models.UserSettings `json:"settings"`
}

// RoleRequest is the body for PUT /users/:id/role (admin).
type RoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// Handler handles user HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Me handles GET /users/me.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	u, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u)
}

// Get handles GET /users/:id. The profile filtered through its visibility
// settings.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	p, err := h.svc.GetPublic(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// List handles GET /users (admin).
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// UpdateMe handles PATCH /users/me.
func (h *Handler) UpdateMe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	u, err := h.svc.Update(c.Request.Context(), userID, UpdateParams{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		Settings:  req.Settings,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u)
}

// SetRole handles PUT /users/:id/role (admin).
func (h *Handler) SetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	u, err := h.svc.SetRole(c.Request.Context(), id, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u)
}

// DeleteMe handles DELETE /users/me. Fails when the caller is the sole owner
// of any organization.
func (h *Handler) DeleteMe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete handles DELETE /users/:id (admin).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
