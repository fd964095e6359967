package bookings

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/middleware"
	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/response"
)

// CreateRequest is the body for POST /events/:id/bookings.
type CreateRequest struct {
	Name            string `json:"name" binding:"required"`
	NumberOfTickets int    `json:"number_of_tickets" binding:"required,min=1"`
}

// Handler handles booking HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /events/:id/bookings.
func (h *Handler) Create(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
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
	res, err := h.svc.Create(c.Request.Context(), eventID, userID, req.NumberOfTickets, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListMine handles GET /bookings. The caller's bookings.
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	list, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListByEvent handles GET /events/:id/bookings (admin).
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.svc.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /bookings/:id. Only the booking's user or an admin
// may cancel it.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	b, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	userID, _ := middleware.UserID(c)
	role, _ := middleware.UserRole(c)
	if b.UserID != userID && role != models.RoleAdmin && role != models.RoleSuperAdmin {
		response.Forbidden(c, "not your booking")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
