package events

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/middleware"
	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/response"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	OrganizationID    uuid.UUID       `json:"organization_id" binding:"required"`
	Title             string          `json:"title" binding:"required"`
	Description       string          `json:"description"`
	EventDateTime     time.Time       `json:"event_date_time" binding:"required"`
	Location          models.Location `json:"location"`
	Price             float64         `json:"price"`
	MaxTicketCapacity *int            `json:"max_ticket_capacity"`
	MaxPerBooking     *int            `json:"max_per_booking"`
	ImageID           *uuid.UUID      `json:"image_id"`
}

// UpdateRequest is the body for PUT /events/:id.
type UpdateRequest struct {
	Title             string          `json:"title" binding:"required"`
	Description       string          `json:"description"`
	EventDateTime     time.Time       `json:"event_date_time" binding:"required"`
	Location          models.Location `json:"location"`
	Price             float64         `json:"price"`
	MaxTicketCapacity *int            `json:"max_ticket_capacity"`
	MaxPerBooking     *int            `json:"max_per_booking"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc    *Service
	orgs   OrganizationStore
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(svc *Service, orgs OrganizationStore, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, orgs: orgs, logger: logger}
}

// canManage reports whether the caller may manage events of the organization.
func (h *Handler) canManage(c *gin.Context, orgID uuid.UUID) bool {
	role, _ := middleware.UserRole(c)
	if role == models.RoleAdmin || role == models.RoleSuperAdmin {
		return true
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		return false
	}
	org, err := h.orgs.GetByID(c.Request.Context(), orgID)
	if err != nil {
		return false
	}
	return org.HasOwner(userID)
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	if orgParam := c.Query("organization_id"); orgParam != "" {
		orgID, err := uuid.Parse(orgParam)
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			return
		}
		list, err := h.svc.ListByOrganization(c.Request.Context(), orgID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, list)
		return
	}
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /events/mine. Events hosted by organizations the
// caller owns.
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

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, e)
}

// Create handles POST /events (organization owner or admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !h.canManage(c, req.OrganizationID) {
		response.Forbidden(c, "only organization owners can create events")
		return
	}
	e, err := h.svc.Create(c.Request.Context(), CreateParams{
		OrganizationID:    req.OrganizationID,
		Title:             req.Title,
		Description:       req.Description,
		EventDateTime:     req.EventDateTime,
		Location:          req.Location,
		Price:             req.Price,
		MaxTicketCapacity: req.MaxTicketCapacity,
		MaxPerBooking:     req.MaxPerBooking,
		ImageID:           req.ImageID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, e)
}

// Update handles PUT /events/:id (organization owner or admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
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
	if !h.canManage(c, existing.OrganizationID) {
		response.Forbidden(c, "only organization owners can update events")
		return
	}
	e, err := h.svc.Update(c.Request.Context(), id, UpdateParams{
		Title:             req.Title,
		Description:       req.Description,
		EventDateTime:     req.EventDateTime,
		Location:          req.Location,
		Price:             req.Price,
		MaxTicketCapacity: req.MaxTicketCapacity,
		MaxPerBooking:     req.MaxPerBooking,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /events/:id (organization owner or admin).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	existing, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.canManage(c, existing.OrganizationID) {
		response.Forbidden(c, "only organization owners can delete events")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
