package emaillogs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventbuddy/backend/pkg/response"
)

// Handler handles email log HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an email logs handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListByEvent handles GET /events/:id/emails. Returns email logs for the event.
// Call after RequireRole(admin) so access is already validated.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	logs, err := h.svc.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, logs)
}

// Resend handles POST /events/:id/emails/:logId/resend. Re-enqueues the
// confirmation email for the booking behind the log entry.
func (h *Handler) Resend(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	logID, err := uuid.Parse(c.Param("logId"))
	if err != nil {
		response.BadRequest(c, "invalid email log id")
		return
	}
	el, err := h.svc.Resend(c.Request.Context(), eventID, logID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, el)
}
