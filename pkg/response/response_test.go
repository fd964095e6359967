package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eventbuddy/backend/internal/models"
)

func TestError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", models.NewNotFound("event", uuid.New()), http.StatusNotFound},
		{"validation", models.NewValidation("tickets must be positive"), http.StatusBadRequest},
		{"duplicate booking", models.ErrDuplicateBooking, http.StatusConflict},
		{"capacity exceeded", models.ErrCapacityExceeded, http.StatusConflict},
		{"last owner", models.ErrLastOwner, http.StatusConflict},
		{"version conflict", models.ErrVersionConflict, http.StatusConflict},
		{"inventory invariant", models.ErrInventoryInvariant, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Error(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestError_InternalIsOpaque(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, models.ErrInventoryInvariant)
	assert.NotContains(t, w.Body.String(), "invariant")
}
