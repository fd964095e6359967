package images

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/response"
)

// Handler handles image HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an images handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Upload handles POST /images. Multipart form with "file" and a "type" field
// (event, organization, avatar).
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file")
		return
	}
	t := models.ImageType(c.PostForm("type"))
	switch t {
	case models.ImageTypeEvent, models.ImageTypeOrganization, models.ImageTypeAvatar:
	default:
		response.BadRequest(c, "invalid image type")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer f.Close()

	img, err := h.svc.Upload(c.Request.Context(), t, file.Filename,
		file.Header.Get("Content-Type"), file.Size, f)
	if err != nil {
		if models.IsValidation(err) {
			response.BadRequest(c, err.Error())
			return
		}
		h.logger.Error("image upload failed", zap.Error(err))
		response.Internal(c, "failed to store image")
		return
	}
	response.Created(c, img)
}

// Get handles GET /images/:id. Returns the metadata.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid image id")
		return
	}
	img, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, img)
}

// Serve handles GET /images/:id/content. Redirects to a presigned S3 URL;
// streams the bytes only when presigning fails.
func (h *Handler) Serve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid image id")
		return
	}
	url, err := h.svc.DownloadURL(c.Request.Context(), id)
	if err == nil {
		c.Redirect(http.StatusFound, url)
		return
	}
	if models.IsNotFound(err) {
		response.Error(c, err)
		return
	}
	h.logger.Warn("image presign failed, streaming instead",
		zap.String("image_id", id.String()), zap.Error(err))

	body, contentType, err := h.svc.Open(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		h.logger.Warn("image stream aborted", zap.String("image_id", id.String()), zap.Error(err))
	}
}

// Delete handles DELETE /images/:id (admin).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid image id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
