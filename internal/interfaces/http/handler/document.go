package handler

import (
	"context"
	"strings"
	"time"

	documentapp "github.com/erp/muhasebe/internal/application/document"
	"github.com/erp/muhasebe/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ArchiveLinker issues time-limited download links for archived documents
type ArchiveLinker interface {
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
}

// DocumentHandler handles OCR intake and archive downloads
type DocumentHandler struct {
	BaseHandler
	intakeService *documentapp.IntakeService
	archive       ArchiveLinker
}

// NewDocumentHandler creates a new DocumentHandler. archive may be nil when
// object storage is disabled.
func NewDocumentHandler(intakeService *documentapp.IntakeService, archive ArchiveLinker) *DocumentHandler {
	return &DocumentHandler{intakeService: intakeService, archive: archive}
}

// ArchiveURLResponse is a presigned download link
type ArchiveURLResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type archiveURLQuery struct {
	Key string `form:"key" binding:"required,max=512"`
}

// Parse handles POST /documents/parse
func (h *DocumentHandler) Parse(c *gin.Context) {
	var req documentapp.ParseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	parsed, err := h.intakeService.Parse(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, parsed)
}

// ArchiveURL handles GET /documents/archive-url?key=
func (h *DocumentHandler) ArchiveURL(c *gin.Context) {
	if h.archive == nil {
		h.Error(c, dto.ErrCodeFeatureDisabled, "Document archive is not configured")
		return
	}
	var q archiveURLQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if strings.Contains(q.Key, "..") || strings.HasPrefix(q.Key, "/") {
		h.BadRequest(c, "Invalid archive key")
		return
	}

	url, expiresAt, err := h.archive.DownloadURL(c.Request.Context(), q.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ArchiveURLResponse{Key: q.Key, URL: url, ExpiresAt: expiresAt})
}
