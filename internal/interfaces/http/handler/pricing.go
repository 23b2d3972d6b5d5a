package handler

import (
	pricingapp "github.com/erp/muhasebe/internal/application/pricing"
	"github.com/gin-gonic/gin"
)

// PricingHandler previews line and document totals without storing anything
type PricingHandler struct {
	BaseHandler
	previewService *pricingapp.PreviewService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(previewService *pricingapp.PreviewService) *PricingHandler {
	return &PricingHandler{previewService: previewService}
}

// Preview handles POST /pricing/lines
func (h *PricingHandler) Preview(c *gin.Context) {
	var req pricingapp.PreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	preview, err := h.previewService.Preview(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}
