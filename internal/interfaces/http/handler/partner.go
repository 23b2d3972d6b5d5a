package handler

import (
	accountingapp "github.com/erp/muhasebe/internal/application/accounting"
	"github.com/gin-gonic/gin"
)

// PartnerHandler handles customer and supplier endpoints
type PartnerHandler struct {
	BaseHandler
	partnerService *accountingapp.PartnerService
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(partnerService *accountingapp.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

type partnerListQuery struct {
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size" binding:"omitempty,max=100"`
	PartnerType string `form:"partner_type" binding:"omitempty,oneof=CUSTOMER SUPPLIER BOTH"`
	Search      string `form:"search" binding:"max=100"`
}

// Create handles POST /partners
func (h *PartnerHandler) Create(c *gin.Context) {
	var req accountingapp.CreatePartnerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	partner, err := h.partnerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, partner)
}

// GetByID handles GET /partners/:id
func (h *PartnerHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	partner, err := h.partnerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, partner)
}

// Update handles PUT /partners/:id
func (h *PartnerHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req accountingapp.UpdatePartnerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	partner, err := h.partnerService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, partner)
}

// List handles GET /partners
func (h *PartnerHandler) List(c *gin.Context) {
	var q partnerListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	partners, total, err := h.partnerService.List(c.Request.Context(), q.Page, q.PageSize, q.PartnerType, q.Search)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, partners, total, q.Page, q.PageSize)
}

// GetBalance handles GET /partners/:id/balance
func (h *PartnerHandler) GetBalance(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	balance, err := h.partnerService.GetBalance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}
