package handler

import (
	accountingapp "github.com/erp/muhasebe/internal/application/accounting"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *accountingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *accountingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Create handles POST /invoices. Line totals and header amounts are computed
// server side; the invoice starts as TASLAK.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req accountingapp.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID handles GET /invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter accountingapp.InvoiceListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.PartnerID, ok = h.QueryUUID(c, "partner_id"); !ok {
		return
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// ChangeStatus handles POST /invoices/:id/status
func (h *InvoiceHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req accountingapp.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.ChangeStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// AddLine handles POST /invoices/:id/lines
func (h *InvoiceHandler) AddLine(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req accountingapp.InvoiceLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.AddLine(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// RecordPayment handles POST /invoices/:id/payments
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req accountingapp.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}
