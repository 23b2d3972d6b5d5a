package handler

import (
	"context"

	salesapp "github.com/erp/muhasebe/internal/application/sales"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SalesOrderHandler handles sales order endpoints
type SalesOrderHandler struct {
	BaseHandler
	orderService *salesapp.SalesOrderService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orderService *salesapp.SalesOrderService) *SalesOrderHandler {
	return &SalesOrderHandler{orderService: orderService}
}

// Create handles POST /sales-orders
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req salesapp.CreateSalesOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// GetByID handles GET /sales-orders/:id
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List handles GET /sales-orders
func (h *SalesOrderHandler) List(c *gin.Context) {
	var filter salesapp.SalesOrderListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.PartnerID, ok = h.QueryUUID(c, "partner_id"); !ok {
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// CountByState handles GET /sales-orders/stats/count
func (h *SalesOrderHandler) CountByState(c *gin.Context) {
	counts, err := h.orderService.CountByState(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counts)
}

// AddLine handles POST /sales-orders/:id/lines
func (h *SalesOrderHandler) AddLine(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req salesapp.OrderLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orderService.AddLine(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// RemoveLine handles DELETE /sales-orders/:id/lines/:line_id
func (h *SalesOrderHandler) RemoveLine(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}
	lineID, ok := h.ParamUUID(c, "line_id")
	if !ok {
		return
	}

	order, err := h.orderService.RemoveLine(c.Request.Context(), id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// SendQuotation handles POST /sales-orders/:id/quotation
func (h *SalesOrderHandler) SendQuotation(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req salesapp.SendQuotationRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orderService.SendQuotation(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Confirm handles POST /sales-orders/:id/confirm
func (h *SalesOrderHandler) Confirm(c *gin.Context) {
	h.transition(c, h.orderService.Confirm)
}

// Deliver handles POST /sales-orders/:id/deliver
func (h *SalesOrderHandler) Deliver(c *gin.Context) {
	h.transition(c, h.orderService.Deliver)
}

// Cancel handles POST /sales-orders/:id/cancel
func (h *SalesOrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.orderService.Cancel)
}

// Delete handles DELETE /sales-orders/:id. Only draft and cancelled orders
// can be deleted.
func (h *SalesOrderHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *SalesOrderHandler) transition(c *gin.Context, apply func(ctx context.Context, id uuid.UUID) (*salesapp.SalesOrderResponse, error)) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	order, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
