package handler

import (
	posapp "github.com/erp/muhasebe/internal/application/pos"
	"github.com/gin-gonic/gin"
)

// POSHandler handles point-of-sale sessions and receipts
type POSHandler struct {
	BaseHandler
	posService *posapp.POSService
}

// NewPOSHandler creates a new POSHandler
func NewPOSHandler(posService *posapp.POSService) *POSHandler {
	return &POSHandler{posService: posService}
}

// OpenSession handles POST /pos/sessions. A cashier can hold only one open
// session at a time.
func (h *POSHandler) OpenSession(c *gin.Context) {
	var req posapp.OpenSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.posService.OpenSession(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// GetSession handles GET /pos/sessions/:id
func (h *POSHandler) GetSession(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	session, err := h.posService.GetSession(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// CreateOrder handles POST /pos/sessions/:id/orders
func (h *POSHandler) CreateOrder(c *gin.Context) {
	sessionID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req posapp.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.posService.CreateOrder(c.Request.Context(), sessionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// ListOrders handles GET /pos/sessions/:id/orders
func (h *POSHandler) ListOrders(c *gin.Context) {
	sessionID, ok := h.ParamID(c)
	if !ok {
		return
	}

	orders, err := h.posService.ListOrders(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}

// CloseSession handles POST /pos/sessions/:id/close
func (h *POSHandler) CloseSession(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req posapp.CloseSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.posService.CloseSession(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}
