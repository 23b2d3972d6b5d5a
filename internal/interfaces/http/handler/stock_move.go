package handler

import (
	inventoryapp "github.com/erp/muhasebe/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// StockMoveHandler handles stock move endpoints
type StockMoveHandler struct {
	BaseHandler
	moveService *inventoryapp.StockMoveService
}

// NewStockMoveHandler creates a new StockMoveHandler
func NewStockMoveHandler(moveService *inventoryapp.StockMoveService) *StockMoveHandler {
	return &StockMoveHandler{moveService: moveService}
}

// Create handles POST /stock-moves. The move starts as DRAFT.
func (h *StockMoveHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateStockMoveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	move, err := h.moveService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, move)
}

// GetByID handles GET /stock-moves/:id
func (h *StockMoveHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	move, err := h.moveService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, move)
}

// List handles GET /stock-moves
func (h *StockMoveHandler) List(c *gin.Context) {
	var filter inventoryapp.StockMoveListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.ProductID, ok = h.QueryUUID(c, "product_id"); !ok {
		return
	}

	moves, total, err := h.moveService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, moves, total, filter.Page, filter.PageSize)
}

// Confirm handles POST /stock-moves/:id/confirm
func (h *StockMoveHandler) Confirm(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	move, err := h.moveService.Confirm(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, move)
}

// Execute handles POST /stock-moves/:id/execute. The product stock and the
// move state change in one transaction; a second execution of the same move
// is rejected with INVALID_TRANSITION.
func (h *StockMoveHandler) Execute(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	result, err := h.moveService.Execute(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel handles POST /stock-moves/:id/cancel
func (h *StockMoveHandler) Cancel(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	move, err := h.moveService.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, move)
}
