package handler

import (
	inventoryapp "github.com/erp/muhasebe/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// ProductHandler handles product, location and inventory overview endpoints
type ProductHandler struct {
	BaseHandler
	productService *inventoryapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *inventoryapp.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

type lowStockQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetByID handles GET /products/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Update handles PUT /products/:id. Stock quantities cannot be changed here;
// they only move through stock moves.
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req inventoryapp.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var filter inventoryapp.ProductListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	products, total, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, products, total, filter.Page, filter.PageSize)
}

// LowStock handles GET /products/low-stock
func (h *ProductHandler) LowStock(c *gin.Context) {
	var q lowStockQuery
	if !h.BindQuery(c, &q) {
		return
	}

	items, err := h.productService.LowStock(c.Request.Context(), q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Dashboard handles GET /inventory/dashboard
func (h *ProductHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.productService.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dashboard)
}

// CreateLocation handles POST /locations
func (h *ProductHandler) CreateLocation(c *gin.Context) {
	var req inventoryapp.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	location, err := h.productService.CreateLocation(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, location)
}

// ListLocations handles GET /locations
func (h *ProductHandler) ListLocations(c *gin.Context) {
	locations, err := h.productService.ListLocations(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, locations)
}
