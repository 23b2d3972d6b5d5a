package inventory

import (
	"time"

	"github.com/erp/muhasebe/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	Barcode          string          `json:"barcode,omitempty"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	ProductType      string          `json:"product_type"`
	ListPrice        decimal.Decimal `json:"list_price"`
	CostPrice        decimal.Decimal `json:"cost_price"`
	UOM              string          `json:"uom"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	QtyAvailable     decimal.Decimal `json:"qty_available"`
	QtyReserved      decimal.Decimal `json:"qty_reserved"`
	VirtualAvailable decimal.Decimal `json:"virtual_available"`
	MinStock         decimal.Decimal `json:"min_stock"`
	MaxStock         decimal.Decimal `json:"max_stock"`
	ReorderPoint     decimal.Decimal `json:"reorder_point"`
	IsBelowReorder   bool            `json:"is_below_reorder_point"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version"`
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *inventory.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		Code:             p.Code,
		Barcode:          p.Barcode,
		Name:             p.Name,
		Description:      p.Description,
		ProductType:      string(p.ProductType),
		ListPrice:        p.ListPrice,
		CostPrice:        p.CostPrice,
		UOM:              p.UOM,
		TaxRate:          p.TaxRate,
		QtyAvailable:     p.QtyAvailable,
		QtyReserved:      p.QtyReserved,
		VirtualAvailable: p.VirtualAvailable,
		MinStock:         p.MinStock,
		MaxStock:         p.MaxStock,
		ReorderPoint:     p.ReorderPoint,
		IsBelowReorder:   p.IsBelowReorderPoint(),
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Version:          p.Version,
	}
}

// CreateProductRequest represents a request to create a product.
// An empty code is filled from the product sequence.
type CreateProductRequest struct {
	Code         string           `json:"code" binding:"omitempty,max=50"`
	Barcode      string           `json:"barcode" binding:"omitempty,max=50"`
	Name         string           `json:"name" binding:"required,min=1,max=200"`
	Description  string           `json:"description"`
	ProductType  string           `json:"product_type" binding:"omitempty,oneof=storable consumable service"`
	ListPrice    decimal.Decimal  `json:"list_price"`
	CostPrice    decimal.Decimal  `json:"cost_price"`
	UOM          string           `json:"uom" binding:"omitempty,max=20"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	QtyAvailable decimal.Decimal  `json:"qty_available"`
	MinStock     decimal.Decimal  `json:"min_stock"`
	MaxStock     decimal.Decimal  `json:"max_stock"`
	ReorderPoint decimal.Decimal  `json:"reorder_point"`
}

// UpdateProductRequest carries the fields to change. Omitted fields are kept.
type UpdateProductRequest struct {
	Name         *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description  *string          `json:"description"`
	Barcode      *string          `json:"barcode" binding:"omitempty,max=50"`
	ListPrice    *decimal.Decimal `json:"list_price"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	UOM          *string          `json:"uom" binding:"omitempty,max=20"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	MinStock     *decimal.Decimal `json:"min_stock"`
	MaxStock     *decimal.Decimal `json:"max_stock"`
	ReorderPoint *decimal.Decimal `json:"reorder_point"`
	IsActive     *bool            `json:"is_active"`
}

func (r UpdateProductRequest) toDomain() inventory.ProductUpdate {
	return inventory.ProductUpdate{
		Name:         r.Name,
		Description:  r.Description,
		Barcode:      r.Barcode,
		ListPrice:    r.ListPrice,
		CostPrice:    r.CostPrice,
		UOM:          r.UOM,
		TaxRate:      r.TaxRate,
		MinStock:     r.MinStock,
		MaxStock:     r.MaxStock,
		ReorderPoint: r.ReorderPoint,
		IsActive:     r.IsActive,
	}
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search      string `form:"search"`
	ProductType string `form:"product_type"`
	IsActive    *bool  `form:"is_active"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size" binding:"omitempty,max=100"`
	OrderBy     string `form:"order_by" binding:"omitempty,oneof=code name created_at qty_available"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CreateLocationRequest represents a request to create a stock location
type CreateLocationRequest struct {
	Code         string     `json:"code" binding:"omitempty,max=20"`
	Name         string     `json:"name" binding:"required,min=1,max=100"`
	LocationType string     `json:"location_type" binding:"required,oneof=internal customer supplier transit"`
	ParentID     *uuid.UUID `json:"parent_id"`
}

// LocationResponse represents a stock location in API responses
type LocationResponse struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	LocationType string     `json:"location_type"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	IsActive     bool       `json:"is_active"`
}

// ToLocationResponse converts a domain location to a response
func ToLocationResponse(l *inventory.StockLocation) LocationResponse {
	return LocationResponse{
		ID:           l.ID,
		Code:         l.Code,
		Name:         l.Name,
		LocationType: string(l.LocationType),
		ParentID:     l.ParentID,
		IsActive:     l.IsActive,
	}
}

// CreateStockMoveRequest represents a request to create a draft stock move
type CreateStockMoveRequest struct {
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	MoveType       string          `json:"move_type" binding:"required,oneof=IN OUT INTERNAL"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Reference      string          `json:"reference" binding:"omitempty,max=100"`
	LocationFromID *uuid.UUID      `json:"location_from_id"`
	LocationToID   *uuid.UUID      `json:"location_to_id"`
	ScheduledDate  *time.Time      `json:"scheduled_date"`
	Note           string          `json:"note"`
}

// StockMoveResponse represents a stock move in API responses
type StockMoveResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Reference      string          `json:"reference,omitempty"`
	ProductID      uuid.UUID       `json:"product_id"`
	MoveType       string          `json:"move_type"`
	State          string          `json:"state"`
	Quantity       decimal.Decimal `json:"quantity"`
	UOM            string          `json:"uom"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TotalValue     decimal.Decimal `json:"total_value"`
	LocationFromID *uuid.UUID      `json:"location_from_id,omitempty"`
	LocationToID   *uuid.UUID      `json:"location_to_id,omitempty"`
	ScheduledDate  *time.Time      `json:"scheduled_date,omitempty"`
	DoneDate       *time.Time      `json:"done_date,omitempty"`
	Note           string          `json:"note,omitempty"`
	Version        int             `json:"version"`
}

// ToStockMoveResponse converts a domain move to a response
func ToStockMoveResponse(m *inventory.StockMove) StockMoveResponse {
	return StockMoveResponse{
		ID:             m.ID,
		Name:           m.Name,
		Reference:      m.Reference,
		ProductID:      m.ProductID,
		MoveType:       string(m.MoveType),
		State:          string(m.State),
		Quantity:       m.Quantity,
		UOM:            m.UOM,
		UnitPrice:      m.UnitPrice,
		TotalValue:     m.TotalValue,
		LocationFromID: m.LocationFromID,
		LocationToID:   m.LocationToID,
		ScheduledDate:  m.ScheduledDate,
		DoneDate:       m.DoneDate,
		Note:           m.Note,
		Version:        m.Version,
	}
}

// ExecuteMoveResponse reports the move and the product stock after execution
type ExecuteMoveResponse struct {
	Move    StockMoveResponse `json:"move"`
	Product ProductResponse   `json:"product"`
}

// StockMoveListFilter represents filter options for the move list
type StockMoveListFilter struct {
	ProductID *uuid.UUID `form:"-"`
	State     string     `form:"state" binding:"omitempty,oneof=DRAFT CONFIRMED DONE CANCELLED"`
	MoveType  string     `form:"move_type" binding:"omitempty,oneof=IN OUT INTERNAL"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size" binding:"omitempty,max=100"`
}
