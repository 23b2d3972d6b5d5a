package inventory

import (
	"fmt"
	"strings"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductType classifies how a product participates in stock tracking
type ProductType string

const (
	ProductTypeStorable   ProductType = "storable"
	ProductTypeConsumable ProductType = "consumable"
	ProductTypeService    ProductType = "service"
)

// IsValid checks if the product type is valid
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeStorable, ProductTypeConsumable, ProductTypeService:
		return true
	}
	return false
}

// DefaultTaxRate is the standard KDV rate applied to new products.
var DefaultTaxRate = decimal.NewFromInt(20)

// Product is the aggregate root holding catalogue data and aggregate stock
// fields. VirtualAvailable is always QtyAvailable − QtyReserved and is only
// written by recomputeVirtual.
type Product struct {
	shared.BaseAggregateRoot
	Code             string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Barcode          string          `gorm:"type:varchar(50);index"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Description      string          `gorm:"type:text"`
	ProductType      ProductType     `gorm:"type:varchar(20);not null;default:'storable'"`
	ListPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UOM              string          `gorm:"column:uom;type:varchar(20);not null;default:'Adet'"`
	TaxRate          decimal.Decimal `gorm:"type:decimal(5,2);not null;default:20"`
	QtyAvailable     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QtyReserved      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VirtualAvailable decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinStock         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MaxStock         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderPoint     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive         bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with zero stock
func NewProduct(code, name string, productType ProductType, uom string) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewInvalidInput("product code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewInvalidInput("product name cannot be empty")
	}
	if productType == "" {
		productType = ProductTypeStorable
	}
	if !productType.IsValid() {
		return nil, shared.NewInvalidInput("invalid product type %q", string(productType))
	}
	if uom == "" {
		uom = "Adet"
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		ProductType:       productType,
		UOM:               uom,
		TaxRate:           DefaultTaxRate,
		ListPrice:         decimal.Zero,
		CostPrice:         decimal.Zero,
		QtyAvailable:      decimal.Zero,
		QtyReserved:       decimal.Zero,
		VirtualAvailable:  decimal.Zero,
		MinStock:          decimal.Zero,
		MaxStock:          decimal.Zero,
		ReorderPoint:      decimal.Zero,
		IsActive:          true,
	}, nil
}

// ProductCode formats the sequential product code, e.g. PRD00042.
func ProductCode(seq int64) string {
	return fmt.Sprintf("PRD%05d", seq)
}

func (p *Product) recomputeVirtual() {
	p.VirtualAvailable = p.QtyAvailable.Sub(p.QtyReserved)
}

// applyStockDelta sets on-hand quantity to available and recomputes the
// virtual quantity. It is the only path a stock move uses to touch stock.
func (p *Product) applyStockDelta(available decimal.Decimal) {
	p.QtyAvailable = available
	p.recomputeVirtual()
	p.Touch()
	p.IncrementVersion()
}

// Reserve sets aside quantity for a pending order
func (p *Product) Reserve(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewInvalidInput("reserve quantity must be positive")
	}
	p.QtyReserved = p.QtyReserved.Add(quantity)
	p.recomputeVirtual()
	p.Touch()
	p.IncrementVersion()
	return nil
}

// ReleaseReservation returns reserved quantity to the free pool
func (p *Product) ReleaseReservation(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewInvalidInput("release quantity must be positive")
	}
	if quantity.GreaterThan(p.QtyReserved) {
		return shared.NewInvalidInput("cannot release %s, only %s reserved", quantity, p.QtyReserved)
	}
	p.QtyReserved = p.QtyReserved.Sub(quantity)
	p.recomputeVirtual()
	p.Touch()
	p.IncrementVersion()
	return nil
}

// AdjustStock is the administrative edit of stock fields.
func (p *Product) AdjustStock(available, reserved decimal.Decimal) error {
	if reserved.IsNegative() {
		return shared.NewInvalidInput("reserved quantity cannot be negative")
	}
	p.QtyAvailable = available
	p.QtyReserved = reserved
	p.recomputeVirtual()
	p.Touch()
	p.IncrementVersion()
	return nil
}

// IsBelowReorderPoint reports whether the product needs replenishment.
// Products without a reorder point are never reported.
func (p *Product) IsBelowReorderPoint() bool {
	return p.ReorderPoint.IsPositive() && p.VirtualAvailable.LessThanOrEqual(p.ReorderPoint)
}

// StockValue returns on-hand quantity valued at cost
func (p *Product) StockValue() decimal.Decimal {
	return p.QtyAvailable.Mul(p.CostPrice)
}

// ProductUpdate lists the mutable catalogue fields. Nil fields are left
// unchanged. Stock quantities are not part of it; use AdjustStock.
type ProductUpdate struct {
	Name         *string
	Description  *string
	Barcode      *string
	ListPrice    *decimal.Decimal
	CostPrice    *decimal.Decimal
	UOM          *string
	TaxRate      *decimal.Decimal
	MinStock     *decimal.Decimal
	MaxStock     *decimal.Decimal
	ReorderPoint *decimal.Decimal
	IsActive     *bool
}

// ApplyUpdate merges the non-nil fields of u after validating all of them.
func (p *Product) ApplyUpdate(u ProductUpdate) error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return shared.NewInvalidInput("product name cannot be empty")
	}
	for field, v := range map[string]*decimal.Decimal{
		"list_price":    u.ListPrice,
		"cost_price":    u.CostPrice,
		"tax_rate":      u.TaxRate,
		"min_stock":     u.MinStock,
		"max_stock":     u.MaxStock,
		"reorder_point": u.ReorderPoint,
	} {
		if v != nil && v.IsNegative() {
			return shared.NewInvalidInput("%s cannot be negative", field)
		}
	}

	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Barcode != nil {
		p.Barcode = *u.Barcode
	}
	if u.ListPrice != nil {
		p.ListPrice = *u.ListPrice
	}
	if u.CostPrice != nil {
		p.CostPrice = *u.CostPrice
	}
	if u.UOM != nil {
		p.UOM = *u.UOM
	}
	if u.TaxRate != nil {
		p.TaxRate = *u.TaxRate
	}
	if u.MinStock != nil {
		p.MinStock = *u.MinStock
	}
	if u.MaxStock != nil {
		p.MaxStock = *u.MaxStock
	}
	if u.ReorderPoint != nil {
		p.ReorderPoint = *u.ReorderPoint
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	p.Touch()
	p.IncrementVersion()
	return nil
}
