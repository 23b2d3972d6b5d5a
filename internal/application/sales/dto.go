package sales

import (
	"time"

	"github.com/erp/muhasebe/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineRequest is one sales order line
type OrderLineRequest struct {
	ProductID    *uuid.UUID      `json:"product_id"`
	Description  string          `json:"description" binding:"required,min=1,max=500"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice    decimal.Decimal `json:"unit_price" binding:"required"`
	DiscountRate decimal.Decimal `json:"discount_rate" binding:"percent"`
	TaxRate      decimal.Decimal `json:"tax_rate" binding:"vat_rate"`
}

func (r OrderLineRequest) toDomain() sales.LineInput {
	return sales.LineInput{
		ProductID:    r.ProductID,
		Description:  r.Description,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		DiscountRate: r.DiscountRate,
		TaxRate:      r.TaxRate,
	}
}

// CreateSalesOrderRequest creates a draft sales order
type CreateSalesOrderRequest struct {
	PartnerID      uuid.UUID          `json:"partner_id" binding:"required"`
	OrderDate      *time.Time         `json:"order_date"`
	PaymentTerm    string             `json:"payment_term" binding:"omitempty,oneof=immediate net15 net30 net60 net90"`
	AmountDiscount decimal.Decimal    `json:"amount_discount"`
	Notes          string             `json:"notes"`
	Lines          []OrderLineRequest `json:"lines" binding:"omitempty,dive"`
}

// SendQuotationRequest sends a draft as a quotation
type SendQuotationRequest struct {
	ValidityDate *time.Time `json:"validity_date"`
}

// SalesOrderLineResponse represents an order line in API responses
type SalesOrderLineResponse struct {
	ID            uuid.UUID       `json:"id"`
	Sequence      int             `json:"sequence"`
	ProductID     *uuid.UUID      `json:"product_id,omitempty"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	DiscountRate  decimal.Decimal `json:"discount_rate"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	PriceSubtotal decimal.Decimal `json:"price_subtotal"`
	PriceTax      decimal.Decimal `json:"price_tax"`
	PriceTotal    decimal.Decimal `json:"price_total"`
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID               uuid.UUID                `json:"id"`
	Name             string                   `json:"name"`
	PartnerID        uuid.UUID                `json:"partner_id"`
	State            string                   `json:"state"`
	OrderDate        time.Time                `json:"order_date"`
	ValidityDate     *time.Time               `json:"validity_date,omitempty"`
	ConfirmationDate *time.Time               `json:"confirmation_date,omitempty"`
	DeliveryDate     *time.Time               `json:"delivery_date,omitempty"`
	PaymentTerm      string                   `json:"payment_term"`
	PaymentDueDate   *time.Time               `json:"payment_due_date,omitempty"`
	AmountUntaxed    decimal.Decimal          `json:"amount_untaxed"`
	AmountTax        decimal.Decimal          `json:"amount_tax"`
	AmountDiscount   decimal.Decimal          `json:"amount_discount"`
	AmountTotal      decimal.Decimal          `json:"amount_total"`
	Notes            string                   `json:"notes,omitempty"`
	Lines            []SalesOrderLineResponse `json:"lines"`
	Version          int                      `json:"version"`
}

// ToSalesOrderResponse converts a domain order to a response
func ToSalesOrderResponse(o *sales.SalesOrder) SalesOrderResponse {
	lines := make([]SalesOrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = SalesOrderLineResponse{
			ID:            l.ID,
			Sequence:      l.Sequence,
			ProductID:     l.ProductID,
			Description:   l.Description,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			DiscountRate:  l.DiscountRate,
			TaxRate:       l.TaxRate,
			PriceSubtotal: l.PriceSubtotal,
			PriceTax:      l.PriceTax,
			PriceTotal:    l.PriceTotal,
		}
	}
	return SalesOrderResponse{
		ID:               o.ID,
		Name:             o.Name,
		PartnerID:        o.PartnerID,
		State:            string(o.State),
		OrderDate:        o.OrderDate,
		ValidityDate:     o.ValidityDate,
		ConfirmationDate: o.ConfirmationDate,
		DeliveryDate:     o.DeliveryDate,
		PaymentTerm:      string(o.PaymentTerm),
		PaymentDueDate:   o.PaymentDueDate(),
		AmountUntaxed:    o.AmountUntaxed,
		AmountTax:        o.AmountTax,
		AmountDiscount:   o.AmountDiscount,
		AmountTotal:      o.AmountTotal,
		Notes:            o.Notes,
		Lines:            lines,
		Version:          o.Version,
	}
}

// SalesOrderListFilter represents filter options for the order list
type SalesOrderListFilter struct {
	PartnerID *uuid.UUID `form:"-"`
	State     string     `form:"state" binding:"omitempty,oneof=draft quotation confirmed delivered cancelled"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size" binding:"omitempty,max=100"`
}
