package pos

import (
	"time"

	"github.com/erp/muhasebe/internal/domain/pos"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenSessionRequest opens a register session for a cashier
type OpenSessionRequest struct {
	UserName    string          `json:"user_name" binding:"required,min=1,max=100"`
	OpeningCash decimal.Decimal `json:"opening_cash"`
}

// CloseSessionRequest closes a session with the counted cash
type CloseSessionRequest struct {
	ClosingCash decimal.Decimal `json:"closing_cash" binding:"required"`
	Notes       string          `json:"notes"`
}

// OrderLineRequest is one scanned item
type OrderLineRequest struct {
	ProductID      *uuid.UUID      `json:"product_id"`
	ProductName    string          `json:"product_name" binding:"required,min=1,max=200"`
	ProductBarcode string          `json:"product_barcode" binding:"max=50"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice      decimal.Decimal `json:"unit_price" binding:"required"`
	DiscountRate   decimal.Decimal `json:"discount_rate" binding:"percent"`
	TaxRate        decimal.Decimal `json:"tax_rate" binding:"vat_rate"`
}

// PaymentRequest is one tender
type PaymentRequest struct {
	PaymentMethod    string          `json:"payment_method" binding:"required,oneof=cash card bank_transfer check"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	CardNumberMasked string          `json:"card_number_masked" binding:"max=20"`
}

// CreateOrderRequest rings up an order in an open session
type CreateOrderRequest struct {
	CustomerName  string             `json:"customer_name" binding:"max=200"`
	CustomerTaxID string             `json:"customer_tax_id" binding:"omitempty,tax_number"`
	Note          string             `json:"note"`
	Lines         []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
	Payments      []PaymentRequest   `json:"payments" binding:"omitempty,dive"`
}

func (r CreateOrderRequest) inputs() ([]pos.LineInput, []pos.PaymentInput) {
	lines := make([]pos.LineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = pos.LineInput{
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			ProductBarcode: l.ProductBarcode,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountRate:   l.DiscountRate,
			TaxRate:        l.TaxRate,
		}
	}
	payments := make([]pos.PaymentInput, len(r.Payments))
	for i, p := range r.Payments {
		payments[i] = pos.PaymentInput{
			Method:           pos.PaymentMethod(p.PaymentMethod),
			Amount:           p.Amount,
			CardNumberMasked: p.CardNumberMasked,
		}
	}
	return lines, payments
}

// SessionResponse represents a register session in API responses
type SessionResponse struct {
	ID                     uuid.UUID        `json:"id"`
	Name                   string           `json:"name"`
	UserName               string           `json:"user_name"`
	State                  string           `json:"state"`
	StartAt                time.Time        `json:"start_at"`
	StopAt                 *time.Time       `json:"stop_at,omitempty"`
	OpeningCash            decimal.Decimal  `json:"opening_cash"`
	ClosingCash            *decimal.Decimal `json:"closing_cash,omitempty"`
	ExpectedCash           decimal.Decimal  `json:"expected_cash"`
	CashRegisterDifference decimal.Decimal  `json:"cash_register_difference"`
	TotalSales             decimal.Decimal  `json:"total_sales"`
	TotalPayments          decimal.Decimal  `json:"total_payments"`
	OrderCount             int              `json:"order_count"`
	Notes                  string           `json:"notes,omitempty"`
}

// ToSessionResponse converts a domain session to a response
func ToSessionResponse(s *pos.Session) SessionResponse {
	return SessionResponse{
		ID:                     s.ID,
		Name:                   s.Name,
		UserName:               s.UserName,
		State:                  string(s.State),
		StartAt:                s.StartAt,
		StopAt:                 s.StopAt,
		OpeningCash:            s.OpeningCash,
		ClosingCash:            s.ClosingCash,
		ExpectedCash:           s.ExpectedCash(),
		CashRegisterDifference: s.CashRegisterDifference,
		TotalSales:             s.TotalSales,
		TotalPayments:          s.TotalPayments,
		OrderCount:             s.OrderCount,
		Notes:                  s.Notes,
	}
}

// OrderLineResponse represents a receipt line
type OrderLineResponse struct {
	ProductName       string          `json:"product_name"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	DiscountRate      decimal.Decimal `json:"discount_rate"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	PriceSubtotal     decimal.Decimal `json:"price_subtotal"`
	PriceSubtotalIncl decimal.Decimal `json:"price_subtotal_incl"`
}

// OrderResponse represents a POS order in API responses
type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	SessionID    uuid.UUID           `json:"session_id"`
	State        string              `json:"state"`
	DateOrder    time.Time           `json:"date_order"`
	CustomerName string              `json:"customer_name,omitempty"`
	AmountTax    decimal.Decimal     `json:"amount_tax"`
	AmountTotal  decimal.Decimal     `json:"amount_total"`
	AmountPaid   decimal.Decimal     `json:"amount_paid"`
	AmountReturn decimal.Decimal     `json:"amount_return"`
	Lines        []OrderLineResponse `json:"lines"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *pos.Order) OrderResponse {
	lines := make([]OrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineResponse{
			ProductName:       l.ProductName,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice,
			DiscountRate:      l.DiscountRate,
			TaxRate:           l.TaxRate,
			PriceSubtotal:     l.PriceSubtotal,
			PriceSubtotalIncl: l.PriceSubtotalIncl,
		}
	}
	return OrderResponse{
		ID:           o.ID,
		Name:         o.Name,
		SessionID:    o.SessionID,
		State:        string(o.State),
		DateOrder:    o.DateOrder,
		CustomerName: o.CustomerName,
		AmountTax:    o.AmountTax,
		AmountTotal:  o.AmountTotal,
		AmountPaid:   o.AmountPaid,
		AmountReturn: o.AmountReturn,
		Lines:        lines,
	}
}
