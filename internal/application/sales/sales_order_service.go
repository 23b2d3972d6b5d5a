package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/sales"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxNameAttempts bounds retries when a generated order name is taken
const maxNameAttempts = 5

// SalesOrderService manages the quotation to delivery lifecycle
type SalesOrderService struct {
	orderRepo      sales.SalesOrderRepository
	partnerRepo    accounting.PartnerRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(orderRepo sales.SalesOrderRepository, partnerRepo accounting.PartnerRepository, logger *zap.Logger) *SalesOrderService {
	return &SalesOrderService{
		orderRepo:   orderRepo,
		partnerRepo: partnerRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *SalesOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a draft order for an existing customer
func (s *SalesOrderService) Create(ctx context.Context, req CreateSalesOrderRequest) (*SalesOrderResponse, error) {
	if _, err := s.partnerRepo.FindByID(ctx, req.PartnerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFound("customer", req.PartnerID)
		}
		return nil, err
	}

	orderDate := s.now()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	// a name taken by a concurrent create is retried with the next number
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		n, err := s.orderRepo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count sales orders: %w", err)
		}
		o, err := sales.NewSalesOrder(sales.OrderName(n+1+int64(attempt)), req.PartnerID, sales.PaymentTerm(req.PaymentTerm), orderDate)
		if err != nil {
			return nil, err
		}
		o.Notes = req.Notes
		for _, l := range req.Lines {
			if err := o.AddLine(l.toDomain()); err != nil {
				return nil, err
			}
		}
		if !req.AmountDiscount.IsZero() {
			if err := o.SetDiscount(req.AmountDiscount); err != nil {
				return nil, err
			}
		}

		err = s.orderRepo.Save(ctx, o)
		if errors.Is(err, shared.ErrAlreadyExists) {
			s.logger.Debug("Sales order name taken, retrying", zap.String("order", o.Name))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save sales order: %w", err)
		}
		return s.created(o), nil
	}
	return nil, shared.NewDomainError(shared.CodeConcurrencyConflict, "could not allocate an order name, retry the request")
}

func (s *SalesOrderService) created(o *sales.SalesOrder) *SalesOrderResponse {
	s.logger.Info("Sales order created",
		zap.String("order", o.Name),
		zap.String("total", o.AmountTotal.StringFixed(2)),
	)
	resp := ToSalesOrderResponse(o)
	return &resp
}

// GetByID returns a sales order with its lines
func (s *SalesOrderService) GetByID(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSalesOrderResponse(o)
	return &resp, nil
}

// List returns a page of sales orders
func (s *SalesOrderService) List(ctx context.Context, f SalesOrderListFilter) ([]SalesOrderResponse, int64, error) {
	filter := shared.DefaultFilter()
	filter.OrderBy = "order_date"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.PartnerID != nil {
		filter.Filters["partner_id"] = *f.PartnerID
	}
	if f.State != "" {
		filter.Filters["state"] = f.State
	}
	orders, total, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SalesOrderResponse, len(orders))
	for i := range orders {
		out[i] = ToSalesOrderResponse(&orders[i])
	}
	return out, total, nil
}

// AddLine appends a line to a draft or quotation
func (s *SalesOrderService) AddLine(ctx context.Context, id uuid.UUID, req OrderLineRequest) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, func(o *sales.SalesOrder) error {
		return o.AddLine(req.toDomain())
	})
}

// RemoveLine removes a line from a draft or quotation
func (s *SalesOrderService) RemoveLine(ctx context.Context, id, lineID uuid.UUID) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, func(o *sales.SalesOrder) error {
		return o.RemoveLine(lineID)
	})
}

// SendQuotation moves a draft to quotation
func (s *SalesOrderService) SendQuotation(ctx context.Context, id uuid.UUID, req SendQuotationRequest) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, func(o *sales.SalesOrder) error {
		return o.SendQuotation(req.ValidityDate)
	})
}

// Confirm confirms a draft or quotation
func (s *SalesOrderService) Confirm(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, func(o *sales.SalesOrder) error {
		return o.Confirm(s.now())
	})
}

// Deliver marks a confirmed order delivered
func (s *SalesOrderService) Deliver(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, func(o *sales.SalesOrder) error {
		return o.Deliver(s.now())
	})
}

// Cancel cancels any order that is not delivered
func (s *SalesOrderService) Cancel(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, (*sales.SalesOrder).Cancel)
}

// Delete removes a draft order
func (s *SalesOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := o.CanDelete(); err != nil {
		return err
	}
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete sales order: %w", err)
	}
	s.logger.Info("Sales order deleted", zap.String("order", o.Name))
	return nil
}

// CountByState returns the number of orders in each state
func (s *SalesOrderService) CountByState(ctx context.Context) (map[sales.OrderState]int64, error) {
	return s.orderRepo.CountByState(ctx)
}

func (s *SalesOrderService) mutate(ctx context.Context, id uuid.UUID, apply func(*sales.SalesOrder) error) (*SalesOrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(o); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, fmt.Errorf("save sales order: %w", err)
	}

	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish sales order events", zap.String("order", o.Name), zap.Error(err))
		}
	}

	resp := ToSalesOrderResponse(o)
	return &resp, nil
}
