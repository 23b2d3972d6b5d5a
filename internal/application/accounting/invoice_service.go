package accounting

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceService handles invoice creation, status changes and payments
type InvoiceService struct {
	invoiceRepo    accounting.InvoiceRepository
	partnerRepo    accounting.PartnerRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo accounting.InvoiceRepository,
	partnerRepo accounting.PartnerRepository,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		partnerRepo: partnerRepo,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *InvoiceService) publish(ctx context.Context, inv *accounting.Invoice) {
	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish invoice events",
			zap.String("invoice", inv.Number),
			zap.Error(err),
		)
	}
}

// Create validates the partner reference and number uniqueness, computes
// line and header totals and stores the invoice as TASLAK. No ledger
// entries are posted.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	if req.PartnerID != nil {
		if _, err := s.partnerRepo.FindByID(ctx, *req.PartnerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewNotFound("partner", *req.PartnerID)
			}
			return nil, err
		}
	}

	exists, err := s.invoiceRepo.ExistsByNumber(ctx, req.InvoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("check invoice number: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists,
			fmt.Sprintf("invoice %s already exists", req.InvoiceNumber))
	}

	inv, err := accounting.NewInvoice(req.toParams())
	if err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}

	s.logger.Info("Invoice created",
		zap.String("invoice", inv.Number),
		zap.String("type", string(inv.InvoiceType)),
		zap.String("total", inv.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(inv.Lines)),
	)
	s.publish(ctx, inv)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// GetByID returns an invoice with its lines
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List returns a page of invoices, newest invoice date first
func (s *InvoiceService) List(ctx context.Context, f InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	filter := shared.DefaultFilter()
	filter.OrderBy = "invoice_date"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.StartDate != nil {
		filter.Filters["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		filter.Filters["end_date"] = *f.EndDate
	}
	if f.PartnerID != nil {
		filter.Filters["partner_id"] = *f.PartnerID
	}
	if f.InvoiceType != "" {
		filter.Filters["invoice_type"] = f.InvoiceType
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}

	invoices, total, err := s.invoiceRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out, total, nil
}

// ChangeStatus moves the invoice along its status workflow
func (s *InvoiceService) ChangeStatus(ctx context.Context, id uuid.UUID, req ChangeStatusRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, id, func(inv *accounting.Invoice) error {
		return inv.ChangeStatus(accounting.InvoiceStatus(req.Status))
	})
}

// AddLine appends a line to a structured draft invoice and recomputes its totals
func (s *InvoiceService) AddLine(ctx context.Context, id uuid.UUID, req InvoiceLineRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, id, func(inv *accounting.Invoice) error {
		return inv.AddLine(req.toDomain())
	})
}

// RecordPayment adds a payment to the invoice's paid amount
func (s *InvoiceService) RecordPayment(ctx context.Context, id uuid.UUID, req RecordPaymentRequest) (*InvoiceResponse, error) {
	resp, err := s.mutate(ctx, id, func(inv *accounting.Invoice) error {
		return inv.RecordPayment(req.Amount)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Invoice payment recorded",
		zap.String("invoice", resp.InvoiceNumber),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("outstanding", resp.Outstanding.StringFixed(2)),
	)
	return resp, nil
}

func (s *InvoiceService) mutate(ctx context.Context, id uuid.UUID, apply func(*accounting.Invoice) error) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(inv); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	s.publish(ctx, inv)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}
