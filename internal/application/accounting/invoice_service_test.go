package accounting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestInvoiceService() (*InvoiceService, *MockInvoiceRepository, *MockPartnerRepository, *MockEventPublisher) {
	invoiceRepo, partnerRepo, publisher := new(MockInvoiceRepository), new(MockPartnerRepository), new(MockEventPublisher)
	svc := NewInvoiceService(invoiceRepo, partnerRepo, zap.NewNop())
	svc.SetEventPublisher(publisher)
	return svc, invoiceRepo, partnerRepo, publisher
}

func structuredInvoiceRequest() CreateInvoiceRequest {
	return CreateInvoiceRequest{
		InvoiceNumber: "FTR2024000123",
		InvoiceDate:   time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC),
		InvoiceType:   "SATIS",
		Lines: []InvoiceLineRequest{
			{
				Description:  "Danışmanlık",
				Quantity:     decimal.NewFromInt(10),
				UnitPrice:    decimal.NewFromInt(100),
				DiscountRate: decimal.NewFromInt(10),
				VATRate:      decimal.NewFromInt(20),
			},
			{
				Description:     "Yazılım bakım",
				Quantity:        decimal.NewFromInt(1),
				UnitPrice:       decimal.NewFromInt(500),
				VATRate:         decimal.NewFromInt(20),
				WithholdingRate: decimal.NewFromInt(10),
			},
		},
	}
}

// ==================== Create Tests ====================

func TestInvoiceService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("structured invoice totals", func(t *testing.T) {
		svc, invoiceRepo, _, publisher := newTestInvoiceService()
		invoiceRepo.On("ExistsByNumber", ctx, "FTR2024000123").Return(false, nil)
		invoiceRepo.On("Save", ctx, mock.AnythingOfType("*accounting.Invoice")).Return(nil)

		resp, err := svc.Create(ctx, structuredInvoiceRequest())
		require.NoError(t, err)

		// 900 + 180 VAT, then 500 + 100 VAT with 10% of the net withheld
		assert.Equal(t, "TASLAK", resp.Status)
		assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(1400)), resp.Subtotal.String())
		assert.True(t, resp.VATAmount.Equal(decimal.NewFromInt(280)), resp.VATAmount.String())
		assert.True(t, resp.WithholdingAmount.Equal(decimal.NewFromInt(50)))
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(1630)), resp.TotalAmount.String())
		require.Len(t, resp.Lines, 2)
		assert.True(t, resp.Lines[0].LineTotal.Equal(decimal.NewFromInt(1080)))
		assert.Len(t, publisher.GetEventsByType(accounting.EventTypeInvoiceCreated), 1)
	})

	t.Run("flat amounts without lines", func(t *testing.T) {
		svc, invoiceRepo, _, _ := newTestInvoiceService()
		invoiceRepo.On("ExistsByNumber", ctx, "A-1").Return(false, nil)
		invoiceRepo.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := svc.Create(ctx, CreateInvoiceRequest{
			InvoiceNumber: "A-1",
			InvoiceDate:   time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
			InvoiceType:   "ALIS",
			Subtotal:      decimal.NewFromInt(1000),
			VATAmount:     decimal.NewFromInt(200),
		})
		require.NoError(t, err)
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(1200)))
		assert.Empty(t, resp.Lines)
	})

	t.Run("unknown partner", func(t *testing.T) {
		svc, invoiceRepo, partnerRepo, _ := newTestInvoiceService()
		partnerID := uuid.New()
		partnerRepo.On("FindByID", ctx, partnerID).Return(nil, shared.ErrNotFound)

		req := structuredInvoiceRequest()
		req.PartnerID = &partnerID
		_, err := svc.Create(ctx, req)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("duplicate number", func(t *testing.T) {
		svc, invoiceRepo, _, _ := newTestInvoiceService()
		invoiceRepo.On("ExistsByNumber", ctx, "FTR2024000123").Return(true, nil)

		_, err := svc.Create(ctx, structuredInvoiceRequest())
		assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
	})

	t.Run("invalid line rate", func(t *testing.T) {
		svc, invoiceRepo, _, _ := newTestInvoiceService()
		invoiceRepo.On("ExistsByNumber", ctx, mock.Anything).Return(false, nil)

		req := structuredInvoiceRequest()
		req.Lines[0].DiscountRate = decimal.NewFromInt(120)
		_, err := svc.Create(ctx, req)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

// ==================== Workflow Tests ====================

func TestInvoiceService_ChangeStatusAndPayment(t *testing.T) {
	ctx := context.Background()

	newInvoice := func(t *testing.T) *accounting.Invoice {
		inv, err := accounting.NewInvoice(accounting.NewInvoiceParams{
			Number:        "X-1",
			InvoiceDate:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			InvoiceType:   accounting.InvoiceTypeSales,
			FlatSubtotal:  decimal.NewFromInt(100),
			FlatVATAmount: decimal.NewFromInt(20),
		})
		require.NoError(t, err)
		inv.ClearDomainEvents()
		return inv
	}

	t.Run("draft to pending publishes status change", func(t *testing.T) {
		svc, invoiceRepo, _, publisher := newTestInvoiceService()
		inv := newInvoice(t)
		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		invoiceRepo.On("SaveWithLock", ctx, inv).Return(nil)

		resp, err := svc.ChangeStatus(ctx, inv.ID, ChangeStatusRequest{Status: "BEKLEMEDE"})
		require.NoError(t, err)
		assert.Equal(t, "BEKLEMEDE", resp.Status)
		assert.Len(t, publisher.GetEventsByType(accounting.EventTypeInvoiceStatusChanged), 1)
	})

	t.Run("draft cannot be approved", func(t *testing.T) {
		svc, invoiceRepo, _, _ := newTestInvoiceService()
		inv := newInvoice(t)
		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)

		_, err := svc.ChangeStatus(ctx, inv.ID, ChangeStatusRequest{Status: "ONAYLANDI"})
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
		invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("partial payment", func(t *testing.T) {
		svc, invoiceRepo, _, _ := newTestInvoiceService()
		inv := newInvoice(t)
		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		invoiceRepo.On("SaveWithLock", ctx, inv).Return(nil)

		resp, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: decimal.NewFromInt(50)})
		require.NoError(t, err)
		assert.True(t, resp.Outstanding.Equal(decimal.NewFromInt(70)))
	})

	t.Run("overpayment rejected", func(t *testing.T) {
		svc, invoiceRepo, _, _ := newTestInvoiceService()
		inv := newInvoice(t)
		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)

		_, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: decimal.NewFromInt(121)})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("line added to structured draft", func(t *testing.T) {
		svc, invoiceRepo, _, _ := newTestInvoiceService()
		inv, err := accounting.NewInvoice(structuredInvoiceRequest().toParams())
		require.NoError(t, err)
		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		invoiceRepo.On("SaveWithLock", ctx, inv).Return(nil)

		resp, err := svc.AddLine(ctx, inv.ID, InvoiceLineRequest{
			Description: "Kurulum",
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.NewFromInt(50),
			VATRate:     decimal.NewFromInt(20),
		})
		require.NoError(t, err)
		require.Len(t, resp.Lines, 3)
		assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(1500)), resp.Subtotal.String())
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(1750)), resp.TotalAmount.String())
	})

	t.Run("flat invoice takes no lines", func(t *testing.T) {
		svc, invoiceRepo, _, _ := newTestInvoiceService()
		inv := newInvoice(t)
		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)

		_, err := svc.AddLine(ctx, inv.ID, InvoiceLineRequest{
			Description: "Kurulum",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(50),
		})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("version conflict surfaces", func(t *testing.T) {
		svc, invoiceRepo, _, _ := newTestInvoiceService()
		inv := newInvoice(t)
		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		invoiceRepo.On("SaveWithLock", ctx, inv).Return(shared.ErrConcurrencyConflict)

		_, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{Amount: decimal.NewFromInt(10)})
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})
}

func TestInvoiceService_List(t *testing.T) {
	ctx := context.Background()
	svc, invoiceRepo, _, _ := newTestInvoiceService()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	invoiceRepo.On("FindAll", ctx, mock.MatchedBy(func(f shared.Filter) bool {
		return f.OrderBy == "invoice_date" && f.Page == 2 && f.Filters["start_date"] == start && f.Filters["invoice_type"] == "SATIS"
	})).Return([]accounting.Invoice{}, int64(0), nil)

	items, total, err := svc.List(ctx, InvoiceListFilter{StartDate: &start, InvoiceType: "SATIS", Page: 2})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(0), total)
	invoiceRepo.AssertExpectations(t)
}
