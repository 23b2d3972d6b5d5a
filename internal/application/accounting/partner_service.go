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

// PartnerService manages customers, suppliers and their balances
type PartnerService struct {
	partnerRepo accounting.PartnerRepository
	logger      *zap.Logger
}

// NewPartnerService creates a new PartnerService
func NewPartnerService(partnerRepo accounting.PartnerRepository, logger *zap.Logger) *PartnerService {
	return &PartnerService{partnerRepo: partnerRepo, logger: logger}
}

// Create registers a new partner
func (s *PartnerService) Create(ctx context.Context, req CreatePartnerRequest) (*PartnerResponse, error) {
	if _, err := s.partnerRepo.FindByCode(ctx, req.Code); err == nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists,
			fmt.Sprintf("partner %s already exists", req.Code))
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	p, err := accounting.NewPartner(req.Code, req.Name, accounting.PartnerType(req.PartnerType))
	if err != nil {
		return nil, err
	}
	if err := p.ApplyUpdate(accounting.PartnerUpdate{
		TaxNumber:   &req.TaxNumber,
		TaxOffice:   &req.TaxOffice,
		Email:       &req.Email,
		Phone:       &req.Phone,
		CreditLimit: req.CreditLimit,
	}); err != nil {
		return nil, err
	}
	if err := s.partnerRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save partner: %w", err)
	}

	s.logger.Info("Partner created", zap.String("code", p.Code), zap.String("type", string(p.PartnerType)))
	resp := ToPartnerResponse(p)
	return &resp, nil
}

// GetByID returns a partner
func (s *PartnerService) GetByID(ctx context.Context, id uuid.UUID) (*PartnerResponse, error) {
	p, err := s.partnerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPartnerResponse(p)
	return &resp, nil
}

// Update changes partner fields with an optimistic version check
func (s *PartnerService) Update(ctx context.Context, id uuid.UUID, req UpdatePartnerRequest) (*PartnerResponse, error) {
	p, err := s.partnerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyUpdate(req.toDomain()); err != nil {
		return nil, err
	}
	if err := s.partnerRepo.SaveWithLock(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPartnerResponse(p)
	return &resp, nil
}

// List returns a page of partners
func (s *PartnerService) List(ctx context.Context, page, pageSize int, partnerType, search string) ([]PartnerResponse, int64, error) {
	filter := shared.DefaultFilter()
	filter.OrderBy = "code"
	filter.OrderDir = "asc"
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	if partnerType != "" {
		filter.Filters["partner_type"] = partnerType
	}
	filter.Search = search

	partners, total, err := s.partnerRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PartnerResponse, len(partners))
	for i := range partners {
		out[i] = ToPartnerResponse(&partners[i])
	}
	return out, total, nil
}

// GetBalance returns the balance report with collection and credit
// recommendations
func (s *PartnerService) GetBalance(ctx context.Context, id uuid.UUID) (*accounting.PartnerBalance, error) {
	p, err := s.partnerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b := p.Balance()
	return &b, nil
}
