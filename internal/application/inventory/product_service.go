package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/muhasebe/internal/domain/inventory"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService handles product catalogue, location and dashboard operations
type ProductService struct {
	productRepo  inventory.ProductRepository
	moveRepo     inventory.StockMoveRepository
	locationRepo inventory.LocationRepository
	logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo inventory.ProductRepository,
	moveRepo inventory.StockMoveRepository,
	locationRepo inventory.LocationRepository,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		moveRepo:     moveRepo,
		locationRepo: locationRepo,
		logger:       logger,
	}
}

// Create creates a product, generating its code when none is supplied
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	code := req.Code
	if code == "" {
		n, err := s.productRepo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count products: %w", err)
		}
		code = inventory.ProductCode(n + 1)
	}

	if _, err := s.productRepo.FindByCode(ctx, code); err == nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("product code %s already exists", code))
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	p, err := inventory.NewProduct(code, req.Name, inventory.ProductType(req.ProductType), req.UOM)
	if err != nil {
		return nil, err
	}
	update := inventory.ProductUpdate{
		ListPrice:    &req.ListPrice,
		CostPrice:    &req.CostPrice,
		MinStock:     &req.MinStock,
		MaxStock:     &req.MaxStock,
		ReorderPoint: &req.ReorderPoint,
		TaxRate:      req.TaxRate,
	}
	if req.Description != "" {
		update.Description = &req.Description
	}
	if req.Barcode != "" {
		update.Barcode = &req.Barcode
	}
	if err := p.ApplyUpdate(update); err != nil {
		return nil, err
	}
	if !req.QtyAvailable.IsZero() {
		if err := p.AdjustStock(req.QtyAvailable, decimal.Zero); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	s.logger.Info("Product created", zap.String("code", p.Code), zap.String("product_id", p.ID.String()))

	resp := ToProductResponse(p)
	return &resp, nil
}

// GetByID returns a product
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// Update merges the supplied fields into the product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyUpdate(req.toDomain()); err != nil {
		return nil, err
	}
	if err := s.productRepo.SaveWithLock(ctx, p); err != nil {
		return nil, err
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// List returns a page of products
func (s *ProductService) List(ctx context.Context, f ProductListFilter) ([]ProductResponse, int64, error) {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search
	if f.ProductType != "" {
		filter.Filters["product_type"] = f.ProductType
	}
	if f.IsActive != nil {
		filter.Filters["is_active"] = *f.IsActive
	}

	products, total, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, total, nil
}

// LowStock returns products at or below their reorder point
func (s *ProductService) LowStock(ctx context.Context, limit int) ([]inventory.LowStockItem, error) {
	if limit <= 0 {
		limit = inventory.LowStockLimit
	}
	products, err := s.productRepo.FindBelowReorderPoint(ctx, limit)
	if err != nil {
		return nil, err
	}
	return inventory.LowStockItems(products, limit), nil
}

// Dashboard builds the inventory overview
func (s *ProductService) Dashboard(ctx context.Context) (*inventory.Dashboard, error) {
	total, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	low, err := s.LowStock(ctx, inventory.LowStockLimit)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	value, err := s.productRepo.TotalStockValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("stock value: %w", err)
	}
	byState, err := s.moveRepo.CountByState(ctx)
	if err != nil {
		return nil, fmt.Errorf("moves by state: %w", err)
	}
	d := inventory.BuildDashboard(total, low, value, byState)
	return &d, nil
}

// CreateLocation creates a stock location
func (s *ProductService) CreateLocation(ctx context.Context, req CreateLocationRequest) (*LocationResponse, error) {
	if req.ParentID != nil {
		if _, err := s.locationRepo.FindByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewNotFound("parent location", *req.ParentID)
			}
			return nil, err
		}
	}
	code := req.Code
	if code == "" {
		n, err := s.locationRepo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count locations: %w", err)
		}
		code = inventory.LocationCode(n + 1)
	}
	loc, err := inventory.NewStockLocation(code, req.Name, inventory.LocationType(req.LocationType), req.ParentID)
	if err != nil {
		return nil, err
	}
	if err := s.locationRepo.Save(ctx, loc); err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}
	resp := ToLocationResponse(loc)
	return &resp, nil
}

// ListLocations returns every stock location
func (s *ProductService) ListLocations(ctx context.Context) ([]LocationResponse, error) {
	locs, err := s.locationRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LocationResponse, len(locs))
	for i := range locs {
		out[i] = ToLocationResponse(&locs[i])
	}
	return out, nil
}
