package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/muhasebe/internal/domain/inventory"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxNameAttempts bounds retries when a generated document name is taken
const maxNameAttempts = 5

// StockMoveService drives stock moves through DRAFT → CONFIRMED → DONE.
//
// Execution runs inside a TransactionScope: the product row is locked with
// SELECT ... FOR UPDATE, the new quantities are computed, and both the
// product and the move are written with a version check. Two concurrent
// executions against the same product therefore serialize on the row lock,
// and a writer that bypassed the lock is caught by the version check.
type StockMoveService struct {
	productRepo    inventory.ProductRepository
	moveRepo       inventory.StockMoveRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewStockMoveService creates a new StockMoveService
func NewStockMoveService(
	productRepo inventory.ProductRepository,
	moveRepo inventory.StockMoveRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *StockMoveService {
	return &StockMoveService{
		productRepo: productRepo,
		moveRepo:    moveRepo,
		txScope:     txScope,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *StockMoveService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *StockMoveService) publishDomainEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish stock move events", zap.Error(err))
	}
}

// Create creates a DRAFT move for an existing product
func (s *StockMoveService) Create(ctx context.Context, req CreateStockMoveRequest) (*StockMoveResponse, error) {
	p, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFound("product", req.ProductID)
		}
		return nil, err
	}

	// a name taken by a concurrent create is retried with the next number
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		n, err := s.moveRepo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count stock moves: %w", err)
		}
		m, err := inventory.NewStockMove(inventory.StockMoveName(n+1+int64(attempt)), p.ID, inventory.MoveType(req.MoveType), req.Quantity, req.UnitPrice)
		if err != nil {
			return nil, err
		}
		m.UOM = p.UOM
		m.Reference = req.Reference
		m.Note = req.Note
		m.ScheduledDate = req.ScheduledDate
		m.SetLocations(req.LocationFromID, req.LocationToID)

		err = s.moveRepo.Save(ctx, m)
		if errors.Is(err, shared.ErrAlreadyExists) {
			s.logger.Debug("Stock move name taken, retrying", zap.String("name", m.Name))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save stock move: %w", err)
		}
		resp := ToStockMoveResponse(m)
		return &resp, nil
	}
	return nil, shared.NewDomainError(shared.CodeConcurrencyConflict, "could not allocate a stock move name, retry the request")
}

// GetByID returns a stock move
func (s *StockMoveService) GetByID(ctx context.Context, id uuid.UUID) (*StockMoveResponse, error) {
	m, err := s.moveRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToStockMoveResponse(m)
	return &resp, nil
}

// List returns a page of stock moves
func (s *StockMoveService) List(ctx context.Context, f StockMoveListFilter) ([]StockMoveResponse, int64, error) {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.ProductID != nil {
		filter.Filters["product_id"] = *f.ProductID
	}
	if f.State != "" {
		filter.Filters["state"] = f.State
	}
	if f.MoveType != "" {
		filter.Filters["move_type"] = f.MoveType
	}
	moves, total, err := s.moveRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]StockMoveResponse, len(moves))
	for i := range moves {
		out[i] = ToStockMoveResponse(&moves[i])
	}
	return out, total, nil
}

// Confirm moves a DRAFT move to CONFIRMED
func (s *StockMoveService) Confirm(ctx context.Context, id uuid.UUID) (*StockMoveResponse, error) {
	return s.transition(ctx, id, (*inventory.StockMove).Confirm)
}

// Cancel cancels a DRAFT or CONFIRMED move
func (s *StockMoveService) Cancel(ctx context.Context, id uuid.UUID) (*StockMoveResponse, error) {
	return s.transition(ctx, id, (*inventory.StockMove).Cancel)
}

func (s *StockMoveService) transition(ctx context.Context, id uuid.UUID, apply func(*inventory.StockMove) error) (*StockMoveResponse, error) {
	m, err := s.moveRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(m); err != nil {
		return nil, err
	}
	if err := s.moveRepo.SaveWithLock(ctx, m); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, m.GetDomainEvents())
	m.ClearDomainEvents()

	resp := ToStockMoveResponse(m)
	return &resp, nil
}

// Execute applies a CONFIRMED move to its product's stock
func (s *StockMoveService) Execute(ctx context.Context, id uuid.UUID) (*ExecuteMoveResponse, error) {
	var (
		move    *inventory.StockMove
		product *inventory.Product
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		m, err := repos.MoveRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		p, err := repos.ProductRepo().FindByIDForUpdate(ctx, m.ProductID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if err := m.Execute(p, s.now()); err != nil {
			return err
		}
		if err := repos.ProductRepo().SaveWithLock(ctx, p); err != nil {
			return err
		}
		if err := repos.MoveRepo().SaveWithLock(ctx, m); err != nil {
			return err
		}
		move, product = m, p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock move executed",
		zap.String("move", move.Name),
		zap.String("move_type", string(move.MoveType)),
		zap.String("product_id", product.ID.String()),
		zap.String("qty_available", product.QtyAvailable.String()),
	)
	s.publishDomainEvents(ctx, move.GetDomainEvents())
	move.ClearDomainEvents()

	return &ExecuteMoveResponse{
		Move:    ToStockMoveResponse(move),
		Product: ToProductResponse(product),
	}, nil
}
