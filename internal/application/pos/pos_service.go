package pos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/muhasebe/internal/domain/pos"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// POSService runs register sessions and the orders rung up in them
type POSService struct {
	sessionRepo pos.SessionRepository
	orderRepo   pos.OrderRepository
	txScope     TransactionScope
	logger      *zap.Logger
	now         func() time.Time
}

// NewPOSService creates a new POSService
func NewPOSService(sessionRepo pos.SessionRepository, orderRepo pos.OrderRepository, txScope TransactionScope, logger *zap.Logger) *POSService {
	return &POSService{
		sessionRepo: sessionRepo,
		orderRepo:   orderRepo,
		txScope:     txScope,
		logger:      logger,
		now:         time.Now,
	}
}

// OpenSession opens a session. A cashier can hold one open session at a time.
func (s *POSService) OpenSession(ctx context.Context, req OpenSessionRequest) (*SessionResponse, error) {
	existing, err := s.sessionRepo.FindOpenByUser(ctx, req.UserName)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewInvalidTransition("cashier %s already has open session %s", req.UserName, existing.Name)
	}

	at := s.now()
	n, err := s.sessionRepo.CountByPrefix(ctx, pos.SessionPrefix(at))
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	session, err := pos.OpenSession(pos.SessionName(at, n+1), req.UserName, req.OpeningCash, at)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info("POS session opened",
		zap.String("session", session.Name),
		zap.String("user", session.UserName),
		zap.String("opening_cash", session.OpeningCash.StringFixed(2)),
	)
	resp := ToSessionResponse(session)
	return &resp, nil
}

// GetSession returns a session
func (s *POSService) GetSession(ctx context.Context, id uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSessionResponse(session)
	return &resp, nil
}

// CreateOrder rings up an order and adds it to the session counters in one
// transaction
func (s *POSService) CreateOrder(ctx context.Context, sessionID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	lines, payments := req.inputs()
	var order *pos.Order

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		session, err := repos.SessionRepo().FindByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.State != pos.SessionStateOpened {
			return shared.NewInvalidTransition("session %s is not open", session.Name)
		}

		at := s.now()
		n, err := repos.OrderRepo().CountByPrefix(ctx, pos.OrderPrefix(at))
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		o, err := pos.NewOrder(pos.OrderName(at, n+1), session.ID, lines, payments, at)
		if err != nil {
			return err
		}
		o.CustomerName = req.CustomerName
		o.CustomerTaxID = req.CustomerTaxID
		o.Note = req.Note

		if err := session.RegisterOrder(o); err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		if err := repos.SessionRepo().SaveWithLock(ctx, session); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("POS order created",
		zap.String("order", order.Name),
		zap.String("state", string(order.State)),
		zap.String("total", order.AmountTotal.StringFixed(2)),
	)
	resp := ToOrderResponse(order)
	return &resp, nil
}

// ListOrders returns the orders of a session
func (s *POSService) ListOrders(ctx context.Context, sessionID uuid.UUID) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out, nil
}

// CloseSession closes a session and records the cash difference
func (s *POSService) CloseSession(ctx context.Context, id uuid.UUID, req CloseSessionRequest) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.Close(req.ClosingCash, req.Notes, s.now()); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.SaveWithLock(ctx, session); err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("session", session.Name),
		zap.Int("orders", session.OrderCount),
		zap.String("difference", session.CashRegisterDifference.StringFixed(2)),
	}
	if session.CashRegisterDifference.IsZero() {
		s.logger.Info("POS session closed", fields...)
	} else {
		s.logger.Warn("POS session closed with cash difference", fields...)
	}
	resp := ToSessionResponse(session)
	return &resp, nil
}
