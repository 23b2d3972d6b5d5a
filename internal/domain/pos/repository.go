package pos

import (
	"context"

	"github.com/google/uuid"
)

// SessionRepository persists cash sessions
type SessionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	FindOpenByUser(ctx context.Context, userName string) (*Session, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
	Save(ctx context.Context, session *Session) error
	SaveWithLock(ctx context.Context, session *Session) error
}

// OrderRepository persists POS orders with lines and payments
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindBySession(ctx context.Context, sessionID uuid.UUID) ([]Order, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
	Save(ctx context.Context, order *Order) error
}
