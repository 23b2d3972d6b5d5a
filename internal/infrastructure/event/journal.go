package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoredEvent is a journaled domain event row.
type StoredEvent struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	EventID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"event_id"`
	EventType     string    `gorm:"type:varchar(100);index;not null" json:"event_type"`
	AggregateType string    `gorm:"type:varchar(50);index:idx_domain_events_aggregate;not null" json:"aggregate_type"`
	AggregateID   uuid.UUID `gorm:"type:uuid;index:idx_domain_events_aggregate;not null" json:"aggregate_id"`
	Payload       string    `gorm:"type:text;not null" json:"payload"`
	OccurredAt    time.Time `gorm:"not null;index" json:"occurred_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the table name for GORM
func (StoredEvent) TableName() string {
	return "domain_events"
}

// GormEventJournal appends domain events to the domain_events table.
type GormEventJournal struct {
	db         *gorm.DB
	serializer *EventSerializer
}

// NewGormEventJournal creates a journal. A nil serializer means the
// serializer with all muhasebe events registered.
func NewGormEventJournal(db *gorm.DB, serializer *EventSerializer) *GormEventJournal {
	if serializer == nil {
		serializer = NewDomainEventSerializer()
	}
	return &GormEventJournal{db: db, serializer: serializer}
}

// Append stores events. An event id that is already journaled is skipped.
func (j *GormEventJournal) Append(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]StoredEvent, 0, len(events))
	for _, evt := range events {
		payload, err := j.serializer.Serialize(evt)
		if err != nil {
			return err
		}
		rows = append(rows, StoredEvent{
			EventID:       evt.EventID(),
			EventType:     evt.EventType(),
			AggregateType: evt.AggregateType(),
			AggregateID:   evt.AggregateID(),
			Payload:       string(payload),
			OccurredAt:    evt.OccurredAt(),
		})
	}

	err := j.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to append domain events: %w", err)
	}
	return nil
}

// FindByAggregate returns the journaled events of one aggregate, oldest first.
func (j *GormEventJournal) FindByAggregate(ctx context.Context, aggregateType string, aggregateID uuid.UUID) ([]StoredEvent, error) {
	var rows []StoredEvent
	err := j.db.WithContext(ctx).
		Where("aggregate_type = ? AND aggregate_id = ?", aggregateType, aggregateID).
		Order("occurred_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Load decodes a stored row back into its domain event.
func (j *GormEventJournal) Load(row StoredEvent) (shared.DomainEvent, error) {
	return j.serializer.Deserialize(row.EventType, []byte(row.Payload))
}

// FindByEventID returns one stored event.
func (j *GormEventJournal) FindByEventID(ctx context.Context, eventID uuid.UUID) (*StoredEvent, error) {
	var row StoredEvent
	if err := j.db.WithContext(ctx).First(&row, "event_id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// JournalHandler is a wildcard handler that appends every event to the journal.
type JournalHandler struct {
	journal *GormEventJournal
	logger  *zap.Logger
}

// NewJournalHandler creates a journal handler
func NewJournalHandler(journal *GormEventJournal, logger *zap.Logger) *JournalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalHandler{journal: journal, logger: logger}
}

// Handle appends evt to the journal
func (h *JournalHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	if err := h.journal.Append(ctx, evt); err != nil {
		return err
	}
	h.logger.Debug("domain event journaled",
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
	)
	return nil
}

// EventTypes returns nil, subscribing to every event
func (h *JournalHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*JournalHandler)(nil)
