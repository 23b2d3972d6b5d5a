package handler

import (
	"context"

	"github.com/erp/muhasebe/internal/infrastructure/event"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventJournal looks up journaled domain events
type EventJournal interface {
	FindByAggregate(ctx context.Context, aggregateType string, aggregateID uuid.UUID) ([]event.StoredEvent, error)
}

// EventHandler exposes the domain event journal
type EventHandler struct {
	BaseHandler
	journal EventJournal
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(journal EventJournal) *EventHandler {
	return &EventHandler{journal: journal}
}

type eventQuery struct {
	AggregateType string `form:"aggregate_type" binding:"required,max=50"`
	AggregateID   string `form:"aggregate_id" binding:"required,uuid"`
}

// ListByAggregate handles GET /events?aggregate_type=&aggregate_id=, oldest
// event first
func (h *EventHandler) ListByAggregate(c *gin.Context) {
	var q eventQuery
	if !h.BindQuery(c, &q) {
		return
	}

	events, err := h.journal.FindByAggregate(c.Request.Context(), q.AggregateType, uuid.MustParse(q.AggregateID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if events == nil {
		events = []event.StoredEvent{}
	}
	h.Success(c, events)
}
