package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/erp/muhasebe/internal/domain/inventory"
	"github.com/erp/muhasebe/internal/domain/sales"
	"github.com/erp/muhasebe/internal/domain/shared"
)

// EventSerializer encodes domain events as JSON and decodes them back into
// their registered Go types.
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates an empty serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// NewDomainEventSerializer returns a serializer that knows every event the
// muhasebe aggregates raise.
func NewDomainEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterDomainEvents(s)
	return s
}

// RegisterDomainEvents registers the accounting, inventory, sales and
// analytics events on s.
func RegisterDomainEvents(s *EventSerializer) {
	s.Register(accounting.EventTypeInvoiceCreated, &accounting.InvoiceCreatedEvent{})
	s.Register(accounting.EventTypeInvoiceStatusChanged, &accounting.InvoiceStatusChangedEvent{})
	s.Register(inventory.EventTypeStockMoveConfirmed, &inventory.StockMoveConfirmedEvent{})
	s.Register(inventory.EventTypeStockMoveExecuted, &inventory.StockMoveExecutedEvent{})
	s.Register(inventory.EventTypeStockMoveCancelled, &inventory.StockMoveCancelledEvent{})
	s.Register(sales.EventTypeSalesOrderConfirmed, &sales.SalesOrderConfirmedEvent{})
	s.Register(analytics.EventTypeAnomalyDetected, &analytics.AnomalyDetectedEvent{})
	s.Register(analytics.EventTypeAnomalyResolved, &analytics.AnomalyResolvedEvent{})
}

// Register maps eventType to the concrete type of instance.
func (s *EventSerializer) Register(eventType string, instance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(instance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize encodes event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes data into a new instance of the type registered for eventType.
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event %s: %w", eventType, err)
	}

	evt, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("type registered for %s does not implement DomainEvent", eventType)
	}
	return evt, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns the registered event types, sorted.
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
