package analytics

import (
	"github.com/erp/muhasebe/internal/domain/shared"
)

// AggregateTypeAnomaly is the aggregate type for anomaly findings
const AggregateTypeAnomaly = "AnomalyFinding"

// Event types
const (
	EventTypeAnomalyDetected = "AnomalyDetected"
	EventTypeAnomalyResolved = "AnomalyResolved"
)

// AnomalyDetectedEvent is raised when a new finding is recorded
type AnomalyDetectedEvent struct {
	shared.BaseDomainEvent
	AnomalyType AnomalyType `json:"anomaly_type"`
	Severity    Severity    `json:"severity"`
	EntityType  EntityType  `json:"entity_type"`
	Score       float64     `json:"anomaly_score"`
}

// NewAnomalyDetectedEvent creates the event for a fresh finding
func NewAnomalyDetectedEvent(f *AnomalyFinding) *AnomalyDetectedEvent {
	return &AnomalyDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAnomalyDetected, AggregateTypeAnomaly, f.ID),
		AnomalyType:     f.AnomalyType,
		Severity:        f.Severity,
		EntityType:      f.EntityType,
		Score:           f.AnomalyScore,
	}
}

// AnomalyResolvedEvent is raised when a reviewer closes a finding
type AnomalyResolvedEvent struct {
	shared.BaseDomainEvent
	ResolvedBy string `json:"resolved_by"`
}

// NewAnomalyResolvedEvent creates the resolution event
func NewAnomalyResolvedEvent(f *AnomalyFinding) *AnomalyResolvedEvent {
	return &AnomalyResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAnomalyResolved, AggregateTypeAnomaly, f.ID),
		ResolvedBy:      f.ResolvedBy,
	}
}
