package analytics

import (
	"strings"
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
)

// Severity of an anomaly finding
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// AnomalyType classifies what kind of irregularity was found
type AnomalyType string

const (
	AnomalyTypeSuspiciousAmount AnomalyType = "SUSPICIOUS_AMOUNT"
	AnomalyTypeDuplicate        AnomalyType = "DUPLICATE"
	AnomalyTypeUnusualPattern   AnomalyType = "UNUSUAL_PATTERN"
)

// EntityType names what a finding points at
type EntityType string

const (
	EntityTypeTransaction EntityType = "TRANSACTION"
	EntityTypeInvoice     EntityType = "INVOICE"
)

// AnomalyFinding is a flagged record awaiting review. Resolution is one way.
type AnomalyFinding struct {
	shared.BaseAggregateRoot
	DetectionDate   time.Time   `gorm:"not null"`
	AnomalyType     AnomalyType `gorm:"type:varchar(50);not null"`
	Severity        Severity    `gorm:"type:varchar(20);not null;index"`
	AnomalyScore    float64     `gorm:"not null"`
	EntityType      EntityType  `gorm:"type:varchar(50)"`
	EntityID        *uuid.UUID  `gorm:"type:uuid;index"`
	Description     string      `gorm:"type:text;not null"`
	Reasons         string      `gorm:"type:text"`
	IsResolved      bool        `gorm:"not null;default:false;index"`
	ResolutionNotes string      `gorm:"type:text"`
	ResolvedAt      *time.Time
	ResolvedBy      string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (AnomalyFinding) TableName() string {
	return "anomaly_detections"
}

// NewAnomalyFinding creates an unresolved finding
func NewAnomalyFinding(kind AnomalyType, severity Severity, score float64, entityType EntityType, entityID *uuid.UUID, description string, reasons []string, at time.Time) (*AnomalyFinding, error) {
	if !severity.IsValid() {
		return nil, shared.NewInvalidInput("invalid severity %q", string(severity))
	}
	if strings.TrimSpace(description) == "" {
		return nil, shared.NewInvalidInput("finding description cannot be empty")
	}
	f := &AnomalyFinding{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DetectionDate:     at,
		AnomalyType:       kind,
		Severity:          severity,
		AnomalyScore:      score,
		EntityType:        entityType,
		EntityID:          entityID,
		Description:       description,
		Reasons:           strings.Join(reasons, "; "),
	}
	f.AddDomainEvent(NewAnomalyDetectedEvent(f))
	return f, nil
}

// ReasonList splits the stored reasons
func (f *AnomalyFinding) ReasonList() []string {
	if f.Reasons == "" {
		return []string{}
	}
	return strings.Split(f.Reasons, "; ")
}

// Resolve closes the finding. There is no reopen.
func (f *AnomalyFinding) Resolve(notes, by string, at time.Time) error {
	if f.IsResolved {
		return shared.NewInvalidTransition("anomaly %s is already resolved", f.ID)
	}
	f.IsResolved = true
	f.ResolutionNotes = notes
	f.ResolvedBy = by
	f.ResolvedAt = &at
	f.Touch()
	f.IncrementVersion()
	f.AddDomainEvent(NewAnomalyResolvedEvent(f))
	return nil
}
