package analytics

import (
	"time"

	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Forecast model selectors
const (
	ModelLinear = "linear"
	ModelFitted = "fitted"
)

// ForecastRequest asks for a cash-flow projection
type ForecastRequest struct {
	DaysAhead int        `json:"days_ahead" binding:"required,min=1,max=365"`
	AsOf      *time.Time `json:"as_of"`
	Model     string     `json:"model" binding:"omitempty,oneof=linear fitted"`
	Persist   bool       `json:"persist"`
}

// TrainRequest selects the history a model is fitted on
type TrainRequest struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// TrainResponse reports a training run
type TrainResponse struct {
	Model           string    `json:"model"`
	TrainingSamples int       `json:"training_samples"`
	TrainedAt       time.Time `json:"trained_at"`
}

// ForecastPointResponse represents one predicted position
type ForecastPointResponse struct {
	ForecastDate     time.Time        `json:"forecast_date"`
	PredictedInflow  decimal.Decimal  `json:"predicted_inflow"`
	PredictedOutflow decimal.Decimal  `json:"predicted_outflow"`
	PredictedBalance decimal.Decimal  `json:"predicted_balance"`
	ConfidenceLower  *decimal.Decimal `json:"confidence_lower,omitempty"`
	ConfidenceUpper  *decimal.Decimal `json:"confidence_upper,omitempty"`
	ConfidenceScore  *float64         `json:"confidence_score"`
	ModelType        string           `json:"model_type"`
}

// ToForecastPointResponse converts a domain point to a response
func ToForecastPointResponse(p *analytics.ForecastPoint) ForecastPointResponse {
	return ForecastPointResponse{
		ForecastDate:     p.ForecastDate,
		PredictedInflow:  p.PredictedInflow,
		PredictedOutflow: p.PredictedOutflow,
		PredictedBalance: p.PredictedBalance,
		ConfidenceLower:  p.ConfidenceLower,
		ConfidenceUpper:  p.ConfidenceUpper,
		ConfidenceScore:  p.ConfidenceScore,
		ModelType:        p.ModelType,
	}
}

// ForecastResponse carries the forecast and the alerts derived from it
type ForecastResponse struct {
	Points []ForecastPointResponse   `json:"points"`
	Alerts []analytics.CashFlowAlert `json:"alerts"`
}

// ScanRequest bounds an anomaly scan by date. Both ends are optional.
type ScanRequest struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// RuleScanResponse summarizes a threshold scan
type RuleScanResponse struct {
	Scanned  int               `json:"scanned"`
	Flagged  int               `json:"flagged"`
	Created  int               `json:"created"`
	Findings []FindingResponse `json:"findings"`
}

// ModelScanResponse summarizes a model scan
type ModelScanResponse struct {
	Scanned   int                     `json:"scanned"`
	Anomalies int                     `json:"anomalies"`
	Results   []analytics.ModelResult `json:"results"`
}

// FindingResponse represents an anomaly finding in API responses
type FindingResponse struct {
	ID              uuid.UUID  `json:"id"`
	DetectionDate   time.Time  `json:"detection_date"`
	AnomalyType     string     `json:"anomaly_type"`
	Severity        string     `json:"severity"`
	AnomalyScore    float64    `json:"anomaly_score"`
	EntityType      string     `json:"entity_type"`
	EntityID        *uuid.UUID `json:"entity_id,omitempty"`
	Description     string     `json:"description"`
	Reasons         []string   `json:"reasons"`
	IsResolved      bool       `json:"is_resolved"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`
}

// ToFindingResponse converts a domain finding to a response
func ToFindingResponse(f *analytics.AnomalyFinding) FindingResponse {
	return FindingResponse{
		ID:              f.ID,
		DetectionDate:   f.DetectionDate,
		AnomalyType:     string(f.AnomalyType),
		Severity:        string(f.Severity),
		AnomalyScore:    f.AnomalyScore,
		EntityType:      string(f.EntityType),
		EntityID:        f.EntityID,
		Description:     f.Description,
		Reasons:         f.ReasonList(),
		IsResolved:      f.IsResolved,
		ResolutionNotes: f.ResolutionNotes,
		ResolvedAt:      f.ResolvedAt,
		ResolvedBy:      f.ResolvedBy,
	}
}

// FindingListFilter represents filter options for the finding list
type FindingListFilter struct {
	Severity   string `form:"severity" binding:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	IsResolved *bool  `form:"is_resolved"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size" binding:"omitempty,max=100"`
}

// ResolveRequest closes a finding
type ResolveRequest struct {
	ResolutionNotes string `json:"resolution_notes" binding:"required,min=1"`
	ResolvedBy      string `json:"resolved_by" binding:"required,min=1,max=100"`
}
