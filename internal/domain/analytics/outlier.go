package analytics

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultVATRate fills missing VAT rates in feature vectors
const DefaultVATRate = 20.0

var (
	highAmount       = decimal.NewFromInt(100_000)
	standardVATRates = map[float64]bool{0: true, 1: true, 10: true, 20: true}
)

// DocumentRecord is an invoice-like record fed to the model detector and
// the duplicate check
type DocumentRecord struct {
	ID        uuid.UUID
	Number    string
	Date      time.Time
	Total     decimal.Decimal
	PartnerID *uuid.UUID
	VATRate   *float64
}

// ScoredPoint is the raw scorer output for one sample. Raw follows the
// convention that higher means more normal.
type ScoredPoint struct {
	Raw     float64
	Outlier bool
}

// OutlierScorer is a trained outlier model
type OutlierScorer interface {
	Trained() bool
	Fit(features [][]float64) error
	Score(features [][]float64) ([]ScoredPoint, error)
}

// ModelResult is the post-processed verdict for one record
type ModelResult struct {
	Index     int       `json:"index"`
	RecordID  uuid.UUID `json:"record_id"`
	IsAnomaly bool      `json:"is_anomaly"`
	Score     float64   `json:"anomaly_score"`
	Severity  Severity  `json:"severity"`
	Reasons   []string  `json:"reasons"`
}

// partnerBuckets bounds the partner feature to 1..partnerBuckets
const partnerBuckets = 1 << 16

// PartnerCode maps a partner id onto a stable feature value. The same id
// gets the same code in every call so fitted and scored rows agree.
// A missing partner is 0.
func PartnerCode(id *uuid.UUID) float64 {
	if id == nil {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write(id[:])
	return float64(h.Sum32()%partnerBuckets) + 1
}

// BuildFeatures builds [amount, weekday, day, month, partner, vat] rows.
// Weekday is Monday based.
func BuildFeatures(records []DocumentRecord) [][]float64 {
	rows := make([][]float64, 0, len(records))
	for _, r := range records {
		amount, _ := r.Total.Float64()
		partner := PartnerCode(r.PartnerID)
		vat := DefaultVATRate
		if r.VATRate != nil {
			vat = *r.VATRate
		}
		rows = append(rows, []float64{
			amount,
			float64(mondayWeekday(r.Date)),
			float64(r.Date.Day()),
			float64(r.Date.Month()),
			partner,
			vat,
		})
	}
	return rows
}

// NormalizeScores maps raw scores onto 0..1 where higher is more anomalous
func NormalizeScores(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	lo, hi := raw[0], raw[0]
	for _, s := range raw[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	for i, s := range raw {
		out[i] = 1 - (s-lo)/(hi-lo+1e-10)
	}
	return out
}

// SeverityForScore grades a normalized score
func SeverityForScore(score float64) Severity {
	switch {
	case score > 0.8:
		return SeverityCritical
	case score > 0.6:
		return SeverityHigh
	case score > 0.4:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Reasons explains in Turkish why a record looks unusual
func Reasons(r DocumentRecord, score float64) []string {
	reasons := make([]string, 0, 4)

	if r.Total.GreaterThan(highAmount) {
		reasons = append(reasons, fmt.Sprintf("Çok yüksek tutar: %s TL", r.Total.StringFixed(2)))
	} else if r.Total.IsNegative() {
		reasons = append(reasons, "Negatif tutar")
	}

	if !r.Date.IsZero() {
		if mondayWeekday(r.Date) >= 5 {
			reasons = append(reasons, "Hafta sonu işlemi")
		}
		if day := r.Date.Day(); day >= 28 || day <= 2 {
			reasons = append(reasons, "Ay başı/sonu işlemi")
		}
	}

	if r.VATRate != nil && !standardVATRates[*r.VATRate] {
		reasons = append(reasons, fmt.Sprintf("Olağandışı KDV oranı: %%%g", *r.VATRate))
	}

	if score > 0.7 && len(reasons) == 0 {
		reasons = append(reasons, "Genel işlem paterni olağandışı")
	}
	if len(reasons) == 0 {
		return []string{"Anomali tespiti"}
	}
	return reasons
}

// DetectWithModel scores records with a trained scorer. An untrained
// scorer yields ErrEstimatorUnavailable and no results.
func DetectWithModel(scorer OutlierScorer, records []DocumentRecord) ([]ModelResult, error) {
	if scorer == nil || !scorer.Trained() {
		return nil, shared.ErrEstimatorUnavailable
	}
	if len(records) == 0 {
		return []ModelResult{}, nil
	}
	points, err := scorer.Score(BuildFeatures(records))
	if err != nil {
		return nil, fmt.Errorf("score records: %w", err)
	}
	if len(points) != len(records) {
		return nil, shared.NewEstimatorUnavailable("scorer returned %d scores for %d records", len(points), len(records))
	}

	raw := make([]float64, len(points))
	for i, p := range points {
		raw[i] = p.Raw
	}
	normalized := NormalizeScores(raw)

	results := make([]ModelResult, len(records))
	for i, rec := range records {
		res := ModelResult{
			Index:     i,
			RecordID:  rec.ID,
			IsAnomaly: points[i].Outlier,
			Score:     normalized[i],
			Severity:  SeverityForScore(normalized[i]),
			Reasons:   []string{},
		}
		if res.IsAnomaly {
			res.Reasons = Reasons(rec, normalized[i])
		}
		results[i] = res
	}
	return results, nil
}

func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
