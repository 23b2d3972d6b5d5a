package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AlertSeverity grades a predicted cash deficit
type AlertSeverity string

const (
	AlertSeverityMedium   AlertSeverity = "medium"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityCritical AlertSeverity = "critical"
)

var (
	criticalDeficit = decimal.NewFromInt(-50000)
	highDeficit     = decimal.NewFromInt(-10000)
)

// CashFlowAlert warns about a day with a predicted negative net flow
type CashFlowAlert struct {
	Date             time.Time       `json:"date"`
	Type             string          `json:"type"`
	Severity         AlertSeverity   `json:"severity"`
	PredictedDeficit decimal.Decimal `json:"predicted_deficit"`
	Message          string          `json:"message"`
	Recommendation   string          `json:"recommendation"`
}

// Recommendation returns the advice shown for a predicted net flow
func Recommendation(net decimal.Decimal) string {
	switch {
	case net.LessThan(criticalDeficit):
		return "ACİL: Büyük nakit açığı riski. Tahsilatları hızlandırın veya kredi hattı açın."
	case net.LessThan(highDeficit):
		return "UYARI: Müşteri tahsilatlarını öne alın ve gereksiz harcamaları erteleyin."
	case net.IsNegative():
		return "DİKKAT: Küçük nakit açığı olabilir. Giderlerinizi gözden geçirin."
	default:
		return "Normal nakit akışı bekleniyor."
	}
}

// SeverityForNet grades a negative net flow. ok is false when net is not below zero.
func SeverityForNet(net decimal.Decimal) (AlertSeverity, bool) {
	switch {
	case net.LessThan(criticalDeficit):
		return AlertSeverityCritical, true
	case net.LessThan(highDeficit):
		return AlertSeverityHigh, true
	case net.IsNegative():
		return AlertSeverityMedium, true
	}
	return "", false
}

// BuildAlerts turns forecast points with a negative predicted balance into alerts
func BuildAlerts(points []ForecastPoint) []CashFlowAlert {
	alerts := make([]CashFlowAlert, 0)
	for _, p := range points {
		severity, ok := SeverityForNet(p.PredictedBalance)
		if !ok {
			continue
		}
		deficit := p.PredictedBalance.Abs()
		alerts = append(alerts, CashFlowAlert{
			Date:             p.ForecastDate,
			Type:             "negative_cash_flow",
			Severity:         severity,
			PredictedDeficit: deficit,
			Message:          fmt.Sprintf("%s tarihinde %s TL nakit açığı öngörülüyor", p.ForecastDate.Format("2006-01-02"), deficit.StringFixed(2)),
			Recommendation:   Recommendation(p.PredictedBalance),
		})
	}
	return alerts
}
