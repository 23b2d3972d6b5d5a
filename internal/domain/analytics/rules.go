package analytics

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rule detector defaults
var (
	DefaultSuspiciousThreshold = decimal.NewFromInt(1_000_000)
	DefaultHighThreshold       = decimal.NewFromInt(5_000_000)
)

const maxRuleScore = 10.0

// TransactionRecord is the minimal ledger view the rule detector needs
type TransactionRecord struct {
	ID     uuid.UUID
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// RuleHit is a transaction that crossed the suspicious threshold
type RuleHit struct {
	TransactionID uuid.UUID
	Amount        decimal.Decimal
	Severity      Severity
	Score         float64
	Description   string
}

// RuleDetector flags transactions whose absolute net exceeds a fixed threshold
type RuleDetector struct {
	Threshold     decimal.Decimal
	HighThreshold decimal.Decimal
}

// NewRuleDetector creates a detector, using defaults for zero thresholds
func NewRuleDetector(threshold, high decimal.Decimal) RuleDetector {
	if !threshold.IsPositive() {
		threshold = DefaultSuspiciousThreshold
	}
	if !high.IsPositive() {
		high = DefaultHighThreshold
	}
	return RuleDetector{Threshold: threshold, HighThreshold: high}
}

// Check evaluates a single transaction
func (r RuleDetector) Check(tx TransactionRecord) (RuleHit, bool) {
	amount := tx.Debit.Sub(tx.Credit).Abs()
	if !amount.GreaterThan(r.Threshold) {
		return RuleHit{}, false
	}
	severity := SeverityMedium
	if amount.GreaterThan(r.HighThreshold) {
		severity = SeverityHigh
	}
	score, _ := amount.Div(DefaultSuspiciousThreshold).Float64()
	if score > maxRuleScore {
		score = maxRuleScore
	}
	return RuleHit{
		TransactionID: tx.ID,
		Amount:        amount,
		Severity:      severity,
		Score:         score,
		Description:   fmt.Sprintf("Şüpheli tutar: %s", amount.StringFixed(2)),
	}, true
}

// Scan checks every transaction and returns the hits in input order
func (r RuleDetector) Scan(txs []TransactionRecord) []RuleHit {
	hits := make([]RuleHit, 0)
	for _, tx := range txs {
		if hit, ok := r.Check(tx); ok {
			hits = append(hits, hit)
		}
	}
	return hits
}
