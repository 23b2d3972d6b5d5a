package analytics

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Duplicate kinds
const (
	DuplicateExact = "exact_duplicate"
	DuplicateNear  = "near_duplicate"
)

var nearDuplicatePercent = decimal.NewFromInt(1)

// DuplicateGroup lists records that look like the same document entered twice
type DuplicateGroup struct {
	Type              string            `json:"type"`
	Severity          Severity          `json:"severity"`
	RecordIDs         []uuid.UUID       `json:"record_ids"`
	Number            string            `json:"number,omitempty"`
	Date              time.Time         `json:"date"`
	Amounts           []decimal.Decimal `json:"amounts"`
	DifferencePercent decimal.Decimal   `json:"difference_percent"`
}

type exactKey struct {
	number  string
	day     string
	total   string
	partner uuid.UUID
}

// DetectDuplicates reports exact duplicates on (number, date, total, partner)
// and same-day pairs whose totals differ by less than 1% of the larger.
// Nothing is modified; the groups are only reported.
func DetectDuplicates(records []DocumentRecord) []DuplicateGroup {
	groups := make([]DuplicateGroup, 0)

	order := make([]exactKey, 0)
	exact := make(map[exactKey][]int)
	for i, r := range records {
		k := exactKey{number: r.Number, day: r.Date.Format("2006-01-02"), total: r.Total.StringFixed(2)}
		if r.PartnerID != nil {
			k.partner = *r.PartnerID
		}
		if _, seen := exact[k]; !seen {
			order = append(order, k)
		}
		exact[k] = append(exact[k], i)
	}
	for _, k := range order {
		idx := exact[k]
		if len(idx) < 2 {
			continue
		}
		g := DuplicateGroup{
			Type:              DuplicateExact,
			Severity:          SeverityHigh,
			Number:            k.number,
			Date:              records[idx[0]].Date,
			DifferencePercent: decimal.Zero,
		}
		for _, i := range idx {
			g.RecordIDs = append(g.RecordIDs, records[i].ID)
			g.Amounts = append(g.Amounts, records[i].Total)
		}
		groups = append(groups, g)
	}

	byDay := make(map[string][]int)
	days := make([]string, 0)
	for i, r := range records {
		day := r.Date.Format("2006-01-02")
		if _, ok := byDay[day]; !ok {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], i)
	}
	sort.Strings(days)

	for _, day := range days {
		idx := byDay[day]
		for a := 0; a < len(idx); a++ {
			for b := a + 1; b < len(idx); b++ {
				r1, r2 := records[idx[a]], records[idx[b]]
				larger := decimal.Max(r1.Total, r2.Total)
				if !larger.IsPositive() {
					continue
				}
				diff := r1.Total.Sub(r2.Total).Abs().Div(larger).Mul(decimal.NewFromInt(100))
				if diff.GreaterThanOrEqual(nearDuplicatePercent) {
					continue
				}
				groups = append(groups, DuplicateGroup{
					Type:              DuplicateNear,
					Severity:          SeverityMedium,
					RecordIDs:         []uuid.UUID{r1.ID, r2.ID},
					Date:              r1.Date,
					Amounts:           []decimal.Decimal{r1.Total, r2.Total},
					DifferencePercent: diff.Round(4),
				})
			}
		}
	}
	return groups
}
