package estimator

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

var _ analytics.ForecastModel = (*HoltWinters)(nil)

// HoltWintersModelType is stored on forecast points produced by the model
const HoltWintersModelType = "holt_winters"

const (
	weeklySeason = 7
	// z95 is the two-sided 95% normal quantile
	z95 = 1.959964
)

var (
	alphaGrid = []float64{0.1, 0.3, 0.5, 0.7, 0.9}
	betaGrid  = []float64{0.01, 0.05, 0.1, 0.2}
	gammaGrid = []float64{0.05, 0.1, 0.3, 0.5}
)

// smoothing is the fitted state of one additive Holt-Winters series
type smoothing struct {
	alpha, beta, gamma float64
	level, trend       float64
	season             []float64
	residuals          []float64
	sse                float64
}

func (s *smoothing) forecast(n, h int) float64 {
	return s.level + float64(h)*s.trend + s.season[(n+h-1)%len(s.season)]
}

// update folds observation y at series position t into the state
func (s *smoothing) update(t int, y float64) {
	idx := t % len(s.season)
	prevLevel := s.level
	s.level = s.alpha*(y-s.season[idx]) + (1-s.alpha)*(prevLevel+s.trend)
	s.trend = s.beta*(s.level-prevLevel) + (1-s.beta)*s.trend
	s.season[idx] = s.gamma*(y-s.level) + (1-s.gamma)*s.season[idx]
}

// clone copies the state without the fit residuals
func (s *smoothing) clone() *smoothing {
	c := *s
	c.season = append([]float64(nil), s.season...)
	c.residuals = nil
	return &c
}

// HoltWinters forecasts daily inflow and outflow with additive weekly
// seasonality. Smoothing constants are chosen per series by grid search on
// one-step-ahead squared error.
type HoltWinters struct {
	mu       sync.RWMutex
	inflow   *smoothing
	outflow  *smoothing
	netSigma float64
	// scale is the mean daily gross movement (inflow + outflow) seen in training
	scale   float64
	lastDay time.Time
	samples int
}

// NewHoltWinters creates an untrained model
func NewHoltWinters() *HoltWinters {
	return &HoltWinters{}
}

// Trained reports whether Fit has succeeded
func (m *HoltWinters) Trained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inflow != nil
}

// Fit trains on daily flows. Missing days count as zero movement; at least
// two full weeks are required.
func (m *HoltWinters) Fit(ctx context.Context, history []analytics.DailyFlow) error {
	days, inflow, outflow := densify(history)
	if len(days) < 2*weeklySeason {
		return shared.NewInvalidInput("forecast model needs at least %d days of history, got %d", 2*weeklySeason, len(days))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	in := fitSeries(inflow)
	out := fitSeries(outflow)

	net := make([]float64, len(in.residuals))
	for i := range net {
		net[i] = in.residuals[i] - out.residuals[i]
	}
	_, sigma := stat.PopMeanStdDev(net, nil)

	gross := make([]float64, len(days))
	for i := range gross {
		gross[i] = inflow[i] + outflow[i]
	}
	scale := stat.Mean(gross, nil)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflow = in
	m.outflow = out
	m.netSigma = sigma
	m.scale = scale
	m.lastDay = days[len(days)-1]
	m.samples = len(days)
	return nil
}

// Predict returns one point per day for the daysAhead days after asOf.
// Days in history newer than the training data are folded into a copy of
// the fitted state first (missing days count as zero), so the horizon is
// counted from the latest known day. The confidence score shrinks with the
// horizon as the residual band widens against the typical daily movement.
func (m *HoltWinters) Predict(ctx context.Context, history []analytics.DailyFlow, asOf time.Time, daysAhead int) ([]analytics.ForecastPoint, error) {
	if daysAhead <= 0 {
		return nil, shared.NewInvalidInput("days ahead must be positive, got %d", daysAhead)
	}

	m.mu.RLock()
	if m.inflow == nil {
		m.mu.RUnlock()
		return nil, shared.ErrEstimatorUnavailable
	}
	inState, outState := m.inflow.clone(), m.outflow.clone()
	n, last := m.samples, m.lastDay
	sigma, scale := m.netSigma, m.scale
	m.mu.RUnlock()

	days, inflow, outflow := densify(history)
	for i, d := range days {
		if !d.After(last) {
			continue
		}
		for gap := last.AddDate(0, 0, 1); gap.Before(d); gap = gap.AddDate(0, 0, 1) {
			inState.update(n, 0)
			outState.update(n, 0)
			n++
		}
		inState.update(n, inflow[i])
		outState.update(n, outflow[i])
		n++
		last = d
	}

	start := truncateDay(asOf)
	points := make([]analytics.ForecastPoint, 0, daysAhead)
	for k := 1; k <= daysAhead; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day := start.AddDate(0, 0, k)
		h := int(day.Sub(last).Hours() / 24)
		if h < 1 {
			h = 1
		}

		in := math.Max(0, inState.forecast(n, h))
		out := math.Max(0, outState.forecast(n, h))
		balance := in - out
		spread := sigma * math.Sqrt(float64(h))
		width := z95 * spread

		lower := decimal.NewFromFloat(balance - width).Round(2)
		upper := decimal.NewFromFloat(balance + width).Round(2)
		confidence := confidenceScore(scale, spread)
		points = append(points, analytics.ForecastPoint{
			BaseEntity:       shared.NewBaseEntity(),
			ForecastDate:     day,
			PredictedInflow:  decimal.NewFromFloat(in).Round(2),
			PredictedOutflow: decimal.NewFromFloat(out).Round(2),
			PredictedBalance: decimal.NewFromFloat(balance).Round(2),
			ConfidenceLower:  &lower,
			ConfidenceUpper:  &upper,
			ConfidenceScore:  &confidence,
			ModelType:        HoltWintersModelType,
		})
	}
	return points, nil
}

// confidenceScore is scale / (scale + spread) rounded to 4 places: 1 for a
// perfect fit, falling towards 0 as the residual spread outgrows the
// typical daily movement
func confidenceScore(scale, spread float64) float64 {
	if scale+spread <= 0 {
		return 1
	}
	return math.Round(scale/(scale+spread)*1e4) / 1e4
}

// fitSeries grid-searches the smoothing constants for y
func fitSeries(y []float64) *smoothing {
	var best *smoothing
	for _, a := range alphaGrid {
		for _, b := range betaGrid {
			for _, g := range gammaGrid {
				s := smooth(y, a, b, g)
				if best == nil || s.sse < best.sse {
					best = s
				}
			}
		}
	}
	return best
}

// smooth runs additive Holt-Winters over y. The first season seeds the
// level and seasonal indices, the first two seasons seed the trend.
func smooth(y []float64, alpha, beta, gamma float64) *smoothing {
	m := weeklySeason
	first := stat.Mean(y[:m], nil)
	second := stat.Mean(y[m:2*m], nil)

	s := &smoothing{
		alpha:  alpha,
		beta:   beta,
		gamma:  gamma,
		level:  first,
		trend:  (second - first) / float64(m),
		season: make([]float64, m),
	}
	for i := 0; i < m; i++ {
		s.season[i] = y[i] - first
	}

	s.residuals = make([]float64, 0, len(y)-m)
	for t := m; t < len(y); t++ {
		idx := t % m
		predicted := s.level + s.trend + s.season[idx]
		err := y[t] - predicted
		s.residuals = append(s.residuals, err)
		s.sse += err * err
		s.update(t, y[t])
	}
	return s
}

// densify sorts flows by day and fills gaps with zero days
func densify(history []analytics.DailyFlow) (days []time.Time, inflow, outflow []float64) {
	if len(history) == 0 {
		return nil, nil, nil
	}

	byDay := make(map[time.Time][2]float64, len(history))
	for _, h := range history {
		day := truncateDay(h.Date)
		acc := byDay[day]
		debit, _ := h.Debit.Float64()
		credit, _ := h.Credit.Float64()
		acc[0] += debit
		acc[1] += credit
		byDay[day] = acc
	}

	keys := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		keys = append(keys, d)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	for d := keys[0]; !d.After(keys[len(keys)-1]); d = d.AddDate(0, 0, 1) {
		acc := byDay[d]
		days = append(days, d)
		inflow = append(inflow, acc[0])
		outflow = append(outflow, acc[1])
	}
	return days, inflow, outflow
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
