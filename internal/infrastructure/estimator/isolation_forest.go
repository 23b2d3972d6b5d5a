// Package estimator holds the trainable models behind the analytics
// endpoints: an isolation forest for invoice outliers and a Holt-Winters
// model for daily cash flow.
package estimator

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/erp/muhasebe/internal/domain/shared"
	"gonum.org/v1/gonum/stat"
)

var _ analytics.OutlierScorer = (*IsolationForest)(nil)

// Forest defaults
const (
	DefaultTrees         = 100
	DefaultSampleSize    = 256
	DefaultContamination = 0.1
	DefaultSeed          = 42
)

// eulerGamma is the Euler-Mascheroni constant used by the average path length
const eulerGamma = 0.5772156649

// ForestConfig configures an IsolationForest
type ForestConfig struct {
	Trees         int
	SampleSize    int
	Contamination float64
	Seed          int64
}

// DefaultForestConfig returns the forest defaults
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:         DefaultTrees,
		SampleSize:    DefaultSampleSize,
		Contamination: DefaultContamination,
		Seed:          DefaultSeed,
	}
}

type iNode struct {
	feature int
	split   float64
	left    *iNode
	right   *iNode
	size    int
}

func (n *iNode) leaf() bool {
	return n.left == nil
}

// IsolationForest scores samples by how quickly random axis-aligned splits
// isolate them. Features are standardized with the training mean and
// deviation before they reach the trees.
//
// Score follows the OutlierScorer convention: Raw is the negated anomaly
// score, so higher means more normal. A sample is an outlier when Raw falls
// under the contamination quantile of the training scores.
type IsolationForest struct {
	cfg ForestConfig

	mu         sync.RWMutex
	trees      []*iNode
	sampleSize int
	mean       []float64
	std        []float64
	offset     float64
}

// NewIsolationForest creates an untrained forest. Zero config values take
// the defaults.
func NewIsolationForest(cfg ForestConfig) *IsolationForest {
	if cfg.Trees <= 0 {
		cfg.Trees = DefaultTrees
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultSampleSize
	}
	if cfg.Contamination <= 0 || cfg.Contamination >= 0.5 {
		cfg.Contamination = DefaultContamination
	}
	return &IsolationForest{cfg: cfg}
}

// Trained reports whether Fit has succeeded at least once
func (f *IsolationForest) Trained() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.trees) > 0
}

// Fit builds the forest from feature rows. It needs at least two rows of
// equal width.
func (f *IsolationForest) Fit(features [][]float64) error {
	width, err := checkRows(features, -1)
	if err != nil {
		return err
	}
	if len(features) < 2 {
		return shared.NewInvalidInput("isolation forest needs at least 2 samples, got %d", len(features))
	}

	mean, std := columnStats(features, width)
	scaled := standardize(features, mean, std)

	sampleSize := f.cfg.SampleSize
	if sampleSize > len(scaled) {
		sampleSize = len(scaled)
	}
	limit := int(math.Ceil(math.Log2(float64(sampleSize))))

	rng := rand.New(rand.NewSource(f.cfg.Seed))
	trees := make([]*iNode, f.cfg.Trees)
	for i := range trees {
		perm := rng.Perm(len(scaled))[:sampleSize]
		sample := make([][]float64, sampleSize)
		for j, idx := range perm {
			sample[j] = scaled[idx]
		}
		trees[i] = grow(rng, sample, 0, limit)
	}

	raw := make([]float64, len(scaled))
	for i, row := range scaled {
		raw[i] = -anomalyScore(trees, row, sampleSize)
	}
	sorted := append([]float64(nil), raw...)
	sort.Float64s(sorted)
	offset := stat.Quantile(f.cfg.Contamination, stat.Empirical, sorted, nil)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.trees = trees
	f.sampleSize = sampleSize
	f.mean = mean
	f.std = std
	f.offset = offset
	return nil
}

// Score rates each row. An untrained forest yields ErrEstimatorUnavailable.
func (f *IsolationForest) Score(features [][]float64) ([]analytics.ScoredPoint, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.trees) == 0 {
		return nil, shared.ErrEstimatorUnavailable
	}
	if _, err := checkRows(features, len(f.mean)); err != nil {
		return nil, err
	}

	scaled := standardize(features, f.mean, f.std)
	points := make([]analytics.ScoredPoint, len(scaled))
	for i, row := range scaled {
		raw := -anomalyScore(f.trees, row, f.sampleSize)
		points[i] = analytics.ScoredPoint{Raw: raw, Outlier: raw < f.offset}
	}
	return points, nil
}

func grow(rng *rand.Rand, rows [][]float64, depth, limit int) *iNode {
	if depth >= limit || len(rows) <= 1 {
		return &iNode{size: len(rows)}
	}

	width := len(rows[0])
	candidates := make([]int, 0, width)
	lo := make([]float64, width)
	hi := make([]float64, width)
	for c := 0; c < width; c++ {
		lo[c], hi[c] = rows[0][c], rows[0][c]
		for _, r := range rows[1:] {
			lo[c] = math.Min(lo[c], r[c])
			hi[c] = math.Max(hi[c], r[c])
		}
		if hi[c] > lo[c] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return &iNode{size: len(rows)}
	}

	feature := candidates[rng.Intn(len(candidates))]
	split := lo[feature] + rng.Float64()*(hi[feature]-lo[feature])

	var left, right [][]float64
	for _, r := range rows {
		if r[feature] < split {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	return &iNode{
		feature: feature,
		split:   split,
		left:    grow(rng, left, depth+1, limit),
		right:   grow(rng, right, depth+1, limit),
		size:    len(rows),
	}
}

func pathLength(n *iNode, x []float64, depth int) float64 {
	for !n.leaf() {
		if x[n.feature] < n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return float64(depth) + averagePath(n.size)
}

// anomalyScore is 2^(-E[h(x)]/c(n)); close to 1 means isolated early
func anomalyScore(trees []*iNode, x []float64, sampleSize int) float64 {
	var total float64
	for _, t := range trees {
		total += pathLength(t, x, 0)
	}
	mean := total / float64(len(trees))
	norm := averagePath(sampleSize)
	if norm == 0 {
		return 0.5
	}
	return math.Pow(2, -mean/norm)
}

// averagePath is the expected path length of an unsuccessful BST search
// over n points
func averagePath(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

func checkRows(rows [][]float64, want int) (int, error) {
	if len(rows) == 0 {
		return 0, shared.NewInvalidInput("no feature rows")
	}
	width := want
	if width < 0 {
		width = len(rows[0])
	}
	if width == 0 {
		return 0, shared.NewInvalidInput("feature rows are empty")
	}
	for i, r := range rows {
		if len(r) != width {
			return 0, shared.NewInvalidInput("feature row %d has %d columns, want %d", i, len(r), width)
		}
	}
	return width, nil
}

func columnStats(rows [][]float64, width int) (mean, std []float64) {
	mean = make([]float64, width)
	std = make([]float64, width)
	col := make([]float64, len(rows))
	for c := 0; c < width; c++ {
		for i, r := range rows {
			col[i] = r[c]
		}
		m, s := stat.PopMeanStdDev(col, nil)
		if s == 0 || math.IsNaN(s) {
			s = 1
		}
		mean[c], std[c] = m, s
	}
	return mean, std
}

func standardize(rows [][]float64, mean, std []float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		scaled := make([]float64, len(r))
		for c, v := range r {
			scaled[c] = (v - mean[c]) / std[c]
		}
		out[i] = scaled
	}
	return out
}
