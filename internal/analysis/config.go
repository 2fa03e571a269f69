package analysis

import (
	"fmt"
	"math"
	"time"
)

// weightSumTolerance absorbs floating-point noise when checking that a
// weight set sums to 1.0.
const weightSumTolerance = 1e-9

// SimilarityWeights blends content similarity with structural agreement
// signals. The three weights must sum to 1.0.
type SimilarityWeights struct {
	Content  float64 // cosine similarity over normalized description tokens
	Location float64 // Jaccard agreement over location tokens
	Salary   float64 // salary range overlap
}

// QualityWeights combines the per-company aggregate signals into the final
// HR quality score. The three weights must sum to 1.0.
type QualityWeights struct {
	Consistency       float64 // mean delta similarity
	PrimaryResolution float64 // fraction of clusters with a resolved primary
	Freshness         float64 // 1 − fraction of outdated secondaries
}

// Config holds every tunable of the reconciliation core. Thresholds and
// weights are policy choices, not derived constants — they live here so
// runs are reproducible and testable in isolation.
type Config struct {
	// DuplicateThreshold is the minimum similarity for two postings to be
	// linked as duplicates.
	DuplicateThreshold float64

	// GatingWindow bounds pairwise comparison to postings whose posted
	// dates fall within this span of each other.
	GatingWindow time.Duration

	// RequireCompleteLinks switches clustering from transitive-closure
	// chaining (the default, favors recall) to all-pairs linkage: a pair is
	// only merged when every resulting member pair scores above threshold.
	RequireCompleteLinks bool

	Similarity SimilarityWeights
	Quality    QualityWeights

	// OutdatedFractionMax is the fraction of outdated_secondary deltas
	// above which a company is flagged frequent_outdated_secondaries.
	OutdatedFractionMax float64

	// ConsistencyFloor is the content consistency score below which a
	// company is flagged poor_sync_quality.
	ConsistencyFloor float64
}

// DefaultConfig returns the stock tuning: 0.85 duplicate cutoff, 30-day
// gating window, content-dominant similarity blend, chained clustering.
func DefaultConfig() Config {
	return Config{
		DuplicateThreshold:   0.85,
		GatingWindow:         30 * 24 * time.Hour,
		RequireCompleteLinks: false,
		Similarity: SimilarityWeights{
			Content:  0.8,
			Location: 0.1,
			Salary:   0.1,
		},
		Quality: QualityWeights{
			Consistency:       0.5,
			PrimaryResolution: 0.3,
			Freshness:         0.2,
		},
		OutdatedFractionMax: 0.5,
		ConsistencyFloor:    0.6,
	}
}

// Validate checks the configuration and returns a descriptive error on the
// first violation. Configuration errors are operator errors: they must fail
// fast at construction time, never silently degrade scoring.
func (c Config) Validate() error {
	if c.DuplicateThreshold <= 0 || c.DuplicateThreshold > 1 {
		return fmt.Errorf("duplicate threshold must be in (0, 1], got %.4f", c.DuplicateThreshold)
	}
	if c.GatingWindow <= 0 {
		return fmt.Errorf("gating window must be positive, got %v", c.GatingWindow)
	}
	if err := checkWeightSum("similarity", c.Similarity.Content, c.Similarity.Location, c.Similarity.Salary); err != nil {
		return err
	}
	if err := checkWeightSum("quality", c.Quality.Consistency, c.Quality.PrimaryResolution, c.Quality.Freshness); err != nil {
		return err
	}
	if c.OutdatedFractionMax < 0 || c.OutdatedFractionMax > 1 {
		return fmt.Errorf("outdated fraction max must be in [0, 1], got %.4f", c.OutdatedFractionMax)
	}
	if c.ConsistencyFloor < 0 || c.ConsistencyFloor > 1 {
		return fmt.Errorf("consistency floor must be in [0, 1], got %.4f", c.ConsistencyFloor)
	}
	return nil
}

func checkWeightSum(name string, weights ...float64) error {
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s weights must be non-negative, got %.4f", name, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%s weights must sum to 1.0, got %.6f", name, sum)
	}
	return nil
}
