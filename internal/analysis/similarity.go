package analysis

import "github.com/gorgaloro/job-automation-sub001/internal/model"

// Delta-status band boundaries. Applied to a primary→secondary similarity
// score; fixed system-wide so every consumer classifies identically.
const (
	bandIdentical = 0.98
	bandMinor     = 0.90
	bandDrift     = 0.75
	bandMajor     = 0.50
)

// Similarity scores two postings' features in [0, 1]: a weighted blend of
// content cosine similarity, location token agreement and salary range
// overlap. Symmetric and reflexive. Behavior is undefined when either side
// is non-comparable — callers must gate on Features.Norm.Comparable first.
func Similarity(a, b Features, w SimilarityWeights) float64 {
	// Identical fingerprints mean identical normalized description text;
	// the structural signals still apply (a board may mirror the text but
	// drop the salary).
	var content float64
	if a.Fingerprint != "" && a.Fingerprint == b.Fingerprint {
		content = 1.0
	} else {
		content = cosine(a.Vector, b.Vector)
	}
	location := jaccard(a.Norm.LocationTokens, b.Norm.LocationTokens)
	salary := salaryAgreement(a.Norm.Salary, b.Norm.Salary)
	return clamp01(w.Content*content + w.Location*location + w.Salary*salary)
}

// ClassifyDelta maps a similarity score onto the fixed delta-status bands.
// Callers handle the non-comparable case separately (DeltaIndeterminate);
// this function assumes a defined score.
func ClassifyDelta(score float64) model.DeltaStatus {
	switch {
	case score >= bandIdentical:
		return model.DeltaIdentical
	case score >= bandMinor:
		return model.DeltaMinorDifferences
	case score >= bandDrift:
		return model.DeltaContentDrift
	case score >= bandMajor:
		return model.DeltaMajorDiscrepancy
	default:
		return model.DeltaOutdatedSecondary
	}
}

// cosine computes the dot product of two L2-normalized term vectors.
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller map.
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for t, fa := range a {
		if fb, ok := b[t]; ok {
			dot += fa * fb
		}
	}
	return clamp01(dot)
}

// jaccard measures location token agreement. Two postings that both omit
// location are in agreement, not in conflict.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	inter := 0
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			inter++
		}
	}
	union := len(set) + len(seen) - inter
	return float64(inter) / float64(union)
}

// salaryAgreement measures overlap between two advertised salary bands.
// Both absent → full agreement; one absent → full disagreement (a board
// that drops the advertised range is withholding structure, which is
// exactly the penalty the salary weight exists to apply).
func salaryAgreement(a, b *SalaryRange) float64 {
	if a == nil && b == nil {
		return 1.0
	}
	if a == nil || b == nil {
		return 0
	}
	lo := max64(a.Min, b.Min)
	hi := min64(a.Max, b.Max)
	if hi < lo {
		return 0 // disjoint ranges
	}
	span := max64(a.Max, b.Max) - min64(a.Min, b.Min)
	if span == 0 {
		return 1.0 // identical point figures
	}
	return clamp01((hi - lo) / span)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
