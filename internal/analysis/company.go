package analysis

import (
	"sort"
	"time"

	"github.com/gorgaloro/job-automation-sub001/internal/model"
)

// scoreCompany aggregates one company's clusters and deltas into
// CompanySourceAnalytics. Pure aggregation: same inputs always produce the
// same scores, regardless of input ordering.
//
// The HR quality score blends three signals with configurable weights:
// content consistency (mean delta similarity), primary resolution (fraction
// of clusters with a resolved primary) and freshness (1 − fraction of
// outdated secondaries). Consistency and freshness only exist once at least
// one scoreable delta exists; when they don't, their weights are
// redistributed over the available signals rather than counted as zeros —
// absent evidence is not negative evidence.
func (e *Engine) scoreCompany(companyID, companyName string, sources []model.JobSource, clusters []model.DuplicateCluster, deltas []model.DeltaRecord, duplicatePairs int, now time.Time) model.CompanySourceAnalytics {
	a := model.CompanySourceAnalytics{
		CompanyID:           companyID,
		CompanyName:         companyName,
		PlatformUsage:       make(map[string]int),
		ClusterCount:        len(clusters),
		DuplicatePairsFound: duplicatePairs,
		DeltaRecordCount:    len(deltas),
		ComputedAt:          now,
	}
	for _, s := range sources {
		if s.Platform != "" {
			a.PlatformUsage[s.Platform]++
		}
	}

	// A company with nothing observed is unscored, not perfect.
	if len(clusters) == 0 {
		a.SourceManagementFlags = []model.SourceFlag{}
		return a
	}

	resolved := 0
	flags := make(map[model.SourceFlag]bool)
	for _, c := range clusters {
		if c.PrimarySourceID != "" {
			resolved++
		}
		if c.MissingPrimary {
			flags[model.FlagMissingPrimarySources] = true
		}
		if c.AmbiguousPrimary {
			flags[model.FlagAmbiguousPrimarySource] = true
		}
	}
	primaryFraction := float64(resolved) / float64(len(clusters))

	var simSum float64
	scoreable := 0
	outdated := 0
	for _, d := range deltas {
		if d.DeltaStatus == model.DeltaIndeterminate {
			continue
		}
		scoreable++
		simSum += d.SimilarityScore
		if d.DeltaStatus == model.DeltaOutdatedSecondary {
			outdated++
		}
	}
	a.OutdatedSecondaryCount = outdated

	w := e.cfg.Quality
	if scoreable > 0 {
		a.ContentConsistencyScore = simSum / float64(scoreable)
		outdatedFraction := float64(outdated) / float64(scoreable)
		a.HRQualityScore = clamp01(
			w.Consistency*a.ContentConsistencyScore +
				w.PrimaryResolution*primaryFraction +
				w.Freshness*(1-outdatedFraction),
		)
		if outdatedFraction > e.cfg.OutdatedFractionMax {
			flags[model.FlagFrequentOutdatedSecondaries] = true
		}
		if a.ContentConsistencyScore < e.cfg.ConsistencyFloor {
			flags[model.FlagPoorSyncQuality] = true
		}
	} else {
		// No scoreable deltas: primary resolution is the only evidence.
		a.HRQualityScore = clamp01(primaryFraction)
	}

	a.SourceManagementFlags = sortedFlags(flags)
	return a
}

func sortedFlags(set map[model.SourceFlag]bool) []model.SourceFlag {
	flags := make([]model.SourceFlag, 0, len(set))
	for f := range set {
		flags = append(flags, f)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}
