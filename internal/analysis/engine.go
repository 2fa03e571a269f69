package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/gorgaloro/job-automation-sub001/internal/model"
)

// Engine runs the reconciliation pipeline over in-memory JobSource
// snapshots. It holds only validated configuration — no hidden state, no
// I/O — so every method is a pure function of its inputs (timestamps
// aside) and safe to call from concurrent per-company workers.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an Engine. A weight set that does
// not sum to 1.0 must never silently degrade scoring, so configuration
// errors are fatal.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("analysis config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// DuplicateResult is the outcome of duplicate detection over one snapshot.
type DuplicateResult struct {
	Clusters            []model.DuplicateCluster `json:"clusters"`
	DuplicatePairsFound int                      `json:"duplicatePairsFound"`
}

// DeltaResult is the outcome of delta analysis over one snapshot.
type DeltaResult struct {
	DeltaRecords           []model.DeltaRecord `json:"deltaRecords"`
	AvgSimilarityScore     float64             `json:"avgSimilarityScore"`
	OutdatedSecondaryCount int                 `json:"outdatedSecondaryCount"`
}

// DetectDuplicates clusters a snapshot of postings into duplicate groups.
// Every input source belongs to exactly one returned cluster; sources that
// never link (or cannot be compared) form singletons.
func (e *Engine) DetectDuplicates(sources []model.JobSource) DuplicateResult {
	sorted, feats := e.prepare(sources)
	clusters, pairs := e.buildClusters(sorted, feats, time.Now().UTC())
	return DuplicateResult{Clusters: clusters, DuplicatePairsFound: pairs}
}

// AnalyzeDeltas clusters a snapshot and produces primary→secondary
// DeltaRecords for every cluster with a resolved primary. The average
// similarity covers scoreable (non-indeterminate) records only.
func (e *Engine) AnalyzeDeltas(sources []model.JobSource) DeltaResult {
	sorted, feats := e.prepare(sources)
	now := time.Now().UTC()
	clusters, _ := e.buildClusters(sorted, feats, now)
	deltas := e.buildDeltas(clusters, indexByID(sorted), sorted, feats, now)
	return summarizeDeltas(deltas)
}

// Reconciliation is the full outcome of one company run: the clusters, the
// delta records and the aggregated analytics, all derived from a single
// pass over the snapshot.
type Reconciliation struct {
	Clusters            []model.DuplicateCluster
	DuplicatePairsFound int
	Deltas              DeltaResult
	Analytics           model.CompanySourceAnalytics
}

// Reconcile runs the whole pipeline for one employer: clustering, delta
// analysis and analytics aggregation over one consistent snapshot.
func (e *Engine) Reconcile(companyID, companyName string, sources []model.JobSource) Reconciliation {
	sorted, feats := e.prepare(sources)
	now := time.Now().UTC()
	clusters, pairs := e.buildClusters(sorted, feats, now)
	deltas := e.buildDeltas(clusters, indexByID(sorted), sorted, feats, now)
	return Reconciliation{
		Clusters:            clusters,
		DuplicatePairsFound: pairs,
		Deltas:              summarizeDeltas(deltas),
		Analytics:           e.scoreCompany(companyID, companyName, sorted, clusters, deltas, pairs, now),
	}
}

// AnalyzeCompanySources runs the full pipeline for one employer and
// aggregates the outcome into CompanySourceAnalytics. Recomputed wholesale
// on every call; identical inputs (in any order) yield identical scores.
func (e *Engine) AnalyzeCompanySources(companyID, companyName string, sources []model.JobSource) model.CompanySourceAnalytics {
	return e.Reconcile(companyID, companyName, sources).Analytics
}

// prepare copies and sorts the snapshot by SourceID, then derives features
// for every source. Sorting makes the whole pipeline independent of caller
// ordering.
func (e *Engine) prepare(sources []model.JobSource) ([]model.JobSource, []Features) {
	sorted := make([]model.JobSource, len(sources))
	copy(sorted, sources)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SourceID < sorted[j].SourceID })

	feats := make([]Features, len(sorted))
	for i := range sorted {
		feats[i] = ComputeFeatures(sorted[i])
	}
	return sorted, feats
}

func indexByID(sources []model.JobSource) map[string]int {
	byID := make(map[string]int, len(sources))
	for i, s := range sources {
		byID[s.SourceID] = i
	}
	return byID
}

func summarizeDeltas(deltas []model.DeltaRecord) DeltaResult {
	res := DeltaResult{DeltaRecords: deltas}
	var sum float64
	scoreable := 0
	for _, d := range deltas {
		if d.DeltaStatus == model.DeltaIndeterminate {
			continue
		}
		scoreable++
		sum += d.SimilarityScore
		if d.DeltaStatus == model.DeltaOutdatedSecondary {
			res.OutdatedSecondaryCount++
		}
	}
	if scoreable > 0 {
		res.AvgSimilarityScore = sum / float64(scoreable)
	}
	return res
}
