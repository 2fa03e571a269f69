package analysis_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/gorgaloro/job-automation-sub001/internal/analysis"
	"github.com/gorgaloro/job-automation-sub001/internal/model"
)

func hasFlag(a model.CompanySourceAnalytics, f model.SourceFlag) bool {
	for _, got := range a.SourceManagementFlags {
		if got == f {
			return true
		}
	}
	return false
}

// ── Scenario: well-managed company ─────────────────────────────────────────

// One primary posting and one secondary identical except for an omitted
// salary: delta lands at 0.90 (minor_differences), HR quality near 1.0, no
// flags.
func TestAnalyzeCompanySources_CleanCompany(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	desc := "own the roadmap for our core product and lead cross functional delivery"
	sources := []model.JobSource{
		makeSource("p1", "c1", model.SourceTypePrimary, "company-site", "Senior PM", "San Francisco, CA", desc, "$150,000 - $180,000", now),
		makeSource("s1", "c1", model.SourceTypeSecondary, "linkedin", "Senior PM", "San Francisco, CA", desc, "", now),
	}

	a := e.AnalyzeCompanySources("c1", "Acme", sources)

	if math.Abs(a.ContentConsistencyScore-0.90) > 1e-9 {
		t.Errorf("content_consistency_score = %f, want 0.90", a.ContentConsistencyScore)
	}
	// 0.5·0.90 + 0.3·1.0 + 0.2·1.0 = 0.95
	if math.Abs(a.HRQualityScore-0.95) > 1e-9 {
		t.Errorf("hr_quality_score = %f, want 0.95", a.HRQualityScore)
	}
	if len(a.SourceManagementFlags) != 0 {
		t.Errorf("flags = %v, want none", a.SourceManagementFlags)
	}
	if a.PlatformUsage["company-site"] != 1 || a.PlatformUsage["linkedin"] != 1 {
		t.Errorf("platform_usage = %v", a.PlatformUsage)
	}
	if a.ClusterCount != 1 || a.DeltaRecordCount != 1 {
		t.Errorf("cluster_count = %d, delta_record_count = %d, want 1/1", a.ClusterCount, a.DeltaRecordCount)
	}
}

// ── Scenario: secondaries only ─────────────────────────────────────────────

// Two duplicate secondaries with no primary: flagged, zero deltas, HR
// quality fully penalized on the primary-resolution signal.
func TestAnalyzeCompanySources_NoPrimary(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	desc := wordText(20, "a")
	sources := []model.JobSource{
		makeSource("s1", "c1", model.SourceTypeSecondary, "linkedin", "Engineer", "NYC", desc, "", now),
		makeSource("s2", "c1", model.SourceTypeSecondary, "indeed", "Engineer", "NYC", desc, "", now),
	}

	a := e.AnalyzeCompanySources("c1", "Acme", sources)

	if !hasFlag(a, model.FlagMissingPrimarySources) {
		t.Errorf("flags = %v, want missing_primary_sources", a.SourceManagementFlags)
	}
	if a.DeltaRecordCount != 0 {
		t.Errorf("delta_record_count = %d, want 0", a.DeltaRecordCount)
	}
	if a.HRQualityScore != 0 {
		t.Errorf("hr_quality_score = %f, want 0 (no cluster resolved a primary)", a.HRQualityScore)
	}
}

// ── Scenario: stale board copies ───────────────────────────────────────────

// With the outdated-fraction ceiling tightened below the observed fraction,
// the company picks up frequent_outdated_secondaries.
func TestAnalyzeCompanySources_FrequentOutdatedFlag(t *testing.T) {
	cfg := analysis.DefaultConfig()
	cfg.OutdatedFractionMax = 0.2
	e, err := analysis.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	a := e.AnalyzeCompanySources("c1", "Acme", staleChainSources(now))

	if a.OutdatedSecondaryCount != 1 {
		t.Fatalf("outdated_secondary_count = %d, want 1", a.OutdatedSecondaryCount)
	}
	// 1 outdated of 4 deltas = 0.25 > 0.2 ceiling.
	if !hasFlag(a, model.FlagFrequentOutdatedSecondaries) {
		t.Errorf("flags = %v, want frequent_outdated_secondaries", a.SourceManagementFlags)
	}
}

func TestAnalyzeCompanySources_PoorSyncQualityFlag(t *testing.T) {
	cfg := analysis.DefaultConfig()
	cfg.ConsistencyFloor = 0.7
	e, err := analysis.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	// Mean delta similarity of the stale chain is (0.86+0.72+0.58+0.44)/4 = 0.65.
	a := e.AnalyzeCompanySources("c1", "Acme", staleChainSources(now))

	if math.Abs(a.ContentConsistencyScore-0.65) > 1e-6 {
		t.Errorf("content_consistency_score = %f, want 0.65", a.ContentConsistencyScore)
	}
	if !hasFlag(a, model.FlagPoorSyncQuality) {
		t.Errorf("flags = %v, want poor_sync_quality", a.SourceManagementFlags)
	}
}

// ── Zero data ──────────────────────────────────────────────────────────────

func TestAnalyzeCompanySources_NoSourcesIsNeutral(t *testing.T) {
	e := newTestEngine(t)
	a := e.AnalyzeCompanySources("c1", "Acme", nil)
	if a.HRQualityScore != 0 || a.ContentConsistencyScore != 0 {
		t.Errorf("empty company must score neutral zero, got hr=%f consistency=%f",
			a.HRQualityScore, a.ContentConsistencyScore)
	}
	if len(a.SourceManagementFlags) != 0 {
		t.Errorf("empty company must carry no flags, got %v", a.SourceManagementFlags)
	}
	if a.CompanyID != "c1" || a.CompanyName != "Acme" {
		t.Errorf("identity not carried through: %s/%s", a.CompanyID, a.CompanyName)
	}
}

// ── Determinism ────────────────────────────────────────────────────────────

// Aggregation must be order-independent: any permutation of the input
// snapshot yields identical scores and flags.
func TestAnalyzeCompanySources_OrderIndependent(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	sources := staleChainSources(now)

	base := e.AnalyzeCompanySources("c1", "Acme", sources)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]model.JobSource, len(sources))
		copy(shuffled, sources)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := e.AnalyzeCompanySources("c1", "Acme", shuffled)
		if got.HRQualityScore != base.HRQualityScore {
			t.Fatalf("trial %d: hr_quality_score %f != %f", trial, got.HRQualityScore, base.HRQualityScore)
		}
		if got.ContentConsistencyScore != base.ContentConsistencyScore {
			t.Fatalf("trial %d: content_consistency_score %f != %f", trial, got.ContentConsistencyScore, base.ContentConsistencyScore)
		}
		if len(got.SourceManagementFlags) != len(base.SourceManagementFlags) {
			t.Fatalf("trial %d: flags %v != %v", trial, got.SourceManagementFlags, base.SourceManagementFlags)
		}
	}
}
