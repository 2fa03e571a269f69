package analysis_test

import (
	"testing"
	"time"

	"github.com/gorgaloro/job-automation-sub001/internal/model"
)

// ── AnalyzeDeltas ──────────────────────────────────────────────────────────

func TestAnalyzeDeltas_OneRecordPerSecondary(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	desc := wordText(20, "a")
	sources := []model.JobSource{
		makeSource("p1", "c1", model.SourceTypePrimary, "company-site", "Engineer", "NYC", desc, "", now),
		makeSource("s1", "c1", model.SourceTypeSecondary, "linkedin", "Engineer", "NYC", desc, "", now),
		makeSource("s2", "c1", model.SourceTypeSecondary, "indeed", "Engineer", "NYC", desc, "", now),
	}
	res := e.AnalyzeDeltas(sources)
	if len(res.DeltaRecords) != 2 {
		t.Fatalf("got %d delta records, want 2 (one per secondary)", len(res.DeltaRecords))
	}
	for _, d := range res.DeltaRecords {
		if d.PrimarySourceID != "p1" {
			t.Errorf("delta primary = %q, want p1 (direction is always primary→secondary)", d.PrimarySourceID)
		}
		if d.DeltaStatus != model.DeltaIdentical {
			t.Errorf("delta status = %s, want identical", d.DeltaStatus)
		}
	}
	if res.AvgSimilarityScore < 0.999999 {
		t.Errorf("avg similarity = %f, want 1.0", res.AvgSimilarityScore)
	}
}

func TestAnalyzeDeltas_MissingPrimaryProducesNoRecords(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	desc := wordText(20, "a")
	sources := []model.JobSource{
		makeSource("s1", "c1", model.SourceTypeSecondary, "linkedin", "Engineer", "NYC", desc, "", now),
		makeSource("s2", "c1", model.SourceTypeSecondary, "indeed", "Engineer", "NYC", desc, "", now),
	}
	res := e.AnalyzeDeltas(sources)
	if len(res.DeltaRecords) != 0 {
		t.Errorf("got %d delta records, want 0 for a cluster without a primary", len(res.DeltaRecords))
	}
}

// staleChainSources builds a freshly rewritten primary plus four secondary
// board copies at increasing staleness. Each copy links to its neighbor
// above the duplicate threshold, so chained merging pulls all five into one
// cluster — but the stalest copy sits far from the rewritten primary:
// sim(primary, stalest) = 0.8·(12/40) + 0.2 = 0.44, an outdated_secondary.
func staleChainSources(now time.Time) []model.JobSource {
	positions := func(n int) []int {
		p := make([]int, n)
		for i := range p {
			p[i] = i
		}
		return p
	}
	texts := []string{
		wordText(40, "x", positions(28)...), // the rewritten primary
		wordText(40, "x", positions(21)...),
		wordText(40, "x", positions(14)...),
		wordText(40, "x", positions(7)...),
		wordText(40, "x"), // the stale original the boards copied long ago
	}
	platforms := []string{"company-site", "linkedin", "indeed", "glassdoor", "monster"}
	sources := make([]model.JobSource, len(texts))
	for i, text := range texts {
		typ := model.SourceTypeSecondary
		if i == 0 {
			typ = model.SourceTypePrimary
		}
		sources[i] = makeSource("s"+string(rune('0'+i)), "c1", typ, platforms[i],
			"Engineer", "NYC", text, "", now)
	}
	return sources
}

// A heavily rewritten primary leaves the stalest chained secondary below
// the 0.50 band: outdated_secondary.
func TestAnalyzeDeltas_StaleSecondaryClassifiedOutdated(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	sources := staleChainSources(now)

	dup := e.DetectDuplicates(sources)
	if len(dup.Clusters) != 1 {
		t.Fatalf("got %d clusters, want 1 (chain must merge)", len(dup.Clusters))
	}

	res := e.AnalyzeDeltas(sources)
	if len(res.DeltaRecords) != 4 {
		t.Fatalf("got %d delta records, want 4", len(res.DeltaRecords))
	}
	var stale *model.DeltaRecord
	for i := range res.DeltaRecords {
		if res.DeltaRecords[i].SecondarySourceID == "s4" {
			stale = &res.DeltaRecords[i]
		}
	}
	if stale == nil {
		t.Fatal("no delta record for the stalest secondary")
	}
	if stale.DeltaStatus != model.DeltaOutdatedSecondary {
		t.Errorf("stale delta status = %s (score %f), want outdated_secondary",
			stale.DeltaStatus, stale.SimilarityScore)
	}
	if res.OutdatedSecondaryCount != 1 {
		t.Errorf("outdated_secondary_count = %d, want 1", res.OutdatedSecondaryCount)
	}
}

// An empty-content secondary never links (non-comparable, excluded from
// scoring), so it forms a singleton and produces no delta record. It must
// never be forced into the outdated_secondary band.
func TestAnalyzeDeltas_EmptySecondaryIsIndeterminate(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	sources := []model.JobSource{
		makeSource("p1", "c1", model.SourceTypePrimary, "company-site", "Engineer", "NYC", wordText(20, "a"), "", now),
		makeSource("s1", "c1", model.SourceTypeSecondary, "indeed", "Engineer", "NYC", "", "", now),
	}
	res := e.AnalyzeDeltas(sources)
	for _, d := range res.DeltaRecords {
		if d.DeltaStatus == model.DeltaOutdatedSecondary {
			t.Error("empty-content secondary must never classify as outdated_secondary")
		}
	}
	dup := e.DetectDuplicates(sources)
	if len(dup.Clusters) != 2 {
		t.Errorf("got %d clusters, want 2 (non-comparable source stays a singleton)", len(dup.Clusters))
	}
}

// ── Field-level differences ────────────────────────────────────────────────

func TestAnalyzeDeltas_FieldDifferences(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	desc := wordText(20, "a")
	sources := []model.JobSource{
		makeSource("p1", "c1", model.SourceTypePrimary, "company-site", "Senior PM", "San Francisco, CA", desc, "$150,000 - $180,000", now),
		makeSource("s1", "c1", model.SourceTypeSecondary, "indeed", "Senior PM", "San Francisco, CA", desc, "", now),
	}
	res := e.AnalyzeDeltas(sources)
	if len(res.DeltaRecords) != 1 {
		t.Fatalf("got %d delta records, want 1", len(res.DeltaRecords))
	}
	d := res.DeltaRecords[0]
	if d.DeltaStatus != model.DeltaMinorDifferences {
		t.Errorf("delta status = %s, want minor_differences", d.DeltaStatus)
	}
	if len(d.FieldDifferences) != 1 {
		t.Fatalf("got %d field differences %v, want 1 (salary only)", len(d.FieldDifferences), d.FieldDifferences)
	}
	fd := d.FieldDifferences[0]
	if fd.Field != "salary" {
		t.Errorf("differing field = %q, want salary", fd.Field)
	}
	if fd.Primary != "150000-180000" || fd.Secondary != "" {
		t.Errorf("salary diff = %q → %q, want 150000-180000 → \"\"", fd.Primary, fd.Secondary)
	}
}
