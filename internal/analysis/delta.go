package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorgaloro/job-automation-sub001/internal/model"
)

// buildDeltas produces one primary→secondary DeltaRecord per non-primary
// member of every cluster that resolved a primary. Unresolved clusters
// produce no records — their absence is itself a signal the company scorer
// consumes through the missing-primary flag.
func (e *Engine) buildDeltas(clusters []model.DuplicateCluster, byID map[string]int, sources []model.JobSource, feats []Features, now time.Time) []model.DeltaRecord {
	var deltas []model.DeltaRecord
	for _, c := range clusters {
		if c.PrimarySourceID == "" {
			continue
		}
		pi := byID[c.PrimarySourceID]
		for _, sid := range c.MemberSourceIDs {
			if sid == c.PrimarySourceID {
				continue
			}
			si := byID[sid]
			deltas = append(deltas, e.compare(sources[pi], feats[pi], sources[si], feats[si], now))
		}
	}
	return deltas
}

// compare scores one primary/secondary pair and classifies the secondary's
// drift. Empty normalized content on either side yields indeterminate —
// never a forced band, which would fabricate a quality signal out of an
// input defect. Clustering keeps defective sources in singletons, so the
// indeterminate guard holds the classification contract rather than a path
// the batch pipeline reaches.
func (e *Engine) compare(primary model.JobSource, pf Features, secondary model.JobSource, sf Features, now time.Time) model.DeltaRecord {
	rec := model.DeltaRecord{
		PrimarySourceID:   primary.SourceID,
		SecondarySourceID: secondary.SourceID,
		ComputedAt:        now,
	}
	if !pf.Norm.Comparable() || !sf.Norm.Comparable() {
		rec.DeltaStatus = model.DeltaIndeterminate
		return rec
	}
	rec.SimilarityScore = Similarity(pf, sf, e.cfg.Similarity)
	rec.DeltaStatus = ClassifyDelta(rec.SimilarityScore)
	rec.FieldDifferences = fieldDifferences(pf.Norm, sf.Norm)
	return rec
}

// fieldDifferences is a coarse structured diff over normalized title,
// location tokens and extracted salary — enough to explain why a delta
// status was assigned, deliberately not a general text diff.
func fieldDifferences(p, s Normalized) []model.FieldDifference {
	var diffs []model.FieldDifference
	if p.Title != s.Title {
		diffs = append(diffs, model.FieldDifference{
			Field:     "title",
			Primary:   p.Title,
			Secondary: s.Title,
		})
	}
	pl := strings.Join(p.LocationTokens, " ")
	sl := strings.Join(s.LocationTokens, " ")
	if pl != sl {
		diffs = append(diffs, model.FieldDifference{
			Field:     "location",
			Primary:   pl,
			Secondary: sl,
		})
	}
	ps := formatSalary(p.Salary)
	ss := formatSalary(s.Salary)
	if ps != ss {
		diffs = append(diffs, model.FieldDifference{
			Field:     "salary",
			Primary:   ps,
			Secondary: ss,
		})
	}
	return diffs
}

// formatSalary renders an extracted range for diff output; absent salary
// renders as the empty string so "dropped the range" shows up as a diff.
func formatSalary(r *SalaryRange) string {
	if r == nil {
		return ""
	}
	if r.Min == r.Max {
		return fmt.Sprintf("%.0f", r.Min)
	}
	return fmt.Sprintf("%.0f-%.0f", r.Min, r.Max)
}
