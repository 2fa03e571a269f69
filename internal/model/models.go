// Package model defines shared data structures for the reconciler service.
package model

import "time"

// SourceType classifies who controls the channel a posting was observed on.
type SourceType string

const (
	// SourceTypePrimary is an employer-controlled channel: the company's own
	// careers page or official ATS (Greenhouse, Lever, …).
	SourceTypePrimary SourceType = "primary"
	// SourceTypeSecondary is a third-party aggregator (LinkedIn, Indeed, …).
	SourceTypeSecondary SourceType = "secondary"
)

// JobSource is one observation of a job posting on one platform.
//
// Content fields are immutable once fingerprinted: re-ingestion of changed
// content must create a new JobSource with a fresh fingerprint, never mutate
// an existing row in place.
type JobSource struct {
	SourceID     string     `json:"sourceId"`
	JobClusterID string     `json:"jobClusterId,omitempty"` // empty until clustering runs
	CompanyID    string     `json:"companyId"`
	Platform     string     `json:"platform"` // e.g. "company-site", "linkedin", "indeed"
	SourceType   SourceType `json:"sourceType"`

	Title           string    `json:"title"`
	LocationText    string    `json:"locationText"`
	DescriptionText string    `json:"descriptionText"`
	SalaryText      string    `json:"salaryText,omitempty"`
	PostedDate      time.Time `json:"postedDate"`
	URL             string    `json:"url"`

	DiscoveredAt   time.Time `json:"discoveredAt"`
	LastVerifiedAt time.Time `json:"lastVerifiedAt"`
}

// DuplicateCluster is a set of JobSource records believed to describe the
// same underlying opening. Membership is the transitive closure of pairwise
// duplicate links, so a cluster may contain pairs whose direct similarity is
// below threshold (chained merging).
type DuplicateCluster struct {
	ClusterID        string    `json:"clusterId"`
	CompanyID        string    `json:"companyId"`
	MemberSourceIDs  []string  `json:"memberSourceIds"`           // ≥1, sorted
	PrimarySourceID  string    `json:"primarySourceId,omitempty"` // empty when no primary resolved
	MissingPrimary   bool      `json:"missingPrimary"`
	AmbiguousPrimary bool      `json:"ambiguousPrimary"`
	// NonComparable marks a cluster holding a source that was excluded from
	// pairwise comparison for an input defect: empty normalized content or
	// a missing company id. Such sources are always singletons.
	NonComparable bool      `json:"nonComparable"`
	FormedAt      time.Time `json:"formedAt"`
}

// DeltaStatus classifies how far a secondary posting has drifted from its
// primary. Bands are fixed system-wide; see analysis.ClassifyDelta.
type DeltaStatus string

const (
	DeltaIdentical         DeltaStatus = "identical"
	DeltaMinorDifferences  DeltaStatus = "minor_differences"
	DeltaContentDrift      DeltaStatus = "content_drift"
	DeltaMajorDiscrepancy  DeltaStatus = "major_discrepancy"
	DeltaOutdatedSecondary DeltaStatus = "outdated_secondary"
	// DeltaIndeterminate means one side had empty normalized content, so no
	// similarity band applies. Never collapsed into outdated_secondary.
	DeltaIndeterminate DeltaStatus = "indeterminate"
)

// FieldDifference records one coarse field-level divergence between a
// primary and a secondary posting (enough to explain a delta status, not a
// full text diff).
type FieldDifference struct {
	Field     string `json:"field"` // "title", "location", "salary"
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// DeltaRecord is the pairwise comparison between a cluster's primary source
// and one secondary member. Direction is always primary→secondary:
// "outdated" is a judgment about the secondary.
type DeltaRecord struct {
	PrimarySourceID   string            `json:"primarySourceId"`
	SecondarySourceID string            `json:"secondarySourceId"`
	SimilarityScore   float64           `json:"similarityScore"` // [0,1]
	DeltaStatus       DeltaStatus       `json:"deltaStatus"`
	FieldDifferences  []FieldDifference `json:"fieldDifferences,omitempty"`
	ComputedAt        time.Time         `json:"computedAt"`
}

// SourceFlag marks an employer-level data-quality condition.
type SourceFlag string

const (
	FlagMissingPrimarySources       SourceFlag = "missing_primary_sources"
	FlagAmbiguousPrimarySource      SourceFlag = "ambiguous_primary_source"
	FlagFrequentOutdatedSecondaries SourceFlag = "frequent_outdated_secondaries"
	FlagPoorSyncQuality             SourceFlag = "poor_sync_quality"
)

// CompanySourceAnalytics aggregates duplicate/delta outcomes for one
// employer. Recomputed wholesale from the current clusters/deltas on every
// run — never incrementally patched.
type CompanySourceAnalytics struct {
	CompanyID               string         `json:"companyId"`
	CompanyName             string         `json:"companyName"`
	HRQualityScore          float64        `json:"hrQualityScore"`          // [0,1]
	ContentConsistencyScore float64        `json:"contentConsistencyScore"` // [0,1]
	PlatformUsage           map[string]int `json:"platformUsage"`
	SourceManagementFlags   []SourceFlag   `json:"sourceManagementFlags"` // sorted, no duplicates
	ClusterCount            int            `json:"clusterCount"`
	DuplicatePairsFound     int            `json:"duplicatePairsFound"`
	DeltaRecordCount        int            `json:"deltaRecordCount"`
	OutdatedSecondaryCount  int            `json:"outdatedSecondaryCount"`
	ComputedAt              time.Time      `json:"computedAt"`
}
