// Package store persists reconciliation inputs and outputs in PostgreSQL.
//
// Write path invariant: one company's clusters, delta records and analytics
// are replaced wholesale inside a single transaction on every run. Partial
// updates would let analytics drift from the clusters they were computed
// over, so there is deliberately no incremental path.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gorgaloro/job-automation-sub001/internal/analysis"
	"github.com/gorgaloro/job-automation-sub001/internal/model"
)

// Store wraps the connection pool with reconciler queries.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store backed by the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Company is one employer present in the job_sources snapshot.
type Company struct {
	ID   string
	Name string
}

// ListCompanies returns every employer with at least one job source,
// ordered by id for a stable run sequence.
func (s *Store) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_id, COALESCE(MAX(company_name), '')
		 FROM job_sources
		 WHERE company_id <> ''
		 GROUP BY company_id
		 ORDER BY company_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// LoadCompanySources fetches the current JobSource snapshot for one
// employer. The whole snapshot is loaded up front: the analysis core never
// blocks on I/O mid-computation.
func (s *Store) LoadCompanySources(ctx context.Context, companyID string) ([]model.JobSource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source_id, company_id, platform, source_type,
		        title, location_text, description_text, COALESCE(salary_text, ''),
		        posted_date, url, discovered_at, last_verified_at
		 FROM job_sources
		 WHERE company_id = $1`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query job_sources: %w", err)
	}
	defer rows.Close()

	var sources []model.JobSource
	for rows.Next() {
		var src model.JobSource
		var typ string
		if err := rows.Scan(
			&src.SourceID, &src.CompanyID, &src.Platform, &typ,
			&src.Title, &src.LocationText, &src.DescriptionText, &src.SalaryText,
			&src.PostedDate, &src.URL, &src.DiscoveredAt, &src.LastVerifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job_source: %w", err)
		}
		src.SourceType = model.SourceType(typ)
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// SaveReconciliation replaces one company's reconciliation output in a
// single transaction: clusters, cluster assignments on job_sources, delta
// records and the analytics row.
func (s *Store) SaveReconciliation(ctx context.Context, companyID string, rec analysis.Reconciliation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM delta_records WHERE company_id = $1`, companyID); err != nil {
		return fmt.Errorf("clear delta_records: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM duplicate_clusters WHERE company_id = $1`, companyID); err != nil {
		return fmt.Errorf("clear duplicate_clusters: %w", err)
	}

	for _, c := range rec.Clusters {
		if _, err := tx.Exec(ctx,
			`INSERT INTO duplicate_clusters
			   (cluster_id, company_id, member_source_ids, primary_source_id,
			    missing_primary, ambiguous_primary, non_comparable, formed_at)
			 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)`,
			c.ClusterID, companyID, c.MemberSourceIDs, c.PrimarySourceID,
			c.MissingPrimary, c.AmbiguousPrimary, c.NonComparable, c.FormedAt,
		); err != nil {
			return fmt.Errorf("insert cluster %s: %w", c.ClusterID, err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE job_sources SET job_cluster_id = $1 WHERE source_id = ANY($2)`,
			c.ClusterID, c.MemberSourceIDs,
		); err != nil {
			return fmt.Errorf("assign cluster %s: %w", c.ClusterID, err)
		}
	}

	for _, d := range rec.Deltas.DeltaRecords {
		diffs, err := json.Marshal(d.FieldDifferences)
		if err != nil {
			return fmt.Errorf("marshal field differences: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO delta_records
			   (company_id, primary_source_id, secondary_source_id,
			    similarity_score, delta_status, field_differences, computed_at)
			 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
			companyID, d.PrimarySourceID, d.SecondarySourceID,
			d.SimilarityScore, string(d.DeltaStatus), string(diffs), d.ComputedAt,
		); err != nil {
			return fmt.Errorf("insert delta %s→%s: %w", d.PrimarySourceID, d.SecondarySourceID, err)
		}
	}

	if err := upsertAnalytics(ctx, tx, rec.Analytics); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func upsertAnalytics(ctx context.Context, tx pgx.Tx, a model.CompanySourceAnalytics) error {
	usage, err := json.Marshal(a.PlatformUsage)
	if err != nil {
		return fmt.Errorf("marshal platform usage: %w", err)
	}
	flags := make([]string, 0, len(a.SourceManagementFlags))
	for _, f := range a.SourceManagementFlags {
		flags = append(flags, string(f))
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO company_source_analytics
		   (company_id, company_name, hr_quality_score, content_consistency_score,
		    platform_usage, source_management_flags, cluster_count,
		    duplicate_pairs_found, delta_record_count, outdated_secondary_count,
		    computed_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (company_id) DO UPDATE SET
		   company_name = EXCLUDED.company_name,
		   hr_quality_score = EXCLUDED.hr_quality_score,
		   content_consistency_score = EXCLUDED.content_consistency_score,
		   platform_usage = EXCLUDED.platform_usage,
		   source_management_flags = EXCLUDED.source_management_flags,
		   cluster_count = EXCLUDED.cluster_count,
		   duplicate_pairs_found = EXCLUDED.duplicate_pairs_found,
		   delta_record_count = EXCLUDED.delta_record_count,
		   outdated_secondary_count = EXCLUDED.outdated_secondary_count,
		   computed_at = EXCLUDED.computed_at`,
		a.CompanyID, a.CompanyName, a.HRQualityScore, a.ContentConsistencyScore,
		string(usage), flags, a.ClusterCount,
		a.DuplicatePairsFound, a.DeltaRecordCount, a.OutdatedSecondaryCount,
		a.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert analytics for %s: %w", a.CompanyID, err)
	}
	return nil
}

// RunSummary records one reconciliation cycle for observability.
type RunSummary struct {
	RunID          string
	StartedAt      time.Time
	FinishedAt     time.Time
	CompaniesTotal int
	CompaniesOK    int
	Clusters       int
	DeltaRecords   int
}

// InsertRun appends one run record.
func (s *Store) InsertRun(ctx context.Context, r RunSummary) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reconciliation_runs
		   (run_id, started_at, finished_at, companies_total, companies_ok,
		    cluster_count, delta_record_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.RunID, r.StartedAt, r.FinishedAt, r.CompaniesTotal, r.CompaniesOK,
		r.Clusters, r.DeltaRecords,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}
	return nil
}
