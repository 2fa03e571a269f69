// Package reconciler runs the batch reconciliation cycle: load each
// employer's job-source snapshot, run the analysis engine over it, persist
// the outcome and announce it.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gorgaloro/job-automation-sub001/internal/analysis"
	"github.com/gorgaloro/job-automation-sub001/internal/db"
	"github.com/gorgaloro/job-automation-sub001/internal/store"
)

// EventCompanyAnalyzed is published on Redis after each company's
// reconciliation is persisted. The gateway forwards it for dashboard
// refresh.
const EventCompanyAnalyzed = "EVENT_COMPANY_ANALYZED"

// analyticsCacheKey is the Redis key prefix for the latest analytics JSON.
const analyticsCacheKey = "company_analytics:"

// Worker runs the full reconciliation cycle across all companies. Each
// company is an independent unit of work: no shared mutable state between
// them beyond the merged run totals.
type Worker struct {
	store       *store.Store
	rdb         *redis.Client
	engine      *analysis.Engine
	log         *zap.Logger
	maxParallel int
	cacheTTL    time.Duration
}

// NewWorker constructs a Worker.
func NewWorker(st *store.Store, rdb *redis.Client, engine *analysis.Engine, log *zap.Logger, maxParallel int, cacheTTL time.Duration) *Worker {
	return &Worker{
		store:       st,
		rdb:         rdb,
		engine:      engine,
		log:         log,
		maxParallel: maxParallel,
		cacheTTL:    cacheTTL,
	}
}

// Run executes one reconciliation cycle: every company with job sources is
// analyzed and persisted. Per-company failures are logged and skipped —
// one company's bad data never blocks the rest of the run.
func (w *Worker) Run(ctx context.Context) error {
	started := time.Now().UTC()
	runID := uuid.NewString()

	companies, err := w.store.ListCompanies(ctx)
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}
	if len(companies) == 0 {
		w.log.Info("no companies with job sources, nothing to reconcile", zap.String("run_id", runID))
		return nil
	}

	w.log.Info("reconciliation run started",
		zap.String("run_id", runID),
		zap.Int("companies", len(companies)),
		zap.Int("max_parallel", w.maxParallel))

	var (
		mu      sync.Mutex
		summary = store.RunSummary{RunID: runID, StartedAt: started, CompaniesTotal: len(companies)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxParallel)
	for _, company := range companies {
		company := company
		g.Go(func() error {
			rec, err := w.reconcileCompany(gctx, company)
			if err != nil {
				w.log.Error("company reconciliation failed, continuing",
					zap.String("run_id", runID),
					zap.String("company_id", company.ID),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			summary.CompaniesOK++
			summary.Clusters += len(rec.Clusters)
			summary.DeltaRecords += len(rec.Deltas.DeltaRecords)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	summary.FinishedAt = time.Now().UTC()
	if err := w.store.InsertRun(ctx, summary); err != nil {
		w.log.Warn("run record not persisted", zap.String("run_id", runID), zap.Error(err))
	}

	w.log.Info("reconciliation run complete",
		zap.String("run_id", runID),
		zap.Int("companies_ok", summary.CompaniesOK),
		zap.Int("companies_total", summary.CompaniesTotal),
		zap.Int("clusters", summary.Clusters),
		zap.Int("delta_records", summary.DeltaRecords),
		zap.Duration("took", summary.FinishedAt.Sub(started)))
	return nil
}

// reconcileCompany loads one employer's snapshot, analyzes it and persists
// the result. Cache refresh and event publish are best-effort.
func (w *Worker) reconcileCompany(ctx context.Context, company store.Company) (analysis.Reconciliation, error) {
	sources, err := w.store.LoadCompanySources(ctx, company.ID)
	if err != nil {
		return analysis.Reconciliation{}, fmt.Errorf("load sources: %w", err)
	}

	rec := w.engine.Reconcile(company.ID, company.Name, sources)

	if err := w.store.SaveReconciliation(ctx, company.ID, rec); err != nil {
		return analysis.Reconciliation{}, fmt.Errorf("persist: %w", err)
	}

	w.cacheAnalytics(ctx, company.ID, rec)
	w.publishAnalyzed(ctx, company.ID, rec)

	w.log.Debug("company reconciled",
		zap.String("company_id", company.ID),
		zap.Int("sources", len(sources)),
		zap.Int("clusters", len(rec.Clusters)),
		zap.Int("duplicate_pairs", rec.DuplicatePairsFound),
		zap.Int("delta_records", len(rec.Deltas.DeltaRecords)),
		zap.Float64("hr_quality", rec.Analytics.HRQualityScore))
	return rec, nil
}

func (w *Worker) cacheAnalytics(ctx context.Context, companyID string, rec analysis.Reconciliation) {
	raw, err := json.Marshal(rec.Analytics)
	if err != nil {
		w.log.Warn("analytics cache marshal failed", zap.String("company_id", companyID), zap.Error(err))
		return
	}
	if err := w.rdb.Set(ctx, analyticsCacheKey+companyID, raw, w.cacheTTL).Err(); err != nil {
		w.log.Warn("analytics cache write failed", zap.String("company_id", companyID), zap.Error(err))
	}
}

func (w *Worker) publishAnalyzed(ctx context.Context, companyID string, rec analysis.Reconciliation) {
	event := map[string]any{
		"type":             EventCompanyAnalyzed,
		"companyId":        companyID,
		"hrQualityScore":   rec.Analytics.HRQualityScore,
		"clusterCount":     len(rec.Clusters),
		"deltaRecordCount": len(rec.Deltas.DeltaRecords),
	}
	if err := db.PublishJSON(ctx, w.rdb, EventCompanyAnalyzed, event); err != nil {
		w.log.Warn("event publish failed", zap.String("company_id", companyID), zap.Error(err))
	}
}
