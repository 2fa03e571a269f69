// reconciler-service
//
// Reconciles job postings observed on multiple platforms into one view per
// underlying opening:
//   - clusters duplicate postings across sources (company site, ATS, boards)
//   - classifies each board copy's drift from the employer's own posting
//   - aggregates a per-employer source-quality score with diagnostic flags
//
// Runs as a batch cycle on a cron interval. Results land in PostgreSQL;
// per-company EVENT_COMPANY_ANALYZED is published to Redis for the Gateway.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gorgaloro/job-automation-sub001/internal/analysis"
	"github.com/gorgaloro/job-automation-sub001/internal/config"
	"github.com/gorgaloro/job-automation-sub001/internal/db"
	"github.com/gorgaloro/job-automation-sub001/internal/logger"
	"github.com/gorgaloro/job-automation-sub001/internal/reconciler"
	"github.com/gorgaloro/job-automation-sub001/internal/scheduler"
	"github.com/gorgaloro/job-automation-sub001/internal/store"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[reconciler-service] Config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[reconciler-service] Logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL, int32(cfg.MaxParallelCompanies*2))
	if err != nil {
		log.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ── Redis ────────────────────────────────────────────────────────────────
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected")

	// ── Analysis engine ──────────────────────────────────────────────────────
	engine, err := analysis.NewEngine(cfg.Analysis)
	if err != nil {
		log.Fatal("invalid analysis configuration", zap.Error(err))
	}
	log.Info("analysis engine ready",
		zap.Float64("duplicate_threshold", cfg.Analysis.DuplicateThreshold),
		zap.Duration("gating_window", cfg.Analysis.GatingWindow),
		zap.Bool("require_complete_links", cfg.Analysis.RequireCompleteLinks))

	// ── Worker + scheduler ───────────────────────────────────────────────────
	worker := reconciler.NewWorker(store.New(pool), rdb, engine, log,
		cfg.MaxParallelCompanies, cfg.AnalyticsCacheTTL)

	sched := scheduler.New(worker, log, cfg.ReconcileIntervalHours)
	if err := sched.Start(ctx); err != nil {
		log.Fatal("scheduler start failed", zap.Error(err))
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	log.Info("stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "reconciler-service",
		"version": version,
	})
}
