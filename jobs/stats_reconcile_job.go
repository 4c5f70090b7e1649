package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/config"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/services"
	"golang.org/x/sync/errgroup"
)

type statsRecomputer interface {
	RecomputeForDate(ctx context.Context, userID, date string) (*models.DailyStats, error)
}

// StatsReconcileJob rebuilds every daily_stats row marked dirty since the last run.
type StatsReconcileJob struct {
	stats       statsRecomputer
	dirty       services.DirtySet
	concurrency int
	running     atomic.Bool
}

func NewStatsReconcileJob(stats statsRecomputer, dirty services.DirtySet, concurrency int) *StatsReconcileJob {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &StatsReconcileJob{stats: stats, dirty: dirty, concurrency: concurrency}
}

// Run satisfies cron.Job. Overlapping ticks are skipped.
func (j *StatsReconcileJob) Run() {
	if !j.running.CompareAndSwap(false, true) {
		slog.Warn("stats reconcile still running, skipping tick")
		return
	}
	defer j.running.Store(false)

	traceID := "job-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), config.RequestIDKey, traceID)
	if _, err := j.Reconcile(ctx); err != nil {
		slog.ErrorContext(ctx, "stats reconcile failed", "err", err)
	}
}

// Reconcile claims the dirty keys, recomputes them and releases the batch. It returns
// how many keys were recomputed without error. Failed keys are re-marked by the recompute
// itself and come back on the next run.
func (j *StatsReconcileJob) Reconcile(ctx context.Context) (int, error) {
	start := time.Now()
	keys, err := j.dirty.Claim(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	var ok atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, k := range keys {
		k := k
		g.Go(func() error {
			if _, err := j.stats.RecomputeForDate(gctx, k.UserID, k.Date); err != nil {
				slog.ErrorContext(gctx, "recompute dirty stats failed", "user_id", k.UserID, "date", k.Date, "err", err)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	if err := j.dirty.Release(ctx); err != nil {
		return int(ok.Load()), err
	}

	slog.InfoContext(ctx, "stats reconcile done",
		"keys", len(keys), "recomputed", ok.Load(), "took", time.Since(start).String())
	return int(ok.Load()), nil
}
