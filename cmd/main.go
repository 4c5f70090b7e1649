package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/config"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/controllers"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/jobs"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/routes"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/services"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Fatal error: failed to load configuration", "err", err)
		os.Exit(1)
	}
	config.InitLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// no database is not fatal: meals can't be stored but the stats API answers with placeholders
	db, err := config.InitDB(cfg.DB)
	if err != nil && !errors.Is(err, config.ErrDatabaseNotConfigured) {
		slog.Error("Fatal error: failed to create database connection", "err", err)
		os.Exit(1)
	}

	rdb, err := config.InitRedis(ctx, cfg.Redis)
	if err != nil {
		if !errors.Is(err, config.ErrRedisNotConfigured) {
			slog.Error("Fatal error: failed to create redis connection", "err", err)
			os.Exit(1)
		}
		slog.Info("redis not configured, using in-process locks and dirty set")
	}

	app := buildApp(ctx, cfg, db, rdb)

	g, ctx := errgroup.WithContext(ctx)

	if app.cron != nil {
		if err := jobs.InitCron(app.cron); err != nil {
			slog.Error("Fatal error: failed to start cron jobs", "err", err)
			os.Exit(1)
		}
		g.Go(func() error {
			<-ctx.Done()
			app.cron.Stop()
			return nil
		})
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
		case sig := <-quit:
			slog.Info("received signal, shutting down", "signal", sig.String())
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "err", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("app exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("app exited")
}

type application struct {
	router http.Handler
	cron   *jobs.Manager
}

func buildApp(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client) application {
	loc := cfg.Stats.Location()
	hub := services.NewRealtimeHub()

	var locker services.Locker = services.NewKeyedMutex()
	var dirty services.DirtySet = services.NewMemoryDirtySet()
	if rdb != nil {
		locker = services.NewRedisLocker(rdb, cfg.Stats.LockTTL)
		dirty = services.NewRedisDirtySet(rdb)
	}

	state := services.NotConfigured("database host not set")
	if db != nil {
		state = services.Configured(services.NewGormStatsStore(db))
	}
	stats := services.NewDailyStatsService(state,
		services.WithIncrementMode(services.ParseIncrementMode(cfg.Stats.IncrementMode)),
		services.WithLocker(locker),
		services.WithDirtySet(dirty),
		services.WithLocation(loc),
		services.WithNotifier(hub),
	)

	h := routes.Handlers{
		JWTSecret: cfg.JWT.Secret,
		Stats:     controllers.NewStatsController(stats),
		Realtime:  controllers.NewRealtimeController(hub),
		Health: func(ctx context.Context) map[string]string {
			return health(ctx, db, rdb)
		},
	}

	var cronMgr *jobs.Manager
	if db != nil {
		push, err := services.NewPushService(ctx, db, cfg.AWS.Region, cfg.AWS.SNSPlatformArn)
		if err != nil {
			slog.Warn("push notifications disabled", "err", err)
			push = nil
		}
		bus := services.NewAlertBus(db, hub, push)
		profiles := services.NewProfileService(db)
		meals := services.NewMealService(db, stats, services.NewCalorieGoalAlerter(db, bus))

		h.Meals = controllers.NewMealController(meals)
		h.Profile = controllers.NewProfileController(profiles)
		h.Analytics = controllers.NewAnalyticsController(services.NewAnalyticsService(stats, profiles), loc)
		h.Devices = controllers.NewDeviceController(push)
		h.Alerts = controllers.NewAlertController(bus)
		if cfg.Server.DevRoutes {
			h.Dev = controllers.NewDevController(push)
		}

		reconcile := jobs.NewStatsReconcileJob(stats, dirty, cfg.Stats.ReconcileConcurrency)
		cronMgr = jobs.NewCronManager(reconcile, cfg.Stats.ReconcileSpec)
	}

	return application{router: routes.SetupRouter(h), cron: cronMgr}
}

func health(ctx context.Context, db *gorm.DB, rdb *redis.Client) map[string]string {
	out := map[string]string{"database": "not_configured", "redis": "not_configured"}
	if db != nil {
		out["database"] = "up"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			out["database"] = "down"
		}
	}
	if rdb != nil {
		out["redis"] = "up"
		if rdb.Ping(ctx).Err() != nil {
			out["redis"] = "down"
		}
	}
	return out
}
