package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/loan-ledger/internal/cache"
	"github.com/segyhp/loan-ledger/internal/config"
	"github.com/segyhp/loan-ledger/internal/jobs"
	"github.com/segyhp/loan-ledger/internal/logger"
	"github.com/segyhp/loan-ledger/internal/metrics"
	"github.com/segyhp/loan-ledger/internal/notifier"
	"github.com/segyhp/loan-ledger/internal/repository"
	"github.com/segyhp/loan-ledger/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	logg.Info("starting ledger scheduler")

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logg.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	// Without redis there is no cross-instance lock; run a single scheduler.
	redisClient, err := cache.NewClient(context.Background(), cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logg.Warn("redis unavailable, running without job lock or cache", zap.Error(err))
	} else {
		defer redisClient.Close()
	}

	notify, err := notifier.New(notifier.Config{
		Provider: cfg.Notifier.Provider,
		APIKey:   cfg.Notifier.APIKey,
		BaseURL:  cfg.Notifier.BaseURL,
		Timeout:  cfg.GetNotifierTimeout(),
	})
	if err != nil {
		logg.Fatal("failed to initialize notifier", zap.Error(err))
	}

	deps := service.Dependencies{
		LoanRepo:    repository.NewLoanRepository(db),
		PaymentRepo: repository.NewPaymentRepository(db),
		EventRepo:   repository.NewLedgerEventRepository(db),
		Cache:       cache.NewLedgerCache(redisClient, cfg.GetCacheTTL()),
		Notifier:    notify,
		Metrics:     metrics.New(prometheus.NewRegistry()),
		Logger:      logg,
	}
	opts := service.OptionsFromConfig(cfg)

	runner := jobs.NewRunner(
		service.NewPenaltyService(deps, opts),
		service.NewRepairService(deps, opts),
		cache.NewJobLock(redisClient, cfg.GetLockTTL()),
		logg,
		cfg.GetLockTTL(),
	)

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.GetLocation()),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	if err := runner.Register(c, cfg.Scheduler.PenaltyCron, cfg.Scheduler.ReconcileCron); err != nil {
		logg.Fatal("failed to schedule jobs", zap.Error(err))
	}

	c.Start()
	logg.Info("scheduler started",
		zap.String("timezone", cfg.Scheduler.Timezone),
		zap.String("penalty_cron", cfg.Scheduler.PenaltyCron),
		zap.String("reconcile_cron", cfg.Scheduler.ReconcileCron))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down scheduler")
	<-c.Stop().Done()
	logg.Info("scheduler stopped")
}
