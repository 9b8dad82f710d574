package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/segyhp/loan-ledger/internal/cache"
	"github.com/segyhp/loan-ledger/internal/config"
	"github.com/segyhp/loan-ledger/internal/handler"
	"github.com/segyhp/loan-ledger/internal/logger"
	"github.com/segyhp/loan-ledger/internal/metrics"
	"github.com/segyhp/loan-ledger/internal/notifier"
	"github.com/segyhp/loan-ledger/internal/repository"
	"github.com/segyhp/loan-ledger/internal/service"
	"github.com/segyhp/loan-ledger/pkg/response"
)

func main() {
	// .env is optional; real environment variables win
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

	db, err := initDB(cfg)
	if err != nil {
		logg.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	redisClient := initRedis(cfg, logg)
	if redisClient != nil {
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

	recorder := metrics.New(prometheus.DefaultRegisterer)

	deps := service.Dependencies{
		LoanRepo:    repository.NewLoanRepository(db),
		PaymentRepo: repository.NewPaymentRepository(db),
		EventRepo:   repository.NewLedgerEventRepository(db),
		Cache:       cache.NewLedgerCache(redisClient, cfg.GetCacheTTL()),
		Notifier:    notify,
		Metrics:     recorder,
		Logger:      logg,
	}
	opts := service.OptionsFromConfig(cfg)

	ledgerHandler := handler.NewLedgerHandler(
		service.NewRepairService(deps, opts),
		service.NewPenaltyService(deps, opts),
		logg,
	)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	router := setupRoutes(ledgerHandler, healthHandler, recorder, logg)

	server := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      cors.AllowAll().Handler(router),
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	go func() {
		logg.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logg.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logg.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	return db, nil
}

// initRedis returns nil when redis is unreachable; the API then serves
// ledgers without a cache.
func initRedis(cfg *config.Config, logg *zap.Logger) *redis.Client {
	client, err := cache.NewClient(context.Background(), cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logg.Warn("redis unavailable, ledger cache disabled", zap.String("addr", cfg.RedisAddr()), zap.Error(err))
		return nil
	}
	return client
}

func setupRoutes(ledgerHandler *handler.LedgerHandler, healthHandler *handler.HealthHandler, recorder *metrics.Recorder, logg *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logg))
	router.Use(recorder.Middleware(routeTemplate))

	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	ledgerHandler.RegisterRoutes(router)

	return router
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
