package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/demo-credit/wallet-backend/internal/api"
	"github.com/demo-credit/wallet-backend/internal/auth"
	"github.com/demo-credit/wallet-backend/internal/config"
	"github.com/demo-credit/wallet-backend/internal/db"
	"github.com/demo-credit/wallet-backend/internal/karma"
	"github.com/demo-credit/wallet-backend/internal/logger"
	"github.com/demo-credit/wallet-backend/internal/metrics"
	"github.com/demo-credit/wallet-backend/internal/middleware"
	"github.com/demo-credit/wallet-backend/internal/repository/postgres"
	"github.com/demo-credit/wallet-backend/internal/services"
	"github.com/demo-credit/wallet-backend/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	metrics.Init()

	store := postgres.NewStore(pool)
	wp := worker.NewPool(cfg.Workers)
	defer wp.Stop()

	var karmaOpts []karma.Option
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		karmaOpts = append(karmaOpts, karma.WithRedisCache(rdb, cfg.KarmaCacheTTL))
	}
	karmaClient := karma.NewClient(cfg.KarmaURL, cfg.KarmaAPIKey, cfg.KarmaTimeout, log, karmaOpts...)

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	ledgerSvc := services.NewLedgerService(store, cfg.TxTimeout)
	onboardingSvc := services.NewOnboardingService(store, karmaClient, cfg.WalletCurrency, cfg.TxTimeout)
	authSvc := services.NewAuthService(store, tm)

	rescreener := karma.NewRescreener(store.Users(), karmaClient, wp, cfg.RescreenEvery, log)
	go rescreener.Run(ctx)

	r := api.NewRouter(api.RouterDeps{
		Cfg:        cfg,
		AuthMW:     middleware.NewAuthMiddleware(tm),
		Auth:       authSvc,
		Onboarding: onboardingSvc,
		Ledger:     ledgerSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
