package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"parcela/internal/cache"
	"parcela/internal/cli"
	apphttp "parcela/internal/http"
	"parcela/internal/log"
	"parcela/internal/services"
	"parcela/internal/storage/memory"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	var (
		txStore   services.TransactionStore
		userStore services.UserStore
		closeFn   func() error
	)

	switch cfg.DataBackend {
	case "sqlite":
		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		txStore, userStore = repo, repo
		closeFn = repo.Close
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		store := memory.NewStore()
		txStore, userStore = store, store
		closeFn = func() error { return nil }
		logger.Info("Initialized memory backend")
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.Error("Storage close error", "error", err)
		}
	}()

	events := cli.InitAMQP(logger, cfg)
	if events != nil {
		defer events.Close()
	}

	forecastCache := cache.NewLRUCache[services.Estimate](cfg.ForecastCacheSize, cfg.ForecastCacheTTL)

	txService := services.NewTransactionService(txStore, events)
	mutations := services.NewMutationController(txStore, events)
	forecasts := services.NewForecastEstimator(txStore, forecastCache)
	auth := services.NewAuthenticator(userStore)

	srv := apphttp.NewServer(":"+cfg.Port, txService, mutations, forecasts, auth)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := cli.SignalContext()
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting parcela server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
