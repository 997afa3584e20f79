// Package main - Entry point for the reviewpay API server
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"reviewpay/api"
	"reviewpay/core/billing"
	"reviewpay/core/taxinfo"
	"reviewpay/db"
	"reviewpay/internal/config"
	"reviewpay/internal/logging"
	"reviewpay/internal/tracing"
)

const version = "0.1.0"

func main() {
	cfgPath := flag.String("config", config.DefaultPath(), "Path to config file")
	addr := flag.String("addr", "", "Server address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logging.Fatal("failed to load config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		logging.Fatal("failed to initialize logging", zap.Error(err))
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rates, err := cfg.Rates()
	if err != nil {
		return err
	}
	calc, err := billing.NewCalculator(rates)
	if err != nil {
		return err
	}

	// A missing or malformed key stops startup; the server never runs
	// without the tax-info endpoint.
	keys, err := cfg.KeyConfig()
	if err != nil {
		return err
	}
	cipher, err := taxinfo.NewCipher(keys)
	if err != nil {
		return err
	}
	svc, err := taxinfo.NewService(cipher, logger)
	if err != nil {
		return err
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, version, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	var store db.TaxInfoStore
	if cfg.Database.URL != "" {
		conn, err := db.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
		if err != nil {
			return err
		}
		defer conn.Close()
		store = db.NewPostgresStore(conn)
	} else {
		logger.Warn("no database configured, tax info is kept in memory")
		store = db.NewMemoryStore()
	}

	handler := api.NewServer(api.Options{
		Version:      version,
		Calculator:   calc,
		TaxInfo:      svc,
		Store:        store,
		Logger:       logger,
		TaxInfoRate:  rate.Limit(cfg.Server.TaxInfoRatePerSecond),
		TaxInfoBurst: cfg.Server.TaxInfoBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("reviewpay server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("version", version),
			zap.String("key_id", cipher.PrimaryKeyID()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	timeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
