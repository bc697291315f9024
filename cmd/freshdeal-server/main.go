// Package main is the entry point for the FreshDeal marketplace server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/audit"
	"github.com/prn-tf/freshdeal/internal/config"
	"github.com/prn-tf/freshdeal/internal/handler"
	"github.com/prn-tf/freshdeal/internal/lock"
	"github.com/prn-tf/freshdeal/internal/metrics"
	"github.com/prn-tf/freshdeal/internal/pkg/crypto"
	"github.com/prn-tf/freshdeal/internal/pkg/logger"
	"github.com/prn-tf/freshdeal/internal/repository"
	"github.com/prn-tf/freshdeal/internal/server"
	"github.com/prn-tf/freshdeal/internal/service"
	"github.com/prn-tf/freshdeal/internal/storage"
	"github.com/prn-tf/freshdeal/internal/validation"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log, closer, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	err = run(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("server exited with error")
	}
	_ = closer.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting FreshDeal server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("storage ready")

	hasher, err := crypto.NewPasswordHasher(cfg.Auth)
	if err != nil {
		return err
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize services
	validate := validation.New()
	auditLog := audit.New(store.AuditLog, audit.Config{AuditConnections: cfg.Logging.AuditConnections}, log)
	inventory := repository.NewInventory(store.Products, store.Transactions, lock.New(cfg.Purchase.LockMode), log)

	accounts := service.NewAccountService(store.Accounts, hasher, validate, auditLog, log)
	products := service.NewProductService(service.ProductServiceConfig{
		Products:  store.Products,
		Inventory: inventory,
		Validator: validate,
		Audit:     auditLog,
		Metrics:   m,
		Logger:    log,
	})
	transactions := service.NewTransactionService(store.Transactions, auditLog, log)

	if admin := cfg.Auth.BootstrapAdmin; admin.Username != "" {
		created, err := accounts.EnsureAdmin(ctx, admin.Username, admin.Password)
		if err != nil {
			return fmt.Errorf("failed to create bootstrap admin: %w", err)
		}
		if created {
			log.Info().Str("username", admin.Username).Msg("bootstrap admin created")
		}
	}

	router := handler.NewRouter(handler.RouterConfig{
		Accounts:          accounts,
		Products:          products,
		Transactions:      transactions,
		Audit:             auditLog,
		Metrics:           m,
		EnforceAdminRoles: cfg.Auth.EnforceAdminRoles,
		Logger:            log,
	})
	log.Debug().Strs("actions", router.Actions()).Msg("routes registered")

	// Initialize ops HTTP server
	var ops *http.Server
	if cfg.Metrics.Enabled {
		ops = server.NewOpsServer(fmt.Sprintf(":%d", cfg.Metrics.Port), server.NewOpsHandler(server.OpsConfig{
			Store:       store,
			Gatherer:    registry,
			MetricsPath: cfg.Metrics.Path,
			Logger:      log,
		}))
		go func() {
			log.Info().Str("addr", ops.Addr).Msg("ops server listening")
			if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("ops server failed")
			}
		}()
	}

	srv := server.New(server.ConfigFrom(cfg.Server), router, auditLog, m, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, server.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown incomplete")
	}
	if ops != nil {
		if err := ops.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("ops server shutdown incomplete")
		}
	}

	log.Info().Msg("Server stopped")
	return nil
}
