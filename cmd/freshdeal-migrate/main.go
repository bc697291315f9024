// Package main is the entry point for the FreshDeal storage tool.
// It initializes backends and copies data between them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/config"
	"github.com/prn-tf/freshdeal/internal/pkg/logger"
	"github.com/prn-tf/freshdeal/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	fs := flag.NewFlagSet("freshdeal-migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Usage = printUsage
	_ = fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	if command == "version" {
		fmt.Printf("FreshDeal Storage Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		return
	}
	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

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
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "init":
		err = initStorage(ctx, cfg.Storage, log)
	case "status":
		err = status(ctx, cfg.Storage, log)
	case "copy":
		if len(args) != 3 {
			printUsage()
			os.Exit(1)
		}
		err = copyStorage(ctx, cfg.Storage, args[1], args[2], log)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("command failed")
		stop()
		closer.Close()
		os.Exit(1)
	}
}

// initStorage opens the configured backend, which creates its schema or
// documents if they do not exist yet.
func initStorage(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) error {
	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("storage not reachable: %w", err)
	}
	log.Info().Str("driver", cfg.Driver).Msg("storage initialized")
	return nil
}

func status(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) error {
	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := storage.Count(ctx, store)
	if err != nil {
		return err
	}
	fmt.Printf("Driver:        %s\n", cfg.Driver)
	fmt.Printf("Accounts:      %d\n", counts.Accounts)
	fmt.Printf("Products:      %d\n", counts.Products)
	fmt.Printf("Transactions:  %d\n", counts.Transactions)
	fmt.Printf("Log entries:   %d\n", counts.LogEntries)
	return nil
}

func copyStorage(ctx context.Context, cfg config.StorageConfig, from, to string, log zerolog.Logger) error {
	if from == to {
		return fmt.Errorf("source and destination are both %q", from)
	}

	src, err := storage.OpenDriver(ctx, from, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	dst, err := storage.OpenDriver(ctx, to, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer dst.Close()

	existing, err := storage.Count(ctx, dst)
	if err != nil {
		return err
	}
	if existing.Transactions > 0 || existing.LogEntries > 0 {
		return fmt.Errorf("destination %q already holds ledger records", to)
	}

	counts, err := storage.Copy(ctx, src, dst)
	if err != nil {
		return err
	}
	log.Info().
		Str("from", from).
		Str("to", to).
		Int("accounts", counts.Accounts).
		Int("products", counts.Products).
		Int("transactions", counts.Transactions).
		Int("log_entries", counts.LogEntries).
		Msg("storage copied")
	return nil
}

func printUsage() {
	fmt.Println(`FreshDeal Storage Tool

Usage:
  freshdeal-migrate [-config path] <command> [arguments]

Commands:
  init                Create the configured backend's schema or documents
  status              Show record counts of the configured backend
  copy <from> <to>    Copy all data between drivers (xmlfile, sqlite, postgres)
  version             Print version information
  help                Show this help message

Examples:
  freshdeal-migrate init
  freshdeal-migrate copy xmlfile sqlite
  FRESHDEAL_STORAGE_POSTGRES_URL=postgres://... freshdeal-migrate copy sqlite postgres`)
}
