package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/diewo77/go-purchases/internal/config"
	"github.com/diewo77/go-purchases/internal/db"
	"github.com/diewo77/go-purchases/internal/logger"
	"github.com/diewo77/go-purchases/internal/notify"
	"github.com/diewo77/go-purchases/internal/services"
	"github.com/diewo77/go-purchases/internal/storage"
	"github.com/diewo77/go-purchases/internal/store"
)

var version = "0.1.0"

var (
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Purchase and payment ledger for a single business owner",
	Long: `ledger tracks supplier bills, the payments made against them and the
photos of each bill. Configuration is read from the environment and an
optional .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logCloser, err = logger.Setup(logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cfg.Log.Output,
		})
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

// openDatabase connects and brings the schema up to date when MIGRATIONS is set.
func openDatabase(ctx context.Context, log zerolog.Logger) (*gorm.DB, error) {
	gdb, err := db.Connect(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb, cfg.Database, cfg.App.Migrations); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return gdb, nil
}

// newBroker picks Redis when REDIS_URL is set and the in-process broker otherwise.
func newBroker(ctx context.Context, log zerolog.Logger) (notify.Broker, error) {
	if cfg.Redis.URL == "" {
		log.Info().Msg("using in-process change notifications")
		return notify.NewLocal(), nil
	}
	return notify.NewRedis(ctx, cfg.Redis.URL, cfg.Redis.Channel, logger.WithComponent("notify"))
}

// newBlobStore returns nil when MINIO_ENDPOINT is unset; photo uploads then fail.
func newBlobStore(ctx context.Context, log zerolog.Logger) (storage.BlobStore, error) {
	if cfg.Storage.Endpoint == "" {
		log.Warn().Msg("MINIO_ENDPOINT not set, photo uploads are disabled")
		return nil, nil
	}
	m, err := storage.NewMinIO(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newLedgerService(st *store.Store, broker notify.Broker, blobs storage.BlobStore) *services.LedgerService {
	return services.NewLedgerService(st, broker, blobs, services.Options{
		AllowedEmail: cfg.Auth.AllowedEmail,
		OverdueAfter: cfg.App.OverdueAfter(),
		Logger:       logger.WithComponent("ledger"),
	})
}
