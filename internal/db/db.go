// Package db opens the ledger database and brings its schema up to date.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-purchases/internal/config"
	"github.com/diewo77/go-purchases/internal/models"
)

// MigrationsSource is where SQL migrations are read from.
const MigrationsSource = "file://migrations"

const (
	connectAttempts = 10
	retryDelay      = 2 * time.Second
)

// Models lists the tables managed by AutoMigrate.
func Models() []any {
	return []any{&models.Supplier{}, &models.Purchase{}, &models.Payment{}}
}

// Connect opens the configured database, retrying while Postgres starts up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	if cfg.Driver == "sqlite" {
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite database")
		return gorm.Open(sqlite.Open(cfg.SQLitePath), gcfg)
	}

	dsn := NormalizeDSN(cfg.DSN())
	var (
		gdb *gorm.DB
		err error
	)
	for i := 1; i <= connectAttempts; i++ {
		gdb, err = gorm.Open(postgres.Open(dsn), gcfg)
		if err == nil {
			err = gdb.WithContext(ctx).Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i).Msg("database not ready, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", connectAttempts, err)
	}
	log.Info().Str("dsn", MaskDSN(dsn)).Msg("database connected")
	return gdb, nil
}

// Migrate runs the SQL migrations when useSQL is set and the driver is
// postgres, and falls back to AutoMigrate otherwise.
func Migrate(gdb *gorm.DB, cfg config.DatabaseConfig, useSQL bool) error {
	if useSQL && cfg.Driver != "sqlite" {
		return runSQLMigrations(ToURLDSN(NormalizeDSN(cfg.DSN())))
	}
	for _, m := range Models() {
		if err := gdb.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"suppliers", "purchases", "payments"} {
		if !gdb.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// runSQLMigrations applies ./migrations with golang-migrate.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New(MigrationsSource, dsn)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Down rolls back every SQL migration.
func Down(cfg config.DatabaseConfig) error {
	m, err := migrate.New(MigrationsSource, ToURLDSN(NormalizeDSN(cfg.DSN())))
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("revert migrations: %w", err)
	}
	return nil
}
