package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/diewo77/go-purchases/auth"
	"github.com/diewo77/go-purchases/internal/identity"
	"github.com/diewo77/go-purchases/internal/logger"
	"github.com/diewo77/go-purchases/internal/server"
	"github.com/diewo77/go-purchases/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Example: `  # Local development with SQLite and the dev identity verifier
  DEV=true DB_DRIVER=sqlite LEDGER_ALLOWED_EMAIL=me@example.com ledger serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := openDatabase(ctx, logger.WithComponent("db"))
	if err != nil {
		return err
	}
	broker, err := newBroker(ctx, log)
	if err != nil {
		return err
	}
	defer broker.Close()
	blobs, err := newBlobStore(ctx, log)
	if err != nil {
		return err
	}
	verifier, err := newVerifier(ctx)
	if err != nil {
		return err
	}
	if cfg.Auth.SessionSecret != "" {
		auth.SetSecret(cfg.Auth.SessionSecret)
	}

	st := store.New(gdb)
	svc := newLedgerService(st, broker, blobs)
	if err := svc.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.NewApp(svc, verifier, st, logger.WithComponent("http")),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Bool("dev", cfg.App.Dev).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// newVerifier uses Google when GOOGLE_CLIENT_ID is set. Dev mode without a
// client id accepts "dev:<email>" tokens.
func newVerifier(ctx context.Context) (identity.Verifier, error) {
	if cfg.Auth.GoogleClientID != "" {
		return identity.NewGoogle(ctx, cfg.Auth.GoogleClientID)
	}
	if cfg.App.Dev {
		log := logger.WithComponent("identity")
		log.Warn().Msg("GOOGLE_CLIENT_ID not set, accepting dev tokens")
		return identity.Static{}, nil
	}
	return nil, errors.New("GOOGLE_CLIENT_ID is required outside dev mode")
}
