package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/diewo77/go-purchases/internal/ledger"
	"github.com/diewo77/go-purchases/internal/logger"
	"github.com/diewo77/go-purchases/internal/notify"
	"github.com/diewo77/go-purchases/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export-payments",
	Short: "Write the payment history as CSV",
	Example: `  ledger export-payments --email me@example.com --out payment_history.csv
  ledger export-payments --email me@example.com --out -`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("email", "", "Account to export as (defaults to LEDGER_ALLOWED_EMAIL)")
	exportCmd.Flags().String("out", ledger.ExportFileName, "Output file, - for stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")
	email, _ := cmd.Flags().GetString("email")
	out, _ := cmd.Flags().GetString("out")
	if email == "" {
		email = cfg.Auth.AllowedEmail
	}

	gdb, err := openDatabase(cmd.Context(), logger.WithComponent("db"))
	if err != nil {
		return err
	}
	svc := newLedgerService(store.New(gdb), notify.NewLocal(), nil)
	if err := svc.EnsureSession(cmd.Context(), email); err != nil {
		return fmt.Errorf("sign in as %q: %w", email, err)
	}

	if err := writeExport(cmd.OutOrStdout(), out, svc.ExportPayments); err != nil {
		return err
	}
	log.Info().Str("out", out).Msg("payment history exported")
	return nil
}

// writeExport runs export against stdout when out is "-" and against a new
// file otherwise. A failed close of the file is reported.
func writeExport(stdout io.Writer, out string, export func(io.Writer) error) (err error) {
	if out == "-" {
		return export(stdout)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", out, cerr)
		}
	}()
	return export(f)
}
