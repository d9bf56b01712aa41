package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/go-purchases/internal/config"
	"github.com/diewo77/go-purchases/internal/db"
	"github.com/diewo77/go-purchases/internal/identity"
	"github.com/diewo77/go-purchases/internal/models"
	"github.com/diewo77/go-purchases/internal/store"
)

func seedLedger(t *testing.T, path string) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	st := store.New(gdb)
	sup := models.Supplier{Name: "Acme Traders"}
	if err := st.CreateSupplier(ctx, &sup); err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	p, err := models.NewPurchase(models.PurchaseDraft{
		BillNumber:   "INV-1",
		Supplier:     sup,
		PurchaseDate: models.MustDate("2024-01-02"),
		BillDate:     models.MustDate("2024-01-02"),
		BillAmount:   decimal.NewFromInt(500),
	}, decimal.Zero)
	if err != nil {
		t.Fatalf("NewPurchase: %v", err)
	}
	if err := st.CreatePurchase(ctx, &p); err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if _, _, err := st.RecordPayment(ctx, store.PaymentRequest{
		PurchaseID:   p.ID,
		ExpectedPaid: decimal.Zero,
		Amount:       decimal.NewFromInt(200),
		Date:         models.MustDate("2024-01-05"),
		Method:       "UPI",
	}); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.Close()
}

func TestExportPaymentsCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")
	seedLedger(t, dbPath)

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", dbPath)
	t.Setenv("LEDGER_ALLOWED_EMAIL", "owner@example.com")
	t.Setenv("LOG_LEVEL", "error")

	out := filepath.Join(dir, "payments.csv")
	rootCmd.SetArgs([]string{"export-payments", "--email", "Owner@Example.com", "--out", out})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("export-payments: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got:\n%s", data)
	}
	if !strings.HasPrefix(lines[1], "2024-01-05,INV-1,Acme Traders,200,UPI,Partial Payment") {
		t.Fatalf("unexpected row %q", lines[1])
	}

	rootCmd.SetArgs([]string{"export-payments", "--email", "intruder@example.com", "--out", out})
	if err := rootCmd.Execute(); err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestNewVerifier(t *testing.T) {
	cfg = &config.Config{App: config.AppConfig{Dev: true}}
	v, err := newVerifier(context.Background())
	if err != nil {
		t.Fatalf("dev verifier: %v", err)
	}
	if _, ok := v.(identity.Static); !ok {
		t.Fatalf("expected dev verifier, got %T", v)
	}

	cfg = &config.Config{}
	if _, err := newVerifier(context.Background()); err == nil {
		t.Fatalf("expected error without client id outside dev mode")
	}
}

func TestNewBlobStoreDisabled(t *testing.T) {
	cfg = &config.Config{}
	blobs, err := newBlobStore(context.Background(), zerolog.Nop())
	if err != nil || blobs != nil {
		t.Fatalf("expected disabled store, got %v %v", blobs, err)
	}
}

func TestWriteExport(t *testing.T) {
	write := func(w io.Writer) error {
		_, err := io.WriteString(w, "date,bill\n")
		return err
	}

	var stdout bytes.Buffer
	if err := writeExport(&stdout, "-", write); err != nil || stdout.String() != "date,bill\n" {
		t.Fatalf("stdout export: %q %v", stdout.String(), err)
	}

	out := filepath.Join(t.TempDir(), "payments.csv")
	if err := writeExport(&stdout, out, write); err != nil {
		t.Fatalf("file export: %v", err)
	}
	if data, _ := os.ReadFile(out); string(data) != "date,bill\n" {
		t.Fatalf("file content %q", data)
	}

	boom := errors.New("boom")
	if err := writeExport(&stdout, out, func(io.Writer) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected export error, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "no-such-dir", "payments.csv")
	if err := writeExport(&stdout, missing, write); err == nil {
		t.Fatalf("expected create error for %s", missing)
	}
}
