package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name string
		bill string
		paid string
		want Status
	}{
		{"nothing paid", "1000", "0", StatusUnpaid},
		{"partial", "1000", "400", StatusPartiallyPaid},
		{"exact", "1000", "1000", StatusFullyPaid},
		{"zero bill zero paid", "0", "0", StatusUnpaid},
		{"over", "100", "150", StatusFullyPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(dec(tt.bill), dec(tt.paid)); got != tt.want {
				t.Errorf("DeriveStatus(%s, %s) = %q, want %q", tt.bill, tt.paid, got, tt.want)
			}
		})
	}
}

func TestDeriveType(t *testing.T) {
	if got := DeriveType(dec("1000"), dec("999.99")); got != PaymentTypePartial {
		t.Errorf("DeriveType = %q, want partial", got)
	}
	if got := DeriveType(dec("1000"), dec("1000")); got != PaymentTypeFull {
		t.Errorf("DeriveType = %q, want full", got)
	}
}

func TestApplyPayment_PartialThenFull(t *testing.T) {
	p := Purchase{ID: "p1", BillNumber: "B1", SupplierName: "Acme", BillAmount: dec("1000"), AmountPaid: decimal.Zero, Status: StatusUnpaid}

	after, pay, err := ApplyPayment(p, dec("400"), MustDate("2024-02-01"), "UPI")
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if !after.AmountPaid.Equal(dec("400")) || after.Status != StatusPartiallyPaid {
		t.Fatalf("after first payment: paid=%s status=%s", after.AmountPaid, after.Status)
	}
	if pay.Type != PaymentTypePartial || pay.PurchaseID != "p1" || pay.BillNumber != "B1" || pay.Supplier != "Acme" {
		t.Fatalf("unexpected payment %+v", pay)
	}
	if !p.AmountPaid.IsZero() || p.PaymentDate != nil {
		t.Fatalf("input purchase was modified: %+v", p)
	}

	final, pay2, err := ApplyPayment(after, dec("600"), MustDate("2024-02-05"), "")
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if !final.AmountPaid.Equal(dec("1000")) || final.Status != StatusFullyPaid {
		t.Fatalf("after second payment: paid=%s status=%s", final.AmountPaid, final.Status)
	}
	if pay2.Type != PaymentTypeFull {
		t.Errorf("second payment type = %q", pay2.Type)
	}
	if pay2.Method != DefaultMethod || final.PaymentMethod == nil || *final.PaymentMethod != DefaultMethod {
		t.Errorf("empty method should default to %q, got %q", DefaultMethod, pay2.Method)
	}
	if final.PaymentDate == nil || final.PaymentDate.String() != "2024-02-05" {
		t.Errorf("payment date = %v", final.PaymentDate)
	}
}

func TestApplyPayment_ThirdPaymentOnSettledPurchase(t *testing.T) {
	p := Purchase{ID: "p1", BillNumber: "B1", BillAmount: dec("1000"), AmountPaid: decimal.Zero, Status: StatusUnpaid}
	p, _, err := ApplyPayment(p, dec("400"), MustDate("2024-02-01"), "UPI")
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	p, _, err = ApplyPayment(p, dec("600"), MustDate("2024-02-05"), "UPI")
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if _, _, err := ApplyPayment(p, dec("1"), MustDate("2024-02-06"), "UPI"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("third payment: err = %v, want ErrInvalidAmount", err)
	}
	if !p.AmountPaid.Equal(dec("1000")) || p.Status != StatusFullyPaid {
		t.Fatalf("settled purchase changed: paid=%s status=%s", p.AmountPaid, p.Status)
	}
}

func TestApplyPayment_InvalidAmount(t *testing.T) {
	p := Purchase{BillAmount: dec("1000"), AmountPaid: dec("400")}
	for _, amount := range []string{"0", "-1", "600.01"} {
		_, _, err := ApplyPayment(p, dec(amount), MustDate("2024-01-01"), "Cash")
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestNewPurchase(t *testing.T) {
	d := PurchaseDraft{BillNumber: " B7 ", Supplier: Supplier{ID: "s1", Name: "Acme"}, BillAmount: dec("250")}
	p, err := NewPurchase(d, dec("100"))
	if err != nil {
		t.Fatalf("NewPurchase: %v", err)
	}
	if p.BillNumber != "B7" || p.SupplierName != "Acme" || p.Status != StatusUnpaid || !p.AmountPaid.IsZero() {
		t.Fatalf("unexpected purchase %+v", p)
	}
	if _, err := NewPurchase(d, dec("300")); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("initial payment over bill: got %v", err)
	}
	d.BillAmount = dec("-1")
	if _, err := NewPurchase(d, decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative bill: got %v", err)
	}
}

func TestDate_JSONAndScan(t *testing.T) {
	var v struct {
		D Date  `json:"d"`
		P *Date `json:"p"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-03-09","p":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.D.String() != "2024-03-09" || v.P != nil {
		t.Fatalf("got %v %v", v.D, v.P)
	}
	b, _ := json.Marshal(v.D)
	if string(b) != `"2024-03-09"` {
		t.Errorf("marshal = %s", b)
	}

	var d Date
	if err := d.Scan(time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)); err != nil || d.String() != "2024-03-09" {
		t.Errorf("scan time: %v %v", d, err)
	}
	if err := d.Scan("2024-03-10 00:00:00+00:00"); err != nil || d.String() != "2024-03-10" {
		t.Errorf("scan string: %v %v", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestRemoteFailure(t *testing.T) {
	cause := errors.New("connection refused")
	var err error = &RemoteFailure{Op: "upload photo", Err: cause}
	if !errors.Is(err, cause) || !IsRemoteFailure(err) {
		t.Fatalf("RemoteFailure should unwrap to its cause")
	}
	if err.Error() != "remote failure during upload photo: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}
