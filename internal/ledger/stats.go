// Package ledger holds the side-effect free computations over a snapshot of
// suppliers, purchases and payments: statistics, filtering, the activity feed
// and the payment export. Every function takes "now" explicitly.
package ledger

import (
	"time"

	"github.com/diewo77/go-purchases/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultOverdueAfter is how old an unsettled bill must be to count as overdue.
const DefaultOverdueAfter = 30 * 24 * time.Hour

// DashboardStats summarises all purchases. The display fields carry the
// totals formatted as rupees.
type DashboardStats struct {
	TotalBills              int             `json:"total_bills"`
	TotalPaid               decimal.Decimal `json:"total_paid"`
	TotalOutstanding        decimal.Decimal `json:"total_outstanding"`
	OverdueBills            int             `json:"overdue_bills"`
	TotalPaidDisplay        string          `json:"total_paid_display"`
	TotalOutstandingDisplay string          `json:"total_outstanding_display"`
}

// ComputeDashboardStats counts bills, sums payments and flags overdue bills:
// those with a bill date older than now-overdueAfter that are not fully paid.
// A non-positive overdueAfter falls back to DefaultOverdueAfter.
func ComputeDashboardStats(purchases []models.Purchase, now time.Time, overdueAfter time.Duration) DashboardStats {
	if overdueAfter <= 0 {
		overdueAfter = DefaultOverdueAfter
	}
	cutoff := now.Add(-overdueAfter)

	stats := DashboardStats{TotalBills: len(purchases), TotalPaid: decimal.Zero}
	billed := decimal.Zero
	for _, p := range purchases {
		stats.TotalPaid = stats.TotalPaid.Add(p.AmountPaid)
		billed = billed.Add(p.BillAmount)
		if p.BillDate.Before(cutoff) && p.Status != models.StatusFullyPaid {
			stats.OverdueBills++
		}
	}
	stats.TotalOutstanding = billed.Sub(stats.TotalPaid)
	stats.TotalPaidDisplay = FormatCurrency(stats.TotalPaid)
	stats.TotalOutstandingDisplay = FormatCurrency(stats.TotalOutstanding)
	return stats
}

// SupplierStats is the rollup shown on a supplier card.
type SupplierStats struct {
	TotalPurchases int             `json:"total_purchases"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// ComputeSupplierStats counts the purchases of one supplier and sums their bills.
func ComputeSupplierStats(purchases []models.Purchase, supplierID string) SupplierStats {
	stats := SupplierStats{TotalAmount: decimal.Zero}
	for _, p := range purchases {
		if p.SupplierID != supplierID {
			continue
		}
		stats.TotalPurchases++
		stats.TotalAmount = stats.TotalAmount.Add(p.BillAmount)
	}
	return stats
}

// SupplierSummary pairs a supplier with its rollup.
type SupplierSummary struct {
	models.Supplier
	Stats SupplierStats `json:"stats"`
}

// SupplierDirectory returns every supplier, in collection order, with its stats.
func SupplierDirectory(suppliers []models.Supplier, purchases []models.Purchase) []SupplierSummary {
	out := make([]SupplierSummary, 0, len(suppliers))
	for _, s := range suppliers {
		out = append(out, SupplierSummary{Supplier: s, Stats: ComputeSupplierStats(purchases, s.ID)})
	}
	return out
}
