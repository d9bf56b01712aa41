package ledger

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/diewo77/go-purchases/internal/models"
)

// SortDirection is asc or desc.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// Purchase sort fields.
const (
	SortBillNumber   = "billNumber"
	SortSupplierName = "supplierName"
	SortItem         = "item"
	SortPurchaseDate = "purchaseDate"
	SortBillDate     = "billDate"
	SortBillAmount   = "billAmount"
	SortAmountPaid   = "amountPaid"
	SortStatus       = "status"
)

var purchaseComparators = map[string]func(a, b models.Purchase) int{
	SortBillNumber:   func(a, b models.Purchase) int { return strings.Compare(strings.ToLower(a.BillNumber), strings.ToLower(b.BillNumber)) },
	SortSupplierName: func(a, b models.Purchase) int { return strings.Compare(strings.ToLower(a.SupplierName), strings.ToLower(b.SupplierName)) },
	SortItem:         func(a, b models.Purchase) int { return strings.Compare(strings.ToLower(a.Item), strings.ToLower(b.Item)) },
	SortPurchaseDate: func(a, b models.Purchase) int { return a.PurchaseDate.Compare(b.PurchaseDate.Time) },
	SortBillDate:     func(a, b models.Purchase) int { return a.BillDate.Compare(b.BillDate.Time) },
	SortBillAmount:   func(a, b models.Purchase) int { return a.BillAmount.Cmp(b.BillAmount) },
	SortAmountPaid:   func(a, b models.Purchase) int { return a.AmountPaid.Cmp(b.AmountPaid) },
	SortStatus:       func(a, b models.Purchase) int { return cmp.Compare(a.Status, b.Status) },
}

// ValidPurchaseSortField reports whether field can sort purchases.
func ValidPurchaseSortField(field string) bool {
	_, ok := purchaseComparators[field]
	return ok
}

// SortState is the table sort selection. An empty Field means unsorted.
type SortState struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Toggle selects field. Selecting the current field flips the direction,
// any other field starts ascending.
func (s SortState) Toggle(field string) SortState {
	if s.Field == field {
		if s.Direction == Asc {
			return SortState{Field: field, Direction: Desc}
		}
		return SortState{Field: field, Direction: Asc}
	}
	return SortState{Field: field, Direction: Asc}
}

// PurchaseFilter narrows the purchases table. Empty values match everything.
type PurchaseFilter struct {
	Search     string
	Status     models.Status
	SupplierID string
}

// FilterPurchases applies f and then sort. The input slice is not reordered.
// A supplier id that does not resolve to a known supplier is ignored.
func FilterPurchases(purchases []models.Purchase, suppliers []models.Supplier, f PurchaseFilter, sort SortState) []models.Purchase {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	supplierID := ""
	if f.SupplierID != "" && slices.ContainsFunc(suppliers, func(s models.Supplier) bool { return s.ID == f.SupplierID }) {
		supplierID = f.SupplierID
	}

	out := make([]models.Purchase, 0, len(purchases))
	for _, p := range purchases {
		if search != "" && !containsFold(search, p.BillNumber, p.SupplierName, p.Item) {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if supplierID != "" && p.SupplierID != supplierID {
			continue
		}
		out = append(out, p)
	}

	if compare, ok := purchaseComparators[sort.Field]; ok {
		slices.SortStableFunc(out, func(a, b models.Purchase) int {
			if sort.Direction == Desc {
				return compare(b, a)
			}
			return compare(a, b)
		})
	}
	return out
}

// PaymentFilter narrows the payment history. From and To are inclusive and optional.
type PaymentFilter struct {
	Search string
	From   *models.Date
	To     *models.Date
}

// FilterPayments applies f and returns the matches newest first.
// Payments sharing a date keep their collection order.
func FilterPayments(payments []models.Payment, f PaymentFilter) []models.Payment {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		if search != "" && !containsFold(search, p.BillNumber, p.Supplier) {
			continue
		}
		if f.From != nil && p.Date.Before(f.From.Time) {
			continue
		}
		if f.To != nil && p.Date.After(f.To.Time) {
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b models.Payment) int {
		return b.Date.Compare(a.Date.Time)
	})
	return out
}

// FilterGallery returns the purchases that carry photos, searched by bill
// number and supplier name.
func FilterGallery(purchases []models.Purchase, search string) []models.Purchase {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Purchase, 0)
	for _, p := range purchases {
		if !p.HasPhotos() {
			continue
		}
		if search != "" && !containsFold(search, p.BillNumber, p.SupplierName) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// RecentPurchases returns up to n purchases, latest purchase date first.
func RecentPurchases(purchases []models.Purchase, n int) []models.Purchase {
	out := slices.Clone(purchases)
	slices.SortStableFunc(out, func(a, b models.Purchase) int {
		return b.PurchaseDate.Compare(a.PurchaseDate.Time)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ParseStatus accepts an empty string or one of the derived statuses.
func ParseStatus(s string) (models.Status, error) {
	status := models.Status(strings.TrimSpace(s))
	if status == "" || status.Valid() {
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// containsFold reports whether any field contains needle, which must already be lower case.
func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
