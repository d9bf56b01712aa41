package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status is the settlement state of a purchase. It is always derived.
type Status string

const (
	StatusUnpaid        Status = "Unpaid"
	StatusPartiallyPaid Status = "Partially Paid"
	StatusFullyPaid     Status = "Fully Paid"
)

// Valid reports whether s is one of the three derived statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPartiallyPaid, StatusFullyPaid:
		return true
	}
	return false
}

// DeriveStatus is the only way a purchase status is computed.
func DeriveStatus(billAmount, amountPaid decimal.Decimal) Status {
	switch {
	case !amountPaid.IsPositive():
		return StatusUnpaid
	case amountPaid.LessThan(billAmount):
		return StatusPartiallyPaid
	default:
		return StatusFullyPaid
	}
}

// Purchase is a bill received from a supplier.
type Purchase struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BillNumber string `gorm:"size:100;not null;index" json:"bill_number"`

	// Supplier reference; the name is copied for display.
	SupplierID   string `gorm:"size:36;not null;index" json:"supplier_id"`
	SupplierName string `gorm:"size:255;not null" json:"supplier_name"`

	Item         string `gorm:"size:500" json:"item"`
	PurchaseDate Date   `gorm:"not null" json:"purchase_date"`
	BillDate     Date   `gorm:"not null" json:"bill_date"`

	BillAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"bill_amount"`
	AmountPaid decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount_paid"`

	// Most recent payment
	PaymentDate   *Date   `json:"payment_date,omitempty"`
	PaymentMethod *string `gorm:"size:50" json:"payment_method,omitempty"`

	Status Status                     `gorm:"size:20;not null" json:"status"`
	Photos datatypes.JSONSlice[Photo] `json:"photos"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// Outstanding returns the unpaid balance.
func (p *Purchase) Outstanding() decimal.Decimal {
	return p.BillAmount.Sub(p.AmountPaid)
}

// HasPhotos reports whether any photo is attached.
func (p *Purchase) HasPhotos() bool {
	return len(p.Photos) > 0
}

// PurchaseDraft holds user input for a new purchase.
type PurchaseDraft struct {
	BillNumber   string
	Supplier     Supplier
	Item         string
	PurchaseDate Date
	BillDate     Date
	BillAmount   decimal.Decimal
}

// NewPurchase builds an unpaid purchase from a draft. Initial payments are
// recorded afterwards through ApplyPayment so that the sum of payments always
// matches AmountPaid. initialPaid is only checked against the bill here.
func NewPurchase(d PurchaseDraft, initialPaid decimal.Decimal) (Purchase, error) {
	if d.BillAmount.IsNegative() || initialPaid.IsNegative() {
		return Purchase{}, ErrInvalidAmount
	}
	if initialPaid.GreaterThan(d.BillAmount) {
		return Purchase{}, ErrInvalidAmount
	}
	p := Purchase{
		BillNumber:   strings.TrimSpace(d.BillNumber),
		SupplierID:   d.Supplier.ID,
		SupplierName: d.Supplier.Name,
		Item:         strings.TrimSpace(d.Item),
		PurchaseDate: d.PurchaseDate,
		BillDate:     d.BillDate,
		BillAmount:   d.BillAmount,
		AmountPaid:   decimal.Zero,
	}
	p.Status = DeriveStatus(p.BillAmount, p.AmountPaid)
	return p, nil
}
