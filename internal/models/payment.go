package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentType tells whether a payment settled its purchase.
type PaymentType string

const (
	PaymentTypeFull    PaymentType = "Full Payment"
	PaymentTypePartial PaymentType = "Partial Payment"
)

// Known payment methods. Method stays free text.
const (
	MethodCash         = "Cash"
	MethodBankTransfer = "Bank Transfer"
	MethodCheque       = "Cheque"
	MethodUPI          = "UPI"
	MethodCard         = "Card"
)

// DefaultMethod is used when a payment is recorded without a method.
const DefaultMethod = MethodCash

// DeriveType classifies a payment from the purchase total after it was applied.
func DeriveType(billAmount, amountPaidAfter decimal.Decimal) PaymentType {
	if amountPaidAfter.GreaterThanOrEqual(billAmount) {
		return PaymentTypeFull
	}
	return PaymentTypePartial
}

// Payment is an immutable record of money paid against a purchase.
type Payment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	PurchaseID string `gorm:"size:36;not null;index" json:"purchase_id"`
	BillNumber string `gorm:"size:100;not null" json:"bill_number"`
	Supplier   string `gorm:"size:255;not null" json:"supplier"`

	Amount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Date   Date            `gorm:"not null;index" json:"date"`
	Method string          `gorm:"size:50;not null" json:"method"`
	Type   PaymentType     `gorm:"size:20;not null" json:"type"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// ApplyPayment returns purchase with amount added and the payment that
// records it. The argument is left untouched.
func ApplyPayment(purchase Purchase, amount decimal.Decimal, date Date, method string) (Purchase, Payment, error) {
	if !amount.IsPositive() || amount.GreaterThan(purchase.Outstanding()) {
		return Purchase{}, Payment{}, ErrInvalidAmount
	}
	method = strings.TrimSpace(method)
	if method == "" {
		method = DefaultMethod
	}

	updated := purchase
	updated.AmountPaid = purchase.AmountPaid.Add(amount)
	updated.Status = DeriveStatus(updated.BillAmount, updated.AmountPaid)
	paidOn := date
	updated.PaymentDate = &paidOn
	updated.PaymentMethod = &method

	payment := Payment{
		PurchaseID: purchase.ID,
		BillNumber: purchase.BillNumber,
		Supplier:   purchase.SupplierName,
		Amount:     amount,
		Date:       date,
		Method:     method,
		Type:       DeriveType(updated.BillAmount, updated.AmountPaid),
	}
	return updated, payment, nil
}
