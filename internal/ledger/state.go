package ledger

import (
	"fmt"

	"github.com/diewo77/go-purchases/internal/models"
)

// State is one consistent snapshot of the ledger plus the table sort
// selections. Transforms return a new State and never write through to the
// slices of the receiver.
type State struct {
	Suppliers    []models.Supplier
	Purchases    []models.Purchase
	Payments     []models.Payment
	PurchaseSort SortState
	PaymentSort  SortState
}

func (s State) WithSuppliers(suppliers []models.Supplier) State {
	s.Suppliers = suppliers
	return s
}

func (s State) WithPurchases(purchases []models.Purchase) State {
	s.Purchases = purchases
	return s
}

func (s State) WithPayments(payments []models.Payment) State {
	s.Payments = payments
	return s
}

func (s State) WithPurchaseSort(sort SortState) State {
	s.PurchaseSort = sort
	return s
}

func (s State) WithPaymentSort(sort SortState) State {
	s.PaymentSort = sort
	return s
}

// WithSupplier puts a newly created supplier at the head of the collection.
func (s State) WithSupplier(supplier models.Supplier) State {
	s.Suppliers = append([]models.Supplier{supplier}, s.Suppliers...)
	return s
}

// WithPurchase replaces the purchase with the same id, or prepends it when
// it is new. Collections are ordered newest first.
func (s State) WithPurchase(p models.Purchase) State {
	out := make([]models.Purchase, 0, len(s.Purchases)+1)
	replaced := false
	for _, existing := range s.Purchases {
		if existing.ID == p.ID {
			out = append(out, p)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append([]models.Purchase{p}, out...)
	}
	s.Purchases = out
	return s
}

// WithPayment prepends a recorded payment unless it is already known.
func (s State) WithPayment(p models.Payment) State {
	for _, existing := range s.Payments {
		if existing.ID == p.ID {
			return s
		}
	}
	s.Payments = append([]models.Payment{p}, s.Payments...)
	return s
}

// Purchase looks up a purchase by id.
func (s State) Purchase(id string) (models.Purchase, error) {
	for _, p := range s.Purchases {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Purchase{}, fmt.Errorf("purchase %s: %w", id, models.ErrNotFound)
}

// Supplier looks up a supplier by id.
func (s State) Supplier(id string) (models.Supplier, error) {
	for _, sup := range s.Suppliers {
		if sup.ID == id {
			return sup, nil
		}
	}
	return models.Supplier{}, fmt.Errorf("supplier %s: %w", id, models.ErrNotFound)
}
