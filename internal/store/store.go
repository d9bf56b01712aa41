// Package store persists suppliers, purchases and payments with GORM.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/diewo77/go-purchases/internal/models"
)

// Store is the GORM-backed ledger repository.
type Store struct {
	db *gorm.DB
}

// New wraps an open database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) CreateSupplier(ctx context.Context, sup *models.Supplier) error {
	if err := s.db.WithContext(ctx).Create(sup).Error; err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}
	return nil
}

// ListSuppliers returns all suppliers, newest first.
func (s *Store) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var out []models.Supplier
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	return out, nil
}

func (s *Store) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create purchase: %w", err)
	}
	return nil
}

// ListPurchases returns all purchases, newest first.
func (s *Store) ListPurchases(ctx context.Context) ([]models.Purchase, error) {
	var out []models.Purchase
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return out, nil
}

// UpdatePurchasePhotos stores the photo list of a purchase.
func (s *Store) UpdatePurchasePhotos(ctx context.Context, purchaseID string, photos []models.Photo) error {
	res := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ?", purchaseID).
		Update("photos", datatypes.NewJSONSlice(photos))
	if res.Error != nil {
		return fmt.Errorf("update purchase photos: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("purchase %s: %w", purchaseID, models.ErrNotFound)
	}
	return nil
}

// ListPayments returns all payments, newest first.
func (s *Store) ListPayments(ctx context.Context) ([]models.Payment, error) {
	var out []models.Payment
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

// PaymentRequest describes a payment against a purchase. ExpectedPaid is the
// amount already paid in the caller's snapshot; the write is refused when
// the stored value differs.
type PaymentRequest struct {
	PurchaseID   string
	ExpectedPaid decimal.Decimal
	Amount       decimal.Decimal
	Date         models.Date
	Method       string
}

// RecordPayment applies a payment to the stored purchase and inserts the
// payment row in one transaction.
func (s *Store) RecordPayment(ctx context.Context, req PaymentRequest) (models.Purchase, models.Payment, error) {
	var (
		updated models.Purchase
		payment models.Payment
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Purchase
		if err := tx.First(&current, "id = ?", req.PurchaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("purchase %s: %w", req.PurchaseID, models.ErrNotFound)
			}
			return fmt.Errorf("load purchase: %w", err)
		}
		if !current.AmountPaid.Equal(req.ExpectedPaid) {
			return fmt.Errorf("purchase %s changed since it was read (paid %s, expected %s): %w",
				req.PurchaseID, current.AmountPaid, req.ExpectedPaid, models.ErrInvalidAmount)
		}

		var err error
		updated, payment, err = models.ApplyPayment(current, req.Amount, req.Date, req.Method)
		if err != nil {
			return err
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		res := tx.Model(&models.Purchase{}).
			Where("id = ? AND amount_paid = ?", current.ID, current.AmountPaid).
			Updates(map[string]any{
				"amount_paid":    updated.AmountPaid,
				"status":         updated.Status,
				"payment_date":   updated.PaymentDate,
				"payment_method": updated.PaymentMethod,
			})
		if res.Error != nil {
			return fmt.Errorf("update purchase: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("purchase %s changed concurrently: %w", current.ID, models.ErrInvalidAmount)
		}
		return nil
	})
	if err != nil {
		return models.Purchase{}, models.Payment{}, err
	}
	return updated, payment, nil
}
