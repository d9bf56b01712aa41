// Package services owns the in-memory ledger snapshot and every operation
// that reads or changes it.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-purchases/internal/ledger"
	"github.com/diewo77/go-purchases/internal/models"
	"github.com/diewo77/go-purchases/internal/notify"
	"github.com/diewo77/go-purchases/internal/storage"
	"github.com/diewo77/go-purchases/internal/store"
)

// RecentPurchasesLimit is the length of the dashboard's recent purchases table.
const RecentPurchasesLimit = 10

// ErrStorageDisabled is returned when photos are uploaded without a blob store.
var ErrStorageDisabled = errors.New("photo storage is not configured")

// Store is the persistence the ledger needs.
type Store interface {
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	ListPurchases(ctx context.Context) ([]models.Purchase, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	CreateSupplier(ctx context.Context, s *models.Supplier) error
	CreatePurchase(ctx context.Context, p *models.Purchase) error
	UpdatePurchasePhotos(ctx context.Context, purchaseID string, photos []models.Photo) error
	RecordPayment(ctx context.Context, req store.PaymentRequest) (models.Purchase, models.Payment, error)
}

// Options configures a LedgerService.
type Options struct {
	AllowedEmail string
	OverdueAfter time.Duration
	Clock        func() time.Time
	Logger       zerolog.Logger
}

// LedgerService gates access to the single allowed principal, keeps the
// snapshot in sync with the store and applies mutations persist-then-reflect.
type LedgerService struct {
	store   Store
	broker  notify.Broker
	blobs   storage.BlobStore
	allowed string
	overdue time.Duration
	now     func() time.Time
	log     zerolog.Logger

	// reloadMu serializes snapshot replacement with local reflection so an
	// older fetch never lands after a newer write.
	reloadMu sync.Mutex
	mu       sync.RWMutex
	state    ledger.State
	active   bool
}

// NewLedgerService wires the service. blobs may be nil when photo storage is
// not configured.
func NewLedgerService(st Store, broker notify.Broker, blobs storage.BlobStore, opts Options) *LedgerService {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	overdue := opts.OverdueAfter
	if overdue <= 0 {
		overdue = ledger.DefaultOverdueAfter
	}
	return &LedgerService{
		store:   st,
		broker:  broker,
		blobs:   blobs,
		allowed: strings.ToLower(strings.TrimSpace(opts.AllowedEmail)),
		overdue: overdue,
		now:     clock,
		log:     opts.Logger,
	}
}

// Authorize checks email against the allowed principal, ignoring case.
func (s *LedgerService) Authorize(email string) error {
	if s.allowed == "" || !strings.EqualFold(strings.TrimSpace(email), s.allowed) {
		return models.ErrUnauthorized
	}
	return nil
}

// EnsureSession authorizes email and loads the snapshot on first use.
func (s *LedgerService) EnsureSession(ctx context.Context, email string) error {
	if err := s.Authorize(email); err != nil {
		return err
	}
	if s.isActive() {
		return nil
	}
	if err := s.loadAll(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	s.log.Info().Msg("ledger session started")
	return nil
}

// SignOut drops the snapshot and the sort selections.
func (s *LedgerService) SignOut() {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = ledger.State{}
	s.active = false
}

// Start follows change notifications until ctx is done, replacing the
// affected collection on each one.
func (s *LedgerService) Start(ctx context.Context) error {
	changes, err := s.broker.Subscribe(ctx)
	if err != nil {
		return &models.RemoteFailure{Op: "subscribe to changes", Err: err}
	}
	go func() {
		for collection := range changes {
			if !s.isActive() {
				continue
			}
			if err := s.reload(ctx, collection); err != nil {
				s.log.Error().Err(err).Str("collection", collection).Msg("snapshot reload failed")
			}
		}
	}()
	return nil
}

// Refresh reloads every collection.
func (s *LedgerService) Refresh(ctx context.Context) error {
	if !s.isActive() {
		return models.ErrUnauthorized
	}
	return s.loadAll(ctx)
}

func (s *LedgerService) loadAll(ctx context.Context) error {
	for _, c := range notify.Collections {
		if err := s.reload(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *LedgerService) reload(ctx context.Context, collection string) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	var apply func(ledger.State) ledger.State
	switch collection {
	case notify.Suppliers:
		list, err := s.store.ListSuppliers(ctx)
		if err != nil {
			return &models.RemoteFailure{Op: "load suppliers", Err: err}
		}
		apply = func(st ledger.State) ledger.State { return st.WithSuppliers(list) }
	case notify.Purchases:
		list, err := s.store.ListPurchases(ctx)
		if err != nil {
			return &models.RemoteFailure{Op: "load purchases", Err: err}
		}
		apply = func(st ledger.State) ledger.State { return st.WithPurchases(list) }
	case notify.Payments:
		list, err := s.store.ListPayments(ctx)
		if err != nil {
			return &models.RemoteFailure{Op: "load payments", Err: err}
		}
		apply = func(st ledger.State) ledger.State { return st.WithPayments(list) }
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}

	s.mu.Lock()
	s.state = apply(s.state)
	s.mu.Unlock()
	return nil
}

// reflect folds a persisted change into the snapshot.
func (s *LedgerService) reflect(apply func(ledger.State) ledger.State) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = apply(s.state)
}

func (s *LedgerService) publish(ctx context.Context, collections ...string) {
	for _, c := range collections {
		if err := s.broker.Publish(ctx, c); err != nil {
			s.log.Warn().Err(err).Str("collection", c).Msg("change notification not sent")
		}
	}
}

func (s *LedgerService) isActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// snapshot returns the current state. Callers must not modify its slices.
func (s *LedgerService) snapshot() (ledger.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return ledger.State{}, models.ErrUnauthorized
	}
	return s.state, nil
}

// Today is the current date in the service clock.
func (s *LedgerService) Today() models.Date {
	return models.NewDate(s.now())
}

// remote wraps a backend error unless it already carries a domain error.
func remote(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidAmount) {
		return err
	}
	return &models.RemoteFailure{Op: op, Err: err}
}

// SupplierInput is the data needed to create a supplier.
type SupplierInput struct {
	Name    string
	Contact string
	Phone   string
	Address string
}

func (s *LedgerService) SaveSupplier(ctx context.Context, in SupplierInput) (models.Supplier, error) {
	if _, err := s.snapshot(); err != nil {
		return models.Supplier{}, err
	}
	sup := models.Supplier{
		Name:    strings.TrimSpace(in.Name),
		Contact: strings.TrimSpace(in.Contact),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	}
	if err := s.store.CreateSupplier(ctx, &sup); err != nil {
		return models.Supplier{}, remote("create supplier", err)
	}
	s.reflect(func(st ledger.State) ledger.State { return st.WithSupplier(sup) })
	s.publish(ctx, notify.Suppliers)
	return sup, nil
}

// PurchaseInput is the data needed to create a purchase. A positive
// AmountPaid records an initial payment; PaymentDate defaults to today and
// PaymentMethod to cash.
type PurchaseInput struct {
	BillNumber    string
	SupplierID    string
	Item          string
	PurchaseDate  models.Date
	BillDate      models.Date
	BillAmount    decimal.Decimal
	AmountPaid    decimal.Decimal
	PaymentDate   *models.Date
	PaymentMethod string
}

// SavePurchase creates the purchase, uploads its photos, stores the photo
// list and records the initial payment, in that order. When a step fails the
// earlier steps stay applied and the returned purchase reflects them.
func (s *LedgerService) SavePurchase(ctx context.Context, in PurchaseInput, files []storage.File) (models.Purchase, error) {
	snap, err := s.snapshot()
	if err != nil {
		return models.Purchase{}, err
	}
	sup, err := snap.Supplier(in.SupplierID)
	if err != nil {
		return models.Purchase{}, err
	}
	if len(files) > 0 && s.blobs == nil {
		return models.Purchase{}, &models.RemoteFailure{Op: "upload photo", Err: ErrStorageDisabled}
	}

	p, err := models.NewPurchase(models.PurchaseDraft{
		BillNumber:   in.BillNumber,
		Supplier:     sup,
		Item:         in.Item,
		PurchaseDate: in.PurchaseDate,
		BillDate:     in.BillDate,
		BillAmount:   in.BillAmount,
	}, in.AmountPaid)
	if err != nil {
		return models.Purchase{}, err
	}
	if err := s.store.CreatePurchase(ctx, &p); err != nil {
		return models.Purchase{}, remote("create purchase", err)
	}
	s.reflect(func(st ledger.State) ledger.State { return st.WithPurchase(p) })
	s.publish(ctx, notify.Purchases)

	if len(files) > 0 {
		photos := make([]models.Photo, 0, len(files))
		for _, f := range files {
			photo, err := storage.UploadPhoto(ctx, s.blobs, p.ID, f, s.now())
			if err != nil {
				return p, &models.RemoteFailure{Op: "upload photo", Err: err}
			}
			photos = append(photos, photo)
		}
		if err := s.store.UpdatePurchasePhotos(ctx, p.ID, photos); err != nil {
			return p, &models.RemoteFailure{Op: "attach photos", Err: err}
		}
		p.Photos = photos
		s.reflect(func(st ledger.State) ledger.State { return st.WithPurchase(p) })
		s.publish(ctx, notify.Purchases)
	}

	if in.AmountPaid.IsPositive() {
		date := s.Today()
		if in.PaymentDate != nil && !in.PaymentDate.IsZero() {
			date = *in.PaymentDate
		}
		updated, pay, err := s.store.RecordPayment(ctx, store.PaymentRequest{
			PurchaseID:   p.ID,
			ExpectedPaid: p.AmountPaid,
			Amount:       in.AmountPaid,
			Date:         date,
			Method:       in.PaymentMethod,
		})
		if err != nil {
			return p, &models.RemoteFailure{Op: "record initial payment", Err: err}
		}
		p = updated
		s.reflect(func(st ledger.State) ledger.State { return st.WithPurchase(updated).WithPayment(pay) })
		s.publish(ctx, notify.Purchases, notify.Payments)
	}
	return p, nil
}

// PaymentInput is the data needed to pay against a purchase. Date defaults
// to today and Method to cash.
type PaymentInput struct {
	Amount decimal.Decimal
	Date   *models.Date
	Method string
}

// SavePayment validates the payment against the snapshot, persists it
// together with the purchase update and then reflects both locally.
func (s *LedgerService) SavePayment(ctx context.Context, purchaseID string, in PaymentInput) (models.Payment, error) {
	snap, err := s.snapshot()
	if err != nil {
		return models.Payment{}, err
	}
	p, err := snap.Purchase(purchaseID)
	if err != nil {
		return models.Payment{}, err
	}
	date := s.Today()
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}
	if _, _, err := models.ApplyPayment(p, in.Amount, date, in.Method); err != nil {
		return models.Payment{}, err
	}

	updated, pay, err := s.store.RecordPayment(ctx, store.PaymentRequest{
		PurchaseID:   p.ID,
		ExpectedPaid: p.AmountPaid,
		Amount:       in.Amount,
		Date:         date,
		Method:       in.Method,
	})
	if err != nil {
		return models.Payment{}, remote("record payment", err)
	}
	s.reflect(func(st ledger.State) ledger.State { return st.WithPurchase(updated).WithPayment(pay) })
	s.publish(ctx, notify.Purchases, notify.Payments)
	s.log.Info().Str("purchase", p.BillNumber).Str("amount", pay.Amount.String()).Str("type", string(pay.Type)).Msg("payment recorded")
	return pay, nil
}

// Dashboard is the landing page data.
type Dashboard struct {
	Stats           ledger.DashboardStats `json:"stats"`
	RecentPurchases []models.Purchase     `json:"recent_purchases"`
	Activity        []ledger.Activity     `json:"activity"`
}

func (s *LedgerService) Dashboard() (Dashboard, error) {
	snap, err := s.snapshot()
	if err != nil {
		return Dashboard{}, err
	}
	now := s.now()
	return Dashboard{
		Stats:           ledger.ComputeDashboardStats(snap.Purchases, now, s.overdue),
		RecentPurchases: ledger.RecentPurchases(snap.Purchases, RecentPurchasesLimit),
		Activity:        ledger.BuildActivityFeed(snap.Purchases, snap.Payments, now),
	}, nil
}

func (s *LedgerService) Activity() ([]ledger.Activity, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return ledger.BuildActivityFeed(snap.Purchases, snap.Payments, s.now()), nil
}

// Purchases filters purchases with the current sort selection, which is returned too.
func (s *LedgerService) Purchases(f ledger.PurchaseFilter) ([]models.Purchase, ledger.SortState, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, ledger.SortState{}, err
	}
	return ledger.FilterPurchases(snap.Purchases, snap.Suppliers, f, snap.PurchaseSort), snap.PurchaseSort, nil
}

func (s *LedgerService) Payments(f ledger.PaymentFilter) ([]models.Payment, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return ledger.FilterPayments(snap.Payments, f), nil
}

func (s *LedgerService) Gallery(search string) ([]models.Purchase, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return ledger.FilterGallery(snap.Purchases, search), nil
}

func (s *LedgerService) Suppliers() ([]ledger.SupplierSummary, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return ledger.SupplierDirectory(snap.Suppliers, snap.Purchases), nil
}

func (s *LedgerService) SupplierStats(supplierID string) (ledger.SupplierStats, error) {
	snap, err := s.snapshot()
	if err != nil {
		return ledger.SupplierStats{}, err
	}
	if _, err := snap.Supplier(supplierID); err != nil {
		return ledger.SupplierStats{}, err
	}
	return ledger.ComputeSupplierStats(snap.Purchases, supplierID), nil
}

// SortPurchases toggles the purchases table sort on field.
func (s *LedgerService) SortPurchases(field string) (ledger.SortState, error) {
	if !ledger.ValidPurchaseSortField(field) {
		return ledger.SortState{}, fmt.Errorf("unknown sort field %q", field)
	}
	return s.toggleSort(func(st ledger.State) (ledger.State, ledger.SortState) {
		next := st.PurchaseSort.Toggle(field)
		return st.WithPurchaseSort(next), next
	})
}

// SortPayments toggles the payments sort selection. The history view stays
// newest first regardless.
func (s *LedgerService) SortPayments(field string) (ledger.SortState, error) {
	return s.toggleSort(func(st ledger.State) (ledger.State, ledger.SortState) {
		next := st.PaymentSort.Toggle(field)
		return st.WithPaymentSort(next), next
	})
}

func (s *LedgerService) toggleSort(fn func(ledger.State) (ledger.State, ledger.SortState)) (ledger.SortState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ledger.SortState{}, models.ErrUnauthorized
	}
	var next ledger.SortState
	s.state, next = fn(s.state)
	return next, nil
}

// ExportPayments writes the payment history as CSV in collection order.
func (s *LedgerService) ExportPayments(w io.Writer) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	return ledger.ExportPaymentsCSV(w, snap.Payments)
}
