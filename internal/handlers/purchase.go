package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/diewo77/go-purchases/httpx"
	"github.com/diewo77/go-purchases/internal/ledger"
	"github.com/diewo77/go-purchases/internal/models"
	"github.com/diewo77/go-purchases/internal/services"
	"github.com/diewo77/go-purchases/internal/storage"
	"github.com/diewo77/go-purchases/validation"
)

const (
	maxUploadBytes = 32 << 20
	photosField    = "photos"
)

type PurchaseHandler struct {
	svc *services.LedgerService
	log zerolog.Logger
}

func NewPurchaseHandler(svc *services.LedgerService, log zerolog.Logger) *PurchaseHandler {
	return &PurchaseHandler{svc: svc, log: log}
}

func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := ledger.ParseStatus(q.Get("status"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"status": "invalid"})
		return
	}
	list, sort, err := h.svc.Purchases(ledger.PurchaseFilter{
		Search:     q.Get("q"),
		Status:     status,
		SupplierID: q.Get("supplier"),
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchases": list, "sort": sort})
}

// purchaseRequest mirrors the purchase form. Amounts arrive as strings or
// JSON numbers.
type purchaseRequest struct {
	BillNumber    string      `json:"bill_number"`
	SupplierID    string      `json:"supplier_id"`
	Item          string      `json:"item"`
	PurchaseDate  string      `json:"purchase_date"`
	BillDate      string      `json:"bill_date"`
	BillAmount    json.Number `json:"bill_amount"`
	AmountPaid    json.Number `json:"amount_paid"`
	PaymentDate   string      `json:"payment_date"`
	PaymentMethod string      `json:"payment_method"`
}

// Create accepts JSON or a multipart form carrying bill photos.
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, files, err := h.decodePurchase(w, r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	today := h.svc.Today()
	v := make(validation.Violations)
	validation.Required("bill_number", req.BillNumber, v)
	validation.Required("supplier_id", req.SupplierID, v)
	validation.Required("bill_amount", req.BillAmount.String(), v)
	validation.MaxLength("bill_number", req.BillNumber, 100, v)
	validation.MaxLength("item", req.Item, 500, v)
	validation.MaxLength("payment_method", req.PaymentMethod, 50, v)
	in := services.PurchaseInput{
		BillNumber:    req.BillNumber,
		SupplierID:    req.SupplierID,
		Item:          req.Item,
		PurchaseDate:  validation.Date("purchase_date", req.PurchaseDate, today, v),
		BillDate:      validation.Date("bill_date", req.BillDate, today, v),
		BillAmount:    validation.Decimal("bill_amount", req.BillAmount.String(), v),
		AmountPaid:    validation.Decimal("amount_paid", req.AmountPaid.String(), v),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
	}
	if strings.TrimSpace(req.PaymentDate) != "" {
		d := validation.Date("payment_date", req.PaymentDate, today, v)
		in.PaymentDate = &d
	}
	validation.NonNegativeDecimal("bill_amount", in.BillAmount, v)
	validation.NonNegativeDecimal("amount_paid", in.AmountPaid, v)
	if _, ok := v["amount_paid"]; !ok && in.AmountPaid.GreaterThan(in.BillAmount) {
		v["amount_paid"] = "exceeds_bill_amount"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	p, err := h.svc.SavePurchase(r.Context(), in, files)
	if err != nil {
		var rf *models.RemoteFailure
		if errors.As(err, &rf) && p.ID != "" {
			// The purchase exists; a later step did not complete.
			h.log.Error().Err(rf.Err).Str("op", rf.Op).Str("purchase", p.ID).Msg("purchase saved partially")
			httpx.JSONError(w, http.StatusBadGateway, "remote_failure", map[string]any{"op": rf.Op, "purchase": p})
			return
		}
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *PurchaseHandler) decodePurchase(w http.ResponseWriter, r *http.Request) (purchaseRequest, []storage.File, error) {
	var req purchaseRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			return req, nil, err
		}
		return req, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return req, nil, fmt.Errorf("parse form: %w", err)
	}
	req = purchaseRequest{
		BillNumber:    r.FormValue("bill_number"),
		SupplierID:    r.FormValue("supplier_id"),
		Item:          r.FormValue("item"),
		PurchaseDate:  r.FormValue("purchase_date"),
		BillDate:      r.FormValue("bill_date"),
		BillAmount:    json.Number(strings.TrimSpace(r.FormValue("bill_amount"))),
		AmountPaid:    json.Number(strings.TrimSpace(r.FormValue("amount_paid"))),
		PaymentDate:   r.FormValue("payment_date"),
		PaymentMethod: r.FormValue("payment_method"),
	}

	var files []storage.File
	for _, fh := range r.MultipartForm.File[photosField] {
		f, err := fh.Open()
		if err != nil {
			return req, nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return req, nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		ct := fh.Header.Get("Content-Type")
		if ct == "" || ct == "application/octet-stream" {
			ct = http.DetectContentType(data)
		}
		files = append(files, storage.File{Name: fh.Filename, ContentType: ct, Data: data})
	}
	return req, files, nil
}

type sortRequest struct {
	Field string `json:"field"`
}

// Sort toggles the purchase list ordering.
func (h *PurchaseHandler) Sort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if !ledger.ValidPurchaseSortField(req.Field) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"field": "invalid"})
		return
	}
	state, err := h.svc.SortPurchases(req.Field)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}
