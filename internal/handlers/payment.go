package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/diewo77/go-purchases/httpx"
	"github.com/diewo77/go-purchases/internal/ledger"
	"github.com/diewo77/go-purchases/internal/models"
	"github.com/diewo77/go-purchases/internal/services"
	"github.com/diewo77/go-purchases/validation"
)

type PaymentHandler struct {
	svc *services.LedgerService
	log zerolog.Logger
}

func NewPaymentHandler(svc *services.LedgerService, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

type paymentRequest struct {
	Amount json.Number `json:"amount"`
	Date   string      `json:"date"`
	Method string      `json:"method"`
}

// Create records a payment against the purchase in the path.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	v := make(validation.Violations)
	validation.Required("amount", req.Amount.String(), v)
	in := services.PaymentInput{
		Amount: validation.Decimal("amount", req.Amount.String(), v),
		Method: strings.TrimSpace(req.Method),
	}
	if strings.TrimSpace(req.Date) != "" {
		d := validation.Date("date", req.Date, models.Date{}, v)
		in.Date = &d
	}
	if _, bad := v["amount"]; !bad {
		validation.PositiveDecimal("amount", in.Amount, v)
	}
	validation.MaxLength("method", in.Method, 50, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	pay, err := h.svc.SavePayment(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, pay)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := paymentFilter(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Payments(f)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": list})
}

func paymentFilter(w http.ResponseWriter, r *http.Request) (ledger.PaymentFilter, bool) {
	q := r.URL.Query()
	f := ledger.PaymentFilter{Search: q.Get("q")}
	v := make(validation.Violations)
	if s := q.Get("from"); s != "" {
		d := validation.Date("from", s, models.Date{}, v)
		f.From = &d
	}
	if s := q.Get("to"); s != "" {
		d := validation.Date("to", s, models.Date{}, v)
		f.To = &d
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return f, false
	}
	return f, true
}

// Sort toggles the payment sort selection.
func (h *PaymentHandler) Sort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.Field) == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"field": "required"})
		return
	}
	state, err := h.svc.SortPayments(req.Field)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

// Export downloads the whole payment history as CSV.
func (h *PaymentHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.ExportPayments(&buf); err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.Attachment(w, ledger.ExportFileName, "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
