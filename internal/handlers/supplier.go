package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/diewo77/go-purchases/httpx"
	"github.com/diewo77/go-purchases/internal/services"
	"github.com/diewo77/go-purchases/validation"
)

type SupplierHandler struct {
	svc *services.LedgerService
	log zerolog.Logger
}

func NewSupplierHandler(svc *services.LedgerService, log zerolog.Logger) *SupplierHandler {
	return &SupplierHandler{svc: svc, log: log}
}

func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Suppliers()
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"suppliers": list})
}

type supplierRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	v := make(validation.Violations)
	validation.Required("name", req.Name, v)
	validation.MaxLength("name", req.Name, 255, v)
	validation.MaxLength("address", req.Address, 500, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	sup, err := h.svc.SaveSupplier(r.Context(), services.SupplierInput{
		Name:    req.Name,
		Contact: req.Contact,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sup)
}

func (h *SupplierHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.SupplierStats(r.PathValue("id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
