package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/diewo77/go-purchases/httpx"
	"github.com/diewo77/go-purchases/internal/services"
)

type DashboardHandler struct {
	svc *services.LedgerService
	log zerolog.Logger
}

func NewDashboardHandler(svc *services.LedgerService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, log: log}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboard()
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	feed, err := h.svc.Activity()
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"activity": feed})
}
