package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/diewo77/go-purchases/httpx"
	"github.com/diewo77/go-purchases/internal/models"
	"github.com/diewo77/go-purchases/internal/services"
)

type PhotoHandler struct {
	svc *services.LedgerService
	log zerolog.Logger
}

func NewPhotoHandler(svc *services.LedgerService, log zerolog.Logger) *PhotoHandler {
	return &PhotoHandler{svc: svc, log: log}
}

type galleryEntry struct {
	PurchaseID   string         `json:"purchase_id"`
	BillNumber   string         `json:"bill_number"`
	SupplierName string         `json:"supplier_name"`
	Photos       []models.Photo `json:"photos"`
}

// Gallery lists purchases that have photos, filtered by ?q=.
func (h *PhotoHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Gallery(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	out := make([]galleryEntry, 0, len(list))
	for _, p := range list {
		out = append(out, galleryEntry{
			PurchaseID:   p.ID,
			BillNumber:   p.BillNumber,
			SupplierName: p.SupplierName,
			Photos:       p.Photos,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"gallery": out})
}
