// Package handlers exposes the ledger over JSON HTTP endpoints.
package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/diewo77/go-purchases/httpx"
	"github.com/diewo77/go-purchases/internal/models"
)

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var rf *models.RemoteFailure
	switch {
	case errors.As(err, &rf):
		log.Error().Err(rf.Err).Str("op", rf.Op).Msg("remote failure")
		httpx.JSONError(w, http.StatusBadGateway, "remote_failure", map[string]string{"op": rf.Op})
	case errors.Is(err, models.ErrUnauthorized):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, models.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, models.ErrInvalidAmount):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_amount", nil)
	default:
		log.Error().Err(err).Msg("request failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
