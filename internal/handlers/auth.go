package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/diewo77/go-purchases/auth"
	"github.com/diewo77/go-purchases/httpx"
	"github.com/diewo77/go-purchases/internal/identity"
	"github.com/diewo77/go-purchases/internal/services"
)

type AuthHandler struct {
	svc      *services.LedgerService
	verifier identity.Verifier
	log      zerolog.Logger
}

func NewAuthHandler(svc *services.LedgerService, verifier identity.Verifier, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, verifier: verifier, log: log}
}

type loginRequest struct {
	IDToken string `json:"id_token"`
}

// Login exchanges an identity token for a session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"id_token": "required"})
		return
	}
	email, err := h.verifier.Verify(r.Context(), req.IDToken)
	if err != nil {
		h.log.Warn().Err(err).Msg("identity token rejected")
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_token", nil)
		return
	}
	if err := h.svc.EnsureSession(r.Context(), email); err != nil {
		h.log.Warn().Str("email", email).Msg("sign-in refused")
		writeError(w, h.log, err)
		return
	}
	auth.CreateSession(w, email)
	httpx.JSON(w, http.StatusOK, map[string]string{"email": email})
}

// Logout clears the session cookie. Only the allowed principal also drops
// the in-memory ledger.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	if email, ok := auth.PrincipalFromContext(r.Context()); ok && h.svc.Authorize(email) == nil {
		h.svc.SignOut()
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}
