// Package server assembles the HTTP routes of the ledger.
package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/diewo77/go-purchases/auth"
	"github.com/diewo77/go-purchases/httpx"
	"github.com/diewo77/go-purchases/internal/handlers"
	"github.com/diewo77/go-purchases/internal/identity"
	"github.com/diewo77/go-purchases/internal/logger"
	"github.com/diewo77/go-purchases/internal/services"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the configured endpoint handlers.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Dashboard *handlers.DashboardHandler
	Supplier  *handlers.SupplierHandler
	Purchase  *handlers.PurchaseHandler
	Payment   *handlers.PaymentHandler
	Photo     *handlers.PhotoHandler
}

func NewHandlers(svc *services.LedgerService, verifier identity.Verifier, log zerolog.Logger) *Handlers {
	return &Handlers{
		Auth:      handlers.NewAuthHandler(svc, verifier, log),
		Dashboard: handlers.NewDashboardHandler(svc, log),
		Supplier:  handlers.NewSupplierHandler(svc, log),
		Purchase:  handlers.NewPurchaseHandler(svc, log),
		Payment:   handlers.NewPaymentHandler(svc, log),
		Photo:     handlers.NewPhotoHandler(svc, log),
	}
}

// App is the root HTTP handler.
type App struct {
	mux     *http.ServeMux
	h       *Handlers
	db      Pinger
	log     zerolog.Logger
	handler http.Handler
}

// NewApp builds the router and makes session checks go through svc so that
// only the allowed principal reaches /api.
func NewApp(svc *services.LedgerService, verifier identity.Verifier, db Pinger, log zerolog.Logger) *App {
	auth.SetPrincipalVerifier(func(ctx context.Context, email string) bool {
		return svc.EnsureSession(ctx, email) == nil
	})
	app := &App{
		mux: http.NewServeMux(),
		h:   NewHandlers(svc, verifier, log),
		db:  db,
		log: log,
	}
	app.setupRoutes()
	app.handler = app.recoverer(logger.Middleware(log, auth.Middleware(app.mux)))
	return app
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.healthz)

	a.mux.HandleFunc("POST /auth/google", a.h.Auth.Login)
	a.mux.HandleFunc("POST /logout", a.h.Auth.Logout)

	a.api("GET /api/dashboard", a.h.Dashboard.Dashboard)
	a.api("GET /api/activity", a.h.Dashboard.Activity)

	a.api("GET /api/suppliers", a.h.Supplier.List)
	a.api("POST /api/suppliers", a.h.Supplier.Create)
	a.api("GET /api/suppliers/{id}/stats", a.h.Supplier.Stats)

	a.api("GET /api/purchases", a.h.Purchase.List)
	a.api("POST /api/purchases", a.h.Purchase.Create)
	a.api("POST /api/purchases/sort", a.h.Purchase.Sort)
	a.api("POST /api/purchases/{id}/payments", a.h.Payment.Create)

	a.api("GET /api/payments", a.h.Payment.List)
	a.api("POST /api/payments/sort", a.h.Payment.Sort)
	a.api("GET /api/payments/export", a.h.Payment.Export)

	a.api("GET /api/photos", a.h.Photo.Gallery)
}

// api registers a route that requires a signed-in principal.
func (a *App) api(pattern string, fn http.HandlerFunc) {
	a.mux.Handle(pattern, auth.RequireAuth(fn))
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := a.db.Ping(r.Context()); err != nil {
		a.log.Error().Err(err).Msg("database ping failed")
		httpx.JSONError(w, http.StatusServiceUnavailable, "database_unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}

func (a *App) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
