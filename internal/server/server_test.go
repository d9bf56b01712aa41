package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/go-purchases/auth"
	"github.com/diewo77/go-purchases/internal/identity"
	"github.com/diewo77/go-purchases/internal/models"
	"github.com/diewo77/go-purchases/internal/notify"
	"github.com/diewo77/go-purchases/internal/services"
	"github.com/diewo77/go-purchases/internal/store"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestApp(t *testing.T, db Pinger) *App {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Supplier{}, &models.Purchase{}, &models.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := store.New(gdb)
	if db == nil {
		db = st
	}
	svc := services.NewLedgerService(st, notify.NewLocal(), nil, services.Options{
		AllowedEmail: "owner@example.com",
		Logger:       zerolog.Nop(),
	})
	t.Cleanup(func() { auth.SetPrincipalVerifier(nil) })
	return NewApp(svc, identity.Static{}, db, zerolog.Nop())
}

func sessionCookie(email string) *http.Cookie {
	w := httptest.NewRecorder()
	auth.CreateSession(w, email)
	return w.Result().Cookies()[0]
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, nil)
	for _, path := range []string{"/health", "/healthz"} {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, w.Code)
		}
	}
}

func TestHealthzReportsDatabaseDown(t *testing.T) {
	app := newTestApp(t, pingerFunc(func(ctx context.Context) error { return errors.New("refused") }))
	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", w.Code)
	}
}

func TestAPIRequiresAllowedPrincipal(t *testing.T) {
	app := newTestApp(t, nil)

	cases := []struct {
		name   string
		cookie *http.Cookie
		status int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"other account", sessionCookie("intruder@example.com"), http.StatusUnauthorized},
		{"tampered", &http.Cookie{Name: "session", Value: "b3duZXI.1.sig"}, http.StatusUnauthorized},
		{"owner", sessionCookie("owner@example.com"), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			w := httptest.NewRecorder()
			app.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d got %d body=%s", tc.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestLoginThenCreateSupplier(t *testing.T) {
	app := newTestApp(t, nil)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/google", strings.NewReader(`{"id_token":"dev:owner@example.com"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("login did not set a session cookie")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/suppliers", strings.NewReader(`{"name":"Acme Traders"}`))
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	app.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/suppliers", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	app.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), "Acme Traders") {
		t.Fatalf("supplier missing from list: %s", w.Body.String())
	}
}

func TestPhotoUploadWithoutStorageIsRemoteFailure(t *testing.T) {
	app := newTestApp(t, nil)
	cookie := sessionCookie("owner@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/suppliers", strings.NewReader(`{"name":"Acme"}`))
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	id := between(w.Body.String(), `"id":"`, `"`)

	body := "--x\r\nContent-Disposition: form-data; name=\"bill_number\"\r\n\r\nB1\r\n" +
		"--x\r\nContent-Disposition: form-data; name=\"supplier_id\"\r\n\r\n" + id + "\r\n" +
		"--x\r\nContent-Disposition: form-data; name=\"bill_amount\"\r\n\r\n10\r\n" +
		"--x\r\nContent-Disposition: form-data; name=\"photos\"; filename=\"a.jpg\"\r\nContent-Type: image/jpeg\r\n\r\nabc\r\n" +
		"--x--\r\n"
	req = httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	app.ServeHTTP(w, req)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "upload photo") {
		t.Fatalf("expected failing step in body=%s", w.Body.String())
	}
}

func between(s, start, end string) string {
	_, rest, ok := strings.Cut(s, start)
	if !ok {
		return ""
	}
	v, _, _ := strings.Cut(rest, end)
	return v
}
