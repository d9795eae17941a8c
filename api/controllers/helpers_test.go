package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/api/middleware"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withURLParams(req *http.Request, kv ...string) *http.Request {
	rc := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rc.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func asUser(req *http.Request, id uuid.UUID, role string) *http.Request {
	ctx := middleware.WithUserID(req.Context(), id.String())
	ctx = middleware.WithRole(ctx, role)
	return req.WithContext(ctx)
}

func asGuest(req *http.Request, guestID string) *http.Request {
	return req.WithContext(middleware.WithGuestID(req.Context(), guestID))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v (%s)", err, rec.Body.String())
	}
	return payload.Error.Code
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("deliveryDate", "2026-12-24")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if got == nil || !got.Equal(time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", got)
	}

	if got, err := parseDate("deliveryDate", "  "); err != nil || got != nil {
		t.Fatalf("expected empty date to be nil, got %v %v", got, err)
	}
	if _, err := parseDate("deliveryDate", "24/12/2026"); err == nil {
		t.Fatalf("expected invalid date error")
	}
}

func TestSinceFromQuery(t *testing.T) {
	now := time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/?range=today", nil)
	since, err := sinceFromQuery(req, now)
	if err != nil || since == nil || !since.Equal(time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected today bound %v %v", since, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if since, err := sinceFromQuery(req, now); err != nil || since != nil {
		t.Fatalf("expected no bound, got %v %v", since, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/?range=decade", nil)
	if _, err := sinceFromQuery(req, now); err == nil {
		t.Fatalf("expected invalid range error")
	}
}

func TestCartIdentityPrefersUser(t *testing.T) {
	userID := uuid.New()
	req := asGuest(httptest.NewRequest(http.MethodGet, "/", nil), "guest-1")
	req = asUser(req, userID, "customer")

	id, err := cartIdentity(req)
	if err != nil {
		t.Fatalf("cart identity: %v", err)
	}
	if !id.SignedIn() || id.UserID != userID {
		t.Fatalf("expected user identity, got %+v", id)
	}

	if _, err := cartIdentity(httptest.NewRequest(http.MethodGet, "/", nil)); err == nil {
		t.Fatalf("expected error without user or guest")
	}
}
