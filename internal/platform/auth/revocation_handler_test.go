package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newRevocationServer(t *testing.T) (*echo.Echo, *TokenRevocationStore) {
	t.Helper()
	store := NewTokenRevocationStore(time.Hour)
	t.Cleanup(store.Close)

	e := echo.New()
	g := e.Group("/api/v1")
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles := strings.Split(c.Request().Header.Get("X-Test-Roles"), ",")
			c.SetRequest(c.Request().WithContext(context.WithValue(c.Request().Context(), UserRolesKey, roles)))
			return next(c)
		}
	})
	RegisterRevocationRoutes(g, store)
	return e, store
}

func doRevocation(e *echo.Echo, method, path, body, roles string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Test-Roles", roles)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRevokeToken(t *testing.T) {
	e, store := newRevocationServer(t)

	rec := doRevocation(e, http.MethodPost, "/api/v1/auth/revoke",
		`{"jti":"token-xyz","expires_at":"2099-01-01T00:00:00Z"}`, RoleAdmin)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.IsRevoked("token-xyz", "", time.Now()) {
		t.Error("expected token-xyz to be revoked")
	}
}

func TestRevokeToken_MissingJTI(t *testing.T) {
	e, _ := newRevocationServer(t)
	rec := doRevocation(e, http.MethodPost, "/api/v1/auth/revoke", `{}`, RoleAdmin)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRevokeToken_DefaultExpiry(t *testing.T) {
	e, store := newRevocationServer(t)
	rec := doRevocation(e, http.MethodPost, "/api/v1/auth/revoke", `{"jti":"no-exp"}`, RoleAdmin)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	entries := store.Entries()
	if len(entries) != 1 || entries[0].ExpiresAt.Before(time.Now().Add(50*time.Minute)) {
		t.Errorf("expected expiry about one token lifetime ahead, got %+v", entries)
	}
}

func TestRevokeUser(t *testing.T) {
	e, store := newRevocationServer(t)
	issued := time.Now().Add(-time.Minute)

	rec := doRevocation(e, http.MethodPost, "/api/v1/auth/revoke-user", `{"user_id":"nurse-7"}`, RoleAdmin)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !store.IsRevoked("", "nurse-7", issued) {
		t.Error("expected earlier tokens of nurse-7 to be revoked")
	}

	rec = doRevocation(e, http.MethodPost, "/api/v1/auth/revoke-user", `{}`, RoleAdmin)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without user_id, got %d", rec.Code)
	}
}

func TestListRevocations(t *testing.T) {
	e, store := newRevocationServer(t)
	store.Revoke("a", "", time.Now().Add(time.Hour))
	store.RevokeUser("b", time.Now())

	rec := doRevocation(e, http.MethodGet, "/api/v1/auth/revocations", "", RoleAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp revocationListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || len(resp.Entries) != 2 {
		t.Errorf("expected 2 entries, got %+v", resp)
	}
}

func TestRevocationRoutes_RequireAdmin(t *testing.T) {
	e, _ := newRevocationServer(t)
	for _, roles := range []string{RoleDoctor, RoleNurse + "," + RoleRegistration, ""} {
		rec := doRevocation(e, http.MethodGet, "/api/v1/auth/revocations", "", roles)
		if rec.Code != http.StatusForbidden {
			t.Errorf("roles %q: expected 403, got %d", roles, rec.Code)
		}
	}
}
