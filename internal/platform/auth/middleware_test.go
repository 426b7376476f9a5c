package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func runJWT(t *testing.T, cfg JWTConfig, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen echo.Context
	handler := func(c echo.Context) error {
		seen = c
		return c.String(http.StatusOK, "ok")
	}
	err := JWTMiddleware(cfg)(handler)(c)
	return seen, err
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, "")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, tt.header)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "nurse-7",
			Issuer:    "mcu-login",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:  "Siti",
		Roles: []string{RoleNurse},
	}
	token := createTestToken(t, claims, testSigningKey)

	c, err := runJWT(t, JWTConfig{SigningKey: testSigningKey, Issuer: "mcu-login"}, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := c.Request().Context()
	if got := UserIDFromContext(ctx); got != "nurse-7" {
		t.Errorf("expected user id nurse-7, got %q", got)
	}
	if got := UserNameFromContext(ctx); got != "Siti" {
		t.Errorf("expected name Siti, got %q", got)
	}
	if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != RoleNurse {
		t.Errorf("unexpected roles: %v", roles)
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	token := createTestToken(t, Claims{Roles: []string{RoleDoctor}}, []byte("another-key"))
	_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, "Bearer "+token)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_Expired(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token := createTestToken(t, claims, testSigningKey)
	_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, "Bearer "+token)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_WrongIssuer(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"}}
	token := createTestToken(t, claims, testSigningKey)
	_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey, Issuer: "mcu-login"}, "Bearer "+token)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestDevAuthMiddleware(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	handler := func(c echo.Context) error {
		roles := RolesFromContext(c.Request().Context())
		if len(roles) != 1 || roles[0] != RoleAdmin {
			t.Errorf("expected admin role, got %v", roles)
		}
		return nil
	}
	if err := DevAuthMiddleware()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJWTMiddleware_RevokedToken(t *testing.T) {
	store := NewTokenRevocationStore(time.Hour)
	defer store.Close()

	issued := time.Now().Add(-time.Minute)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-9",
			Subject:   "doctor-3",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{RoleDoctor},
	}
	token := createTestToken(t, claims, testSigningKey)
	cfg := JWTConfig{SigningKey: testSigningKey, Revocations: store}

	if _, err := runJWT(t, cfg, "Bearer "+token); err != nil {
		t.Fatalf("expected token to be accepted before revocation: %v", err)
	}

	store.Revoke("jti-9", "doctor-3", time.Now().Add(time.Hour))
	_, err := runJWT(t, cfg, "Bearer "+token)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_RevokedUser(t *testing.T) {
	store := NewTokenRevocationStore(time.Hour)
	defer store.Close()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "nurse-7",
			IssuedAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := createTestToken(t, claims, testSigningKey)
	store.RevokeUser("nurse-7", time.Now())

	_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey, Revocations: store}, "Bearer "+token)
	expectStatus(t, err, http.StatusUnauthorized)
}
