package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bazaar-next/internal/authz"
	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

func TestCORSPolicyAllowOrigin(t *testing.T) {
	open := newCORSPolicy(config.CORSConfig{AllowedOrigins: []string{"*"}})
	if got := open.allowOrigin("https://example.com"); got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	withCreds := newCORSPolicy(config.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true})
	if got := withCreds.allowOrigin("https://example.com"); got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	listed := newCORSPolicy(config.CORSConfig{AllowedOrigins: []string{"https://a.example.com", "https://B.example.com"}})
	if got := listed.allowOrigin("https://b.example.com"); got != "https://b.example.com" {
		t.Fatalf("allow-list should match case-insensitively, got %s", got)
	}
	if got := listed.allowOrigin("https://x.example.com"); got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
	if got := listed.allowOrigin(""); got != "" {
		t.Fatalf("missing origin should be empty, got %s", got)
	}
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"https://shop.example.com"}, MaxAge: 600}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight want 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://shop.example.com" {
		t.Fatalf("unexpected allow origin: %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if w.Header().Get("Access-Control-Max-Age") != "600" {
		t.Fatalf("unexpected max age: %q", w.Header().Get("Access-Control-Max-Age"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Fatalf("default methods should include PATCH: %q", w.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

type fakeAuthenticator struct {
	account service.Account
	err     error
	token   string
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (service.Account, error) {
	f.token = token
	return f.account, f.err
}

type fakeEnforcer struct {
	allowed map[string]bool
	err     error
}

func (f fakeEnforcer) EnforceRole(role, object, action string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[role+" "+action+" "+authz.NormalizeObject(object)], nil
}

func newAuthTestEngine(authenticator Authenticator, enforcer RoleEnforcer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(AuthMiddleware(authenticator), AuthzMiddleware(enforcer))
	api.GET("/admin/ping", func(c *gin.Context) {
		role, _ := c.Get("role")
		c.JSON(http.StatusOK, gin.H{"status_code": 200, "role": role})
	})
	return r
}

func serveStatusCode(t *testing.T, r *gin.Engine, authorization string) (int, int) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)

	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return w.Code, resp.StatusCode
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	r := newAuthTestEngine(&fakeAuthenticator{}, fakeEnforcer{})
	code, statusCode := serveStatusCode(t, r, "Token abc")
	if code != http.StatusUnauthorized || statusCode != 401 {
		t.Fatalf("malformed header want 401 got %d/%d", code, statusCode)
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	authenticator := &fakeAuthenticator{err: service.ErrTokenRevoked}
	r := newAuthTestEngine(authenticator, fakeEnforcer{})
	code, _ := serveStatusCode(t, r, "Bearer stale-token")
	if code != http.StatusUnauthorized {
		t.Fatalf("revoked token want 401 got %d", code)
	}
	if authenticator.token != "stale-token" {
		t.Fatalf("authenticator should receive bare token, got %q", authenticator.token)
	}
}

func TestAuthMiddlewareUnexpectedError(t *testing.T) {
	r := newAuthTestEngine(&fakeAuthenticator{err: errors.New("db down")}, fakeEnforcer{})
	code, _ := serveStatusCode(t, r, "Bearer token")
	if code != http.StatusInternalServerError {
		t.Fatalf("unexpected authenticate error want 500 got %d", code)
	}
}

func TestAuthzMiddlewareAnonymousDenied(t *testing.T) {
	r := newAuthTestEngine(nil, fakeEnforcer{})
	code, _ := serveStatusCode(t, r, "")
	if code != http.StatusUnauthorized {
		t.Fatalf("anonymous denied want 401 got %d", code)
	}
}

func TestAuthzMiddlewareAuthenticatedDenied(t *testing.T) {
	account := &service.CustomerAccount{User: &models.User{ID: 7, Role: constants.RoleCustomer}}
	r := newAuthTestEngine(&fakeAuthenticator{account: account}, fakeEnforcer{})
	code, _ := serveStatusCode(t, r, "Bearer token")
	if code != http.StatusForbidden {
		t.Fatalf("customer denied want 403 got %d", code)
	}
}

func TestAuthzMiddlewareAllowsRole(t *testing.T) {
	account := &service.AdminAccount{User: &models.User{ID: 1, Role: constants.RoleAdmin}}
	enforcer := fakeEnforcer{allowed: map[string]bool{"admin GET /admin/ping": true}}
	r := newAuthTestEngine(&fakeAuthenticator{account: account}, enforcer)
	code, statusCode := serveStatusCode(t, r, "Bearer token")
	if code != http.StatusOK || statusCode != 200 {
		t.Fatalf("admin allowed want 200 got %d/%d", code, statusCode)
	}
}

func TestAuthzMiddlewareEnforcerFailure(t *testing.T) {
	r := newAuthTestEngine(nil, fakeEnforcer{err: errors.New("adapter closed")})
	code, _ := serveStatusCode(t, r, "")
	if code != http.StatusInternalServerError {
		t.Fatalf("enforcer failure want 500 got %d", code)
	}

	r = newAuthTestEngine(nil, nil)
	code, _ = serveStatusCode(t, r, "")
	if code != http.StatusInternalServerError {
		t.Fatalf("missing enforcer want 500 got %d", code)
	}
}
