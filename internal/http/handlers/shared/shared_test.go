package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	StatusCode int                    `json:"status_code"`
	Msg        string                 `json:"msg"`
	Data       map[string]interface{} `json:"data"`
}

func newContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRespondErrorMapsRootErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{service.ErrProductNotFound, http.StatusNotFound, "not found: product"},
		{service.ErrInvalidRate, http.StatusBadRequest, "validation failed: rate must be between 1 and 5"},
		{service.ErrEmailExists, http.StatusConflict, "conflict: email already registered"},
		{service.ErrPermissionDenied, http.StatusForbidden, "permission denied"},
		{service.ErrAccountDisabled, http.StatusUnauthorized, "invalid credentials: account disabled"},
		{service.ErrTokenRevoked, http.StatusUnauthorized, "invalid token: token revoked"},
		{service.ErrInvalidPassword, http.StatusUnauthorized, "invalid credentials: old password mismatch"},
		{service.ErrSignatureInvalid, http.StatusBadRequest, "invalid webhook signature"},
		{fmt.Errorf("%w: dial tcp 10.0.0.1:443", service.ErrPaymentGateway), http.StatusInternalServerError, "payment gateway unavailable"},
		{errors.New("sql: database is closed"), http.StatusInternalServerError, internalErrorMessage},
	}
	for _, tc := range cases {
		c, w := newContext(http.MethodGet, "/", "")
		RespondError(c, tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		env := decode(t, w)
		assert.Equal(t, tc.code, env.StatusCode)
		assert.Equal(t, tc.msg, env.Msg)
	}
}

func TestBindJSONRendersFieldErrors(t *testing.T) {
	RegisterValidatorTagNames()
	type request struct {
		Email    string `json:"email" binding:"required,email"`
		Quantity int    `json:"quantity" binding:"omitempty,min=1,max=99"`
	}

	c, w := newContext(http.MethodPost, "/", `{"email":"nope","quantity":120}`)
	var req request
	require.False(t, BindJSON(c, &req))
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decode(t, w)
	assert.Equal(t, "validation failed", env.Msg)
	raw, ok := env.Data["errors"].([]interface{})
	require.True(t, ok)
	fields := map[string]string{}
	for _, item := range raw {
		entry := item.(map[string]interface{})
		fields[entry["field"].(string)] = entry["message"].(string)
	}
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Equal(t, "must be at most 99", fields["quantity"])
}

func TestBindJSONMalformedBody(t *testing.T) {
	c, w := newContext(http.MethodPost, "/", `{"email":`)
	var req struct {
		Email string `json:"email"`
	}
	require.False(t, BindJSON(c, &req))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", decode(t, w).Msg)
}

func TestParsePagination(t *testing.T) {
	cfg := &config.PaginationConfig{DefaultPageSize: 10, MaxPageSize: 50}

	c, _ := newContext(http.MethodGet, "/?page=abc&page_size=-1", "")
	page, size := ParsePagination(c, cfg)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)

	c, _ = newContext(http.MethodGet, "/?page=3&page_size=500", "")
	page, size = ParsePagination(c, cfg)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)

	page, size = NormalizePagination(nil, 0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, fallbackPageSize, size)
}

func TestParseUintParam(t *testing.T) {
	c, w := newContext(http.MethodGet, "/", "")
	c.Params = gin.Params{{Key: "id", Value: "0"}}
	_, ok := ParseUintParam(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, _ = newContext(http.MethodGet, "/", "")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := ParseUintParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}

func TestRequireAccount(t *testing.T) {
	c, w := newContext(http.MethodGet, "/", "")
	_, ok := RequireAccount(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "product_id", toSnakeCase("ProductID"))
	assert.Equal(t, "second_name", toSnakeCase("SecondName"))
	assert.Equal(t, "email", toSnakeCase("email"))
}
