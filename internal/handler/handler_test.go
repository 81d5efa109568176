package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/service"
)

func TestWriteError_Mapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"validation", &service.ValidationError{Fields: map[string]string{"email": "cannot be blank"}}, http.StatusBadRequest,
			`{"error":"validation failed","fields":{"email":"cannot be blank"}}`},
		{"invalid role", fmt.Errorf("%w: %q", service.ErrInvalidRole, "root"), http.StatusBadRequest, `{"error":"invalid role: \"root\""}`},
		{"duplicate", &service.DuplicateValueError{Field: "username"}, http.StatusConflict, `{"error":"username already in use","field":"username"}`},
		{"not found", service.ErrMemberNotFound, http.StatusNotFound, `{"error":"member not found"}`},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, `{"error":"invalid credentials"}`},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized, `{"error":"unauthorized"}`},
		{"timeout", fmt.Errorf("store: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, `{"error":"timeout"}`},
		{"internal", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, `{"error":"internal error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, writeError(c, zap.NewNop(), tc.err))
			assert.Equal(t, tc.code, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestParseID(t *testing.T) {
	e := echo.New()
	for raw, want := range map[string]bool{"12": true, "0": false, "-1": false, "abc": false, "": false} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		_, ok := parseID(c)
		assert.Equal(t, want, ok, raw)
	}
}

func TestLogin_MissingFieldsIs400(t *testing.T) {
	// Validation runs before any store access, so no stores are needed.
	h := NewAuthHandler(service.NewAuthService(nil, nil, nil, nil, zap.NewNop()), nil, zap.NewNop())
	e := echo.New()
	e.POST("/v1/auth/login", h.Login)

	for _, body := range []string{`{}`, `{"identifier":"ada"}`, `{"password":"x"}`} {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"error":"invalid body"}`, rec.Body.String())
}

func TestMe_WithoutIdentity(t *testing.T) {
	h := NewAuthHandler(nil, nil, zap.NewNop())
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/me", nil), rec)

	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMember_BadID(t *testing.T) {
	h := NewMemberHandler(nil, zap.NewNop())
	e := echo.New()
	e.POST("/v1/members/:id/renew", h.Renew)

	req := httptest.NewRequest(http.MethodPost, "/v1/members/abc/renew", strings.NewReader(`{"months":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid id"}`, rec.Body.String())
}
