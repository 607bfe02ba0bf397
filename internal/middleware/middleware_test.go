package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/product-inventory/internal/config"
	"github.com/deppfellow/product-inventory/internal/envelope"
	"github.com/deppfellow/product-inventory/internal/errs"
	"github.com/deppfellow/product-inventory/internal/logger"
	"github.com/deppfellow/product-inventory/internal/server"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()

	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory
	log := zerolog.Nop()
	s := &server.Server{Config: cfg, Logger: &log, LoggerService: &logger.LoggerService{}}

	m := NewMiddlewares(s)
	require.NotNil(t, m.Tracing)

	e := echo.New()
	e.HTTPErrorHandler = m.Global.GlobalErrorHandler
	e.Use(
		RequestID(),
		m.Tracing.NewRelicMiddleware(),
		m.Tracing.EnhanceTracing(),
		m.ContextEnhancer.EnhanceContext(),
		m.Global.RequestLogger(),
		m.Global.Recover(),
	)
	return e
}

func assertEnvelopeHeaders(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, envelope.ContentTypeJSON, rec.Header().Get(envelope.HeaderContentType))
	assert.Equal(t, envelope.AllowAnyOrigin, rec.Header().Get(envelope.HeaderAllowOrigin))
}

func TestRequestID(t *testing.T) {
	e := newTestEcho(t)
	var seen string
	e.GET("/ping", func(c echo.Context) error {
		seen = GetRequestID(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
	assert.NotEqual(t, "req-123", seen)
}

func TestEnhanceContext_LoggerInRequestContext(t *testing.T) {
	e := newTestEcho(t)
	var fromEcho, fromCtx *zerolog.Logger
	e.GET("/ping", func(c echo.Context) error {
		fromEcho = GetLogger(c)
		fromCtx = zerolog.Ctx(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.NotNil(t, fromEcho)
	require.NotNil(t, fromCtx)
	assert.Equal(t, fromEcho.GetLevel(), fromCtx.GetLevel())
}

func TestGetLogger_WithoutEnhancer(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.NotNil(t, GetLogger(c))
	assert.Empty(t, GetRequestID(c))
}

func TestGlobalErrorHandler_Panic(t *testing.T) {
	e := newTestEcho(t)
	e.GET("/boom", func(c echo.Context) error {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assertEnvelopeHeaders(t, rec)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, rec.Body.String())
}

func TestGlobalErrorHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "http error",
			err:    errs.NewBadRequestError("productId is required", nil, nil),
			status: http.StatusBadRequest,
			body:   `{"message":"productId is required"}`,
		},
		{
			name:   "echo not found",
			err:    echo.ErrNotFound,
			status: http.StatusNotFound,
			body:   `"404 Not Found"`,
		},
		{
			name:   "echo method not allowed",
			err:    echo.ErrMethodNotAllowed,
			status: http.StatusNotFound,
			body:   `"404 Not Found"`,
		},
		{
			name:   "body too large",
			err:    echo.ErrStatusRequestEntityTooLarge,
			status: http.StatusRequestEntityTooLarge,
			body:   `{"message":"Request Entity Too Large"}`,
		},
		{
			name:   "unknown",
			err:    errors.New("disk on fire"),
			status: http.StatusInternalServerError,
			body:   `{"message":"Internal Server Error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(t)
			e.GET("/fail", func(c echo.Context) error { return tt.err })

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

			assert.Equal(t, tt.status, rec.Code)
			assertEnvelopeHeaders(t, rec)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestWriteEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, WriteEnvelope(c, envelope.Build(http.StatusOK, nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assertEnvelopeHeaders(t, rec)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	c = echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, WriteEnvelope(c, envelope.Build(http.StatusCreated, map[string]any{"ok": true})))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assertEnvelopeHeaders(t, rec)
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
}
