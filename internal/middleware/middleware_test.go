package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"workforce-service/internal/auth"
	"workforce-service/internal/models"
)

type stubValidator struct {
	id  auth.Identity
	err error
}

func (s stubValidator) ValidateToken(string) (auth.Identity, error) { return s.id, s.err }

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetInt(UserIDKey), "role": RoleFromContext(c)})
	}
	r.GET("/x", handler)
	r.POST("/x", handler)
	return r
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	r := newRouter(AuthMiddleware(stubValidator{}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	r := newRouter(AuthMiddleware(stubValidator{id: auth.Identity{UserID: 4, Role: models.RoleCEO}}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":4,"role":"ceo"}`, rec.Body.String())
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	r := newRouter(AuthMiddleware(stubValidator{err: auth.ErrInvalidToken}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	token, err = bearerToken("bearer  spaced ")
	require.NoError(t, err)
	assert.Equal(t, "spaced", token)

	for _, header := range []string{"Basic abc", "Bearer", "Bearer   ", "abc"} {
		_, err := bearerToken(header)
		assert.ErrorIs(t, err, errBadHeader, header)
	}
}

func TestCSRFAllowsSafeMethods(t *testing.T) {
	r := newRouter(CSRF())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFRejectsMismatch(t *testing.T) {
	r := newRouter(CSRF())
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: "a"})
	req.Header.Set(CSRFHeader, "b")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFAcceptsMatch(t *testing.T) {
	r := newRouter(CSRF())
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: "tok"})
	req.Header.Set(CSRFHeader, "tok")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	r := newRouter(func(c *gin.Context) { c.Set(UserIDKey, 9); c.Next() }, limiter.Limit())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRequireElevated(t *testing.T) {
	r := newRouter(func(c *gin.Context) { c.Set(RoleKey, models.RoleEmployee); c.Next() }, RequireElevated())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestLoggerIncludesTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	r := newRouter(RequestID(), RequestLogger(logger))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request", line["msg"])
	assert.Equal(t, "/x", line["url"])
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, traceID.String(), line["trace_id"])
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}
