package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/outreach/internal/apperror"
)

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func run(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, echo.Context, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(okHandler)(c)
	return rec, c, err
}

func TestRequestID_GeneratesAndReuses(t *testing.T) {
	rec, c, err := run(RequestID(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	id := rec.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, GetRequestID(c))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-1")
	rec, _, err = run(RequestID(), req)
	require.NoError(t, err)
	assert.Equal(t, "upstream-1", rec.Header().Get(RequestIDHeader))
}

func TestRecovery_ConvertsPanic(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	err := Recovery()(func(echo.Context) error { panic("boom") })(c)

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperror.SafeCode(err))
}

func TestSecurityHeaders(t *testing.T) {
	rec, _, err := run(SecurityHeaders(false), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://unpkg.com")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec, _, _ = run(SecurityHeaders(true), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestCSRF_IssuesCookieOnGet(t *testing.T) {
	rec, c, err := run(CSRF(false), httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CSRFCookieName, cookies[0].Name)
	assert.Equal(t, cookies[0].Value, GetCSRFToken(c))
}

func TestCSRF_RejectsMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("password=x"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})

	_, _, err := run(CSRF(false), req)
	assert.Equal(t, http.StatusForbidden, apperror.SafeCode(err))
}

func TestCSRF_AcceptsFormFieldAndHeader(t *testing.T) {
	form := url.Values{CSRFFormField: {"abc"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
	_, _, err := run(CSRF(false), req)
	assert.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set(CSRFHeaderName, "abc")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
	_, _, err = run(CSRF(false), req)
	assert.NoError(t, err)
}

func TestCSRF_SkipsAPI(t *testing.T) {
	_, _, err := run(CSRF(false), httptest.NewRequest(http.MethodPost, "/api/user", nil))
	assert.NoError(t, err)
}

func TestRequireJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, "application/json; charset=utf-8")
	_, _, err := run(RequireJSON(), req)
	assert.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(`a=b`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	_, _, err = run(RequireJSON(), req)
	assert.Equal(t, http.StatusUnsupportedMediaType, apperror.SafeCode(err))
}

func TestCORS(t *testing.T) {
	mw := CORS(CORSConfig{AllowedOrigins: []string{"https://app.example.com/"}, AllowCredentials: true})

	req := httptest.NewRequest(http.MethodOptions, "/api/user", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec, _, err := run(mw, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec, _, err = run(mw, req)
	require.NoError(t, err)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestIPExtractor(t *testing.T) {
	extract := buildIPExtractor([]string{"10.0.0.0/8", "not-a-cidr"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.2.3")
	assert.Equal(t, "203.0.113.9", extract(req))

	req.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, "198.51.100.7", extract(req), "headers from untrusted peers are ignored")
}

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, retry, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	ok, _, _ = l.Allow(ctx, "b")
	assert.True(t, ok, "keys have separate budgets")

	now = now.Add(30 * time.Second)
	ok, _, _ = l.Allow(ctx, "a")
	assert.True(t, ok, "a token refills after window/limit")

	now = now.Add(5 * time.Minute)
	l.Sweep()
	assert.Empty(t, l.buckets)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	l := NewRedisLimiter(rdb, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "login:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, retry, err := l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.LessOrEqual(t, retry, time.Minute)
	assert.True(t, mr.TTL("ratelimit:login:1.2.3.4") > 0)

	mr.FastForward(time.Minute + time.Second)
	ok, _, err = l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (s stubLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return s.allowed, 1500 * time.Millisecond, s.err
}

func TestRateLimit_Middleware(t *testing.T) {
	rec, _, err := run(RateLimit(stubLimiter{allowed: false}, "login"), httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, apperror.SafeCode(err))
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	_, _, err = run(RateLimit(stubLimiter{err: errors.New("redis down")}, "login"), httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.NoError(t, err, "limiter failures fail open")
}
