package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/outreach/internal/apperror"
	"github.com/keyxmakerx/outreach/internal/backend"
	"github.com/keyxmakerx/outreach/internal/session"
)

type allowAll struct{}

func (allowAll) Allow(context.Context, string) (bool, time.Duration, error) {
	return true, 0, nil
}

type testApp struct {
	e     *echo.Echo
	store *session.Store
	svc   AuthService
}

func newTestApp(t *testing.T, mb *mockBackend) *testApp {
	t.Helper()
	store := newTestStore(t)
	svc := NewAuthService(mb, nil)

	e := echo.New()
	e.Use(Sessions(store))
	RegisterRoutes(e, NewHandler(svc), NewAPIHandler(svc), Limiters{LogIn: allowAll{}, Register: allowAll{}})
	return &testApp{e: e, store: store, svc: svc}
}

// withSession adds a sealed session cookie for data to req.
func (a *testApp) withSession(t *testing.T, req *http.Request, data *session.Data) *http.Request {
	t.Helper()
	cookie, err := a.store.Cookie(data, 0)
	require.NoError(t, err)
	req.AddCookie(cookie)
	return req
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func withUser() *session.Data {
	d := loggedInData()
	d.User = &session.User{ID: "42", Name: "Ada", Email: "ada@example.com", Username: "ada"}
	return d
}

func TestRequireAuth_RedirectsBrowser(t *testing.T) {
	app := newTestApp(t, &mockBackend{})

	rec := app.serve(httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireAuth_HTMXGetsHeader(t *testing.T) {
	app := newTestApp(t, &mockBackend{})

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	req.Header.Set("HX-Request", "true")
	rec := app.serve(req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
}

func TestRequireAuth_HydratesMissingUser(t *testing.T) {
	mb := &mockBackend{}
	app := newTestApp(t, mb)

	req := app.withSession(t, httptest.NewRequest(http.MethodGet, "/profile", nil), loggedInData())
	rec := app.serve(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ada@example.com")
	assert.Equal(t, 1, mb.calls)
}

func TestRequireAuth_ExpiredTokenLogsOut(t *testing.T) {
	app := newTestApp(t, &mockBackend{
		profileFn: func(context.Context, string) (*backend.Profile, error) {
			return nil, &backend.StatusError{Code: http.StatusUnauthorized}
		},
	})

	req := app.withSession(t, httptest.NewRequest(http.MethodGet, "/profile", nil), loggedInData())
	rec := app.serve(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, readBack(t, app.store, rec).IsLoggedIn)
}

func TestGuestPages_RedirectLoggedInUsers(t *testing.T) {
	app := newTestApp(t, &mockBackend{})

	for _, path := range []string{"/login", "/register"} {
		rec := app.serve(app.withSession(t, httptest.NewRequest(http.MethodGet, path, nil), withUser()))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"), path)
	}

	rec := app.serve(httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestLoginHandler_HTMXSuccess(t *testing.T) {
	app := newTestApp(t, &mockBackend{})

	form := url.Values{"username": {"ada"}, "password": {"pw"}, "rememberMe": {"on"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("HX-Request", "true")
	rec := app.serve(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Login successful")
	assert.Contains(t, body, `hx-trigger="load delay:2s"`)
	assert.NotContains(t, body, "<html")
	assert.Equal(t, 604800, sessionCookie(t, rec).MaxAge)
}

func TestLoginHandler_ShowsErrors(t *testing.T) {
	app := newTestApp(t, &mockBackend{
		logInFn: func(context.Context, backend.LogInRequest) (*backend.TokenResponse, error) {
			return nil, &backend.StatusError{Code: http.StatusNotFound}
		},
	})

	form := url.Values{"username": {"ada"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := app.serve(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
	assert.Contains(t, rec.Body.String(), "<html")
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogoutHandler(t *testing.T) {
	app := newTestApp(t, &mockBackend{})

	req := app.withSession(t, httptest.NewRequest(http.MethodPost, "/logout", nil), withUser())
	rec := app.serve(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.False(t, readBack(t, app.store, rec).IsLoggedIn)
}

func TestAPIUser_Get(t *testing.T) {
	app := newTestApp(t, &mockBackend{})

	rec := app.serve(httptest.NewRequest(http.MethodGet, "/api/user", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized","message":"Please login to access this resource"}`, rec.Body.String())

	rec = app.serve(app.withSession(t, httptest.NewRequest(http.MethodGet, "/api/user", nil), withUser()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"success": true,
		"user": {"id":"42","name":"Ada","email":"ada@example.com","username":"ada"},
		"hasToken": true,
		"message": "This is a protected API route"
	}`, rec.Body.String())
}

func TestAPIUser_PostEchoes(t *testing.T) {
	app := newTestApp(t, &mockBackend{})

	req := httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(`{"ping":"pong","n":[1,2]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := app.serve(app.withSession(t, req, withUser()))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Data received (demo)", body["message"])
	assert.Equal(t, map[string]any{"ping": "pong", "n": []any{1.0, 2.0}}, body["receivedData"])

	req = httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = app.serve(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestAPIUser_PostRejectsBadJSON(t *testing.T) {
	store := newTestStore(t)
	h := NewAPIHandler(NewAuthService(&mockBackend{}, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(`{not json`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set(contextKeySession, session.NewHandle(store, rec, withUser()))

	err := h.PostUser(c)
	assert.Equal(t, http.StatusBadRequest, apperror.SafeCode(err))
}

func TestLanding_HydratesAndShowsUser(t *testing.T) {
	mb := &mockBackend{}
	app := newTestApp(t, mb)

	rec := app.serve(app.withSession(t, httptest.NewRequest(http.MethodGet, "/", nil), loggedInData()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Signed in as <strong>Ada</strong>")
	assert.Equal(t, 1, mb.calls)

	rec = app.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), "create an account")
}

func TestCheckAuth(t *testing.T) {
	store := newTestStore(t)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	assert.Equal(t, AuthStatus{}, CheckAuth(c))

	c.Set(contextKeySession, session.NewHandle(store, rec, withUser()))
	status := CheckAuth(c)
	assert.True(t, status.IsAuthenticated)
	assert.True(t, status.HasToken)
	assert.Equal(t, "42", GetUserID(c))
	assert.Equal(t, "tok-1", AccessToken(c))
}
