package scan

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

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newTestServer(t *testing.T, sc Scanner, user *session.User) *echo.Echo {
	t.Helper()
	svc := NewScanService(sc, &mockHistory{
		listFn: func(context.Context, string) ([]Summary, error) {
			return []Summary{{Location: "Tampa, FL", Profession: "Dentist", Processed: 4}}, nil
		},
	}, nil)
	h := NewHandler(svc, func(echo.Context) *session.User { return user })

	e := echo.New()
	RegisterRoutes(e, h, passThrough, allowAll{})
	return e
}

func postScan(e *echo.Echo, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/dashboard/scan", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestDashboard_RendersRecentScans(t *testing.T) {
	e := newTestServer(t, &mockScanner{}, &session.User{ID: "42", Name: "Ada"})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Welcome back, Ada!")
	assert.Contains(t, body, "Recent scans")
	assert.Contains(t, body, "Tampa, FL")
	assert.Contains(t, body, `<option value="Miami, FL">`)
}

func TestScan_HTMXReturnsPanel(t *testing.T) {
	n := json.Number("1234567890")
	e := newTestServer(t, &mockScanner{fullScanFn: func(_ context.Context, req backend.ScanRequest) (*backend.ScanResponse, error) {
		return &backend.ScanResponse{
			Location:   req.CityState,
			Profession: req.Profession,
			Processed:  1,
			Data: []backend.ScanRow{{
				FirstName: "Jane", LastName: "Doe", NPPESNumber: &n, Sex: backend.SexFemale,
			}},
			Failures: []backend.FailureRecord{{{Key: "url", Value: json.RawMessage(`"https://example.com"`)}}},
		}, nil
	}}, &session.User{ID: "42"})

	rec := postScan(e, url.Values{"profession": {"Cardiologist"}, "cityState": {"Miami, FL"}}, true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<div id="scan-panel">`))
	assert.Contains(t, body, "<td>Jane Doe</td>")
	assert.Contains(t, body, "<td>1234567890</td>")
	assert.Contains(t, body, "1 failures")
	assert.NotContains(t, body, "Recent scans")
}

func TestScan_ShowsValidationError(t *testing.T) {
	sc := &mockScanner{}
	e := newTestServer(t, sc, &session.User{ID: "42"})

	rec := postScan(e, url.Values{"profession": {"Cardiologist"}}, false)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Profession and City/State are required.")
	assert.Contains(t, rec.Body.String(), "<html")
	assert.Equal(t, 0, sc.calls)
}

func TestScan_RequiresUser(t *testing.T) {
	h := NewHandler(NewScanService(&mockScanner{}, nil, nil), func(echo.Context) *session.User { return nil })
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/dashboard", nil), httptest.NewRecorder())

	assert.Equal(t, http.StatusUnauthorized, apperror.SafeCode(h.Dashboard(c)))
}

func TestRecentJSON(t *testing.T) {
	e := newTestServer(t, &mockScanner{}, &session.User{ID: "42"})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scans/recent", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"location":"Tampa, FL"`)
}
