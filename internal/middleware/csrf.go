package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/outreach/internal/apperror"
)

// csrfTokenLength is the number of random bytes in a CSRF token.
const csrfTokenLength = 32

// CSRFCookieName is the cookie holding the double-submit token.
const CSRFCookieName = "outreach_csrf"

// CSRFHeaderName is the header HTMX sends the token in.
const CSRFHeaderName = "X-CSRF-Token"

// CSRFFormField is the hidden form field for plain form submissions.
const CSRFFormField = "csrf_token"

const csrfContextKey = "csrf_token"

// CSRF returns middleware that implements the double-submit cookie pattern
// on all state-changing requests. The token cookie is issued on first visit;
// mutating requests must echo it in X-CSRF-Token or the csrf_token field.
//
// Routes under /api/ are skipped. They are JSON-only (see RequireJSON), and
// a cross-site form cannot send application/json without a CORS preflight.
func CSRF(secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if strings.HasPrefix(req.URL.Path, "/api/") {
				return next(c)
			}

			cookieToken := ""
			if cookie, err := req.Cookie(CSRFCookieName); err == nil {
				cookieToken = cookie.Value
			}
			if cookieToken == "" {
				token, err := generateCSRFToken()
				if err != nil {
					return apperror.NewInternal(err)
				}
				c.SetCookie(&http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
				cookieToken = token
			}
			c.Set(csrfContextKey, cookieToken)

			if isSafeMethod(req.Method) {
				return next(c)
			}

			submitted := req.Header.Get(CSRFHeaderName)
			if submitted == "" {
				submitted = req.FormValue(CSRFFormField)
			}
			if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(cookieToken)) != 1 {
				return apperror.NewForbidden("Your form expired. Please reload the page and try again.")
			}

			return next(c)
		}
	}
}

// RequireJSON rejects request bodies that are not declared as JSON.
func RequireJSON() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			mediaType, _, err := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
			if err != nil || mediaType != echo.MIMEApplicationJSON {
				return apperror.NewUnsupportedMediaType("Request body must be application/json")
			}
			return next(c)
		}
	}
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetCSRFToken returns the token for the current request, for embedding in
// forms.
func GetCSRFToken(c echo.Context) string {
	token, _ := c.Get(csrfContextKey).(string)
	return token
}
