package auth

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/outreach/internal/apperror"
	"github.com/keyxmakerx/outreach/internal/session"
)

// maxAPIBody caps the demo echo endpoint's request body.
const maxAPIBody = 64 << 10

// APIHandler serves the local JSON endpoints.
type APIHandler struct {
	service AuthService
}

// NewAPIHandler creates the JSON handler.
func NewAPIHandler(service AuthService) *APIHandler {
	return &APIHandler{service: service}
}

type userResponse struct {
	Success  bool          `json:"success"`
	User     *session.User `json:"user"`
	HasToken bool          `json:"hasToken"`
	Message  string        `json:"message"`
}

type echoResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	ReceivedData any           `json:"receivedData"`
	User         *session.User `json:"user"`
}

// GetUser returns the session's user (GET /api/user).
func (h *APIHandler) GetUser(c echo.Context) error {
	sess := GetSession(c)
	if !h.service.IsAuthenticated(sess) {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error":   "Unauthorized",
			"message": "Please login to access this resource",
		})
	}

	data := sess.Values()
	return c.JSON(http.StatusOK, userResponse{
		Success:  true,
		User:     data.User,
		HasToken: data.AccessToken != "",
		Message:  "This is a protected API route",
	})
}

// PostUser echoes a JSON body back to a logged-in caller (POST /api/user).
func (h *APIHandler) PostUser(c echo.Context) error {
	sess := GetSession(c)
	if !h.service.IsAuthenticated(sess) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var payload any
	dec := json.NewDecoder(http.MaxBytesReader(c.Response(), c.Request().Body, maxAPIBody))
	if err := dec.Decode(&payload); err != nil {
		return apperror.NewBadRequest("request body must be valid JSON")
	}

	return c.JSON(http.StatusOK, echoResponse{
		Success:      true,
		Message:      "Data received (demo)",
		ReceivedData: payload,
		User:         sess.Values().User,
	})
}
