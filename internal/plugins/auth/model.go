// Package auth handles sign-up, log-in and log-out for Outreach. It does not
// own any credentials: forms are validated here, forwarded to the backend
// auth service, and the bearer token it returns is kept in the sealed
// session cookie together with a cached copy of the user's profile.
//
// This is a CORE plugin -- always enabled.
package auth

import (
	"strings"

	"github.com/keyxmakerx/outreach/internal/session"
)

// FormErrorKey collects errors that belong to the whole submission rather
// than a single field, such as an unreachable backend.
const FormErrorKey = "_form"

// User-facing messages returned by the actions.
const (
	msgRegistrationSuccess = "Registration successful"
	msgLoginSuccess        = "Login successful"
	msgLoggedOut           = "Logged out"
	msgRegistrationFailed  = "Registration failed"
	msgLoginFailed         = "Login failed"
	msgInvalidCredentials  = "Invalid credentials"
	msgUnexpected          = "Unexpected error"
)

// FieldErrors maps a field name to its error messages, in the order the
// checks ran.
type FieldErrors map[string][]string

// Add appends msg to field.
func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the messages for field.
func (e FieldErrors) Get(field string) []string {
	return e[field]
}

// --- Request DTOs (bound from HTTP requests) ---

// SignUpRequest holds the raw registration form.
type SignUpRequest struct {
	Username        string `form:"username"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirmPassword"`
	RememberMe      string `form:"rememberMe"`
}

// LogInRequest holds the raw log-in form.
type LogInRequest struct {
	Username   string `form:"username"`
	Password   string `form:"password"`
	RememberMe string `form:"rememberMe"`
}

// checkboxChecked interprets an HTML checkbox value.
func checkboxChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// --- Service Input DTOs (validated, passed to the backend) ---

// SignUpInput is a validated, normalized registration.
type SignUpInput struct {
	Username   string
	Email      string
	Password   string
	RememberMe bool
}

// LogInInput is a validated, normalized log-in.
type LogInInput struct {
	Username   string
	Password   string
	RememberMe bool
}

// --- Action results ---

// HydrationOutcome reports how the best-effort profile fetch after a
// successful log-in or sign-up went. It never changes the action's result;
// it is exposed so callers and tests can see a failed hydration.
type HydrationOutcome struct {
	User *session.User
	Err  error
}

// OK reports whether the profile was fetched and cached.
func (h *HydrationOutcome) OK() bool {
	return h != nil && h.Err == nil && h.User != nil
}

// FormState is what an auth action hands back to the page. Exactly one of
// Errors or Message is set.
type FormState struct {
	Errors         FieldErrors
	Message        string
	ShouldRedirect bool

	// Hydration is nil unless authentication succeeded.
	Hydration *HydrationOutcome
}

// Failed reports whether the action produced errors.
func (s FormState) Failed() bool {
	return len(s.Errors) > 0
}

func formError(msg string) FormState {
	return FormState{Errors: FieldErrors{FormErrorKey: {msg}}}
}

// AuthStatus is the optional-auth view of a request for pages that render
// differently for visitors and logged-in users.
type AuthStatus struct {
	IsAuthenticated bool          `json:"isAuthenticated"`
	User            *session.User `json:"user"`
	HasToken        bool          `json:"hasToken"`
}
