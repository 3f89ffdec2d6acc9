package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/keyxmakerx/outreach/internal/backend"
	"github.com/keyxmakerx/outreach/internal/plugins/audit"
	"github.com/keyxmakerx/outreach/internal/session"
)

// Backend is the slice of the backend client the auth plugin needs.
type Backend interface {
	SignUp(ctx context.Context, req backend.SignUpRequest) (*backend.TokenResponse, error)
	LogIn(ctx context.Context, req backend.LogInRequest) (*backend.TokenResponse, error)
	Profile(ctx context.Context, token string) (*backend.Profile, error)
}

// ActivityRecorder receives fire-and-forget activity entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry audit.AuditEntry)
}

// AuthService runs the auth actions and the profile cache. Every action
// reports failures in its FormState; none of them return Go errors.
type AuthService interface {
	// SignUp validates the form, registers with the backend, stores the
	// token and hydrates the profile.
	SignUp(ctx context.Context, sess *session.Handle, req SignUpRequest, ip string) FormState

	// LogIn validates the form, authenticates with the backend, stores the
	// token and hydrates the profile.
	LogIn(ctx context.Context, sess *session.Handle, req LogInRequest, ip string) FormState

	// LogOut destroys the session.
	LogOut(ctx context.Context, sess *session.Handle, ip string) FormState

	// FetchAndUpdate loads the profile for the stored token and caches it in
	// the session. A 401 from the backend clears the session.
	FetchAndUpdate(ctx context.Context, sess *session.Handle) (*session.User, error)

	// CurrentUser returns the cached user, fetching it once if missing.
	CurrentUser(ctx context.Context, sess *session.Handle) *session.User

	// IsAuthenticated reads the logged-in flag. No network call.
	IsAuthenticated(sess *session.Handle) bool
}

// authService implements AuthService.
type authService struct {
	backend  Backend
	activity ActivityRecorder
}

// NewAuthService creates a new auth service. A nil recorder records nothing.
func NewAuthService(b Backend, activity ActivityRecorder) AuthService {
	if activity == nil {
		activity = audit.NewNopService()
	}
	return &authService{backend: b, activity: activity}
}

// SignUp registers a new account.
func (s *authService) SignUp(ctx context.Context, sess *session.Handle, req SignUpRequest, ip string) (state FormState) {
	input, errs := ValidateSignUp(req)
	if errs != nil {
		return FormState{Errors: errs}
	}

	defer recoverAction("signup", &state)

	resp, err := s.backend.SignUp(ctx, backend.SignUpRequest{
		Username:   input.Username,
		Email:      input.Email,
		Password:   input.Password,
		RememberMe: input.RememberMe,
	})
	if err != nil {
		return authFailure("signup", err, msgRegistrationFailed, msgRegistrationFailed)
	}

	return s.completeLogin(ctx, sess, resp.AccessToken, input.RememberMe, ip,
		audit.ActionSignUp, msgRegistrationSuccess)
}

// LogIn authenticates an existing account.
func (s *authService) LogIn(ctx context.Context, sess *session.Handle, req LogInRequest, ip string) (state FormState) {
	input, errs := ValidateLogIn(req)
	if errs != nil {
		return FormState{Errors: errs}
	}

	defer recoverAction("login", &state)

	resp, err := s.backend.LogIn(ctx, backend.LogInRequest{
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		return authFailure("login", err, msgInvalidCredentials, msgLoginFailed)
	}

	return s.completeLogin(ctx, sess, resp.AccessToken, input.RememberMe, ip,
		audit.ActionLogIn, msgLoginSuccess)
}

// completeLogin persists the token and hydrates the profile. Hydration is
// best-effort: its outcome is reported but never fails the action.
func (s *authService) completeLogin(ctx context.Context, sess *session.Handle, token string, remember bool, ip, action, message string) FormState {
	data := sess.Values()
	data.AccessToken = token
	data.IsLoggedIn = true
	data.User = nil
	if err := sess.Save(sess.TTLFor(remember)); err != nil {
		slog.Error("saving session after authentication", slog.Any("error", err))
		sess.Values().Clear()
		return formError(msgUnexpected)
	}

	user, err := s.FetchAndUpdate(ctx, sess)
	if err != nil {
		slog.Warn("profile hydration failed", slog.Any("error", err))
	}

	userID, username := "", ""
	if user != nil {
		userID, username = user.ID, user.Username
	} else if claims, cerr := backend.ParseTokenClaims(token); cerr == nil {
		userID, username = claims.Subject, claims.Username
	}
	if userID != "" {
		s.activity.Record(ctx, audit.AuditEntry{
			UserID:    userID,
			Username:  username,
			Action:    action,
			Details:   map[string]any{"rememberMe": remember},
			IPAddress: ip,
		})
	}

	return FormState{
		Message:        message,
		ShouldRedirect: true,
		Hydration:      &HydrationOutcome{User: user, Err: err},
	}
}

// LogOut clears the session cookie. It always succeeds.
func (s *authService) LogOut(ctx context.Context, sess *session.Handle, ip string) FormState {
	if u := sess.Values().User; u != nil && u.ID != "" {
		s.activity.Record(ctx, audit.AuditEntry{
			UserID:    u.ID,
			Username:  u.Username,
			Action:    audit.ActionLogOut,
			IPAddress: ip,
		})
	}
	sess.Destroy()
	return FormState{Message: msgLoggedOut, ShouldRedirect: true}
}

// IsAuthenticated reads the session flag.
func (s *authService) IsAuthenticated(sess *session.Handle) bool {
	return sess != nil && sess.Values().IsLoggedIn
}

// authFailure maps a backend error to the form-level message. notFound is
// used for 404 answers, other statuses get failed, and anything that is not
// an HTTP answer at all is unexpected.
func authFailure(action string, err error, notFound, failed string) FormState {
	var se *backend.StatusError
	switch {
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		return formError(notFound)
	case errors.As(err, &se):
		slog.Info("backend rejected "+action, slog.Int("status", se.Code))
		return formError(failed)
	default:
		slog.Error(action+" request failed", slog.Any("error", err))
		return formError(msgUnexpected)
	}
}

// recoverAction turns a panic inside an action into the generic form error.
func recoverAction(action string, state *FormState) {
	if r := recover(); r != nil {
		slog.Error("panic in auth action",
			slog.String("action", action),
			slog.String("panic", fmt.Sprint(r)),
		)
		*state = formError(msgUnexpected)
	}
}
