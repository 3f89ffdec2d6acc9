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

var (
	// ErrNotAuthenticated means the session has no login to hydrate.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrTokenExpired means the backend rejected the stored token. The
	// session has already been cleared when this is returned.
	ErrTokenExpired = errors.New("token expired")

	// ErrProfileFetch wraps any other profile failure. The session is left
	// as it was.
	ErrProfileFetch = errors.New("failed to fetch profile")
)

// FetchAndUpdate loads the profile for the session's token and caches it.
func (s *authService) FetchAndUpdate(ctx context.Context, sess *session.Handle) (*session.User, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	data := sess.Values()
	if !data.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	profile, err := s.backend.Profile(ctx, data.AccessToken)
	if backend.IsStatus(err, http.StatusUnauthorized) {
		s.expire(ctx, sess)
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileFetch, err)
	}

	user := userFromProfile(profile, data.AccessToken)
	data.User = user
	if err := sess.Save(0); err != nil {
		return nil, fmt.Errorf("%w: saving session: %w", ErrProfileFetch, err)
	}
	return user, nil
}

// expire clears the login and persists the cleared session.
func (s *authService) expire(ctx context.Context, sess *session.Handle) {
	data := sess.Values()

	var entry audit.AuditEntry
	if data.User != nil {
		entry.UserID, entry.Username = data.User.ID, data.User.Username
	} else if claims, err := backend.ParseTokenClaims(data.AccessToken); err == nil {
		entry.UserID, entry.Username = claims.Subject, claims.Username
	}

	data.Clear()
	if err := sess.Save(0); err != nil {
		slog.Error("saving cleared session", slog.Any("error", err))
	}

	if entry.UserID != "" {
		entry.Action = audit.ActionTokenExpired
		s.activity.Record(ctx, entry)
	}
}

// CurrentUser returns the cached user or tries one fetch.
func (s *authService) CurrentUser(ctx context.Context, sess *session.Handle) *session.User {
	if sess == nil {
		return nil
	}
	if u := sess.Values().User; u != nil {
		return u
	}
	user, err := s.FetchAndUpdate(ctx, sess)
	if err != nil {
		if !errors.Is(err, ErrNotAuthenticated) {
			slog.Warn("fetching current user", slog.Any("error", err))
		}
		return nil
	}
	return user
}

// userFromProfile maps the backend profile into the session user. When the
// profile carries neither id nor sub, the token's subject is used.
func userFromProfile(p *backend.Profile, token string) *session.User {
	user := &session.User{
		ID:       p.UserID(),
		Name:     p.DisplayName(),
		Email:    p.Email,
		Username: p.Username,
	}
	if user.ID == "" {
		if claims, err := backend.ParseTokenClaims(token); err == nil {
			user.ID = claims.Subject
		}
	}
	return user
}
