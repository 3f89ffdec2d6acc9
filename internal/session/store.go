package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxCookieSize is the largest cookie value browsers reliably accept.
const maxCookieSize = 4096

var (
	// ErrNoSession is returned when the request carries no session cookie.
	ErrNoSession = errors.New("no session cookie")

	// ErrExpired is returned when the sealed expiry has passed.
	ErrExpired = errors.New("session expired")

	// ErrVersion is returned when the payload schema version is unknown.
	ErrVersion = errors.New("unsupported session version")

	// ErrTooLarge is returned when a sealed session would not fit in a cookie.
	ErrTooLarge = errors.New("sealed session exceeds cookie size limit")
)

// Options configures a Store.
type Options struct {
	// CookieName is the name of the session cookie.
	CookieName string

	// Password seals the cookie. At least 32 characters.
	Password string

	// Secure marks the cookie HTTPS-only. Set in production.
	Secure bool

	// DefaultTTL applies when neither the write nor the session picks one.
	DefaultTTL time.Duration

	// RememberTTL is the lifetime used for "remember me" logins.
	RememberTTL time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Store reads and writes sealed session cookies. Safe for concurrent use;
// it holds only the derived key and the options.
type Store struct {
	opts   Options
	sealer *sealer
}

// NewStore validates the options and derives the sealing key.
func NewStore(opts Options) (*Store, error) {
	if opts.CookieName == "" {
		return nil, fmt.Errorf("session cookie name is required")
	}
	if opts.DefaultTTL <= 0 || opts.RememberTTL <= 0 {
		return nil, fmt.Errorf("session TTLs must be positive")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s, err := newSealer(opts.Password, opts.CookieName)
	if err != nil {
		return nil, err
	}
	return &Store{opts: opts, sealer: s}, nil
}

// CookieName returns the configured cookie name.
func (s *Store) CookieName() string {
	return s.opts.CookieName
}

// TTLFor returns the session lifetime for a login with or without
// "remember me".
func (s *Store) TTLFor(rememberMe bool) time.Duration {
	if rememberMe {
		return s.opts.RememberTTL
	}
	return s.opts.DefaultTTL
}

// Read returns the session carried by the request, or an empty session if
// there is none or it cannot be opened.
func (s *Store) Read(r *http.Request) *Data {
	cookie, err := r.Cookie(s.opts.CookieName)
	if err != nil {
		return &Data{}
	}
	return s.readValue(cookie.Value)
}

// ReadHeader is Read for a raw Cookie header value.
func (s *Store) ReadHeader(cookieHeader string) *Data {
	cookies, err := http.ParseCookie(cookieHeader)
	if err != nil {
		return &Data{}
	}
	for _, c := range cookies {
		if c.Name == s.opts.CookieName {
			return s.readValue(c.Value)
		}
	}
	return &Data{}
}

func (s *Store) readValue(value string) *Data {
	data, err := s.Decode(value)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			slog.Debug("discarding unreadable session cookie", slog.Any("reason", err))
		}
		return &Data{}
	}
	return data
}

// Decode opens a cookie value. Unlike Read it reports why a value was
// rejected; callers that just need a session should use Read.
func (s *Store) Decode(value string) (*Data, error) {
	if value == "" {
		return nil, ErrNoSession
	}

	plaintext, err := s.sealer.open(value)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Version != CurrentVersion {
		return nil, ErrVersion
	}
	if !s.opts.Now().Before(time.Unix(env.Expires, 0)) {
		return nil, ErrExpired
	}
	return &env.Data, nil
}

// Cookie seals data into a Set-Cookie value. A positive ttl is recorded in
// the session and used; otherwise the TTL stored in the session applies,
// falling back to DefaultTTL.
func (s *Store) Cookie(data *Data, ttl time.Duration) (*http.Cookie, error) {
	switch {
	case ttl > 0:
		data.TTLSeconds = int64(ttl / time.Second)
	case data.TTLSeconds > 0:
		ttl = time.Duration(data.TTLSeconds) * time.Second
	default:
		ttl = s.opts.DefaultTTL
	}

	env := envelope{
		Version: CurrentVersion,
		Expires: s.opts.Now().Add(ttl).Unix(),
		Data:    *data,
	}
	plaintext, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshaling session: %w", err)
	}

	value, err := s.sealer.seal(plaintext)
	if err != nil {
		return nil, err
	}
	if len(value) > maxCookieSize {
		return nil, ErrTooLarge
	}

	return &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Write seals data and sets the cookie on the response.
func (s *Store) Write(w http.ResponseWriter, data *Data, ttl time.Duration) error {
	cookie, err := s.Cookie(data, ttl)
	if err != nil {
		return err
	}
	s.setCookie(w, cookie)
	return nil
}

// Clear expires the session cookie immediately.
func (s *Store) Clear(w http.ResponseWriter) {
	s.setCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// setCookie replaces any Set-Cookie for the session already queued on this
// response, so a request that saves twice sends one cookie.
func (s *Store) setCookie(w http.ResponseWriter, cookie *http.Cookie) {
	h := w.Header()
	prefix := s.opts.CookieName + "="
	kept := h.Values("Set-Cookie")[:0:0]
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
	http.SetCookie(w, cookie)
}

// Load binds the request's session to its response writer.
func (s *Store) Load(w http.ResponseWriter, r *http.Request) *Handle {
	return &Handle{store: s, w: w, data: s.Read(r)}
}
