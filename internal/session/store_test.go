package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "0123456789abcdef0123456789abcdef"

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	s, err := NewStore(Options{
		CookieName:  "auth_session",
		Password:    testPassword,
		DefaultTTL:  15 * time.Minute,
		RememberTTL: 7 * 24 * time.Hour,
		Now:         clock.Now,
	})
	require.NoError(t, err)
	return s
}

func loggedIn() *Data {
	return &Data{
		AccessToken: "tok-123",
		IsLoggedIn:  true,
		User:        &User{ID: "42", Name: "Ada", Email: "ada@example.com", Username: "ada"},
	}
}

// requestWith builds a request carrying every cookie the recorder set.
func requestWith(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNewStore_RejectsShortPassword(t *testing.T) {
	_, err := NewStore(Options{
		CookieName: "s", Password: "short", DefaultTTL: time.Minute, RememberTTL: time.Hour,
	})
	assert.ErrorIs(t, err, ErrShortPassword)
}

func TestStore_RoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := newTestStore(t, clock)

	rec := httptest.NewRecorder()
	require.NoError(t, s.Write(rec, loggedIn(), 0))

	got := s.Read(requestWith(rec))
	want := loggedIn()
	want.TTLSeconds = 0
	if diff := cmp.Diff(want.User, got.User); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got.Authenticated())
	assert.Equal(t, "tok-123", got.AccessToken)
}

func TestStore_MissingCookieIsEmptySession(t *testing.T) {
	s := newTestStore(t, &fakeClock{now: time.Now()})
	got := s.Read(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, got)
	assert.False(t, got.Authenticated())
	assert.Nil(t, got.User)
}

func TestStore_TamperedCookieFailsOpen(t *testing.T) {
	s := newTestStore(t, &fakeClock{now: time.Now()})

	cookie, err := s.Cookie(loggedIn(), 0)
	require.NoError(t, err)

	// Flip one character in the ciphertext body.
	b := []byte(cookie.Value)
	last := len(b) - 5
	if b[last] == 'A' {
		b[last] = 'B'
	} else {
		b[last] = 'A'
	}

	_, err = s.Decode(string(b))
	assert.ErrorIs(t, err, ErrTampered)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_session", Value: string(b)})
	assert.False(t, s.Read(req).Authenticated())
}

func TestStore_GarbageCookie(t *testing.T) {
	s := newTestStore(t, &fakeClock{now: time.Now()})

	for _, v := range []string{"plain", "s1.!!!", "s1.AAAA"} {
		_, err := s.Decode(v)
		assert.ErrorIs(t, err, ErrMalformed, v)
	}
}

func TestStore_WrongPasswordCannotOpen(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestStore(t, clock)

	other, err := NewStore(Options{
		CookieName:  "auth_session",
		Password:    strings.Repeat("z", 32),
		DefaultTTL:  15 * time.Minute,
		RememberTTL: time.Hour,
		Now:         clock.Now,
	})
	require.NoError(t, err)

	cookie, err := other.Cookie(loggedIn(), 0)
	require.NoError(t, err)

	_, err = s.Decode(cookie.Value)
	assert.ErrorIs(t, err, ErrTampered)
}

func TestStore_CookieNameIsBound(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestStore(t, clock)

	other, err := NewStore(Options{
		CookieName:  "other_session",
		Password:    testPassword,
		DefaultTTL:  15 * time.Minute,
		RememberTTL: time.Hour,
		Now:         clock.Now,
	})
	require.NoError(t, err)

	cookie, err := other.Cookie(loggedIn(), 0)
	require.NoError(t, err)

	_, err = s.Decode(cookie.Value)
	assert.ErrorIs(t, err, ErrTampered)
}

func TestStore_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := newTestStore(t, clock)

	cookie, err := s.Cookie(loggedIn(), 0)
	require.NoError(t, err)

	clock.now = clock.now.Add(14 * time.Minute)
	_, err = s.Decode(cookie.Value)
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Minute)
	_, err = s.Decode(cookie.Value)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestStore_VersionMismatchDiscarded(t *testing.T) {
	s := newTestStore(t, &fakeClock{now: time.Now()})

	value, err := s.sealer.seal([]byte(`{"v":99,"exp":9999999999,"d":{"accessToken":"x","isLoggedIn":true}}`))
	require.NoError(t, err)

	_, err = s.Decode(value)
	assert.ErrorIs(t, err, ErrVersion)
}

func TestStore_TTLMaxAge(t *testing.T) {
	s := newTestStore(t, &fakeClock{now: time.Now()})

	short, err := s.Cookie(loggedIn(), s.TTLFor(false))
	require.NoError(t, err)
	assert.Equal(t, 900, short.MaxAge)

	long, err := s.Cookie(loggedIn(), s.TTLFor(true))
	require.NoError(t, err)
	assert.Equal(t, 604800, long.MaxAge)

	assert.True(t, long.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, long.SameSite)
	assert.Equal(t, "/", long.Path)
}

func TestStore_LaterWritesKeepRememberTTL(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestStore(t, clock)

	rec := httptest.NewRecorder()
	h := s.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	*h.Values() = *loggedIn()
	require.NoError(t, h.Save(h.TTLFor(true)))

	// A later request refreshes the profile without picking a TTL.
	rec2 := httptest.NewRecorder()
	h2 := s.Load(rec2, requestWith(rec))
	h2.Values().User.Name = "Ada L."
	require.NoError(t, h2.Save(0))

	cookies := rec2.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, 604800, cookies[0].MaxAge)
	assert.Equal(t, "Ada L.", s.Read(requestWith(rec2)).User.Name)
}

func TestHandle_SaveTwiceSendsOneCookie(t *testing.T) {
	s := newTestStore(t, &fakeClock{now: time.Now()})

	rec := httptest.NewRecorder()
	http.SetCookie(rec, &http.Cookie{Name: "unrelated", Value: "1"})

	h := s.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	*h.Values() = *loggedIn()
	require.NoError(t, h.Save(0))
	require.NoError(t, h.Save(0))

	var names []string
	for _, c := range rec.Result().Cookies() {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"unrelated", "auth_session"}, names)
}

func TestHandle_Destroy(t *testing.T) {
	s := newTestStore(t, &fakeClock{now: time.Now()})

	rec := httptest.NewRecorder()
	h := s.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	*h.Values() = *loggedIn()
	require.NoError(t, h.Save(0))
	h.Destroy()

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
	assert.False(t, h.Values().Authenticated())
}

func TestStore_ReadHeader(t *testing.T) {
	s := newTestStore(t, &fakeClock{now: time.Now()})

	cookie, err := s.Cookie(loggedIn(), 0)
	require.NoError(t, err)

	got := s.ReadHeader("theme=dark; auth_session=" + cookie.Value)
	assert.True(t, got.Authenticated())

	assert.False(t, s.ReadHeader("theme=dark").Authenticated())
	assert.False(t, s.ReadHeader("").Authenticated())
}

func TestData_Clear(t *testing.T) {
	d := loggedIn()
	d.TTLSeconds = 604800
	d.Clear()

	assert.False(t, d.Authenticated())
	assert.Nil(t, d.User)
	assert.Equal(t, int64(604800), d.TTLSeconds)
}
