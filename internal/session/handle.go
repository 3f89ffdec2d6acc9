package session

import (
	"net/http"
	"time"
)

// Handle is one request's view of the session: the decoded data plus the
// response it is persisted to. Concurrent requests from the same browser
// get independent handles; the last cookie written wins.
type Handle struct {
	store *Store
	w     http.ResponseWriter
	data  *Data
}

// NewHandle wraps already-decoded data. Mostly useful in tests.
func NewHandle(store *Store, w http.ResponseWriter, data *Data) *Handle {
	if data == nil {
		data = &Data{}
	}
	return &Handle{store: store, w: w, data: data}
}

// Values returns the mutable session data. Changes are only persisted by Save.
func (h *Handle) Values() *Data {
	return h.data
}

// TTLFor proxies Store.TTLFor.
func (h *Handle) TTLFor(rememberMe bool) time.Duration {
	return h.store.TTLFor(rememberMe)
}

// Save seals the current data into the response cookie. A zero ttl keeps
// the lifetime chosen at login.
func (h *Handle) Save(ttl time.Duration) error {
	return h.store.Write(h.w, h.data, ttl)
}

// Destroy clears the cookie and resets the in-memory data.
func (h *Handle) Destroy() {
	h.store.Clear(h.w)
	h.data = &Data{}
}
