// Package session keeps per-browser state in a sealed cookie. Nothing is
// stored server-side: the cookie value is an authenticated, encrypted blob
// holding the backend bearer token, the logged-in flag and a cached copy of
// the user's profile.
//
// Reads fail open. A missing, tampered, expired or out-of-date cookie is an
// empty (logged-out) session, never an error for the caller.
package session

// CurrentVersion is the schema version of Data. Payloads sealed with any
// other version are discarded on read.
const CurrentVersion = 1

// User is the cached backend profile.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// Data is the logical session content shared by every component that reads
// or writes the cookie.
//
// IsLoggedIn implies AccessToken is set. Writers keep that true; the store
// does not enforce it.
type Data struct {
	AccessToken string `json:"accessToken,omitempty"`
	IsLoggedIn  bool   `json:"isLoggedIn,omitempty"`
	User        *User  `json:"user,omitempty"`

	// TTLSeconds remembers the lifetime picked at login so later writes in
	// other requests keep the "remember me" choice.
	TTLSeconds int64 `json:"ttl,omitempty"`
}

// Authenticated reports whether the session carries a usable login.
func (d *Data) Authenticated() bool {
	return d != nil && d.IsLoggedIn && d.AccessToken != ""
}

// Clear drops the login but keeps the TTL choice.
func (d *Data) Clear() {
	d.AccessToken = ""
	d.IsLoggedIn = false
	d.User = nil
}

// envelope is the sealed plaintext.
type envelope struct {
	Version int   `json:"v"`
	Expires int64 `json:"exp"`
	Data    Data  `json:"d"`
}
