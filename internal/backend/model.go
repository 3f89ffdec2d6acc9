package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Username   string `json:"username,omitempty"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// LogInRequest is the body of POST /auth/login.
type LogInRequest struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// TokenResponse is returned by both auth endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Profile is the body of GET /auth/profile. The backend is inconsistent
// about which identity fields it fills, so every field is optional.
type Profile struct {
	ID       FlexString `json:"id"`
	Sub      FlexString `json:"sub"`
	Name     string     `json:"name"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
}

// UserID returns id, falling back to sub.
func (p *Profile) UserID() string {
	if p.ID != "" {
		return string(p.ID)
	}
	return string(p.Sub)
}

// DisplayName returns name, falling back to username.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Username
}

// FlexString accepts any JSON scalar and keeps it as text. Numeric user ids
// and boolean savedToCsv flags both show up in practice.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			// Booleans and anything else keep their JSON text.
			*f = FlexString(bytes.TrimSpace(b))
			return nil
		}
		*f = FlexString(n.String())
	}
	return nil
}

// ScanRequest is the body of POST /puppet/fullscan.
type ScanRequest struct {
	Profession  string `json:"profession"`
	CityState   string `json:"cityState"`
	Concurrency int    `json:"concurrency"`
	TimeoutMs   int    `json:"timeoutMs"`
}

// ScanResponse is the summary the scraping backend returns when a full
// city scan finishes.
type ScanResponse struct {
	Location   string          `json:"location"`
	Profession string          `json:"profession"`
	Requested  int             `json:"requested"`
	Processed  int             `json:"processed"`
	Started    Timestamp       `json:"started"`
	Completed  Timestamp       `json:"completed"`
	SavedToCSV FlexString      `json:"savedToCsv"`
	Failed     int             `json:"failed"`
	TimedOut   bool            `json:"timedOut"`
	Sample     []ScanRow       `json:"sample,omitempty"`
	Data       []ScanRow       `json:"data,omitempty"`
	Failures   []FailureRecord `json:"failures,omitempty"`
}

// Rows returns the full data set when present, otherwise the sample.
func (r *ScanResponse) Rows() []ScanRow {
	if len(r.Data) > 0 {
		return r.Data
	}
	return r.Sample
}

// ScanRow is one scraped practitioner record.
type ScanRow struct {
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	MiddleName   string       `json:"middleName"`
	NamePrefix   string       `json:"name_prefix"`
	ScrappedCity string       `json:"scrappedCity"`
	NPPESNumber  *json.Number `json:"nppesNumber"`
	PhoneNumber  string       `json:"phoneNumber"`
	Address      string       `json:"address"`
	Credentials  string       `json:"credentials"`
	Sex          Sex          `json:"sex"`
	Title        string       `json:"title"`
	Position     string       `json:"position"`
}

// FullName joins the name parts that are present.
func (r ScanRow) FullName() string {
	var parts []string
	for _, p := range []string{r.NamePrefix, r.FirstName, r.MiddleName, r.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Sex is "", "male" or "female".
type Sex string

const (
	SexUnknown Sex = ""
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
)

// UnmarshalJSON normalizes case and maps anything unrecognized to SexUnknown.
func (s *Sex) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		*s = SexUnknown
		return nil
	}
	switch v := Sex(strings.ToLower(strings.TrimSpace(raw))); v {
	case SexMale, SexFemale:
		*s = v
	default:
		*s = SexUnknown
	}
	return nil
}

// isoMillis is the layout JavaScript's Date.toISOString produces.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Timestamp is a scan time normalized to a string. Strings pass through
// untouched; numbers are epoch milliseconds and become UTC ISO-8601 with
// millisecond precision; null is empty; anything else keeps its raw JSON.
type Timestamp string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Timestamp(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		var ms float64
		if err := json.Unmarshal(b, &ms); err != nil {
			return err
		}
		*t = Timestamp(time.UnixMilli(int64(ms)).UTC().Format(isoMillis))
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return err
		}
		*t = Timestamp(buf.String())
	}
	return nil
}

// Time parses the timestamp. ok is false when it isn't RFC 3339.
func (t Timestamp) Time() (time.Time, bool) {
	parsed, err := time.Parse(time.RFC3339Nano, string(t))
	return parsed, err == nil
}

// FailureField is one key/value pair of a failure record. Value is the raw
// JSON so nothing is lost before the backend's shape settles.
type FailureField struct {
	Key   string
	Value json.RawMessage
}

// Text renders the value for display: strings unquoted, everything else as
// compact JSON.
func (f FailureField) Text() string {
	var s string
	if err := json.Unmarshal(f.Value, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, f.Value); err != nil {
		return string(f.Value)
	}
	return buf.String()
}

// FailureRecord is one entry of the failures list, keeping the backend's
// key order. Non-object entries become a single "value" field.
type FailureRecord []FailureField

// UnmarshalJSON implements json.Unmarshaler.
func (r *FailureRecord) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		*r = FailureRecord{{Key: "value", Value: append(json.RawMessage(nil), b...)}}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		return err
	}

	rec := FailureRecord{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("failure record: unexpected key %v", tok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return err
		}
		rec = append(rec, FailureField{Key: key, Value: val})
	}
	*r = rec
	return nil
}

// MarshalJSON writes the record back as an object in the original order.
func (r FailureRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(f.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the text of the first field named key.
func (r FailureRecord) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Text(), true
		}
	}
	return "", false
}
