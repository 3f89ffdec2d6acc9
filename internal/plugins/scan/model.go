// Package scan runs full city scans: the dashboard form collects a
// profession and a "City, ST" location, the scraping backend does the work,
// and the result table is shown inline. Each user's last few scans are kept
// in Redis for the dashboard's "Recent scans" list.
package scan

import (
	"time"

	"github.com/keyxmakerx/outreach/internal/backend"
)

// Fixed backend parameters. Users cannot change these.
const (
	Concurrency = 5
	TimeoutMs   = 150000
)

const (
	msgRequired     = "Profession and City/State are required."
	msgScanFailed   = "Something went wrong while scraping"
	msgServerPrefix = "Server error: "
)

// Suggestions pre-fill the location field's datalist.
var Suggestions = []string{
	"Miami, FL",
	"Orlando, FL",
	"Tampa, FL",
	"Jacksonville, FL",
	"Atlanta, GA",
	"New York, NY",
	"Los Angeles, CA",
	"San Francisco, CA",
	"Chicago, IL",
	"Houston, TX",
}

// Form is the dashboard's scan form.
type Form struct {
	Profession string `form:"profession" json:"profession"`
	CityState  string `form:"cityState" json:"cityState"`
}

// Result is what a scan hands back to the page: either Result or Error.
type Result struct {
	Result *backend.ScanResponse `json:"result"`
	Error  string                `json:"error,omitempty"`
}

// Summary is the compact record of a finished scan kept in the recent-scan
// history.
type Summary struct {
	Location   string    `json:"location"`
	Profession string    `json:"profession"`
	Requested  int       `json:"requested"`
	Processed  int       `json:"processed"`
	Failed     int       `json:"failed"`
	TimedOut   bool      `json:"timedOut"`
	Completed  string    `json:"completed,omitempty"`
	RanAt      time.Time `json:"ranAt"`
}

// summarize prefers the backend's completion time over at.
func summarize(resp *backend.ScanResponse, at time.Time) Summary {
	if completed, ok := resp.Completed.Time(); ok {
		at = completed
	}
	return Summary{
		Location:   resp.Location,
		Profession: resp.Profession,
		Requested:  resp.Requested,
		Processed:  resp.Processed,
		Failed:     resp.Failed,
		TimedOut:   resp.TimedOut,
		Completed:  string(resp.Completed),
		RanAt:      at.UTC(),
	}
}
