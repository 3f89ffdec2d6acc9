// Package audit records what users do in Outreach: sign-ups, log-ins,
// log-outs, forced log-outs from expired tokens, and scans. Entries are
// stored in the activity_log table and shown to each user on /activity.
//
// This is an optional plugin. Without a database the service is a no-op
// and the rest of the app behaves the same.
package audit

import "time"

// --- Action Constants ---
// Each action string follows the pattern "resource.verb". They must match
// the ENUM on activity_log.action.

const (
	// ActionSignUp is logged when a new account is registered.
	ActionSignUp = "auth.signup"

	// ActionLogIn is logged on every successful log-in.
	ActionLogIn = "auth.login"

	// ActionLogOut is logged when a user logs out.
	ActionLogOut = "auth.logout"

	// ActionTokenExpired is logged when the backend rejects a stored token
	// and the session is cleared.
	ActionTokenExpired = "auth.token_expired"

	// ActionScanCompleted is logged when a full city scan returns results.
	ActionScanCompleted = "scan.completed"

	// ActionScanFailed is logged when a scan request errors.
	ActionScanFailed = "scan.failed"
)

// AuditEntry is a single recorded action. Details holds action-specific
// metadata such as the scan location or processed count.
type AuditEntry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"userId"`
	Username  string         `json:"username,omitempty"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	IPAddress string         `json:"ipAddress,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Label returns a human-readable description of the action.
func (e AuditEntry) Label() string {
	switch e.Action {
	case ActionSignUp:
		return "Created account"
	case ActionLogIn:
		return "Logged in"
	case ActionLogOut:
		return "Logged out"
	case ActionTokenExpired:
		return "Session expired"
	case ActionScanCompleted:
		return "Scan completed"
	case ActionScanFailed:
		return "Scan failed"
	default:
		return e.Action
	}
}
