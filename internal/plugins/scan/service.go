package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/keyxmakerx/outreach/internal/backend"
	"github.com/keyxmakerx/outreach/internal/plugins/audit"
	"github.com/keyxmakerx/outreach/internal/sanitize"
	"github.com/keyxmakerx/outreach/internal/session"
)

// Scanner is the slice of the backend client scans need.
type Scanner interface {
	FullScan(ctx context.Context, req backend.ScanRequest) (*backend.ScanResponse, error)
}

// ActivityRecorder receives fire-and-forget activity entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry audit.AuditEntry)
}

// ScanService runs scans and reads the recent-scan history.
type ScanService interface {
	// FullCityScan validates the form and runs one scan. Failures are
	// reported in Result.Error, never as a Go error.
	FullCityScan(ctx context.Context, user *session.User, form Form, ip string) Result

	// Recent returns the user's recent scans, newest first. Storage errors
	// yield an empty list.
	Recent(ctx context.Context, userID string) []Summary
}

// scanService implements ScanService.
type scanService struct {
	scanner  Scanner
	history  History
	activity ActivityRecorder
	now      func() time.Time
}

// NewScanService creates a scan service. A nil history or recorder stores
// nothing.
func NewScanService(scanner Scanner, history History, activity ActivityRecorder) ScanService {
	if history == nil {
		history = NewNopHistory()
	}
	if activity == nil {
		activity = audit.NewNopService()
	}
	return &scanService{scanner: scanner, history: history, activity: activity, now: time.Now}
}

// FullCityScan runs a scan for the form's profession and location.
func (s *scanService) FullCityScan(ctx context.Context, user *session.User, form Form, ip string) (res Result) {
	profession := strings.TrimSpace(form.Profession)
	cityState := strings.TrimSpace(form.CityState)
	if profession == "" || cityState == "" {
		return Result{Error: msgRequired}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic during scan", slog.String("panic", fmt.Sprint(r)))
			res = Result{Error: msgServerPrefix + fmt.Sprint(r)}
		}
	}()

	// Scans take minutes. Leaving the page must not abort one the backend
	// is already running.
	ctx = context.WithoutCancel(ctx)

	started := s.now()
	resp, err := s.scanner.FullScan(ctx, backend.ScanRequest{
		Profession:  profession,
		CityState:   cityState,
		Concurrency: Concurrency,
		TimeoutMs:   TimeoutMs,
	})
	if err != nil {
		s.recordFailure(ctx, user, profession, cityState, err, ip)

		var se *backend.StatusError
		if errors.As(err, &se) {
			return Result{Error: msgScanFailed}
		}
		return Result{Error: msgServerPrefix + err.Error()}
	}

	cleanResponse(resp)

	slog.Info("scan completed",
		slog.String("location", resp.Location),
		slog.Int("processed", resp.Processed),
		slog.Int("failed", resp.Failed),
		slog.Duration("elapsed", s.now().Sub(started)),
	)

	if user != nil && user.ID != "" {
		if err := s.history.Push(ctx, user.ID, summarize(resp, s.now())); err != nil {
			slog.Warn("failed to store scan history", slog.Any("error", err))
		}
		s.activity.Record(ctx, audit.AuditEntry{
			UserID:   user.ID,
			Username: user.Username,
			Action:   audit.ActionScanCompleted,
			Details: map[string]any{
				"profession": profession,
				"location":   cityState,
				"processed":  resp.Processed,
				"failed":     resp.Failed,
				"timedOut":   resp.TimedOut,
			},
			IPAddress: ip,
		})
	}

	return Result{Result: resp}
}

func (s *scanService) recordFailure(ctx context.Context, user *session.User, profession, cityState string, err error, ip string) {
	slog.Warn("scan failed",
		slog.String("profession", profession),
		slog.String("location", cityState),
		slog.Any("error", err),
	)
	if user == nil || user.ID == "" {
		return
	}
	s.activity.Record(ctx, audit.AuditEntry{
		UserID:   user.ID,
		Username: user.Username,
		Action:   audit.ActionScanFailed,
		Details: map[string]any{
			"profession": profession,
			"location":   cityState,
			"error":      err.Error(),
		},
		IPAddress: ip,
	})
}

// Recent lists the user's recent scans.
func (s *scanService) Recent(ctx context.Context, userID string) []Summary {
	if userID == "" {
		return nil
	}
	list, err := s.history.List(ctx, userID)
	if err != nil {
		slog.Warn("failed to read scan history", slog.Any("error", err))
		return nil
	}
	return list
}

// cleanResponse strips markup from every scraped text field.
func cleanResponse(resp *backend.ScanResponse) {
	resp.Location = sanitize.Text(resp.Location)
	resp.Profession = sanitize.Text(resp.Profession)
	for _, rows := range [][]backend.ScanRow{resp.Sample, resp.Data} {
		for i := range rows {
			r := &rows[i]
			for _, f := range []*string{
				&r.FirstName, &r.LastName, &r.MiddleName, &r.NamePrefix,
				&r.ScrappedCity, &r.PhoneNumber, &r.Address,
				&r.Credentials, &r.Title, &r.Position,
			} {
				*f = sanitize.Text(*f)
			}
		}
	}
}
