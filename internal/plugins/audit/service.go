package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keyxmakerx/outreach/internal/apperror"
)

// perPage is the number of entries shown per page on /activity.
const perPage = 50

// AuditService handles business logic for the activity log.
type AuditService interface {
	// Log validates and stores an entry.
	Log(ctx context.Context, entry *AuditEntry) error

	// Record is the fire-and-forget form of Log used by other plugins.
	// Failures are logged and never returned.
	Record(ctx context.Context, entry AuditEntry)

	// ListForUser returns one page (1-indexed) of a user's activity and the
	// total number of entries.
	ListForUser(ctx context.Context, userID string, page int) ([]AuditEntry, int, error)

	// Enabled reports whether entries are actually persisted.
	Enabled() bool
}

// auditService implements AuditService.
type auditService struct {
	repo AuditRepository
}

// NewAuditService creates a new audit service with the given repository.
func NewAuditService(repo AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// Log validates and persists an entry.
func (s *auditService) Log(ctx context.Context, entry *AuditEntry) error {
	if entry.UserID == "" {
		return apperror.NewBadRequest("user ID is required for activity entry")
	}
	if entry.Action == "" {
		return apperror.NewBadRequest("action is required for activity entry")
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		return apperror.NewInternal(fmt.Errorf("writing activity entry: %w", err))
	}
	return nil
}

// Record logs an entry, detached from the request's cancellation so a
// client hanging up mid-response doesn't drop the write.
func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	if err := s.Log(context.WithoutCancel(ctx), &entry); err != nil {
		slog.Warn("failed to record activity",
			slog.String("action", entry.Action),
			slog.String("user_id", entry.UserID),
			slog.Any("error", err),
		)
	}
}

// ListForUser returns a page of the user's entries. Invalid pages are
// clamped to 1.
func (s *auditService) ListForUser(ctx context.Context, userID string, page int) ([]AuditEntry, int, error) {
	if userID == "" {
		return nil, 0, apperror.NewBadRequest("user ID is required")
	}
	if page < 1 {
		page = 1
	}

	entries, total, err := s.repo.ListByUser(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, apperror.NewInternal(fmt.Errorf("listing user activity: %w", err))
	}
	return entries, total, nil
}

func (s *auditService) Enabled() bool { return true }

// nopService is used when no database is configured.
type nopService struct{}

// NewNopService returns an AuditService that stores nothing.
func NewNopService() AuditService { return nopService{} }

func (nopService) Log(context.Context, *AuditEntry) error { return nil }
func (nopService) Record(context.Context, AuditEntry)     {}
func (nopService) ListForUser(context.Context, string, int) ([]AuditEntry, int, error) {
	return nil, 0, nil
}
func (nopService) Enabled() bool { return false }
