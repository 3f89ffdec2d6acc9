package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AuditRepository defines the data access contract for the activity log.
// All SQL lives in the concrete implementation.
type AuditRepository interface {
	// Log inserts a new entry and sets its ID.
	Log(ctx context.Context, entry *AuditEntry) error

	// ListByUser returns one page of a user's entries, newest first, plus
	// the user's total entry count for pagination.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]AuditEntry, int, error)
}

// auditRepository implements AuditRepository with MariaDB queries.
type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new repository backed by the given DB pool.
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log inserts an entry. Nil details are stored as SQL NULL.
func (r *auditRepository) Log(ctx context.Context, entry *AuditEntry) error {
	query := `INSERT INTO activity_log (user_id, username, action, details, ip_address, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	var detailsJSON any
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshaling activity details: %w", err)
		}
		detailsJSON = b
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		entry.UserID, entry.Username, entry.Action,
		detailsJSON, entry.IPAddress, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting activity entry id: %w", err)
	}
	entry.ID = id
	return nil
}

// ListByUser returns a page of the user's entries ordered newest first.
func (r *auditRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]AuditEntry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_log WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting activity entries: %w", err)
	}

	query := `SELECT id, user_id, username, action, details, ip_address, created_at
	          FROM activity_log
	          WHERE user_id = ?
	          ORDER BY created_at DESC, id DESC
	          LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing activity entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanAuditRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// scanAuditRows expects columns: id, user_id, username, action, details,
// ip_address, created_at.
func scanAuditRows(rows *sql.Rows) ([]AuditEntry, error) {
	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var detailsJSON sql.NullString
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Username, &e.Action,
			&detailsJSON, &e.IPAddress, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}

		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &e.Details); err != nil {
				// Non-fatal: keep the feed readable.
				e.Details = map[string]any{"_parse_error": "invalid JSON"}
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity rows: %w", err)
	}
	return entries, nil
}
