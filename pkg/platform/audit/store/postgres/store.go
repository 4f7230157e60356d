// Package postgres persists the audit trail in PostgreSQL, giving it
// durability beyond process restarts when the service runs with the postgres
// backend.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	audit "assetgate/pkg/platform/audit"
)

// Schema expects:
//
//	audit_events(seq bigserial primary key, category text, timestamp
//	    timestamptz, submission_id text, stage text, action text,
//	    status text, reason text, request_id text)

// Store implements audit.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs the store on an established pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_events (category, timestamp, submission_id, stage, action, status, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		string(event.Category),
		event.Timestamp,
		event.SubmissionID,
		event.Stage,
		event.Action,
		event.Status,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListBySubmission(ctx context.Context, submissionID string) ([]audit.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, timestamp, submission_id, stage, action, status, reason, request_id
		FROM audit_events
		WHERE submission_id = $1
		ORDER BY seq
	`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events, oldest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, timestamp, submission_id, stage, action, status, reason, request_id
		FROM (
			SELECT seq, category, timestamp, submission_id, stage, action, status, reason, request_id
			FROM audit_events
			ORDER BY seq DESC
			LIMIT $1
		) recent
		ORDER BY seq
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows eventRows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			category string
			event    audit.Event
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&event.SubmissionID,
			&event.Stage,
			&event.Action,
			&event.Status,
			&event.Reason,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
