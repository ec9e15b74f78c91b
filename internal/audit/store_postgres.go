package audit

import (
	"context"

	"vellum/internal/platform/database"
	pkgerrors "vellum/pkg/domain-errors"
)

// PostgresStore persists audit events in the verification_audit table.
type PostgresStore struct {
	pool *database.Pool
}

// NewPostgresStore creates an audit store backed by the given pool.
func NewPostgresStore(pool *database.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const query = `
		INSERT INTO verification_audit
			(occurred_at, subject_id, action, outcome, reason, verifier, client_ip, browser, os, mobile)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.DB().ExecContext(ctx, query,
		event.Timestamp, event.SubjectID, event.Action, event.Outcome, event.Reason,
		event.Verifier, event.ClientIP, event.Browser, event.OS, event.Mobile)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to append audit event")
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID string) ([]Event, error) {
	const query = `
		SELECT occurred_at, subject_id, action, outcome, reason, verifier, client_ip, browser, os, mobile
		FROM verification_audit
		WHERE subject_id = $1
		ORDER BY occurred_at ASC`

	rows, err := s.pool.DB().QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list audit events")
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.Timestamp, &event.SubjectID, &event.Action, &event.Outcome,
			&event.Reason, &event.Verifier, &event.ClientIP, &event.Browser, &event.OS, &event.Mobile); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to scan audit event")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to read audit events")
	}
	return events, nil
}
