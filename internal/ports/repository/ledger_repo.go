package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AttendanceLedgerRepository is the PostgreSQL implementation of the
// append-only attendance ledger. Rows in attendance_records are never
// updated or deleted; a seq column breaks ordering ties when two attempts
// land on the same instant.
type AttendanceLedgerRepository struct {
	DB *sql.DB
}

// NewAttendanceLedgerRepository creates a new instance.
func NewAttendanceLedgerRepository(db *sql.DB) *AttendanceLedgerRepository {
	return &AttendanceLedgerRepository{DB: db}
}

const recordColumns = `id, event_id, user_id, action, at_time, accepted, accuracy_meters`

// Append inserts an attempt row with no open-session guard. Used for
// rejected attempts and accepted sign-outs.
func (r *AttendanceLedgerRepository) Append(ctx context.Context, eventID, userID string, action model.AttendanceAction, at time.Time, accepted bool, accuracyMeters *float64) (*model.AttendanceRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.eventId", eventID),
		attribute.String("app.userId", userID),
	)

	rec := &model.AttendanceRecord{
		ID:             uuid.NewString(),
		EventID:        eventID,
		UserID:         userID,
		Action:         action,
		AtTime:         at,
		Accepted:       accepted,
		AccuracyMeters: accuracyMeters,
	}

	query := `INSERT INTO attendance_records (id, event_id, user_id, action, at_time, accepted, accuracy_meters)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(ctx, query, rec.ID, eventID, userID, action, at, accepted, accuracyMeters)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// AppendAcceptedSignIn inserts an accepted sign-in while holding a
// transaction-scoped advisory lock over the (event,user) pair and
// re-checking the last accepted action under the lock. A partial unique
// index cannot express "at most one open session" over an append-only
// table, hence the lock. Returns ports.ErrAlreadySignedIn when another
// request committed an accepted sign-in first.
func (r *AttendanceLedgerRepository) AppendAcceptedSignIn(ctx context.Context, eventID, userID string, at time.Time, accuracyMeters *float64) (*model.AttendanceRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.eventId", eventID),
		attribute.String("app.userId", userID),
	)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning sign-in transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`,
		eventID, userID,
	); err != nil {
		return nil, fmt.Errorf("acquiring session lock: %w", err)
	}

	var lastAction model.AttendanceAction
	err = tx.QueryRowContext(ctx,
		`SELECT action FROM attendance_records
         WHERE event_id = $1 AND user_id = $2 AND accepted
         ORDER BY at_time DESC, seq DESC
         LIMIT 1`,
		eventID, userID,
	).Scan(&lastAction)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err == nil && lastAction == model.ActionSignIn {
		return nil, ports.ErrAlreadySignedIn
	}

	rec := &model.AttendanceRecord{
		ID:             uuid.NewString(),
		EventID:        eventID,
		UserID:         userID,
		Action:         model.ActionSignIn,
		AtTime:         at,
		Accepted:       true,
		AccuracyMeters: accuracyMeters,
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO attendance_records (id, event_id, user_id, action, at_time, accepted, accuracy_meters)
         VALUES ($1, $2, $3, $4, $5, TRUE, $6)`,
		rec.ID, eventID, userID, rec.Action, at, accuracyMeters,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sign-in: %w", err)
	}
	return rec, nil
}

// LastAccepted returns the most recent accepted record for the pair, or nil.
func (r *AttendanceLedgerRepository) LastAccepted(ctx context.Context, eventID, userID string) (*model.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + `
              FROM attendance_records
              WHERE event_id = $1 AND user_id = $2 AND accepted
              ORDER BY at_time DESC, seq DESC
              LIMIT 1`

	rec := &model.AttendanceRecord{}
	err := r.DB.QueryRowContext(ctx, query, eventID, userID).Scan(
		&rec.ID, &rec.EventID, &rec.UserID, &rec.Action, &rec.AtTime, &rec.Accepted, &rec.AccuracyMeters,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// AcceptedFor lists the pair's accepted records, oldest first.
func (r *AttendanceLedgerRepository) AcceptedFor(ctx context.Context, eventID, userID string) ([]model.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + `
              FROM attendance_records
              WHERE event_id = $1 AND user_id = $2 AND accepted
              ORDER BY at_time ASC, seq ASC`

	rows, err := r.DB.QueryContext(ctx, query, eventID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.UserID, &rec.Action, &rec.AtTime, &rec.Accepted, &rec.AccuracyMeters); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AcceptedForUser lists the user's accepted records across every event,
// grouped by event and oldest first within each event, each annotated with
// its event's end time.
func (r *AttendanceLedgerRepository) AcceptedForUser(ctx context.Context, userID string) ([]model.UserEventRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", userID))

	query := `SELECT r.id, r.event_id, r.user_id, r.action, r.at_time, r.accepted, r.accuracy_meters, e.end_time
              FROM attendance_records r
              JOIN events e ON e.id = r.event_id
              WHERE r.user_id = $1 AND r.accepted
              ORDER BY r.event_id ASC, r.at_time ASC, r.seq ASC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.UserEventRecord
	for rows.Next() {
		var rec model.UserEventRecord
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.UserID, &rec.Action, &rec.AtTime, &rec.Accepted, &rec.AccuracyMeters, &rec.EventEndTime); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountCompletedEvents counts the user's accepted signups whose event has
// already ended, regardless of recorded attendance.
func (r *AttendanceLedgerRepository) CountCompletedEvents(ctx context.Context, userID string, now time.Time) (int, error) {
	return r.countSignups(ctx, userID, `e.end_time < $2`, now)
}

// CountUpcomingEvents counts the user's accepted signups whose event has
// not started yet.
func (r *AttendanceLedgerRepository) CountUpcomingEvents(ctx context.Context, userID string, now time.Time) (int, error) {
	return r.countSignups(ctx, userID, `e.start_time > $2`, now)
}

func (r *AttendanceLedgerRepository) countSignups(ctx context.Context, userID, timeCond string, now time.Time) (int, error) {
	query := `SELECT COUNT(*)
              FROM event_signups s
              JOIN events e ON e.id = s.event_id
              WHERE s.user_id = $1 AND s.status = 'ACCEPTED' AND ` + timeCond

	var count int
	if err := r.DB.QueryRowContext(ctx, query, userID, now).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
