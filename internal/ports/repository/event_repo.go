package repository

import (
	"context"
	"database/sql"
	"errors"

	"attendance.service/internal/core/model"
)

// EventRepository reads event windows from the events table owned by the
// Events subsystem. This service never writes to it.
type EventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{DB: db}
}

// GetEventWindow returns the event's start/end window, or nil when the
// event does not exist.
func (r *EventRepository) GetEventWindow(ctx context.Context, eventID string) (*model.EventWindow, error) {
	query := `SELECT id, start_time, end_time FROM events WHERE id = $1`

	ev := &model.EventWindow{}
	err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&ev.ID, &ev.StartTime, &ev.EndTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}
