package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
	"attendance.service/internal/ports/messaging"
)

// fakeClock is a settable clock so tests can move time forward explicitly.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeEvents struct {
	events map[string]*model.EventWindow
	err    error
}

func (f *fakeEvents) GetEventWindow(_ context.Context, eventID string) (*model.EventWindow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events[eventID], nil
}

type fakeFences struct {
	inside bool
	err    error
}

func (f *fakeFences) IsInsideAnyFence(context.Context, string, float64, float64) (bool, error) {
	return f.inside, f.err
}

// fakeLedger is an in-memory append-only ledger.
type fakeLedger struct {
	records     []model.AttendanceRecord
	userRecords []model.UserEventRecord
	completed   int
	upcoming    int

	conflictOnSignIn bool
	err              error
}

func (f *fakeLedger) Append(_ context.Context, eventID, userID string, action model.AttendanceAction, at time.Time, accepted bool, accuracyMeters *float64) (*model.AttendanceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec := model.AttendanceRecord{
		ID:             fmt.Sprintf("rec-%d", len(f.records)+1),
		EventID:        eventID,
		UserID:         userID,
		Action:         action,
		AtTime:         at,
		Accepted:       accepted,
		AccuracyMeters: accuracyMeters,
	}
	f.records = append(f.records, rec)
	return &rec, nil
}

func (f *fakeLedger) AppendAcceptedSignIn(ctx context.Context, eventID, userID string, at time.Time, accuracyMeters *float64) (*model.AttendanceRecord, error) {
	if f.conflictOnSignIn {
		return nil, ports.ErrAlreadySignedIn
	}
	return f.Append(ctx, eventID, userID, model.ActionSignIn, at, true, accuracyMeters)
}

func (f *fakeLedger) LastAccepted(_ context.Context, eventID, userID string) (*model.AttendanceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := len(f.records) - 1; i >= 0; i-- {
		rec := f.records[i]
		if rec.EventID == eventID && rec.UserID == userID && rec.Accepted {
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) AcceptedFor(_ context.Context, eventID, userID string) ([]model.AttendanceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.AttendanceRecord
	for _, rec := range f.records {
		if rec.EventID == eventID && rec.UserID == userID && rec.Accepted {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeLedger) AcceptedForUser(_ context.Context, userID string) ([]model.UserEventRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.UserEventRecord
	for _, rec := range f.userRecords {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeLedger) CountCompletedEvents(context.Context, string, time.Time) (int, error) {
	return f.completed, f.err
}

func (f *fakeLedger) CountUpcomingEvents(context.Context, string, time.Time) (int, error) {
	return f.upcoming, f.err
}

type fakePublisher struct {
	hours  []messaging.HoursEvent
	emails []messaging.EmailEvent
	err    error
}

func (f *fakePublisher) PublishHours(_ context.Context, body interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.hours = append(f.hours, body.(messaging.HoursEvent))
	return nil
}

func (f *fakePublisher) PublishEmail(_ context.Context, body interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.emails = append(f.emails, body.(messaging.EmailEvent))
	return nil
}
