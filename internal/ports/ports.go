package ports

import (
	"context"
	"errors"
	"time"

	"attendance.service/internal/core/model"
)

// ErrAlreadySignedIn is returned by AppendAcceptedSignIn when the
// storage-level open-session guard finds an accepted sign-in that a
// concurrent request committed between our state read and our write.
var ErrAlreadySignedIn = errors.New("open attendance session already exists for event and user")

// EventDirectory exposes the start/end window of events owned by the
// Events subsystem. Read-only from this service's perspective.
type EventDirectory interface {
	// GetEventWindow returns nil (and no error) when the event does not exist.
	GetEventWindow(ctx context.Context, eventID string) (*model.EventWindow, error)
}

// GeofenceChecker reports whether a coordinate falls inside any geofence
// defined for an event. An event with no geofence reads as outside
// (fail-closed); whether that is the intended product behavior is still
// being confirmed, so do not invert it here.
type GeofenceChecker interface {
	IsInsideAnyFence(ctx context.Context, eventID string, lon, lat float64) (bool, error)
}

// AttendanceLedger is the append-only store of sign-in/sign-out attempts.
type AttendanceLedger interface {
	// Append records an attempt without any guard. Used for rejected
	// attempts (audit trail) and for accepted sign-outs.
	Append(ctx context.Context, eventID, userID string, action model.AttendanceAction, at time.Time, accepted bool, accuracyMeters *float64) (*model.AttendanceRecord, error)

	// AppendAcceptedSignIn appends an accepted sign-in under a
	// per-(event,user) lock, re-checking that no session is open.
	// Returns ErrAlreadySignedIn when a concurrent sign-in won the race.
	AppendAcceptedSignIn(ctx context.Context, eventID, userID string, at time.Time, accuracyMeters *float64) (*model.AttendanceRecord, error)

	// LastAccepted returns the most recent accepted record for the pair,
	// or nil when there is none.
	LastAccepted(ctx context.Context, eventID, userID string) (*model.AttendanceRecord, error)

	// AcceptedFor returns all accepted records for the pair, oldest first.
	AcceptedFor(ctx context.Context, eventID, userID string) ([]model.AttendanceRecord, error)

	// AcceptedForUser returns all accepted records for the user across
	// every event, grouped by event and oldest first within each event,
	// each annotated with its event's end time.
	AcceptedForUser(ctx context.Context, userID string) ([]model.UserEventRecord, error)

	// CountCompletedEvents counts the user's accepted event signups whose
	// event ended before now, independent of any attendance records.
	CountCompletedEvents(ctx context.Context, userID string, now time.Time) (int, error)

	// CountUpcomingEvents counts the user's accepted event signups whose
	// event starts after now.
	CountUpcomingEvents(ctx context.Context, userID string, now time.Time) (int, error)
}
