package model

import (
	"time"
)

// AttendanceAction is the kind of attempt recorded in the ledger.
type AttendanceAction string

const (
	ActionSignIn  AttendanceAction = "SIGN_IN"
	ActionSignOut AttendanceAction = "SIGN_OUT"
)

// EventWindow is the slice of an event this service cares about: when
// sign-in eligibility opens and closes. The Events subsystem owns the rest.
type EventWindow struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// AttendanceRecord is a single ledger entry. The ledger is append-only:
// rows are never updated or deleted. Rejected attempts are kept for audit
// and excluded from derived state.
type AttendanceRecord struct {
	ID             string           `json:"id"`
	EventID        string           `json:"eventId"`
	UserID         string           `json:"userId"`
	Action         AttendanceAction `json:"action"`
	AtTime         time.Time        `json:"atTime"`
	Accepted       bool             `json:"accepted"`
	AccuracyMeters *float64         `json:"accuracyMeters,omitempty"`
}

// UserEventRecord is a ledger entry annotated with its event's end time,
// used when aggregating minutes across events.
type UserEventRecord struct {
	AttendanceRecord
	EventEndTime time.Time `json:"eventEndTime"`
}

// Location is the coordinate reported with a sign-in attempt.
type Location struct {
	Lon            float64  `json:"lon"`
	Lat            float64  `json:"lat"`
	AccuracyMeters *float64 `json:"accuracyMeters,omitempty"`
}

// AttendanceStatus is derived from the accepted ledger entries on every
// read; it is never persisted.
type AttendanceStatus struct {
	IsSignedIn   bool  `json:"isSignedIn"`
	TotalMinutes int64 `json:"totalMinutes"`
}

// SignInRules tells the UI what the volunteer may do right now.
type SignInRules struct {
	CanSignIn  bool   `json:"canSignIn"`
	CanSignOut bool   `json:"canSignOut"`
	Reason     string `json:"reason,omitempty"`
}

// StatusView is the shape the status endpoint exposes for UI polling.
type StatusView struct {
	Status AttendanceStatus `json:"status"`
	Rules  SignInRules      `json:"rules"`
}

// VolunteerStats aggregates a volunteer's attendance across all events.
type VolunteerStats struct {
	TotalMinutes  int64   `json:"totalMinutes"`
	TotalHours    float64 `json:"totalHours"`
	JobsCompleted int     `json:"jobsCompleted"`
	UpcomingJobs  int     `json:"upcomingJobs"`
}

// ForbiddenKind classifies why a sign-in/sign-out attempt was refused.
type ForbiddenKind string

const (
	ForbiddenEventNotFound     ForbiddenKind = "EVENT_NOT_FOUND"
	ForbiddenOutsideTimeWindow ForbiddenKind = "OUTSIDE_TIME_WINDOW"
	ForbiddenAlreadySignedIn   ForbiddenKind = "ALREADY_SIGNED_IN"
	ForbiddenInvalidLocation   ForbiddenKind = "INVALID_LOCATION"
	ForbiddenOutsideGeofence   ForbiddenKind = "OUTSIDE_GEOFENCE"
	ForbiddenConcurrentSignIn  ForbiddenKind = "CONCURRENT_SIGN_IN"
)

// Forbidden describes a refused domain decision. It is a result value, not
// an error: infrastructure failures travel on the error return instead, so
// the two classes stay distinguishable to callers.
type Forbidden struct {
	Kind    ForbiddenKind `json:"kind"`
	Message string        `json:"message"`
}

// SignInResult is the outcome of a sign-in attempt. Forbidden is nil when
// the attempt was accepted.
type SignInResult struct {
	Status    AttendanceStatus
	Forbidden *Forbidden
}

// SignOutResult is the outcome of a sign-out attempt. Sign-out is currently
// never refused, but the shape mirrors SignInResult so the handler treats
// both uniformly.
type SignOutResult struct {
	Status    AttendanceStatus
	Forbidden *Forbidden
}
