package core

import (
	"time"

	"attendance.service/internal/core/model"
)

// EarlySignInGrace is how long before an event starts that sign-in opens.
const EarlySignInGrace = 5 * time.Minute

const (
	reasonEventNotFound   = "Event not found"
	reasonTooEarly        = "You can sign in starting 5 minutes before the event starts."
	reasonEventEnded      = "This event has ended"
	reasonAlreadySignedIn = "You are already signed in to this event."
	reasonMissingLocation = "Missing or invalid location for sign-in."
	reasonOutsideGeofence = "You must be within the event geofence to sign in."
)

// EvaluateSignInRules decides sign-in/out eligibility for one event at one
// instant. Pure; safe to call on every status poll.
func EvaluateSignInRules(ev *model.EventWindow, now time.Time, signedIn bool) model.SignInRules {
	if ev == nil {
		return model.SignInRules{Reason: reasonEventNotFound}
	}
	if now.Before(ev.StartTime.Add(-EarlySignInGrace)) {
		return model.SignInRules{Reason: reasonTooEarly}
	}
	if now.After(ev.EndTime) {
		return model.SignInRules{Reason: reasonEventEnded}
	}
	if signedIn {
		return model.SignInRules{CanSignOut: true, Reason: reasonAlreadySignedIn}
	}
	return model.SignInRules{CanSignIn: true}
}
