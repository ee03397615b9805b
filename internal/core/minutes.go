package core

import (
	"time"

	"attendance.service/internal/core/model"
)

// accumulate folds accepted ledger entries (oldest first) into the banked
// duration of closed intervals plus the start of any still-open interval.
// A sign-in while an interval is already open overwrites it rather than
// failing: the alternation invariant can be broken by concurrent writers
// and replay must stay total.
func accumulate(records []model.AttendanceRecord) (banked time.Duration, openAt *time.Time) {
	for _, rec := range records {
		switch rec.Action {
		case model.ActionSignIn:
			at := rec.AtTime
			openAt = &at
		case model.ActionSignOut:
			banked = closeInterval(banked, openAt, rec.AtTime)
			openAt = nil
		}
	}
	return banked, openAt
}

// closeInterval adds the interval [*openAt, upTo] to the running total.
// Clock skew can produce a sign-out before its sign-in; such intervals
// count as zero, never negative.
func closeInterval(banked time.Duration, openAt *time.Time, upTo time.Time) time.Duration {
	if openAt == nil {
		return banked
	}
	if d := upTo.Sub(*openAt); d > 0 {
		banked += d
	}
	return banked
}

// minutesOf truncates a duration to whole minutes. Minutes worked are
// floored, never rounded up.
func minutesOf(d time.Duration) int64 {
	return int64(d / time.Minute)
}
