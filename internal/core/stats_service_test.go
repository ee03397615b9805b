package core

import (
	"context"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRec(eventID string, action model.AttendanceAction, at, eventEnd time.Time) model.UserEventRecord {
	return model.UserEventRecord{
		AttendanceRecord: model.AttendanceRecord{
			EventID:  eventID,
			UserID:   testUserID,
			Action:   action,
			AtTime:   at,
			Accepted: true,
		},
		EventEndTime: eventEnd,
	}
}

func TestVolunteerStatsZeroForUnknownUser(t *testing.T) {
	ledger := &fakeLedger{}
	clock := &fakeClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	stats := NewStatsService(ledger, clock)

	got, err := stats.VolunteerStats(context.Background(), "usr-nobody")
	require.NoError(t, err)
	assert.Equal(t, model.VolunteerStats{}, got)
}

func TestVolunteerStatsCapsOpenIntervalAtEventEnd(t *testing.T) {
	// Signed in at 10:00, never signed out, event ended 11:00. Checked a
	// week later the event must still report exactly 60 minutes.
	signIn := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	eventEnd := signIn.Add(time.Hour)

	ledger := &fakeLedger{
		userRecords: []model.UserEventRecord{
			userRec("evt-1", model.ActionSignIn, signIn, eventEnd),
		},
	}
	clock := &fakeClock{now: signIn.Add(7 * 24 * time.Hour)}
	stats := NewStatsService(ledger, clock)

	got, err := stats.VolunteerStats(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), got.TotalMinutes)
	assert.Equal(t, 1.0, got.TotalHours)
}

func TestVolunteerStatsOpenIntervalOfRunningEventUsesNow(t *testing.T) {
	signIn := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	eventEnd := signIn.Add(2 * time.Hour)

	ledger := &fakeLedger{
		userRecords: []model.UserEventRecord{
			userRec("evt-1", model.ActionSignIn, signIn, eventEnd),
		},
	}
	clock := &fakeClock{now: signIn.Add(25 * time.Minute)}
	stats := NewStatsService(ledger, clock)

	got, err := stats.VolunteerStats(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.TotalMinutes)
}

func TestVolunteerStatsSumsAcrossEvents(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	endA := base.Add(2 * time.Hour)
	endB := base.Add(26 * time.Hour)

	ledger := &fakeLedger{
		userRecords: []model.UserEventRecord{
			userRec("evt-a", model.ActionSignIn, base, endA),
			userRec("evt-a", model.ActionSignOut, base.Add(30*time.Minute), endA),
			userRec("evt-b", model.ActionSignIn, base.Add(24*time.Hour), endB),
			userRec("evt-b", model.ActionSignOut, base.Add(24*time.Hour+time.Hour), endB),
		},
		completed: 2,
		upcoming:  3,
	}
	clock := &fakeClock{now: base.Add(48 * time.Hour)}
	stats := NewStatsService(ledger, clock)

	got, err := stats.VolunteerStats(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(90), got.TotalMinutes)
	assert.Equal(t, 1.5, got.TotalHours)
	assert.Equal(t, 2, got.JobsCompleted)
	assert.Equal(t, 3, got.UpcomingJobs)
}

func TestVolunteerStatsRoundsHoursToOneDecimal(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	end := base.Add(2 * time.Hour)

	// 100 minutes = 1.666... hours, rounds to 1.7.
	ledger := &fakeLedger{
		userRecords: []model.UserEventRecord{
			userRec("evt-a", model.ActionSignIn, base, end),
			userRec("evt-a", model.ActionSignOut, base.Add(100*time.Minute), end),
		},
	}
	clock := &fakeClock{now: end}
	stats := NewStatsService(ledger, clock)

	got, err := stats.VolunteerStats(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.TotalMinutes)
	assert.Equal(t, 1.7, got.TotalHours)
}

func TestVolunteerStatsCountsDelegatedEvenWithoutRecords(t *testing.T) {
	// jobsCompleted/upcomingJobs come from signups, independent of whether
	// any attendance was ever recorded.
	ledger := &fakeLedger{completed: 4, upcoming: 1}
	clock := &fakeClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	stats := NewStatsService(ledger, clock)

	got, err := stats.VolunteerStats(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.TotalMinutes)
	assert.Equal(t, 4, got.JobsCompleted)
	assert.Equal(t, 1, got.UpcomingJobs)
}
