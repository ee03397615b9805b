package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
)

// StatsService aggregates a volunteer's attendance across every event for
// profile reporting. It only reads the ledger and event metadata.
type StatsService struct {
	ledger ports.AttendanceLedger
	clock  Clock
}

func NewStatsService(ledger ports.AttendanceLedger, clock Clock) *StatsService {
	return &StatsService{ledger: ledger, clock: clock}
}

// VolunteerStats replays the user's accepted actions per event and combines
// the summed minutes with completed/upcoming signup counts. An event the
// user never signed out of accrues minutes only up to min(now, event end):
// an ended event must not keep accumulating time. A user with no records
// and no signups gets all zeros, never an error.
func (s *StatsService) VolunteerStats(ctx context.Context, userID string) (model.VolunteerStats, error) {
	now := s.clock.Now()

	records, err := s.ledger.AcceptedForUser(ctx, userID)
	if err != nil {
		return model.VolunteerStats{}, fmt.Errorf("failed to load attendance for user %s: %w", userID, err)
	}

	totalMinutes := sumMinutesPerEvent(records, now)

	completed, err := s.ledger.CountCompletedEvents(ctx, userID, now)
	if err != nil {
		return model.VolunteerStats{}, fmt.Errorf("failed to count completed events: %w", err)
	}
	upcoming, err := s.ledger.CountUpcomingEvents(ctx, userID, now)
	if err != nil {
		return model.VolunteerStats{}, fmt.Errorf("failed to count upcoming events: %w", err)
	}

	return model.VolunteerStats{
		TotalMinutes:  totalMinutes,
		TotalHours:    math.Round(float64(totalMinutes)/60*10) / 10,
		JobsCompleted: completed,
		UpcomingJobs:  upcoming,
	}, nil
}

// sumMinutesPerEvent walks records grouped by event (the ledger returns
// them grouped, oldest first within each event) and sums each event's
// floored minutes.
func sumMinutesPerEvent(records []model.UserEventRecord, now time.Time) int64 {
	var total int64

	flush := func(group []model.AttendanceRecord, eventEnd time.Time) {
		if len(group) == 0 {
			return
		}
		banked, openAt := accumulate(group)
		upTo := now
		if eventEnd.Before(now) {
			upTo = eventEnd
		}
		total += minutesOf(closeInterval(banked, openAt, upTo))
	}

	var group []model.AttendanceRecord
	var groupEventID string
	var groupEnd time.Time
	for _, rec := range records {
		if rec.EventID != groupEventID {
			flush(group, groupEnd)
			group = group[:0]
			groupEventID = rec.EventID
			groupEnd = rec.EventEndTime
		}
		group = append(group, rec.AttendanceRecord)
	}
	flush(group, groupEnd)

	return total
}
