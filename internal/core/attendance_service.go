package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
	"attendance.service/internal/ports/messaging"
	"github.com/rs/zerolog/log"
)

// AttendanceService is the sign-in/sign-out state machine. Per (event,user)
// the state is SignedOut or SignedIn and is derived from the most recent
// accepted ledger record on every request; nothing is cached in process.
type AttendanceService struct {
	events   ports.EventDirectory
	fences   ports.GeofenceChecker
	ledger   ports.AttendanceLedger
	producer messaging.QueuePublisher
	clock    Clock
}

// NewAttendanceService wires the state machine to its collaborators.
func NewAttendanceService(events ports.EventDirectory, fences ports.GeofenceChecker, ledger ports.AttendanceLedger, producer messaging.QueuePublisher, clock Clock) *AttendanceService {
	return &AttendanceService{
		events:   events,
		fences:   fences,
		ledger:   ledger,
		producer: producer,
		clock:    clock,
	}
}

// SignIn processes a sign-in attempt. Time-window and location failures are
// refused without touching the ledger; a geofence failure is appended as a
// rejected record so organizers can audit the attempt.
func (s *AttendanceService) SignIn(ctx context.Context, eventID, userID string, loc *model.Location) (model.SignInResult, error) {
	now := s.clock.Now()

	ev, err := s.events.GetEventWindow(ctx, eventID)
	if err != nil {
		return model.SignInResult{}, fmt.Errorf("failed to look up event %s: %w", eventID, err)
	}
	if ev == nil {
		return s.refuseSignIn(ctx, eventID, userID, now, model.ForbiddenEventNotFound, reasonEventNotFound)
	}

	signedIn, err := s.isSignedIn(ctx, eventID, userID)
	if err != nil {
		return model.SignInResult{}, err
	}

	rules := EvaluateSignInRules(ev, now, signedIn)
	if !rules.CanSignIn {
		kind := model.ForbiddenOutsideTimeWindow
		if rules.CanSignOut {
			kind = model.ForbiddenAlreadySignedIn
		}
		return s.refuseSignIn(ctx, eventID, userID, now, kind, rules.Reason)
	}

	if !validLocation(loc) {
		return s.refuseSignIn(ctx, eventID, userID, now, model.ForbiddenInvalidLocation, reasonMissingLocation)
	}

	inside, err := s.fences.IsInsideAnyFence(ctx, eventID, loc.Lon, loc.Lat)
	if err != nil {
		return model.SignInResult{}, fmt.Errorf("failed to check geofence for event %s: %w", eventID, err)
	}
	if !inside {
		if _, err := s.ledger.Append(ctx, eventID, userID, model.ActionSignIn, now, false, loc.AccuracyMeters); err != nil {
			return model.SignInResult{}, fmt.Errorf("failed to record rejected sign-in: %w", err)
		}
		return s.refuseSignIn(ctx, eventID, userID, now, model.ForbiddenOutsideGeofence, reasonOutsideGeofence)
	}

	if _, err := s.ledger.AppendAcceptedSignIn(ctx, eventID, userID, now, loc.AccuracyMeters); err != nil {
		if errors.Is(err, ports.ErrAlreadySignedIn) {
			// A concurrent request won the read-check-write race; the
			// storage-level guard kept the ledger alternating.
			return s.refuseSignIn(ctx, eventID, userID, now, model.ForbiddenConcurrentSignIn, reasonAlreadySignedIn)
		}
		return model.SignInResult{}, fmt.Errorf("failed to record sign-in: %w", err)
	}

	status, err := s.computeStatus(ctx, eventID, userID, now)
	if err != nil {
		return model.SignInResult{}, err
	}
	return model.SignInResult{Status: status}, nil
}

// SignOut processes a sign-out. Signing out while signed out is an
// idempotent no-op: the current status is returned and no ledger row is
// written. Sign-out is not geofence-gated.
func (s *AttendanceService) SignOut(ctx context.Context, eventID, userID string, accuracyMeters *float64) (model.SignOutResult, error) {
	now := s.clock.Now()

	signedIn, err := s.isSignedIn(ctx, eventID, userID)
	if err != nil {
		return model.SignOutResult{}, err
	}
	if !signedIn {
		status, err := s.computeStatus(ctx, eventID, userID, now)
		if err != nil {
			return model.SignOutResult{}, err
		}
		return model.SignOutResult{Status: status}, nil
	}

	rec, err := s.ledger.Append(ctx, eventID, userID, model.ActionSignOut, now, true, accuracyMeters)
	if err != nil {
		return model.SignOutResult{}, fmt.Errorf("failed to record sign-out: %w", err)
	}

	status, err := s.computeStatus(ctx, eventID, userID, now)
	if err != nil {
		return model.SignOutResult{}, err
	}

	s.publishSignOut(ctx, rec, status)

	return model.SignOutResult{Status: status}, nil
}

// Status recomputes the derived attendance status and the current sign-in
// rules together; this is the shape the status endpoint exposes for polling.
func (s *AttendanceService) Status(ctx context.Context, eventID, userID string) (model.StatusView, error) {
	now := s.clock.Now()

	ev, err := s.events.GetEventWindow(ctx, eventID)
	if err != nil {
		return model.StatusView{}, fmt.Errorf("failed to look up event %s: %w", eventID, err)
	}

	status, err := s.computeStatus(ctx, eventID, userID, now)
	if err != nil {
		return model.StatusView{}, err
	}

	return model.StatusView{
		Status: status,
		Rules:  EvaluateSignInRules(ev, now, status.IsSignedIn),
	}, nil
}

// isSignedIn derives the current state from the ledger: the action of the
// most recent accepted record, with no records meaning SignedOut.
func (s *AttendanceService) isSignedIn(ctx context.Context, eventID, userID string) (bool, error) {
	last, err := s.ledger.LastAccepted(ctx, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load last accepted action: %w", err)
	}
	return last != nil && last.Action == model.ActionSignIn, nil
}

// computeStatus replays the accepted records for the pair into a derived
// status, counting a still-open interval up to now.
func (s *AttendanceService) computeStatus(ctx context.Context, eventID, userID string, now time.Time) (model.AttendanceStatus, error) {
	records, err := s.ledger.AcceptedFor(ctx, eventID, userID)
	if err != nil {
		return model.AttendanceStatus{}, fmt.Errorf("failed to load accepted attendance: %w", err)
	}

	banked, openAt := accumulate(records)
	total := closeInterval(banked, openAt, now)

	return model.AttendanceStatus{
		IsSignedIn:   openAt != nil,
		TotalMinutes: minutesOf(total),
	}, nil
}

// refuseSignIn builds a forbidden result carrying the current derived
// status, so the UI can render state alongside the refusal.
func (s *AttendanceService) refuseSignIn(ctx context.Context, eventID, userID string, now time.Time, kind model.ForbiddenKind, message string) (model.SignInResult, error) {
	status, err := s.computeStatus(ctx, eventID, userID, now)
	if err != nil {
		return model.SignInResult{}, err
	}
	return model.SignInResult{
		Status:    status,
		Forbidden: &model.Forbidden{Kind: kind, Message: message},
	}, nil
}

// publishSignOut emits the hours and email events for an accepted sign-out.
// The ledger row is already committed at this point, so publish failures are
// logged instead of failing the request; the workers lean on SQS redelivery.
func (s *AttendanceService) publishSignOut(ctx context.Context, rec *model.AttendanceRecord, status model.AttendanceStatus) {
	if err := s.producer.PublishHours(ctx, messaging.HoursEvent{
		RecordID:     rec.ID,
		EventID:      rec.EventID,
		UserID:       rec.UserID,
		TotalMinutes: status.TotalMinutes,
		SignOutTime:  rec.AtTime,
	}); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event_id", rec.EventID).Msg("Failed to publish hours event")
	}

	if err := s.producer.PublishEmail(ctx, messaging.EmailEvent{
		RecordID:     rec.ID,
		EventID:      rec.EventID,
		UserID:       rec.UserID,
		TotalMinutes: status.TotalMinutes,
		OccurredAt:   s.clock.Now(),
	}); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event_id", rec.EventID).Msg("Failed to publish email event")
	}
}

// validLocation requires a present coordinate with finite components.
func validLocation(loc *model.Location) bool {
	if loc == nil {
		return false
	}
	if math.IsNaN(loc.Lon) || math.IsInf(loc.Lon, 0) {
		return false
	}
	if math.IsNaN(loc.Lat) || math.IsInf(loc.Lat, 0) {
		return false
	}
	return true
}
