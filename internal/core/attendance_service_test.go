package core

import (
	"context"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventID = "evt-1"
	testUserID  = "usr-1"
)

type serviceFixture struct {
	service *AttendanceService
	ledger  *fakeLedger
	fences  *fakeFences
	pub     *fakePublisher
	clock   *fakeClock
	start   time.Time
}

// newFixture wires a service against an event running [start, start+2h]
// with the clock at start and the volunteer inside the geofence.
func newFixture() *serviceFixture {
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	events := &fakeEvents{events: map[string]*model.EventWindow{
		testEventID: {ID: testEventID, StartTime: start, EndTime: start.Add(2 * time.Hour)},
	}}
	ledger := &fakeLedger{}
	fences := &fakeFences{inside: true}
	pub := &fakePublisher{}
	clock := &fakeClock{now: start}

	return &serviceFixture{
		service: NewAttendanceService(events, fences, ledger, pub, clock),
		ledger:  ledger,
		fences:  fences,
		pub:     pub,
		clock:   clock,
		start:   start,
	}
}

func location() *model.Location {
	acc := 8.0
	return &model.Location{Lon: 13.4049, Lat: 52.52, AccuracyMeters: &acc}
}

func TestSignInAccepted(t *testing.T) {
	f := newFixture()
	f.clock.now = f.start.Add(5 * time.Minute)

	res, err := f.service.SignIn(context.Background(), testEventID, testUserID, location())
	require.NoError(t, err)
	require.Nil(t, res.Forbidden)
	assert.True(t, res.Status.IsSignedIn)
	assert.Equal(t, int64(0), res.Status.TotalMinutes)

	require.Len(t, f.ledger.records, 1)
	assert.Equal(t, model.ActionSignIn, f.ledger.records[0].Action)
	assert.True(t, f.ledger.records[0].Accepted)
}

func TestSignInEventNotFound(t *testing.T) {
	f := newFixture()

	res, err := f.service.SignIn(context.Background(), "evt-missing", testUserID, location())
	require.NoError(t, err)
	require.NotNil(t, res.Forbidden)
	assert.Equal(t, model.ForbiddenEventNotFound, res.Forbidden.Kind)
	assert.Equal(t, "Event not found", res.Forbidden.Message)
	assert.Empty(t, f.ledger.records, "precondition failures must not touch the ledger")
}

func TestSignInOutsideTimeWindow(t *testing.T) {
	f := newFixture()

	t.Run("too early", func(t *testing.T) {
		f.clock.now = f.start.Add(-time.Hour)
		res, err := f.service.SignIn(context.Background(), testEventID, testUserID, location())
		require.NoError(t, err)
		require.NotNil(t, res.Forbidden)
		assert.Equal(t, model.ForbiddenOutsideTimeWindow, res.Forbidden.Kind)
		assert.Contains(t, res.Forbidden.Message, "5 minutes before the event starts")
	})

	t.Run("after end", func(t *testing.T) {
		f.clock.now = f.start.Add(3 * time.Hour)
		res, err := f.service.SignIn(context.Background(), testEventID, testUserID, location())
		require.NoError(t, err)
		require.NotNil(t, res.Forbidden)
		assert.Equal(t, model.ForbiddenOutsideTimeWindow, res.Forbidden.Kind)
		assert.Equal(t, "This event has ended", res.Forbidden.Message)
	})

	assert.Empty(t, f.ledger.records, "time-window failures must not touch the ledger")
}

func TestSignInMissingLocation(t *testing.T) {
	f := newFixture()
	f.clock.now = f.start

	res, err := f.service.SignIn(context.Background(), testEventID, testUserID, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Forbidden)
	assert.Equal(t, model.ForbiddenInvalidLocation, res.Forbidden.Kind)
	assert.Equal(t, "Missing or invalid location for sign-in.", res.Forbidden.Message)
	assert.Empty(t, f.ledger.records)
}

func TestSignInOutsideGeofenceIsAuditLogged(t *testing.T) {
	f := newFixture()
	f.clock.now = f.start
	f.fences.inside = false

	res, err := f.service.SignIn(context.Background(), testEventID, testUserID, location())
	require.NoError(t, err)
	require.NotNil(t, res.Forbidden)
	assert.Equal(t, model.ForbiddenOutsideGeofence, res.Forbidden.Kind)
	assert.Equal(t, "You must be within the event geofence to sign in.", res.Forbidden.Message)

	// The rejected attempt is kept for audit but contributes nothing to
	// derived state.
	require.Len(t, f.ledger.records, 1)
	assert.False(t, f.ledger.records[0].Accepted)
	assert.False(t, res.Status.IsSignedIn)
	assert.Equal(t, int64(0), res.Status.TotalMinutes)
}

func TestSignInWhileSignedIn(t *testing.T) {
	f := newFixture()
	f.clock.now = f.start

	_, err := f.service.SignIn(context.Background(), testEventID, testUserID, location())
	require.NoError(t, err)

	res, err := f.service.SignIn(context.Background(), testEventID, testUserID, location())
	require.NoError(t, err)
	require.NotNil(t, res.Forbidden)
	assert.Equal(t, model.ForbiddenAlreadySignedIn, res.Forbidden.Kind)
	assert.Len(t, f.ledger.records, 1, "the refused attempt must not be appended")
}

func TestSignInConcurrentConflict(t *testing.T) {
	f := newFixture()
	f.clock.now = f.start
	f.ledger.conflictOnSignIn = true

	res, err := f.service.SignIn(context.Background(), testEventID, testUserID, location())
	require.NoError(t, err, "a lost race is a forbidden outcome, not an infrastructure error")
	require.NotNil(t, res.Forbidden)
	assert.Equal(t, model.ForbiddenConcurrentSignIn, res.Forbidden.Kind)
}

func TestSignOutWhenNotSignedInIsIdempotentNoOp(t *testing.T) {
	f := newFixture()
	f.clock.now = f.start

	res, err := f.service.SignOut(context.Background(), testEventID, testUserID, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Forbidden)
	assert.False(t, res.Status.IsSignedIn)
	assert.Empty(t, f.ledger.records, "no-op sign-out must not write a ledger record")
	assert.Empty(t, f.pub.hours)
}

func TestSignInSignOutRoundTrip(t *testing.T) {
	f := newFixture()

	f.clock.now = f.start.Add(5 * time.Minute)
	_, err := f.service.SignIn(context.Background(), testEventID, testUserID, location())
	require.NoError(t, err)

	f.clock.now = f.start.Add(35 * time.Minute)
	res, err := f.service.SignOut(context.Background(), testEventID, testUserID, nil)
	require.NoError(t, err)

	assert.False(t, res.Status.IsSignedIn)
	assert.Equal(t, int64(30), res.Status.TotalMinutes)

	// The sign-out fans out to the hours and email queues.
	require.Len(t, f.pub.hours, 1)
	assert.Equal(t, int64(30), f.pub.hours[0].TotalMinutes)
	require.Len(t, f.pub.emails, 1)
	assert.Equal(t, testUserID, f.pub.emails[0].UserID)
}

func TestStatusAccumulatesBankedAndOpenMinutes(t *testing.T) {
	f := newFixture()

	f.clock.now = f.start.Add(5 * time.Minute)
	_, err := f.service.SignIn(context.Background(), testEventID, testUserID, location())
	require.NoError(t, err)

	f.clock.now = f.start.Add(35 * time.Minute)
	_, err = f.service.SignOut(context.Background(), testEventID, testUserID, nil)
	require.NoError(t, err)

	f.clock.now = f.start.Add(40 * time.Minute)
	_, err = f.service.SignIn(context.Background(), testEventID, testUserID, location())
	require.NoError(t, err)

	// 30 banked + 10 live from the open interval.
	f.clock.now = f.start.Add(50 * time.Minute)
	view, err := f.service.Status(context.Background(), testEventID, testUserID)
	require.NoError(t, err)
	assert.True(t, view.Status.IsSignedIn)
	assert.Equal(t, int64(40), view.Status.TotalMinutes)
	assert.False(t, view.Rules.CanSignIn)
	assert.True(t, view.Rules.CanSignOut)
}

func TestStatusForUnknownEvent(t *testing.T) {
	f := newFixture()

	view, err := f.service.Status(context.Background(), "evt-missing", testUserID)
	require.NoError(t, err)
	assert.False(t, view.Rules.CanSignIn)
	assert.False(t, view.Rules.CanSignOut)
	assert.Equal(t, "Event not found", view.Rules.Reason)
}

func TestSignOutSucceedsWhenPublishFails(t *testing.T) {
	f := newFixture()
	f.clock.now = f.start

	_, err := f.service.SignIn(context.Background(), testEventID, testUserID, location())
	require.NoError(t, err)

	f.pub.err = assert.AnError
	f.clock.now = f.start.Add(10 * time.Minute)
	res, err := f.service.SignOut(context.Background(), testEventID, testUserID, nil)
	require.NoError(t, err, "the ledger row is committed; publish failures must not fail the request")
	assert.Equal(t, int64(10), res.Status.TotalMinutes)
}

func TestSignInInfraErrorPropagates(t *testing.T) {
	f := newFixture()
	f.clock.now = f.start
	f.fences.err = assert.AnError

	_, err := f.service.SignIn(context.Background(), testEventID, testUserID, location())
	require.Error(t, err, "infrastructure failures must stay distinguishable from forbidden outcomes")
}
