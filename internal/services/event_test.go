package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxcyking/ngo-library-sub001/internal/database/memstore"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

func newEventFixture(t *testing.T) (*memstore.Store, *EventService, *RegistrationService, *testClock) {
	t.Helper()
	clock := newTestClock()
	store := memstore.New()
	store.SetClock(clock.Now)

	events := NewEventService(store, testLogger())
	events.SetClock(clock.Now)
	regs := NewRegistrationService(store, testLogger())
	regs.SetClock(clock.Now)
	return store, events, regs, clock
}

func createEvent(t *testing.T, events *EventService, clock *testClock, maxParticipants *int32) *models.EventResponse {
	t.Helper()
	event, err := events.CreateEvent(context.Background(), models.CreateEventRequest{
		Title:              "Reading Circle",
		TitleLocal:         stringPtr("पठन मंडली"),
		Location:           "Community Hall",
		EventDate:          clock.Now().Add(7 * 24 * time.Hour),
		MaxParticipants:    maxParticipants,
		IsRegistrationOpen: true,
		Status:             models.EventStatusPublished,
	}, 1)
	require.NoError(t, err)
	return event
}

func TestEventService_CreateEvent(t *testing.T) {
	_, events, _, clock := newEventFixture(t)

	draft, err := events.CreateEvent(context.Background(), models.CreateEventRequest{
		Title:     "  Book Fair ",
		EventDate: clock.Now().Add(48 * time.Hour),
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Book Fair", draft.Title)
	assert.Equal(t, models.EventStatusDraft, draft.Status)
	assert.False(t, draft.CanRegister)

	_, err = events.CreateEvent(context.Background(), models.CreateEventRequest{
		Title:     "Backwards",
		EventDate: clock.Now().Add(48 * time.Hour),
		EndDate:   timePtr(clock.Now().Add(24 * time.Hour)),
	}, 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = events.CreateEvent(context.Background(), models.CreateEventRequest{
		Title:                "Late deadline",
		EventDate:            clock.Now().Add(48 * time.Hour),
		RegistrationDeadline: timePtr(clock.Now().Add(72 * time.Hour)),
	}, 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEventService_DerivedStatus(t *testing.T) {
	ctx := context.Background()
	_, events, _, clock := newEventFixture(t)

	event, err := events.CreateEvent(ctx, models.CreateEventRequest{
		Title:              "Workshop",
		EventDate:          clock.Now().Add(time.Hour),
		EndDate:            timePtr(clock.Now().Add(3 * time.Hour)),
		IsRegistrationOpen: true,
		Status:             models.EventStatusPublished,
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusPublished, event.Status)
	assert.True(t, event.CanRegister)

	clock.Advance(2 * time.Hour)
	got, err := events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusOngoing, got.Status)

	clock.Advance(2 * time.Hour)
	got, err = events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCompleted, got.Status)
	assert.False(t, got.CanRegister)
}

func TestEventService_PublicViewsHideDrafts(t *testing.T) {
	ctx := context.Background()
	_, events, _, clock := newEventFixture(t)

	published := createEvent(t, events, clock, nil)
	draft, err := events.CreateEvent(ctx, models.CreateEventRequest{
		Title:     "Planning",
		EventDate: clock.Now().Add(24 * time.Hour),
	}, 1)
	require.NoError(t, err)

	_, err = events.GetPublicEvent(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = events.GetPublicEvent(ctx, published.ID)
	assert.NoError(t, err)

	list, err := events.ListPublicEvents(ctx, models.EventListRequest{Status: models.EventStatusDraft})
	require.NoError(t, err)
	require.Len(t, list.Events, 1)
	assert.Equal(t, published.ID, list.Events[0].ID)

	all, err := events.ListEvents(ctx, models.EventListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Events, 2)
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()
	_, events, regs, clock := newEventFixture(t)
	event := createEvent(t, events, clock, int32Ptr(5))

	for _, email := range []string{"a@example.org", "b@example.org"} {
		_, err := regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "P", Email: email})
		require.NoError(t, err)
	}

	_, err := events.UpdateEvent(ctx, event.ID, models.UpdateEventRequest{MaxParticipants: int32Ptr(1)}, 1)
	assert.ErrorIs(t, err, ErrCapacityBelowParticipants)

	updated, err := events.UpdateEvent(ctx, event.ID, models.UpdateEventRequest{
		MaxParticipants: int32Ptr(2),
		Location:        stringPtr("Library Courtyard"),
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Library Courtyard", updated.Location)
	assert.Equal(t, int32(2), updated.CurrentParticipants)
	assert.False(t, updated.CanRegister)

	// An end date before the stored start is checked after merging.
	_, err = events.UpdateEvent(ctx, event.ID, models.UpdateEventRequest{
		EndDate: timePtr(clock.Now()),
	}, 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = events.UpdateEvent(ctx, 999, models.UpdateEventRequest{Title: stringPtr("x")}, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventService_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	_, events, regs, clock := newEventFixture(t)
	event := createEvent(t, events, clock, nil)

	reg, err := regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "P", Email: "p@example.org"})
	require.NoError(t, err)
	assert.ErrorIs(t, events.DeleteEvent(ctx, event.ID), ErrEventHasRegistrations)

	_, err = regs.UpdateStatus(ctx, reg.ID, models.RegistrationStatusCancelled)
	require.NoError(t, err)
	require.NoError(t, events.DeleteEvent(ctx, event.ID))

	_, err = regs.GetRegistration(ctx, reg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, events.DeleteEvent(ctx, event.ID), ErrNotFound)
}
