package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

type recordingRegistrationNotifier struct {
	mu   sync.Mutex
	regs []models.RegistrationResponse
}

func (n *recordingRegistrationNotifier) EventRegistered(_ context.Context, _ models.EventResponse, reg models.RegistrationResponse) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.regs = append(n.regs, reg)
}

func TestRegistrationService_SingleSlot(t *testing.T) {
	ctx := context.Background()
	_, events, regs, clock := newEventFixture(t)
	notifier := &recordingRegistrationNotifier{}
	regs.SetNotifier(notifier)
	event := createEvent(t, events, clock, int32Ptr(1))

	first, err := regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "Asha", Email: "Asha@Example.org"})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusRegistered, first.Status)
	assert.Equal(t, "asha@example.org", first.Email)
	assert.Equal(t, "Reading Circle", first.EventTitle)
	assert.NotEmpty(t, first.RegistrationCode)

	_, err = regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "Bilal", Email: "bilal@example.org"})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
	assert.Contains(t, err.Error(), models.ClosedReasonFull)

	got, err := events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.CurrentParticipants)
	assert.Len(t, notifier.regs, 1)
}

func TestRegistrationService_ParallelNeverExceedsCapacity(t *testing.T) {
	ctx := context.Background()
	_, events, regs, clock := newEventFixture(t)
	const capacity = 5
	const n = 30
	event := createEvent(t, events, clock, int32Ptr(capacity))

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = regs.Register(ctx, event.ID, models.RegisterRequest{
				ParticipantName: fmt.Sprintf("Participant %d", i),
				Email:           fmt.Sprintf("p%d@example.org", i),
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.True(t, errors.Is(err, ErrRegistrationClosed), "unexpected error: %v", err)
	}
	assert.Equal(t, capacity, ok)

	got, err := events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(capacity), got.CurrentParticipants)

	list, err := regs.ListRegistrations(ctx, event.ID, "", 1, 100)
	require.NoError(t, err)
	assert.Len(t, list.Registrations, capacity)
}

func TestRegistrationService_ClosedReasons(t *testing.T) {
	ctx := context.Background()
	_, events, regs, clock := newEventFixture(t)

	tests := []struct {
		name   string
		req    models.CreateEventRequest
		reason string
	}{
		{
			name:   "draft",
			req:    models.CreateEventRequest{Title: "Draft", EventDate: clock.Now().Add(time.Hour), IsRegistrationOpen: true},
			reason: models.ClosedReasonNotPublished,
		},
		{
			name: "registration switched off",
			req: models.CreateEventRequest{
				Title: "Closed", EventDate: clock.Now().Add(time.Hour), Status: models.EventStatusPublished,
			},
			reason: models.ClosedReasonNotOpen,
		},
		{
			name: "deadline passed",
			req: models.CreateEventRequest{
				Title: "Deadline", EventDate: clock.Now().Add(48 * time.Hour),
				RegistrationDeadline: timePtr(clock.Now().Add(-time.Hour)),
				IsRegistrationOpen:   true, Status: models.EventStatusPublished,
			},
			reason: models.ClosedReasonDeadlinePassed,
		},
		{
			name: "event ended",
			req: models.CreateEventRequest{
				Title: "Past", EventDate: clock.Now().Add(-48 * time.Hour),
				IsRegistrationOpen: true, Status: models.EventStatusPublished,
			},
			reason: models.ClosedReasonEventEnded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := events.CreateEvent(ctx, tt.req, 1)
			require.NoError(t, err)

			_, err = regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "P", Email: "p@example.org"})
			assert.ErrorIs(t, err, ErrRegistrationClosed)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}

	_, err := regs.Register(ctx, 999, models.RegisterRequest{ParticipantName: "P", Email: "p@example.org"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistrationService_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	_, events, regs, clock := newEventFixture(t)
	event := createEvent(t, events, clock, nil)

	_, err := regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "Asha", Email: "asha@example.org"})
	require.NoError(t, err)
	_, err = regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "Asha", Email: " ASHA@example.org "})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "", Email: "x@example.org"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegistrationService_StatusTransitions(t *testing.T) {
	ctx := context.Background()
	_, events, regs, clock := newEventFixture(t)
	event := createEvent(t, events, clock, int32Ptr(1))

	reg, err := regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "Asha", Email: "asha@example.org"})
	require.NoError(t, err)

	confirmed, err := regs.UpdateStatus(ctx, reg.ID, models.RegistrationStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusConfirmed, confirmed.Status)

	_, err = regs.UpdateStatus(ctx, reg.ID, models.RegistrationStatusRegistered)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	// Cancelling frees the single place for someone else.
	_, err = regs.UpdateStatus(ctx, reg.ID, models.RegistrationStatusCancelled)
	require.NoError(t, err)
	got, err := events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.CurrentParticipants)
	assert.True(t, got.CanRegister)

	_, err = regs.UpdateStatus(ctx, reg.ID, models.RegistrationStatusAttended)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "Bilal", Email: "bilal@example.org"})
	require.NoError(t, err)

	// Bilal took the freed place; Asha is not a duplicate but the event is full again.
	_, err = regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "Asha", Email: "asha@example.org"})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegistrationService_ParallelCancelReleasesOnce(t *testing.T) {
	ctx := context.Background()
	_, events, regs, clock := newEventFixture(t)
	event := createEvent(t, events, clock, int32Ptr(3))

	for _, email := range []string{"a@example.org", "b@example.org"} {
		_, err := regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "P", Email: email})
		require.NoError(t, err)
	}
	list, err := regs.ListRegistrations(ctx, event.ID, "", 1, 10)
	require.NoError(t, err)
	target := list.Registrations[0].ID

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = regs.UpdateStatus(ctx, target, models.RegistrationStatusCancelled)
		}()
	}
	wg.Wait()

	got, err := events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.CurrentParticipants)
}

func TestRegistrationService_LookupByCode(t *testing.T) {
	ctx := context.Background()
	_, events, regs, clock := newEventFixture(t)
	event := createEvent(t, events, clock, nil)

	reg, err := regs.Register(ctx, event.ID, models.RegisterRequest{ParticipantName: "Asha", Email: "asha@example.org"})
	require.NoError(t, err)

	found, err := regs.GetRegistrationByCode(ctx, reg.RegistrationCode)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, found.ID)
	assert.Equal(t, "Reading Circle", found.EventTitle)

	_, err = regs.GetRegistrationByCode(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = regs.GetRegistrationByCode(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	byStatus, err := regs.ListRegistrations(ctx, event.ID, models.RegistrationStatusCancelled, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, byStatus.Registrations)

	_, err = regs.ListRegistrations(ctx, 999, "", 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}
