package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveEventStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	later := now.Add(2 * time.Hour)
	earlier := now.Add(-2 * time.Hour)

	tests := []struct {
		name     string
		event    EventTimes
		expected string
	}{
		{"draft stays draft", EventTimes{Status: EventStatusDraft, EventDate: earlier}, EventStatusDraft},
		{"cancelled stays cancelled", EventTimes{Status: EventStatusCancelled, EventDate: later}, EventStatusCancelled},
		{"published in future", EventTimes{Status: EventStatusPublished, EventDate: later}, EventStatusPublished},
		{"published and running", EventTimes{Status: EventStatusPublished, EventDate: earlier, EndDate: &later}, EventStatusOngoing},
		{"published and ended", EventTimes{Status: EventStatusPublished, EventDate: earlier.Add(-time.Hour), EndDate: &earlier}, EventStatusCompleted},
		{"no end date falls back to start", EventTimes{Status: EventStatusPublished, EventDate: earlier}, EventStatusCompleted},
		{"starts exactly now", EventTimes{Status: EventStatusPublished, EventDate: now}, EventStatusOngoing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveEventStatus(tt.event, now))
		})
	}
}

func TestRegistrationClosedReason(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-time.Hour)
	two := int32(2)

	open := EventTimes{Status: EventStatusPublished, EventDate: future, IsRegistrationOpen: true, MaxParticipants: &two, CurrentParticipants: 1}
	assert.Equal(t, "", RegistrationClosedReason(open, now))

	full := open
	full.CurrentParticipants = 2
	assert.Equal(t, ClosedReasonFull, RegistrationClosedReason(full, now))

	draft := open
	draft.Status = EventStatusDraft
	assert.Equal(t, ClosedReasonNotPublished, RegistrationClosedReason(draft, now))

	closed := open
	closed.IsRegistrationOpen = false
	assert.Equal(t, ClosedReasonNotOpen, RegistrationClosedReason(closed, now))

	lateDeadline := open
	lateDeadline.RegistrationDeadline = &past
	assert.Equal(t, ClosedReasonDeadlinePassed, RegistrationClosedReason(lateDeadline, now))

	ended := open
	ended.EventDate = past
	assert.Equal(t, ClosedReasonEventEnded, RegistrationClosedReason(ended, now))

	unlimited := open
	unlimited.MaxParticipants = nil
	unlimited.CurrentParticipants = 1000
	assert.Equal(t, "", RegistrationClosedReason(unlimited, now))
}

func TestCreateEventRequestValidate(t *testing.T) {
	start := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)
	after := start.Add(time.Hour)
	zero := int32(0)

	req := CreateEventRequest{Title: "Reading circle", EventDate: start}
	assert.NoError(t, req.Validate())
	assert.Equal(t, EventStatusDraft, req.Status)

	req = CreateEventRequest{Title: "x", EventDate: start, EndDate: &before}
	assert.Error(t, req.Validate())

	req = CreateEventRequest{Title: "x", EventDate: start, RegistrationDeadline: &after}
	assert.Error(t, req.Validate())

	req = CreateEventRequest{Title: "x", EventDate: start, MaxParticipants: &zero}
	assert.Error(t, req.Validate())
}

func TestIsValidRegistrationTransition(t *testing.T) {
	tests := []struct {
		from, to string
		valid    bool
	}{
		{RegistrationStatusRegistered, RegistrationStatusConfirmed, true},
		{RegistrationStatusRegistered, RegistrationStatusCancelled, true},
		{RegistrationStatusRegistered, RegistrationStatusNoShow, true},
		{RegistrationStatusRegistered, RegistrationStatusAttended, false},
		{RegistrationStatusConfirmed, RegistrationStatusAttended, true},
		{RegistrationStatusConfirmed, RegistrationStatusCancelled, true},
		{RegistrationStatusConfirmed, RegistrationStatusRegistered, false},
		{RegistrationStatusAttended, RegistrationStatusCancelled, false},
		{RegistrationStatusCancelled, RegistrationStatusRegistered, false},
		{RegistrationStatusNoShow, RegistrationStatusConfirmed, false},
		{"unknown", RegistrationStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidRegistrationTransition(tt.from, tt.to))
		})
	}
}

func TestReleasesSlot(t *testing.T) {
	assert.True(t, ReleasesSlot(RegistrationStatusRegistered, RegistrationStatusCancelled))
	assert.True(t, ReleasesSlot(RegistrationStatusConfirmed, RegistrationStatusNoShow))
	assert.False(t, ReleasesSlot(RegistrationStatusConfirmed, RegistrationStatusAttended))
	assert.False(t, ReleasesSlot(RegistrationStatusCancelled, RegistrationStatusNoShow))
}

func TestRegisterRequestValidate(t *testing.T) {
	req := RegisterRequest{ParticipantName: " Asha ", Email: " Asha@Example.ORG "}
	assert.NoError(t, req.Validate())
	assert.Equal(t, "asha@example.org", req.Email)
	assert.Equal(t, "Asha", req.ParticipantName)

	req = RegisterRequest{ParticipantName: "A", Email: "not-an-email"}
	assert.ErrorIs(t, req.Validate(), ErrInvalidEmail)
}
