package models

import (
	"errors"
	"strings"
	"time"
)

// Stored event statuses.
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
)

// Displayed-only statuses, derived from a published event's dates.
const (
	EventStatusOngoing   = "ongoing"
	EventStatusCompleted = "completed"
)

// EventTimes is the subset of an event the status and registration rules look at.
type EventTimes struct {
	Status               string
	EventDate            time.Time
	EndDate              *time.Time
	RegistrationDeadline *time.Time
	IsRegistrationOpen   bool
	MaxParticipants      *int32
	CurrentParticipants  int32
}

// End returns the end of the event, falling back to its start.
func (e EventTimes) End() time.Time {
	if e.EndDate != nil {
		return *e.EndDate
	}
	return e.EventDate
}

// DeriveEventStatus computes the displayed status of an event at now.
// Draft and cancelled are returned as stored.
func DeriveEventStatus(e EventTimes, now time.Time) string {
	if e.Status != EventStatusPublished {
		return e.Status
	}
	end := e.End()
	switch {
	case end.Before(now):
		return EventStatusCompleted
	case !e.EventDate.After(now):
		return EventStatusOngoing
	default:
		return EventStatusPublished
	}
}

// Reasons a registration is refused.
const (
	ClosedReasonNotPublished   = "event is not published"
	ClosedReasonNotOpen        = "registration is not open"
	ClosedReasonDeadlinePassed = "registration deadline has passed"
	ClosedReasonEventEnded     = "event has already ended"
	ClosedReasonFull           = "event is full"
)

// RegistrationClosedReason returns why a registration would be refused at now,
// or "" when the event accepts one more participant. The conditional update in
// the store applies the same rule atomically; this is used to explain a refusal.
func RegistrationClosedReason(e EventTimes, now time.Time) string {
	switch {
	case e.Status != EventStatusPublished:
		return ClosedReasonNotPublished
	case !e.IsRegistrationOpen:
		return ClosedReasonNotOpen
	case e.RegistrationDeadline != nil && e.RegistrationDeadline.Before(now):
		return ClosedReasonDeadlinePassed
	case e.End().Before(now):
		return ClosedReasonEventEnded
	case e.MaxParticipants != nil && e.CurrentParticipants >= *e.MaxParticipants:
		return ClosedReasonFull
	}
	return ""
}

// CreateEventRequest represents the request to create an event
type CreateEventRequest struct {
	Title                string     `json:"title" binding:"required,max=255"`
	TitleLocal           *string    `json:"title_local" binding:"omitempty,max=255"`
	Description          string     `json:"description" binding:"max=5000"`
	DescriptionLocal     *string    `json:"description_local" binding:"omitempty,max=5000"`
	Location             string     `json:"location" binding:"max=255"`
	EventDate            time.Time  `json:"event_date" binding:"required"`
	EndDate              *time.Time `json:"end_date"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	MaxParticipants      *int32     `json:"max_participants"`
	IsRegistrationOpen   bool       `json:"is_registration_open"`
	Status               string     `json:"status" binding:"omitempty,oneof=draft published cancelled"`
	ImageURL             *string    `json:"image_url" binding:"omitempty,max=500"`
}

// UpdateEventRequest carries the event fields an admin may change. Nil fields are kept.
type UpdateEventRequest struct {
	Title                *string    `json:"title" binding:"omitempty,max=255"`
	TitleLocal           *string    `json:"title_local" binding:"omitempty,max=255"`
	Description          *string    `json:"description" binding:"omitempty,max=5000"`
	DescriptionLocal     *string    `json:"description_local" binding:"omitempty,max=5000"`
	Location             *string    `json:"location" binding:"omitempty,max=255"`
	EventDate            *time.Time `json:"event_date"`
	EndDate              *time.Time `json:"end_date"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	MaxParticipants      *int32     `json:"max_participants"`
	IsRegistrationOpen   *bool      `json:"is_registration_open"`
	Status               *string    `json:"status" binding:"omitempty,oneof=draft published cancelled"`
	ImageURL             *string    `json:"image_url" binding:"omitempty,max=500"`
}

// EventListRequest represents the filters of the event listings
type EventListRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=draft published cancelled"`
	Upcoming bool   `form:"upcoming"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
}

// EventResponse represents an event with its derived status
type EventResponse struct {
	ID                   int32      `json:"id"`
	Title                string     `json:"title"`
	TitleLocal           *string    `json:"title_local,omitempty"`
	Description          string     `json:"description"`
	DescriptionLocal     *string    `json:"description_local,omitempty"`
	Location             string     `json:"location"`
	EventDate            time.Time  `json:"event_date"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	MaxParticipants      *int32     `json:"max_participants,omitempty"`
	CurrentParticipants  int32      `json:"current_participants"`
	IsRegistrationOpen   bool       `json:"is_registration_open"`
	CanRegister          bool       `json:"can_register"`
	Status               string     `json:"status"`
	ImageURL             *string    `json:"image_url,omitempty"`
	CreatedBy            *int32     `json:"created_by,omitempty"`
	UpdatedBy            *int32     `json:"updated_by,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// EventListResponse represents a paginated event listing
type EventListResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination Pagination      `json:"pagination"`
}

func validateEventDates(start time.Time, end, deadline *time.Time) error {
	if start.IsZero() {
		return errors.New("event_date is required")
	}
	if end != nil && end.Before(start) {
		return errors.New("end_date cannot be before event_date")
	}
	if deadline != nil {
		last := start
		if end != nil {
			last = *end
		}
		if deadline.After(last) {
			return errors.New("registration_deadline cannot be after the event ends")
		}
	}
	return nil
}

// Validate normalises and validates the CreateEventRequest
func (r *CreateEventRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return errors.New("title is required")
	}
	r.TitleLocal = trimOptional(r.TitleLocal)
	if r.MaxParticipants != nil && *r.MaxParticipants < 1 {
		return errors.New("max_participants must be at least 1")
	}
	if r.Status == "" {
		r.Status = EventStatusDraft
	}
	return validateEventDates(r.EventDate, r.EndDate, r.RegistrationDeadline)
}

// Validate validates the UpdateEventRequest. Date consistency against the stored
// event is checked by the service after merging.
func (r *UpdateEventRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return errors.New("title cannot be empty")
		}
		r.Title = &title
	}
	if r.MaxParticipants != nil && *r.MaxParticipants < 1 {
		return errors.New("max_participants must be at least 1")
	}
	return nil
}

// ValidateEventDates is exported for the service's post-merge check.
func ValidateEventDates(start time.Time, end, deadline *time.Time) error {
	return validateEventDates(start, end, deadline)
}
