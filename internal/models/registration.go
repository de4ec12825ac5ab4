package models

import (
	"errors"
	"strings"
	"time"
)

// Registration statuses
const (
	RegistrationStatusRegistered = "registered"
	RegistrationStatusConfirmed  = "confirmed"
	RegistrationStatusAttended   = "attended"
	RegistrationStatusCancelled  = "cancelled"
	RegistrationStatusNoShow     = "no_show"
)

// ActiveRegistrationStatuses are the statuses that hold a place in the event.
var ActiveRegistrationStatuses = []string{
	RegistrationStatusRegistered,
	RegistrationStatusConfirmed,
	RegistrationStatusAttended,
}

// IsActiveRegistrationStatus reports whether a registration in status counts
// toward the event's participants.
func IsActiveRegistrationStatus(status string) bool {
	for _, s := range ActiveRegistrationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidRegistrationTransition checks if a status transition is valid
func IsValidRegistrationTransition(from, to string) bool {
	validTransitions := map[string][]string{
		RegistrationStatusRegistered: {RegistrationStatusConfirmed, RegistrationStatusCancelled, RegistrationStatusNoShow},
		RegistrationStatusConfirmed:  {RegistrationStatusAttended, RegistrationStatusCancelled, RegistrationStatusNoShow},
		RegistrationStatusAttended:   {},
		RegistrationStatusCancelled:  {},
		RegistrationStatusNoShow:     {},
	}

	allowedTransitions, exists := validTransitions[from]
	if !exists {
		return false
	}

	for _, allowedTo := range allowedTransitions {
		if allowedTo == to {
			return true
		}
	}

	return false
}

// ReleasesSlot reports whether moving from one status to another frees a place.
func ReleasesSlot(from, to string) bool {
	return IsActiveRegistrationStatus(from) && !IsActiveRegistrationStatus(to)
}

// RegisterRequest represents a public registration for an event
type RegisterRequest struct {
	ParticipantName string  `json:"participant_name" binding:"required,max=255"`
	Email           string  `json:"email" binding:"required,email"`
	Phone           *string `json:"phone" binding:"omitempty,max=50"`
	Organization    *string `json:"organization" binding:"omitempty,max=255"`
	Notes           *string `json:"notes" binding:"omitempty,max=1000"`
}

// UpdateRegistrationStatusRequest represents an admin status change
type UpdateRegistrationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=registered confirmed attended cancelled no_show"`
}

// RegistrationResponse represents a registration response
type RegistrationResponse struct {
	ID               int32     `json:"id"`
	EventID          int32     `json:"event_id"`
	EventTitle       string    `json:"event_title,omitempty"`
	RegistrationCode string    `json:"registration_code"`
	ParticipantName  string    `json:"participant_name"`
	Email            string    `json:"email"`
	Phone            *string   `json:"phone,omitempty"`
	Organization     *string   `json:"organization,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RegistrationListResponse represents a paginated registration listing
type RegistrationListResponse struct {
	Registrations []RegistrationResponse `json:"registrations"`
	Pagination    Pagination             `json:"pagination"`
}

// Validate normalises and validates the RegisterRequest
func (r *RegisterRequest) Validate() error {
	r.ParticipantName = strings.TrimSpace(r.ParticipantName)
	if r.ParticipantName == "" {
		return errors.New("participant_name is required")
	}
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if !EmailPattern.MatchString(r.Email) {
		return ErrInvalidEmail
	}
	r.Phone = trimOptional(r.Phone)
	if r.Phone != nil && !PhonePattern.MatchString(*r.Phone) {
		return ErrInvalidPhone
	}
	r.Organization = trimOptional(r.Organization)
	r.Notes = trimOptional(r.Notes)
	return nil
}
