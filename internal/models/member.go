package models

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	MembershipRegular   = "regular"
	MembershipStudent   = "student"
	MembershipVolunteer = "volunteer"
)

var (
	// PhonePattern defines the valid pattern for phone numbers
	PhonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]+$`)

	EmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

var (
	ErrInvalidEmail = errors.New("invalid email format")
	ErrInvalidPhone = errors.New("invalid phone number format")
)

// CreateMemberRequest represents the request payload for registering a library member
type CreateMemberRequest struct {
	MemberCode     string  `json:"member_code" binding:"required,max=50"`
	FullName       string  `json:"full_name" binding:"required,max=255"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone" binding:"omitempty,max=50"`
	Address        *string `json:"address" binding:"omitempty,max=500"`
	MembershipType string  `json:"membership_type" binding:"omitempty,oneof=regular student volunteer"`
}

// UpdateMemberRequest represents the request payload for updating a member
type UpdateMemberRequest struct {
	FullName       *string `json:"full_name" binding:"omitempty,max=255"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone" binding:"omitempty,max=50"`
	Address        *string `json:"address" binding:"omitempty,max=500"`
	MembershipType *string `json:"membership_type" binding:"omitempty,oneof=regular student volunteer"`
	IsActive       *bool   `json:"is_active"`
}

// MemberSearchRequest represents the query accepted by the member listing
type MemberSearchRequest struct {
	Query    string `form:"q"`
	IsActive *bool  `form:"active"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
}

// MemberResponse represents the response payload for member operations
type MemberResponse struct {
	ID             int32     `json:"id"`
	MemberCode     string    `json:"member_code"`
	FullName       string    `json:"full_name"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	Address        *string   `json:"address,omitempty"`
	MembershipType string    `json:"membership_type"`
	IsActive       bool      `json:"is_active"`
	JoinedDate     time.Time `json:"joined_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MemberListResponse represents the response payload for listing members
type MemberListResponse struct {
	Members    []MemberResponse `json:"members"`
	Pagination Pagination       `json:"pagination"`
}

// Validate normalises and validates the CreateMemberRequest
func (r *CreateMemberRequest) Validate() error {
	r.MemberCode = strings.TrimSpace(r.MemberCode)
	if r.MemberCode == "" {
		return errors.New("member_code is required")
	}
	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		return errors.New("full_name is required")
	}
	r.Email = trimOptional(r.Email)
	if r.Email != nil && !EmailPattern.MatchString(*r.Email) {
		return ErrInvalidEmail
	}
	r.Phone = trimOptional(r.Phone)
	if r.Phone != nil && !PhonePattern.MatchString(*r.Phone) {
		return ErrInvalidPhone
	}
	if r.MembershipType == "" {
		r.MembershipType = MembershipRegular
	}
	return nil
}

// Validate validates the UpdateMemberRequest
func (r *UpdateMemberRequest) Validate() error {
	if r.FullName != nil {
		name := strings.TrimSpace(*r.FullName)
		if name == "" {
			return errors.New("full_name cannot be empty")
		}
		r.FullName = &name
	}
	r.Email = trimOptional(r.Email)
	if r.Email != nil && !EmailPattern.MatchString(*r.Email) {
		return ErrInvalidEmail
	}
	r.Phone = trimOptional(r.Phone)
	if r.Phone != nil && !PhonePattern.MatchString(*r.Phone) {
		return ErrInvalidPhone
	}
	return nil
}
