package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
)

func eventEnd(e queries.Event) time.Time {
	if e.EndDate.Valid {
		return e.EndDate.Time
	}
	return e.EventDate.Time
}

func (s *Store) CreateEvent(_ context.Context, arg queries.CreateEventParams) (queries.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()
	e := queries.Event{
		ID:                   s.id("events"),
		Title:                arg.Title,
		TitleLocal:           arg.TitleLocal,
		Description:          arg.Description,
		DescriptionLocal:     arg.DescriptionLocal,
		Location:             arg.Location,
		EventDate:            arg.EventDate,
		EndDate:              arg.EndDate,
		RegistrationDeadline: arg.RegistrationDeadline,
		MaxParticipants:      arg.MaxParticipants,
		IsRegistrationOpen:   arg.IsRegistrationOpen,
		Status:               arg.Status,
		ImageUrl:             arg.ImageUrl,
		CreatedBy:            arg.CreatedBy,
		UpdatedBy:            arg.CreatedBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	s.events[e.ID] = e
	return e, nil
}

func (s *Store) GetEventByID(_ context.Context, id int32) (queries.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return queries.Event{}, pgx.ErrNoRows
	}
	return e, nil
}

func (s *Store) UpdateEvent(_ context.Context, arg queries.UpdateEventParams) (queries.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[arg.ID]
	if !ok {
		return queries.Event{}, pgx.ErrNoRows
	}
	if arg.MaxParticipants.Valid && e.CurrentParticipants > arg.MaxParticipants.Int32 {
		return queries.Event{}, pgx.ErrNoRows
	}
	e.Title = arg.Title
	e.TitleLocal = arg.TitleLocal
	e.Description = arg.Description
	e.DescriptionLocal = arg.DescriptionLocal
	e.Location = arg.Location
	e.EventDate = arg.EventDate
	e.EndDate = arg.EndDate
	e.RegistrationDeadline = arg.RegistrationDeadline
	e.MaxParticipants = arg.MaxParticipants
	e.IsRegistrationOpen = arg.IsRegistrationOpen
	e.Status = arg.Status
	e.ImageUrl = arg.ImageUrl
	e.UpdatedBy = arg.UpdatedBy
	e.UpdatedAt = s.stamp()
	s.events[e.ID] = e
	return e, nil
}

func (s *Store) UpdateEventImage(_ context.Context, arg queries.UpdateEventImageParams) (queries.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[arg.ID]
	if !ok {
		return queries.Event{}, pgx.ErrNoRows
	}
	e.ImageUrl = arg.ImageUrl
	e.UpdatedBy = arg.UpdatedBy
	e.UpdatedAt = s.stamp()
	s.events[e.ID] = e
	return e, nil
}

func (s *Store) DeleteEvent(_ context.Context, id int32) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok || e.CurrentParticipants != 0 {
		return 0, nil
	}
	delete(s.events, id)
	for rid, r := range s.registrations {
		if r.EventID == id {
			delete(s.registrations, rid)
		}
	}
	return 1, nil
}

func (s *Store) CountUpcomingEvents(_ context.Context, now pgtype.Timestamptz) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.events {
		if e.Status == "published" && !eventEnd(e).Before(now.Time) {
			n++
		}
	}
	return n, nil
}

func (s *Store) filterEvents(f queries.EventFilter) []queries.Event {
	var out []queries.Event
	for _, e := range s.events {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.UpcomingAfter.Valid && eventEnd(e).Before(f.UpcomingAfter.Time) {
			continue
		}
		out = append(out, e)
	}
	asc := f.UpcomingAfter.Valid
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.EventDate.Time.Equal(b.EventDate.Time) {
			if asc {
				return a.EventDate.Time.Before(b.EventDate.Time)
			}
			return a.EventDate.Time.After(b.EventDate.Time)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	return out
}

func (s *Store) ListEvents(_ context.Context, f queries.EventFilter) ([]queries.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.filterEvents(f), f.Limit, f.Offset), nil
}

func (s *Store) CountEvents(_ context.Context, f queries.EventFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filterEvents(f))), nil
}

func (s *Store) acceptsRegistration(e queries.Event, now time.Time) bool {
	return e.Status == "published" &&
		e.IsRegistrationOpen &&
		(!e.RegistrationDeadline.Valid || !e.RegistrationDeadline.Time.Before(now)) &&
		!eventEnd(e).Before(now) &&
		(!e.MaxParticipants.Valid || e.CurrentParticipants < e.MaxParticipants.Int32)
}

func isActiveStatus(status string) bool {
	return status == "registered" || status == "confirmed" || status == "attended"
}

// RegisterForEventTx mirrors queries.Store.RegisterForEventTx.
func (s *Store) RegisterForEventTx(_ context.Context, arg queries.CreateRegistrationParams, now pgtype.Timestamptz) (queries.EventRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.registrations {
		if r.EventID == arg.EventID && isActiveStatus(r.Status) && strings.EqualFold(r.Email, arg.Email) {
			return queries.EventRegistration{}, queries.ErrUniqueViolation
		}
		if r.RegistrationCode == arg.RegistrationCode {
			return queries.EventRegistration{}, queries.ErrUniqueViolation
		}
	}

	e, ok := s.events[arg.EventID]
	if !ok || !s.acceptsRegistration(e, now.Time) {
		return queries.EventRegistration{}, queries.ErrConditionNotMet
	}

	stamp := s.stamp()
	e.CurrentParticipants++
	e.UpdatedAt = stamp
	s.events[e.ID] = e

	r := queries.EventRegistration{
		ID:               s.id("event_registrations"),
		EventID:          arg.EventID,
		RegistrationCode: arg.RegistrationCode,
		ParticipantName:  arg.ParticipantName,
		Email:            arg.Email,
		Phone:            arg.Phone,
		Organization:     arg.Organization,
		Notes:            arg.Notes,
		Status:           "registered",
		CreatedAt:        stamp,
		UpdatedAt:        stamp,
	}
	s.registrations[r.ID] = r
	return r, nil
}

// UpdateRegistrationStatusTx mirrors queries.Store.UpdateRegistrationStatusTx.
func (s *Store) UpdateRegistrationStatusTx(_ context.Context, arg queries.SetRegistrationStatusParams, releaseSlot bool) (queries.EventRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.registrations[arg.ID]
	if !ok || r.Status != arg.FromStatus {
		return queries.EventRegistration{}, queries.ErrConditionNotMet
	}

	stamp := s.stamp()
	r.Status = arg.ToStatus
	r.UpdatedAt = stamp
	s.registrations[r.ID] = r

	if releaseSlot {
		if e, ok := s.events[r.EventID]; ok && e.CurrentParticipants > 0 {
			e.CurrentParticipants--
			e.UpdatedAt = stamp
			s.events[e.ID] = e
		}
	}
	return r, nil
}

func (s *Store) GetRegistrationByID(_ context.Context, id int32) (queries.EventRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.registrations[id]
	if !ok {
		return queries.EventRegistration{}, pgx.ErrNoRows
	}
	return r, nil
}

func (s *Store) GetRegistrationByCode(_ context.Context, code pgtype.UUID) (queries.EventRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.registrations {
		if r.RegistrationCode == code {
			return r, nil
		}
	}
	return queries.EventRegistration{}, pgx.ErrNoRows
}

func (s *Store) CountActiveRegistrations(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.registrations {
		if isActiveStatus(r.Status) {
			n++
		}
	}
	return n, nil
}

func (s *Store) filterRegistrations(eventID int32, status string) []queries.EventRegistration {
	var out []queries.EventRegistration
	for _, id := range sortedKeys(s.registrations) {
		r := s.registrations[id]
		if r.EventID != eventID || (status != "" && r.Status != status) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *Store) ListRegistrationsByEvent(_ context.Context, arg queries.ListRegistrationsByEventParams) ([]queries.EventRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.filterRegistrations(arg.EventID, arg.Status), arg.Limit, arg.Offset), nil
}

func (s *Store) CountRegistrationsByEvent(_ context.Context, arg queries.CountRegistrationsByEventParams) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filterRegistrations(arg.EventID, arg.Status))), nil
}
