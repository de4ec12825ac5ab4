package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// EventQuerier defines the event database operations
type EventQuerier interface {
	CreateEvent(ctx context.Context, arg queries.CreateEventParams) (queries.Event, error)
	GetEventByID(ctx context.Context, id int32) (queries.Event, error)
	UpdateEvent(ctx context.Context, arg queries.UpdateEventParams) (queries.Event, error)
	UpdateEventImage(ctx context.Context, arg queries.UpdateEventImageParams) (queries.Event, error)
	DeleteEvent(ctx context.Context, id int32) (int64, error)
	ListEvents(ctx context.Context, f queries.EventFilter) ([]queries.Event, error)
	CountEvents(ctx context.Context, f queries.EventFilter) (int64, error)
}

// EventService manages community events. Displayed statuses are derived on
// every read, nothing is recomputed in the background.
type EventService struct {
	querier EventQuerier
	logger  *slog.Logger
	now     Clock
}

func NewEventService(querier EventQuerier, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		querier: querier,
		logger:  logger,
		now:     systemClock,
	}
}

func (s *EventService) SetClock(now Clock) { s.now = now }

// CreateEvent creates a draft (or directly published) event
func (s *EventService) CreateEvent(ctx context.Context, req models.CreateEventRequest, actorID int32) (*models.EventResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	event, err := s.querier.CreateEvent(ctx, queries.CreateEventParams{
		Title:                req.Title,
		TitleLocal:           queries.Text(req.TitleLocal),
		Description:          req.Description,
		DescriptionLocal:     queries.Text(req.DescriptionLocal),
		Location:             req.Location,
		EventDate:            queries.Timestamptz(req.EventDate),
		EndDate:              queries.TimestamptzFromPtr(req.EndDate),
		RegistrationDeadline: queries.TimestamptzFromPtr(req.RegistrationDeadline),
		MaxParticipants:      queries.Int4(req.MaxParticipants),
		IsRegistrationOpen:   req.IsRegistrationOpen,
		Status:               req.Status,
		ImageUrl:             queries.Text(req.ImageURL),
		CreatedBy:            actor(actorID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info("event created", "event_id", event.ID, "status", event.Status)
	response := event.ToResponse(s.now())
	return &response, nil
}

// GetEvent returns an event in any status
func (s *EventService) GetEvent(ctx context.Context, id int32) (*models.EventResponse, error) {
	event, err := s.querier.GetEventByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "event")
	}
	response := event.ToResponse(s.now())
	return &response, nil
}

// GetPublicEvent hides drafts and cancelled events
func (s *EventService) GetPublicEvent(ctx context.Context, id int32) (*models.EventResponse, error) {
	event, err := s.querier.GetEventByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "event")
	}
	if event.Status != models.EventStatusPublished {
		return nil, fmt.Errorf("event: %w", ErrNotFound)
	}
	response := event.ToResponse(s.now())
	return &response, nil
}

// UpdateEvent merges req into the stored event. Capacity cannot drop below the
// number of active registrations.
func (s *EventService) UpdateEvent(ctx context.Context, id int32, req models.UpdateEventRequest, actorID int32) (*models.EventResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	existing, err := s.querier.GetEventByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "event")
	}

	params := queries.UpdateEventParams{
		ID:                   id,
		Title:                existing.Title,
		TitleLocal:           existing.TitleLocal,
		Description:          existing.Description,
		DescriptionLocal:     existing.DescriptionLocal,
		Location:             existing.Location,
		EventDate:            existing.EventDate,
		EndDate:              existing.EndDate,
		RegistrationDeadline: existing.RegistrationDeadline,
		MaxParticipants:      existing.MaxParticipants,
		IsRegistrationOpen:   existing.IsRegistrationOpen,
		Status:               existing.Status,
		ImageUrl:             existing.ImageUrl,
		UpdatedBy:            actor(actorID),
	}
	if req.Title != nil {
		params.Title = *req.Title
	}
	if req.TitleLocal != nil {
		params.TitleLocal = optionalText(*req.TitleLocal)
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.DescriptionLocal != nil {
		params.DescriptionLocal = optionalText(*req.DescriptionLocal)
	}
	if req.Location != nil {
		params.Location = *req.Location
	}
	if req.EventDate != nil {
		params.EventDate = queries.Timestamptz(*req.EventDate)
	}
	if req.EndDate != nil {
		params.EndDate = queries.Timestamptz(*req.EndDate)
	}
	if req.RegistrationDeadline != nil {
		params.RegistrationDeadline = queries.Timestamptz(*req.RegistrationDeadline)
	}
	if req.MaxParticipants != nil {
		params.MaxParticipants = queries.Int4(req.MaxParticipants)
	}
	if req.IsRegistrationOpen != nil {
		params.IsRegistrationOpen = *req.IsRegistrationOpen
	}
	if req.Status != nil {
		params.Status = *req.Status
	}
	if req.ImageURL != nil {
		params.ImageUrl = optionalText(*req.ImageURL)
	}

	if err := models.ValidateEventDates(params.EventDate.Time, queries.TimePtr(params.EndDate), queries.TimePtr(params.RegistrationDeadline)); err != nil {
		return nil, validationError(err)
	}
	if params.MaxParticipants.Valid && params.MaxParticipants.Int32 < existing.CurrentParticipants {
		return nil, ErrCapacityBelowParticipants
	}

	event, err := s.querier.UpdateEvent(ctx, params)
	if err != nil {
		if !queries.IsNotFound(err) {
			return nil, fmt.Errorf("failed to update event: %w", err)
		}
		if _, getErr := s.querier.GetEventByID(ctx, id); getErr != nil {
			return nil, notFoundOr(getErr, "event")
		}
		return nil, ErrCapacityBelowParticipants
	}

	response := event.ToResponse(s.now())
	return &response, nil
}

// SetEventImage stores (or clears, with nil) the event image URL.
func (s *EventService) SetEventImage(ctx context.Context, id int32, url *string, actorID int32) (*models.EventResponse, error) {
	event, err := s.querier.UpdateEventImage(ctx, queries.UpdateEventImageParams{
		ID:        id,
		ImageUrl:  queries.Text(url),
		UpdatedBy: actor(actorID),
	})
	if err != nil {
		return nil, notFoundOr(err, "event")
	}
	response := event.ToResponse(s.now())
	return &response, nil
}

// DeleteEvent removes an event nobody is registered for. Cancel it instead
// when registrations exist.
func (s *EventService) DeleteEvent(ctx context.Context, id int32) error {
	n, err := s.querier.DeleteEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.querier.GetEventByID(ctx, id); err != nil {
		return notFoundOr(err, "event")
	}
	return ErrEventHasRegistrations
}

// ListEvents is the admin listing over every status
func (s *EventService) ListEvents(ctx context.Context, req models.EventListRequest) (*models.EventListResponse, error) {
	return s.list(ctx, req)
}

// ListPublicEvents lists published events only
func (s *EventService) ListPublicEvents(ctx context.Context, req models.EventListRequest) (*models.EventListResponse, error) {
	req.Status = models.EventStatusPublished
	return s.list(ctx, req)
}

func (s *EventService) list(ctx context.Context, req models.EventListRequest) (*models.EventListResponse, error) {
	now := s.now()
	page, limit := normalizePage(req.Page, req.Limit)

	filter := queries.EventFilter{
		Status: req.Status,
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	}
	if req.Upcoming {
		filter.UpcomingAfter = pgtype.Timestamptz{Time: now, Valid: true}
	}

	events, err := s.querier.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	total, err := s.querier.CountEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	items := make([]models.EventResponse, len(events))
	for i := range events {
		items[i] = events[i].ToResponse(now)
	}
	return &models.EventListResponse{
		Events:     items,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}
