package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
	"github.com/maxcyking/ngo-library-sub001/internal/metrics"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// RegistrationQuerier defines the registration database operations
type RegistrationQuerier interface {
	GetEventByID(ctx context.Context, id int32) (queries.Event, error)
	RegisterForEventTx(ctx context.Context, arg queries.CreateRegistrationParams, now pgtype.Timestamptz) (queries.EventRegistration, error)
	UpdateRegistrationStatusTx(ctx context.Context, arg queries.SetRegistrationStatusParams, releaseSlot bool) (queries.EventRegistration, error)
	GetRegistrationByID(ctx context.Context, id int32) (queries.EventRegistration, error)
	GetRegistrationByCode(ctx context.Context, code pgtype.UUID) (queries.EventRegistration, error)
	ListRegistrationsByEvent(ctx context.Context, arg queries.ListRegistrationsByEventParams) ([]queries.EventRegistration, error)
	CountRegistrationsByEvent(ctx context.Context, arg queries.CountRegistrationsByEventParams) (int64, error)
}

// RegistrationNotifier receives committed registrations.
type RegistrationNotifier interface {
	EventRegistered(ctx context.Context, event models.EventResponse, reg models.RegistrationResponse)
}

// RegistrationService is the gate between the public and an event's capacity.
type RegistrationService struct {
	querier  RegistrationQuerier
	notifier RegistrationNotifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      Clock
}

func NewRegistrationService(querier RegistrationQuerier, logger *slog.Logger) *RegistrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		querier: querier,
		logger:  logger,
		now:     systemClock,
	}
}

func (s *RegistrationService) SetNotifier(n RegistrationNotifier) { s.notifier = n }
func (s *RegistrationService) SetMetrics(m *metrics.Metrics)      { s.metrics = m }
func (s *RegistrationService) SetClock(now Clock)                 { s.now = now }

// Register claims a place in the event and records the participant. The slot
// and the row are written together, so a full event never goes over capacity.
func (s *RegistrationService) Register(ctx context.Context, eventID int32, req models.RegisterRequest) (*models.RegistrationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	now := s.now()

	code := uuid.New()
	reg, err := s.querier.RegisterForEventTx(ctx, queries.CreateRegistrationParams{
		EventID:          eventID,
		RegistrationCode: pgtype.UUID{Bytes: code, Valid: true},
		ParticipantName:  req.ParticipantName,
		Email:            req.Email,
		Phone:            queries.Text(req.Phone),
		Organization:     queries.Text(req.Organization),
		Notes:            queries.Text(req.Notes),
	}, queries.Timestamptz(now))

	switch {
	case err == nil:
	case queries.IsUniqueViolation(err):
		s.metrics.Registration("duplicate")
		return nil, ErrAlreadyRegistered
	case errors.Is(err, queries.ErrConditionNotMet):
		s.metrics.Registration("closed")
		event, getErr := s.querier.GetEventByID(ctx, eventID)
		if getErr != nil {
			return nil, notFoundOr(getErr, "event")
		}
		reason := models.RegistrationClosedReason(event.Times(), now)
		if reason == "" {
			// The last place went to a concurrent registration.
			reason = models.ClosedReasonFull
		}
		return nil, fmt.Errorf("%w: %s", ErrRegistrationClosed, reason)
	default:
		s.metrics.Registration("error")
		return nil, fmt.Errorf("failed to register for event: %w", err)
	}

	s.metrics.Registration("ok")
	s.logger.Info("event registration", "event_id", eventID, "registration_id", reg.ID)

	response := reg.ToResponse()
	if event, err := s.querier.GetEventByID(ctx, eventID); err == nil {
		response.EventTitle = event.Title
		if s.notifier != nil {
			s.notifier.EventRegistered(ctx, event.ToResponse(now), response)
		}
	}
	return &response, nil
}

// UpdateStatus moves a registration along its lifecycle. Leaving an active
// status gives the place back to the event in the same transaction.
func (s *RegistrationService) UpdateStatus(ctx context.Context, id int32, to string) (*models.RegistrationResponse, error) {
	existing, err := s.querier.GetRegistrationByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "registration")
	}

	from := existing.Status
	if !models.IsValidRegistrationTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
	}

	reg, err := s.querier.UpdateRegistrationStatusTx(ctx, queries.SetRegistrationStatusParams{
		ID:         id,
		FromStatus: from,
		ToStatus:   to,
	}, models.ReleasesSlot(from, to))
	if errors.Is(err, queries.ErrConditionNotMet) {
		return nil, fmt.Errorf("%w: registration changed concurrently", ErrInvalidStatusTransition)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update registration status: %w", err)
	}

	s.logger.Info("registration status changed", "registration_id", id, "from", from, "to", to)
	response := reg.ToResponse()
	return &response, nil
}

// GetRegistration returns a registration by id
func (s *RegistrationService) GetRegistration(ctx context.Context, id int32) (*models.RegistrationResponse, error) {
	reg, err := s.querier.GetRegistrationByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "registration")
	}
	response := reg.ToResponse()
	return &response, nil
}

// GetRegistrationByCode lets a participant look up their registration
func (s *RegistrationService) GetRegistrationByCode(ctx context.Context, code string) (*models.RegistrationResponse, error) {
	parsed, err := uuid.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid registration code", ErrValidation)
	}
	reg, err := s.querier.GetRegistrationByCode(ctx, pgtype.UUID{Bytes: parsed, Valid: true})
	if err != nil {
		return nil, notFoundOr(err, "registration")
	}
	response := reg.ToResponse()
	if event, err := s.querier.GetEventByID(ctx, reg.EventID); err == nil {
		response.EventTitle = event.Title
	}
	return &response, nil
}

// ListRegistrations lists the registrations of one event, optionally by status
func (s *RegistrationService) ListRegistrations(ctx context.Context, eventID int32, status string, page, limit int) (*models.RegistrationListResponse, error) {
	if _, err := s.querier.GetEventByID(ctx, eventID); err != nil {
		return nil, notFoundOr(err, "event")
	}
	page, limit = normalizePage(page, limit)

	regs, err := s.querier.ListRegistrationsByEvent(ctx, queries.ListRegistrationsByEventParams{
		EventID: eventID,
		Status:  status,
		Limit:   int32(limit),
		Offset:  int32((page - 1) * limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	total, err := s.querier.CountRegistrationsByEvent(ctx, queries.CountRegistrationsByEventParams{
		EventID: eventID,
		Status:  status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}

	items := make([]models.RegistrationResponse, len(regs))
	for i := range regs {
		items[i] = regs[i].ToResponse()
	}
	return &models.RegistrationListResponse{
		Registrations: items,
		Pagination:    models.NewPagination(page, limit, total),
	}, nil
}
