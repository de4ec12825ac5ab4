package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxcyking/ngo-library-sub001/internal/middleware"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// EventServiceInterface defines the interface for event service operations
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, req models.CreateEventRequest, actorID int32) (*models.EventResponse, error)
	GetEvent(ctx context.Context, id int32) (*models.EventResponse, error)
	GetPublicEvent(ctx context.Context, id int32) (*models.EventResponse, error)
	UpdateEvent(ctx context.Context, id int32, req models.UpdateEventRequest, actorID int32) (*models.EventResponse, error)
	DeleteEvent(ctx context.Context, id int32) error
	ListEvents(ctx context.Context, req models.EventListRequest) (*models.EventListResponse, error)
	ListPublicEvents(ctx context.Context, req models.EventListRequest) (*models.EventListResponse, error)
}

// EventHandler serves both the public event pages and the admin event API
type EventHandler struct {
	eventService EventServiceInterface
}

func NewEventHandler(eventService EventServiceInterface) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// ListPublicEvents lists published events
// @Summary List published events
// @Tags events
// @Produce json
// @Param upcoming query bool false "Only events that have not ended"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} SuccessResponse{data=models.EventListResponse}
// @Router /api/v1/public/events [get]
func (h *EventHandler) ListPublicEvents(c *gin.Context) {
	var req models.EventListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.eventService.ListPublicEvents(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "Failed to list events")
		return
	}

	respondSuccess(c, http.StatusOK, result, "")
}

// GetPublicEvent returns a published event; drafts are reported as not found
func (h *EventHandler) GetPublicEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}

	event, err := h.eventService.GetPublicEvent(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve event")
		return
	}

	respondSuccess(c, http.StatusOK, event, "")
}

// CreateEvent creates an event
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Param event body models.CreateEventRequest true "Event data"
// @Success 201 {object} SuccessResponse{data=models.EventResponse}
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/admin/events [post]
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), req, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to create event")
		return
	}

	respondSuccess(c, http.StatusCreated, event, "Event created successfully")
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}

	event, err := h.eventService.GetEvent(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve event")
		return
	}

	respondSuccess(c, http.StatusOK, event, "")
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}

	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), id, req, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to update event")
		return
	}

	respondSuccess(c, http.StatusOK, event, "Event updated successfully")
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}

	if err := h.eventService.DeleteEvent(c.Request.Context(), id); err != nil {
		writeServiceError(c, err, "Failed to delete event")
		return
	}

	respondSuccess(c, http.StatusOK, nil, "Event deleted successfully")
}

func (h *EventHandler) ListEvents(c *gin.Context) {
	var req models.EventListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.eventService.ListEvents(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "Failed to list events")
		return
	}

	respondSuccess(c, http.StatusOK, result, "")
}
