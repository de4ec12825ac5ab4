package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxcyking/ngo-library-sub001/internal/database/memstore"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
	"github.com/maxcyking/ngo-library-sub001/internal/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupEventTestRouter wires the event and registration handlers to real
// services over the in-memory store.
func setupEventTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	events := NewEventHandler(services.NewEventService(store, discardLogger()))
	registrations := NewRegistrationHandler(services.NewRegistrationService(store, discardLogger()))

	router := gin.New()
	public := router.Group("/api/v1/public")
	{
		public.GET("/events", events.ListPublicEvents)
		public.GET("/events/:id", events.GetPublicEvent)
		public.POST("/events/:id/register", registrations.Register)
		public.GET("/registrations/:code", registrations.GetByCode)
	}

	admin := router.Group("/api/v1/admin", withUser(1))
	{
		admin.POST("/events", events.CreateEvent)
		admin.GET("/events", events.ListEvents)
		admin.GET("/events/:id", events.GetEvent)
		admin.PUT("/events/:id", events.UpdateEvent)
		admin.DELETE("/events/:id", events.DeleteEvent)
		admin.GET("/events/:id/registrations", registrations.ListRegistrations)
		admin.GET("/registrations/:id", registrations.GetRegistration)
		admin.PUT("/registrations/:id/status", registrations.UpdateStatus)
	}

	return router
}

func createTestEvent(t *testing.T, router *gin.Engine, req models.CreateEventRequest) models.EventResponse {
	t.Helper()
	w := performRequest(router, http.MethodPost, "/api/v1/admin/events", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[models.EventResponse](t, w)
}

func register(router *gin.Engine, eventID int32, name, email string) *httptest.ResponseRecorder {
	return performRequest(router, http.MethodPost, fmt.Sprintf("/api/v1/public/events/%d/register", eventID),
		models.RegisterRequest{ParticipantName: name, Email: email})
}

func TestEventHandler_PublicVisibility(t *testing.T) {
	router := setupEventTestRouter(t)
	start := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)

	published := createTestEvent(t, router, models.CreateEventRequest{
		Title:              "Storytelling Afternoon",
		TitleLocal:         stringPtr("कहानी दोपहर"),
		EventDate:          start,
		IsRegistrationOpen: true,
		Status:             models.EventStatusPublished,
	})
	draft := createTestEvent(t, router, models.CreateEventRequest{
		Title:     "Planning Meeting",
		EventDate: start,
	})
	assert.Equal(t, models.EventStatusDraft, draft.Status)

	w := performRequest(router, http.MethodGet, "/api/v1/public/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeData[models.EventListResponse](t, w)
	require.Len(t, list.Events, 1)
	assert.Equal(t, published.ID, list.Events[0].ID)
	assert.True(t, list.Events[0].CanRegister)

	w = performRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/public/events/%d", draft.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/admin/events/%d", draft.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/admin/events?status=draft", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[models.EventListResponse](t, w).Events, 1)
}

func TestEventHandler_UpdateAndDelete(t *testing.T) {
	router := setupEventTestRouter(t)
	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)

	event := createTestEvent(t, router, models.CreateEventRequest{Title: "Book Fair", EventDate: start})
	path := fmt.Sprintf("/api/v1/admin/events/%d", event.ID)

	status := models.EventStatusPublished
	w := performRequest(router, http.MethodPut, path, models.UpdateEventRequest{Status: &status, Location: stringPtr("Main Hall")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeData[models.EventResponse](t, w)
	assert.Equal(t, "Main Hall", updated.Location)
	assert.Equal(t, models.EventStatusPublished, updated.Status)

	before := start.Add(-time.Hour)
	w = performRequest(router, http.MethodPut, path, models.UpdateEventRequest{EndDate: &before})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistrationHandler_CapacityAndLifecycle(t *testing.T) {
	router := setupEventTestRouter(t)

	event := createTestEvent(t, router, models.CreateEventRequest{
		Title:              "Reading Circle",
		EventDate:          time.Now().Add(7 * 24 * time.Hour).UTC(),
		MaxParticipants:    int32Ptr(2),
		IsRegistrationOpen: true,
		Status:             models.EventStatusPublished,
	})

	w := register(router, event.ID, "Asha", "asha@example.org")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decodeData[models.RegistrationResponse](t, w)
	assert.Equal(t, models.RegistrationStatusRegistered, first.Status)
	_, err := uuid.Parse(first.RegistrationCode)
	assert.NoError(t, err)

	w = register(router, event.ID, "Asha again", "ASHA@example.org")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_REGISTERED", decodeError(t, w).Code)

	w = register(router, event.ID, "Ravi", "ravi@example.org")
	require.Equal(t, http.StatusCreated, w.Code)

	w = register(router, event.ID, "Meera", "meera@example.org")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "REGISTRATION_CLOSED", decodeError(t, w).Code)

	statusPath := fmt.Sprintf("/api/v1/admin/registrations/%d/status", first.ID)
	w = performRequest(router, http.MethodPut, statusPath, models.UpdateRegistrationStatusRequest{Status: models.RegistrationStatusCancelled})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(router, http.MethodPut, statusPath, models.UpdateRegistrationStatusRequest{Status: models.RegistrationStatusConfirmed})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", decodeError(t, w).Code)

	w = performRequest(router, http.MethodPut, statusPath, models.UpdateRegistrationStatusRequest{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the cancellation released a place
	w = register(router, event.ID, "Meera", "meera@example.org")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = performRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/public/events/%d", event.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	current := decodeData[models.EventResponse](t, w)
	assert.Equal(t, int32(2), current.CurrentParticipants)
	assert.False(t, current.CanRegister)

	w = performRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/admin/events/%d/registrations", event.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[models.RegistrationListResponse](t, w).Registrations, 3)

	w = performRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/admin/events/%d/registrations?status=cancelled", event.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[models.RegistrationListResponse](t, w).Registrations, 1)
}

func TestRegistrationHandler_ClosedEvents(t *testing.T) {
	router := setupEventTestRouter(t)

	tests := []struct {
		name           string
		event          models.CreateEventRequest
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "draft event",
			event: models.CreateEventRequest{
				Title:              "Draft",
				EventDate:          time.Now().Add(24 * time.Hour).UTC(),
				IsRegistrationOpen: true,
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "REGISTRATION_CLOSED",
		},
		{
			name: "registration switched off",
			event: models.CreateEventRequest{
				Title:     "Closed",
				EventDate: time.Now().Add(24 * time.Hour).UTC(),
				Status:    models.EventStatusPublished,
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "REGISTRATION_CLOSED",
		},
		{
			name: "deadline passed",
			event: models.CreateEventRequest{
				Title:                "Late",
				EventDate:            time.Now().Add(24 * time.Hour).UTC(),
				RegistrationDeadline: timePtr(time.Now().Add(-time.Hour).UTC()),
				IsRegistrationOpen:   true,
				Status:               models.EventStatusPublished,
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "REGISTRATION_CLOSED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := createTestEvent(t, router, tt.event)

			w := register(router, event.ID, "Kiran", "kiran@example.org")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
		})
	}

	w := register(router, 9999, "Kiran", "kiran@example.org")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistrationHandler_GetByCode(t *testing.T) {
	router := setupEventTestRouter(t)
	event := createTestEvent(t, router, models.CreateEventRequest{
		Title:              "Poetry Night",
		EventDate:          time.Now().Add(24 * time.Hour).UTC(),
		IsRegistrationOpen: true,
		Status:             models.EventStatusPublished,
	})

	w := register(router, event.ID, "Nila", "nila@example.org")
	require.Equal(t, http.StatusCreated, w.Code)
	reg := decodeData[models.RegistrationResponse](t, w)

	tests := []struct {
		name           string
		code           string
		expectedStatus int
	}{
		{name: "known code", code: reg.RegistrationCode, expectedStatus: http.StatusOK},
		{name: "unknown code", code: uuid.NewString(), expectedStatus: http.StatusNotFound},
		{name: "malformed code", code: "not-a-code", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodGet, "/api/v1/public/registrations/"+tt.code, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				found := decodeData[models.RegistrationResponse](t, w)
				assert.Equal(t, reg.ID, found.ID)
				assert.Equal(t, "Poetry Night", found.EventTitle)
			}
		})
	}
}
