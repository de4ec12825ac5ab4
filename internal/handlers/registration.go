package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

type RegistrationServiceInterface interface {
	Register(ctx context.Context, eventID int32, req models.RegisterRequest) (*models.RegistrationResponse, error)
	UpdateStatus(ctx context.Context, id int32, to string) (*models.RegistrationResponse, error)
	GetRegistration(ctx context.Context, id int32) (*models.RegistrationResponse, error)
	GetRegistrationByCode(ctx context.Context, code string) (*models.RegistrationResponse, error)
	ListRegistrations(ctx context.Context, eventID int32, status string, page, limit int) (*models.RegistrationListResponse, error)
}

type RegistrationHandler struct {
	registrationService RegistrationServiceInterface
}

func NewRegistrationHandler(registrationService RegistrationServiceInterface) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// Register signs a participant up for an event
// @Summary Register for an event
// @Description Accepted only while the event is published, open and has places left
// @Tags registrations
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param registration body models.RegisterRequest true "Participant details"
// @Success 201 {object} SuccessResponse{data=models.RegistrationResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "REGISTRATION_CLOSED or ALREADY_REGISTERED"
// @Failure 429 {object} ErrorResponse
// @Router /api/v1/public/events/{id}/register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}

	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reg, err := h.registrationService.Register(c.Request.Context(), eventID, req)
	if err != nil {
		writeServiceError(c, err, "Failed to register for event")
		return
	}

	respondSuccess(c, http.StatusCreated, reg, "Registration successful")
}

// GetByCode lets a participant look up their own registration
func (h *RegistrationHandler) GetByCode(c *gin.Context) {
	reg, err := h.registrationService.GetRegistrationByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve registration")
		return
	}

	respondSuccess(c, http.StatusOK, reg, "")
}

func (h *RegistrationHandler) GetRegistration(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "registration")
	if !ok {
		return
	}

	reg, err := h.registrationService.GetRegistration(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve registration")
		return
	}

	respondSuccess(c, http.StatusOK, reg, "")
}

func (h *RegistrationHandler) ListRegistrations(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}
	page, limit := parsePaginationParams(c)

	result, err := h.registrationService.ListRegistrations(c.Request.Context(), eventID, c.Query("status"), page, limit)
	if err != nil {
		writeServiceError(c, err, "Failed to list registrations")
		return
	}

	respondSuccess(c, http.StatusOK, result, "")
}

// UpdateStatus moves a registration along its lifecycle
// @Summary Change a registration status
// @Tags registrations
// @Accept json
// @Produce json
// @Param id path int true "Registration ID"
// @Param status body models.UpdateRegistrationStatusRequest true "Target status"
// @Success 200 {object} SuccessResponse{data=models.RegistrationResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "INVALID_STATUS_TRANSITION"
// @Router /api/v1/admin/registrations/{id}/status [put]
func (h *RegistrationHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "registration")
	if !ok {
		return
	}

	var req models.UpdateRegistrationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reg, err := h.registrationService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeServiceError(c, err, "Failed to update registration")
		return
	}

	respondSuccess(c, http.StatusOK, reg, "Registration updated successfully")
}
