package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maxcyking/ngo-library-sub001/internal/middleware"
	"github.com/maxcyking/ngo-library-sub001/internal/services"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func respondSuccess(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
}

// errorMapping is checked in order; the first sentinel that matches wins.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrNoCopiesAvailable, http.StatusConflict, "NO_COPIES_AVAILABLE"},
	{services.ErrAlreadyReturned, http.StatusConflict, "ALREADY_RETURNED"},
	{services.ErrCannotReduceBelowIssued, http.StatusConflict, "CANNOT_REDUCE_BELOW_ISSUED"},
	{services.ErrBookHasIssuedCopies, http.StatusConflict, "BOOK_HAS_ISSUED_COPIES"},
	{services.ErrRegistrationClosed, http.StatusConflict, "REGISTRATION_CLOSED"},
	{services.ErrInvalidStatusTransition, http.StatusConflict, "INVALID_STATUS_TRANSITION"},
	{services.ErrAlreadyRegistered, http.StatusConflict, "ALREADY_REGISTERED"},
	{services.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	{services.ErrUnsupportedFile, http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE_TYPE"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{services.ErrUserInactive, http.StatusForbidden, "ACCOUNT_INACTIVE"},
	{services.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{services.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{services.ErrConflict, http.StatusConflict, "CONFLICT_ERROR"},
}

// writeServiceError maps a service error to its HTTP status and error code.
// Unclassified errors are logged and reported as INTERNAL_ERROR with fallback
// as the message.
func writeServiceError(c *gin.Context, err error, fallback string) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			respondError(c, m.status, m.code, err.Error(), nil)
			return
		}
	}

	slog.Default().ErrorContext(c.Request.Context(), fallback,
		"error", err,
		"path", c.Request.URL.Path,
		"request_id", middleware.GetRequestID(c),
	)
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback, nil)
}

// parseIDParam reads a positive int32 path parameter.
func parseIDParam(c *gin.Context, name, what string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid "+what+" ID", nil)
		return 0, false
	}
	return int32(id), true
}

// parsePaginationParams reads page and limit from the query string
func parsePaginationParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
