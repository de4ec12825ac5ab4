package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// EmailTester checks the outbound mail configuration
type EmailTester interface {
	TestConnection(ctx context.Context) models.EmailDiagnostic
	SendHTML(ctx context.Context, to, subject, html string) error
}

// FailedNotificationLister exposes notifications that could not be delivered
type FailedNotificationLister interface {
	ListFailed(ctx context.Context, limit int) ([]models.FailedNotification, error)
}

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	mailer   EmailTester
	failures FailedNotificationLister
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(mailer EmailTester, failures FailedNotificationLister) *NotificationHandler {
	return &NotificationHandler{
		mailer:   mailer,
		failures: failures,
	}
}

// TestEmail checks the SMTP settings and optionally sends a test message
// @Summary Test email settings
// @Description Connects and authenticates against the configured SMTP server. The diagnostic code tells an operator what to fix.
// @Tags settings
// @Accept json
// @Produce json
// @Param request body models.EmailTestRequest false "Optional recipient for a test message"
// @Success 200 {object} SuccessResponse{data=models.EmailDiagnostic}
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/admin/settings/email/test [post]
func (h *NotificationHandler) TestEmail(c *gin.Context) {
	var req models.EmailTestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	diag := h.mailer.TestConnection(c.Request.Context())
	if !diag.Success {
		respondError(c, http.StatusBadGateway, "EMAIL_TEST_FAILED", diag.Message, diag)
		return
	}

	if req.SendTo != "" {
		body := fmt.Sprintf("<p>This is a test message sent at %s.</p>", time.Now().UTC().Format(time.RFC1123))
		if err := h.mailer.SendHTML(c.Request.Context(), req.SendTo, "Email settings test", body); err != nil {
			respondError(c, http.StatusBadGateway, "EMAIL_TEST_FAILED", "Connection succeeded but sending failed", err.Error())
			return
		}
		diag.Message = "Connection succeeded and a test message was sent to " + req.SendTo
	}

	respondSuccess(c, http.StatusOK, diag, "")
}

func (h *NotificationHandler) ListFailed(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}

	failed, err := h.failures.ListFailed(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err, "Failed to list failed notifications")
		return
	}

	respondSuccess(c, http.StatusOK, failed, "")
}
