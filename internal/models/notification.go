package models

import (
	"time"
)

// NotificationType represents the event that triggered a notification
type NotificationType string

const (
	NotificationTypeBookIssued        NotificationType = "book_issued"
	NotificationTypeBookReturned      NotificationType = "book_returned"
	NotificationTypeEventRegistration NotificationType = "event_registration"
)

// IsValid checks if the notification type is valid
func (nt NotificationType) IsValid() bool {
	switch nt {
	case NotificationTypeBookIssued, NotificationTypeBookReturned, NotificationTypeEventRegistration:
		return true
	default:
		return false
	}
}

// Notification is an email produced by a committed state change.
type Notification struct {
	Type      NotificationType `json:"type"`
	Recipient string           `json:"recipient"`
	Subject   string           `json:"subject"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
}

// FailedNotification records a notification the mailer could not deliver.
type FailedNotification struct {
	Notification
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// EmailDiagnosticCode classifies the outcome of an SMTP connection test.
type EmailDiagnosticCode string

const (
	EmailDiagnosticOK              EmailDiagnosticCode = "ok"
	EmailDiagnosticMissingConfig   EmailDiagnosticCode = "missing_configuration"
	EmailDiagnosticAuthFailed      EmailDiagnosticCode = "authentication_failed"
	EmailDiagnosticHostUnreachable EmailDiagnosticCode = "host_unreachable"
	EmailDiagnosticTimeout         EmailDiagnosticCode = "timeout"
	EmailDiagnosticTLS             EmailDiagnosticCode = "tls_error"
	EmailDiagnosticUnknown         EmailDiagnosticCode = "unknown_error"
)

// EmailDiagnostic is the result of an SMTP connection test.
type EmailDiagnostic struct {
	Success bool                `json:"success"`
	Code    EmailDiagnosticCode `json:"code"`
	Message string              `json:"message"`
	Detail  string              `json:"detail,omitempty"`
}

// EmailTestRequest optionally asks the connection test to also send a message.
type EmailTestRequest struct {
	SendTo string `json:"send_to" binding:"omitempty,email"`
}
