package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuditLogger writes one structured record per state-changing admin request.
type AuditLogger struct {
	logger *slog.Logger
}

type AuditLogEntry struct {
	Action    string
	Route     string
	Path      string
	Status    int
	UserID    int32
	Username  string
	RequestID string
	IPAddress string
	UserAgent string
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger.With("component", "audit")}
}

func (a *AuditLogger) Log(entry AuditLogEntry) {
	a.logger.Info("Admin action",
		slog.String("action", entry.Action),
		slog.String("route", entry.Route),
		slog.String("path", entry.Path),
		slog.Int("status", entry.Status),
		slog.Int("user_id", int(entry.UserID)),
		slog.String("username", entry.Username),
		slog.String("request_id", entry.RequestID),
		slog.String("ip_address", entry.IPAddress),
		slog.String("user_agent", entry.UserAgent),
	)
}

func auditAction(method string) string {
	switch method {
	case http.MethodPost:
		return "CREATE"
	case http.MethodPut, http.MethodPatch:
		return "UPDATE"
	case http.MethodDelete:
		return "DELETE"
	default:
		return ""
	}
}

// AuditMiddleware records mutating requests after they complete. Reads are not
// audited.
func AuditMiddleware(auditLogger *AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action := auditAction(c.Request.Method)
		if action == "" {
			return
		}
		auditLogger.Log(AuditLogEntry{
			Action:    action,
			Route:     c.FullPath(),
			Path:      c.Request.URL.Path,
			Status:    c.Writer.Status(),
			UserID:    GetUserID(c),
			Username:  GetUsername(c),
			RequestID: GetRequestID(c),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
	}
}
