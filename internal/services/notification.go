package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/maxcyking/ngo-library-sub001/internal/metrics"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

const (
	failedNotificationsKey = "notifications:failed"
	maxFailedNotifications = 100
	deliveryTimeout        = 30 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var notificationTemplates = template.Must(template.New("notifications").Parse(`
{{define "book_issued"}}<p>A book has been issued.</p>
<ul>
<li>Book: {{.BookTitle}} (#{{.BookID}})</li>
<li>Borrower: {{.BorrowerName}} (#{{.BorrowerID}})</li>
<li>Due date: {{.DueDate.Format "2006-01-02"}}</li>
</ul>{{end}}
{{define "book_returned"}}<p>A book has been returned.</p>
<ul>
<li>Book: {{.BookTitle}} (#{{.BookID}})</li>
<li>Borrower: {{.BorrowerName}} (#{{.BorrowerID}})</li>
<li>Fine: {{.FineAmount.StringFixed 2}}</li>
</ul>{{end}}
{{define "event_registration"}}<p>{{.Registration.ParticipantName}} registered for <strong>{{.Event.Title}}</strong>.</p>
<ul>
<li>Date: {{.Event.EventDate.Format "2006-01-02 15:04"}}</li>
<li>Location: {{.Event.Location}}</li>
<li>Registration code: {{.Registration.RegistrationCode}}</li>
</ul>{{end}}
`))

// NotificationService sends emails for committed state changes. Delivery runs
// after the request has been answered and never affects its outcome; failures
// are kept in a capped list for the admin dashboard.
type NotificationService struct {
	mailer      Mailer
	adminEmail  string
	redisClient *redis.Client
	metrics     *metrics.Metrics
	logger      *slog.Logger

	wg     sync.WaitGroup
	mu     sync.Mutex
	failed []models.FailedNotification
}

func NewNotificationService(mailer Mailer, adminEmail string, redisClient *redis.Client, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		mailer:      mailer,
		adminEmail:  adminEmail,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (s *NotificationService) SetMetrics(m *metrics.Metrics) { s.metrics = m }

func (s *NotificationService) BookIssued(ctx context.Context, tx models.TransactionResponse) {
	s.notifyAdmin(ctx, models.NotificationTypeBookIssued,
		fmt.Sprintf("Book issued: %s", tx.BookTitle), tx)
}

func (s *NotificationService) BookReturned(ctx context.Context, tx models.TransactionResponse) {
	s.notifyAdmin(ctx, models.NotificationTypeBookReturned,
		fmt.Sprintf("Book returned: %s", tx.BookTitle), tx)
}

// EventRegistered tells the admin and sends the participant their code.
func (s *NotificationService) EventRegistered(ctx context.Context, event models.EventResponse, reg models.RegistrationResponse) {
	data := struct {
		Event        models.EventResponse
		Registration models.RegistrationResponse
	}{event, reg}

	s.notifyAdmin(ctx, models.NotificationTypeEventRegistration,
		fmt.Sprintf("New registration: %s", event.Title), data)

	body, err := render(models.NotificationTypeEventRegistration, data)
	if err != nil {
		s.logger.Error("Failed to render notification", "type", models.NotificationTypeEventRegistration, "error", err)
		return
	}
	s.dispatch(ctx, models.Notification{
		Type:      models.NotificationTypeEventRegistration,
		Recipient: reg.Email,
		Subject:   fmt.Sprintf("Registration confirmed: %s", event.Title),
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *NotificationService) notifyAdmin(ctx context.Context, kind models.NotificationType, subject string, data interface{}) {
	if s.adminEmail == "" {
		return
	}
	body, err := render(kind, data)
	if err != nil {
		s.logger.Error("Failed to render notification", "type", kind, "error", err)
		return
	}
	s.dispatch(ctx, models.Notification{
		Type:      kind,
		Recipient: s.adminEmail,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
}

func render(kind models.NotificationType, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := notificationTemplates.ExecuteTemplate(&buf, string(kind), data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *NotificationService) dispatch(ctx context.Context, n models.Notification) {
	if s.mailer == nil || n.Recipient == "" {
		s.logger.Debug("Notification skipped", "type", n.Type)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
		defer cancel()

		if err := s.mailer.SendHTML(sendCtx, n.Recipient, n.Subject, n.Body); err != nil {
			s.metrics.Notification(string(n.Type), "failed")
			s.logger.Warn("Notification delivery failed", "type", n.Type, "recipient", n.Recipient, "error", err)
			s.recordFailure(sendCtx, models.FailedNotification{
				Notification: n,
				Error:        err.Error(),
				FailedAt:     time.Now().UTC(),
			})
			return
		}
		s.metrics.Notification(string(n.Type), "sent")
	}()
}

func (s *NotificationService) recordFailure(ctx context.Context, f models.FailedNotification) {
	if s.redisClient != nil {
		payload, err := json.Marshal(f)
		if err == nil {
			pipe := s.redisClient.TxPipeline()
			pipe.LPush(ctx, failedNotificationsKey, payload)
			pipe.LTrim(ctx, failedNotificationsKey, 0, maxFailedNotifications-1)
			if _, err = pipe.Exec(ctx); err == nil {
				return
			}
		}
		s.logger.Error("Failed to store failed notification in redis", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append([]models.FailedNotification{f}, s.failed...)
	if len(s.failed) > maxFailedNotifications {
		s.failed = s.failed[:maxFailedNotifications]
	}
}

// ListFailed returns the most recent undelivered notifications, newest first.
func (s *NotificationService) ListFailed(ctx context.Context, limit int) ([]models.FailedNotification, error) {
	if limit <= 0 || limit > maxFailedNotifications {
		limit = maxFailedNotifications
	}

	s.mu.Lock()
	local := make([]models.FailedNotification, len(s.failed))
	copy(local, s.failed)
	s.mu.Unlock()

	if s.redisClient == nil {
		if len(local) > limit {
			local = local[:limit]
		}
		return local, nil
	}

	raw, err := s.redisClient.LRange(ctx, failedNotificationsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read failed notifications: %w", err)
	}
	out := make([]models.FailedNotification, 0, len(raw)+len(local))
	for _, item := range raw {
		var f models.FailedNotification
		if err := json.UnmarshalFromString(item, &f); err != nil {
			s.logger.Warn("Skipping unreadable failed notification", "error", err)
			continue
		}
		out = append(out, f)
	}
	out = append(out, local...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Wait blocks until every in-flight delivery has finished.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}
