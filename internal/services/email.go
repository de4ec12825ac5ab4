package services

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"syscall"
	"time"

	"github.com/maxcyking/ngo-library-sub001/internal/config"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// Mailer sends a single HTML message
type Mailer interface {
	SendHTML(ctx context.Context, to, subject, html string) error
}

// EmailService talks SMTP directly: implicit TLS when UseSSL, STARTTLS when
// UseTLS, plain otherwise.
type EmailService struct {
	config config.EmailConfig
	logger *slog.Logger
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.EmailConfig, logger *slog.Logger) *EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	service := &EmailService{
		config: cfg,
		logger: logger,
	}

	if err := service.validateConfig(); err != nil {
		logger.Warn("Email service created with incomplete configuration", "error", err)
	}

	return service
}

// Configured reports whether enough settings are present to attempt delivery.
func (s *EmailService) Configured() bool {
	return s.validateConfig() == nil
}

// SendHTML sends an HTML email to a single recipient
func (s *EmailService) SendHTML(ctx context.Context, to, subject, html string) error {
	if err := s.validateConfig(); err != nil {
		return err
	}
	if !models.EmailPattern.MatchString(to) {
		return fmt.Errorf("invalid recipient email: %w", models.ErrInvalidEmail)
	}

	msg := s.buildMessage(to, subject, html)
	err := s.session(ctx, func(c *smtp.Client) error {
		if err := c.Mail(s.config.FromEmail); err != nil {
			return err
		}
		if err := c.Rcpt(to); err != nil {
			return err
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte(msg)); err != nil {
			return err
		}
		return w.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("Email sent", "to", to, "subject", subject)
	return nil
}

// TestConnection connects, negotiates TLS and authenticates without sending,
// and explains the first failure in terms an administrator can act on.
func (s *EmailService) TestConnection(ctx context.Context) models.EmailDiagnostic {
	if err := s.validateConfig(); err != nil {
		return models.EmailDiagnostic{
			Code:    models.EmailDiagnosticMissingConfig,
			Message: "Email is not configured: " + err.Error(),
		}
	}

	err := s.session(ctx, func(c *smtp.Client) error { return c.Noop() })
	if err != nil {
		diag := ClassifySMTPError(err)
		s.logger.Warn("SMTP connection test failed", "code", diag.Code, "error", err)
		return diag
	}

	return models.EmailDiagnostic{
		Success: true,
		Code:    models.EmailDiagnosticOK,
		Message: fmt.Sprintf("Connected to %s:%d successfully", s.config.SMTPHost, s.config.SMTPPort),
	}
}

type smtpStage string

const (
	stageDial smtpStage = "dial"
	stageTLS  smtpStage = "tls"
	stageAuth smtpStage = "auth"
	stageSend smtpStage = "send"
)

type smtpError struct {
	stage smtpStage
	err   error
}

func (e *smtpError) Error() string { return fmt.Sprintf("smtp %s: %v", e.stage, e.err) }
func (e *smtpError) Unwrap() error { return e.err }

// session opens a connection and runs fn on the authenticated client.
func (s *EmailService) session(ctx context.Context, fn func(*smtp.Client) error) error {
	timeout := time.Duration(s.config.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(s.config.SMTPHost, fmt.Sprint(s.config.SMTPPort))
	tlsConfig := &tls.Config{ServerName: s.config.SMTPHost}
	dialer := &net.Dialer{}

	var conn net.Conn
	var err error
	if s.config.UseSSL {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: tlsConfig}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			if isTLSError(err) {
				return &smtpError{stage: stageTLS, err: err}
			}
			return &smtpError{stage: stageDial, err: err}
		}
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return &smtpError{stage: stageDial, err: err}
		}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return &smtpError{stage: stageDial, err: err}
	}
	defer client.Close()

	if s.config.UseTLS && !s.config.UseSSL {
		if err := client.StartTLS(tlsConfig); err != nil {
			return &smtpError{stage: stageTLS, err: err}
		}
	}

	if s.config.SMTPUsername != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return &smtpError{stage: stageAuth, err: err}
		}
	}

	if err := fn(client); err != nil {
		return &smtpError{stage: stageSend, err: err}
	}
	return client.Quit()
}

// ClassifySMTPError maps a connection failure to a diagnostic code and message.
func ClassifySMTPError(err error) models.EmailDiagnostic {
	diag := models.EmailDiagnostic{Detail: err.Error()}

	var stageErr *smtpError
	stage := smtpStage("")
	if errors.As(err, &stageErr) {
		stage = stageErr.stage
	}

	var netErr net.Error
	var dnsErr *net.DNSError
	var protoErr *textproto.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		diag.Code = models.EmailDiagnosticTimeout
		diag.Message = "The mail server did not respond in time. Check the port and any firewall between this server and the SMTP host."
	case errors.As(err, &dnsErr):
		diag.Code = models.EmailDiagnosticHostUnreachable
		diag.Message = "The SMTP host name could not be resolved. Check the host setting."
	case errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH):
		diag.Code = models.EmailDiagnosticHostUnreachable
		diag.Message = "The SMTP host refused the connection. Check the host and port settings."
	case stage == stageTLS || isTLSError(err):
		diag.Code = models.EmailDiagnosticTLS
		diag.Message = "The secure connection could not be established. Check the SSL/TLS setting matches the port (465 for SSL, 587 for STARTTLS)."
	case stage == stageAuth || (errors.As(err, &protoErr) && (protoErr.Code == 535 || protoErr.Code == 534)):
		diag.Code = models.EmailDiagnosticAuthFailed
		diag.Message = "The mail server rejected the username or password. Some providers require an app password."
	case stage == stageDial:
		diag.Code = models.EmailDiagnosticHostUnreachable
		diag.Message = "Could not connect to the SMTP host."
	default:
		diag.Code = models.EmailDiagnosticUnknown
		diag.Message = "The mail server returned an unexpected error."
	}
	return diag
}

func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var certErr x509.CertificateInvalidError
	var verifyErr *tls.CertificateVerificationError
	return errors.As(err, &recordErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &certErr) ||
		errors.As(err, &verifyErr)
}

// buildMessage constructs the email message
func (s *EmailService) buildMessage(to, subject, body string) string {
	from := s.config.FromEmail
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}

	headers := [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", subject},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var message strings.Builder
	for _, h := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	return message.String()
}

// validateConfig validates the email configuration
func (s *EmailService) validateConfig() error {
	if s.config.SMTPHost == "" {
		return errors.New("SMTP host is required")
	}
	if s.config.SMTPPort <= 0 || s.config.SMTPPort > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", s.config.SMTPPort)
	}
	if s.config.FromEmail == "" {
		return errors.New("from email is required")
	}
	if !models.EmailPattern.MatchString(s.config.FromEmail) {
		return fmt.Errorf("invalid from email: %w", models.ErrInvalidEmail)
	}
	if s.config.SMTPUsername != "" && s.config.SMTPPassword == "" {
		return errors.New("SMTP password is required when a username is set")
	}
	return nil
}
