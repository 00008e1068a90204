package services

import (
  "context"
  "fmt"
  "os"

  "github.com/sendgrid/sendgrid-go"
  "github.com/sendgrid/sendgrid-go/helpers/mail"

  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
)

type EmailService interface {
  SendWelcomeEmail(ctx context.Context, toEmail string, name *string) error
}

type emailService struct {
  log       *logger.Logger
  client    *sendgrid.Client
  fromEmail string
}

// NewEmailService fails when SENDGRID_API_KEY is unset; callers treat the
// service as optional and run without welcome emails.
func NewEmailService(log *logger.Logger) (EmailService, error) {
  serviceLog := log.With("service", "EmailService")
  apiKey := os.Getenv("SENDGRID_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing SENDGRID_API_KEY environment variable")
  }
  fromEmail := os.Getenv("SENDGRID_SUPPORT_EMAIL")
  if fromEmail == "" {
    serviceLog.Warn("SENDGRID_SUPPORT_EMAIL not set; using fallback no-reply@taskpilot.app")
    fromEmail = "no-reply@taskpilot.app"
  }
  return &emailService{
    log:       serviceLog,
    client:    sendgrid.NewSendClient(apiKey),
    fromEmail: fromEmail,
  }, nil
}

func (es *emailService) SendWelcomeEmail(ctx context.Context, toEmail string, name *string) error {
  greeting := "there"
  if name != nil && *name != "" {
    greeting = *name
  }
  subject := "Welcome to Taskpilot"
  plainText := fmt.Sprintf("Hi %s,\n\nYour Taskpilot account is ready. Add tasks directly or just tell the assistant what you need to get done.\n", greeting)
  htmlContent := fmt.Sprintf("<p>Hi %s,</p><p>Your Taskpilot account is ready. Add tasks directly or just tell the assistant what you need to get done.</p>", greeting)

  from := mail.NewEmail("Taskpilot", es.fromEmail)
  to := mail.NewEmail("", toEmail)
  message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
  response, err := es.client.SendWithContext(ctx, message)
  if err != nil {
    es.log.Warn("Sendgrid email send failed", "error", err)
    return err
  }
  es.log.Info("Welcome email sent", "to", toEmail, "statusCode", response.StatusCode)
  return nil
}
