package sendGrid

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/farmsmart/farm-smart/internal/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sony/gobreaker/v2"
)

// consecutive failures before the breaker stops calling SendGrid
const tripAfter = 5

type EmailService interface {
	Send(ctx context.Context, req *models.EmailNotificationRequest) error
}

type emailService struct {
	client    *sendgrid.Client
	breaker   *gobreaker.CircuitBreaker[struct{}]
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey string, fromEmail string, fromName string) EmailService {

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "sendgrid",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", slog.String("name", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})

	return &emailService{client: sendgrid.NewSendClient(apiKey), breaker: breaker, fromEmail: fromEmail, fromName: fromName}
}

func (e *emailService) Send(ctx context.Context, req *models.EmailNotificationRequest) error {

	message := e.buildMessage(req)

	_, err := e.breaker.Execute(func() (struct{}, error) {

		response, err := e.client.SendWithContext(ctx, message)
		if err != nil {
			return struct{}{}, err
		}

		if response.StatusCode >= 400 {
			return struct{}{}, fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
		}

		return struct{}{}, nil
	})

	return err
}

func (e *emailService) buildMessage(req *models.EmailNotificationRequest) *mail.SGMailV3 {

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(e.fromName, e.fromEmail))

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail("", req.To))

	personalization.Subject = req.Subject
	message.AddPersonalizations(personalization)

	message.AddContent(mail.NewContent("text/plain", req.Content))

	return message
}
