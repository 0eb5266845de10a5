package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/farmsmart/farm-smart/internal/api/middleware"
	"github.com/farmsmart/farm-smart/internal/models"
	"github.com/farmsmart/farm-smart/pkg/sendGrid"
)

type NotificationService interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

type notificationService struct {
	emailService sendGrid.EmailService
}

func NewNotificationService(emailService sendGrid.EmailService) NotificationService {
	return &notificationService{emailService: emailService}
}

// SendOrderConfirmation e-mails the order summary to the contact address.
// Orders without one are skipped.
func (n *notificationService) SendOrderConfirmation(ctx context.Context, order *models.Order) error {

	if order.ContactEmail == "" {
		return nil
	}

	req := &models.EmailNotificationRequest{
		To:      order.ContactEmail,
		Subject: fmt.Sprintf("Order %s confirmed", shortID(order)),
		Content: confirmationText(order),
	}

	if err := n.emailService.Send(ctx, req); err != nil {
		return fmt.Errorf("failed to send order confirmation: %w", err)
	}

	middleware.LoggerFromContext(ctx).Info("Order confirmation sent", slog.String("orderId", order.ID.String()))

	return nil
}

func shortID(order *models.Order) string {
	return strings.ToUpper(order.ID.String()[:8])
}

func confirmationText(order *models.Order) string {

	var b strings.Builder

	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", shortID(order))

	for _, item := range order.Items {
		fmt.Fprintf(&b, "%d x %s @ %s\n", item.Quantity, item.ProductName, item.UnitPrice.StringFixed(2))
	}

	fmt.Fprintf(&b, "\nTotal: %s\nPaid with: %s\n", order.TotalAmount.StringFixed(2), order.PaymentReference)

	return b.String()
}
