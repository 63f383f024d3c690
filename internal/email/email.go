// Package email sends transactional mail through Postmark. A nil Service (no
// API token configured) drops every send.
package email

import (
	"fmt"
	"strings"

	"github.com/keighl/postmark"

	"storefront/internal/models"
)

type Service struct {
	client *postmark.Client
	sender string
}

// NewService returns nil when token is empty, which disables email.
func NewService(token, sender string) *Service {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return &Service{
		client: postmark.NewClient(token, ""),
		sender: sender,
	}
}

// SendOrderConfirmation mails the shopper after an order is confirmed (COD or
// paid). Errors are returned so callers can log them; confirmation mail is
// never allowed to fail the order flow.
func (s *Service) SendOrderConfirmation(order models.Order) error {
	if s == nil {
		return nil
	}

	var lines strings.Builder
	for _, item := range order.Items {
		label := item.Name
		if item.Size != "" {
			label = fmt.Sprintf("%s (%s)", item.Name, item.Size)
		}
		fmt.Fprintf(&lines, "<li>%s × %d — %.2f</li>", label, item.Quantity, item.Price*float64(item.Quantity))
	}

	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your order <strong>%s</strong> is confirmed.</p><ul>%s</ul><p>Total: %.2f</p>",
		order.Customer.Name, order.OrderNumber, lines.String(), order.TotalAmount,
	)

	_, err := s.client.SendEmail(postmark.Email{
		From:     s.sender,
		To:       order.Customer.Email,
		Subject:  fmt.Sprintf("Order %s confirmed", order.OrderNumber),
		HtmlBody: htmlBody,
		TextBody: fmt.Sprintf("Your order %s is confirmed. Total: %.2f", order.OrderNumber, order.TotalAmount),
	})
	if err != nil {
		return fmt.Errorf("send order confirmation: %w", err)
	}
	return nil
}
