package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"pcstore/models"
)

// EmailService sends transactional mail through SendGrid. When no API key is
// configured the service logs instead of sending, so local development works
// without credentials.
type EmailService struct {
	client *sendgrid.Client
	sender string
}

// NewEmailService builds the service from SENDGRID_API_KEY and EMAIL_SENDER.
func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	es := &EmailService{sender: os.Getenv("EMAIL_SENDER")}
	if apiKey == "" {
		log.Println("SENDGRID_API_KEY not set; emails will be logged, not sent")
		return es
	}
	es.client = sendgrid.NewSendClient(apiKey)
	return es
}

// Send delivers one email to the recipient.
func (es *EmailService) Send(toEmail, subject, htmlContent string) error {
	if es.client == nil {
		log.Printf("email (dry run) to=%s subject=%q", toEmail, subject)
		return nil
	}
	from := mail.NewEmail("PC Store", es.sender)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, htmlContent, htmlContent)
	resp, err := es.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("email rejected with status %d", resp.StatusCode)
	}
	return nil
}

// SendOrderConfirmation mails the order summary after placement.
func (es *EmailService) SendOrderConfirmation(toEmail string, order *models.Order) error {
	subject := "Order Confirmation - PC Store"
	content := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Thank you for your purchase! Your order (ID: %s) has been placed successfully.<br><br>Items: <strong>%d</strong><br>Total Amount: <strong>%.2f</strong><br>Payment Method: <strong>%s</strong><br><br>Thank you for shopping with us!",
		order.ShippingAddress.FirstName,
		order.ID.Hex(),
		order.TotalItems(),
		order.TotalPrice,
		order.PaymentMethod,
	)
	return es.Send(toEmail, subject, content)
}

// SendOrderStatusUpdate mails the customer when an order changes status.
func (es *EmailService) SendOrderStatusUpdate(toEmail string, order *models.Order) error {
	subject := "Order Status Updated - PC Store"
	content := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Your order (ID: %s) is now <strong>%s</strong>.<br><br>Thank you for shopping with us!",
		order.ShippingAddress.FirstName,
		order.ID.Hex(),
		order.Status,
	)
	return es.Send(toEmail, subject, content)
}
