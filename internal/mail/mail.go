package mail

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Service sends transactional mail through SendGrid. Constructed once in main
// and injected; every send is fire-and-forget from the caller's perspective.
type Service struct {
	client *sendgrid.Client
	sender string
}

func NewService(apiKey, sender string) *Service {
	return &Service{
		client: sendgrid.NewSendClient(apiKey),
		sender: sender,
	}
}

// Send delivers a single HTML mail. Failures are returned so callers can log
// them, but no caller treats a mail failure as fatal.
func (s *Service) Send(toEmail, subject, htmlContent string) error {
	from := sgmail.NewEmail("QuickBite", s.sender)
	to := sgmail.NewEmail("", toEmail)
	message := sgmail.NewSingleEmail(from, subject, to, htmlContent, htmlContent)

	resp, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// SendOtp mails a password-reset code.
func (s *Service) SendOtp(toEmail, otp string) {
	subject := "Your QuickBite password reset code"
	body := fmt.Sprintf(
		"<strong>Your password reset code is %s.</strong><br>It expires in 5 minutes.",
		otp,
	)
	if err := s.Send(toEmail, subject, body); err != nil {
		log.Println("[MAIL] [ERROR] otp mail failed:", err)
	}
}

// SendPaymentConfirmation mails an online-payment receipt.
func (s *Service) SendPaymentConfirmation(toEmail, orderID string, amount float64) {
	subject := "Payment received"
	body := fmt.Sprintf(
		"<strong>Thank you!</strong><br>Payment of %.2f for order %s was received. Your food is on the way.",
		amount, orderID,
	)
	if err := s.Send(toEmail, subject, body); err != nil {
		log.Println("[MAIL] [ERROR] payment confirmation mail failed:", err)
	}
}

// RelayContactMessage forwards a contact-form submission to the support inbox.
func (s *Service) RelayContactMessage(inbox, fromEmail, name, message string) {
	subject := fmt.Sprintf("Contact form: %s", name)
	body := fmt.Sprintf("<strong>From:</strong> %s (%s)<br><br>%s", name, fromEmail, message)
	if err := s.Send(inbox, subject, body); err != nil {
		log.Println("[MAIL] [ERROR] contact relay failed:", err)
	}
}
