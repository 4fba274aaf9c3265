package service

import (
	"context"
	"fmt"

	"iotkit-rental-backend/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// mailSender delivers one plain-text message.
type mailSender interface {
	send(ctx context.Context, to, subject, body string) error
}

type emailService struct {
	sender mailSender
}

// NewEmailService sends through SendGrid, or logs the messages when apiKey is empty.
func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	if apiKey == "" {
		logger.Info("SendGrid API key not set, emails will be logged only")
		return &emailService{sender: logSender{}}
	}
	return &emailService{sender: &sendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}}
}

type sendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (s *sendGridSender) send(ctx context.Context, to, subject, body string) error {
	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", to), body, "")

	logger.ExternalServiceCall("sendgrid", "send", "to", to, "subject", subject)
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "to", to)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type logSender struct{}

func (logSender) send(ctx context.Context, to, subject, body string) error {
	logger.Info("Email (not sent)", "to", to, "subject", subject, "body", body)
	return nil
}

func (s *emailService) SendPenaltyNotice(ctx context.Context, email, kitName string, penaltyID int32, amount int64, billedForEmail string) error {
	subject := fmt.Sprintf("Penalty #%d issued for %s", penaltyID, kitName)
	body := fmt.Sprintf("Hello,\n\nA penalty of %d VND was issued after the return inspection of %s.", amount, kitName)
	if billedForEmail != "" && billedForEmail != email {
		body += fmt.Sprintf("\nIt covers the rental of %s, a member of your group.", billedForEmail)
	}
	body += "\n\nPlease pay it from your wallet.\n\nBest regards,\nIoT Kit Rental"
	return s.sender.send(ctx, email, subject, body)
}

func (s *emailService) SendPenaltyReminder(ctx context.Context, email string, penaltyID int32, amount int64, daysOutstanding int) error {
	subject := fmt.Sprintf("Reminder: penalty #%d is unpaid", penaltyID)
	body := fmt.Sprintf("Hello,\n\nPenalty #%d of %d VND has been outstanding for %d days.\n\nBest regards,\nIoT Kit Rental", penaltyID, amount, daysOutstanding)
	return s.sender.send(ctx, email, subject, body)
}

func (s *emailService) SendPenaltyReceipt(ctx context.Context, email string, penaltyID int32, amount int64) error {
	subject := fmt.Sprintf("Penalty #%d paid", penaltyID)
	body := fmt.Sprintf("Hello,\n\nWe received your payment of %d VND for penalty #%d.\n\nBest regards,\nIoT Kit Rental", amount, penaltyID)
	return s.sender.send(ctx, email, subject, body)
}

func (s *emailService) SendRefundNotice(ctx context.Context, email, kitName string, amount int64) error {
	subject := fmt.Sprintf("Refund for %s", kitName)
	body := fmt.Sprintf("Hello,\n\n%d VND was refunded to your wallet for the return of %s.\n\nBest regards,\nIoT Kit Rental", amount, kitName)
	return s.sender.send(ctx, email, subject, body)
}

func (s *emailService) SendRefundRejection(ctx context.Context, email, kitName, reason string) error {
	subject := fmt.Sprintf("Refund for %s rejected", kitName)
	body := fmt.Sprintf("Hello,\n\nYour refund for %s was rejected.\n\nReason: %s\n\nBest regards,\nIoT Kit Rental", kitName, reason)
	return s.sender.send(ctx, email, subject, body)
}
