package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"clubsite/internal/models"
)

// sesMaxRecipients is the SES limit on destinations per message
const sesMaxRecipients = 50

// EmailService sends the club's e-mails through Amazon SES
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
}

// NewEmailService creates the SES client. Without a sender address the
// service is disabled and every send is skipped.
func NewEmailService(awsRegion, fromEmail, fromName string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// NotifyNewMember e-mails the registration details to the administrator
func (s *EmailService) NotifyNewMember(ctx context.Context, adminEmail string, member models.Member) error {
	msg := NewRegistrationMail(adminEmail, member)
	return s.send(ctx, &types.Destination{ToAddresses: msg.To}, msg)
}

// SendMemberMail sends an admin message to members. Members are blind-copied
// so they do not see each other's addresses.
func (s *EmailService) SendMemberMail(ctx context.Context, msg MailMessage) error {
	for batch := range slices.Chunk(msg.To, sesMaxRecipients) {
		dest := &types.Destination{ToAddresses: []string{s.fromEmail}, BccAddresses: batch}
		if err := s.send(ctx, dest, msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *EmailService) send(ctx context.Context, dest *types.Destination, msg MailMessage) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): %q", msg.Subject)
		return nil
	}

	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      dest,
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(renderHTML(msg)), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send %q: %w", msg.Subject, err)
	}

	log.Printf("Email sent: subject=%q, recipients=%d", msg.Subject, len(dest.ToAddresses)+len(dest.BccAddresses))
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h2 style="color: #c8102e;">%s</h2>
	<div style="white-space: pre-line;">%s</div>
</body>
</html>
`

func renderHTML(msg MailMessage) string {
	return fmt.Sprintf(htmlTemplate, html.EscapeString(msg.Subject), html.EscapeString(msg.Body))
}
