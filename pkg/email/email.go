// Package email sends transactional mail through the Resend API.
//
// Services depend on the EmailSender interface; main wires the Resend
// implementation only when RESEND_API_KEY, RESEND_FROM and APP_URL are set,
// otherwise a nil sender means "email disabled".
package email

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v3"
)

// EmailSender is the mail surface the services need.
type EmailSender interface {
	// SendPasswordReset mails a reset link carrying the plaintext token.
	SendPasswordReset(ctx context.Context, toEmail, token string) error
	// SendMembershipDecision tells a user their join or withdrawal request
	// was resolved. circleID builds the link back to the circle page.
	SendMembershipDecision(ctx context.Context, toEmail, subject, message, circleID string) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewResendSender builds an EmailSender backed by Resend. fromEmail must
// belong to a domain verified in Resend.
func NewResendSender(apiKey, fromEmail, appURL string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

func (s *resendSender) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)

	body := fmt.Sprintf(`<p>We received a request to reset your password.</p>
<p><a href="%s">Reset password</a></p>
<p>This link expires in 20 minutes. If you did not request it, ignore this email.</p>`, resetLink)

	return s.send(ctx, toEmail, "Reset your password", "Password reset", body)
}

func (s *resendSender) SendMembershipDecision(ctx context.Context, toEmail, subject, message, circleID string) error {
	link := fmt.Sprintf("%s/circles/%s", s.appURL, circleID)

	body := fmt.Sprintf(`<p>%s</p>
<p><a href="%s">%s</a></p>`, html.EscapeString(message), link, link)

	return s.send(ctx, toEmail, subject, subject, body)
}

func (s *resendSender) send(ctx context.Context, to, subject, heading, body string) error {
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family:Arial,Helvetica,sans-serif;color:#1f2937;">
  <h2>%s</h2>
  %s
</body>
</html>`, html.EscapeString(heading), body)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Circles <%s>", s.fromEmail),
		To:      []string{to},
		Subject: subject,
		Html:    page,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
