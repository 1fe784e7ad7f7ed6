package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/mindwell-app/mindwell-api/internal/logging"
)

// Service sends transactional mail over SMTP.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromEmail, frontendURL string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    fromEmail,
		frontendURL:  frontendURL,
	}
}

// SendVerificationCode emails the 6-digit account verification code.
// This method is designed to be called in a goroutine.
func (s *Service) SendVerificationCode(ctx context.Context, toEmail, name, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	subject := "Verify Your MindWell Account"
	body, err := renderTemplate(verificationTemplate, verificationData{
		Name:  name,
		Email: toEmail,
		Code:  code,
	})
	if err != nil {
		logger.Error("failed to render verification email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send verification email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification email sent", "email", toEmail)
	return nil
}

// SendPasswordReset emails a reset link embedding the token.
// This method is designed to be called in a goroutine.
func (s *Service) SendPasswordReset(ctx context.Context, toEmail, name, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)

	subject := "Reset Your MindWell Password"
	body, err := renderTemplate(passwordResetTemplate, passwordResetData{
		Name:      name,
		Email:     toEmail,
		ResetLink: resetLink,
	})
	if err != nil {
		logger.Error("failed to render password reset email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	// Build message
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

func renderTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

type verificationData struct {
	Name  string
	Email string
	Code  string
}

type passwordResetData struct {
	Name      string
	Email     string
	ResetLink string
}

const verificationTemplate = `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; color: #333;">
    <div style="background: #6B73FF; padding: 30px 20px; text-align: center;">
        <h1 style="color: white; margin: 0;">MindWell</h1>
        <p style="color: white; margin: 10px 0 0 0; opacity: 0.9;">Your mental health companion</p>
    </div>
    <div style="padding: 30px 20px; background: white;">
        <h2>Welcome, {{.Name}}!</h2>
        <p style="color: #666; line-height: 1.6;">
            Thank you for joining MindWell. To complete your account setup, please verify
            your email address using the code below:
        </p>
        <div style="background: #F8F9FF; border: 2px dashed #6B73FF; border-radius: 12px; padding: 24px; text-align: center; margin: 24px 0;">
            <p style="color: #666; margin: 0 0 10px 0; font-size: 14px;">Your verification code:</p>
            <h1 style="color: #6B73FF; margin: 0; font-size: 36px; letter-spacing: 8px; font-family: monospace;">{{.Code}}</h1>
        </div>
        <p style="color: #666; line-height: 1.6;">
            This code will expire in 10 minutes. If you didn't create an account with
            MindWell, please ignore this email.
        </p>
        <div style="border-top: 1px solid #eee; padding-top: 16px; margin-top: 32px;">
            <p style="color: #999; font-size: 12px; margin: 0;">This email was sent to {{.Email}}.</p>
        </div>
    </div>
</body>
</html>
`

const passwordResetTemplate = `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; color: #333;">
    <div style="background: #6B73FF; padding: 30px 20px; text-align: center;">
        <h1 style="color: white; margin: 0;">MindWell</h1>
        <p style="color: white; margin: 10px 0 0 0; opacity: 0.9;">Your mental health companion</p>
    </div>
    <div style="padding: 30px 20px; background: white;">
        <h2>Password Reset Request</h2>
        <p style="color: #666; line-height: 1.6;">
            Hi {{.Name}}, we received a request to reset your password for your MindWell account.
        </p>
        <div style="text-align: center; margin: 32px 0;">
            <a href="{{.ResetLink}}"
               style="background: #6B73FF; color: white; padding: 14px 28px; text-decoration: none; border-radius: 12px; font-weight: bold; display: inline-block;">
                Reset Password
            </a>
        </div>
        <p style="color: #666; line-height: 1.6;">
            This link will expire in 1 hour. If you didn't request a password reset, you
            can safely ignore this email. Your password will remain unchanged.
        </p>
        <p style="color: #999; font-size: 14px;">
            If the button doesn't work, copy and paste this link into your browser:<br>
            <span style="word-break: break-all;">{{.ResetLink}}</span>
        </p>
        <div style="border-top: 1px solid #eee; padding-top: 16px; margin-top: 32px;">
            <p style="color: #999; font-size: 12px; margin: 0;">This email was sent to {{.Email}}.</p>
        </div>
    </div>
</body>
</html>
`
