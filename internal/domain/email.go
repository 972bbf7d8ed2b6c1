package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// ActivationEmailData holds data for the account activation email.
type ActivationEmailData struct {
	Email          string
	Username       string
	Link           string
	ExpiresInHours int
}

// PasswordResetEmailData holds data for the password reset email.
type PasswordResetEmailData struct {
	Email            string
	Username         string
	Link             string
	ExpiresInMinutes int
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendActivation(ctx context.Context, data *ActivationEmailData) error
	SendPasswordReset(ctx context.Context, data *PasswordResetEmailData) error
}
