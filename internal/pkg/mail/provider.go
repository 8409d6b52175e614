package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tush00nka/chitchat/internal/pkg/logging"
)

// Mailer отправляет код подтверждения на email
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error
}

// VerificationEvent сообщение в Kafka от API к почтовому воркеру
type VerificationEvent struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LogMailer пишет коды в лог вместо отправки. Только для разработки.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	m.log.Info(ctx, "verification code", "email", email, "code", code, "expires_at", expiresAt)
	return nil
}

func verificationBody(code string, expiresAt time.Time) string {
	return fmt.Sprintf("Your verification code is: %s\r\nIt expires at %s.\r\n",
		code, expiresAt.UTC().Format(time.RFC1123))
}

func composeMessage(from, to, subject, body string) []byte {
	return []byte(strings.Join([]string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n"))
}
