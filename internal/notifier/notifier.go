package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Notifier wysyła jednorazowe wiadomości do użytkowników (np. powitanie
// po rejestracji). Wysyłka jest fire-and-forget: błąd wraca do wołającego,
// ale nic go nie ponawia i nigdy nie blokuje właściwej operacji.
type Notifier interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

type SMTPNotifier struct {
	addr string
	from string
}

func NewSMTP(addr string, from string) *SMTPNotifier {
	return &SMTPNotifier{addr: addr, from: from}
}

func (n *SMTPNotifier) Send(ctx context.Context, to string, subject string, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(n.addr, nil, n.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// Noop połyka wiadomości; używany, gdy SMTP nie jest skonfigurowany.
type Noop struct{}

func (Noop) Send(ctx context.Context, to string, subject string, body string) error {
	return nil
}
