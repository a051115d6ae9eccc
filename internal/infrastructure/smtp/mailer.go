package smtp

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"sync"

	"github.com/onlinestore-api/internal/config"
	"github.com/onlinestore-api/internal/domain"
)

//go:embed templates
var templateFS embed.FS

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer renders templated messages and delivers them over SMTP.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	send     sendFunc

	mu        sync.Mutex
	templates map[string]*template.Template
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		send:      smtp.SendMail,
		templates: make(map[string]*template.Template),
	}
}

// Send renders m.Template with m.Data and delivers the result.
// Every failure is reported as domain.ErrMailDelivery.
func (m *Mailer) Send(_ context.Context, mail domain.Mail) error {
	body, err := m.render(mail.Template, mail.Data)
	if err != nil {
		return fmt.Errorf("render %s: %w: %v", mail.Template, domain.ErrMailDelivery, err)
	}
	msg := buildMessage(mail.Sender, mail.Receiver, mail.Subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := m.send(addr, auth, mail.Sender, []string{mail.Receiver}, msg); err != nil {
		slog.Error("smtp delivery failed", "template", mail.Template, "addr", addr, "err", err)
		return fmt.Errorf("smtp send: %w: %v", domain.ErrMailDelivery, err)
	}
	return nil
}

func (m *Mailer) render(name string, data any) ([]byte, error) {
	tmpl, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Mailer) lookup(name string) (*template.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.templates[name]; ok {
		return t, nil
	}
	t, err := template.ParseFS(templateFS, "templates/"+name+".html")
	if err != nil {
		return nil, err
	}
	m.templates[name] = t
	return t, nil
}

func buildMessage(from, to, subject string, body []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	buf.Write(body)
	return buf.Bytes()
}
