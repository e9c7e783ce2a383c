// Package notify renders and delivers parent-facing emails, either inline
// through SendGrid or through a RabbitMQ queue drained by a consumer.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/keerthik-19/summer-camp-registration/internal/models"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer talks to the SendGrid v3 mail API. Without an API key it runs in
// demo mode and only logs what it would send.
type Mailer struct {
	apiKey string
	from   string
	host   string
	client *rest.Client
}

func NewMailer(apiKey, from string) *Mailer {
	return &Mailer{
		apiKey: apiKey,
		from:   from,
		host:   sendGridHost,
		client: &rest.Client{HTTPClient: &http.Client{Timeout: 10 * time.Second}},
	}
}

// WithEndpoint points the mailer at another API host, e.g. a test server.
func (m *Mailer) WithEndpoint(host string) *Mailer {
	m.host = strings.TrimRight(host, "/")
	return m
}

func (m *Mailer) DemoMode() bool { return m.apiKey == "" }

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if m.DemoMode() {
		log.Printf("email (demo mode): subject=%q", msg.Subject)
		return nil
	}

	email := mail.NewV3MailInit(
		mail.NewEmail("", m.from),
		msg.Subject,
		mail.NewEmail("", msg.To),
		mail.NewContent("text/html", msg.HTML),
	)
	req := sendgrid.GetRequest(m.apiKey, sendGridEndpoint, m.host)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(email)

	resp, err := m.client.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		body := resp.Body
		if len(body) > 512 {
			body = body[:512]
		}
		return fmt.Errorf("sendgrid: %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(body))
	}
	log.Printf("email sent: subject=%q", msg.Subject)
	return nil
}

func (m *Mailer) Confirmation(ctx context.Context, reg *models.Registration) error {
	return m.deliver(ctx, KindConfirmation, reg)
}

func (m *Mailer) PaymentReminder(ctx context.Context, reg *models.Registration) error {
	return m.deliver(ctx, KindReminder, reg)
}

func (m *Mailer) deliver(ctx context.Context, kind Kind, reg *models.Registration) error {
	subject, html, err := Render(kind, reg)
	if err != nil {
		return err
	}
	return m.Send(ctx, Message{To: reg.ParentEmail, Subject: subject, HTML: html})
}
