package notify

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/keerthik-19/summer-camp-registration/internal/models"
)

// Kind selects an email template.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindReminder     Kind = "reminder"
)

// ParseKind accepts the preview query values. Empty means confirmation.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindConfirmation:
		return KindConfirmation, nil
	case KindReminder:
		return KindReminder, nil
	}
	return "", fmt.Errorf("unknown email type %q", s)
}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type emailView struct {
	Reg       *models.Registration
	QRDataURI template.URL
}

// Render builds the subject and HTML body for a registration.
func Render(kind Kind, reg *models.Registration) (subject, html string, err error) {
	view := emailView{Reg: reg}

	var name string
	switch kind {
	case KindConfirmation:
		subject = "Summer Camp Registration Confirmation - Ticket #" + reg.RegistrationID
		name = "confirmation.html"
		uri, err := QRDataURI(reg.RegistrationID)
		if err != nil {
			return "", "", err
		}
		view.QRDataURI = uri
	case KindReminder:
		subject = "Payment Reminder - Summer Camp Registration #" + reg.RegistrationID
		name = "reminder.html"
	default:
		return "", "", fmt.Errorf("unknown email kind %q", kind)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, view); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}
	return subject, buf.String(), nil
}

// QRPNG encodes the ticket number as a PNG QR code.
func QRPNG(ticket string, size int) ([]byte, error) {
	return qrcode.Encode(ticket, qrcode.Medium, size)
}

func QRDataURI(ticket string) (template.URL, error) {
	png, err := QRPNG(ticket, 256)
	if err != nil {
		return "", fmt.Errorf("qr: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
