// Package mailer renders the German notification mails and sends them over SMTP.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/kinderbasar/backend/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Composer renders outbox mails from templates.
type Composer struct {
	templates map[string]*template.Template
	publicURL string
	organizer string
	loc       *time.Location
}

// NewComposer parses the embedded templates. Times are shown in loc.
func NewComposer(publicURL, organizer string, loc *time.Location) (*Composer, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := &Composer{
		templates: make(map[string]*template.Template),
		publicURL: publicURL,
		organizer: organizer,
		loc:       loc,
	}
	funcs := template.FuncMap{
		"date":     func(t time.Time) string { return t.In(loc).Format("02.01.2006") },
		"datetime": func(t time.Time) string { return t.In(loc).Format("02.01.2006 15:04") + " Uhr" },
	}
	for _, name := range []string{
		models.EmailTypeRegistrationConfirmation,
		models.EmailTypeSellerAccepted,
		models.EmailTypeSellerDenied,
		models.EmailTypePasswordReset,
		models.EmailTypeEmailChange,
	} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		c.templates[name] = t
	}
	return c, nil
}

type mailData struct {
	Subject   string
	Organizer string
	Name      string
	Event     *models.Event
	Seller    *models.Seller
	Link      string
	NewEmail  string
	ExpiresAt time.Time
}

func (c *Composer) render(emailType, to string, data mailData) (*models.OutboxEmail, error) {
	data.Organizer = c.organizer
	var buf bytes.Buffer
	if err := c.templates[emailType].ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", emailType, err)
	}
	m := &models.OutboxEmail{
		EmailType:      emailType,
		RecipientEmail: to,
		Subject:        data.Subject,
		BodyHTML:       buf.String(),
	}
	if data.Event != nil {
		id := data.Event.ID
		m.EventID = &id
	}
	return m, nil
}

func (c *Composer) link(path string, query url.Values) string {
	u := c.publicURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// RegistrationConfirmation is sent right after a public registration.
func (c *Composer) RegistrationConfirmation(ev *models.Event, reg *models.SellerRegistration) (*models.OutboxEmail, error) {
	return c.render(models.EmailTypeRegistrationConfirmation, reg.Email, mailData{
		Subject: "Registrierung zum " + ev.Name,
		Name:    reg.Name,
		Event:   ev,
	})
}

// SellerAccepted announces the seller number and attaches the label pickup appointment.
func (c *Composer) SellerAccepted(ev *models.Event, reg *models.SellerRegistration, seller *models.Seller) (*models.OutboxEmail, error) {
	m, err := c.render(models.EmailTypeSellerAccepted, reg.Email, mailData{
		Subject: fmt.Sprintf("Zusage für den %s: Verkäufernummer %d", ev.Name, seller.SellerNumber),
		Name:    reg.Name,
		Event:   ev,
		Seller:  seller,
		Link:    c.link("/events/"+ev.ID.String()+"/articles", nil),
	})
	if err != nil {
		return nil, err
	}
	ics, err := PickupCalendar(ev, seller, c.organizer, c.loc)
	if err != nil {
		return nil, err
	}
	m.Attachment = &models.Attachment{Name: "etiketten-abholung.ics", ContentType: CalendarContentType, Data: ics}
	return m, nil
}

// SellerDenied tells a registrant there is no seller slot.
func (c *Composer) SellerDenied(ev *models.Event, reg *models.SellerRegistration) (*models.OutboxEmail, error) {
	return c.render(models.EmailTypeSellerDenied, reg.Email, mailData{
		Subject: "Absage für den " + ev.Name,
		Name:    reg.Name,
		Event:   ev,
	})
}

// PasswordReset carries the single-use reset link.
func (c *Composer) PasswordReset(u *models.User, token string, expiresAt time.Time) (*models.OutboxEmail, error) {
	return c.render(models.EmailTypePasswordReset, u.Email, mailData{
		Subject:   "Passwort zurücksetzen",
		Name:      u.FullName,
		Link:      c.link("/password/reset", url.Values{"token": {token}}),
		ExpiresAt: expiresAt,
	})
}

// EmailChange goes to the new address and carries the confirmation link.
func (c *Composer) EmailChange(u *models.User, newEmail, token string, expiresAt time.Time) (*models.OutboxEmail, error) {
	return c.render(models.EmailTypeEmailChange, newEmail, mailData{
		Subject:   "Neue E-Mail-Adresse bestätigen",
		Name:      u.FullName,
		Link:      c.link("/email/confirm", url.Values{"token": {token}}),
		NewEmail:  newEmail,
		ExpiresAt: expiresAt,
	})
}
