package mailer

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/models"
)

func testEvent() *models.Event {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return &models.Event{
		ID:                   uuid.New(),
		Name:                 "Frühjahrsbasar",
		Address:              "Gemeindehaus, Kirchweg 1",
		StartsAt:             start,
		EndsAt:               start.Add(6 * time.Hour),
		EditArticlesEndsAt:   start.AddDate(0, 0, -3),
		PickupLabelsStartsAt: start.AddDate(0, 0, -2),
		PickupLabelsEndsAt:   start.AddDate(0, 0, -2).Add(2 * time.Hour),
	}
}

func newTestComposer(t *testing.T) *Composer {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	c, err := NewComposer("https://basar.example", "Basar-Team", loc)
	require.NoError(t, err)
	return c
}

func TestComposer_RegistrationConfirmation(t *testing.T) {
	c := newTestComposer(t)
	ev := testEvent()
	m, err := c.RegistrationConfirmation(ev, &models.SellerRegistration{Name: "Anna", Email: "anna@example.com"})
	require.NoError(t, err)

	assert.Equal(t, models.EmailTypeRegistrationConfirmation, m.EmailType)
	assert.Equal(t, "anna@example.com", m.RecipientEmail)
	assert.Equal(t, ev.ID, *m.EventID)
	assert.Contains(t, m.BodyHTML, "Hallo Anna")
	assert.Contains(t, m.BodyHTML, "14.03.2026")
	assert.Contains(t, m.BodyHTML, "Basar-Team")
	assert.Nil(t, m.Attachment)
}

func TestComposer_SellerAcceptedAttachesPickup(t *testing.T) {
	c := newTestComposer(t)
	ev := testEvent()
	seller := &models.Seller{SellerNumber: 17, MaxArticleCount: bazaar.SellerRoleStandard.MaxArticles()}
	m, err := c.SellerAccepted(ev, &models.SellerRegistration{Name: "Anna", Email: "anna@example.com"}, seller)
	require.NoError(t, err)

	assert.Contains(t, m.Subject, "Verkäufernummer 17")
	assert.Contains(t, m.BodyHTML, "<strong>17</strong>")
	assert.Contains(t, m.BodyHTML, "24 Artikel")
	// 10:00 Berlin local time for a 09:00 UTC start.
	assert.Contains(t, m.BodyHTML, "12.03.2026 10:00 Uhr")
	require.NotNil(t, m.Attachment)
	assert.Equal(t, CalendarContentType, m.Attachment.ContentType)
	assert.Contains(t, string(m.Attachment.Data), "BEGIN:VCALENDAR")
}

func TestComposer_EscapesUserInput(t *testing.T) {
	c := newTestComposer(t)
	m, err := c.SellerDenied(testEvent(), &models.SellerRegistration{Name: "<script>x</script>", Email: "x@example.com"})
	require.NoError(t, err)
	assert.NotContains(t, m.BodyHTML, "<script>")
	assert.Contains(t, m.BodyHTML, "&lt;script&gt;")
}

func TestComposer_PasswordResetLink(t *testing.T) {
	c := newTestComposer(t)
	m, err := c.PasswordReset(&models.User{Email: "u@example.com", FullName: "Uwe"}, "abc_123", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Contains(t, m.BodyHTML, "https://basar.example/password/reset?token=abc_123")
	assert.Nil(t, m.EventID)
}

func TestComposer_EmailChangeGoesToNewAddress(t *testing.T) {
	c := newTestComposer(t)
	m, err := c.EmailChange(&models.User{Email: "old@example.com", FullName: "Uwe"}, "new@example.com", "tok", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", m.RecipientEmail)
	assert.Contains(t, m.BodyHTML, "new@example.com")
}

func TestPickupCalendar(t *testing.T) {
	ev := testEvent()
	data, err := PickupCalendar(ev, &models.Seller{SellerNumber: 5}, "Basar-Team", time.UTC)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, "METHOD:REQUEST")
	assert.Contains(t, s, "BEGIN:VEVENT")
	assert.Contains(t, s, "Nr. 5")
	assert.Contains(t, s, "20260312T090000Z")
}

func TestPickupCalendar_EmptyWindow(t *testing.T) {
	ev := testEvent()
	ev.PickupLabelsEndsAt = ev.PickupLabelsStartsAt
	_, err := PickupCalendar(ev, &models.Seller{SellerNumber: 5}, "Basar-Team", time.UTC)
	assert.Error(t, err)
}

func TestSMTPSender_Message(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{FromAddress: "noreply@example.com", FromName: "Kinderbasar"}, nil)
	msg, err := s.Message(&models.OutboxEmail{
		RecipientEmail: "anna@example.com",
		Subject:        "Hallo",
		BodyHTML:       "<p>Hallo</p>",
		Attachment:     &models.Attachment{Name: "termin.ics", ContentType: CalendarContentType, Data: []byte("BEGIN:VCALENDAR")},
	})
	require.NoError(t, err)

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"anna@example.com"}, rcpts)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "termin.ics")
}

func TestSMTPSender_MessageRejectsBadRecipient(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{FromAddress: "noreply@example.com"}, nil)
	_, err := s.Message(&models.OutboxEmail{RecipientEmail: "not an address"})
	assert.Error(t, err)
}
