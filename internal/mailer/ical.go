package mailer

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/kinderbasar/backend/internal/models"
)

// CalendarContentType is the MIME type of the pickup appointment.
const CalendarContentType = "text/calendar; charset=utf-8; method=REQUEST"

// PickupCalendar builds an iCalendar with the label pickup window of ev.
func PickupCalendar(ev *models.Event, seller *models.Seller, organizer string, loc *time.Location) ([]byte, error) {
	if !ev.PickupLabelsEndsAt.After(ev.PickupLabelsStartsAt) {
		return nil, fmt.Errorf("pickup window of event %s is empty", ev.ID)
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)
	cal.SetProductId("-//Kinderbasar//Etikettenabholung//DE")

	vevent := cal.AddEvent(fmt.Sprintf("pickup-%s-%d@kinderbasar", ev.ID, seller.SellerNumber))
	vevent.SetDtStampTime(time.Now().UTC())
	vevent.SetStartAt(ev.PickupLabelsStartsAt.In(loc))
	vevent.SetEndAt(ev.PickupLabelsEndsAt.In(loc))
	vevent.SetSummary(fmt.Sprintf("Etikettenabholung %s (Nr. %d)", ev.Name, seller.SellerNumber))
	if ev.Address != "" {
		vevent.SetLocation(ev.Address)
	}
	vevent.SetDescription(fmt.Sprintf("Abholung der Etiketten für Verkäufer %d. Veranstalter: %s", seller.SellerNumber, organizer))
	return []byte(cal.Serialize()), nil
}
