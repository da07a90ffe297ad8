package events

import (
	"time"

	"github.com/kinderbasar/backend/internal/models"
)

var base = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func validEvent() *models.Event {
	return &models.Event{
		Name:                 "Frühjahrsbasar",
		Address:              "Gemeindehaus",
		RegisterStartsAt:     base,
		RegisterEndsAt:       base.AddDate(0, 0, 10),
		EditArticlesEndsAt:   base.AddDate(0, 0, 15),
		StartsAt:             base.AddDate(0, 0, 20),
		EndsAt:               base.AddDate(0, 0, 20).Add(6 * time.Hour),
		PickupLabelsStartsAt: base.AddDate(0, 0, 21),
		PickupLabelsEndsAt:   base.AddDate(0, 0, 22),
		MaxSellers:           70,
		CommissionPercent:    10,
	}
}

func requestFor(e *models.Event) EventRequest {
	return EventRequest{
		Name:                 e.Name,
		Address:              e.Address,
		StartsAt:             e.StartsAt,
		EndsAt:               e.EndsAt,
		RegisterStartsAt:     e.RegisterStartsAt,
		RegisterEndsAt:       e.RegisterEndsAt,
		EditArticlesEndsAt:   e.EditArticlesEndsAt,
		PickupLabelsStartsAt: e.PickupLabelsStartsAt,
		PickupLabelsEndsAt:   e.PickupLabelsEndsAt,
		MaxSellers:           e.MaxSellers,
		CommissionPercent:    e.CommissionPercent,
	}
}
