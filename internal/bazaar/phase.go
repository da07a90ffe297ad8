package bazaar

import "time"

// Windows are the stored lifecycle timestamps of an event.
type Windows struct {
	StartsAt             time.Time
	EndsAt               time.Time
	RegisterStartsAt     time.Time
	RegisterEndsAt       time.Time
	EditArticlesEndsAt   time.Time
	PickupLabelsStartsAt time.Time
	PickupLabelsEndsAt   time.Time
}

func within(now, from, to time.Time) bool {
	return !now.Before(from) && !now.After(to)
}

// CanRegister reports whether the public seller registration is open.
func (w Windows) CanRegister(now time.Time) bool {
	return within(now, w.RegisterStartsAt, w.RegisterEndsAt)
}

// CanEditArticles reports whether sellers may still create or change articles.
func (w Windows) CanEditArticles(now time.Time) bool {
	return !now.After(w.EditArticlesEndsAt)
}

// CanPickupLabels reports whether the label pickup window is open.
func (w Windows) CanPickupLabels(now time.Time) bool {
	return within(now, w.PickupLabelsStartsAt, w.PickupLabelsEndsAt)
}

// CanCreateBilling reports whether the checkout may book articles.
func (w Windows) CanCreateBilling(now time.Time) bool {
	return within(now, w.StartsAt, w.EndsAt)
}

// IsExpired reports whether the event is over.
func (w Windows) IsExpired(now time.Time) bool {
	return now.After(w.EndsAt)
}

// Phase is the set of actions currently allowed for an event.
type Phase struct {
	CanRegister      bool `json:"can_register"`
	CanEditArticles  bool `json:"can_edit_articles"`
	CanPickupLabels  bool `json:"can_pickup_labels"`
	CanCreateBilling bool `json:"can_create_billing"`
	IsExpired        bool `json:"is_expired"`
}

// PhaseAt evaluates every predicate at now.
func (w Windows) PhaseAt(now time.Time) Phase {
	return Phase{
		CanRegister:      w.CanRegister(now),
		CanEditArticles:  w.CanEditArticles(now),
		CanPickupLabels:  w.CanPickupLabels(now),
		CanCreateBilling: w.CanCreateBilling(now),
		IsExpired:        w.IsExpired(now),
	}
}
