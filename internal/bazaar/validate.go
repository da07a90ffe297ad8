package bazaar

// InvalidField returns the JSON name of the first window that breaks the ordering
// register start < register end < edit-articles end < event start < event end,
// event start < pickup start < pickup end. It returns "" for valid windows.
func (w Windows) InvalidField() string {
	checks := []struct {
		ok    bool
		field string
	}{
		{w.RegisterStartsAt.Before(w.RegisterEndsAt), "register_ends_at"},
		{w.RegisterEndsAt.Before(w.EditArticlesEndsAt), "edit_articles_ends_at"},
		{w.EditArticlesEndsAt.Before(w.StartsAt), "starts_at"},
		{w.StartsAt.Before(w.EndsAt), "ends_at"},
		{w.StartsAt.Before(w.PickupLabelsStartsAt), "pickup_labels_starts_at"},
		{w.PickupLabelsStartsAt.Before(w.PickupLabelsEndsAt), "pickup_labels_ends_at"},
	}
	for _, c := range checks {
		if !c.ok {
			return c.field
		}
	}
	return ""
}

// Validate returns ErrInvalidDateRange naming the offending field, or nil.
func (w Windows) Validate() error {
	if f := w.InvalidField(); f != "" {
		return ErrInvalidDateRange.WithDetail(f)
	}
	return nil
}

// ValidateCapacity checks max sellers and commission.
func ValidateCapacity(maxSellers, commissionPercent int) error {
	if maxSellers <= 0 {
		return ErrInvalidInput.WithDetail("max_sellers")
	}
	if commissionPercent < 0 || commissionPercent > 100 {
		return ErrInvalidInput.WithDetail("commission_percent")
	}
	return nil
}
