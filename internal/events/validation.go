package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/kinderbasar/backend/internal/bazaar"
)

// tagDateRange marks struct-level date window failures.
const tagDateRange = "daterange"

// RegisterValidators installs the event date window check on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	v.RegisterStructValidation(eventRequestValidation, EventRequest{})
	return nil
}

func eventRequestValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(EventRequest)
	w := req.windows()
	for _, t := range []time.Time{w.StartsAt, w.EndsAt, w.RegisterStartsAt, w.RegisterEndsAt,
		w.EditArticlesEndsAt, w.PickupLabelsStartsAt, w.PickupLabelsEndsAt} {
		if t.IsZero() {
			return // reported by the required tags
		}
	}
	if field := w.InvalidField(); field != "" {
		sl.ReportError(req, field, field, tagDateRange, "")
	}
}

// bindError turns a binding failure into a domain error when it is a date window
// violation.
func bindError(err error) (*bazaar.Error, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	for _, fe := range verrs {
		if fe.Tag() == tagDateRange {
			return bazaar.ErrInvalidDateRange.WithDetail(fe.Field()), true
		}
	}
	return nil, false
}
