package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/repairhub/repairhub-api/models"
	"github.com/repairhub/repairhub-api/utils"
)

// bookingWindowMonths is how far ahead a booking may be scheduled
const bookingWindowMonths = 3

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	must("person_name", func(fl validator.FieldLevel) bool {
		return utils.IsPersonName(fl.Field().String())
	})
	must("no_markup", func(fl validator.FieldLevel) bool {
		return !utils.HasMarkup(fl.Field().String())
	})
	must("phone", func(fl validator.FieldLevel) bool {
		return utils.IsValidPhone(fl.Field().String())
	})

	return v
}

// validateStruct runs the struct tags of input and converts failures into a
// ValidationError naming every failing field
func validateStruct(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "person_name":
		return "may only contain letters, spaces and hyphens"
	case "no_markup":
		return "must not contain <, >, { or }"
	case "phone":
		return "must be 10 to 15 digits, optionally starting with +"
	case "gt":
		return "is required"
	}
	return "is invalid"
}

// merge appends the fields of more to v, returning nil when there are none
func merge(v *ValidationError, more error) *ValidationError {
	if more == nil {
		return v
	}
	var ve *ValidationError
	if !errors.As(more, &ve) {
		return v
	}
	if v == nil {
		v = &ValidationError{}
	}
	v.Fields = append(v.Fields, ve.Fields...)
	return v
}

// parsePreferredDate accepts "2006-01-02" or an RFC 3339 timestamp and
// returns the calendar day in now's location, checked against the window
// [today, today + 3 months], both ends inclusive
func parsePreferredDate(raw string, now time.Time) (string, error) {
	loc := now.Location()

	day, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, strings.TrimSpace(raw))
		if tsErr != nil {
			return "", fieldError("preferred_date", "must be a date in YYYY-MM-DD format")
		}
		ts = ts.In(loc)
		day = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	latest := today.AddDate(0, bookingWindowMonths, 0)

	switch {
	case day.Before(today):
		return "", fieldError("preferred_date", "must not be in the past")
	case day.After(latest):
		return "", fieldError("preferred_date", fmt.Sprintf("must be within %d months from today", bookingWindowMonths))
	}
	return day.Format(models.DateLayout), nil
}
