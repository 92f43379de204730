package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report json names so field errors match the request body
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("date", isDate)
	})
	return validate
}

func isDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

const DateLayout = "2006-01-02"

// Struct validates a DTO using its `validate` tags and converts failures to an AppError.
func Struct(v interface{}) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return internal.NewValidationError("invalid input", internal.ErrCodeValidationFailed)
	}

	out := internal.ValidationErrors{Errors: make([]internal.ValidationError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, internal.ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Code:    string(internal.ErrCodeValidationFailed),
		})
	}
	return internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).WithDetails(out)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "date":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// Field builds a single-field validation error.
func Field(field, msg string, code internal.ErrorCode) error {
	return internal.NewValidationFieldError(field, msg, code)
}

// ParseDate parses a YYYY-MM-DD value and reports failures against field.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, Field(field, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field), internal.ErrCodeInvalidDate)
	}
	return t, nil
}

// DateRange parses both bounds and checks from <= to.
func DateRange(fromField, from, toField, to string) (time.Time, time.Time, error) {
	f, err := ParseDate(fromField, from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	t, err := ParseDate(toField, to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if t.Before(f) {
		return time.Time{}, time.Time{}, Field(toField, fmt.Sprintf("%s must not be before %s", toField, fromField), internal.ErrCodeInvalidDate)
	}
	return f, t, nil
}
