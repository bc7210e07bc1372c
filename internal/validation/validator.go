// Package validation provides request validation utilities using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/util"
)

var usernameRe = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the clock used by the notfuture tag.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New creates a validator configured for our domain.
//
// Custom tags:
//
//	username   letters, digits and . @ + - _ only, and never the reserved "me"
//	slug       letters, digits, dashes and underscores
//	notfuture  an integer year no later than the current year
//	notblank   a string with at least one non-space character
func New(opts ...Option) *Validator {
	val := &Validator{v: validator.New(), now: time.Now}
	for _, opt := range opts {
		opt(val)
	}

	// Use JSON tag names in error messages
	val.v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(val.v, "username", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return usernameRe.MatchString(s) && s != domain.ReservedUsername
	})
	mustRegister(val.v, "slug", func(fl validator.FieldLevel) bool {
		return util.IsSlug(fl.Field().String())
	})
	mustRegister(val.v, "notfuture", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(val.now().Year())
	})
	mustRegister(val.v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return val
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Fields validates s and returns the field-keyed messages, so callers can merge
// them with checks that need the database.
func (v *Validator) Fields(s any) domainerrors.FieldErrors {
	err := v.Validate(s)
	if err == nil {
		return nil
	}
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Fields()
	}
	return domainerrors.FieldErrors{}.Add("non_field_errors", err.Error())
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var fields domainerrors.FieldErrors
	for _, e := range validationErrs {
		fields = fields.Add(e.Field(), v.friendlyMessage(e))
	}
	return fields.Err()
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "username":
		if e.Value() == domain.ReservedUsername {
			return fmt.Sprintf("username %q is reserved", domain.ReservedUsername)
		}
		return "may contain only letters, digits and @/./+/-/_ characters"
	case "slug":
		return "may contain only letters, digits, dashes and underscores"
	case "notfuture":
		return "year cannot be later than the current year"
	case "notblank":
		return "this field may not be blank"
	default:
		return "is invalid"
	}
}
