package validate

// This package adds struct and field validation as a thin wrapper around the go-playground/validator package.
//
// e.g. internal/nav/config.go
//   type Config struct {
//       Items      []Item        `validate:"required,min=1,max=10,dive"`
//       Strategy   Strategy      `validate:"oneof=coverage intersection"`
//       LongGrace  time.Duration `validate:"gtefield=ShortGrace"`
//   }
//
// Besides the built-in tags it registers navhref for menu item targets.

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// validatorInstance is a shared validator for the application.
// It is initialized once and reused to avoid repeated allocations.
//
//nolint:gochecknoglobals // Shared validator singleton.
var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

// get returns a process-wide singleton of the validator.
func get() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New(validator.WithRequiredStructEnabled())
		if err := validatorInst.RegisterValidation("navhref", navHref); err != nil {
			panic(err)
		}
	})
	return validatorInst
}

// Struct validates a struct using the shared validator instance.
func Struct(v any) error {
	return get().Struct(v)
}

// Var validates a single variable against the provided tag constraints.
func Var(field any, tag string) error {
	return get().Var(field, tag)
}

// FirstFailure returns the namespace and tag of the first failed constraint in err.
// ok is false when err is not a validation error.
func FirstFailure(err error) (field, tag string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", "", false
	}
	return verrs[0].Namespace(), verrs[0].Tag(), true
}

// navHref accepts "#anchor", absolute URLs and relative page paths. A bare "#"
// or an href with whitespace is rejected.
func navHref(fl validator.FieldLevel) bool {
	h := fl.Field().String()
	if h == "#" || strings.ContainsAny(h, " \t\r\n") {
		return false
	}
	_, err := url.Parse(h)
	return err == nil
}
