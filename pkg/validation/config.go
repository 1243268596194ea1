package validation

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

// FieldError is one failed configuration check.
type FieldError struct {
	Section string
	Field   string
	Err     error
}

func (e *FieldError) Error() string { return e.Section + "." + e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// ConfigValidator accumulates FieldErrors across chained checks so a bad
// config reports every problem in one pass.
type ConfigValidator struct {
	section string
	errs    []error
}

func NewConfigValidator(section string) *ConfigValidator {
	return &ConfigValidator{section: section}
}

func (cv *ConfigValidator) add(field string, err error) *ConfigValidator {
	cv.errs = append(cv.errs, &FieldError{Section: cv.section, Field: field, Err: err})
	return cv
}

func (cv *ConfigValidator) addf(field, format string, args ...any) *ConfigValidator {
	return cv.add(field, fmt.Errorf(format, args...))
}

func outside[T cmp.Ordered](v, lo, hi T) bool { return cmp.Less(v, lo) || cmp.Less(hi, v) }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value != "" {
		return cv
	}
	return cv.addf(field, "required field is empty")
}

func (cv *ConfigValidator) RangeInt(field string, value, lo, hi int) *ConfigValidator {
	if outside(value, lo, hi) {
		return cv.addf(field, "value %d is outside range [%d, %d]", value, lo, hi)
	}
	return cv
}

func (cv *ConfigValidator) RangeDuration(field string, value, lo, hi time.Duration) *ConfigValidator {
	if outside(value, lo, hi) {
		return cv.addf(field, "duration %v is outside range [%v, %v]", value, lo, hi)
	}
	return cv
}

// RangeFloat rejects NaN as well as values outside [lo, hi].
func (cv *ConfigValidator) RangeFloat(field string, value, lo, hi float64) *ConfigValidator {
	if math.IsNaN(value) || outside(value, lo, hi) {
		return cv.addf(field, "value %v is outside range [%v, %v]", value, lo, hi)
	}
	return cv
}

func (cv *ConfigValidator) Positive(field string, value int) *ConfigValidator {
	if value <= 0 {
		return cv.addf(field, "value %d must be positive", value)
	}
	return cv
}

// PositiveFloat requires a finite value greater than zero.
func (cv *ConfigValidator) PositiveFloat(field string, value float64) *ConfigValidator {
	if !finite(value) || value <= 0 {
		return cv.addf(field, "value %v must be a positive number", value)
	}
	return cv
}

func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	if slices.Contains(allowed, value) {
		return cv
	}
	return cv.addf(field, "value %q must be one of %v", value, allowed)
}

// Custom records fn's error against field, keeping it unwrappable.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		cv.add(field, err)
	}
	return cv
}

// When runs checks only for enabled sections.
func (cv *ConfigValidator) When(enabled bool, checks func(*ConfigValidator)) *ConfigValidator {
	if enabled {
		checks(cv)
	}
	return cv
}

func (cv *ConfigValidator) HasErrors() bool { return len(cv.errs) > 0 }

func (cv *ConfigValidator) Errors() []error { return cv.errs }

// Validate returns nil, the single failure, or all failures joined.
func (cv *ConfigValidator) Validate() error {
	switch len(cv.errs) {
	case 0:
		return nil
	case 1:
		return cv.errs[0]
	}
	return fmt.Errorf("%s: %d errors: %w", cv.section, len(cv.errs), errors.Join(cv.errs...))
}

// DefaultOr substitutes fallback for the zero value.
func DefaultOr[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}
