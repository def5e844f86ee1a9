package validation

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/exp/slices"
	"golang.org/x/text/language"
)

// FieldError is one configuration problem, addressed as section.field.
type FieldError struct {
	Section string
	Field   string
	Reason  string
	Err     error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %v", e.Section, e.Field, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Section, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ConfigValidator collects every failure of one configuration section so a
// bad file is reported in one pass.
type ConfigValidator struct {
	section string
	errs    []error
}

// NewConfigValidator starts a validator for the named section.
func NewConfigValidator(section string) *ConfigValidator {
	return &ConfigValidator{section: section}
}

func (cv *ConfigValidator) reject(field string, format string, args ...any) *ConfigValidator {
	cv.errs = append(cv.errs, &FieldError{Section: cv.section, Field: field, Reason: fmt.Sprintf(format, args...)})
	return cv
}

func (cv *ConfigValidator) wrap(field string, err error) *ConfigValidator {
	cv.errs = append(cv.errs, &FieldError{Section: cv.section, Field: field, Err: err})
	return cv
}

// Required rejects an empty or blank string.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if strings.TrimSpace(value) == "" {
		return cv.reject(field, "required field is empty")
	}
	return cv
}

// ListenAddr accepts "host:port" or ":port".
func (cv *ConfigValidator) ListenAddr(field, value string) *ConfigValidator {
	if _, _, err := net.SplitHostPort(value); err != nil {
		return cv.reject(field, "invalid listen address %q: %v", value, err)
	}
	return cv
}

// PeerAddr accepts a member address as other nodes dial it: "host:port",
// optionally prefixed with http:// or https://. The host is mandatory.
func (cv *ConfigValidator) PeerAddr(field, value string) *ConfigValidator {
	if err := checkPeerAddr(value); err != nil {
		return cv.reject(field, "%v", err)
	}
	return cv
}

// PeerAddrs checks each member address and rejects duplicates.
func (cv *ConfigValidator) PeerAddrs(field string, values []string) *ConfigValidator {
	for i, v := range values {
		if err := checkPeerAddr(v); err != nil {
			cv.reject(fmt.Sprintf("%s[%d]", field, i), "%v", err)
			continue
		}
		if slices.Index(values, v) != i {
			cv.reject(fmt.Sprintf("%s[%d]", field, i), "duplicate address %q", v)
		}
	}
	return cv
}

func checkPeerAddr(value string) error {
	addr := strings.TrimPrefix(strings.TrimPrefix(value, "https://"), "http://")
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid peer address %q: %w", value, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("peer address %q needs both host and port", value)
	}
	return nil
}

// Locale accepts a BCP 47 tag such as "en" or "sv-SE".
func (cv *ConfigValidator) Locale(field, value string) *ConfigValidator {
	if _, err := language.Parse(value); err != nil {
		return cv.wrap(field, err)
	}
	return cv
}

// IntBetween rejects values outside [lo, hi].
func (cv *ConfigValidator) IntBetween(field string, value, lo, hi int) *ConfigValidator {
	if value < lo || value > hi {
		return cv.reject(field, "value %d is outside range [%d, %d]", value, lo, hi)
	}
	return cv
}

// Positive rejects zero and negative sizes and counts.
func (cv *ConfigValidator) Positive(field string, value int64) *ConfigValidator {
	if value <= 0 {
		return cv.reject(field, "value %d must be positive", value)
	}
	return cv
}

// AtLeast rejects durations shorter than min.
func (cv *ConfigValidator) AtLeast(field string, value, min time.Duration) *ConfigValidator {
	if value < min {
		return cv.reject(field, "duration %v is below minimum %v", value, min)
	}
	return cv
}

// OneOf rejects values outside allowed.
func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	if !slices.Contains(allowed, value) {
		return cv.reject(field, "value %q must be one of %v", value, allowed)
	}
	return cv
}

// Custom records fn's error against field. The error stays reachable with
// errors.Is.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		return cv.wrap(field, err)
	}
	return cv
}

// When runs checks only if cond holds.
func (cv *ConfigValidator) When(cond bool, checks func(*ConfigValidator)) *ConfigValidator {
	if cond {
		checks(cv)
	}
	return cv
}

// HasErrors reports whether any check failed.
func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errs) > 0
}

// Validate returns every collected failure joined into one error.
func (cv *ConfigValidator) Validate() error {
	return errors.Join(cv.errs...)
}

// Or returns def when value is the zero value.
func Or[T comparable](value, def T) T {
	var zero T
	if value == zero {
		return def
	}
	return value
}

// PositiveOr returns def when value is zero or negative. It covers counts,
// byte sizes and durations.
func PositiveOr[T ~int | ~int64](value, def T) T {
	if value <= 0 {
		return def
	}
	return value
}
