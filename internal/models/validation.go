package models

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func requireString(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "field required")
	}
	return nil
}

// ValidEmail reports whether s is a bare e-mail address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	if addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func requireEmail(field, value string) error {
	if err := requireString(field, value); err != nil {
		return err
	}
	if !ValidEmail(value) {
		return invalid(field, "value is not a valid email address")
	}
	return nil
}

func checkRange(field string, value, min, max float64) error {
	if value < min || value > max {
		return invalid(field, "value must be between %g and %g", min, max)
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
