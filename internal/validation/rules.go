// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/jellydator/validation"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// contactNumberRegex accepts local and international phone formats with
	// optional separators
	contactNumberRegex = regexp.MustCompile(`^\+?[0-9][0-9\-. ]{6,18}[0-9]$`)
)

// NotBlank validates that a string contains at least one non-whitespace
// character. Unlike Required it rejects whitespace-only values.
var NotBlank = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_not_blank_type", "must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "cannot be blank")
	}
	return nil
})

// Email validates that a string looks like an email address.
var Email = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_email_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if !emailRegex.MatchString(s) {
		return validation.NewError("validation_email", "must be a valid email address")
	}
	return nil
})

// ContactNumber validates that a string looks like a phone number.
var ContactNumber = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_contact_number_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if !contactNumberRegex.MatchString(s) {
		return validation.NewError("validation_contact_number", "must be a valid phone number")
	}
	return nil
})

// ISODate validates that a string is a calendar date in YYYY-MM-DD form.
var ISODate = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_iso_date_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return validation.NewError("validation_iso_date", "must be a valid date in YYYY-MM-DD format")
	}
	return nil
})
