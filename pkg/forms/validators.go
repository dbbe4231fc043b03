// Package forms validates the storefront's contact and newsletter forms.
//
// Validation stops at the first failure and reports a single message meant
// to be shown as an error toast, matching how the pages present form
// problems.
package forms

import (
	"regexp"
	"strings"
)

// Validator checks a single field value.
type Validator interface {
	// Validate returns nil if value is valid, or a ValidationError.
	Validate(value string) error
}

// ValidatorFunc is a function that implements Validator.
type ValidatorFunc func(value string) error

func (f ValidatorFunc) Validate(value string) error {
	return f(value)
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Required validates that the trimmed value is non-empty.
func Required(msg string) Validator {
	if msg == "" {
		msg = "This field is required"
	}
	return ValidatorFunc(func(value string) error {
		if strings.TrimSpace(value) == "" {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Pattern validates that a non-empty value matches re.
// Empty values pass; combine with Required when the field is mandatory.
func Pattern(re *regexp.Regexp, msg string) Validator {
	return ValidatorFunc(func(value string) error {
		if value == "" {
			return nil
		}
		if !re.MatchString(value) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// MaxLength validates that a value has at most n characters.
func MaxLength(n int, msg string) Validator {
	return ValidatorFunc(func(value string) error {
		if len([]rune(value)) > n {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

var (
	// emailPattern is the loose check the pages apply before submitting.
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// strictEmailPattern is the server-side newsletter check.
	strictEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	phonePattern = regexp.MustCompile(`^[0-9+\-\s]+$`)
)

// Email validates an address with the pages' loose pattern.
func Email(msg string) Validator {
	if msg == "" {
		msg = MsgInvalidEmail
	}
	return Pattern(emailPattern, msg)
}

// StrictEmail validates an address with the stricter server pattern.
func StrictEmail(msg string) Validator {
	if msg == "" {
		msg = MsgInvalidEmail
	}
	return Pattern(strictEmailPattern, msg)
}

// Phone validates digits, plus, dash and spaces.
func Phone(msg string) Validator {
	if msg == "" {
		msg = MsgInvalidPhone
	}
	return Pattern(phonePattern, msg)
}

// field pairs a name and value with the validators to run on it.
type field struct {
	name       string
	value      string
	validators []Validator
}

// firstError runs each field's validators in order and returns the first
// failure, tagged with its field name.
func firstError(fields ...field) error {
	for _, f := range fields {
		for _, v := range f.validators {
			if err := v.Validate(f.value); err != nil {
				if ve, ok := err.(ValidationError); ok {
					ve.Field = f.name
					return ve
				}
				return err
			}
		}
	}
	return nil
}
