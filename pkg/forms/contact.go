package forms

import (
	"net/http"
	"strings"
)

// Messages shown to the user.
const (
	MsgRequiredFields = "Please fill in all required fields"
	MsgInvalidEmail   = "Please enter a valid email address"
	MsgInvalidPhone   = "Please enter a valid phone number"
	MsgMessageTooLong = "Your message is too long"

	MsgContactSent   = "Thank you for your message! We will get back to you soon."
	MsgContactFailed = "There was an error sending your message. Please try again."
)

// MaxMessageLength bounds the contact message body.
const MaxMessageLength = 5000

// Contact is a submitted contact form.
type Contact struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	Newsletter bool   `json:"newsletter"`
}

// ContactFromRequest reads a contact form from a parsed request.
// Text fields are trimmed; the newsletter checkbox is on when its value is
// "on" or "true".
func ContactFromRequest(r *http.Request) Contact {
	nl := r.FormValue("newsletter")
	return Contact{
		Name:       strings.TrimSpace(r.FormValue("name")),
		Email:      strings.TrimSpace(r.FormValue("email")),
		Phone:      strings.TrimSpace(r.FormValue("phone")),
		Subject:    r.FormValue("subject"),
		Message:    strings.TrimSpace(r.FormValue("message")),
		Newsletter: nl == "on" || nl == "true",
	}
}

// Validate checks required fields, then the email, then the optional phone.
func (c Contact) Validate() error {
	required := Required(MsgRequiredFields)
	if err := firstError(
		field{"name", c.Name, []Validator{required}},
		field{"email", c.Email, []Validator{required}},
		field{"subject", c.Subject, []Validator{required}},
		field{"message", c.Message, []Validator{required}},
	); err != nil {
		return err
	}

	return firstError(
		field{"email", c.Email, []Validator{Email("")}},
		field{"phone", c.Phone, []Validator{Phone("")}},
		field{"message", c.Message, []Validator{MaxLength(MaxMessageLength, MsgMessageTooLong)}},
	)
}
