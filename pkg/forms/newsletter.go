package forms

import (
	"net/http"
	"strings"
)

// Newsletter messages shown to the user.
const (
	MsgEmailMissing      = "Please provide an email address"
	MsgEmailInvalid      = "Please provide a valid email address"
	MsgAlreadySubscribed = "This email is already subscribed"
	MsgSubscribed        = "Thank you for subscribing to our newsletter!"
	MsgSubscribeFailed   = "There was an error subscribing. Please try again."
)

// Newsletter is a submitted newsletter sign-up.
type Newsletter struct {
	Email string `json:"email"`
}

// NewsletterFromRequest reads a newsletter form from a parsed request.
func NewsletterFromRequest(r *http.Request) Newsletter {
	return Newsletter{Email: strings.TrimSpace(r.FormValue("email"))}
}

// Validate checks the address with the server's strict pattern.
func (n Newsletter) Validate() error {
	return firstError(field{"email", n.Email, []Validator{
		Required(MsgEmailMissing),
		StrictEmail(MsgEmailInvalid),
	}})
}

// Normalized returns the address lower-cased, for duplicate detection.
func (n Newsletter) Normalized() string {
	return strings.ToLower(n.Email)
}
