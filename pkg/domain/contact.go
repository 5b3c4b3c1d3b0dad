package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ContactForm is a visitor enquiry.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

// Validate sanitizes the fields, checks that name, email and message are present and that the email is well formed.
func (f *ContactForm) Validate() error {
	for _, field := range []struct {
		name  string
		value *string
		limit int
	}{
		{"name", &f.Name, MaxNameLength},
		{"email", &f.Email, MaxEmailLength},
		{"phone", &f.Phone, MaxPhoneLength},
		{"message", &f.Message, MaxMessageLength},
	} {
		clean, err := Sanitize(field.name, *field.value, field.limit)
		if err != nil {
			return err
		}
		*field.value = clean
	}

	var missing []string
	if f.Name == "" {
		missing = append(missing, "name")
	}
	if f.Email == "" {
		missing = append(missing, "email")
	}
	if f.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	// the address itself stays out of the error so it never reaches the logs
	raw, err := json.Marshal(f.Email)
	if err != nil {
		return ErrInvalidEmail
	}
	var email openapi_types.Email
	if err := email.UnmarshalJSON(raw); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// Email is a rendered message ready for delivery.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}
