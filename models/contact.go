package models

import (
	"net/mail"
	"strings"
)

// ContactMessage is the body of POST /api/contact.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (c ContactMessage) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return FieldError("name")
	case strings.TrimSpace(c.Email) == "":
		return FieldError("email")
	case strings.TrimSpace(c.Subject) == "":
		return FieldError("subject")
	case strings.TrimSpace(c.Message) == "":
		return FieldError("message")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return &InvalidFieldError{Field: "email", Reason: "is not a valid address"}
	}
	return nil
}
