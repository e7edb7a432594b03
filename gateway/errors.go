package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"agromart/models"
)

// AuthError covers rejected credentials, duplicate registrations, expired
// sessions and role refusals. The form is re-presented with Detail.
type AuthError struct {
	Status int
	Detail string
}

func (e *AuthError) Error() string { return e.Detail }

// NotFoundError means the product or order does not exist.
type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string { return e.Detail }

// ValidationError is a missing or malformed field, caught either before
// dispatch (Field set) or reported by the server.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

// NetworkError is a transport failure, timeout, 5xx, open circuit or an
// unreadable response. Nothing retries it automatically. Status is set only
// when the server answered.
type NetworkError struct {
	Status int
	Detail string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PaymentError halts an online checkout: the widget was dismissed or the
// payment could not be verified. No order exists.
type PaymentError struct {
	Detail string
	Err    error
}

func (e *PaymentError) Error() string { return e.Detail }

func (e *PaymentError) Unwrap() error { return e.Err }

// Invalid converts a client-side form check into a ValidationError.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	var fe *models.InvalidFieldError
	if errors.As(err, &fe) {
		return &ValidationError{Field: fe.Field, Detail: fe.Error()}
	}
	return &ValidationError{Detail: err.Error()}
}

// Message is the one-line notification shown for err. Server details are
// shown verbatim, whatever the status; transport failures get a generic
// line and everything else falls back to fallback.
func Message(err error, fallback string) string {
	var (
		ae *AuthError
		nf *NotFoundError
		ve *ValidationError
		ne *NetworkError
		pe *PaymentError
	)
	switch {
	case errors.As(err, &ae) && ae.Detail != "":
		return ae.Detail
	case errors.As(err, &nf) && nf.Detail != "":
		return nf.Detail
	case errors.As(err, &ve) && ve.Detail != "":
		return ve.Detail
	case errors.As(err, &pe) && pe.Detail != "":
		return pe.Detail
	case errors.As(err, &ne) && ne.Status != 0 && ne.Detail != "":
		return ne.Detail
	case errors.As(err, &ne):
		return "Network error, please try again"
	}
	return fallback
}

// errorBody is the backend's error envelope. detail is a string for
// handler errors and a list for request validation failures.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	var items []validationItem
	if err := json.Unmarshal(eb.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if len(it.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// classify maps a non-2xx response to the error taxonomy. authCall marks
// login and register, where any 4xx is a credentials problem.
func classify(status int, body []byte, fallback string, authCall bool) error {
	detail := parseDetail(body)
	if detail == "" {
		detail = fallback
	}
	switch {
	case authCall && status >= 400 && status < 500:
		return &AuthError{Status: status, Detail: detail}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Status: status, Detail: detail}
	case status == http.StatusNotFound:
		return &NotFoundError{Detail: detail}
	case status >= 400 && status < 500:
		return &ValidationError{Detail: detail}
	}
	return &NetworkError{Status: status, Detail: detail}
}
