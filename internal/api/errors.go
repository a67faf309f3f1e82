package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an API failure for the stores and the page layer.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindStock
	KindNetwork
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindStock:
		return "stock"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// User-facing fallback messages, used when the server response carries none.
const (
	msgServerError = "Internal server error. Please try again later."
	msgNotFound    = "Resource not found."
	msgTimeout     = "Request timeout. Please check your connection."
	msgNetwork     = "Network error. Please check your connection."
	msgGeneric     = "Something went wrong. Please try again."
	msgExpired     = "Your session has expired. Please log in again."
)

// Error is the classified form every failure takes before it leaves the
// adapter. Message is always safe to show to the user; Fields carries
// field-level validation detail when the server provides it.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// KindOf extracts the classification from err, or KindUnknown for foreign
// errors.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err != nil {
		return msgGeneric
	}
	return ""
}

// errorBody covers the error payload shapes the marketplace API produces.
type errorBody struct {
	Message string            `json:"message"`
	Detail  string            `json:"detail"`
	Errors  map[string]string `json:"errors"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Detail
}

// classify converts an HTTP error response into a typed Error. The decision
// of "what if a field is missing" lives here and nowhere else.
func classify(status int, body []byte) *Error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)
	msg := parsed.text()

	e := &Error{Status: status, Message: msg, Fields: parsed.Errors}

	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuthentication
	case status == http.StatusForbidden:
		e.Kind = KindAuthorization
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
		if e.Message == "" {
			e.Message = msgNotFound
		}
	case status == http.StatusConflict || strings.Contains(strings.ToLower(msg), "stock"):
		e.Kind = KindStock
	case status >= 500:
		e.Kind = KindServer
		e.Message = msgServerError
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	default:
		e.Kind = KindUnknown
	}

	if e.Message == "" {
		e.Message = msgGeneric
	}
	return e
}
