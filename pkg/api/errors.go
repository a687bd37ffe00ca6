package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// GenericMessage is shown when the backend gives no usable message.
const GenericMessage = "Error en la petición"

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Body    []byte
	Message string
	// Fields holds DRF-style validation errors keyed by field name.
	Fields map[string][]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: remote error %d: %s", e.Status, e.Message)
}

// UserMessage returns the backend message for display.
func (e *Error) UserMessage() string { return e.Message }

// FieldMessage returns the first message for field, if any.
func (e *Error) FieldMessage(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Unauthorized reports a 401 response.
func (e *Error) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

// IsStatus reports whether err is an *Error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// TransportError wraps failures that never produced an HTTP response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("api: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func newError(status int, body []byte, isJSON bool) *Error {
	out := &Error{Status: status, Body: body}
	if !isJSON {
		out.Message = strings.TrimSpace(string(body))
		if out.Message == "" {
			out.Message = GenericMessage
		}
		return out
	}

	var payload map[string]any
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		out.Message = GenericMessage
		return out
	}
	out.Fields = fieldErrors(payload)
	for _, key := range []string{"error", "detail", "message"} {
		if msg, ok := payload[key].(string); ok && strings.TrimSpace(msg) != "" {
			out.Message = msg
			return out
		}
	}
	if msg := firstFieldMessage(out.Fields); msg != "" {
		out.Message = msg
		return out
	}
	out.Message = GenericMessage
	return out
}

func fieldErrors(payload map[string]any) map[string][]string {
	fields := map[string][]string{}
	for key, value := range payload {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					fields[key] = append(fields[key], s)
				}
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func firstFieldMessage(fields map[string][]string) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if msgs := fields[key]; len(msgs) > 0 {
			if key == "non_field_errors" {
				return msgs[0]
			}
			return key + ": " + msgs[0]
		}
	}
	return ""
}
