package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error codes carried by *Error.
const (
	CodeNetwork      = "NETWORK"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeValidation   = "VALIDATION_ERROR"
	CodeServer       = "SERVER_ERROR"
	CodeDecode       = "DECODE_ERROR"
)

// Error is the normalized failure of a backend call.
type Error struct {
	Status      int
	Code        string
	Message     string
	FieldErrors map[string]string
	Method      string
	Path        string
	Err         error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Unwrap returns the transport cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Field returns the validation message for one field.
func (e *Error) Field(name string) string {
	return e.FieldErrors[name]
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IsUnauthorized reports a 401.
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

// IsForbidden reports a 403.
func IsForbidden(err error) bool { return hasStatus(err, http.StatusForbidden) }

// IsNotFound reports a 404.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsConflict reports a 409.
func IsConflict(err error) bool { return hasStatus(err, http.StatusConflict) }

// IsValidation reports a 4xx carrying field errors.
func IsValidation(err error) bool {
	be, ok := AsError(err)
	return ok && be.Code == CodeValidation
}

// IsNetwork reports a failure where no response was received.
func IsNetwork(err error) bool {
	be, ok := AsError(err)
	return ok && be.Code == CodeNetwork
}

// Message returns display text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if be, ok := AsError(err); ok {
		return be.Message
	}
	return err.Error()
}

func hasStatus(err error, status int) bool {
	be, ok := AsError(err)
	return ok && be.Status == status
}

func defaultMessage(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "Session expired, please sign in again"
	case status == http.StatusForbidden:
		return "You are not allowed to do this"
	case status == http.StatusNotFound:
		return "Resource not found"
	case status == http.StatusConflict:
		return "The request conflicts with the current state"
	case status >= 500:
		return "Server error, try again later"
	default:
		return "Request failed"
	}
}

func codeFor(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status >= 500:
		return CodeServer
	default:
		return CodeBadRequest
	}
}

// errorPayload covers the error bodies the backend produces: its own
// {code,message,errors} envelope and the framework default
// {status,error,message,path}.
type errorPayload struct {
	Code        string          `json:"code"`
	Message     string          `json:"message"`
	Error       string          `json:"error"`
	Errors      json.RawMessage `json:"errors"`
	FieldErrors json.RawMessage `json:"fieldErrors"`
	Details     json.RawMessage `json:"details"`
}

type fieldMessage struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// normalizeError builds an *Error from a failed response body.
func normalizeError(method, path string, status int, body []byte) *Error {
	e := &Error{Status: status, Code: codeFor(status), Method: method, Path: path}

	var p errorPayload
	if len(body) > 0 && json.Unmarshal(body, &p) == nil {
		e.Message = strings.TrimSpace(p.Message)
		if e.Message == "" && status < 500 {
			e.Message = strings.TrimSpace(p.Error)
		}
		for _, raw := range []json.RawMessage{p.Errors, p.FieldErrors, p.Details} {
			mergeFieldErrors(e, raw)
		}
		if code := strings.TrimSpace(p.Code); code != "" {
			e.Code = code
		}
	}
	if len(e.FieldErrors) > 0 && status >= 400 && status < 500 && status != http.StatusUnauthorized && status != http.StatusForbidden {
		e.Code = CodeValidation
		if e.Message == "" {
			e.Message = firstFieldMessage(e.FieldErrors)
		}
	}
	if e.Message == "" {
		e.Message = defaultMessage(status)
	}
	return e
}

func mergeFieldErrors(e *Error, raw json.RawMessage) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	add := func(field, msg string) {
		field, msg = strings.TrimSpace(field), strings.TrimSpace(msg)
		if field == "" || msg == "" {
			return
		}
		if e.FieldErrors == nil {
			e.FieldErrors = make(map[string]string)
		}
		if _, exists := e.FieldErrors[field]; !exists {
			e.FieldErrors[field] = msg
		}
	}

	var asMap map[string]string
	if json.Unmarshal(raw, &asMap) == nil {
		for field, msg := range asMap {
			add(field, msg)
		}
		return
	}
	var asList []fieldMessage
	if json.Unmarshal(raw, &asList) == nil {
		for _, fm := range asList {
			add(fm.Field, fm.Message)
		}
	}
}

func firstFieldMessage(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: %s", keys[0], fields[keys[0]])
}

func networkError(method, path string, err error) *Error {
	return &Error{
		Code:    CodeNetwork,
		Message: "Could not reach the server",
		Method:  method,
		Path:    path,
		Err:     err,
	}
}
