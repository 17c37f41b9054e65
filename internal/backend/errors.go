// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeStatus
	ErrTypeInvalidRequest
)

// String returns the error type name.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeStatus:
		return "status"
	case ErrTypeInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// ClientError represents an error from the backend client.
type ClientError struct {
	Type ErrorType

	// StatusCode is set for ErrTypeStatus.
	StatusCode int

	// Message is what the user should see.
	Message string

	Cause error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// IsConnection reports whether err is a connection failure.
func IsConnection(err error) bool {
	return hasType(err, ErrTypeConnection)
}

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool {
	return hasType(err, ErrTypeTimeout)
}

// IsStatus reports whether err is a non-2xx HTTP response.
func IsStatus(err error) bool {
	return hasType(err, ErrTypeStatus)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}

func hasType(err error, t ErrorType) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == t
}

// =============================================================================
// ERROR CONVERSION
// =============================================================================

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 * 1024

// errorBody covers the shapes the service and its proxy use.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// statusError builds a ClientError from a non-2xx response body.
func statusError(statusCode int, status string, body []byte) *ClientError {
	return &ClientError{
		Type:       ErrTypeStatus,
		StatusCode: statusCode,
		Message:    errorMessage(statusCode, status, body),
	}
}

func errorMessage(statusCode int, status string, body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg := detailText(parsed.Detail); msg != "" {
			return msg
		}
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "<") {
		return text
	}

	if status == "" {
		status = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}
	return "HTTP " + status
}

// detailText handles FastAPI's "detail", which is a string for raised
// HTTP errors and a list of objects for validation errors.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return strings.TrimSpace(string(raw))
}

// transportError classifies an error returned by http.Client.Do.
func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || isNetTimeout(err) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: "cannot reach planning service", Cause: err}
}

func isNetTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
