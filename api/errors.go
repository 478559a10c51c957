// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BackendError is a non-2xx response from the backend. Callers use
// errors.As to extract the structured information:
//
//	var backendErr *api.BackendError
//	if errors.As(err, &backendErr) {
//	    if backendErr.Authentication() { ... }
//	}
type BackendError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Message is the human-readable error extracted from the response
	// body (see parseBackendError for the fallback chain).
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend: %d: %s", e.StatusCode, e.Message)
}

// authenticationMarkers are message fragments that indicate a rejected
// or expired token even when the backend uses a non-401 status.
var authenticationMarkers = []string{"unauthorized", "invalid token", "expired"}

// Authentication reports whether this error means the session token
// was rejected: HTTP 401, or a message carrying a known rejection
// marker. This classification drives session invalidation.
func (e *BackendError) Authentication() bool {
	if e.StatusCode == 401 {
		return true
	}
	message := strings.ToLower(e.Message)
	for _, marker := range authenticationMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

// IsAuthentication reports whether err classifies as an
// authentication failure: a token-rejection BackendError, or an auth
// response that carried no token at all.
func IsAuthentication(err error) bool {
	if errors.Is(err, ErrNoToken) {
		return true
	}
	var backendErr *BackendError
	return errors.As(err, &backendErr) && backendErr.Authentication()
}

// parseBackendError builds a BackendError from a non-2xx response
// body. The backend has used two error shapes over time, so both are
// accepted as an explicit fallback chain: a nested error object with a
// message field first, then a flat "error" or "message" field, then
// the raw body prefixed with the status.
func parseBackendError(statusCode int, body []byte) *BackendError {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return &BackendError{StatusCode: statusCode, Message: nested.Error.Message}
	}

	var flat struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &flat); err == nil {
		if flat.Error != "" {
			return &BackendError{StatusCode: statusCode, Message: flat.Error}
		}
		if flat.Message != "" {
			return &BackendError{StatusCode: statusCode, Message: flat.Message}
		}
	}

	return &BackendError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", statusCode, strings.TrimSpace(string(body))),
	}
}
