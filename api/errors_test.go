// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseBackendError(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		body        string
		wantMessage string
	}{
		{
			name:        "nested error object",
			statusCode:  500,
			body:        `{"error":{"message":"database unavailable"}}`,
			wantMessage: "database unavailable",
		},
		{
			name:        "flat error field",
			statusCode:  401,
			body:        `{"error":"Invalid token"}`,
			wantMessage: "Invalid token",
		},
		{
			name:        "flat message field",
			statusCode:  400,
			body:        `{"message":"missing category"}`,
			wantMessage: "missing category",
		},
		{
			name:        "flat error preferred over message",
			statusCode:  400,
			body:        `{"error":"first","message":"second"}`,
			wantMessage: "first",
		},
		{
			name:        "non-json body",
			statusCode:  502,
			body:        "Bad Gateway\n",
			wantMessage: "HTTP 502: Bad Gateway",
		},
		{
			name:        "empty body",
			statusCode:  503,
			body:        "",
			wantMessage: "HTTP 503: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseBackendError(tt.statusCode, []byte(tt.body))
			if got.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.statusCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestAuthenticationClassification(t *testing.T) {
	tests := []struct {
		name string
		err  *BackendError
		want bool
	}{
		{"status 401", &BackendError{StatusCode: 401, Message: "nope"}, true},
		{"unauthorized marker", &BackendError{StatusCode: 403, Message: "Unauthorized"}, true},
		{"invalid token marker", &BackendError{StatusCode: 400, Message: "Invalid token supplied"}, true},
		{"expired marker", &BackendError{StatusCode: 419, Message: "session expired"}, true},
		{"case insensitive", &BackendError{StatusCode: 400, Message: "TOKEN EXPIRED"}, true},
		{"server failure", &BackendError{StatusCode: 500, Message: "database unavailable"}, false},
		{"validation failure", &BackendError{StatusCode: 400, Message: "missing category"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Authentication(); got != tt.want {
				t.Errorf("Authentication() = %v, want %v", got, tt.want)
			}
			if got := IsAuthentication(tt.err); got != tt.want {
				t.Errorf("IsAuthentication = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAuthenticationWrapped(t *testing.T) {
	inner := &BackendError{StatusCode: 401, Message: "Invalid token"}
	wrapped := fmt.Errorf("api: listing elements: %w", inner)
	if !IsAuthentication(wrapped) {
		t.Error("wrapped backend error should still classify")
	}
	if IsAuthentication(errors.New("connection refused")) {
		t.Error("plain transport error must not classify")
	}
	if !IsAuthentication(fmt.Errorf("login: %w", ErrNoToken)) {
		t.Error("wrapped ErrNoToken should classify")
	}
}

func TestBackendErrorString(t *testing.T) {
	err := &BackendError{StatusCode: 404, Message: "not found"}
	if got := err.Error(); got != "backend: 404: not found" {
		t.Errorf("Error() = %q", got)
	}
}
