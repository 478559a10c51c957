// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/baps-project/bimsync/extract"
	"github.com/baps-project/bimsync/lib/clock"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *clock.Fake) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	fake := clock.NewFake()
	client, err := NewClient(ClientConfig{
		BaseURL: server.URL,
		Clock:   fake,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, fake
}

func TestLogin(t *testing.T) {
	t.Run("access token field", func(t *testing.T) {
		var gotBody map[string]string
		client, fake := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			if r.Header.Get("Authorization") != "" {
				t.Errorf("login request carried Authorization: %q", r.Header.Get("Authorization"))
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Errorf("decoding request body: %v", err)
			}
			io.WriteString(w, `{"accessToken":"T1","user":{"email":"gc@example.com","role":"GC_USER"}}`)
		}))

		sess, err := client.Login(context.Background(), "gc@example.com", "secret")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if sess.Token != "T1" {
			t.Errorf("Token = %q, want T1", sess.Token)
		}
		if sess.User.Email != "gc@example.com" || sess.User.Role != "GC_USER" {
			t.Errorf("User = %+v", sess.User)
		}
		if !sess.IssuedAt.Equal(fake.Now()) {
			t.Errorf("IssuedAt = %v, want %v", sess.IssuedAt, fake.Now())
		}
		if gotBody["email"] != "gc@example.com" || gotBody["password"] != "secret" {
			t.Errorf("request body = %v", gotBody)
		}
	})

	t.Run("token field wins over access token", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"token":"A","accessToken":"B","user":{}}`)
		}))

		sess, err := client.Login(context.Background(), "gc@example.com", "secret")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if sess.Token != "A" {
			t.Errorf("Token = %q, want A", sess.Token)
		}
	})

	t.Run("no token in response", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"user":{"email":"gc@example.com"}}`)
		}))

		_, err := client.Login(context.Background(), "gc@example.com", "secret")
		if !errors.Is(err, ErrNoToken) {
			t.Fatalf("err = %v, want ErrNoToken", err)
		}
		if !IsAuthentication(err) {
			t.Error("missing token should classify as authentication failure")
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"Invalid credentials"}`)
		}))

		_, err := client.Login(context.Background(), "gc@example.com", "wrong")
		var backendErr *BackendError
		if !errors.As(err, &backendErr) {
			t.Fatalf("err = %v, want *BackendError", err)
		}
		if backendErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("StatusCode = %d, want 401", backendErr.StatusCode)
		}
		if backendErr.Message != "Invalid credentials" {
			t.Errorf("Message = %q", backendErr.Message)
		}
	})
}

func TestRegister(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["role"] != RoleGeneralContractor {
			t.Errorf("role = %q", body["role"])
		}
		io.WriteString(w, `{"token":"T2","user":{"email":"new@example.com","role":"GENERAL_CONTRACTOR"}}`)
	}))

	sess, err := client.Register(context.Background(), "new@example.com", "secret", RoleGeneralContractor)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.Token != "T2" {
		t.Errorf("Token = %q", sess.Token)
	}
}

func TestElements(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
				t.Errorf("Authorization = %q", auth)
			}
			io.WriteString(w, `[{"id":"e1","name":"Wall","category":"Walls"}]`)
		}))

		elements, err := client.Elements(context.Background(), "tok")
		if err != nil {
			t.Fatalf("Elements: %v", err)
		}
		if len(elements) != 1 || elements[0].ID != "e1" {
			t.Errorf("elements = %+v", elements)
		}
	})

	t.Run("wrapped object", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"elements":[{"id":"e1"},{"id":"e2"}]}`)
		}))

		elements, err := client.Elements(context.Background(), "tok")
		if err != nil {
			t.Fatalf("Elements: %v", err)
		}
		if len(elements) != 2 {
			t.Errorf("got %d elements, want 2", len(elements))
		}
	})

	t.Run("rejected token", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"Invalid token"}`)
		}))

		_, err := client.Elements(context.Background(), "stale")
		if !IsAuthentication(err) {
			t.Fatalf("err = %v, want authentication classification", err)
		}
	})
}

func TestUploadBatch(t *testing.T) {
	batch := []extract.Record{
		extract.NewRecord("100", "Wall A", "Walls"),
		extract.NewRecord("101", "Wall B", "Walls"),
	}

	t.Run("acknowledged", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/elements/batch" {
				t.Errorf("path = %s", r.URL.Path)
			}
			var body struct {
				Elements []json.RawMessage `json:"elements"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding request: %v", err)
			}
			if len(body.Elements) != 2 {
				t.Errorf("batch size = %d, want 2", len(body.Elements))
			}
			io.WriteString(w, `{"success":true,"count":2,"message":"ok"}`)
		}))

		result, err := client.UploadBatch(context.Background(), "tok", batch)
		if err != nil {
			t.Fatalf("UploadBatch: %v", err)
		}
		if !result.Success || result.Count != 2 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("count falls back to batch size", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"success":true}`)
		}))

		result, err := client.UploadBatch(context.Background(), "tok", batch)
		if err != nil {
			t.Fatalf("UploadBatch: %v", err)
		}
		if result.Count != len(batch) {
			t.Errorf("Count = %d, want %d", result.Count, len(batch))
		}
	})

	t.Run("server failure", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"message":"database unavailable"}}`)
		}))

		_, err := client.UploadBatch(context.Background(), "tok", batch)
		var backendErr *BackendError
		if !errors.As(err, &backendErr) {
			t.Fatalf("err = %v, want *BackendError", err)
		}
		if backendErr.Message != "database unavailable" {
			t.Errorf("Message = %q", backendErr.Message)
		}
		if IsAuthentication(err) {
			t.Error("server failure must not classify as authentication")
		}
	})
}

func TestSuggestPricing(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/elements/e%2F1/pricing/suggest" && r.URL.EscapedPath() != "/elements/e%2F1/pricing/suggest" {
			t.Errorf("path = %s", r.URL.EscapedPath())
		}
		io.WriteString(w, `{"suggestedPrice":1250.5,"confidence":0.87,"reasoning":"regional average"}`)
	}))

	suggestion, err := client.SuggestPricing(context.Background(), "tok", "e/1")
	if err != nil {
		t.Fatalf("SuggestPricing: %v", err)
	}
	if suggestion.SuggestedPrice != 1250.5 || suggestion.Confidence != 0.87 {
		t.Errorf("suggestion = %+v", suggestion)
	}
}

func TestParseSchedule(t *testing.T) {
	table := extract.ScheduleTable{
		Name:    "Door Schedule",
		Headers: []string{"Mark", "Width"},
		Rows:    [][]string{{"D1", "900"}},
	}

	t.Run("success", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body extract.ScheduleTable
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding request: %v", err)
			}
			if body.Name != "Door Schedule" {
				t.Errorf("schedule_name = %q", body.Name)
			}
			io.WriteString(w, `{"success":true,"elements":[{"id":"d1","name":"D1","category":"Doors"}]}`)
		}))

		elements, err := client.ParseSchedule(context.Background(), "tok", table)
		if err != nil {
			t.Fatalf("ParseSchedule: %v", err)
		}
		if len(elements) != 1 || elements[0].Category != "Doors" {
			t.Errorf("elements = %+v", elements)
		}
	})

	t.Run("parser declined", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"success":false,"error":"could not recognize headers"}`)
		}))

		_, err := client.ParseSchedule(context.Background(), "tok", table)
		if err == nil || !bytes.Contains([]byte(err.Error()), []byte("could not recognize headers")) {
			t.Fatalf("err = %v", err)
		}
	})
}

// Compressed responses must decode identically to plain ones even
// without a Content-Encoding header.
func TestCompressedResponse(t *testing.T) {
	payload := `{"elements":[{"id":"e1","name":"Wall"}]}`
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		io.WriteString(zw, payload)
		zw.Close()
		w.Write(buf.Bytes())
	}))

	elements, err := client.Elements(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(elements) != 1 || elements[0].Name != "Wall" {
		t.Errorf("elements = %+v", elements)
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(ClientConfig{BaseURL: "http://example.com/api/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.baseURL != "http://example.com/api" {
		t.Errorf("baseURL = %q, trailing slash should be trimmed", client.baseURL)
	}
	if client.httpClient == nil || client.logger == nil || client.clock == nil {
		t.Error("defaults not applied")
	}
}
