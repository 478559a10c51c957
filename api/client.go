// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/baps-project/bimsync/extract"
	"github.com/baps-project/bimsync/lib/clock"
	"github.com/baps-project/bimsync/lib/netutil"
	"github.com/baps-project/bimsync/session"
)

// DefaultBaseURL is the local development backend.
const DefaultBaseURL = "http://localhost:3001/api"

// ErrNoToken is returned when a login or registration succeeds at the
// HTTP level but the response carries no token under either accepted
// field name. It classifies as an authentication failure.
var ErrNoToken = errors.New("api: response carried no authentication token")

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the backend API root (e.g. "http://localhost:3001/api").
	// Empty means DefaultBaseURL.
	BaseURL string

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used. Callers impose timeouts here — the client itself has no
	// retry or timeout policy.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// Clock stamps session issue times. If nil, the system clock is
	// used.
	Clock clock.Clock
}

// Client talks to the BAPS backend. One network operation at a time;
// the client keeps no state beyond its configuration and retains no
// batch after an upload returns.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	clock      clock.Clock
}

// NewClient creates a backend client.
func NewClient(config ClientConfig) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("api: invalid base URL %q: %w", baseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		clock:      clk,
	}, nil
}

// Login authenticates with email and password. On success the returned
// session carries the token (from either accepted field name), the
// backend's user identity, and an issue time of now.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("api: login failed: %w", err)
	}
	return c.sessionFromAuth(body, "logged in")
}

// Register creates a new account with the given role claim and returns
// the session the backend issues for it. The role is submitted
// verbatim; the backend rejects roles outside its enumeration.
func (c *Client) Register(ctx context.Context, email, password, role string) (*session.Session, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "auth/register", "", map[string]string{
		"email":    email,
		"password": password,
		"role":     role,
	})
	if err != nil {
		return nil, fmt.Errorf("api: registration failed: %w", err)
	}
	return c.sessionFromAuth(body, "registered")
}

// sessionFromAuth decodes an auth response body into a session.
func (c *Client) sessionFromAuth(body []byte, event string) (*session.Session, error) {
	var auth authResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, fmt.Errorf("api: parsing auth response: %w", err)
	}

	token := auth.token()
	if token == "" {
		return nil, ErrNoToken
	}

	c.logger.Info(event,
		"email", auth.User.Email,
		"role", auth.User.Role,
	)

	return &session.Session{
		Token:    token,
		User:     auth.User,
		IssuedAt: c.clock.Now(),
	}, nil
}

// Elements lists the elements already synced to the backend. Accepts
// both response shapes the backend has used: a bare array and an
// {"elements": [...]} wrapper.
func (c *Client) Elements(ctx context.Context, token string) ([]Element, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "elements", token, nil)
	if err != nil {
		return nil, fmt.Errorf("api: listing elements: %w", err)
	}

	var elements []Element
	if err := json.Unmarshal(body, &elements); err == nil {
		return elements, nil
	}

	var wrapped struct {
		Elements []Element `json:"elements"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("api: parsing elements response: %w", err)
	}
	return wrapped.Elements, nil
}

// CreateElement uploads a single record. Batch sync uses UploadBatch;
// this exists for one-off corrections.
func (c *Client) CreateElement(ctx context.Context, token string, record extract.Record) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "elements", token, record); err != nil {
		return fmt.Errorf("api: creating element %s: %w", record.ExternalID, err)
	}
	return nil
}

// UploadBatch submits the full batch as one request. All-or-nothing:
// the backend accepts or rejects the whole batch atomically, and the
// client performs no chunking or partial retry.
func (c *Client) UploadBatch(ctx context.Context, token string, batch []extract.Record) (*UploadResult, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "elements/batch", token, batchRequest{Elements: batch})
	if err != nil {
		return nil, fmt.Errorf("api: uploading batch of %d: %w", len(batch), err)
	}

	// The ack shape is backend-defined; decode what is recognizable
	// and fall back to the submitted size.
	result := &UploadResult{Success: true}
	if len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			result = &UploadResult{Success: true}
		}
	}
	if result.Count == 0 {
		result.Count = len(batch)
	}

	c.logger.Info("batch uploaded", "count", result.Count)
	return result, nil
}

// SuggestPricing requests the AI cost estimate for one backend
// element.
func (c *Client) SuggestPricing(ctx context.Context, token, elementID string) (*PricingSuggestion, error) {
	path := "elements/" + url.PathEscape(elementID) + "/pricing/suggest"
	body, err := c.doRequest(ctx, http.MethodPost, path, token, nil)
	if err != nil {
		return nil, fmt.Errorf("api: pricing suggestion for %s: %w", elementID, err)
	}

	var suggestion PricingSuggestion
	if err := json.Unmarshal(body, &suggestion); err != nil {
		return nil, fmt.Errorf("api: parsing pricing response: %w", err)
	}
	return &suggestion, nil
}

// ParseSchedule sends a schedule table to the backend's AI parser and
// returns the elements it recognized.
func (c *Client) ParseSchedule(ctx context.Context, token string, table extract.ScheduleTable) ([]Element, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "schedules/parse", token, scheduleParseRequest(table))
	if err != nil {
		return nil, fmt.Errorf("api: parsing schedule %q: %w", table.Name, err)
	}

	var parsed scheduleParseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("api: parsing schedule response: %w", err)
	}
	if !parsed.Success {
		message := parsed.Error
		if message == "" {
			message = "parsing failed"
		}
		return nil, fmt.Errorf("api: schedule %q: %s", table.Name, message)
	}
	return parsed.Elements, nil
}

// doRequest performs one HTTP request and returns the decoded response
// body. On 2xx, returns the body. On 4xx/5xx, returns the body
// alongside a *BackendError. token may be empty for unauthenticated
// endpoints.
func (c *Client) doRequest(ctx context.Context, method, path, token string, requestBody any) ([]byte, error) {
	requestURL := c.baseURL + "/" + path

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	raw, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// Normalize before any interpretation — error bodies need the
	// same decompression and charset handling as success bodies.
	responseBody := decodeBody(raw)

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}
	return responseBody, parseBackendError(response.StatusCode, responseBody)
}
