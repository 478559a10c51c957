// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"github.com/baps-project/bimsync/extract"
	"github.com/baps-project/bimsync/session"
)

// Backend role claims. Registration submits one of these; the backend
// rejects anything else. Role gating after authentication is the
// orchestrator's decision, not the client's.
const (
	RoleGeneralContractor = "GENERAL_CONTRACTOR"
	RoleGCUser            = "GC_USER"
	RoleGCAdmin           = "GC_ADMIN"
)

// AllowedRole reports whether role belongs to the contractor role set
// this client is built for.
func AllowedRole(role string) bool {
	switch role {
	case RoleGeneralContractor, RoleGCUser, RoleGCAdmin:
		return true
	}
	return false
}

// authResponse is the login/registration response. The backend has
// shipped the token under both names; first present wins.
type authResponse struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"accessToken"`
	User        session.User `json:"user"`
}

// token returns whichever token field the backend populated.
func (r authResponse) token() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// Element is a backend-side element record, as returned by the
// elements listing. Unlike extract.Record it carries the backend's own
// identifier, which pricing calls address.
type Element struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Quantity float64        `json:"quantity"`
	Unit     string         `json:"unit"`
	Props    map[string]any `json:"properties"`
	Metadata map[string]any `json:"bimMetadata"`
}

// UploadResult is the backend's acknowledgment of a batch upload. The
// ack shape is backend-defined and has drifted; fields the backend
// omits keep their zero values and Count falls back to the submitted
// batch size.
type UploadResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// PricingSuggestion is the AI cost estimate for one element.
type PricingSuggestion struct {
	SuggestedPrice float64 `json:"suggestedPrice"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// scheduleParseRequest is the schedules/parse request body. The JSON
// field names of extract.ScheduleTable already match the backend
// contract ({schedule_name, headers, data}).
type scheduleParseRequest = extract.ScheduleTable

// scheduleParseResponse is the schedules/parse response: either a
// success flag with parsed elements or an error message.
type scheduleParseResponse struct {
	Success  bool      `json:"success"`
	Elements []Element `json:"elements"`
	Error    string    `json:"error"`
}

// batchRequest is the elements/batch request body.
type batchRequest struct {
	Elements []extract.Record `json:"elements"`
}
