// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package api is the HTTP client for the BAPS backend.
//
// It owns all network I/O and response interpretation: request
// construction with bearer credentials, the response decode pipeline
// (compression detection, charset fallback), and failure
// classification. Non-2xx responses become *BackendError values whose
// status code and message drive recovery — 401s and token-rejection
// messages classify as authentication failures, which the orchestrator
// answers by invalidating the local session. Everything else is a
// plain request failure, surfaced without retry; retry policy belongs
// to the caller.
//
// The client is deliberately role-agnostic: role gating after login
// or registration is the orchestrator's job.
package api
